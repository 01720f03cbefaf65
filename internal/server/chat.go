package server

import (
	"errors"
	"net/http"

	"github.com/soyeahso/aiosforge/internal/assistant"
	"github.com/soyeahso/aiosforge/internal/domain"
	"github.com/soyeahso/aiosforge/internal/generator"
	"github.com/soyeahso/aiosforge/internal/llm"
)

// unavailableMessage is all a client learns about a failed assistant call.
const unavailableMessage = "the assistant is unavailable right now, please try again"

type chatRequest struct {
	Messages    []llm.Message         `json:"messages"`
	WizardState assistant.WizardState `json:"wizardState"`
}

// ComplianceRequest reviews either the given files or, when ProjectID is
// set, the files stored for that project.
type ComplianceRequest struct {
	ProjectID string                 `json:"projectId,omitempty"`
	Files     []domain.GeneratedFile `json:"files,omitempty"`
}

// ComplianceResponse carries the accepted verdicts. Updated counts stored
// files that received one.
type ComplianceResponse struct {
	Results []domain.ComplianceResult `json:"results"`
	Updated int                       `json:"updated"`
}

func (s *Server) requireAssistant(w http.ResponseWriter) bool {
	if s.deps.Assistant == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "assistant is not configured")
		return false
	}
	return true
}

// assistantFailure maps an assistant error to a status, code and client
// message. Upstream details are logged, never returned.
func (s *Server) assistantFailure(err error) (int, string, string) {
	switch {
	case errors.Is(err, assistant.ErrNoMessages), errors.Is(err, assistant.ErrNoFiles):
		return http.StatusBadRequest, "invalid_params", err.Error()
	default:
		s.log.Warn().Err(err).Msg("assistant call failed")
		return http.StatusBadGateway, "assistant_unavailable", unavailableMessage
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !s.requireAssistant(w) {
		return
	}
	var req chatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	reply, err := s.deps.Assistant.Chat(r.Context(), req.Messages, req.WizardState)
	if err != nil {
		status, code, msg := s.assistantFailure(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleCompliance(w http.ResponseWriter, r *http.Request) {
	if !s.requireAssistant(w) {
		return
	}
	var req ComplianceRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	files := req.Files
	if req.ProjectID != "" {
		stored, err := s.projectFiles(req.ProjectID)
		if err != nil {
			s.storeError(w, err)
			return
		}
		files = stored
	}

	results, err := s.deps.Assistant.Review(r.Context(), files)
	if err != nil {
		status, code, msg := s.assistantFailure(err)
		writeError(w, status, code, msg)
		return
	}

	resp := ComplianceResponse{Results: results}
	if req.ProjectID != "" {
		n, err := s.deps.Files.UpdateCompliance(req.ProjectID, generator.ResultsByPath(results))
		if err != nil {
			s.storeError(w, err)
			return
		}
		resp.Updated = n
	}
	writeJSON(w, http.StatusOK, resp)
}
