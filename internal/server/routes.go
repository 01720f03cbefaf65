package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/soyeahso/aiosforge/internal/assistant"
	"github.com/soyeahso/aiosforge/internal/llm"
)

// llmCallTimeout bounds a single assistant call made over WebSocket.
const llmCallTimeout = 5 * time.Minute

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/patterns", s.handlePatterns)
	mux.HandleFunc("POST /api/validate", s.handleValidate)
	mux.HandleFunc("POST /api/diagram", s.handleDiagram)
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/export", s.handleExport)

	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("POST /api/projects", s.handleSaveProject)
	mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	mux.HandleFunc("DELETE /api/projects/{id}", s.handleDeleteProject)
	mux.HandleFunc("POST /api/projects/{id}/files", s.handleGenerateProjectFiles)
	mux.HandleFunc("GET /api/projects/{id}/files", s.handleListProjectFiles)
	mux.HandleFunc("GET /api/projects/{id}/export", s.handleExportProject)

	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("PUT /api/sessions/{id}/model", s.handleUpdateSessionModel)
	mux.HandleFunc("POST /api/sessions/{id}/next", s.handleSessionNext)
	mux.HandleFunc("POST /api/sessions/{id}/back", s.handleSessionBack)
	mux.HandleFunc("POST /api/sessions/{id}/goto", s.handleSessionGoTo)

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/compliance", s.handleCompliance)
}

// routeMethods are the methods tried when a path has no route for the
// request method.
var routeMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

// routed serves mux, answering unmatched requests with the JSON error shape:
// 405 with an Allow header when the path is routed for another method, 404
// otherwise.
func routed(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pattern := mux.Handler(r); pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}
		var allow []string
		for _, m := range routeMethods {
			alt := r.Clone(r.Context())
			alt.Method = m
			if _, pattern := mux.Handler(alt); pattern != "" {
				allow = append(allow, m)
			}
		}
		if len(allow) == 0 {
			handleNotFound(w, r)
			return
		}
		w.Header().Set("Allow", strings.Join(allow, ", "))
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not allowed on "+r.URL.Path)
	})
}

// registerRPCHandlers sets up all WebSocket RPC method handlers.
func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("chat.send", s.rpcChatSend)
}

func (s *Server) rpcHealth(rc *RequestContext) {
	rc.Respond(HealthResponse{
		Status:    "ok",
		Version:   s.version,
		Clients:   s.clients.Count(),
		Assistant: s.deps.Assistant != nil,
	})
}

type chatSendParams struct {
	Messages    []llm.Message         `json:"messages"`
	WizardState assistant.WizardState `json:"wizardState"`
}

// ChatDelta is the payload of a chat.delta event.
type ChatDelta struct {
	RequestID string `json:"requestId"`
	Content   string `json:"content"`
}

// rpcChatSend streams the assistant reply as chat.delta events and then
// answers the request with the complete reply.
func (s *Server) rpcChatSend(rc *RequestContext) {
	if s.deps.Assistant == nil {
		rc.RespondError("unavailable", "assistant is not configured")
		return
	}

	var p chatSendParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), llmCallTimeout)
	defer cancel()

	reply, err := s.deps.Assistant.ChatStream(ctx, p.Messages, p.WizardState, func(delta string) {
		seq := s.eventSeq.Add(1)
		if err := rc.Client.SendEvent(EventChatDelta, ChatDelta{RequestID: rc.Frame.ID, Content: delta}, seq); err != nil {
			s.log.Debug().Err(err).Str("connId", rc.Client.ConnID).Msg("dropping chat delta")
		}
	})
	if err != nil {
		_, code, msg := s.assistantFailure(err)
		rc.RespondError(code, msg)
		return
	}
	rc.Respond(reply)
}
