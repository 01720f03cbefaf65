package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/soyeahso/aiosforge/internal/catalog"
	"github.com/soyeahso/aiosforge/internal/diagram"
	"github.com/soyeahso/aiosforge/internal/domain"
	"github.com/soyeahso/aiosforge/internal/export"
	"github.com/soyeahso/aiosforge/internal/generator"
)

// PatternInfo describes one orchestration pattern for pickers.
type PatternInfo struct {
	ID          domain.Pattern `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
}

// ValidateResponse is the body of POST /api/validate.
type ValidateResponse struct {
	Valid  bool                     `json:"valid"`
	Issues []domain.ValidationIssue `json:"issues"`
}

// GenerateRequest is the body of POST /api/generate and POST /api/export.
type GenerateRequest struct {
	Model      domain.Model              `json:"model"`
	Compliance []domain.ComplianceResult `json:"compliance,omitempty"`
}

// FilesResponse wraps a file list.
type FilesResponse struct {
	Files []domain.GeneratedFile `json:"files"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"agents": catalog.Native()})
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	patterns := domain.Patterns()
	out := make([]PatternInfo, len(patterns))
	for i, p := range patterns {
		out[i] = PatternInfo{ID: p, Title: p.Title(), Description: p.Describe()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var m domain.Model
	if err := decodeBody(w, r, &m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	issues := domain.Validate(m)
	if issues == nil {
		issues = []domain.ValidationIssue{}
	}
	writeJSON(w, http.StatusOK, ValidateResponse{Valid: len(issues) == 0, Issues: issues})
}

// handleDiagram returns the orchestration graph, or its text rendering with
// ?format=ascii.
func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	var m domain.Model
	if err := decodeBody(w, r, &m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, diagram.Build(m))
	case "ascii":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(diagram.RenderASCII(m)))
	default:
		writeError(w, http.StatusBadRequest, "invalid_format", "format must be json or ascii")
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, FilesResponse{Files: generateFiles(req)})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	s.writeArchive(w, req.Model.Project.Name, generateFiles(req))
}

func generateFiles(req GenerateRequest) []domain.GeneratedFile {
	var overlay map[string]domain.ComplianceResult
	if len(req.Compliance) > 0 {
		overlay = generator.ResultsByPath(req.Compliance)
	}
	return generator.Generate(req.Model, overlay)
}

// archiveRoot is the folder wrapping exported files: the configured root,
// or the project folder named like the archive.
func (s *Server) archiveRoot(projectName string) string {
	if s.cfg.Generator.ArchiveRoot != "" {
		return s.cfg.Generator.ArchiveRoot
	}
	return export.Folder(projectName)
}

// writeArchive builds the ZIP in memory first so a failure can still be
// reported as JSON.
func (s *Server) writeArchive(w http.ResponseWriter, projectName string, files []domain.GeneratedFile) {
	data, err := export.ZipBytes(s.archiveRoot(projectName), files)
	if err != nil {
		if errors.Is(err, export.ErrUnsafePath) {
			writeError(w, http.StatusBadRequest, "unsafe_path", err.Error())
			return
		}
		s.log.Error().Err(err).Msg("building archive")
		writeError(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.ArchiveName(projectName)))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
