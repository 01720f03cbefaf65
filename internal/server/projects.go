package server

import (
	"fmt"
	"net/http"

	"github.com/soyeahso/aiosforge/internal/domain"
	"github.com/soyeahso/aiosforge/internal/generator"
	"github.com/soyeahso/aiosforge/internal/store"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Projects.List()
	if err != nil {
		s.storeError(w, err)
		return
	}
	if list == nil {
		list = []store.ProjectSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": list})
}

// handleSaveProject stores a model. A model carrying a project ID overwrites
// that project.
func (s *Server) handleSaveProject(w http.ResponseWriter, r *http.Request) {
	var m domain.Model
	if err := decodeBody(w, r, &m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	id, err := s.deps.Projects.Save(m)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.log.Info().Str("project", id).Str("name", m.Project.Name).Msg("project saved")
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	m, err := s.deps.Projects.Load(r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Projects.Delete(r.PathValue("id")); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGenerateProjectFiles regenerates the stored project's files and
// replaces the saved set. Previous compliance verdicts are discarded. An
// invalid model is refused since its paths may collide.
func (s *Server) handleGenerateProjectFiles(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	m, err := s.deps.Projects.Load(id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if issues := domain.Validate(m); len(issues) > 0 {
		writeError(w, http.StatusUnprocessableEntity, "invalid_model",
			fmt.Sprintf("model has %d validation issue(s): %s", len(issues), issues[0]))
		return
	}
	files := generator.Generate(m, nil)
	if err := s.deps.Files.Replace(id, files); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FilesResponse{Files: files})
}

func (s *Server) handleListProjectFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.projectFiles(r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FilesResponse{Files: files})
}

// handleExportProject downloads the stored files, generating them on the
// fly when none were saved yet.
func (s *Server) handleExportProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	m, err := s.deps.Projects.Load(id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	files, err := s.deps.Files.List(id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if len(files) == 0 {
		files = generator.Generate(m, nil)
	}
	s.writeArchive(w, m.Project.Name, files)
}

// projectFiles lists a project's stored files, failing with
// store.ErrNotFound when the project does not exist.
func (s *Server) projectFiles(id string) ([]domain.GeneratedFile, error) {
	files, err := s.deps.Files.List(id)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []domain.GeneratedFile{}
	}
	return files, nil
}
