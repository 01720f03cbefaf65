package server

import (
	"errors"
	"net/http"

	"github.com/soyeahso/aiosforge/internal/domain"
	"github.com/soyeahso/aiosforge/internal/store"
	"github.com/soyeahso/aiosforge/internal/wizard"
)

// SessionResponse is a wizard session with its progress bar.
type SessionResponse struct {
	store.Session
	Progress []wizard.StepProgress `json:"progress"`
}

type createSessionRequest struct {
	Model domain.Model `json:"model"`
}

type gotoRequest struct {
	Step wizard.Step `json:"step"`
}

func sessionResponse(sess store.Session) SessionResponse {
	return SessionResponse{Session: sess, Progress: sess.State.Progress()}
}

// handleCreateSession starts a wizard session. The body is optional and may
// seed the model.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
			return
		}
	}
	sess, err := s.deps.Sessions.Create(wizard.Start(), req.Model)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Sessions.Get(r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(sess))
}

func (s *Server) handleUpdateSessionModel(w http.ResponseWriter, r *http.Request) {
	var m domain.Model
	if err := decodeBody(w, r, &m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	s.updateSession(w, r, func(sess *store.Session) error {
		sess.Model = m
		return nil
	})
}

func (s *Server) handleSessionNext(w http.ResponseWriter, r *http.Request) {
	s.updateSession(w, r, func(sess *store.Session) error {
		st, err := sess.State.Next(sess.Model)
		if err != nil {
			return err
		}
		sess.State = st
		return nil
	})
}

func (s *Server) handleSessionBack(w http.ResponseWriter, r *http.Request) {
	s.updateSession(w, r, func(sess *store.Session) error {
		sess.State = sess.State.Back()
		return nil
	})
}

func (s *Server) handleSessionGoTo(w http.ResponseWriter, r *http.Request) {
	var req gotoRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	s.updateSession(w, r, func(sess *store.Session) error {
		st, err := sess.State.GoTo(req.Step, sess.Model)
		if err != nil {
			return err
		}
		sess.State = st
		return nil
	})
}

// updateSession loads the session named in the path, applies fn and saves
// the result. Wizard refusals leave the stored session untouched.
func (s *Server) updateSession(w http.ResponseWriter, r *http.Request, fn func(*store.Session) error) {
	sess, err := s.deps.Sessions.Get(r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	if err := fn(&sess); err != nil {
		switch {
		case errors.Is(err, wizard.ErrUnknownStep):
			writeError(w, http.StatusBadRequest, "unknown_step", err.Error())
		case errors.Is(err, wizard.ErrBlocked), errors.Is(err, wizard.ErrLastStep):
			writeError(w, http.StatusConflict, "blocked", err.Error())
		default:
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		}
		return
	}
	sess, err = s.deps.Sessions.Update(sess)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(sess))
}
