package daemon

import (
	"context"
	"net/http"

	"github.com/felixgeelhaar/promptcraft/internal/practice"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req practice.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	sess, err := s.sessions.Create(r.Context(), req)
	if err != nil {
		s.serviceError(w, "failed to create session", err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.sessions.List(r.Context(), r.URL.Query().Get("learner"))
	if sessions == nil {
		sessions = []*practice.Session{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"sessions": sessions,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, "failed to get session", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.serviceError(w, "failed to delete session", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"deleted": true,
	})
}

func (s *Server) handleUpdateAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answer string `json:"answer"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	sess, err := s.sessions.UpdateAnswer(r.Context(), r.PathValue("id"), req.Answer)
	if err != nil {
		s.serviceError(w, "failed to update answer", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, result, err := s.sessions.Submit(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, "failed to submit answer", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"session": sess,
		"result":  result,
	})
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	sess, hint, err := s.sessions.ShowHint(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, "failed to show hint", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"session": sess,
		"hint":    hint,
	})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "failed to advance session", s.sessions.Next)
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "failed to go back", s.sessions.Prev)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "failed to reset session", s.sessions.Reset)
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request, message string,
	fn func(ctx context.Context, id string) (*practice.Session, error)) {
	sess, err := fn(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, message, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}
