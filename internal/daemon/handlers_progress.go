package daemon

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/storage/sqlite"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

var errHistoryDisabled = errors.New("attempt history is not configured")

func (s *Server) handleListLearners(w http.ResponseWriter, r *http.Request) {
	learners, err := s.progress.Learners(r.Context())
	if err != nil {
		s.serviceError(w, "failed to list learners", err)
		return
	}
	if learners == nil {
		learners = []string{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"learners": learners,
	})
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	summary, err := s.progress.Get(r.Context(), r.PathValue("learner"))
	if err != nil {
		s.serviceError(w, "failed to get progress", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, summary)
}

func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	if err := s.progress.Reset(r.Context(), r.PathValue("learner")); err != nil {
		s.serviceError(w, "failed to reset progress", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"reset": true,
	})
}

func (s *Server) handleSetCurrent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ModuleID domain.ModuleID `json:"module_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	summary, err := s.progress.SetCurrent(r.Context(), r.PathValue("learner"), req.ModuleID)
	if err != nil {
		s.serviceError(w, "failed to set current module", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, summary)
}

func (s *Server) handleCompleteModule(w http.ResponseWriter, r *http.Request) {
	module, ok := s.moduleParam(w, r)
	if !ok {
		return
	}

	// The body is optional; without it no time-based badge applies
	var req struct {
		ElapsedSeconds int `json:"elapsed_seconds"`
	}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	elapsed := time.Duration(req.ElapsedSeconds) * time.Second
	summary, err := s.progress.CompleteModule(r.Context(), r.PathValue("learner"), module, elapsed)
	if err != nil {
		s.serviceError(w, "failed to complete module", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, summary)
}

func (s *Server) handleRecordQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Correct int `json:"correct"`
		Total   int `json:"total"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := s.progress.RecordQuiz(r.Context(), r.PathValue("learner"), r.PathValue("quiz"), req.Correct, req.Total)
	if err != nil {
		s.serviceError(w, "failed to record quiz", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// History & analytics handlers

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "history unavailable", errHistoryDisabled)
		return
	}

	q := r.URL.Query()
	filter := domain.AttemptFilter{LearnerID: r.PathValue("learner")}

	if v := q.Get("module"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.jsonError(w, http.StatusBadRequest, "invalid module", err)
			return
		}
		filter.ModuleID = domain.ModuleID(n)
	}
	if v := q.Get("type"); v != "" {
		t, err := domain.ParseExerciseType(v)
		if err != nil {
			s.jsonError(w, http.StatusBadRequest, "invalid exercise type", err)
			return
		}
		filter.Type = t
	}
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid limit", err)
		return
	}
	filter.Limit = limit

	attempts, err := s.history.List(r.Context(), filter)
	if err != nil {
		s.serviceError(w, "failed to list attempts", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"learner_id": filter.LearnerID,
		"attempts":   attempts,
	})
}

func (s *Server) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "history unavailable", errHistoryDisabled)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid attempt id", err)
		return
	}

	attempt, err := s.history.Get(r.Context(), id)
	if err != nil {
		s.serviceError(w, "failed to get attempt", err)
		return
	}
	if attempt.LearnerID != r.PathValue("learner") {
		s.jsonError(w, http.StatusNotFound, "failed to get attempt", domain.ErrAttemptNotFound)
		return
	}
	s.jsonResponse(w, http.StatusOK, attempt)
}

func (s *Server) handleExerciseStats(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "history unavailable", errHistoryDisabled)
		return
	}

	stats, err := s.history.Stats(r.Context())
	if err != nil {
		s.serviceError(w, "failed to get exercise stats", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"exercises": stats,
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "event log unavailable", nil)
		return
	}

	q := r.URL.Query()
	query := sqlite.EventQuery{
		EventType:   q.Get("type"),
		AggregateID: q.Get("aggregate"),
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.jsonError(w, http.StatusBadRequest, "invalid since (RFC 3339)", err)
			return
		}
		query.Since = since
	}
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid limit", err)
		return
	}
	query.Limit = limit

	events, err := s.events.Query(r.Context(), query)
	if err != nil {
		s.serviceError(w, "failed to query events", err)
		return
	}
	if events == nil {
		events = []sqlite.StoredEvent{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"events": events,
	})
}

func parseLimit(v string) (int, error) {
	if v == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	return min(n, maxListLimit), nil
}
