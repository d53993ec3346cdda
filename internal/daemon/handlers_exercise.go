package daemon

import (
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	active, completed := s.sessions.Count()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":     "running",
		"version":    s.version,
		"go":         runtime.Version(),
		"uptime_sec": int(time.Since(s.started).Seconds()),
		"catalog":    s.catalog.Stats(),
		"sessions": map[string]int{
			"active":    active,
			"completed": completed,
		},
		"storage": s.cfg.Storage.Driver,
		"queue":   s.qconn != nil && s.qconn.IsConnected(),
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	// Connection URLs are left out; they may carry credentials
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"daemon":    s.cfg.Daemon,
		"evaluator": s.evaluator.Config(),
		"catalog":   s.cfg.Catalog,
		"storage": map[string]any{
			"driver":         s.cfg.Storage.Driver,
			"retention_days": s.cfg.Storage.RetentionDays,
		},
		"queue": map[string]any{
			"enabled": s.cfg.Queue.Enabled,
			"consume": s.cfg.Queue.Consume,
		},
	})
}

// exerciseSummary is the list view of an exercise
type exerciseSummary struct {
	ModuleID   domain.ModuleID     `json:"module_id"`
	Type       domain.ExerciseType `json:"type"`
	Title      string              `json:"title"`
	Difficulty domain.Difficulty   `json:"difficulty"`
	StepCount  int                 `json:"step_count"`
}

func summarizeExercises(list []*domain.Exercise) []exerciseSummary {
	out := make([]exerciseSummary, 0, len(list))
	for _, ex := range list {
		out = append(out, exerciseSummary{
			ModuleID:   ex.ModuleID,
			Type:       ex.Type,
			Title:      ex.Title,
			Difficulty: ex.Difficulty,
			StepCount:  len(ex.Steps),
		})
	}
	return out
}

// learnerView strips validation rules so answers cannot be read off the API
func learnerView(ex *domain.Exercise) *domain.Exercise {
	c := *ex
	c.Steps = make([]domain.Step, len(ex.Steps))
	for i, step := range ex.Steps {
		step.Rule = nil
		c.Steps[i] = step
	}
	return &c
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	list := s.catalog.List()
	if d := r.URL.Query().Get("difficulty"); d != "" {
		difficulty := domain.Difficulty(d)
		if !difficulty.Valid() {
			s.jsonError(w, http.StatusBadRequest, "invalid difficulty", fmt.Errorf("%w: %q", domain.ErrInvalidDifficulty, d))
			return
		}
		list = s.catalog.ByDifficulty(difficulty)
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"modules":   s.catalog.Modules(),
		"exercises": summarizeExercises(list),
	})
}

func (s *Server) handleListModuleExercises(w http.ResponseWriter, r *http.Request) {
	module, ok := s.moduleParam(w, r)
	if !ok {
		return
	}

	list := s.catalog.ListModule(module)
	if len(list) == 0 {
		s.jsonError(w, http.StatusNotFound, "module not found", domain.ErrModuleNotFound)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"module_id": module,
		"exercises": summarizeExercises(list),
	})
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	module, ok := s.moduleParam(w, r)
	if !ok {
		return
	}

	ex, err := s.catalog.Get(module, domain.ExerciseType(r.PathValue("type")))
	if err != nil {
		s.serviceError(w, "exercise not found", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, learnerView(ex))
}

func (s *Server) moduleParam(w http.ResponseWriter, r *http.Request) (domain.ModuleID, bool) {
	n, err := strconv.Atoi(r.PathValue("module"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid module id", err)
		return 0, false
	}
	return domain.ModuleID(n), true
}

// Evaluation handlers. Unknown modules, types or steps are not errors here;
// the evaluator answers with its neutral values.

type stepRequest struct {
	ModuleID  domain.ModuleID     `json:"module_id"`
	Type      domain.ExerciseType `json:"type"`
	StepIndex int                 `json:"step_index"`
	Answer    string              `json:"answer"`
}

type answersRequest struct {
	ModuleID domain.ModuleID     `json:"module_id"`
	Type     domain.ExerciseType `json:"type"`
	Answers  domain.AnswerSet    `json:"answers"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := decodeJSON(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"valid": s.evaluator.Validate(req.ModuleID, req.Type, req.StepIndex, req.Answer),
	})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := decodeJSON(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	score := s.evaluator.Score(req.ModuleID, req.Type, req.Answers)
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"score":  score,
		"rating": s.evaluator.Rating(score),
	})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := decodeJSON(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"feedback": s.evaluator.Feedback(req.ModuleID, req.Type, req.StepIndex, req.Answer),
	})
}

func (s *Server) handleEvaluateStep(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := decodeJSON(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.evaluator.EvaluateStep(req.ModuleID, req.Type, req.StepIndex, req.Answer))
}

func (s *Server) handleEvaluateExercise(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := decodeJSON(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.evaluator.EvaluateExercise(req.ModuleID, req.Type, req.Answers))
}
