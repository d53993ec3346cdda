// Package daemon serves the practice evaluator, sessions, progress and
// attempt history over HTTP.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/promptcraft/internal/config"
	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/evaluator"
	"github.com/felixgeelhaar/promptcraft/internal/exercise"
	"github.com/felixgeelhaar/promptcraft/internal/practice"
	"github.com/felixgeelhaar/promptcraft/internal/progress"
	"github.com/felixgeelhaar/promptcraft/internal/queue"
	"github.com/felixgeelhaar/promptcraft/internal/storage/local"
)

// Server represents the promptcraft daemon HTTP server
type Server struct {
	cfg     *config.LocalConfig
	server  *http.Server
	router  *http.ServeMux
	version string
	started time.Time

	catalog   *exercise.Catalog
	evaluator *evaluator.Evaluator
	sessions  SessionService
	progress  ProgressService
	history   domain.AttemptRepository // Optional
	events    EventLog                 // Optional
	pruners   map[string]Pruner

	limiter   ratelimit.RateLimiter
	backends  *backends
	qconn     *queue.Connection
	publisher *queue.Publisher
	consumer  *queue.Consumer

	stop chan struct{}
	wg   sync.WaitGroup
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config  *config.LocalConfig
	DataDir string // promptcraft home; progress and the SQLite file live here
	Version string
}

// NewServer loads the catalog, opens storage and wires every service
func NewServer(ctx context.Context, cfg ServerConfig) (*Server, error) {
	if cfg.Config == nil {
		cfg.Config = config.DefaultLocalConfig()
	}
	if cfg.DataDir == "" {
		dir, err := config.EnsureDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	s := &Server{
		cfg:     cfg.Config,
		router:  http.NewServeMux(),
		version: cfg.Version,
		started: time.Now(),
		stop:    make(chan struct{}),
	}

	catalog, err := exercise.Load(cfg.Config.Catalog.Path)
	if err != nil {
		return nil, err
	}
	s.catalog = catalog
	s.evaluator = evaluator.New(catalog, cfg.Config.Evaluator)

	b, err := openBackends(ctx, cfg.Config, cfg.DataDir)
	if err != nil {
		return nil, err
	}
	s.backends = b
	s.history = b.history
	s.events = b.events
	s.pruners = b.pruners

	// everything that can fail opens before the queue starts consuming
	progressStore, err := local.NewStore(filepath.Join(cfg.DataDir, "progress"))
	if err != nil {
		s.release()
		return nil, fmt.Errorf("create progress store: %w", err)
	}

	dispatcher := domain.NewEventDispatcher()
	dispatcher.SubscribeAll(b.events.Handler(func(e domain.Event, err error) {
		slog.Warn("failed to append event", "type", e.EventType(), "error", err)
	}))

	if cfg.Config.Queue.Enabled {
		s.setupQueue(ctx, dispatcher)
	}

	practiceService := practice.NewService(practice.NewStore(), s.evaluator)
	practiceService.SetAttemptRecorder(b.history)
	practiceService.SetEventPublisher(dispatcher)
	s.sessions = practiceService

	progressService := progress.NewService(progressStore, progress.NewTracker(catalog.ModuleCount()))
	progressService.SetEventPublisher(dispatcher)
	s.progress = progressService

	s.setupRoutes()

	var handler http.Handler = s.router
	if rate := cfg.Config.Daemon.RatePerSecond; rate > 0 {
		s.limiter = newRateLimiter(rate)
		handler = rateLimitMiddleware(s.limiter)(handler)
	}
	handler = recoveryMiddleware(loggingMiddleware(correlationIDMiddleware(handler)))

	s.server = &http.Server{
		Addr:         cfg.Config.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// setupQueue connects to RabbitMQ. The daemon keeps running without it.
func (s *Server) setupQueue(ctx context.Context, dispatcher *domain.EventDispatcher) {
	conn, err := queue.NewConnection(s.cfg.Queue.URL)
	if err != nil {
		slog.Warn("queue unavailable, events stay local", "error", err)
		return
	}
	s.qconn = conn

	s.publisher = queue.NewPublisher(conn, queue.DefaultPublisherConfig())
	dispatcher.SubscribeAll(s.publisher.Handler())

	if s.cfg.Queue.Consume {
		s.consumer = queue.NewConsumer(conn, s.backends.history, queue.DefaultConsumerConfig())
		if err := s.consumer.Start(ctx); err != nil {
			slog.Warn("attempt consumer not started", "error", err)
			s.consumer = nil
		}
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)
	s.router.HandleFunc("GET /v1/config", s.handleGetConfig)

	// Catalog
	s.router.HandleFunc("GET /v1/exercises", s.handleListExercises)
	s.router.HandleFunc("GET /v1/exercises/{module}", s.handleListModuleExercises)
	s.router.HandleFunc("GET /v1/exercises/{module}/{type}", s.handleGetExercise)

	// Evaluation
	s.router.HandleFunc("POST /v1/evaluate/validate", s.handleValidate)
	s.router.HandleFunc("POST /v1/evaluate/score", s.handleScore)
	s.router.HandleFunc("POST /v1/evaluate/feedback", s.handleFeedback)
	s.router.HandleFunc("POST /v1/evaluate/step", s.handleEvaluateStep)
	s.router.HandleFunc("POST /v1/evaluate/exercise", s.handleEvaluateExercise)

	// Practice sessions
	s.router.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	s.router.HandleFunc("GET /v1/sessions", s.handleListSessions)
	s.router.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	s.router.HandleFunc("DELETE /v1/sessions/{id}", s.handleDeleteSession)
	s.router.HandleFunc("PUT /v1/sessions/{id}/answer", s.handleUpdateAnswer)
	s.router.HandleFunc("POST /v1/sessions/{id}/submit", s.handleSubmit)
	s.router.HandleFunc("POST /v1/sessions/{id}/hint", s.handleHint)
	s.router.HandleFunc("POST /v1/sessions/{id}/next", s.handleNext)
	s.router.HandleFunc("POST /v1/sessions/{id}/prev", s.handlePrev)
	s.router.HandleFunc("POST /v1/sessions/{id}/reset", s.handleReset)

	// Course progress
	s.router.HandleFunc("GET /v1/progress", s.handleListLearners)
	s.router.HandleFunc("GET /v1/progress/{learner}", s.handleGetProgress)
	s.router.HandleFunc("DELETE /v1/progress/{learner}", s.handleResetProgress)
	s.router.HandleFunc("PUT /v1/progress/{learner}/current", s.handleSetCurrent)
	s.router.HandleFunc("POST /v1/progress/{learner}/modules/{module}/complete", s.handleCompleteModule)
	s.router.HandleFunc("POST /v1/progress/{learner}/quizzes/{quiz}", s.handleRecordQuiz)

	// History & analytics
	s.router.HandleFunc("GET /v1/attempts/{learner}", s.handleListAttempts)
	s.router.HandleFunc("GET /v1/attempts/{learner}/{id}", s.handleGetAttempt)
	s.router.HandleFunc("GET /v1/analytics/exercises", s.handleExerciseStats)
	s.router.HandleFunc("GET /v1/analytics/events", s.handleListEvents)
}

// Start starts the background janitor and the HTTP server
func (s *Server) Start() error {
	s.startJanitor()

	slog.Info("starting promptcraft daemon",
		"addr", s.server.Addr,
		"version", s.version,
		"storage", s.cfg.Storage.Driver,
		"queue", s.qconn != nil,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server and releases storage
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")

	err := s.server.Shutdown(ctx)

	close(s.stop)
	s.wg.Wait()

	s.release()
	return err
}

// release stops the consumer, flushes queued events and closes the queue
// connection, the rate limiter and storage. Each is released at most once.
func (s *Server) release() {
	if s.consumer != nil {
		s.consumer.Stop()
		s.consumer = nil
	}
	if s.publisher != nil {
		s.publisher.Close()
		s.publisher = nil
	}
	if s.qconn != nil {
		if err := s.qconn.Close(); err != nil {
			slog.Warn("failed to close queue connection", "error", err)
		}
		s.qconn = nil
	}
	if s.limiter != nil {
		if err := s.limiter.Close(); err != nil {
			slog.Warn("failed to close rate limiter", "error", err)
		}
		s.limiter = nil
	}
	if s.backends != nil {
		if err := s.backends.close(); err != nil {
			slog.Warn("failed to close storage", "error", err)
		}
		s.backends = nil
	}
}

// startJanitor expires idle sessions and prunes history past retention
func (s *Server) startJanitor() {
	ttl := time.Duration(s.cfg.Daemon.SessionTTLMinutes) * time.Minute
	retention := time.Duration(s.cfg.Storage.RetentionDays) * 24 * time.Hour
	if ttl <= 0 && retention <= 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		lastPrune := time.Time{}
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				if ttl > 0 {
					s.sessions.ExpireIdle(ttl)
				}
				if retention > 0 && time.Since(lastPrune) >= time.Hour {
					s.prune(retention)
					lastPrune = time.Now()
				}
			}
		}
	}()
}

func (s *Server) prune(retention time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for name, p := range s.pruners {
		n, err := p.Prune(ctx, retention)
		if err != nil {
			slog.Warn("prune failed", "store", name, "error", err)
			continue
		}
		if n > 0 {
			slog.Info("pruned old records", "store", name, "count", n)
		}
	}
}

// Helper methods

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data)
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	writeJSONError(w, status, message, err)
}

// serviceError maps domain errors onto HTTP statuses
func (s *Server) serviceError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrExerciseNotFound),
		errors.Is(err, domain.ErrStepNotFound),
		errors.Is(err, domain.ErrModuleNotFound),
		errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSessionComplete),
		errors.Is(err, domain.ErrNotSubmitted):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrAnswerTooShort),
		errors.Is(err, domain.ErrInvalidQuiz),
		errors.Is(err, domain.ErrInvalidExerciseType),
		errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	s.jsonError(w, status, message, err)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]any{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	writeJSON(w, status, response)
}
