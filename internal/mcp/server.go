// Package mcp exposes the practice evaluator as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"
	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/evaluator"
)

// Server wraps the MCP server with promptcraft functionality
type Server struct {
	mcpServer *server.Server
	evaluator *evaluator.Evaluator
}

// Config contains configuration for the MCP server
type Config struct {
	Evaluator *evaluator.Evaluator
	Version   string
}

// NewServer creates a new MCP server around an evaluator
func NewServer(cfg Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{evaluator: cfg.Evaluator}

	s.mcpServer = server.New(server.Info{
		Name:    "promptcraft",
		Version: version,
	}, server.WithInstructions(`
Promptcraft checks answers to prompt-engineering practice exercises.
Each course module has a guided and a challenge exercise made of steps.

Available tools:
- promptcraft_list: List exercises in the catalog
- promptcraft_exercise: Show the steps of one exercise
- promptcraft_validate: Check one answer against its step
- promptcraft_score: Score a whole exercise (0-100)
- promptcraft_feedback: Get the feedback message for one answer

Unknown modules, exercise types or steps never fail: validate answers false,
score answers 0 and feedback answers a fallback message.
`))

	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("promptcraft_list").
		Description("List practice exercises, optionally for one module.").
		Handler(s.handleList)

	s.mcpServer.Tool("promptcraft_exercise").
		Description("Show the instructions, scenario and hint of every step in an exercise.").
		Handler(s.handleExercise)

	s.mcpServer.Tool("promptcraft_validate").
		Description("Check whether an answer satisfies a step.").
		Handler(s.handleValidate)

	s.mcpServer.Tool("promptcraft_score").
		Description("Score a full set of answers for an exercise.").
		Handler(s.handleScore)

	s.mcpServer.Tool("promptcraft_feedback").
		Description("Get the feedback message for an answer to a step.").
		Handler(s.handleFeedback)
}

// Input/Output types for tools

type ListInput struct {
	ModuleID int `json:"module_id,omitempty" jsonschema:"description=Only list this module (default: all)"`
}

type ExerciseSummary struct {
	ModuleID   int    `json:"module_id"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
	Steps      int    `json:"steps"`
}

type ListOutput struct {
	Exercises []ExerciseSummary `json:"exercises"`
}

type ExerciseInput struct {
	ModuleID int    `json:"module_id" jsonschema:"description=Course module number"`
	Type     string `json:"type" jsonschema:"description=Exercise type,enum=guided,enum=challenge"`
}

type StepView struct {
	Index       int    `json:"index"`
	Title       string `json:"title"`
	Instruction string `json:"instruction"`
	Scenario    string `json:"scenario"`
	Hint        string `json:"hint"`
}

type ExerciseOutput struct {
	ModuleID    int        `json:"module_id"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Difficulty  string     `json:"difficulty"`
	Description string     `json:"description"`
	Steps       []StepView `json:"steps"`
}

type StepInput struct {
	ModuleID  int    `json:"module_id" jsonschema:"description=Course module number"`
	Type      string `json:"type" jsonschema:"description=Exercise type,enum=guided,enum=challenge"`
	StepIndex int    `json:"step_index" jsonschema:"description=Zero-based step index"`
	Answer    string `json:"answer" jsonschema:"description=The learner's answer"`
}

type ValidateOutput struct {
	Valid bool    `json:"valid"`
	Score float64 `json:"score"`
}

type ScoreInput struct {
	ModuleID int      `json:"module_id" jsonschema:"description=Course module number"`
	Type     string   `json:"type" jsonschema:"description=Exercise type,enum=guided,enum=challenge"`
	Answers  []string `json:"answers" jsonschema:"description=Answers in step order; empty strings are unanswered"`
}

type ScoreOutput struct {
	Score      int    `json:"score"`
	Rating     string `json:"rating"`
	ValidSteps int    `json:"valid_steps"`
	TotalSteps int    `json:"total_steps"`
}

type FeedbackOutput struct {
	Valid    bool   `json:"valid"`
	Feedback string `json:"feedback"`
}

// Tool handlers

func (s *Server) handleList(ctx context.Context, input ListInput) (ListOutput, error) {
	if s.evaluator == nil {
		return ListOutput{}, errNoEvaluator
	}
	catalog := s.evaluator.Catalog()

	list := catalog.List()
	if input.ModuleID != 0 {
		list = catalog.ListModule(domain.ModuleID(input.ModuleID))
	}

	out := ListOutput{Exercises: make([]ExerciseSummary, 0, len(list))}
	for _, ex := range list {
		out.Exercises = append(out.Exercises, ExerciseSummary{
			ModuleID:   int(ex.ModuleID),
			Type:       string(ex.Type),
			Title:      ex.Title,
			Difficulty: string(ex.Difficulty),
			Steps:      len(ex.Steps),
		})
	}
	return out, nil
}

func (s *Server) handleExercise(ctx context.Context, input ExerciseInput) (ExerciseOutput, error) {
	if s.evaluator == nil {
		return ExerciseOutput{}, errNoEvaluator
	}

	ex, err := s.evaluator.Catalog().Get(domain.ModuleID(input.ModuleID), domain.ExerciseType(input.Type))
	if err != nil {
		return ExerciseOutput{}, fmt.Errorf("failed to get exercise: %w", err)
	}

	out := ExerciseOutput{
		ModuleID:    int(ex.ModuleID),
		Type:        string(ex.Type),
		Title:       ex.Title,
		Difficulty:  string(ex.Difficulty),
		Description: ex.Description,
		Steps:       make([]StepView, len(ex.Steps)),
	}
	for i, step := range ex.Steps {
		out.Steps[i] = StepView{
			Index:       i,
			Title:       step.Title,
			Instruction: step.Instruction,
			Scenario:    step.Scenario,
			Hint:        step.Hint,
		}
	}
	return out, nil
}

func (s *Server) handleValidate(ctx context.Context, input StepInput) (ValidateOutput, error) {
	if s.evaluator == nil {
		return ValidateOutput{}, errNoEvaluator
	}
	module, t := domain.ModuleID(input.ModuleID), domain.ExerciseType(input.Type)
	return ValidateOutput{
		Valid: s.evaluator.Validate(module, t, input.StepIndex, input.Answer),
		Score: s.evaluator.StepScore(module, t, input.StepIndex, input.Answer),
	}, nil
}

func (s *Server) handleScore(ctx context.Context, input ScoreInput) (ScoreOutput, error) {
	if s.evaluator == nil {
		return ScoreOutput{}, errNoEvaluator
	}

	answers := make(domain.AnswerSet, len(input.Answers))
	for i, a := range input.Answers {
		if a != "" {
			answers[i] = a
		}
	}

	report := s.evaluator.EvaluateExercise(domain.ModuleID(input.ModuleID), domain.ExerciseType(input.Type), answers)
	return ScoreOutput{
		Score:      report.Score,
		Rating:     report.Rating,
		ValidSteps: report.ValidSteps,
		TotalSteps: report.TotalSteps,
	}, nil
}

func (s *Server) handleFeedback(ctx context.Context, input StepInput) (FeedbackOutput, error) {
	if s.evaluator == nil {
		return FeedbackOutput{}, errNoEvaluator
	}
	module, t := domain.ModuleID(input.ModuleID), domain.ExerciseType(input.Type)
	return FeedbackOutput{
		Valid:    s.evaluator.Validate(module, t, input.StepIndex, input.Answer),
		Feedback: s.evaluator.Feedback(module, t, input.StepIndex, input.Answer),
	}, nil
}

var errNoEvaluator = fmt.Errorf("%w: no evaluator configured", domain.ErrInvalidInput)

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
