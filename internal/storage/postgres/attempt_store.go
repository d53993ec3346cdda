package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttemptStore implements domain.AttemptRepository using PostgreSQL
type AttemptStore struct {
	pool *pgxpool.Pool
}

// NewAttemptStore creates a new PostgreSQL attempt store
func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

var _ domain.AttemptRepository = (*AttemptStore)(nil)

const attemptColumns = `id, session_id, learner_id, module_id, exercise_type, score,
	step_scores, valid_steps, total_steps, started_at, completed_at`

// Record inserts an attempt; a duplicate ID is ignored
func (s *AttemptStore) Record(ctx context.Context, a *domain.Attempt) error {
	scores, err := json.Marshal(a.StepScores)
	if err != nil {
		return fmt.Errorf("marshal step scores: %w", err)
	}
	if a.StepScores == nil {
		scores = []byte("{}")
	}

	var started *time.Time
	if !a.StartedAt.IsZero() {
		t := a.StartedAt.UTC()
		started = &t
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO attempts (`+attemptColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`,
		a.ID.String(), a.SessionID, a.LearnerID, int(a.ModuleID), string(a.Type), a.Score,
		string(scores), a.ValidSteps, a.TotalSteps, started, a.CompletedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// Get retrieves an attempt by ID
func (s *AttemptStore) Get(ctx context.Context, id uuid.UUID) (*domain.Attempt, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM attempts WHERE id = $1`, id.String())
	a, err := scanAttempt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAttemptNotFound
	}
	return a, err
}

// List returns attempts matching the filter, newest first
func (s *AttemptStore) List(ctx context.Context, filter domain.AttemptFilter) ([]*domain.Attempt, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.LearnerID != "" {
		where = append(where, "learner_id = "+arg(filter.LearnerID))
	}
	if filter.ModuleID != 0 {
		where = append(where, "module_id = "+arg(int(filter.ModuleID)))
	}
	if filter.Type != "" {
		where = append(where, "exercise_type = "+arg(string(filter.Type)))
	}

	query := `SELECT ` + attemptColumns + ` FROM attempts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY completed_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	attempts := []*domain.Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Stats aggregates attempts per exercise
func (s *AttemptStore) Stats(ctx context.Context) ([]domain.ExerciseStats, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT module_id, exercise_type, COUNT(*), AVG(score)::float8, MAX(score)
		FROM attempts
		GROUP BY module_id, exercise_type
		ORDER BY module_id, CASE exercise_type WHEN 'guided' THEN 0 ELSE 1 END`)
	if err != nil {
		return nil, fmt.Errorf("query attempt stats: %w", err)
	}
	defer rows.Close()

	stats := []domain.ExerciseStats{}
	for rows.Next() {
		var (
			st     domain.ExerciseStats
			module int32
			typ    string
			count  int64
			best   int32
		)
		if err := rows.Scan(&module, &typ, &count, &st.AverageScore, &best); err != nil {
			return nil, fmt.Errorf("scan attempt stats: %w", err)
		}
		st.ModuleID = domain.ModuleID(module)
		st.Type = domain.ExerciseType(typ)
		st.Attempts = int(count)
		st.BestScore = int(best)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// Prune deletes attempts completed before the cutoff
func (s *AttemptStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC()
	tag, err := s.pool.Exec(ctx, "DELETE FROM attempts WHERE completed_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune attempts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanAttempt(row pgx.Row) (*domain.Attempt, error) {
	var (
		a       domain.Attempt
		id      string
		module  int32
		typ     string
		score   int32
		valid   int32
		total   int32
		scores  string
		started *time.Time
	)
	err := row.Scan(&id, &a.SessionID, &a.LearnerID, &module, &typ, &score,
		&scores, &valid, &total, &started, &a.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan attempt: %w", err)
	}

	if a.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse attempt id: %w", err)
	}
	a.ModuleID = domain.ModuleID(module)
	a.Type = domain.ExerciseType(typ)
	a.Score = int(score)
	a.ValidSteps = int(valid)
	a.TotalSteps = int(total)
	if started != nil {
		a.StartedAt = *started
	}

	a.StepScores = map[int]float64{}
	if err := json.Unmarshal([]byte(scores), &a.StepScores); err != nil {
		return nil, fmt.Errorf("unmarshal step scores: %w", err)
	}
	return &a, nil
}
