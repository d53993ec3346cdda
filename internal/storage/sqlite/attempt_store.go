package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/google/uuid"
)

// AttemptStore keeps finished practice attempts in SQLite.
type AttemptStore struct {
	db *DB
}

// NewAttemptStore creates a new SQLite-backed attempt store.
func NewAttemptStore(db *DB) *AttemptStore {
	return &AttemptStore{db: db}
}

var _ domain.AttemptRepository = (*AttemptStore)(nil)

// Record inserts an attempt. Recording the same attempt twice is a no-op.
func (s *AttemptStore) Record(ctx context.Context, a *domain.Attempt) error {
	scores, err := marshalStepScores(a.StepScores)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attempts (id, session_id, learner_id, module_id, exercise_type, score,
			step_scores, valid_steps, total_steps, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		a.ID.String(), a.SessionID, a.LearnerID, int(a.ModuleID), string(a.Type), a.Score,
		scores, a.ValidSteps, a.TotalSteps, nullTime(a.StartedAt), a.CompletedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// Get retrieves an attempt by ID.
func (s *AttemptStore) Get(ctx context.Context, id uuid.UUID) (*domain.Attempt, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, learner_id, module_id, exercise_type, score,
			step_scores, valid_steps, total_steps, started_at, completed_at
		FROM attempts WHERE id = ?`, id.String())

	a, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAttemptNotFound
	}
	return a, err
}

// List returns attempts matching the filter, newest first.
func (s *AttemptStore) List(ctx context.Context, filter domain.AttemptFilter) ([]*domain.Attempt, error) {
	query := `SELECT id, session_id, learner_id, module_id, exercise_type, score,
			step_scores, valid_steps, total_steps, started_at, completed_at
		FROM attempts`

	var where []string
	var args []any
	if filter.LearnerID != "" {
		where = append(where, "learner_id = ?")
		args = append(args, filter.LearnerID)
	}
	if filter.ModuleID != 0 {
		where = append(where, "module_id = ?")
		args = append(args, int(filter.ModuleID))
	}
	if filter.Type != "" {
		where = append(where, "exercise_type = ?")
		args = append(args, string(filter.Type))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY completed_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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

// Stats aggregates attempts per exercise, ordered by module then type.
func (s *AttemptStore) Stats(ctx context.Context) ([]domain.ExerciseStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT module_id, exercise_type, COUNT(*), AVG(score), MAX(score)
		FROM attempts
		GROUP BY module_id, exercise_type
		ORDER BY module_id, CASE exercise_type WHEN 'guided' THEN 0 ELSE 1 END`)
	if err != nil {
		return nil, fmt.Errorf("query attempt stats: %w", err)
	}
	defer rows.Close()

	stats := []domain.ExerciseStats{}
	for rows.Next() {
		var st domain.ExerciseStats
		var module int
		var typ string
		if err := rows.Scan(&module, &typ, &st.Attempts, &st.AverageScore, &st.BestScore); err != nil {
			return nil, fmt.Errorf("scan attempt stats: %w", err)
		}
		st.ModuleID = domain.ModuleID(module)
		st.Type = domain.ExerciseType(typ)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// Prune deletes attempts completed before the cutoff.
func (s *AttemptStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC()
	result, err := s.db.ExecContext(ctx, "DELETE FROM attempts WHERE completed_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune attempts: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row scanner) (*domain.Attempt, error) {
	var (
		a       domain.Attempt
		id      string
		module  int
		typ     string
		scores  string
		started sql.NullTime
	)
	err := row.Scan(&id, &a.SessionID, &a.LearnerID, &module, &typ, &a.Score,
		&scores, &a.ValidSteps, &a.TotalSteps, &started, &a.CompletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan attempt: %w", err)
	}

	if a.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse attempt id: %w", err)
	}
	a.ModuleID = domain.ModuleID(module)
	a.Type = domain.ExerciseType(typ)
	if started.Valid {
		a.StartedAt = started.Time
	}
	if a.StepScores, err = unmarshalStepScores(scores); err != nil {
		return nil, err
	}
	return &a, nil
}

// Step scores are stored as a JSON object keyed by step index.
func marshalStepScores(scores map[int]float64) (string, error) {
	if scores == nil {
		scores = map[int]float64{}
	}
	data, err := json.Marshal(scores)
	if err != nil {
		return "", fmt.Errorf("marshal step scores: %w", err)
	}
	return string(data), nil
}

func unmarshalStepScores(data string) (map[int]float64, error) {
	out := map[int]float64{}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal step scores: %w", err)
	}
	return out, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
