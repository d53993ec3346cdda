package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/google/uuid"
)

func newAttempt(learner string, module domain.ModuleID, t domain.ExerciseType, score int, completed time.Time) *domain.Attempt {
	a := domain.NewAttempt(uuid.NewString(), learner, module, t)
	a.Score = score
	a.StepScores = map[int]float64{0: 100, 1: 13.5}
	a.ValidSteps = 1
	a.TotalSteps = 3
	a.StartedAt = completed.Add(-5 * time.Minute)
	a.CompletedAt = completed
	return a
}

func TestAttemptStore_RecordGet(t *testing.T) {
	store := NewAttemptStore(openTestDB(t))
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	a := newAttempt("learner-1", 2, domain.ExerciseChallenge, 64, now)

	if err := store.Record(ctx, a); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	// Recording again is ignored
	if err := store.Record(ctx, a); err != nil {
		t.Fatalf("second Record() error = %v", err)
	}

	got, err := store.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.LearnerID != "learner-1" || got.ModuleID != 2 || got.Type != domain.ExerciseChallenge {
		t.Errorf("Get() = %+v", got)
	}
	if got.Score != 64 || got.ValidSteps != 1 || got.TotalSteps != 3 {
		t.Errorf("score fields = %d/%d/%d", got.Score, got.ValidSteps, got.TotalSteps)
	}
	if got.StepScores[1] != 13.5 {
		t.Errorf("StepScores = %v", got.StepScores)
	}
	if !got.CompletedAt.Equal(now) {
		t.Errorf("CompletedAt = %v; want %v", got.CompletedAt, now)
	}
	if got.Duration() != 5*time.Minute {
		t.Errorf("Duration() = %v; want 5m", got.Duration())
	}
}

func TestAttemptStore_Get_NotFound(t *testing.T) {
	store := NewAttemptStore(openTestDB(t))

	_, err := store.Get(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Errorf("Get() error = %v; want ErrAttemptNotFound", err)
	}
}

func TestAttemptStore_List(t *testing.T) {
	store := NewAttemptStore(openTestDB(t))
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	attempts := []*domain.Attempt{
		newAttempt("alice", 1, domain.ExerciseGuided, 40, base.Add(-3*time.Hour)),
		newAttempt("alice", 1, domain.ExerciseGuided, 90, base.Add(-2*time.Hour)),
		newAttempt("alice", 2, domain.ExerciseChallenge, 70, base.Add(-1*time.Hour)),
		newAttempt("bob", 1, domain.ExerciseGuided, 100, base),
	}
	for _, a := range attempts {
		if err := store.Record(ctx, a); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter domain.AttemptFilter
		want   int
		first  int
	}{
		{"all", domain.AttemptFilter{}, 4, 100},
		{"by learner", domain.AttemptFilter{LearnerID: "alice"}, 3, 70},
		{"by exercise", domain.AttemptFilter{ModuleID: 1, Type: domain.ExerciseGuided}, 3, 100},
		{"limited", domain.AttemptFilter{LearnerID: "alice", Limit: 1}, 1, 70},
		{"no match", domain.AttemptFilter{LearnerID: "carol"}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("List() returned %d; want %d", len(got), tt.want)
			}
			if tt.want > 0 && got[0].Score != tt.first {
				t.Errorf("newest score = %d; want %d", got[0].Score, tt.first)
			}
		})
	}
}

func TestAttemptStore_Stats(t *testing.T) {
	store := NewAttemptStore(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	for _, a := range []*domain.Attempt{
		newAttempt("alice", 1, domain.ExerciseChallenge, 50, now),
		newAttempt("alice", 1, domain.ExerciseGuided, 40, now),
		newAttempt("bob", 1, domain.ExerciseGuided, 80, now),
	} {
		if err := store.Record(ctx, a); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("Stats() returned %d rows; want 2", len(stats))
	}

	guided := stats[0]
	if guided.Type != domain.ExerciseGuided || guided.Attempts != 2 || guided.AverageScore != 60 || guided.BestScore != 80 {
		t.Errorf("guided stats = %+v", guided)
	}
	if stats[1].Type != domain.ExerciseChallenge || stats[1].Attempts != 1 {
		t.Errorf("challenge stats = %+v", stats[1])
	}
}

func TestAttemptStore_Prune(t *testing.T) {
	store := NewAttemptStore(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	old := newAttempt("alice", 1, domain.ExerciseGuided, 10, now.Add(-48*time.Hour))
	fresh := newAttempt("alice", 1, domain.ExerciseGuided, 20, now)
	for _, a := range []*domain.Attempt{old, fresh} {
		if err := store.Record(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	n, err := store.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() removed %d; want 1", n)
	}
	if _, err := store.Get(ctx, fresh.ID); err != nil {
		t.Errorf("fresh attempt missing: %v", err)
	}
}
