package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestOpen_Pragmas(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	pragmas := []struct {
		name string
		want string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"busy_timeout", "5000"},
	}
	for _, p := range pragmas {
		var got string
		if err := db.QueryRow("PRAGMA " + p.name).Scan(&got); err != nil {
			t.Fatalf("PRAGMA %s: %v", p.name, err)
		}
		if got != p.want {
			t.Errorf("PRAGMA %s = %q; want %q", p.name, got, p.want)
		}
	}
}

func TestOpen_BadPath(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "history.db")); err == nil {
		t.Error("Open() in a missing directory should fail")
	}
}

func TestMigrate_Schema(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	version, err := db.Version(ctx)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version != 2 {
		t.Errorf("Version() = %d; want 2", version)
	}

	for _, index := range []string{"idx_attempts_learner", "idx_attempts_exercise", "idx_events_type", "idx_events_aggregate"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", index).Scan(&name)
		if err != nil {
			t.Errorf("index %q not found: %v", index, err)
		}
	}

	// a second run applies nothing
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	var rows int
	db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&rows)
	if rows != 2 {
		t.Errorf("schema_migrations rows = %d; want 2", rows)
	}
}

func TestMigrate_AttemptConstraints(t *testing.T) {
	db := openTestDB(t)

	tests := []struct {
		name    string
		module  int
		kind    string
		score   int
		wantErr bool
	}{
		{"valid", 1, "guided", 75, false},
		{"module zero", 0, "guided", 75, true},
		{"unknown type", 1, "freestyle", 75, true},
		{"score above 100", 1, "challenge", 101, true},
		{"negative score", 1, "challenge", -1, true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.Exec(`INSERT INTO attempts (id, session_id, learner_id, module_id, exercise_type, score, completed_at)
				VALUES (?, 's', 'ada', ?, ?, ?, ?)`, i, tt.module, tt.kind, tt.score, time.Now().UTC())
			if (err != nil) != tt.wantErr {
				t.Errorf("insert error = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
