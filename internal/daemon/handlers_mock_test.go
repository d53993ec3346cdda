package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/practice"
)

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"session not found", domain.ErrSessionNotFound, http.StatusNotFound},
		{"wrapped exercise not found", fmt.Errorf("ctx: %w", domain.ErrExerciseNotFound), http.StatusNotFound},
		{"attempt not found", domain.ErrAttemptNotFound, http.StatusNotFound},
		{"complete", domain.ErrSessionComplete, http.StatusConflict},
		{"not submitted", domain.ErrNotSubmitted, http.StatusConflict},
		{"too short", domain.ErrAnswerTooShort, http.StatusBadRequest},
		{"invalid input", domain.ErrInvalidInput, http.StatusBadRequest},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &mockSessionService{
				getFn: func(ctx context.Context, id string) (*practice.Session, error) {
					return nil, tt.err
				},
			}
			server := newServerWithMocks(t, sessions, &mockProgressService{})

			w := doRequest(t, server, http.MethodGet, "/v1/sessions/abc", nil)
			if w.Code != tt.wantCode {
				t.Errorf("status = %d; want %d", w.Code, tt.wantCode)
			}
			resp := decodeBody(t, w)
			if resp["details"] != tt.err.Error() {
				t.Errorf("details = %v; want %q", resp["details"], tt.err.Error())
			}
		})
	}
}

func TestSubmit_PassesSessionID(t *testing.T) {
	var gotID string
	sessions := &mockSessionService{
		submitFn: func(ctx context.Context, id string) (*practice.Session, *practice.SubmitResult, error) {
			gotID = id
			return &practice.Session{ID: id}, &practice.SubmitResult{Valid: true, Score: 100}, nil
		},
	}
	server := newServerWithMocks(t, sessions, &mockProgressService{})

	w := doRequest(t, server, http.MethodPost, "/v1/sessions/sess-42/submit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	if gotID != "sess-42" {
		t.Errorf("Submit() id = %q; want sess-42", gotID)
	}
	result, _ := decodeBody(t, w)["result"].(map[string]any)
	if result["valid"] != true {
		t.Errorf("result = %v", result)
	}
}

func TestNext_ServiceError(t *testing.T) {
	sessions := &mockSessionService{
		nextFn: func(ctx context.Context, id string) (*practice.Session, error) {
			return nil, domain.ErrNotSubmitted
		},
	}
	server := newServerWithMocks(t, sessions, &mockProgressService{})

	if w := doRequest(t, server, http.MethodPost, "/v1/sessions/x/next", nil); w.Code != http.StatusConflict {
		t.Errorf("status = %d; want 409", w.Code)
	}
}

func TestProgress_ServiceErrors(t *testing.T) {
	prog := &mockProgressService{
		learnersFn: func(ctx context.Context) ([]string, error) {
			return nil, nil
		},
	}
	server := newServerWithMocks(t, &mockSessionService{}, prog)

	w := doRequest(t, server, http.MethodGet, "/v1/progress", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list learners status = %d", w.Code)
	}
	if learners, ok := decodeBody(t, w)["learners"].([]any); !ok || len(learners) != 0 {
		t.Errorf("learners = %v; want empty list", learners)
	}

	if w := doRequest(t, server, http.MethodGet, "/v1/progress/someone", nil); w.Code != http.StatusInternalServerError {
		t.Errorf("get progress status = %d; want 500", w.Code)
	}
	if w := doRequest(t, server, http.MethodPost, "/v1/progress/someone/modules/x/complete", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad module status = %d; want 400", w.Code)
	}
}

func TestHistory_Unavailable(t *testing.T) {
	server := newServerWithMocks(t, &mockSessionService{}, &mockProgressService{})

	for _, path := range []string{
		"/v1/attempts/learner-1",
		"/v1/attempts/learner-1/00000000-0000-0000-0000-000000000000",
		"/v1/analytics/exercises",
		"/v1/analytics/events",
	} {
		t.Run(path, func(t *testing.T) {
			if w := doRequest(t, server, http.MethodGet, path, nil); w.Code != http.StatusServiceUnavailable {
				t.Errorf("status = %d; want 503", w.Code)
			}
		})
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", defaultListLimit, false},
		{"10", 10, false},
		{"100000", maxListLimit, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"ten", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLimit(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLimit(%q) error = %v; wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseLimit(%q) = %d; want %d", tt.in, got, tt.want)
			}
		})
	}
}

type fakePruner struct {
	calls     int
	olderThan time.Duration
	err       error
}

func (p *fakePruner) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	p.calls++
	p.olderThan = olderThan
	return 3, p.err
}

func TestPrune_CallsEveryStore(t *testing.T) {
	server := newServerWithMocks(t, &mockSessionService{}, &mockProgressService{})
	ok := &fakePruner{}
	failing := &fakePruner{err: errors.New("locked")}
	server.pruners = map[string]Pruner{"attempts": ok, "events": failing}

	server.prune(48 * time.Hour)

	if ok.calls != 1 || failing.calls != 1 {
		t.Errorf("prune calls = %d/%d; want 1/1", ok.calls, failing.calls)
	}
	if ok.olderThan != 48*time.Hour {
		t.Errorf("olderThan = %v; want 48h", ok.olderThan)
	}
}
