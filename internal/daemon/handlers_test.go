package daemon

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
)

func createTestSession(t *testing.T, server *Server, learner string) string {
	t.Helper()

	w := doRequest(t, server, http.MethodPost, "/v1/sessions", map[string]any{
		"learner_id": learner,
		"module_id":  1,
		"type":       "guided",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create session status = %d; body = %s", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	id, _ := resp["id"].(string)
	if id == "" {
		t.Fatal("created session has no id")
	}
	return id
}

func completeTestSession(t *testing.T, server *Server, id string) map[string]any {
	t.Helper()

	var resp map[string]any
	for i, answer := range guidedAnswers {
		if w := doRequest(t, server, http.MethodPut, "/v1/sessions/"+id+"/answer", map[string]any{"answer": answer}); w.Code != http.StatusOK {
			t.Fatalf("step %d answer status = %d", i, w.Code)
		}
		if w := doRequest(t, server, http.MethodPost, "/v1/sessions/"+id+"/submit", nil); w.Code != http.StatusOK {
			t.Fatalf("step %d submit status = %d", i, w.Code)
		}
		w := doRequest(t, server, http.MethodPost, "/v1/sessions/"+id+"/next", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("step %d next status = %d", i, w.Code)
		}
		resp = decodeBody(t, w)
	}
	return resp
}

func TestCreateSession_Errors(t *testing.T) {
	server := setupTestServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"unknown exercise", `{"module_id":99,"type":"guided"}`, http.StatusNotFound},
		{"unknown field", `{"module":1}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			server.router.ServeHTTP(w, req)
			if w.Code != tt.wantCode {
				t.Errorf("status = %d; want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestSessionFlow(t *testing.T) {
	server := setupTestServer(t)
	id := createTestSession(t, server, "learner-1")

	// Next before any submit is refused
	if w := doRequest(t, server, http.MethodPost, "/v1/sessions/"+id+"/next", nil); w.Code != http.StatusConflict {
		t.Errorf("next before submit status = %d; want 409", w.Code)
	}

	// Too short to submit
	doRequest(t, server, http.MethodPut, "/v1/sessions/"+id+"/answer", map[string]any{"answer": "short"})
	if w := doRequest(t, server, http.MethodPost, "/v1/sessions/"+id+"/submit", nil); w.Code != http.StatusBadRequest {
		t.Errorf("short submit status = %d; want 400", w.Code)
	}

	w := doRequest(t, server, http.MethodPost, "/v1/sessions/"+id+"/hint", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("hint status = %d", w.Code)
	}
	if hint, _ := decodeBody(t, w)["hint"].(string); hint == "" {
		t.Error("hint should not be empty")
	}

	final := completeTestSession(t, server, id)
	if final["status"] != "completed" {
		t.Errorf("status = %v; want completed", final["status"])
	}
	if final["final_score"] != float64(100) {
		t.Errorf("final_score = %v; want 100", final["final_score"])
	}

	if w := doRequest(t, server, http.MethodPost, "/v1/sessions/"+id+"/submit", nil); w.Code != http.StatusConflict {
		t.Errorf("submit after completion status = %d; want 409", w.Code)
	}

	w = doRequest(t, server, http.MethodPost, "/v1/sessions/"+id+"/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reset status = %d", w.Code)
	}
	if resp := decodeBody(t, w); resp["status"] != "active" || resp["current_step"] != float64(0) {
		t.Errorf("after reset = %v", resp)
	}
}

func TestSessionPrev(t *testing.T) {
	server := setupTestServer(t)
	id := createTestSession(t, server, "learner-1")

	w := doRequest(t, server, http.MethodPost, "/v1/sessions/"+id+"/prev", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("prev status = %d", w.Code)
	}
	if resp := decodeBody(t, w); resp["current_step"] != float64(0) {
		t.Errorf("current_step = %v; want 0", resp["current_step"])
	}
}

func TestListAndDeleteSessions(t *testing.T) {
	server := setupTestServer(t)
	id := createTestSession(t, server, "learner-1")
	createTestSession(t, server, "learner-2")

	w := doRequest(t, server, http.MethodGet, "/v1/sessions?learner=learner-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	if sessions, _ := decodeBody(t, w)["sessions"].([]any); len(sessions) != 1 {
		t.Errorf("sessions = %d; want 1", len(sessions))
	}

	if w := doRequest(t, server, http.MethodDelete, "/v1/sessions/"+id, nil); w.Code != http.StatusOK {
		t.Errorf("delete status = %d", w.Code)
	}
	if w := doRequest(t, server, http.MethodGet, "/v1/sessions/"+id, nil); w.Code != http.StatusNotFound {
		t.Errorf("get deleted status = %d; want 404", w.Code)
	}
	if w := doRequest(t, server, http.MethodDelete, "/v1/sessions/"+id, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d; want 404", w.Code)
	}
}

func TestAttemptHistory(t *testing.T) {
	server := setupTestServer(t)
	id := createTestSession(t, server, "learner-1")
	completeTestSession(t, server, id)

	w := doRequest(t, server, http.MethodGet, "/v1/attempts/learner-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list attempts status = %d", w.Code)
	}
	attempts, _ := decodeBody(t, w)["attempts"].([]any)
	if len(attempts) != 1 {
		t.Fatalf("attempts = %d; want 1", len(attempts))
	}
	attempt, _ := attempts[0].(map[string]any)
	if attempt["session_id"] != id || attempt["score"] != float64(100) {
		t.Errorf("attempt = %v", attempt)
	}

	attemptID, _ := attempt["id"].(string)
	if w := doRequest(t, server, http.MethodGet, "/v1/attempts/learner-1/"+attemptID, nil); w.Code != http.StatusOK {
		t.Errorf("get attempt status = %d", w.Code)
	}
	if w := doRequest(t, server, http.MethodGet, "/v1/attempts/learner-2/"+attemptID, nil); w.Code != http.StatusNotFound {
		t.Errorf("other learner's attempt status = %d; want 404", w.Code)
	}
	if w := doRequest(t, server, http.MethodGet, "/v1/attempts/learner-1/not-a-uuid", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad attempt id status = %d; want 400", w.Code)
	}

	tests := []struct {
		name     string
		query    string
		wantCode int
		want     int
	}{
		{"module match", "?module=1", http.StatusOK, 1},
		{"module miss", "?module=2", http.StatusOK, 0},
		{"type miss", "?type=challenge", http.StatusOK, 0},
		{"bad type", "?type=freestyle", http.StatusBadRequest, 0},
		{"bad limit", "?limit=0", http.StatusBadRequest, 0},
		{"bad module", "?module=x", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, server, http.MethodGet, "/v1/attempts/learner-1"+tt.query, nil)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d; want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			if attempts, _ := decodeBody(t, w)["attempts"].([]any); len(attempts) != tt.want {
				t.Errorf("attempts = %d; want %d", len(attempts), tt.want)
			}
		})
	}

	w = doRequest(t, server, http.MethodGet, "/v1/analytics/exercises", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	if stats, _ := decodeBody(t, w)["exercises"].([]any); len(stats) != 1 {
		t.Errorf("exercise stats = %d; want 1", len(stats))
	}
}

func TestEventLog(t *testing.T) {
	server := setupTestServer(t)
	id := createTestSession(t, server, "learner-1")
	completeTestSession(t, server, id)

	tests := []struct {
		name     string
		query    string
		wantCode int
		want     int
	}{
		{"started", "?type=" + domain.EventPracticeStarted, http.StatusOK, 1},
		{"completed", "?type=" + domain.EventAttemptCompleted, http.StatusOK, 1},
		{"by aggregate", "?type=" + domain.EventAttemptCompleted + "&aggregate=" + id, http.StatusOK, 1},
		{"future", "?since=2999-01-01T00:00:00Z", http.StatusOK, 0},
		{"bad since", "?since=yesterday", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, server, http.MethodGet, "/v1/analytics/events"+tt.query, nil)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d; want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			if events, _ := decodeBody(t, w)["events"].([]any); len(events) != tt.want {
				t.Errorf("events = %d; want %d", len(events), tt.want)
			}
		})
	}
}

func TestProgressFlow(t *testing.T) {
	server := setupTestServer(t)

	w := doRequest(t, server, http.MethodGet, "/v1/progress/learner-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get progress status = %d", w.Code)
	}
	if resp := decodeBody(t, w); resp["percent"] != float64(0) {
		t.Errorf("percent = %v; want 0", resp["percent"])
	}

	w = doRequest(t, server, http.MethodPost, "/v1/progress/learner-1/modules/1/complete",
		map[string]any{"elapsed_seconds": 600})
	if w.Code != http.StatusOK {
		t.Fatalf("complete module status = %d; body = %s", w.Code, w.Body.String())
	}
	earned, _ := decodeBody(t, w)["earned"].([]any)
	if len(earned) != 2 {
		t.Errorf("earned = %v; want First Steps and Quick Learner", earned)
	}

	// No body: completes without a time-based badge
	w = doRequest(t, server, http.MethodPost, "/v1/progress/learner-1/modules/2/complete", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("complete without body status = %d; body = %s", w.Code, w.Body.String())
	}
	if resp := decodeBody(t, w); resp["percent"] != float64(33) {
		t.Errorf("percent = %v; want 33", resp["percent"])
	}

	if w := doRequest(t, server, http.MethodPost, "/v1/progress/learner-1/modules/99/complete", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown module status = %d; want 404", w.Code)
	}

	w = doRequest(t, server, http.MethodPut, "/v1/progress/learner-1/current", map[string]any{"module_id": 5})
	if w.Code != http.StatusOK {
		t.Fatalf("set current status = %d", w.Code)
	}
	prog, _ := decodeBody(t, w)["progress"].(map[string]any)
	if prog["current_module"] != float64(5) {
		t.Errorf("current_module = %v; want 5", prog["current_module"])
	}

	w = doRequest(t, server, http.MethodPost, "/v1/progress/learner-1/quizzes/module-1", map[string]any{"correct": 4, "total": 5})
	if w.Code != http.StatusOK {
		t.Fatalf("record quiz status = %d", w.Code)
	}
	if resp := decodeBody(t, w); resp["percentage"] != float64(80) || resp["rating"] != "Excellent work!" {
		t.Errorf("quiz result = %v", resp)
	}
	if w := doRequest(t, server, http.MethodPost, "/v1/progress/learner-1/quizzes/module-1", map[string]any{"correct": 6, "total": 5}); w.Code != http.StatusBadRequest {
		t.Errorf("invalid quiz status = %d; want 400", w.Code)
	}

	w = doRequest(t, server, http.MethodGet, "/v1/progress", nil)
	if learners, _ := decodeBody(t, w)["learners"].([]any); len(learners) != 1 {
		t.Errorf("learners = %v; want [learner-1]", learners)
	}

	if w := doRequest(t, server, http.MethodDelete, "/v1/progress/learner-1", nil); w.Code != http.StatusOK {
		t.Errorf("reset status = %d", w.Code)
	}
	w = doRequest(t, server, http.MethodGet, "/v1/progress/learner-1", nil)
	if resp := decodeBody(t, w); resp["percent"] != float64(0) {
		t.Errorf("percent after reset = %v; want 0", resp["percent"])
	}

	w = doRequest(t, server, http.MethodGet, "/v1/analytics/events?type="+domain.EventBadgeEarned, nil)
	if events, _ := decodeBody(t, w)["events"].([]any); len(events) != 2 {
		t.Errorf("badge events = %d; want 2", len(events))
	}
}
