package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/meltforce/repcoach/internal/coach/session"
)

func testServer() *Server {
	return &Server{
		log:    slog.Default(),
		active: make(map[int]*session.Engine),
	}
}

func startTestSession(t *testing.T, s *Server) *session.Engine {
	t.Helper()
	queue, err := buildQueue([]plannedExercise{
		{Name: "Bench Press", Sets: 3, Reps: 8, Weight: fptr(100)},
		{Name: "Bicep Curl", Sets: 2, Reps: 12, Weight: fptr(30)},
	})
	if err != nil {
		t.Fatalf("buildQueue error: %v", err)
	}
	eng, _ := session.New(queue, nil, session.Options{Log: s.log})
	s.setEngine(defaultUserID, eng)
	return eng
}

func fptr(f float64) *float64 { return &f }

// TestParseIntentEndpoint verifies free text comes back classified.
func TestParseIntentEndpoint(t *testing.T) {
	s := testServer()
	body := bytes.NewBufferString(`{"text":"3x10 curls with 30lbs"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/intent", body)
	rec := httptest.NewRecorder()

	s.handleParseIntent(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp["type"] != "LOG_WORKOUT" {
		t.Errorf("type = %v, want LOG_WORKOUT", resp["type"])
	}
}

// TestCurrentSessionWithoutOne verifies a clear 404 when no session is live.
func TestCurrentSessionWithoutOne(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/current", nil)
	rec := httptest.NewRecorder()

	s.handleCurrentSession(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// TestLogSetEndpoint verifies the full log path: active set logged, cursor
// advanced, progress reported.
func TestLogSetEndpoint(t *testing.T) {
	s := testServer()
	eng := startTestSession(t, s)

	ex, _ := eng.CurrentExercise()
	set, _ := eng.CurrentSet()

	body := bytes.NewBufferString(fmt.Sprintf(
		`{"exercise_id":%q,"set_id":%q,"weight":100,"reps":8,"rpe":7.5}`,
		ex.Exercise.ID, set.ID))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/current/sets", body)
	rec := httptest.NewRecorder()

	s.handleLogSet(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got := eng.Progress().Completed; got != 1 {
		t.Errorf("completed sets = %d, want 1", got)
	}
}

// TestLogSetStaleReference verifies that logging a non-active set conflicts
// instead of mutating state.
func TestLogSetStaleReference(t *testing.T) {
	s := testServer()
	eng := startTestSession(t, s)

	// Reference the last set of the second exercise, which is pending.
	q := eng.Queue()
	stale := q[1].Sets[1]

	body := bytes.NewBufferString(fmt.Sprintf(
		`{"exercise_id":%q,"set_id":%q,"weight":30,"reps":12,"rpe":7}`,
		q[1].Exercise.ID, stale.ID))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/current/sets", body)
	rec := httptest.NewRecorder()

	s.handleLogSet(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if got := eng.Progress().Completed; got != 0 {
		t.Errorf("completed sets = %d, want 0", got)
	}
}

// TestMessageLogsWorkout verifies free text logging flows through the parser
// into the live session.
func TestMessageLogsWorkout(t *testing.T) {
	s := testServer()
	eng := startTestSession(t, s)

	body := bytes.NewBufferString(`{"text":"1x8 bench press at 100lbs rpe 7"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/current/message", body)
	rec := httptest.NewRecorder()

	s.handleMessage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := eng.Progress().Completed; got != 1 {
		t.Errorf("completed sets = %d, want 1", got)
	}
}

// TestMessageModifiesSession verifies a complaint scales the remaining sets.
func TestMessageModifiesSession(t *testing.T) {
	s := testServer()
	eng := startTestSession(t, s)

	body := bytes.NewBufferString(`{"text":"this is way too easy"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/current/message", body)
	rec := httptest.NewRecorder()

	s.handleMessage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	q := eng.Queue()
	if got := *q[0].Sets[0].TargetLoad; got != 105 {
		t.Errorf("first set load = %.1f, want 105 after too-easy bump", got)
	}
}

// TestMessageWithoutSession verifies parsing still works when nothing is live.
func TestMessageWithoutSession(t *testing.T) {
	s := testServer()
	body := bytes.NewBufferString(`{"text":"feeling good today"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/current/message", body)
	rec := httptest.NewRecorder()

	s.handleMessage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if _, ok := resp["intent"]; !ok {
		t.Error("response is missing the parsed intent")
	}
}

// TestBuildQueueValidation verifies queue construction rejects bad plans.
func TestBuildQueueValidation(t *testing.T) {
	if _, err := buildQueue([]plannedExercise{{Name: "", Sets: 3, Reps: 8}}); err == nil {
		t.Error("expected error for empty exercise name")
	}
	if _, err := buildQueue([]plannedExercise{{Name: "Squat", Sets: 0, Reps: 8}}); err == nil {
		t.Error("expected error for zero sets")
	}
	if _, err := buildQueue([]plannedExercise{{Name: "Squat", Sets: 3, Reps: 8, ExerciseID: "not-a-uuid"}}); err == nil {
		t.Error("expected error for malformed exercise_id")
	}
}

// TestDecisionsEndpoint verifies the audit log is reachable over HTTP.
func TestDecisionsEndpoint(t *testing.T) {
	s := testServer()
	startTestSession(t, s)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/current/decisions", nil)
	rec := httptest.NewRecorder()

	s.handleDecisions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
