package session

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/repcoach/internal/models"
)

func fptr(f float64) *float64 { return &f }
func iptr(i int) *int         { return &i }

// exercise builds a SessionExercise with n prescribed sets.
func exercise(name string, n int, reps int, load float64) models.SessionExercise {
	exID := uuid.New()
	se := models.SessionExercise{
		Exercise: models.Exercise{
			ID: exID, Name: name, Modality: models.ModalityStrength,
			PrimaryMetric: "weight", MuscleGroup: "test",
		},
	}
	for i := 0; i < n; i++ {
		l := load
		se.Sets = append(se.Sets, models.Set{
			ID: uuid.New(), ExerciseID: exID, Order: i + 1,
			TargetReps: reps, TargetLoad: &l, Status: models.SetPending,
		})
	}
	return se
}

func testQueue() []models.SessionExercise {
	return []models.SessionExercise{
		exercise("Bench Press", 3, 8, 100),
		exercise("Overhead Press", 3, 10, 60),
		exercise("Tricep Pushdown", 2, 12, 30),
	}
}

// partitionOK verifies the core invariant: across the whole queue in
// traversal order, statuses form the contiguous pattern
// completed* active? pending*.
func partitionOK(e *Engine) bool {
	const (
		inCompleted = iota
		inActive
		inPending
	)
	state := inCompleted
	actives := 0
	for _, ex := range e.Queue() {
		for _, s := range ex.Sets {
			switch s.Status {
			case models.SetCompleted:
				if state != inCompleted {
					return false
				}
			case models.SetActive:
				actives++
				if state != inCompleted {
					return false
				}
				state = inActive
			case models.SetPending:
				state = inPending
			default:
				return false
			}
		}
	}
	if e.Complete() {
		return actives == 0
	}
	return actives == 1
}

// logActive logs the currently active set with the given result.
func logActive(t *testing.T, e *Engine, res SetResult) LogOutcome {
	t.Helper()
	ex, ok := e.CurrentExercise()
	if !ok {
		t.Fatal("no current exercise")
	}
	set, ok := e.CurrentSet()
	if !ok {
		t.Fatal("no current set")
	}
	out, ok := e.LogSet(ex.Exercise.ID, set.ID, res)
	if !ok {
		t.Fatal("LogSet rejected the active set")
	}
	return out
}

// TestInitialCursor verifies the first set starts active and the partition
// invariant holds from the start.
func TestInitialCursor(t *testing.T) {
	e, msg := New(testQueue(), nil, Options{})
	if msg != "" {
		t.Errorf("no readiness should mean no init message, got %q", msg)
	}
	set, ok := e.CurrentSet()
	if !ok {
		t.Fatal("expected an active set")
	}
	if set.Status != models.SetActive || set.Order != 1 {
		t.Errorf("first set status=%s order=%d", set.Status, set.Order)
	}
	if !partitionOK(e) {
		t.Error("partition invariant violated at init")
	}
}

// TestFatigueMode verifies readiness under 40 drops the last set from every
// multi-set exercise and says so exactly once.
func TestFatigueMode(t *testing.T) {
	queue := testQueue()
	queue = append(queue, exercise("Plank", 1, 1, 0)) // single set: untouched
	e, msg := New(queue, &models.ReadinessSnapshot{Score: 30}, Options{})

	if msg == "" {
		t.Error("fatigue mode must emit an init message")
	}
	q := e.Queue()
	if len(q[0].Sets) != 2 || len(q[1].Sets) != 2 || len(q[2].Sets) != 1 {
		t.Errorf("set counts = %d/%d/%d, want 2/2/1", len(q[0].Sets), len(q[1].Sets), len(q[2].Sets))
	}
	if len(q[3].Sets) != 1 {
		t.Errorf("single-set exercise trimmed to %d sets", len(q[3].Sets))
	}
	if len(e.Decisions()) != 1 {
		t.Errorf("decisions = %d, want 1", len(e.Decisions()))
	}
	if !partitionOK(e) {
		t.Error("partition invariant violated after fatigue trim")
	}
}

// TestPeakMode verifies readiness above 85 adds one challenge set to the
// first recognized compound lift only.
func TestPeakMode(t *testing.T) {
	queue := []models.SessionExercise{
		exercise("Tricep Pushdown", 2, 12, 30), // not compound
		exercise("Back Squat", 3, 5, 140),
		exercise("Romanian Deadlift", 3, 8, 120),
	}
	e, msg := New(queue, &models.ReadinessSnapshot{Score: 90}, Options{})

	if msg == "" {
		t.Error("peak mode must emit an init message")
	}
	q := e.Queue()
	if len(q[0].Sets) != 2 {
		t.Errorf("isolation exercise gained a set: %d", len(q[0].Sets))
	}
	if len(q[1].Sets) != 4 {
		t.Errorf("first compound sets = %d, want 4", len(q[1].Sets))
	}
	if len(q[2].Sets) != 3 {
		t.Errorf("second compound sets = %d, want 3 (only the first gets the challenge)", len(q[2].Sets))
	}
	challenge := q[1].Sets[3]
	if !challenge.AgentAdjusted || challenge.Status != models.SetPending {
		t.Errorf("challenge set: adjusted=%v status=%s", challenge.AgentAdjusted, challenge.Status)
	}
}

// TestNeutralReadiness verifies mid-range scores change nothing.
func TestNeutralReadiness(t *testing.T) {
	e, msg := New(testQueue(), &models.ReadinessSnapshot{Score: 60}, Options{})
	if msg != "" {
		t.Errorf("neutral readiness emitted %q", msg)
	}
	if q := e.Queue(); len(q[0].Sets) != 3 {
		t.Errorf("sets = %d, want 3 untouched", len(q[0].Sets))
	}
}

// TestLogSetAdvances verifies logging walks the cursor through sets and
// exercises, emitting a transition message between exercises.
func TestLogSetAdvances(t *testing.T) {
	e, _ := New(testQueue(), nil, Options{})

	out := logActive(t, e, SetResult{Weight: fptr(100), Reps: iptr(8), RPE: fptr(7)})
	if out.SessionComplete {
		t.Fatal("session completed after one set")
	}
	set, _ := e.CurrentSet()
	if set.Order != 2 {
		t.Errorf("cursor at order %d, want 2", set.Order)
	}
	if !partitionOK(e) {
		t.Error("partition invariant violated mid-exercise")
	}

	// Finish the exercise; the next log should transition to Overhead Press.
	logActive(t, e, SetResult{Weight: fptr(100), Reps: iptr(8), RPE: fptr(7)})
	out = logActive(t, e, SetResult{Weight: fptr(100), Reps: iptr(8), RPE: fptr(7)})
	ex, _ := e.CurrentExercise()
	if ex.Exercise.Name != "Overhead Press" {
		t.Errorf("current exercise = %s, want Overhead Press", ex.Exercise.Name)
	}
	if out.Message == "" {
		t.Error("exercise transition should carry a message")
	}
}

// TestSessionCompletion verifies the final log completes the session and
// CurrentSet reports nothing active.
func TestSessionCompletion(t *testing.T) {
	e, _ := New([]models.SessionExercise{exercise("Bench Press", 2, 8, 100)}, nil, Options{})
	logActive(t, e, SetResult{Weight: fptr(100), Reps: iptr(8), RPE: fptr(8)})
	out := logActive(t, e, SetResult{Weight: fptr(100), Reps: iptr(8), RPE: fptr(8)})

	if !out.SessionComplete || !e.Complete() {
		t.Error("session should be complete")
	}
	if _, ok := e.CurrentSet(); ok {
		t.Error("CurrentSet should report nothing after completion")
	}
	if out.NextSetID != nil {
		t.Error("no next set after the last log")
	}
	if p := e.Progress(); p.Completed != 2 || p.Total != 2 || p.Percentage != 100 {
		t.Errorf("progress = %+v", p)
	}
	if !partitionOK(e) {
		t.Error("partition invariant violated at completion")
	}
}

// TestRuleLadder verifies each row of the post-set adjustment ladder against
// the next set's load, including the no-change band.
func TestRuleLadder(t *testing.T) {
	cases := []struct {
		name     string
		rpe      float64
		reps     int
		wantLoad float64 // next set, from 100
	}{
		{"very easy bumps 5%", 5.5, 8, 105},
		{"easy with full reps bumps 2.5%", 6.5, 8, 102.5},
		{"at failure backs off 5%", 9.5, 8, 95},
		{"grinding short backs off 7.5%", 9.0, 6, 92.5},
		{"moderate effort unchanged", 8.0, 8, 100},
		{"high rpe but full reps unchanged", 9.0, 8, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := New([]models.SessionExercise{exercise("Bench Press", 2, 8, 100)}, nil, Options{})
			logActive(t, e, SetResult{Weight: fptr(100), Reps: iptr(tc.reps), RPE: fptr(tc.rpe)})
			next, _ := e.CurrentSet()
			if next.TargetLoad == nil || *next.TargetLoad != tc.wantLoad {
				t.Fatalf("next load = %v, want %f", next.TargetLoad, tc.wantLoad)
			}
			adjusted := tc.wantLoad != 100
			if next.AgentAdjusted != adjusted {
				t.Errorf("agentAdjusted = %v, want %v", next.AgentAdjusted, adjusted)
			}
			if adjusted && len(e.Decisions()) != 1 {
				t.Errorf("decisions = %d, want 1", len(e.Decisions()))
			}
		})
	}
}

// TestAdjustmentStaysInExercise verifies the ladder never reaches across an
// exercise boundary: the last set of an exercise adjusts nothing.
func TestAdjustmentStaysInExercise(t *testing.T) {
	e, _ := New([]models.SessionExercise{
		exercise("Bench Press", 1, 8, 100),
		exercise("Overhead Press", 1, 10, 60),
	}, nil, Options{})
	logActive(t, e, SetResult{Weight: fptr(100), Reps: iptr(8), RPE: fptr(5)})
	next, _ := e.CurrentSet()
	if *next.TargetLoad != 60 {
		t.Errorf("next exercise load = %f, want 60 untouched", *next.TargetLoad)
	}
}

// TestRoundingToPlateMath verifies adjusted loads land on 2.5 multiples for
// a spread of starting weights and every ladder multiplier.
func TestRoundingToPlateMath(t *testing.T) {
	weights := []float64{42.5, 60, 77.5, 100, 137.5, 221}
	rpes := []float64{5.5, 6.5, 9.5, 9.0}
	for _, w := range weights {
		for _, rpe := range rpes {
			e, _ := New([]models.SessionExercise{exercise("Squat", 2, 8, w)}, nil, Options{})
			reps := 8
			if rpe == 9.0 {
				reps = 5 // force the grind rule
			}
			logActive(t, e, SetResult{Weight: fptr(w), Reps: iptr(reps), RPE: fptr(rpe)})
			next, _ := e.CurrentSet()
			rem := math.Mod(*next.TargetLoad, 2.5)
			if rem > 1e-9 && rem < 2.5-1e-9 {
				t.Errorf("weight %f rpe %f: adjusted load %f is not a 2.5 multiple", w, rpe, *next.TargetLoad)
			}
		}
	}
}

// TestStaleReferenceNoOp verifies unknown ids and already-resolved sets are
// rejected without state change.
func TestStaleReferenceNoOp(t *testing.T) {
	e, _ := New(testQueue(), nil, Options{})
	before := e.Progress()

	if _, ok := e.LogSet(uuid.New(), uuid.New(), SetResult{}); ok {
		t.Error("unknown ids should be a no-op")
	}
	// A pending (not yet active) set is also a stale reference.
	q := e.Queue()
	if _, ok := e.LogSet(q[0].Exercise.ID, q[0].Sets[2].ID, SetResult{}); ok {
		t.Error("pending set should not be loggable")
	}
	if after := e.Progress(); after != before {
		t.Errorf("progress changed: %+v -> %+v", before, after)
	}
	if !partitionOK(e) {
		t.Error("partition invariant violated by rejected logs")
	}
}

// TestPersistenceCallback verifies every log emits one normalized record and
// that a slow callback does not stall the engine.
func TestPersistenceCallback(t *testing.T) {
	var mu sync.Mutex
	var records []models.SetLogRecord
	done := make(chan struct{}, 8)

	persist := func(r models.SetLogRecord) {
		time.Sleep(10 * time.Millisecond) // deliberately slow
		mu.Lock()
		records = append(records, r)
		mu.Unlock()
		done <- struct{}{}
	}

	e, _ := New([]models.SessionExercise{exercise("Bench Press", 2, 8, 100)}, nil, Options{Persist: persist})

	start := time.Now()
	logActive(t, e, SetResult{Weight: fptr(100), Reps: iptr(8), RPE: fptr(8)})
	logActive(t, e, SetResult{Weight: fptr(102.5), Reps: iptr(7), RPE: fptr(9)})
	if elapsed := time.Since(start); elapsed > 8*time.Millisecond {
		t.Errorf("logging stalled %v on the persistence callback", elapsed)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("persistence callback never fired")
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	for _, r := range records {
		if r.SessionID != e.ID() || r.SetID == (uuid.UUID{}) || r.TargetReps != 8 {
			t.Errorf("malformed record: %+v", r)
		}
	}
}

// TestNilPersistIsFine verifies the engine runs without a callback.
func TestNilPersistIsFine(t *testing.T) {
	e, _ := New([]models.SessionExercise{exercise("Bench Press", 1, 8, 100)}, nil, Options{})
	out := logActive(t, e, SetResult{Weight: fptr(100), Reps: iptr(8)})
	if !out.SessionComplete {
		t.Error("session should complete")
	}
}

// TestPRDetection verifies a set beating the remembered e1RM is flagged.
func TestPRDetection(t *testing.T) {
	queue := []models.SessionExercise{exercise("Bench Press", 2, 8, 100)}
	exID := queue[0].Exercise.ID
	memory := map[uuid.UUID]models.MovementMemory{
		exID: {ExerciseID: exID, ExerciseName: "Bench Press", EstimatedPR: fptr(120)},
	}
	e, _ := New(queue, nil, Options{Memory: memory})

	// 100×8 Epley = 126.7 > 120.
	out := logActive(t, e, SetResult{Weight: fptr(100), Reps: iptr(8), RPE: fptr(8)})
	if !out.NewPR {
		t.Error("expected a PR flag")
	}
	sets := e.CompletedSets(exID)
	if len(sets) != 1 || !sets[0].IsPR {
		t.Error("completed set should carry the PR flag")
	}
}
