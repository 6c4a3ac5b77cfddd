package history

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/repcoach/internal/models"
)

var testNow = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

func fptr(f float64) *float64 { return &f }
func iptr(i int) *int         { return &i }

// session builds a completed session n days before testNow.
func session(daysAgo int, focus string, sets ...models.CompletedSet) models.CompletedSession {
	return models.CompletedSession{
		ID:          uuid.New(),
		Date:        testNow.AddDate(0, 0, -daysAgo),
		DurationMin: iptr(60),
		Focus:       focus,
		Sets:        sets,
	}
}

func benchSet(weight float64, reps int, rpe *float64) models.CompletedSet {
	return models.CompletedSet{
		ExerciseName: "Bench Press", MuscleGroup: "chest",
		Weight: fptr(weight), Reps: iptr(reps), RPE: rpe,
	}
}

// TestVolume verifies volume sums weight×reps over non-warm-up sets with
// both values present, overall and per muscle group.
func TestVolume(t *testing.T) {
	sessions := []models.CompletedSession{
		session(1, "push",
			benchSet(100, 10, nil),
			models.CompletedSet{ExerciseName: "Bench Press", MuscleGroup: "chest", Weight: fptr(60), Reps: iptr(10), IsWarmup: true},
			models.CompletedSet{ExerciseName: "Squat", MuscleGroup: "legs", Weight: fptr(140), Reps: iptr(5)},
			models.CompletedSet{ExerciseName: "Plank", MuscleGroup: "core", Reps: iptr(1)}, // no weight: excluded
		),
	}
	a := Analyze(sessions, nil, nil, 8, testNow)
	if a.TotalVolume != 1700 {
		t.Errorf("total volume = %f, want 1700", a.TotalVolume)
	}
	if a.VolumeByMuscleGroup["chest"] != 1000 {
		t.Errorf("chest volume = %f, want 1000", a.VolumeByMuscleGroup["chest"])
	}
	if a.VolumeByMuscleGroup["legs"] != 700 {
		t.Errorf("legs volume = %f, want 700", a.VolumeByMuscleGroup["legs"])
	}
}

// TestWindowFilter verifies sessions outside the trailing window are ignored.
func TestWindowFilter(t *testing.T) {
	sessions := []models.CompletedSession{
		session(1, "push", benchSet(100, 10, nil)),
		session(100, "push", benchSet(100, 10, nil)), // outside an 8-week window
	}
	a := Analyze(sessions, nil, nil, 8, testNow)
	if a.SessionCount != 1 {
		t.Errorf("session count = %d, want 1", a.SessionCount)
	}
}

// TestSplitPriority verifies the split chain checks push/pull/legs before
// upper/lower and body-part labels.
func TestSplitPriority(t *testing.T) {
	ppl := []models.CompletedSession{
		session(1, "Push Day"), session(3, "Pull Day"), session(5, "Legs"),
	}
	if got := Analyze(ppl, nil, nil, 8, testNow).SplitLabel; got != "push/pull/legs" {
		t.Errorf("split = %q, want push/pull/legs", got)
	}

	ul := []models.CompletedSession{
		session(1, "Upper A"), session(3, "Lower A"), session(5, "Upper B"),
	}
	if got := Analyze(ul, nil, nil, 8, testNow).SplitLabel; got != "upper/lower" {
		t.Errorf("split = %q, want upper/lower", got)
	}

	bp := []models.CompletedSession{
		session(1, "Chest"), session(3, "Back"), session(5, "Arms"),
	}
	if got := Analyze(bp, nil, nil, 8, testNow).SplitLabel; got != "body-part split" {
		t.Errorf("split = %q, want body-part split", got)
	}

	fb := []models.CompletedSession{
		session(1, "Full Body"), session(3, "Full Body"),
	}
	if got := Analyze(fb, nil, nil, 8, testNow).SplitLabel; got != "full body" {
		t.Errorf("split = %q, want full body", got)
	}
}

// TestProgressionBuckets verifies trend bucketing excludes exercises seen
// fewer than twice.
func TestProgressionBuckets(t *testing.T) {
	memory := []models.MovementMemory{
		{ExerciseName: "Bench Press", Trend: models.TrendProgressing, TimesSeen: 5},
		{ExerciseName: "Squat", Trend: models.TrendRegressing, TimesSeen: 4},
		{ExerciseName: "Deadlift", Trend: models.TrendStagnant, TimesSeen: 3},
		{ExerciseName: "Face Pull", Trend: models.TrendProgressing, TimesSeen: 1}, // excluded
	}
	a := Analyze(nil, memory, nil, 8, testNow)
	if len(a.Progressing) != 1 || a.Progressing[0] != "Bench Press" {
		t.Errorf("progressing = %v", a.Progressing)
	}
	if len(a.Regressing) != 1 || a.Regressing[0] != "Squat" {
		t.Errorf("regressing = %v", a.Regressing)
	}
	if len(a.Stagnant) != 1 || a.Stagnant[0] != "Deadlift" {
		t.Errorf("stagnant = %v", a.Stagnant)
	}
	if a.TrackedExercises != 3 {
		t.Errorf("tracked = %d, want 3", a.TrackedExercises)
	}
}

// TestGapDetection verifies gaps are consecutive sessions more than seven
// days apart, and that overlapping disruptions are linked.
func TestGapDetection(t *testing.T) {
	sessions := []models.CompletedSession{
		session(30, "push"), session(16, "pull"), session(2, "legs"),
	}
	end := testNow.AddDate(0, 0, -18)
	disruptions := []models.Disruption{
		{Kind: "illness", Severity: models.SeverityModerate,
			Start: testNow.AddDate(0, 0, -25), End: &end},
	}
	a := Analyze(sessions, nil, disruptions, 8, testNow)
	if len(a.Gaps) != 2 {
		t.Fatalf("gaps = %d, want 2", len(a.Gaps))
	}
	if a.Gaps[0].Days != 14 {
		t.Errorf("gap 0 days = %d, want 14", a.Gaps[0].Days)
	}
	if !a.Gaps[0].DisruptionLinked {
		t.Error("gap 0 should be disruption-linked")
	}
	if a.Gaps[1].DisruptionLinked {
		t.Error("gap 1 should not be disruption-linked")
	}
}

// TestDataQuality verifies the weighted grade moves with input richness.
func TestDataQuality(t *testing.T) {
	if got := Analyze(nil, nil, nil, 8, testNow).DataQuality; got != models.ConfidenceLow {
		t.Errorf("empty inputs quality = %s, want low", got)
	}

	var sessions []models.CompletedSession
	for i := 0; i < 12; i++ {
		sessions = append(sessions, session(i*4, "push", benchSet(100, 8, fptr(8))))
	}
	var memory []models.MovementMemory
	for i := 0; i < 10; i++ {
		memory = append(memory, models.MovementMemory{
			ExerciseName: "Exercise", TimesSeen: 5, HighConfidence: true,
			Trend: models.TrendProgressing,
		})
	}
	if got := Analyze(sessions, memory, nil, 8, testNow).DataQuality; got != models.ConfidenceHigh {
		t.Errorf("rich inputs quality = %s, want high", got)
	}
}

// TestDeterminism verifies referential transparency: identical inputs yield
// identical output, including pattern ordering.
func TestDeterminism(t *testing.T) {
	sessions := []models.CompletedSession{
		session(1, "push", benchSet(100, 10, fptr(8)),
			models.CompletedSet{ExerciseName: "Overhead Press", MuscleGroup: "shoulders", Weight: fptr(60), Reps: iptr(8)}),
		session(3, "pull"), session(5, "legs"),
		session(8, "push", benchSet(102.5, 10, fptr(8)),
			models.CompletedSet{ExerciseName: "Overhead Press", MuscleGroup: "shoulders", Weight: fptr(60), Reps: iptr(9)}),
		session(10, "pull"), session(12, "legs"),
		session(15, "push", benchSet(105, 10, fptr(8.5)),
			models.CompletedSet{ExerciseName: "Overhead Press", MuscleGroup: "shoulders", Weight: fptr(62.5), Reps: iptr(8)}),
	}
	memory := []models.MovementMemory{
		{ExerciseName: "Bench Press", Trend: models.TrendProgressing, TimesSeen: 3},
	}
	a1 := Analyze(sessions, memory, nil, 8, testNow)
	a2 := Analyze(sessions, memory, nil, 8, testNow)
	if !reflect.DeepEqual(a1, a2) {
		t.Error("identical inputs produced different analyses")
	}
}

// TestPairingPattern verifies exercises that always co-occur are detected.
func TestPairingPattern(t *testing.T) {
	pair := func(daysAgo int) models.CompletedSession {
		return session(daysAgo, "push",
			benchSet(100, 8, nil),
			models.CompletedSet{ExerciseName: "Tricep Pushdown", MuscleGroup: "arms", Weight: fptr(30), Reps: iptr(12)},
		)
	}
	sessions := []models.CompletedSession{pair(1), pair(4), pair(8), pair(11)}
	a := Analyze(sessions, nil, nil, 8, testNow)

	found := false
	for _, p := range a.Patterns {
		if p.Type == models.PatternPairing {
			found = true
			if p.Confidence != 1 {
				t.Errorf("pairing confidence = %f, want 1 for perfect co-occurrence", p.Confidence)
			}
		}
	}
	if !found {
		t.Error("expected a pairing pattern")
	}
}

// TestEstimateOneRepMax verifies the Epley formula and its edge cases.
func TestEstimateOneRepMax(t *testing.T) {
	if got := EstimateOneRepMax(100, 1); got != 100 {
		t.Errorf("e1RM(100,1) = %f, want 100", got)
	}
	if got := EstimateOneRepMax(100, 10); got < 133.2 || got > 133.4 {
		t.Errorf("e1RM(100,10) = %f, want ~133.3", got)
	}
	if got := EstimateOneRepMax(0, 5); got != 0 {
		t.Errorf("e1RM(0,5) = %f, want 0", got)
	}
}
