package journal

import (
	"testing"

	"github.com/google/uuid"
	"github.com/meltforce/repcoach/internal/models"
)

func fptr(f float64) *float64 { return &f }
func iptr(i int) *int         { return &i }

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

// TestRecordAndReadSets verifies the round trip for set logs.
func TestRecordAndReadSets(t *testing.T) {
	j := openTest(t)

	sessionID := uuid.New()
	exerciseID := uuid.New()

	for order := 1; order <= 3; order++ {
		rec := models.SetLogRecord{
			SessionID:    sessionID,
			ExerciseID:   exerciseID,
			SetID:        uuid.New(),
			SetOrder:     order,
			TargetReps:   8,
			TargetLoad:   fptr(100),
			ActualWeight: fptr(100),
			ActualReps:   iptr(8),
			ActualRPE:    fptr(7.5),
		}
		if err := j.RecordSet(rec); err != nil {
			t.Fatalf("RecordSet error: %v", err)
		}
	}

	sets, err := j.Sets(sessionID)
	if err != nil {
		t.Fatalf("Sets error: %v", err)
	}
	if len(sets) != 3 {
		t.Fatalf("len(sets) = %d, want 3", len(sets))
	}
	for i, s := range sets {
		if s.SetOrder != i+1 {
			t.Errorf("sets[%d].SetOrder = %d, want %d", i, s.SetOrder, i+1)
		}
		if s.ExerciseID != exerciseID {
			t.Errorf("sets[%d].ExerciseID = %s, want %s", i, s.ExerciseID, exerciseID)
		}
	}
}

// TestRecordSetIsIdempotent verifies re-recording the same set id replaces
// the row instead of duplicating it.
func TestRecordSetIsIdempotent(t *testing.T) {
	j := openTest(t)

	rec := models.SetLogRecord{
		SessionID:    uuid.New(),
		ExerciseID:   uuid.New(),
		SetID:        uuid.New(),
		SetOrder:     1,
		TargetReps:   10,
		ActualWeight: fptr(50),
		ActualReps:   iptr(10),
	}
	if err := j.RecordSet(rec); err != nil {
		t.Fatal(err)
	}

	rec.ActualWeight = fptr(55)
	if err := j.RecordSet(rec); err != nil {
		t.Fatal(err)
	}

	sets, err := j.Sets(rec.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 1 {
		t.Fatalf("len(sets) = %d, want 1 after replay", len(sets))
	}
	if got := *sets[0].ActualWeight; got != 55 {
		t.Errorf("ActualWeight = %.1f, want 55 (latest write wins)", got)
	}
}

// TestDecisionLog verifies decision recording and replay-safety.
func TestDecisionLog(t *testing.T) {
	j := openTest(t)

	sessionID := uuid.New()
	d := models.AgentDecision{
		ID:        uuid.New(),
		Type:      models.DecisionLoadIncrease,
		Reasoning: "RPE 5.0 is well under target effort",
	}

	if err := j.RecordDecision(sessionID, d); err != nil {
		t.Fatal(err)
	}
	// Replaying the whole audit log must not duplicate entries.
	if err := j.RecordDecision(sessionID, d); err != nil {
		t.Fatal(err)
	}

	decisions, err := j.Decisions(sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(decisions) != 1 {
		t.Fatalf("len(decisions) = %d, want 1", len(decisions))
	}
	if decisions[0].Type != models.DecisionLoadIncrease {
		t.Errorf("type = %s, want %s", decisions[0].Type, models.DecisionLoadIncrease)
	}
	if decisions[0].Reasoning != d.Reasoning {
		t.Errorf("reasoning = %q, want %q", decisions[0].Reasoning, d.Reasoning)
	}
}

// TestEmptySession verifies reads from an unknown session return nothing.
func TestEmptySession(t *testing.T) {
	j := openTest(t)

	sets, err := j.Sets(uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 0 {
		t.Errorf("len(sets) = %d, want 0", len(sets))
	}
}
