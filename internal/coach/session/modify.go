package session

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/meltforce/repcoach/internal/coach/intent"
	"github.com/meltforce/repcoach/internal/models"
)

// ModOutcome reports what a modification request changed.
type ModOutcome struct {
	Message         string `json:"message"`
	Constraint      string `json:"constraint,omitempty"`
	SessionComplete bool   `json:"session_complete"`
}

// RequestModification applies a parsed athlete intent to the live session.
// Modifications act on the current exercise's active and pending sets only.
// Intents the engine has no action for return ok=false without state change.
func (e *Engine) RequestModification(it intent.Intent) (ModOutcome, bool) {
	switch p := it.Payload.(type) {
	case intent.Modification:
		if e.complete {
			return ModOutcome{}, false
		}
		return e.applyModification(p)
	case intent.SkipExercise:
		if e.complete {
			return ModOutcome{}, false
		}
		return e.skipCurrent(p.Exercise)
	case intent.AddExercise:
		// Adding work is allowed even after the queue ran out; the session
		// reopens around the new exercise.
		return e.addExercise(p.Exercise)
	default:
		return ModOutcome{}, false
	}
}

func (e *Engine) applyModification(p intent.Modification) (ModOutcome, bool) {
	switch p.Kind {
	case intent.ModPain:
		e.record(models.DecisionRestSuggestion,
			fmt.Sprintf("Reported %s pain; suggested resting and applying constraint %s", p.BodyPart, p.Constraint), true)
		return ModOutcome{
			Message: fmt.Sprintf("Sorry about the %s — don't push through joint pain. Let's rest a moment; anything loading it is off the table for today.",
				p.BodyPart),
			Constraint: p.Constraint,
		}, true

	case intent.ModTooHard:
		n := e.scaleRemaining(0.90)
		if n == 0 {
			return ModOutcome{Message: "No remaining sets with a load to reduce."}, true
		}
		e.record(models.DecisionLoadDecrease,
			fmt.Sprintf("Athlete reported the weight too hard; reduced %d remaining sets by 10%%", n), true)
		return ModOutcome{Message: fmt.Sprintf("Dropped the remaining %d sets by 10%%. Better to own the weight than fight it.", n)}, true

	case intent.ModTooEasy:
		n := e.scaleRemaining(1.05)
		if n == 0 {
			return ModOutcome{Message: "No remaining sets with a load to increase."}, true
		}
		e.record(models.DecisionLoadIncrease,
			fmt.Sprintf("Athlete reported the weight too easy; increased %d remaining sets by 5%%", n), true)
		return ModOutcome{Message: fmt.Sprintf("Bumped the remaining %d sets up 5%%. Let's make them count.", n)}, true

	case intent.ModFatigue, intent.ModTimePressure:
		if !e.dropTrailingPending() {
			return ModOutcome{Message: "Nothing left to trim on this exercise — just finish the set you're on."}, true
		}
		why := "Athlete reported fatigue"
		msg := "Dropped the last set of this exercise. Listen to your body."
		if p.Kind == intent.ModTimePressure {
			why = "Athlete is short on time"
			msg = "Dropped the last set of this exercise so you make it out on time."
		}
		e.record(models.DecisionVolumeReduced, why+"; dropped one trailing set", true)
		return ModOutcome{Message: msg}, true

	case intent.ModAddSet:
		ex := &e.queue[e.exIdx]
		if len(ex.Sets) == 0 {
			return ModOutcome{}, false
		}
		added := cloneSet(ex.Sets[len(ex.Sets)-1])
		ex.Sets = append(ex.Sets, added)
		e.record(models.DecisionVolumeAdded,
			fmt.Sprintf("Athlete asked for an extra set of %s", ex.Exercise.Name), true)
		return ModOutcome{Message: fmt.Sprintf("Added one more set of %s.", ex.Exercise.Name)}, true

	default:
		return ModOutcome{}, false
	}
}

// scaleRemaining multiplies the load of every active and pending set in the
// current exercise, rounding to plate math. Sets without a load are left
// alone. Returns how many sets changed.
func (e *Engine) scaleRemaining(factor float64) int {
	sets := e.queue[e.exIdx].Sets
	changed := 0
	for i := range sets {
		s := &sets[i]
		if s.Status == models.SetCompleted || s.TargetLoad == nil {
			continue
		}
		old := *s.TargetLoad
		adjusted := RoundLoad(old * factor)
		if adjusted == old && factor != 1 {
			// Rounding swallowed the change on a small load; step one unit
			// in the requested direction so the request always has effect.
			if factor < 1 {
				adjusted = old - loadRoundUnit
			} else {
				adjusted = old + loadRoundUnit
			}
		}
		if adjusted < 0 {
			adjusted = 0
		}
		s.TargetLoad = &adjusted
		s.AgentAdjusted = true
		changed++
	}
	return changed
}

// dropTrailingPending removes the last set of the current exercise if it is
// still pending.
func (e *Engine) dropTrailingPending() bool {
	sets := e.queue[e.exIdx].Sets
	if len(sets) == 0 || sets[len(sets)-1].Status != models.SetPending {
		return false
	}
	e.queue[e.exIdx].Sets = sets[:len(sets)-1]
	return true
}

// skipCurrent marks every remaining set of the current exercise completed
// with a skip note — deliberately without requiring actuals — and advances
// to the next exercise. A named target that is not the current exercise is
// a no-op with an explanatory message.
func (e *Engine) skipCurrent(named string) (ModOutcome, bool) {
	ex := &e.queue[e.exIdx]
	if named != "" && !strings.EqualFold(named, ex.Exercise.Name) {
		return ModOutcome{
			Message: fmt.Sprintf("We're on %s right now — I can only skip the current exercise.", ex.Exercise.Name),
		}, true
	}

	skipped := 0
	for i := range ex.Sets {
		if ex.Sets[i].Status == models.SetCompleted {
			continue
		}
		ex.Sets[i].Status = models.SetCompleted
		ex.Sets[i].Note = "skipped"
		skipped++
	}
	e.record(models.DecisionExerciseSkipped,
		fmt.Sprintf("Skipped %d remaining sets of %s at athlete request", skipped, ex.Exercise.Name), true)

	name := ex.Exercise.Name
	e.exIdx++
	e.setIdx = 0
	e.activateCursor()

	out := ModOutcome{SessionComplete: e.complete}
	if e.complete {
		out.Message = fmt.Sprintf("Skipped %s — and that was the last one. Session done.", name)
		return out, true
	}
	next := e.queue[e.exIdx]
	out.Message = fmt.Sprintf("Skipped %s. Next up: %s.", name, next.Exercise.Name)
	if next.Context.LastPerformance != "" {
		out.Message += fmt.Sprintf(" Last time: %s.", next.Context.LastPerformance)
	}
	return out, true
}

// addExercise appends a new exercise with a default prescription to the end
// of the queue. Mid-session additions are counted for the session summary.
func (e *Engine) addExercise(name string) (ModOutcome, bool) {
	if name == "" {
		return ModOutcome{}, false
	}

	exID := uuid.New()
	se := models.SessionExercise{
		Exercise: models.Exercise{
			ID:            exID,
			Name:          name,
			Modality:      models.ModalityStrength,
			PrimaryMetric: "weight",
		},
	}
	reps := 10
	for _, m := range e.memory {
		if strings.EqualFold(m.ExerciseName, name) && m.LastReps != nil {
			reps = *m.LastReps
			break
		}
	}
	for i := 0; i < 3; i++ {
		se.Sets = append(se.Sets, models.Set{
			ID:         uuid.New(),
			ExerciseID: exID,
			Order:      i + 1,
			TargetReps: reps,
			Status:     models.SetPending,
		})
	}
	e.queue = append(e.queue, se)
	e.exercisesAdded++

	// A finished session reopens when new work is appended.
	if e.complete {
		e.complete = false
		e.exIdx = len(e.queue) - 1
		e.setIdx = 0
		e.activateCursor()
	}

	e.record(models.DecisionExerciseAdded,
		fmt.Sprintf("Added %s (3 sets) at athlete request", name), true)
	return ModOutcome{Message: fmt.Sprintf("Added %s to the end of the session — 3 sets of %d.", name, reps)}, true
}
