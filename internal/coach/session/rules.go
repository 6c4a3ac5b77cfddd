package session

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/meltforce/repcoach/internal/coach/history"
	"github.com/meltforce/repcoach/internal/models"
)

// loadRoundUnit is the plate-math granularity every adjusted load rounds to.
const loadRoundUnit = 2.5

// SetResult carries what the athlete actually did for one set.
type SetResult struct {
	Weight *float64 `json:"weight,omitempty"`
	Reps   *int     `json:"reps,omitempty"`
	RPE    *float64 `json:"rpe,omitempty"`
}

// loadRule is one row of the post-set adjustment ladder: a predicate over
// the observed result vs the logged set's own target, and the multiplier
// applied to the next set's load when the row fires first.
type loadRule struct {
	name       string
	applies    func(res SetResult, target models.Set) bool
	multiplier float64
	decision   models.DecisionType
	reason     string
}

// loadRules is evaluated in order; the first matching row wins. Order is
// policy: the strong signals (very low or very high RPE) sit above the
// moderate ones.
var loadRules = []loadRule{
	{
		name: "well under effort",
		applies: func(res SetResult, _ models.Set) bool {
			return res.RPE != nil && *res.RPE < 6
		},
		multiplier: 1.05,
		decision:   models.DecisionLoadIncrease,
		reason:     "RPE %.1f is well under target effort; bumping the next set 5%%",
	},
	{
		name: "smooth at target reps",
		applies: func(res SetResult, target models.Set) bool {
			return res.RPE != nil && *res.RPE <= 6.5 &&
				res.Reps != nil && *res.Reps >= target.TargetReps
		},
		multiplier: 1.025,
		decision:   models.DecisionLoadIncrease,
		reason:     "RPE %.1f with full reps; nudging the next set up 2.5%%",
	},
	{
		name: "at failure",
		applies: func(res SetResult, _ models.Set) bool {
			return res.RPE != nil && *res.RPE >= 9.5
		},
		multiplier: 0.95,
		decision:   models.DecisionLoadDecrease,
		reason:     "RPE %.1f is at failure; backing the next set off 5%%",
	},
	{
		name: "grinding short of reps",
		applies: func(res SetResult, target models.Set) bool {
			return res.RPE != nil && *res.RPE >= 9 &&
				res.Reps != nil && *res.Reps < target.TargetReps
		},
		multiplier: 0.925,
		decision:   models.DecisionLoadDecrease,
		reason:     "RPE %.1f and short of target reps; backing the next set off 7.5%%",
	},
}

// adjustNextSet applies the rule ladder to the next pending set in the same
// exercise and returns a message describing the change, if any.
func (e *Engine) adjustNextSet(exIdx, setIdx int, res SetResult, logged models.Set) string {
	sets := e.queue[exIdx].Sets
	if setIdx+1 >= len(sets) {
		return ""
	}
	next := &sets[setIdx+1]
	if next.TargetLoad == nil {
		return ""
	}

	for _, rule := range loadRules {
		if !rule.applies(res, logged) {
			continue
		}
		old := *next.TargetLoad
		adjusted := RoundLoad(old * rule.multiplier)
		if adjusted == old {
			return ""
		}
		next.TargetLoad = &adjusted
		next.AgentAdjusted = true
		next.AgentReasoning = fmt.Sprintf(rule.reason, *res.RPE)
		e.record(rule.decision, fmt.Sprintf("%s: %s (%.1f → %.1f)",
			e.queue[exIdx].Exercise.Name, next.AgentReasoning, old, adjusted), false)
		return fmt.Sprintf("Adjusted the next set to %.1f — %s.", adjusted, next.AgentReasoning)
	}
	return ""
}

// RoundLoad rounds a load to the nearest plate-math unit.
func RoundLoad(w float64) float64 {
	return math.Round(w/loadRoundUnit) * loadRoundUnit
}

// LogOutcome reports what happened after a set was logged.
type LogOutcome struct {
	Message         string     `json:"message,omitempty"`
	SessionComplete bool       `json:"session_complete"`
	NewPR           bool       `json:"new_pr"`
	NextSetID       *uuid.UUID `json:"next_set_id,omitempty"`
}

// LogSet records the actuals for the referenced set, marks it completed,
// runs the adjustment ladder against the next set in the same exercise, and
// advances the cursor. Unknown exercise or set ids are defensive no-ops:
// a stale reference produces no state change and ok=false.
func (e *Engine) LogSet(exerciseID, setID uuid.UUID, res SetResult) (LogOutcome, bool) {
	exIdx, setIdx, ok := e.find(exerciseID, setID)
	if !ok || e.complete {
		return LogOutcome{}, false
	}
	// Only the active set is loggable; anything else is a stale reference.
	if e.queue[exIdx].Sets[setIdx].Status != models.SetActive {
		return LogOutcome{}, false
	}

	set := &e.queue[exIdx].Sets[setIdx]
	set.ActualWeight = res.Weight
	set.ActualReps = res.Reps
	set.ActualRPE = res.RPE
	set.Status = models.SetCompleted

	outcome := LogOutcome{}
	if e.isNewPR(e.queue[exIdx].Exercise.ID, res) {
		set.IsPR = true
		outcome.NewPR = true
	}

	logged := *set
	adjustMsg := e.adjustNextSet(exIdx, setIdx, res, logged)

	transitionMsg := e.advance()
	outcome.SessionComplete = e.complete
	outcome.Message = joinMessages(adjustMsg, transitionMsg)
	if cur, ok := e.CurrentSet(); ok {
		id := cur.ID
		outcome.NextSetID = &id
	}

	e.emit(models.SetLogRecord{
		SessionID:    e.id,
		ExerciseID:   e.queue[exIdx].Exercise.ID,
		SetID:        logged.ID,
		SetOrder:     logged.Order,
		TargetReps:   logged.TargetReps,
		TargetRPE:    logged.TargetRPE,
		TargetLoad:   logged.TargetLoad,
		ActualWeight: res.Weight,
		ActualReps:   res.Reps,
		ActualRPE:    res.RPE,
	})

	return outcome, true
}

// advance moves the cursor past the set just completed: next set in the
// exercise, else the next exercise's first set with a transition message,
// else session complete.
func (e *Engine) advance() string {
	if e.setIdx+1 < len(e.queue[e.exIdx].Sets) {
		e.setIdx++
		e.queue[e.exIdx].Sets[e.setIdx].Status = models.SetActive
		return ""
	}

	e.exIdx++
	e.setIdx = 0
	e.activateCursor()
	if e.complete {
		return "That's the whole session. Great work today."
	}

	next := e.queue[e.exIdx]
	msg := fmt.Sprintf("Next up: %s.", next.Exercise.Name)
	if next.Context.LastPerformance != "" {
		msg += " " + fmt.Sprintf("Last time: %s.", next.Context.LastPerformance)
	}
	return msg
}

// isNewPR compares the logged set's estimated one-rep max against movement
// memory. No memory record means nothing to beat.
func (e *Engine) isNewPR(exerciseID uuid.UUID, res SetResult) bool {
	if res.Weight == nil || res.Reps == nil {
		return false
	}
	m, ok := e.memory[exerciseID]
	if !ok || m.EstimatedPR == nil {
		return false
	}
	return history.EstimateOneRepMax(*res.Weight, *res.Reps) > *m.EstimatedPR
}

// find locates a set by exercise and set id.
func (e *Engine) find(exerciseID, setID uuid.UUID) (exIdx, setIdx int, ok bool) {
	for i := range e.queue {
		if e.queue[i].Exercise.ID != exerciseID {
			continue
		}
		for j := range e.queue[i].Sets {
			if e.queue[i].Sets[j].ID == setID {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// emit hands the record to the persistence callback without waiting on it.
func (e *Engine) emit(rec models.SetLogRecord) {
	if e.persist == nil {
		return
	}
	go e.persist(rec)
}

func joinMessages(msgs ...string) string {
	var parts []string
	for _, m := range msgs {
		if m != "" {
			parts = append(parts, m)
		}
	}
	return strings.Join(parts, " ")
}
