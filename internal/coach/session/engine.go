// Package session owns one live training session: an ordered queue of
// exercises and sets, a cursor marking the single active set, and an audit
// log of every autonomous adjustment the engine makes.
//
// An Engine is an explicitly-owned handle: one instance per live session,
// one writer. All operations are synchronous in-memory transitions; the only
// asynchronous boundary is the persistence callback, which is invoked
// fire-and-forget and never blocks session progress.
package session

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/repcoach/internal/models"
)

// PersistFunc receives the normalized record of every logged set. The engine
// does not wait for it, retry it, or observe its outcome; receivers own
// their own ordering and idempotency, keyed by SetID.
type PersistFunc func(models.SetLogRecord)

// Readiness thresholds for the one-shot init policy.
const (
	fatigueScoreBelow = 40
	peakScoreAbove    = 85
)

// compoundLiftMarkers is the fixed name lexicon that recognizes a compound
// lift for the peak-mode challenge set.
var compoundLiftMarkers = []string{"squat", "deadlift", "press", "row", "pull-up", "pullup", "pull up"}

// Engine is the live-session state machine.
type Engine struct {
	id        uuid.UUID
	queue     []models.SessionExercise
	exIdx     int
	setIdx    int
	complete  bool
	decisions []models.AgentDecision
	memory    map[uuid.UUID]models.MovementMemory
	persist   PersistFunc
	log       *slog.Logger
	now       func() time.Time

	exercisesAdded int
}

// Progress summarizes how far the session has come.
type Progress struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Options configures optional Engine collaborators.
type Options struct {
	Memory  map[uuid.UUID]models.MovementMemory
	Persist PersistFunc
	Log     *slog.Logger
	Now     func() time.Time
}

// New builds an Engine over a pre-populated queue, applies at most one
// readiness volume policy, and activates the first set. The returned message
// names the policy applied, or is empty when readiness left the plan alone.
func New(queue []models.SessionExercise, readiness *models.ReadinessSnapshot, opts Options) (*Engine, string) {
	e := &Engine{
		id:      uuid.New(),
		queue:   queue,
		memory:  opts.Memory,
		persist: opts.Persist,
		log:     opts.Log,
		now:     opts.Now,
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}

	e.fillContexts()
	msg := e.applyReadiness(readiness)
	e.activateCursor()
	return e, msg
}

// ID returns the session identifier.
func (e *Engine) ID() uuid.UUID { return e.id }

// fillContexts backfills each exercise's last-performance line from movement
// memory where the caller left it empty.
func (e *Engine) fillContexts() {
	for i := range e.queue {
		ex := &e.queue[i]
		if ex.Context.LastPerformance != "" {
			continue
		}
		m, ok := e.memory[ex.Exercise.ID]
		if !ok || m.LastWeight == nil || m.LastReps == nil {
			continue
		}
		ex.Context.LastPerformance = fmt.Sprintf("%.1f × %d last time", *m.LastWeight, *m.LastReps)
		if ex.Context.SuggestedWeight == nil {
			ex.Context.SuggestedWeight = m.LastWeight
		}
		if ex.Context.SuggestedReps == nil {
			ex.Context.SuggestedReps = m.LastReps
		}
	}
}

// applyReadiness applies at most one global volume policy from the
// readiness score: fatigue mode trims a set from every multi-set exercise,
// peak mode adds a challenge set to the first recognized compound lift.
func (e *Engine) applyReadiness(r *models.ReadinessSnapshot) string {
	if r == nil {
		return ""
	}

	switch {
	case r.Score < fatigueScoreBelow:
		trimmed := 0
		for i := range e.queue {
			sets := e.queue[i].Sets
			if len(sets) < 2 {
				continue
			}
			e.queue[i].Sets = sets[:len(sets)-1]
			trimmed++
		}
		if trimmed == 0 {
			return ""
		}
		e.record(models.DecisionVolumeReduced,
			fmt.Sprintf("Readiness score %d: dropped the last set from %d exercises", r.Score, trimmed), false)
		return fmt.Sprintf("Readiness is low today (%d/100), so I trimmed a set from each exercise. Quality over quantity.", r.Score)

	case r.Score > peakScoreAbove:
		for i := range e.queue {
			if !isCompoundLift(e.queue[i].Exercise.Name) || len(e.queue[i].Sets) == 0 {
				continue
			}
			last := e.queue[i].Sets[len(e.queue[i].Sets)-1]
			challenge := cloneSet(last)
			challenge.AgentAdjusted = true
			challenge.AgentReasoning = "challenge set: readiness is peaked"
			e.queue[i].Sets = append(e.queue[i].Sets, challenge)
			e.record(models.DecisionVolumeAdded,
				fmt.Sprintf("Readiness score %d: added a challenge set to %s", r.Score, e.queue[i].Exercise.Name), false)
			return fmt.Sprintf("Readiness is peaked (%d/100). I added a challenge set to %s — let's see what you've got.",
				r.Score, e.queue[i].Exercise.Name)
		}
		return ""
	}
	return ""
}

// activateCursor marks the set under the cursor active, walking forward past
// exercises that have no sets. Sessions with an empty queue complete at once.
func (e *Engine) activateCursor() {
	for e.exIdx < len(e.queue) {
		if e.setIdx < len(e.queue[e.exIdx].Sets) {
			e.queue[e.exIdx].Sets[e.setIdx].Status = models.SetActive
			return
		}
		e.exIdx++
		e.setIdx = 0
	}
	e.complete = true
}

// record appends an audit entry for an engine- or athlete-driven change.
func (e *Engine) record(t models.DecisionType, reasoning string, requested bool) {
	e.decisions = append(e.decisions, models.AgentDecision{
		ID:        uuid.New(),
		Type:      t,
		Reasoning: reasoning,
		Requested: requested,
		Timestamp: e.now(),
	})
	e.log.Debug("agent decision", "type", t, "reasoning", reasoning, "requested", requested)
}

func isCompoundLift(name string) bool {
	n := strings.ToLower(name)
	for _, marker := range compoundLiftMarkers {
		if strings.Contains(n, marker) {
			return true
		}
	}
	return false
}

func cloneSet(s models.Set) models.Set {
	s.ID = uuid.New()
	s.Status = models.SetPending
	s.ActualWeight = nil
	s.ActualReps = nil
	s.ActualRPE = nil
	s.IsPR = false
	s.AgentAdjusted = false
	s.AgentReasoning = ""
	s.Note = ""
	s.Order++
	return s
}

// --- Query surface ---

// Complete reports whether every set has been resolved.
func (e *Engine) Complete() bool { return e.complete }

// CurrentExercise returns the exercise under the cursor.
func (e *Engine) CurrentExercise() (models.SessionExercise, bool) {
	if e.complete || e.exIdx >= len(e.queue) {
		return models.SessionExercise{}, false
	}
	return e.queue[e.exIdx], true
}

// CurrentSet returns the single active set, or false when the session has
// completed.
func (e *Engine) CurrentSet() (models.Set, bool) {
	if e.complete || e.exIdx >= len(e.queue) || e.setIdx >= len(e.queue[e.exIdx].Sets) {
		return models.Set{}, false
	}
	return e.queue[e.exIdx].Sets[e.setIdx], true
}

// Progress counts completed sets across the whole queue.
func (e *Engine) Progress() Progress {
	p := Progress{}
	for _, ex := range e.queue {
		for _, s := range ex.Sets {
			p.Total++
			if s.Status == models.SetCompleted {
				p.Completed++
			}
		}
	}
	if p.Total > 0 {
		p.Percentage = float64(p.Completed) / float64(p.Total) * 100
	}
	return p
}

// CompletedSets returns the completed sets for one exercise, in order.
func (e *Engine) CompletedSets(exerciseID uuid.UUID) []models.Set {
	var out []models.Set
	for _, ex := range e.queue {
		if ex.Exercise.ID != exerciseID {
			continue
		}
		for _, s := range ex.Sets {
			if s.Status == models.SetCompleted {
				out = append(out, s)
			}
		}
	}
	return out
}

// Decisions returns the audit log of autonomous and requested adjustments.
func (e *Engine) Decisions() []models.AgentDecision {
	out := make([]models.AgentDecision, len(e.decisions))
	copy(out, e.decisions)
	return out
}

// Queue returns a snapshot of the full exercise queue.
func (e *Engine) Queue() []models.SessionExercise {
	out := make([]models.SessionExercise, len(e.queue))
	copy(out, e.queue)
	for i := range out {
		sets := make([]models.Set, len(e.queue[i].Sets))
		copy(sets, e.queue[i].Sets)
		out[i].Sets = sets
	}
	return out
}

// ExercisesAdded counts exercises appended after session start.
func (e *Engine) ExercisesAdded() int { return e.exercisesAdded }
