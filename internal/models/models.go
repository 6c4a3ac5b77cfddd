package models

import (
	"time"

	"github.com/google/uuid"
)

// Modality classifies how an exercise is performed and measured.
type Modality string

const (
	ModalityStrength Modality = "strength"
	ModalityCardio   Modality = "cardio"
	ModalityHybrid   Modality = "hybrid"
)

// Exercise is an immutable catalog entry. Read-only to the coaching core.
type Exercise struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Modality      Modality  `json:"modality"`
	PrimaryMetric string    `json:"primary_metric"`
	MuscleGroup   string    `json:"muscle_group"`
}

// SetStatus is the lifecycle state of a single set.
type SetStatus string

const (
	SetPending   SetStatus = "pending"
	SetActive    SetStatus = "active"
	SetCompleted SetStatus = "completed"
)

// Set is the mutable unit of work inside a live session. Prescribed targets
// and actual performed values live side by side; actuals stay nil until the
// set is logged.
type Set struct {
	ID         uuid.UUID `json:"id"`
	ExerciseID uuid.UUID `json:"exercise_id"`
	Order      int       `json:"order"`

	TargetReps  int      `json:"target_reps"`
	TargetRPE   *float64 `json:"target_rpe,omitempty"`
	TargetLoad  *float64 `json:"target_load,omitempty"`
	TargetTempo string   `json:"target_tempo,omitempty"`

	ActualWeight *float64 `json:"actual_weight,omitempty"`
	ActualReps   *int     `json:"actual_reps,omitempty"`
	ActualRPE    *float64 `json:"actual_rpe,omitempty"`

	IsWarmup bool      `json:"is_warmup"`
	IsPR     bool      `json:"is_pr"`
	Status   SetStatus `json:"status"`

	AgentAdjusted  bool   `json:"agent_adjusted,omitempty"`
	AgentReasoning string `json:"agent_reasoning,omitempty"`
	Note           string `json:"note,omitempty"`
}

// ExerciseContext bundles what the engine knows about an exercise going in:
// the most recent historical performance and a suggested starting point.
type ExerciseContext struct {
	LastPerformance string   `json:"last_performance,omitempty"`
	SuggestedWeight *float64 `json:"suggested_weight,omitempty"`
	SuggestedReps   *int     `json:"suggested_reps,omitempty"`
}

// SessionExercise is one exercise's ordered sets for the current session.
type SessionExercise struct {
	Exercise Exercise        `json:"exercise"`
	Sets     []Set           `json:"sets"`
	Context  ExerciseContext `json:"context"`
}

// ReadinessSnapshot is the at-most-daily sleep/soreness/stress check-in.
// Score is a 0-100 composite; consumed once at session start.
type ReadinessSnapshot struct {
	Date     time.Time `json:"date"`
	Sleep    int       `json:"sleep"`
	Soreness int       `json:"soreness"`
	Stress   int       `json:"stress"`
	Score    int       `json:"score"`
}

// Trend labels the direction a movement's performance is heading.
type Trend string

const (
	TrendProgressing Trend = "progressing"
	TrendStagnant    Trend = "stagnant"
	TrendRegressing  Trend = "regressing"
)

// MovementMemory is the rolling per-exercise performance summary computed
// upstream. Read-only to the coaching core.
type MovementMemory struct {
	ExerciseID     uuid.UUID `json:"exercise_id"`
	ExerciseName   string    `json:"exercise_name"`
	LastWeight     *float64  `json:"last_weight,omitempty"`
	LastReps       *int      `json:"last_reps,omitempty"`
	LastSets       *int      `json:"last_sets,omitempty"`
	AvgRPE         *float64  `json:"avg_rpe,omitempty"`
	TypicalRepMax  *float64  `json:"typical_rep_max,omitempty"`
	EstimatedPR    *float64  `json:"estimated_pr,omitempty"`
	Trend          Trend     `json:"trend"`
	TimesSeen      int       `json:"times_seen"`
	HighConfidence bool      `json:"high_confidence"`
	LastPerformed  time.Time `json:"last_performed"`
}

// DecisionType tags the kind of autonomous adjustment the engine made.
type DecisionType string

const (
	DecisionLoadIncrease    DecisionType = "load_increase"
	DecisionLoadDecrease    DecisionType = "load_decrease"
	DecisionVolumeReduced   DecisionType = "volume_reduced"
	DecisionVolumeAdded     DecisionType = "volume_added"
	DecisionRestSuggestion  DecisionType = "rest_suggestion"
	DecisionExerciseSkipped DecisionType = "exercise_skipped"
	DecisionExerciseAdded   DecisionType = "exercise_added"
)

// AgentDecision is an append-only audit entry recording why the engine
// changed a future set. Athlete-requested changes carry Requested=true.
type AgentDecision struct {
	ID        uuid.UUID    `json:"id"`
	Type      DecisionType `json:"type"`
	Reasoning string       `json:"reasoning"`
	Requested bool         `json:"requested"`
	Timestamp time.Time    `json:"timestamp"`
}

// PatternType tags a detected training-history pattern.
type PatternType string

const (
	PatternSplit        PatternType = "split"
	PatternPairing      PatternType = "pairing"
	PatternPreferredDay PatternType = "preferred_day"
)

// DetectedPattern is one behavioral pattern found in training history.
// Payload is type-specific (split label, exercise pair, weekday list).
type DetectedPattern struct {
	Type        PatternType    `json:"type"`
	Confidence  float64        `json:"confidence"`
	Description string         `json:"description"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// Phase labels a position in the macro training cycle.
type Phase string

const (
	PhaseRebuilding   Phase = "rebuilding"
	PhaseAccumulating Phase = "accumulating"
	PhaseIntensifying Phase = "intensifying"
	PhaseDeloading    Phase = "deloading"
	PhaseMaintaining  Phase = "maintaining"
)

// Confidence is a coarse low/medium/high grade.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// PhaseDetection is the phase detector's judgment: where the athlete sits in
// the macro cycle, how sure we are, and a user-displayable reason.
type PhaseDetection struct {
	Phase         Phase      `json:"phase"`
	Confidence    Confidence `json:"confidence"`
	Reasoning     string     `json:"reasoning"`
	DurationWeeks int        `json:"duration_weeks"`
}

// DisruptionSeverity grades how much a disruption affects training capacity.
type DisruptionSeverity string

const (
	SeverityMinor    DisruptionSeverity = "minor"
	SeverityModerate DisruptionSeverity = "moderate"
	SeverityMajor    DisruptionSeverity = "major"
)

// Disruption records an injury, illness, or life event with an active range.
type Disruption struct {
	ID       uuid.UUID          `json:"id"`
	Kind     string             `json:"kind"`
	Severity DisruptionSeverity `json:"severity"`
	Start    time.Time          `json:"start"`
	End      *time.Time         `json:"end,omitempty"`
}

// Active reports whether the disruption is ongoing at t.
func (d Disruption) Active(t time.Time) bool {
	if t.Before(d.Start) {
		return false
	}
	return d.End == nil || t.Before(*d.End)
}

// CompletedSet is one performed set inside a finished session.
type CompletedSet struct {
	ExerciseID   uuid.UUID `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name"`
	MuscleGroup  string    `json:"muscle_group"`
	Weight       *float64  `json:"weight,omitempty"`
	Reps         *int      `json:"reps,omitempty"`
	RPE          *float64  `json:"rpe,omitempty"`
	IsWarmup     bool      `json:"is_warmup"`
}

// CompletedSession is a finished workout as stored in history.
type CompletedSession struct {
	ID          uuid.UUID      `json:"id"`
	Date        time.Time      `json:"date"`
	DurationMin *int           `json:"duration_min,omitempty"`
	Focus       string         `json:"focus,omitempty"`
	Sets        []CompletedSet `json:"sets"`
}

// SetLogRecord is the normalized payload handed to the persistence callback
// after every logged set. The receiver owns ordering and idempotency,
// keyed by SetID.
type SetLogRecord struct {
	SessionID    uuid.UUID `json:"session_id"`
	ExerciseID   uuid.UUID `json:"exercise_id"`
	SetID        uuid.UUID `json:"set_id"`
	SetOrder     int       `json:"set_order"`
	TargetReps   int       `json:"target_reps"`
	TargetRPE    *float64  `json:"target_rpe,omitempty"`
	TargetLoad   *float64  `json:"target_load,omitempty"`
	ActualWeight *float64  `json:"actual_weight,omitempty"`
	ActualReps   *int      `json:"actual_reps,omitempty"`
	ActualRPE    *float64  `json:"actual_rpe,omitempty"`
}
