// Package phase classifies where an athlete sits in the macro training
// cycle: rebuilding, accumulating, intensifying, deloading, or maintaining.
//
// Detection is an ordered decision list evaluated top to bottom; the first
// rule whose predicate holds decides the phase. The order is policy:
// disruptions outrank gaps, gaps outrank frequency, and trend signals only
// apply when nothing upstream fired. Detect is pure and total.
package phase

import (
	"fmt"
	"time"

	"github.com/meltforce/repcoach/internal/coach/history"
	"github.com/meltforce/repcoach/internal/models"
)

// Inputs gathers everything one detection run looks at.
type Inputs struct {
	Analysis     history.Analysis
	Disruptions  []models.Disruption
	CurrentPhase models.Phase
	WeeksInPhase int
	Now          time.Time
}

// rule is one row of the decision table: a predicate and the detection it
// produces when it fires first.
type rule struct {
	name string
	when func(Inputs) bool
	then func(Inputs) models.PhaseDetection
}

// rules is the decision table. Evaluation order is load-bearing and covered
// by tests; do not reorder without revisiting the policy.
var rules = []rule{
	{
		name: "active disruption",
		when: func(in Inputs) bool { return activeDisruption(in) != nil },
		then: func(in Inputs) models.PhaseDetection {
			d := activeDisruption(in)
			conf := models.ConfidenceMedium
			if d.Severity == models.SeverityMajor {
				conf = models.ConfidenceHigh
			}
			return models.PhaseDetection{
				Phase:      models.PhaseRebuilding,
				Confidence: conf,
				Reasoning: fmt.Sprintf("An active %s %s is limiting training capacity; rebuild gradually until it resolves.",
					d.Severity, d.Kind),
				DurationWeeks: disruptionWeeks(d.Severity),
			}
		},
	},
	{
		name: "recent long gap",
		when: func(in Inputs) bool { g := recentGap(in); return g != nil && g.Days >= 10 },
		then: func(in Inputs) models.PhaseDetection {
			g := recentGap(in)
			return models.PhaseDetection{
				Phase:      models.PhaseRebuilding,
				Confidence: models.ConfidenceHigh,
				Reasoning: fmt.Sprintf("Training resumed after a %d-day break; ease loads back up before pushing progression.",
					g.Days),
				DurationWeeks: 2,
			}
		},
	},
	{
		name: "recent short gap",
		when: func(in Inputs) bool { return recentGap(in) != nil },
		then: func(in Inputs) models.PhaseDetection {
			g := recentGap(in)
			return models.PhaseDetection{
				Phase:      models.PhaseRebuilding,
				Confidence: models.ConfidenceMedium,
				Reasoning: fmt.Sprintf("A %d-day break just ended; one light week will restore rhythm.",
					g.Days),
				DurationWeeks: 1,
			}
		},
	},
	{
		name: "sustained low frequency",
		when: func(in Inputs) bool {
			return in.Analysis.SessionCount >= 2 && in.Analysis.SessionsPerWeek < 2
		},
		then: func(in Inputs) models.PhaseDetection {
			return models.PhaseDetection{
				Phase:      models.PhaseRebuilding,
				Confidence: models.ConfidenceMedium,
				Reasoning: fmt.Sprintf("Averaging %.1f sessions per week; rebuilding consistency comes before loading.",
					in.Analysis.SessionsPerWeek),
				DurationWeeks: 2,
			}
		},
	},
	{
		name: "widespread regression",
		when: func(in Inputs) bool {
			n := len(in.Analysis.Regressing)
			if n >= 3 {
				return true
			}
			return in.Analysis.TrackedExercises > 0 &&
				float64(n)/float64(in.Analysis.TrackedExercises) > 0.3
		},
		then: func(in Inputs) models.PhaseDetection {
			return models.PhaseDetection{
				Phase:      models.PhaseDeloading,
				Confidence: models.ConfidenceMedium,
				Reasoning: fmt.Sprintf("%d exercises are regressing; a deload week should restore recovery.",
					len(in.Analysis.Regressing)),
				DurationWeeks: 1,
			}
		},
	},
	{
		name: "deload complete",
		when: func(in Inputs) bool {
			return in.CurrentPhase == models.PhaseDeloading && in.WeeksInPhase >= 1
		},
		then: func(in Inputs) models.PhaseDetection {
			return models.PhaseDetection{
				Phase:         models.PhaseAccumulating,
				Confidence:    models.ConfidenceHigh,
				Reasoning:     "Deload week is done; time to accumulate volume again.",
				DurationWeeks: 4,
			}
		},
	},
	{
		name: "intensification overdue",
		when: func(in Inputs) bool {
			return in.CurrentPhase == models.PhaseIntensifying && in.WeeksInPhase >= 4
		},
		then: func(in Inputs) models.PhaseDetection {
			return models.PhaseDetection{
				Phase:         models.PhaseDeloading,
				Confidence:    models.ConfidenceMedium,
				Reasoning:     fmt.Sprintf("%d weeks of intensification is enough; schedule a deload.", in.WeeksInPhase),
				DurationWeeks: 1,
			}
		},
	},
	{
		name: "net progression",
		when: func(in Inputs) bool {
			a := in.Analysis
			return len(a.Progressing) > len(a.Stagnant)+len(a.Regressing)
		},
		then: func(in Inputs) models.PhaseDetection {
			return models.PhaseDetection{
				Phase:      models.PhaseAccumulating,
				Confidence: models.ConfidenceMedium,
				Reasoning: fmt.Sprintf("%d of %d tracked exercises are progressing; keep accumulating volume.",
					len(in.Analysis.Progressing), in.Analysis.TrackedExercises),
				DurationWeeks: 4,
			}
		},
	},
	{
		name: "plateau",
		when: func(in Inputs) bool {
			return len(in.Analysis.Stagnant) > len(in.Analysis.Regressing)
		},
		then: func(in Inputs) models.PhaseDetection {
			return models.PhaseDetection{
				Phase:      models.PhaseMaintaining,
				Confidence: models.ConfidenceMedium,
				Reasoning: fmt.Sprintf("%d exercises have plateaued; hold current loads and consolidate.",
					len(in.Analysis.Stagnant)),
				DurationWeeks: 2,
			}
		},
	},
	{
		name: "default",
		when: func(Inputs) bool { return true },
		then: func(Inputs) models.PhaseDetection {
			return models.PhaseDetection{
				Phase:         models.PhaseAccumulating,
				Confidence:    models.ConfidenceLow,
				Reasoning:     "Not enough signal to classify the cycle; default to steady volume accumulation.",
				DurationWeeks: 4,
			}
		},
	},
}

// Detect classifies the current training phase from history analysis,
// disruption records, and the phase the athlete believes they are in.
func Detect(analysis history.Analysis, disruptions []models.Disruption, currentPhase models.Phase, weeksInPhase int, now time.Time) models.PhaseDetection {
	in := Inputs{
		Analysis:     analysis,
		Disruptions:  disruptions,
		CurrentPhase: currentPhase,
		WeeksInPhase: weeksInPhase,
		Now:          now,
	}
	for _, r := range rules {
		if r.when(in) {
			return r.then(in)
		}
	}
	// Unreachable: the last rule always fires.
	return models.PhaseDetection{}
}

func activeDisruption(in Inputs) *models.Disruption {
	for i := range in.Disruptions {
		if in.Disruptions[i].Active(in.Now) {
			return &in.Disruptions[i]
		}
	}
	return nil
}

// recentGap returns the most recent training gap that ended within the last
// 14 days, if any.
func recentGap(in Inputs) *history.Gap {
	cutoff := in.Now.AddDate(0, 0, -14)
	for i := len(in.Analysis.Gaps) - 1; i >= 0; i-- {
		if !in.Analysis.Gaps[i].End.Before(cutoff) {
			return &in.Analysis.Gaps[i]
		}
	}
	return nil
}

func disruptionWeeks(s models.DisruptionSeverity) int {
	switch s {
	case models.SeverityMajor:
		return 3
	case models.SeverityModerate:
		return 2
	default:
		return 1
	}
}
