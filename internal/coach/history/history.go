// Package history computes aggregate statistics and behavioral patterns
// from a window of completed training sessions.
//
// Analyze is a pure function: no side effects, deterministic on identical
// input, safe to call concurrently. Missing or thin data degrades to zero
// values and low confidence, never an error.
package history

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/meltforce/repcoach/internal/models"
)

// Gap is a stretch of more than seven days between consecutive completed
// sessions. DisruptionLinked is set when a recorded disruption overlaps it.
type Gap struct {
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	Days             int       `json:"days"`
	DisruptionLinked bool      `json:"disruption_linked"`
}

// Analysis is the analyzer's full output for one window.
type Analysis struct {
	WindowWeeks     int     `json:"window_weeks"`
	SessionCount    int     `json:"session_count"`
	SessionsPerWeek float64 `json:"sessions_per_week"`

	TotalVolume         float64            `json:"total_volume"`
	VolumeByMuscleGroup map[string]float64 `json:"volume_by_muscle_group,omitempty"`
	AvgDurationMin      float64            `json:"avg_duration_min"`

	TopTrainingDays []string `json:"top_training_days,omitempty"`
	SplitLabel      string   `json:"split_label"`

	Progressing      []string `json:"progressing,omitempty"`
	Stagnant         []string `json:"stagnant,omitempty"`
	Regressing       []string `json:"regressing,omitempty"`
	TrackedExercises int      `json:"tracked_exercises"`

	Gaps     []Gap                    `json:"gaps,omitempty"`
	Patterns []models.DetectedPattern `json:"patterns,omitempty"`

	DataQuality models.Confidence `json:"data_quality"`
}

// Analyze filters sessions to the trailing window ending at now and computes
// volume, frequency, split, progression buckets, gaps, and patterns.
func Analyze(sessions []models.CompletedSession, memory []models.MovementMemory, disruptions []models.Disruption, windowWeeks int, now time.Time) Analysis {
	if windowWeeks <= 0 {
		windowWeeks = 8
	}
	cutoff := now.AddDate(0, 0, -7*windowWeeks)

	var window []models.CompletedSession
	for _, s := range sessions {
		if !s.Date.Before(cutoff) && !s.Date.After(now) {
			window = append(window, s)
		}
	}
	sort.Slice(window, func(i, j int) bool { return window[i].Date.Before(window[j].Date) })

	a := Analysis{
		WindowWeeks:  windowWeeks,
		SessionCount: len(window),
		SplitLabel:   "general training",
		DataQuality:  models.ConfidenceLow,
	}
	a.SessionsPerWeek = float64(len(window)) / float64(windowWeeks)

	a.TotalVolume, a.VolumeByMuscleGroup = volume(window)
	a.AvgDurationMin = avgDuration(window)
	a.TopTrainingDays = topDays(window)
	a.SplitLabel = detectSplit(window)
	a.Progressing, a.Stagnant, a.Regressing = progressionBuckets(memory)
	a.TrackedExercises = len(a.Progressing) + len(a.Stagnant) + len(a.Regressing)
	a.Gaps = detectGaps(window, disruptions)
	a.Patterns = detectPatterns(window, a.SplitLabel, a.TopTrainingDays)
	a.DataQuality = dataQuality(window, memory)

	return a
}

// volume sums weight×reps over non-warm-up sets where both values are
// present, overall and per muscle group.
func volume(sessions []models.CompletedSession) (float64, map[string]float64) {
	total := 0.0
	byGroup := map[string]float64{}
	for _, s := range sessions {
		for _, set := range s.Sets {
			if set.IsWarmup || set.Weight == nil || set.Reps == nil {
				continue
			}
			v := *set.Weight * float64(*set.Reps)
			total += v
			if set.MuscleGroup != "" {
				byGroup[set.MuscleGroup] += v
			}
		}
	}
	if len(byGroup) == 0 {
		byGroup = nil
	}
	return total, byGroup
}

func avgDuration(sessions []models.CompletedSession) float64 {
	sum, n := 0, 0
	for _, s := range sessions {
		if s.DurationMin != nil {
			sum += *s.DurationMin
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// topDays returns the weekdays trained most often, best first, ties broken
// by weekday order for determinism. At most three days are returned.
func topDays(sessions []models.CompletedSession) []string {
	counts := map[time.Weekday]int{}
	for _, s := range sessions {
		counts[s.Date.Weekday()]++
	}
	type dc struct {
		day   time.Weekday
		count int
	}
	var all []dc
	for d, c := range counts {
		all = append(all, dc{d, c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].day < all[j].day
	})
	var days []string
	for i, d := range all {
		if i == 3 {
			break
		}
		days = append(days, d.day.String())
	}
	return days
}

// splitKeywords maps focus-label substrings to split signals.
var bodyPartFocuses = []string{"chest", "back", "shoulders", "arms", "legs"}

// detectSplit classifies the training split from session focus labels,
// checked in priority order: push/pull/legs, upper/lower, body-part,
// full-body, then a generic fallback built from the top focus labels.
func detectSplit(sessions []models.CompletedSession) string {
	if len(sessions) == 0 {
		return "general training"
	}

	focusCounts := map[string]int{}
	has := func(kw string) bool {
		for _, s := range sessions {
			if containsFold(s.Focus, kw) {
				return true
			}
		}
		return false
	}
	for _, s := range sessions {
		if s.Focus != "" {
			focusCounts[s.Focus]++
		}
	}

	if has("push") && has("pull") && has("leg") {
		return "push/pull/legs"
	}
	if has("upper") && has("lower") {
		return "upper/lower"
	}
	matched := 0
	for _, part := range bodyPartFocuses {
		if has(part) {
			matched++
		}
	}
	if matched >= 3 {
		return "body-part split"
	}
	if has("full body") || has("full-body") {
		return "full body"
	}

	// Fallback: name the dominant focus labels.
	type fc struct {
		focus string
		count int
	}
	var all []fc
	for f, c := range focusCounts {
		all = append(all, fc{f, c})
	}
	if len(all) == 0 {
		return "general training"
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].focus < all[j].focus
	})
	if len(all) == 1 {
		return all[0].focus + " focus"
	}
	return all[0].focus + "/" + all[1].focus + " focus"
}

// progressionBuckets sorts tracked exercises into trend buckets. Exercises
// seen fewer than twice are excluded: one data point is not a trend.
func progressionBuckets(memory []models.MovementMemory) (progressing, stagnant, regressing []string) {
	sorted := make([]models.MovementMemory, len(memory))
	copy(sorted, memory)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ExerciseName < sorted[j].ExerciseName })

	for _, m := range sorted {
		if m.TimesSeen < 2 {
			continue
		}
		switch m.Trend {
		case models.TrendProgressing:
			progressing = append(progressing, m.ExerciseName)
		case models.TrendRegressing:
			regressing = append(regressing, m.ExerciseName)
		default:
			stagnant = append(stagnant, m.ExerciseName)
		}
	}
	return progressing, stagnant, regressing
}

// detectGaps finds consecutive completed sessions more than seven days
// apart. Sessions must already be sorted ascending by date.
func detectGaps(sessions []models.CompletedSession, disruptions []models.Disruption) []Gap {
	var gaps []Gap
	for i := 1; i < len(sessions); i++ {
		days := int(sessions[i].Date.Sub(sessions[i-1].Date).Hours() / 24)
		if days <= 7 {
			continue
		}
		g := Gap{Start: sessions[i-1].Date, End: sessions[i].Date, Days: days}
		for _, d := range disruptions {
			if d.Start.Before(g.End) && (d.End == nil || d.End.After(g.Start)) {
				g.DisruptionLinked = true
				break
			}
		}
		gaps = append(gaps, g)
	}
	return gaps
}

// dataQuality grades the analysis inputs on a weighted score: session count,
// memory-record count, RPE-logging completeness, and the share of
// high-confidence memory records.
func dataQuality(sessions []models.CompletedSession, memory []models.MovementMemory) models.Confidence {
	sessionScore := math.Min(float64(len(sessions))/12, 1)
	memoryScore := math.Min(float64(len(memory))/10, 1)

	logged, withRPE := 0, 0
	for _, s := range sessions {
		for _, set := range s.Sets {
			if set.IsWarmup {
				continue
			}
			logged++
			if set.RPE != nil {
				withRPE++
			}
		}
	}
	rpeScore := 0.0
	if logged > 0 {
		rpeScore = float64(withRPE) / float64(logged)
	}

	highConf := 0
	for _, m := range memory {
		if m.HighConfidence {
			highConf++
		}
	}
	confScore := 0.0
	if len(memory) > 0 {
		confScore = float64(highConf) / float64(len(memory))
	}

	score := 0.35*sessionScore + 0.25*memoryScore + 0.2*rpeScore + 0.2*confScore
	switch {
	case score >= 0.7:
		return models.ConfidenceHigh
	case score >= 0.4:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// EstimateOneRepMax returns the Epley e1RM for a weight×reps pair.
// A single rep is already a max; zero reps or weight estimates zero.
func EstimateOneRepMax(weight float64, reps int) float64 {
	if weight <= 0 || reps <= 0 {
		return 0
	}
	if reps == 1 {
		return weight
	}
	return weight * (1 + float64(reps)/30)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

// describeDays renders a weekday list for pattern descriptions.
func describeDays(days []string) string {
	switch len(days) {
	case 0:
		return "no regular days"
	case 1:
		return days[0]
	default:
		return fmt.Sprintf("%s and %s", days[0], days[1])
	}
}
