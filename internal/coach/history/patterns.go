package history

import (
	"fmt"
	"sort"

	"github.com/meltforce/repcoach/internal/models"
)

// Pairing thresholds: two exercises count as paired when they co-occur in at
// least this share of the sessions either appears in, with a floor on
// absolute shared sessions so two lucky overlaps don't look like a habit.
const (
	pairingMinShare    = 0.6
	pairingMinSessions = 3
)

// detectPatterns recomputes behavioral patterns from scratch: the split, the
// preferred training days, and habitually paired exercises.
func detectPatterns(sessions []models.CompletedSession, splitLabel string, topDays []string) []models.DetectedPattern {
	var patterns []models.DetectedPattern

	if splitLabel != "" && splitLabel != "general training" && len(sessions) >= 3 {
		patterns = append(patterns, models.DetectedPattern{
			Type:        models.PatternSplit,
			Confidence:  splitConfidence(len(sessions)),
			Description: fmt.Sprintf("Training follows a %s split", splitLabel),
			Payload:     map[string]any{"split": splitLabel},
		})
	}

	if len(topDays) > 0 && len(sessions) >= 4 {
		patterns = append(patterns, models.DetectedPattern{
			Type:        models.PatternPreferredDay,
			Confidence:  0.6,
			Description: fmt.Sprintf("Usually trains on %s", describeDays(topDays)),
			Payload:     map[string]any{"days": topDays},
		})
	}

	patterns = append(patterns, detectPairings(sessions)...)
	return patterns
}

func splitConfidence(sessionCount int) float64 {
	if sessionCount >= 8 {
		return 0.85
	}
	return 0.65
}

// detectPairings finds exercise pairs that co-occur in most of the sessions
// either appears in. Results are sorted by description for determinism.
func detectPairings(sessions []models.CompletedSession) []models.DetectedPattern {
	appearances := map[string]int{}
	together := map[[2]string]int{}

	for _, s := range sessions {
		seen := map[string]bool{}
		for _, set := range s.Sets {
			if set.ExerciseName != "" {
				seen[set.ExerciseName] = true
			}
		}
		var names []string
		for n := range seen {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			appearances[n]++
		}
		for i := 0; i < len(names); i++ {
			for j := i + 1; j < len(names); j++ {
				together[[2]string{names[i], names[j]}]++
			}
		}
	}

	var patterns []models.DetectedPattern
	for pair, shared := range together {
		if shared < pairingMinSessions {
			continue
		}
		union := appearances[pair[0]] + appearances[pair[1]] - shared
		share := float64(shared) / float64(union)
		if share < pairingMinShare {
			continue
		}
		patterns = append(patterns, models.DetectedPattern{
			Type:        models.PatternPairing,
			Confidence:  share,
			Description: fmt.Sprintf("%s and %s are usually trained together", pair[0], pair[1]),
			Payload:     map[string]any{"exercises": []string{pair[0], pair[1]}},
		})
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].Description < patterns[j].Description })
	return patterns
}
