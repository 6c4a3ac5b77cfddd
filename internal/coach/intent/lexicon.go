package intent

import "strings"

// exerciseSynonyms maps common shorthand to canonical catalog names.
// Lookup keys are lowercase; longest key wins when several match.
var exerciseSynonyms = map[string]string{
	"curls":            "Bicep Curl",
	"curl":             "Bicep Curl",
	"bicep curls":      "Bicep Curl",
	"hammer curls":     "Hammer Curl",
	"bench":            "Bench Press",
	"bench press":      "Bench Press",
	"incline bench":    "Incline Bench Press",
	"squats":           "Squat",
	"squat":            "Squat",
	"front squats":     "Front Squat",
	"hack squats":      "Hack Squat",
	"deadlifts":        "Deadlift",
	"deadlift":         "Deadlift",
	"rdl":              "Romanian Deadlift",
	"rdls":             "Romanian Deadlift",
	"ohp":              "Overhead Press",
	"overhead press":   "Overhead Press",
	"shoulder press":   "Overhead Press",
	"military press":   "Overhead Press",
	"rows":             "Barbell Row",
	"barbell rows":     "Barbell Row",
	"cable rows":       "Cable Row",
	"pullups":          "Pull-Up",
	"pull ups":         "Pull-Up",
	"pull-ups":         "Pull-Up",
	"chins":            "Chin-Up",
	"chin ups":         "Chin-Up",
	"dips":             "Dip",
	"lunges":           "Lunge",
	"lat pulldown":     "Lat Pulldown",
	"pulldowns":        "Lat Pulldown",
	"leg press":        "Leg Press",
	"leg curls":        "Leg Curl",
	"leg extensions":   "Leg Extension",
	"calf raises":      "Calf Raise",
	"face pulls":       "Face Pull",
	"lateral raises":   "Lateral Raise",
	"skullcrushers":    "Skullcrusher",
	"tricep pushdowns": "Tricep Pushdown",
	"hip thrusts":      "Hip Thrust",
	"good mornings":    "Good Morning",
	"shrugs":           "Shrug",
	"planks":           "Plank",
	"crunches":         "Crunch",
}

// activitySynonyms maps cardio verbs and nouns to canonical activity names.
var activitySynonyms = map[string]string{
	"ran":        "Running",
	"run":        "Running",
	"running":    "Running",
	"jog":        "Running",
	"jogged":     "Running",
	"jogging":    "Running",
	"cycled":     "Cycling",
	"cycling":    "Cycling",
	"biked":      "Cycling",
	"biking":     "Cycling",
	"bike":       "Cycling",
	"swam":       "Swimming",
	"swim":       "Swimming",
	"swimming":   "Swimming",
	"rowed":      "Rowing",
	"rowing":     "Rowing",
	"walked":     "Walking",
	"walking":    "Walking",
	"walk":       "Walking",
	"hiked":      "Hiking",
	"hiking":     "Hiking",
	"hike":       "Hiking",
	"elliptical": "Elliptical",
}

// painConstraints maps a reported body part to the movement constraint the
// engine can act on when filtering or substituting exercises.
var painConstraints = map[string]string{
	"knee":       "no_knee_flexion",
	"shoulder":   "no_overhead",
	"back":       "no_spinal_loading",
	"lower back": "no_spinal_loading",
	"elbow":      "no_elbow_load",
	"wrist":      "no_wrist_load",
	"hip":        "no_hip_hinge",
	"ankle":      "no_ankle_load",
	"neck":       "no_neck_load",
}

var positiveWords = []string{
	"great", "good", "awesome", "amazing", "strong", "pumped", "crushed",
	"solid", "love", "best", "excited",
}

var negativeWords = []string{
	"bad", "awful", "terrible", "weak", "rough", "meh", "hate", "worst",
	"frustrated", "annoyed",
}

// findExercise scans text for the longest synonym-table key present on word
// boundaries and returns its canonical name.
func findExercise(lower string) (string, bool) {
	best := ""
	for key := range exerciseSynonyms {
		if len(key) > len(best) && containsWord(lower, key) {
			best = key
		}
	}
	if best == "" {
		return "", false
	}
	return exerciseSynonyms[best], true
}

// containsWord reports whether key occurs in s delimited by non-letters,
// so "rows" does not match inside "flows".
func containsWord(s, key string) bool {
	for from := 0; ; {
		i := strings.Index(s[from:], key)
		if i < 0 {
			return false
		}
		i += from
		leftOK := i == 0 || !isLetter(s[i-1])
		right := i + len(key)
		rightOK := right == len(s) || !isLetter(s[right])
		if leftOK && rightOK {
			return true
		}
		from = i + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// findActivity scans text word-by-word for a cardio activity.
func findActivity(lower string) (string, bool) {
	for _, w := range strings.Fields(lower) {
		if name, ok := activitySynonyms[strings.Trim(w, ".,!?")]; ok {
			return name, true
		}
	}
	return "", false
}

// normalizeExercise maps a free-text name through the synonym table,
// title-casing it unchanged when unmapped.
func normalizeExercise(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	if canonical, ok := exerciseSynonyms[name]; ok {
		return canonical
	}
	return titleCase(name)
}

// sentimentOf tags text with a coarse sentiment from the word lexicons.
func sentimentOf(lower string) string {
	pos, neg := 0, 0
	for _, w := range strings.Fields(lower) {
		w = strings.Trim(w, ".,!?")
		for _, p := range positiveWords {
			if w == p {
				pos++
			}
		}
		for _, n := range negativeWords {
			if w == n {
				neg++
			}
		}
	}
	switch {
	case pos > neg:
		return "positive"
	case neg > pos:
		return "negative"
	default:
		return "neutral"
	}
}

// modification phrase lists, matched on word boundaries so a phrase never
// fires inside a longer word ("running late" vs "running later").
var (
	tooEasyPhrases = []string{
		"too easy", "too light", "felt light", "not challenging",
		"barely felt", "way easy", "could do more",
	}
	tooHardPhrases = []string{
		"too heavy", "too hard", "too much", "can't do this weight",
		"struggling", "way too", "brutal", "can't finish",
	}
	timePressurePhrases = []string{
		"short on time", "only have", "in a hurry", "gotta leave",
		"running late", "need to leave", "pressed for time",
	}
	fatiguePhrases = []string{
		"tired", "exhausted", "wiped", "drained", "worn out",
		"dead today", "gassed", "no energy", "fatigued",
	}
)
