// Package intent converts free-form athlete text into structured intents.
//
// Parsing is a fixed, ordered battery of pattern families tried in priority
// order: workout log, cardio log, skip, add-exercise, session modification,
// then a chat fallback. The first family that yields a usable match wins.
// Parse is pure and total: it never fails, and unmatched input degrades to
// a CHAT intent with a sentiment tag.
package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// Type tags the closed set of intents the parser can produce.
type Type string

const (
	TypeLogWorkout    Type = "LOG_WORKOUT"
	TypeLogCardio     Type = "LOG_CARDIO"
	TypeModifySession Type = "MODIFY_SESSION"
	TypeAddExercise   Type = "ADD_EXERCISE"
	TypeSkipExercise  Type = "SKIP_EXERCISE"
	TypeChat          Type = "CHAT"
)

// Intent is the parser's output: a type tag, a type-specific payload,
// a relative confidence in [0,1], and the original text.
type Intent struct {
	Type       Type    `json:"type"`
	Confidence float64 `json:"confidence"`
	RawText    string  `json:"raw_text"`
	Payload    Payload `json:"payload,omitempty"`
}

// Payload is the closed sum of per-intent payloads.
type Payload interface{ isPayload() }

// WorkoutLog carries a parsed strength set report.
type WorkoutLog struct {
	Exercise string   `json:"exercise"`
	Sets     int      `json:"sets"`
	Reps     int      `json:"reps"`
	Weight   *float64 `json:"weight,omitempty"`
	RPE      *float64 `json:"rpe,omitempty"`
}

// CardioLog carries a parsed cardio activity report.
type CardioLog struct {
	Activity    string   `json:"activity"`
	DistanceKm  *float64 `json:"distance_km,omitempty"`
	DurationMin *int     `json:"duration_min,omitempty"`
}

// ModKind names the session-modification families the engine acts on.
type ModKind string

const (
	ModPain         ModKind = "pain"
	ModTooHard      ModKind = "too_hard"
	ModTooEasy      ModKind = "too_easy"
	ModFatigue      ModKind = "fatigue"
	ModTimePressure ModKind = "time_pressure"
	ModAddSet       ModKind = "add_set"
)

// Modification carries a session-modification request. For pain intents,
// BodyPart and Constraint are filled from a fixed mapping so the payload is
// machine-actionable, not just text.
type Modification struct {
	Kind       ModKind `json:"kind"`
	BodyPart   string  `json:"body_part,omitempty"`
	Constraint string  `json:"constraint,omitempty"`
}

// AddExercise asks for an exercise to be appended to the session.
type AddExercise struct {
	Exercise string `json:"exercise"`
}

// SkipExercise asks for the named (or current) exercise to be skipped.
type SkipExercise struct {
	Exercise string `json:"exercise,omitempty"`
}

// Chat is the total fallback; Sentiment is "positive", "negative",
// or "neutral" from a small lexicon.
type Chat struct {
	Sentiment string `json:"sentiment"`
}

func (WorkoutLog) isPayload()   {}
func (CardioLog) isPayload()    {}
func (Modification) isPayload() {}
func (AddExercise) isPayload()  {}
func (SkipExercise) isPayload() {}
func (Chat) isPayload()         {}

var (
	// setsRepsRe matches: 3x10, 5 x 5, 4×8
	setsRepsRe = regexp.MustCompile(`(\d+)\s*[x×]\s*(\d+)`)

	// weightRe matches: 30lbs, 102.5 kg, 225 pounds
	weightRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(lbs?|pounds?|kgs?|kilos?|kg)\b`)

	// rpeRe matches: rpe 8, RPE8.5, @9
	rpeRe = regexp.MustCompile(`(?:rpe\s*|@\s*)(\d+(?:\.\d+)?)`)

	// distanceRe matches: 5k, 3.1 miles, 10 km
	distanceRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(km|k\b|mi\b|miles?)`)

	// durationRe matches: 30 min, 45 minutes, 1 hour
	durationRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(min(?:ute)?s?|hours?|hrs?|h\b)`)

	// painRe matches: "my knee hurts", "shoulder pain", "pain in my lower back"
	painRe = regexp.MustCompile(`(?:my\s+)?(lower back|knee|shoulder|back|elbow|wrist|hip|ankle|neck)\s*(?:hurts?|aches?|pain|is\s+(?:sore|hurting|killing me))|pain\s+in\s+(?:my\s+)?(lower back|knee|shoulder|back|elbow|wrist|hip|ankle|neck)`)

	// skipRe matches: "skip bench", "skip this one", "let's skip it"
	skipRe = regexp.MustCompile(`\bskip(?:ping)?\b(?:\s+(?:the\s+|this\s+)?([a-z][a-z\s-]*?))?(?:\s+today)?$`)

	// addExerciseRe matches: "add lunges", "throw in some curls", "can we add face pulls"
	addExerciseRe = regexp.MustCompile(`(?:\badd\b|\bthrow in\b|\balso do\b)\s+(?:some\s+|a\s+few\s+)?([a-z][a-z\s-]+?)(?:\s+(?:at the end|after|next|please))?$`)

	// addSetRe matches: "one more set", "another set", "add a set"
	addSetRe = regexp.MustCompile(`(?:one more|another|add a|extra)\s+set`)
)

// matchers is the ordered dispatch table. Families are tried top to bottom;
// the first non-nil intent wins. Order is policy: a message that both logs a
// set and complains about it is a log.
var matchers = []func(string, string) *Intent{
	matchWorkoutLog,
	matchCardioLog,
	matchSkip,
	matchAddExercise,
	matchModification,
}

// Parse converts raw text into an Intent. It never fails; input that matches
// no family degrades to a CHAT intent (confidence 0 for empty input).
func Parse(text string) Intent {
	raw := strings.TrimSpace(text)
	lower := strings.ToLower(raw)

	for _, match := range matchers {
		if it := match(raw, lower); it != nil {
			return *it
		}
	}
	return chatFallback(raw, lower)
}

func matchWorkoutLog(raw, lower string) *Intent {
	sr := setsRepsRe.FindStringSubmatch(lower)
	if sr == nil {
		return nil
	}
	sets, _ := strconv.Atoi(sr[1])
	reps, _ := strconv.Atoi(sr[2])

	p := WorkoutLog{Sets: sets, Reps: reps}
	conf := 0.5

	// Exercise name: whatever the lexicon recognizes anywhere in the text,
	// else the leftover words title-cased.
	if name, ok := findExercise(lower); ok {
		p.Exercise = name
		conf += 0.2
	} else {
		p.Exercise = titleCaseLeftover(lower)
	}

	if w := weightRe.FindStringSubmatch(lower); w != nil {
		weight, _ := strconv.ParseFloat(w[1], 64)
		p.Weight = &weight
		conf += 0.15
	}
	if r := rpeRe.FindStringSubmatch(lower); r != nil {
		rpe, _ := strconv.ParseFloat(r[1], 64)
		if rpe >= 1 && rpe <= 10 {
			p.RPE = &rpe
			conf += 0.1
		}
	}

	return &Intent{Type: TypeLogWorkout, Confidence: clamp(conf), RawText: raw, Payload: p}
}

func matchCardioLog(raw, lower string) *Intent {
	activity, ok := findActivity(lower)
	if !ok {
		return nil
	}

	p := CardioLog{Activity: activity}
	conf := 0.5

	if d := distanceRe.FindStringSubmatch(lower); d != nil {
		km, _ := strconv.ParseFloat(d[1], 64)
		if strings.HasPrefix(d[2], "mi") {
			km *= 1.609
		}
		p.DistanceKm = &km
		conf += 0.2
	}
	if d := durationRe.FindStringSubmatch(lower); d != nil {
		v, _ := strconv.ParseFloat(d[1], 64)
		if strings.HasPrefix(d[2], "h") {
			v *= 60
		}
		mins := int(v)
		p.DurationMin = &mins
		conf += 0.15
	}

	// A bare activity verb with no quantity is not a log.
	if p.DistanceKm == nil && p.DurationMin == nil {
		return nil
	}

	return &Intent{Type: TypeLogCardio, Confidence: clamp(conf), RawText: raw, Payload: p}
}

func matchSkip(raw, lower string) *Intent {
	m := skipRe.FindStringSubmatch(lower)
	if m == nil {
		return nil
	}
	p := SkipExercise{}
	conf := 0.8
	if target := strings.TrimSpace(m[1]); target != "" && target != "it" && target != "this" && target != "one" && target != "that" {
		p.Exercise = normalizeExercise(target)
		conf = 0.85
	}
	return &Intent{Type: TypeSkipExercise, Confidence: conf, RawText: raw, Payload: p}
}

func matchAddExercise(raw, lower string) *Intent {
	// "add a set" belongs to the modification family, not add-exercise.
	if addSetRe.MatchString(lower) {
		return nil
	}
	m := addExerciseRe.FindStringSubmatch(lower)
	if m == nil {
		return nil
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return nil
	}
	return &Intent{
		Type:       TypeAddExercise,
		Confidence: 0.7,
		RawText:    raw,
		Payload:    AddExercise{Exercise: normalizeExercise(name)},
	}
}

func matchModification(raw, lower string) *Intent {
	if m := painRe.FindStringSubmatch(lower); m != nil {
		part := m[1]
		if part == "" {
			part = m[2]
		}
		return &Intent{
			Type:       TypeModifySession,
			Confidence: 0.9,
			RawText:    raw,
			Payload: Modification{
				Kind:       ModPain,
				BodyPart:   part,
				Constraint: painConstraints[part],
			},
		}
	}
	if addSetRe.MatchString(lower) {
		return &Intent{Type: TypeModifySession, Confidence: 0.8, RawText: raw,
			Payload: Modification{Kind: ModAddSet}}
	}
	if containsAny(lower, tooEasyPhrases) {
		return &Intent{Type: TypeModifySession, Confidence: 0.8, RawText: raw,
			Payload: Modification{Kind: ModTooEasy}}
	}
	if containsAny(lower, tooHardPhrases) {
		return &Intent{Type: TypeModifySession, Confidence: 0.8, RawText: raw,
			Payload: Modification{Kind: ModTooHard}}
	}
	if containsAny(lower, timePressurePhrases) {
		return &Intent{Type: TypeModifySession, Confidence: 0.75, RawText: raw,
			Payload: Modification{Kind: ModTimePressure}}
	}
	if containsAny(lower, fatiguePhrases) {
		return &Intent{Type: TypeModifySession, Confidence: 0.75, RawText: raw,
			Payload: Modification{Kind: ModFatigue}}
	}
	return nil
}

func chatFallback(raw, lower string) Intent {
	conf := 0.3
	if raw == "" {
		conf = 0
	}
	return Intent{
		Type:       TypeChat,
		Confidence: conf,
		RawText:    raw,
		Payload:    Chat{Sentiment: sentimentOf(lower)},
	}
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if containsWord(s, p) {
			return true
		}
	}
	return false
}

func clamp(f float64) float64 {
	if f > 1 {
		return 1
	}
	return f
}

// titleCaseLeftover strips numbers, units, and filler words from a workout
// log line and title-cases what remains as a best-effort exercise name.
func titleCaseLeftover(lower string) string {
	s := setsRepsRe.ReplaceAllString(lower, " ")
	s = weightRe.ReplaceAllString(s, " ")
	s = rpeRe.ReplaceAllString(s, " ")
	var words []string
	for _, w := range strings.Fields(s) {
		switch w {
		case "at", "with", "for", "of", "did", "i", "the", "a", "on", "today", "then":
			continue
		}
		words = append(words, w)
	}
	if len(words) == 0 {
		return "Unknown Exercise"
	}
	return titleCase(strings.Join(words, " "))
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
