package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/meltforce/repcoach/internal/coach/intent"
	"github.com/meltforce/repcoach/internal/coach/session"
	"github.com/meltforce/repcoach/internal/journal"
	"github.com/meltforce/repcoach/internal/models"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// plan is the YAML session template the CLI runs from.
type plan struct {
	Exercises []struct {
		Name        string   `yaml:"name"`
		MuscleGroup string   `yaml:"muscle_group"`
		Sets        int      `yaml:"sets"`
		Reps        int      `yaml:"reps"`
		Weight      *float64 `yaml:"weight"`
		RPE         *float64 `yaml:"rpe"`
	} `yaml:"exercises"`
	Readiness *struct {
		Sleep    int `yaml:"sleep"`
		Soreness int `yaml:"soreness"`
		Stress   int `yaml:"stress"`
		Score    int `yaml:"score"`
	} `yaml:"readiness"`
}

func main() {
	planPath := flag.String("plan", "", "path to YAML session plan")
	journalDir := flag.String("journal", "", "journal directory (default ~/.repcoach)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("repcoach-cli", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if *planPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: repcoach-cli -plan <plan.yaml> [-journal DIR]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	p, err := loadPlan(*planPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	dir := *journalDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot resolve home directory: %v\n", err)
			os.Exit(1)
		}
		dir = filepath.Join(home, ".repcoach")
	}

	j, err := journal.Open(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer j.Close()

	queue := buildQueue(p)
	eng, msg := session.New(queue, readinessFrom(p), session.Options{
		Log: log,
		Persist: func(rec models.SetLogRecord) {
			if err := j.RecordSet(rec); err != nil {
				log.Error("recording set", "set_id", rec.SetID, "error", err)
			}
		},
	})

	fmt.Printf("Session %s started.\n", eng.ID())
	if msg != "" {
		fmt.Println(msg)
	}
	printCursor(eng)

	run(eng, j)
}

func loadPlan(path string) (*plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	var p plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	if len(p.Exercises) == 0 {
		return nil, fmt.Errorf("plan has no exercises")
	}
	for _, ex := range p.Exercises {
		if ex.Name == "" || ex.Sets < 1 || ex.Reps < 1 {
			return nil, fmt.Errorf("exercise %q needs a name and positive sets/reps", ex.Name)
		}
	}
	return &p, nil
}

func buildQueue(p *plan) []models.SessionExercise {
	queue := make([]models.SessionExercise, 0, len(p.Exercises))
	for _, pe := range p.Exercises {
		exID := uuid.New()
		ex := models.SessionExercise{
			Exercise: models.Exercise{
				ID:          exID,
				Name:        pe.Name,
				Modality:    models.ModalityStrength,
				MuscleGroup: pe.MuscleGroup,
			},
		}
		for i := 0; i < pe.Sets; i++ {
			ex.Sets = append(ex.Sets, models.Set{
				ID:         uuid.New(),
				ExerciseID: exID,
				Order:      i + 1,
				TargetReps: pe.Reps,
				TargetRPE:  pe.RPE,
				TargetLoad: pe.Weight,
				Status:     models.SetPending,
			})
		}
		queue = append(queue, ex)
	}
	return queue
}

func readinessFrom(p *plan) *models.ReadinessSnapshot {
	if p.Readiness == nil {
		return nil
	}
	return &models.ReadinessSnapshot{
		Sleep:    p.Readiness.Sleep,
		Soreness: p.Readiness.Soreness,
		Stress:   p.Readiness.Stress,
		Score:    p.Readiness.Score,
	}
}

// run is the interactive loop: each line is parsed as an intent and applied
// to the session. Logging "done" or an empty workout message logs the active
// set at its targets.
func run(eng *session.Engine, j *journal.Journal) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		if eng.Complete() {
			break
		}
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		if line == "done" {
			logAsPlanned(eng)
			printCursor(eng)
			continue
		}

		apply(eng, intent.Parse(line))
		printCursor(eng)
	}

	flushDecisions(eng, j)
	printSummary(eng)
}

func apply(eng *session.Engine, it intent.Intent) {
	switch p := it.Payload.(type) {
	case intent.WorkoutLog:
		ex, okEx := eng.CurrentExercise()
		set, okSet := eng.CurrentSet()
		if !okEx || !okSet {
			fmt.Println("No set is waiting to be logged.")
			return
		}
		res := session.SetResult{Weight: p.Weight, RPE: p.RPE}
		if p.Reps > 0 {
			reps := p.Reps
			res.Reps = &reps
		}
		outcome, ok := eng.LogSet(ex.Exercise.ID, set.ID, res)
		if !ok {
			fmt.Println("That set can't be logged right now.")
			return
		}
		printOutcome(outcome)
	case intent.Modification, intent.SkipExercise, intent.AddExercise:
		outcome, _ := eng.RequestModification(it)
		if outcome.Message != "" {
			fmt.Println(outcome.Message)
		}
	case intent.CardioLog:
		fmt.Printf("Cardio noted: %s. This session tracks strength work only.\n", p.Activity)
	case intent.Chat:
		switch p.Sentiment {
		case "positive":
			fmt.Println("Good to hear. Keep it moving.")
		case "negative":
			fmt.Println("Noted. Tell me if something hurts or feels too heavy.")
		default:
			fmt.Println("Log a set like \"1x8 at 100lbs rpe 7\", or say what you need.")
		}
	}
}

// logAsPlanned records the active set at exactly its prescribed targets.
func logAsPlanned(eng *session.Engine) {
	ex, okEx := eng.CurrentExercise()
	set, okSet := eng.CurrentSet()
	if !okEx || !okSet {
		fmt.Println("No set is waiting to be logged.")
		return
	}
	reps := set.TargetReps
	res := session.SetResult{Reps: &reps, Weight: set.TargetLoad, RPE: set.TargetRPE}
	outcome, ok := eng.LogSet(ex.Exercise.ID, set.ID, res)
	if !ok {
		fmt.Println("That set can't be logged right now.")
		return
	}
	printOutcome(outcome)
}

func printOutcome(o session.LogOutcome) {
	if o.NewPR {
		fmt.Println("New estimated PR!")
	}
	if o.Message != "" {
		fmt.Println(o.Message)
	}
}

func printCursor(eng *session.Engine) {
	if eng.Complete() {
		return
	}
	ex, okEx := eng.CurrentExercise()
	set, okSet := eng.CurrentSet()
	if !okEx || !okSet {
		return
	}
	line := fmt.Sprintf("%s — set %d: %d reps", ex.Exercise.Name, set.Order, set.TargetReps)
	if set.TargetLoad != nil {
		line += fmt.Sprintf(" @ %.1f", *set.TargetLoad)
	}
	if set.TargetRPE != nil {
		line += fmt.Sprintf(" (RPE %.1f)", *set.TargetRPE)
	}
	fmt.Println(line)
}

func flushDecisions(eng *session.Engine, j *journal.Journal) {
	for _, d := range eng.Decisions() {
		if err := j.RecordDecision(eng.ID(), d); err != nil {
			fmt.Fprintf(os.Stderr, "warning: recording decision: %v\n", err)
		}
	}
}

func printSummary(eng *session.Engine) {
	prog := eng.Progress()
	fmt.Println()
	fmt.Println("=== Session Summary ===")
	fmt.Printf("  Sets completed:  %d/%d (%.0f%%)\n", prog.Completed, prog.Total, prog.Percentage)
	if added := eng.ExercisesAdded(); added > 0 {
		fmt.Printf("  Exercises added: %d\n", added)
	}
	if decisions := eng.Decisions(); len(decisions) > 0 {
		fmt.Println("  Coaching decisions:")
		for _, d := range decisions {
			fmt.Printf("    - [%s] %s\n", d.Type, d.Reasoning)
		}
	}
	fmt.Println()
}
