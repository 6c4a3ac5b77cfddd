package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/repcoach/internal/coach/history"
	"github.com/meltforce/repcoach/internal/coach/intent"
	"github.com/meltforce/repcoach/internal/coach/phase"
	"github.com/meltforce/repcoach/internal/coach/session"
	"github.com/meltforce/repcoach/internal/models"
	"github.com/meltforce/repcoach/internal/storage"
)

type plannedExercise struct {
	ExerciseID  string   `json:"exercise_id,omitempty"`
	Name        string   `json:"name"`
	MuscleGroup string   `json:"muscle_group,omitempty"`
	Modality    string   `json:"modality,omitempty"`
	Sets        int      `json:"sets"`
	Reps        int      `json:"reps"`
	Weight      *float64 `json:"weight,omitempty"`
	RPE         *float64 `json:"rpe,omitempty"`
}

type startSessionRequest struct {
	Exercises []plannedExercise `json:"exercises"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if len(req.Exercises) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercises are required"})
		return
	}

	queue, err := buildQueue(req.Exercises)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	memory, err := s.db.MemoryByExercise(r.Context(), defaultUserID)
	if err != nil {
		s.log.Error("loading movement memory", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	readiness, err := s.db.GetReadiness(r.Context(), defaultUserID, time.Now())
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Error("loading readiness", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	eng, msg := session.New(queue, readiness, session.Options{
		Memory: memory,
		Log:    s.log,
		Persist: func(rec models.SetLogRecord) {
			if err := s.db.UpsertSetLog(context.Background(), defaultUserID, rec); err != nil {
				s.log.Error("persisting set log", "set_id", rec.SetID, "error", err)
			}
		},
	})
	s.setEngine(defaultUserID, eng)

	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": eng.ID(),
		"message":    msg,
		"queue":      eng.Queue(),
		"progress":   eng.Progress(),
	})
}

func buildQueue(planned []plannedExercise) ([]models.SessionExercise, error) {
	queue := make([]models.SessionExercise, 0, len(planned))
	for _, p := range planned {
		if p.Name == "" {
			return nil, errors.New("exercise name is required")
		}
		if p.Sets < 1 || p.Reps < 1 {
			return nil, errors.New("sets and reps must be positive")
		}

		exID := uuid.New()
		if p.ExerciseID != "" {
			parsed, err := uuid.Parse(p.ExerciseID)
			if err != nil {
				return nil, errors.New("invalid exercise_id: " + p.ExerciseID)
			}
			exID = parsed
		}
		modality := models.ModalityStrength
		if p.Modality != "" {
			modality = models.Modality(p.Modality)
		}

		ex := models.SessionExercise{
			Exercise: models.Exercise{
				ID:          exID,
				Name:        p.Name,
				Modality:    modality,
				MuscleGroup: p.MuscleGroup,
			},
		}
		for i := 0; i < p.Sets; i++ {
			ex.Sets = append(ex.Sets, models.Set{
				ID:         uuid.New(),
				ExerciseID: exID,
				Order:      i + 1,
				TargetReps: p.Reps,
				TargetRPE:  p.RPE,
				TargetLoad: p.Weight,
				Status:     models.SetPending,
			})
		}
		queue = append(queue, ex)
	}
	return queue, nil
}

func (s *Server) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(defaultUserID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active session"})
		return
	}

	resp := map[string]any{
		"session_id": eng.ID(),
		"complete":   eng.Complete(),
		"progress":   eng.Progress(),
		"queue":      eng.Queue(),
	}
	if ex, ok := eng.CurrentExercise(); ok {
		resp["current_exercise"] = ex
	}
	if set, ok := eng.CurrentSet(); ok {
		resp["current_set"] = set
	}
	writeJSON(w, http.StatusOK, resp)
}

type logSetRequest struct {
	ExerciseID uuid.UUID `json:"exercise_id"`
	SetID      uuid.UUID `json:"set_id"`
	Weight     *float64  `json:"weight,omitempty"`
	Reps       *int      `json:"reps,omitempty"`
	RPE        *float64  `json:"rpe,omitempty"`
}

func (s *Server) handleLogSet(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(defaultUserID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active session"})
		return
	}

	var req logSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	outcome, ok := eng.LogSet(req.ExerciseID, req.SetID, session.SetResult{
		Weight: req.Weight,
		Reps:   req.Reps,
		RPE:    req.RPE,
	})
	if !ok {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "set is not the active set"})
		return
	}
	s.flushDecisions(r.Context(), eng)

	writeJSON(w, http.StatusOK, map[string]any{
		"outcome":  outcome,
		"progress": eng.Progress(),
	})
}

type messageRequest struct {
	Text string `json:"text"`
}

// handleMessage runs free text through the intent parser and applies the
// result to the live session where one applies. The parsed intent always
// comes back so callers can display what was understood.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	it := intent.Parse(req.Text)
	resp := map[string]any{"intent": it}

	eng, hasSession := s.engine(defaultUserID)
	if !hasSession {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	switch p := it.Payload.(type) {
	case intent.WorkoutLog:
		ex, okEx := eng.CurrentExercise()
		set, okSet := eng.CurrentSet()
		if !okEx || !okSet {
			resp["message"] = "No set is waiting to be logged."
			break
		}
		res := session.SetResult{Weight: p.Weight, RPE: p.RPE}
		if p.Reps > 0 {
			reps := p.Reps
			res.Reps = &reps
		}
		outcome, ok := eng.LogSet(ex.Exercise.ID, set.ID, res)
		if ok {
			s.flushDecisions(r.Context(), eng)
			resp["outcome"] = outcome
			resp["progress"] = eng.Progress()
		}
	case intent.Modification, intent.SkipExercise, intent.AddExercise:
		outcome, ok := eng.RequestModification(it)
		if ok {
			s.flushDecisions(r.Context(), eng)
			resp["outcome"] = outcome
			resp["progress"] = eng.Progress()
		} else {
			resp["message"] = outcome.Message
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(defaultUserID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active session"})
		return
	}
	writeJSON(w, http.StatusOK, eng.Decisions())
}

// flushDecisions persists the engine's audit log. Insertion is idempotent
// on the decision id, so re-sending the whole log is safe.
func (s *Server) flushDecisions(ctx context.Context, eng *session.Engine) {
	if s.db == nil {
		return
	}
	for _, d := range eng.Decisions() {
		if err := s.db.InsertAgentDecision(ctx, defaultUserID, eng.ID(), d); err != nil {
			s.log.Error("persisting agent decision", "decision_id", d.ID, "error", err)
		}
	}
}

func (s *Server) handleParseIntent(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, intent.Parse(req.Text))
}

// analysisInputs loads everything the analyzer and phase detector consume.
func (s *Server) analysisInputs(ctx context.Context, weeks int, now time.Time) (history.Analysis, []models.Disruption, error) {
	start := now.AddDate(0, 0, -weeks*7)

	sessions, err := s.db.QueryCompletedSessions(ctx, defaultUserID, start, now)
	if err != nil {
		return history.Analysis{}, nil, err
	}
	memory, err := s.db.GetMovementMemory(ctx, defaultUserID)
	if err != nil {
		return history.Analysis{}, nil, err
	}
	disruptions, err := s.db.QueryDisruptions(ctx, defaultUserID, start, now)
	if err != nil {
		return history.Analysis{}, nil, err
	}

	return history.Analyze(sessions, memory, disruptions, weeks, now), disruptions, nil
}

func (s *Server) handleHistoryAnalysis(w http.ResponseWriter, r *http.Request) {
	weeks := intQuery(r, "weeks", s.windowWeeks)
	analysis, _, err := s.analysisInputs(r.Context(), weeks, time.Now())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handlePhase(w http.ResponseWriter, r *http.Request) {
	weeks := intQuery(r, "weeks", s.windowWeeks)
	now := time.Now()

	analysis, disruptions, err := s.analysisInputs(r.Context(), weeks, now)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	current := models.Phase(r.URL.Query().Get("current"))
	weeksInPhase := intQuery(r, "weeks_in_phase", 0)

	detection := phase.Detect(analysis, disruptions, current, weeksInPhase, now)
	writeJSON(w, http.StatusOK, detection)
}

func (s *Server) handleMovementMemory(w http.ResponseWriter, r *http.Request) {
	memory, err := s.db.GetMovementMemory(r.Context(), defaultUserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, memory)
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.db.ListExercises(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	var snap models.ReadinessSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if snap.Date.IsZero() {
		snap.Date = time.Now()
	}
	if snap.Score < 0 || snap.Score > 100 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "score must be 0-100"})
		return
	}

	if err := s.db.UpsertReadiness(r.Context(), defaultUserID, snap); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCreateDisruption(w http.ResponseWriter, r *http.Request) {
	var d models.Disruption
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if d.Kind == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "kind is required"})
		return
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Start.IsZero() {
		d.Start = time.Now()
	}
	if d.Severity == "" {
		d.Severity = models.SeverityMinor
	}

	if err := s.db.InsertDisruption(r.Context(), defaultUserID, d); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleCloseDisruption(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid disruption ID"})
		return
	}

	var body struct {
		End *time.Time `json:"end,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err.Error() != "EOF" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	end := time.Now()
	if body.End != nil {
		end = *body.End
	}

	if err := s.db.CloseDisruption(r.Context(), defaultUserID, id, end); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "disruption not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func intQuery(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
