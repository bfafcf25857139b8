package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nmolargik/setdeck/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeError maps domain error categories onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := ""

	var domErr *core.DomainError
	if errors.As(err, &domErr) {
		code = domErr.Code
		switch domErr.Category {
		case core.ErrCatValidation:
			status = http.StatusBadRequest
		case core.ErrCatNotFound:
			status = http.StatusNotFound
		case core.ErrCatState:
			status = http.StatusConflict
		case core.ErrCatPersistence:
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func dayParam(r *http.Request) (int, error) {
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		return 0, core.ErrInvalidDay(-1)
	}
	if !core.ValidDay(day) {
		return 0, core.ErrInvalidDay(day)
	}
	return day, nil
}

func idParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, core.ErrNotFound("entity", chi.URLParam(r, "id"))
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &core.DomainError{
			Category: core.ErrCatValidation,
			Code:     "INVALID_BODY",
			Message:  "decoding request body",
			Cause:    err,
		}
	}
	return nil
}

// Routines

func (s *Server) handleListRoutines(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Routines())
}

func (s *Server) handleCreateRoutine(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	routine, err := s.store.GetOrCreateRoutine(r.Context(), day)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, routine)
}

func (s *Server) handleGetRoutine(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, routine := range s.store.Routines() {
		if routine.Day == day {
			writeJSON(w, http.StatusOK, routine)
			return
		}
	}
	writeError(w, core.ErrNotFound("routine", strconv.Itoa(day)))
}

// Exercises

type addExerciseRequest struct {
	Name     string  `json:"name"`
	IsWarmup bool    `json:"is_warmup"`
	Note     *string `json:"note"`
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.ExercisesForDay(day))
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req addExerciseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	exercise, err := s.store.AddExerciseForDay(r.Context(), day, req.Name, req.IsWarmup, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exercise)
}

type reorderRequest struct {
	Order []uuid.UUID `json:"order"`
}

func (s *Server) handleReorderExercises(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req reorderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var routineID uuid.UUID
	found := false
	for _, routine := range s.store.Routines() {
		if routine.Day == day {
			routineID = routine.ID
			found = true
			break
		}
	}
	if !found {
		writeError(w, core.ErrNotFound("routine", strconv.Itoa(day)))
		return
	}

	if err := s.store.ReorderExercises(r.Context(), routineID, req.Order); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.ExercisesForDay(day))
}

type updateExerciseRequest struct {
	Name         *string            `json:"name"`
	Note         *string            `json:"note"`
	VideoURL     *string            `json:"video_url"`
	IsWarmup     *bool              `json:"is_warmup"`
	MuscleGroups []core.MuscleGroup `json:"muscle_groups"`
	Equipment    *string            `json:"equipment"`
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateExerciseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	exercise, err := s.store.UpdateExercise(r.Context(), id, core.ExercisePatch{
		Name:         req.Name,
		Note:         req.Note,
		VideoURL:     req.VideoURL,
		IsWarmup:     req.IsWarmup,
		MuscleGroups: req.MuscleGroups,
		Equipment:    req.Equipment,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exercise)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.DeleteExercise(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearchExercises(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.SearchExercises(r.URL.Query().Get("q")))
}

// Sets

type setRequest struct {
	Type               *string  `json:"set_type"`
	TargetReps         *int     `json:"target_reps"`
	Weight             *float64 `json:"weight"`
	TargetDurationSecs *float64 `json:"target_duration_secs"`
	Description        *string  `json:"description"`
	RPE                *int     `json:"rpe"`
}

func (req setRequest) patch() (core.SetPatch, error) {
	patch := core.SetPatch{
		TargetReps:  req.TargetReps,
		Weight:      req.Weight,
		Description: req.Description,
		RPE:         req.RPE,
	}
	if req.Type != nil {
		t := core.SetType(*req.Type)
		if !core.ValidSetType(t) {
			return core.SetPatch{}, &core.DomainError{
				Category: core.ErrCatValidation,
				Code:     "INVALID_SET_TYPE",
				Message:  "unknown set type " + *req.Type,
			}
		}
		patch.Type = &t
	}
	if req.TargetDurationSecs != nil {
		d := time.Duration(*req.TargetDurationSecs * float64(time.Second))
		patch.TargetDuration = &d
	}
	return patch, nil
}

func (s *Server) handleListSets(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sets, err := s.store.Sets(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req setRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		writeError(w, err)
		return
	}
	set, err := s.store.AddSet(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req setRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		writeError(w, err)
		return
	}
	set, err := s.store.UpdateSet(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleReorderSets(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req reorderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.ReorderSets(r.Context(), id, req.Order); err != nil {
		writeError(w, err)
		return
	}
	sets, err := s.store.Sets(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

func (s *Server) handleDeleteSet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.DeleteSet(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History

type historyRequest struct {
	CompletedDate      *time.Time `json:"completed_date"`
	ActualReps         *int       `json:"actual_reps"`
	ActualWeight       *float64   `json:"actual_weight"`
	ActualWeightUnit   *string    `json:"actual_weight_unit"`
	ActualDurationSecs *float64   `json:"actual_duration_secs"`
	ActualDescription  *string    `json:"actual_description"`
	ActualRPE          *int       `json:"actual_rpe"`
	Note               *string    `json:"note"`
}

func (s *Server) handleRecordHistory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req historyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	entry := core.HistoryEntry{
		ActualReps:        req.ActualReps,
		ActualWeight:      req.ActualWeight,
		ActualWeightUnit:  req.ActualWeightUnit,
		ActualDescription: req.ActualDescription,
		ActualRPE:         req.ActualRPE,
		Note:              req.Note,
	}
	if req.CompletedDate != nil {
		entry.CompletedDate = *req.CompletedDate
	}
	if req.ActualDurationSecs != nil {
		d := time.Duration(*req.ActualDurationSecs * float64(time.Second))
		entry.ActualDuration = &d
	}

	h, err := s.store.RecordHistory(r.Context(), id, entry)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

type commitRequest struct {
	Reps   *int     `json:"reps"`
	Weight *float64 `json:"weight"`
	RPE    *int     `json:"rpe"`
}

func (s *Server) handleCommitPerformance(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req commitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h, err := s.store.CommitPerformance(r.Context(), id, req.Reps, req.Weight, req.RPE)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

func (s *Server) handleExerciseHistory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := s.store.HistoryForExercise(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAllHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.AllHistory())
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.store.ClearAllHistory(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Changes

func (s *Server) handleChanges(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]uint64{"count": s.store.ChangeCount()})
}

// Analytics

func (s *Server) handleWeeklySummaries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.reporter.WeeklySummaries())
}

func (s *Server) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			writeError(w, &core.DomainError{
				Category: core.ErrCatValidation,
				Code:     "INVALID_WINDOW",
				Message:  "days must be between 1 and 365",
			})
			return
		}
		days = parsed
	}
	writeJSON(w, http.StatusOK, s.reporter.TimeSeries(time.Now(), days))
}

// Migration

func (s *Server) handleMigrationStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.Status())
}

func (s *Server) handleMigrationRun(w http.ResponseWriter, _ *http.Request) {
	go func() {
		// Detached from the request; failures land in the status snapshot
		// and on the event bus.
		_ = s.pipeline.Run(context.Background())
	}()
	writeJSON(w, http.StatusAccepted, s.pipeline.Status())
}
