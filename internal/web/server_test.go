package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmolargik/setdeck/internal/core"
	"github.com/nmolargik/setdeck/internal/migration"
	"github.com/nmolargik/setdeck/internal/store"
	"github.com/nmolargik/setdeck/internal/testutil"
)

type emptySource struct{}

func (emptySource) Exercises(_ context.Context) ([]*core.LegacyExercise, error) { return nil, nil }
func (emptySource) Close() error                                                { return nil }

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	p := testutil.NewMemPersister()
	st, err := store.New(context.Background(), p)
	require.NoError(t, err)

	pipe := migration.New(st, emptySource{}, p)
	srv := New(DefaultConfig(), st, nil, WithPipeline(pipe))
	return srv, st
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestRoutineLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/routines/3", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/routines/3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode[core.Routine](t, rec)
	assert.Equal(t, 3, created.Day)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/routines/3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	again := decode[core.Routine](t, rec)
	assert.Equal(t, created.ID, again.ID)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/routines/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.Routine](t, rec), 1)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/routines/9", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExerciseEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/routines/1/exercises",
		addExerciseRequest{Name: "Bench Press"})
	require.Equal(t, http.StatusCreated, rec.Code)
	bench := decode[core.Exercise](t, rec)
	assert.Equal(t, 0, bench.OrderIndex)
	require.Len(t, bench.SetIDs, 1, "new exercise gets its default set")

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/routines/1/exercises",
		addExerciseRequest{Name: "Dips", IsWarmup: true})
	require.Equal(t, http.StatusCreated, rec.Code)
	dips := decode[core.Exercise](t, rec)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/routines/1/exercises", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[[]core.Exercise](t, rec)
	require.Len(t, listed, 2)
	assert.Equal(t, "Bench Press", listed[0].Name)

	name := "Weighted Dips"
	rec = doJSON(t, srv, http.MethodPatch, "/api/v1/exercises/"+dips.ID.String(),
		updateExerciseRequest{Name: &name})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, name, decode[core.Exercise](t, rec).Name)

	rec = doJSON(t, srv, http.MethodPut, "/api/v1/routines/1/exercises/order",
		reorderRequest{Order: []uuid.UUID{dips.ID, bench.ID}})
	require.Equal(t, http.StatusOK, rec.Code)
	reordered := decode[[]core.Exercise](t, rec)
	assert.Equal(t, dips.ID, reordered[0].ID)

	rec = doJSON(t, srv, http.MethodPut, "/api/v1/routines/1/exercises/order",
		reorderRequest{Order: []uuid.UUID{dips.ID}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/exercises/"+bench.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/exercises/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetAndHistoryEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/routines/2/exercises",
		addExerciseRequest{Name: "Squat"})
	require.Equal(t, http.StatusCreated, rec.Code)
	squat := decode[core.Exercise](t, rec)
	defaultSetID := squat.SetIDs[0]

	durType := "duration"
	secs := 45.0
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/exercises/"+squat.ID.String()+"/sets",
		setRequest{Type: &durType, TargetDurationSecs: &secs})
	require.Equal(t, http.StatusCreated, rec.Code)
	hold := decode[core.Set](t, rec)
	assert.Equal(t, core.SetTypeDuration, hold.Type)
	assert.Equal(t, 1, hold.OrderIndex)

	bad := "yoga"
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/exercises/"+squat.ID.String()+"/sets",
		setRequest{Type: &bad})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	reps := 5
	weight := 130.0
	rpe := 9
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sets/"+defaultSetID.String()+"/commit",
		commitRequest{Reps: &reps, Weight: &weight, RPE: &rpe})
	require.Equal(t, http.StatusCreated, rec.Code)
	entry := decode[core.SetHistory](t, rec)
	assert.Equal(t, 5, *entry.ActualReps)
	assert.Equal(t, 130.0, *entry.ActualWeight)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/exercises/"+squat.ID.String()+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.SetHistory](t, rec), 1)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/history/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.SetHistory](t, rec), 1)

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/history/", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/history/", nil)
	assert.Len(t, decode[[]core.SetHistory](t, rec), 0)
}

func TestChangesCounter(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/changes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	before := decode[map[string]uint64](t, rec)["count"]

	doJSON(t, srv, http.MethodPost, "/api/v1/routines/0", nil)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/changes", nil)
	after := decode[map[string]uint64](t, rec)["count"]
	assert.Equal(t, before+1, after)
}

func TestSearchEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/v1/routines/1/exercises", addExerciseRequest{Name: "Bench Press"})
	doJSON(t, srv, http.MethodPost, "/api/v1/routines/2/exercises", addExerciseRequest{Name: "Deadlift"})

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/exercises/search?q=bench", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode[[]core.Exercise](t, rec)
	require.Len(t, results, 1)
	assert.Equal(t, "Bench Press", results[0].Name)
}

func TestMigrationEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/migration/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, migration.PhaseIdle, decode[migration.Status](t, rec).Phase)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/migration/run", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	// The empty legacy source completes almost immediately.
	require.Eventually(t, func() bool {
		rec := doJSON(t, srv, http.MethodGet, "/api/v1/migration/", nil)
		return decode[migration.Status](t, rec).Phase == migration.PhaseCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAnalyticsEndpoints(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	e, err := st.AddExerciseForDay(ctx, 1, "Press", false, nil)
	require.NoError(t, err)
	reps := 10
	weight := 50.0
	_, err = st.RecordHistory(ctx, e.SetIDs[0], core.HistoryEntry{
		ActualReps: &reps, ActualWeight: &weight,
	})
	require.NoError(t, err)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/analytics/weekly", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var weekly []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &weekly))
	require.Len(t, weekly, 1)
	assert.Equal(t, 500.0, weekly[0]["volume"])

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/analytics/timeseries?days=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var series []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	assert.Len(t, series, 7)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/analytics/timeseries?days=4000", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
