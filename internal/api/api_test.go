package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glefebvre/mediasorter/internal/history"
	"github.com/glefebvre/mediasorter/internal/logger"
	"github.com/glefebvre/mediasorter/internal/placement"
	"github.com/glefebvre/mediasorter/internal/processor"
	testutil "github.com/glefebvre/mediasorter/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *history.Store) {
	t.Helper()

	store := testutil.TestStore(t)
	return NewServer(store, logger.Discard(), []string{"*"}), store
}

func seedRun(t *testing.T, store *history.Store) *history.Run {
	t.Helper()
	ctx := context.Background()

	run, err := store.StartRun(ctx, history.TriggerCLI)
	require.NoError(t, err)

	rec := history.NewRecorder(store, run)
	rec.Record(ctx, processor.Event{
		MediaType:   processor.MediaMovie,
		Phase:       processor.PhaseFirstPass,
		Source:      "/complete/movies/Some.Movie.2021.1080p",
		Destination: "/library/movies/Some Movie (2021)",
		Outcome:     placement.OutcomeLibrary,
	})
	rec.Record(ctx, processor.Event{
		MediaType:   processor.MediaTV,
		Phase:       processor.PhaseReconcile,
		Source:      "/complete/tv/Show Name S01E01",
		Destination: "/duplicates/tv/Show Name S01E01",
		Outcome:     placement.OutcomeDuplicates,
	})
	rec.AddStatistics(&processor.Statistics{Processed: 2, MovedToLibrary: 1, Duplicates: 1})
	require.NoError(t, rec.Finish(ctx, nil))
	return run
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer(t)

	w := get(t, s, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDPropagated(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestListRuns(t *testing.T) {
	s, store := newTestServer(t)
	run := seedRun(t, store)

	w := get(t, s, "/api/v1/runs?limit=10")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data       []history.Run `json:"data"`
		Total      int64         `json:"total"`
		Limit      int           `json:"limit"`
		TotalPages int           `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
	assert.Equal(t, 10, resp.Limit)
	assert.Equal(t, 1, resp.TotalPages)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, run.ID, resp.Data[0].ID)
	assert.Equal(t, history.StatusSuccess, resp.Data[0].Status)
}

func TestListRuns_InvalidPagination(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/api/v1/runs?limit=abc", "/api/v1/runs?limit=0", "/api/v1/runs?offset=-1"} {
		t.Run(path, func(t *testing.T) {
			w := get(t, s, path)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetRun(t *testing.T) {
	s, store := newTestServer(t)
	run := seedRun(t, store)

	w := get(t, s, "/api/v1/runs/"+run.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var resp history.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, run.ID, resp.ID)
	assert.Equal(t, 2, resp.Processed)
	assert.Len(t, resp.Placements, 2)
}

func TestGetRun_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	w := get(t, s, "/api/v1/runs/does-not-exist")

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not found", resp.Error)
}

func TestListPlacements_Filters(t *testing.T) {
	s, store := newTestServer(t)
	seedRun(t, store)

	w := get(t, s, "/api/v1/placements?media_type=tv")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data  []history.Placement `json:"data"`
		Total int64               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "duplicates", resp.Data[0].Outcome)
	assert.Equal(t, processor.PhaseReconcile, resp.Data[0].Phase)
}

type failingStore struct{}

func (failingStore) HealthCheck() error { return errors.New("connection refused") }
func (failingStore) ListRuns(context.Context, int, int) ([]history.Run, int64, error) {
	return nil, 0, errors.New("boom")
}
func (failingStore) GetRun(context.Context, string) (*history.Run, error) {
	return nil, errors.New("boom")
}
func (failingStore) ListPlacements(context.Context, history.PlacementFilter) ([]history.Placement, int64, error) {
	return nil, 0, errors.New("boom")
}

func TestStoreFailures(t *testing.T) {
	s := NewServer(failingStore{}, nil, nil)

	assert.Equal(t, http.StatusServiceUnavailable, get(t, s, "/health").Code)
	assert.Equal(t, http.StatusInternalServerError, get(t, s, "/api/v1/runs").Code)
	assert.Equal(t, http.StatusInternalServerError, get(t, s, "/api/v1/runs/x").Code)
	assert.Equal(t, http.StatusInternalServerError, get(t, s, "/api/v1/placements").Code)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/runs", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestListPlacements_OutcomeAndPaging(t *testing.T) {
	s, store := newTestServer(t)
	run := testutil.CreateRun(t, store, testutil.WithTrigger(history.TriggerSchedule))
	testutil.CreatePlacement(t, store, run)
	testutil.CreatePlacement(t, store, run, testutil.WithOutcome(string(placement.OutcomeSkipped)))
	testutil.CreatePlacement(t, store, run, testutil.WithOutcome(string(placement.OutcomeSkipped)), testutil.WithMediaType(processor.MediaTV))

	w := get(t, s, "/api/v1/placements?outcome=skipped&limit=1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data       []history.Placement `json:"data"`
		Total      int64               `json:"total"`
		TotalPages int                 `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	testutil.AssertEqual(t, int64(2), resp.Total, "skipped placements")
	testutil.AssertEqual(t, 2, resp.TotalPages, "pages")
	require.Len(t, resp.Data, 1)
	assert.Equal(t, run.ID, resp.Data[0].RunID)
}

func TestGetRun_PartialStatus(t *testing.T) {
	s, store := newTestServer(t)
	run := testutil.CreateRun(t, store, testutil.WithErrors(3))

	w := get(t, s, "/api/v1/runs/"+run.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var resp history.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, history.StatusPartial, resp.Status)
	assert.Equal(t, 3, resp.Errors)
}
