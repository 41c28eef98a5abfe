package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glefebvre/mediasorter/internal/config"
	apperrors "github.com/glefebvre/mediasorter/internal/errors"
	"github.com/glefebvre/mediasorter/internal/fsutil"
	"github.com/glefebvre/mediasorter/internal/logger"
	"github.com/glefebvre/mediasorter/internal/placement"
	"github.com/glefebvre/mediasorter/internal/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore opens an in-memory SQLite history store
func testStore(t *testing.T) *Store {
	t.Helper()

	cfg := config.Default()
	cfg.Database.Enabled = true
	cfg.Database.Driver = DriverSQLite
	cfg.Database.Path = ":memory:"

	store, err := Open(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// createRun inserts a finished run
func createRun(t *testing.T, store *Store, overrides ...func(*Run)) *Run {
	t.Helper()
	run, err := store.StartRun(context.Background(), TriggerCLI)
	require.NoError(t, err)
	for _, override := range overrides {
		override(run)
	}
	require.NoError(t, store.FinishRun(context.Background(), run, nil))
	return run
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = "mysql"

	_, err := Open(cfg, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfig, apperrors.GetErrorCode(err))
}

func TestOpen_SQLiteFile(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = DriverSQLite
	cfg.Database.Path = t.TempDir() + "/nested/history.db"

	store, err := Open(cfg, logger.Discard())
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.HealthCheck())
	assert.FileExists(t, cfg.Database.Path)
}

func TestRunLifecycle(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	run, err := store.StartRun(ctx, TriggerSchedule)
	require.NoError(t, err)
	assert.Len(t, run.ID, 36)
	assert.Equal(t, StatusRunning, run.Status)

	run.Processed = 3
	require.NoError(t, store.FinishRun(ctx, run, nil))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Equal(t, 3, got.Processed)
	assert.Equal(t, TriggerSchedule, got.Trigger)
	require.NotNil(t, got.CompletedAt)
	assert.Nil(t, got.ErrorMessage)
}

func TestFinishRun_Statuses(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	failed, err := store.StartRun(ctx, TriggerCLI)
	require.NoError(t, err)
	require.NoError(t, store.FinishRun(ctx, failed, errors.New("config missing")))
	assert.Equal(t, StatusFailed, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
	assert.Equal(t, "config missing", *failed.ErrorMessage)

	partial := createRun(t, store, func(r *Run) { r.Errors = 2 })
	assert.Equal(t, StatusPartial, partial.Status)
}

func TestGetRun_NotFound(t *testing.T) {
	store := testStore(t)

	_, err := store.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetErrorCode(err))
}

func TestListRuns_NewestFirst(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		started := base.Add(time.Duration(i) * time.Minute)
		createRun(t, store, func(r *Run) {
			r.StartedAt = started
			r.Processed = i
		})
	}

	runs, total, err := store.ListRuns(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].Processed)
	assert.Equal(t, 1, runs[1].Processed)

	runs, _, err = store.ListRuns(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 0, runs[0].Processed)
}

func TestRecorder(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	run, err := store.StartRun(ctx, TriggerCLI)
	require.NoError(t, err)
	rec := NewRecorder(store, run)

	rec.Record(ctx, processor.Event{
		MediaType:   processor.MediaTV,
		Phase:       processor.PhaseFirstPass,
		Source:      "/complete/tv/Show.Name.S01E02.720p",
		Destination: "/complete/tv/Show Name S01E02",
		Outcome:     placement.OutcomeInPlace,
		At:          time.Now(),
	})
	rec.Record(ctx, processor.Event{
		MediaType:   processor.MediaMovie,
		Phase:       processor.PhaseFirstPass,
		Source:      "/complete/movies/RandomFolder",
		Destination: "/complete/movies/RandomFolder",
		Outcome:     placement.OutcomeSkipped,
		Reason:      "no year found",
	})

	rec.AddStatistics(&processor.Statistics{Processed: 2, RenamedInPlace: 1, Skipped: 1})
	rec.AddSweep(fsutil.SweepResult{Removed: 4, Failed: 1})
	require.NoError(t, rec.Finish(ctx, nil))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Processed)
	assert.Equal(t, 4, got.Swept)
	assert.Equal(t, 1, got.Errors)
	assert.Equal(t, StatusPartial, got.Status)
	require.Len(t, got.Placements, 2)
	assert.Equal(t, "in_place", got.Placements[0].Outcome)
	assert.False(t, got.Placements[1].CreatedAt.IsZero())

	skipped, total, err := store.ListPlacements(ctx, PlacementFilter{Outcome: "skipped"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, skipped, 1)
	assert.Equal(t, "no year found", skipped[0].Reason)

	tv, total, err := store.ListPlacements(ctx, PlacementFilter{RunID: run.ID, MediaType: processor.MediaTV})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "/complete/tv/Show Name S01E02", tv[0].Destination)
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		name           string
		limit, offset  int
		wantLimit, off int
	}{
		{"defaults", 0, -1, DefaultLimit, 0},
		{"capped", 10000, 5, MaxLimit, 5},
		{"kept", 20, 40, 20, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, o := clampPage(tt.limit, tt.offset)
			assert.Equal(t, tt.wantLimit, l)
			assert.Equal(t, tt.off, o)
		})
	}
}

func TestMapToGormLevel(t *testing.T) {
	assert.Equal(t, mapToGormLevel("debug"), NewGormLogger(logger.Discard(), "debug").logLevel)
	assert.True(t, mapToGormLevel("error") < mapToGormLevel("info"))
	assert.Equal(t, mapToGormLevel("unknown"), mapToGormLevel("warn"))
}
