package processor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/glefebvre/mediasorter/internal/placement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMoviePaths(t *testing.T) MoviePaths {
	t.Helper()
	root := t.TempDir()
	return MoviePaths{
		Complete:   mkdir(t, root, "complete", "movies"),
		Duplicates: mkdir(t, root, "duplicates", "movies"),
		Library:    mkdir(t, root, "library", "movies"),
	}
}

func TestMovieProcessor_LibraryThenDuplicates(t *testing.T) {
	paths := newMoviePaths(t)
	mkdir(t, paths.Library, "Taken Movie (1999)")
	mkdir(t, paths.Complete, "Some.Movie.2021.1080p")
	mkdir(t, paths.Complete, "Taken.Movie.1999.BluRay")

	settings := defaultSettings()
	settings.MoveToLibrary = true
	rec := &recorderStub{}

	stats, err := NewMovieProcessor(testLog, paths, settings, WithRecorder(rec)).Process(context.Background())
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(paths.Library, "Some Movie (2021)"))
	assert.DirExists(t, filepath.Join(paths.Duplicates, "Taken Movie (1999)"))
	assert.Empty(t, listNames(t, paths.Complete))
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.MovedToLibrary)
	assert.Equal(t, 1, stats.Duplicates)
	assert.ElementsMatch(t, []placement.Outcome{placement.OutcomeLibrary, placement.OutcomeDuplicates}, rec.outcomes())
}

func TestMovieProcessor_DuplicateNumbering(t *testing.T) {
	paths := newMoviePaths(t)
	mkdir(t, paths.Duplicates, "Some Movie (2021)")
	mkdir(t, paths.Duplicates, "Some Movie (2021) (1)")
	mkdir(t, paths.Complete, "Some.Movie.2021.720p")

	_, err := NewMovieProcessor(testLog, paths, defaultSettings()).Process(context.Background())
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(paths.Duplicates, "Some Movie (2021) (2)"))
}

func TestMovieProcessor_NoYearSkipped(t *testing.T) {
	paths := newMoviePaths(t)
	src := mkdir(t, paths.Complete, "RandomFolder")
	rec := &recorderStub{}

	stats, err := NewMovieProcessor(testLog, paths, defaultSettings(), WithRecorder(rec)).Process(context.Background())
	require.NoError(t, err)

	assert.DirExists(t, src)
	assert.Equal(t, 1, stats.Skipped)
	require.Len(t, rec.events, 1)
	assert.Equal(t, placement.OutcomeSkipped, rec.events[0].Outcome)
	assert.Equal(t, MediaMovie, rec.events[0].MediaType)
}

func TestMovieProcessor_InPlaceNumberingStableAcrossRuns(t *testing.T) {
	paths := newMoviePaths(t)
	mkdir(t, paths.Complete, "Some Movie (2021)")
	mkdir(t, paths.Complete, "Some.Movie.2021.720p")

	settings := defaultSettings()
	settings.MoveToDuplicates = false
	p := NewMovieProcessor(testLog, paths, settings)

	stats, err := p.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.RenamedInPlace)
	expected := []string{"Some Movie (2021)", "Some Movie (2021) (1)"}
	assert.Equal(t, expected, listNames(t, paths.Complete))

	for run := 0; run < 2; run++ {
		stats, err = p.Process(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, stats.RenamedInPlace)
		assert.Equal(t, 2, stats.Skipped)
		assert.Equal(t, expected, listNames(t, paths.Complete))
	}
}

func TestMovieProcessor_InPlaceWhenNothingEnabled(t *testing.T) {
	paths := newMoviePaths(t)
	mkdir(t, paths.Complete, "Some Movie (2021)")
	mkdir(t, paths.Complete, "Some.Movie.2021.1080p")

	settings := defaultSettings()
	settings.MoveToDuplicates = false

	stats, err := NewMovieProcessor(testLog, paths, settings).Process(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Some Movie (2021)", "Some Movie (2021) (1)"}, listNames(t, paths.Complete))
	assert.Equal(t, 1, stats.RenamedInPlace)
	assert.Equal(t, 1, stats.Skipped, "the canonical folder is already in place")
}

func TestMovieProcessor_LibraryOnlyTakenStays(t *testing.T) {
	paths := newMoviePaths(t)
	mkdir(t, paths.Library, "Some Movie (2021)")
	src := mkdir(t, paths.Complete, "Some.Movie.2021.1080p")

	settings := defaultSettings()
	settings.MoveToLibrary = true
	settings.MoveToDuplicates = false

	stats, err := NewMovieProcessor(testLog, paths, settings).Process(context.Background())
	require.NoError(t, err)

	assert.DirExists(t, src)
	assert.Equal(t, 1, stats.Skipped)
}

func TestMovieProcessor_FailedAndUnpack(t *testing.T) {
	paths := newMoviePaths(t)
	failed := mkdir(t, paths.Complete, "_FAILED_Some.Movie.2021")
	staleUnpack := mkdir(t, paths.Complete, "_UNPACK_Old.Movie.2019")
	age(t, staleUnpack, 5*24*time.Hour)
	freshUnpack := mkdir(t, paths.Complete, "_UNPACK_New.Movie.2022")

	stats, err := NewMovieProcessor(testLog, paths, defaultSettings()).Process(context.Background())
	require.NoError(t, err)

	assert.NoDirExists(t, failed)
	assert.NoDirExists(t, staleUnpack)
	assert.DirExists(t, freshUnpack)
	assert.Equal(t, 2, stats.Deleted)
	assert.Equal(t, 1, stats.Skipped)
}

func TestMovieProcessor_DeleteFailureKeepsGoing(t *testing.T) {
	paths := newMoviePaths(t)
	failed := mkdir(t, paths.Complete, "_FAILED_Some.Movie.2021")
	mkdir(t, paths.Complete, "Other.Movie.2020.1080p")
	rec := &recorderStub{}

	p := NewMovieProcessor(testLog, paths, defaultSettings(), WithRecorder(rec))
	p.remove = func(string) error { return errors.New("permission denied") }

	stats, err := p.Process(context.Background())
	require.NoError(t, err)

	assert.DirExists(t, failed)
	assert.DirExists(t, filepath.Join(paths.Duplicates, "Other Movie (2020)"))
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 0, stats.Deleted)
	assert.Equal(t, 1, stats.Errors)
	require.Len(t, stats.ErrorMessages, 1)
	assert.Contains(t, stats.ErrorMessages[0], "permission denied")
	assert.Equal(t, 1, stats.Duplicates)
	assert.ElementsMatch(t, []placement.Outcome{placement.OutcomeSkipped, placement.OutcomeDuplicates}, rec.outcomes())
}

func TestMovieProcessor_FailedKeptWhenDisabled(t *testing.T) {
	paths := newMoviePaths(t)
	failed := mkdir(t, paths.Complete, "_FAILED_Some.Movie.2021")

	settings := defaultSettings()
	settings.DeleteFailed = false

	_, err := NewMovieProcessor(testLog, paths, settings).Process(context.Background())
	require.NoError(t, err)

	assert.DirExists(t, failed)
}

func TestMovieProcessor_MissingRoot(t *testing.T) {
	paths := newMoviePaths(t)
	paths.Complete = filepath.Join(paths.Complete, "missing")

	_, err := NewMovieProcessor(testLog, paths, defaultSettings()).Process(context.Background())
	assert.Error(t, err)
}

func TestMovieProcessor_CancelledContext(t *testing.T) {
	paths := newMoviePaths(t)
	src := mkdir(t, paths.Complete, "Some.Movie.2021.1080p")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := NewMovieProcessor(testLog, paths, defaultSettings()).Process(ctx)
	require.NoError(t, err)

	assert.DirExists(t, src)
	assert.Equal(t, 0, stats.Processed)
}
