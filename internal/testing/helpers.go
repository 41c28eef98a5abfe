// Package testing holds fixtures shared by the package tests: an
// in-memory history store with record factories and a temporary media
// tree builder.
package testing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glefebvre/mediasorter/internal/config"
	"github.com/glefebvre/mediasorter/internal/history"
	"github.com/glefebvre/mediasorter/internal/logger"
)

// TestStore creates an in-memory SQLite history store closed at test end
func TestStore(t *testing.T) *history.Store {
	t.Helper()

	cfg := config.Default()
	cfg.Database.Enabled = true
	cfg.Database.Driver = history.DriverSQLite
	cfg.Database.Path = ":memory:"

	store, err := history.Open(cfg, logger.Discard())
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// CreateRun inserts a finished run
func CreateRun(t *testing.T, store *history.Store, overrides ...func(*history.Run)) *history.Run {
	t.Helper()

	ctx := context.Background()
	run, err := store.StartRun(ctx, history.TriggerCLI)
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}
	for _, override := range overrides {
		override(run)
	}
	if err := store.FinishRun(ctx, run, nil); err != nil {
		t.Fatalf("failed to finish run: %v", err)
	}
	return run
}

// CreatePlacement inserts a placement belonging to run
func CreatePlacement(t *testing.T, store *history.Store, run *history.Run, overrides ...func(*history.Placement)) *history.Placement {
	t.Helper()

	p := &history.Placement{
		RunID:       run.ID,
		MediaType:   "movie",
		Phase:       "first_pass",
		Source:      "/downloads/complete/movies/Some.Movie.2021.1080p",
		Destination: "/media/movies/Some Movie (2021)",
		Outcome:     "library",
		CreatedAt:   time.Now(),
	}
	for _, override := range overrides {
		override(p)
	}
	if err := store.RecordPlacement(context.Background(), p); err != nil {
		t.Fatalf("failed to record placement: %v", err)
	}
	return p
}

// WithTrigger sets the run trigger
func WithTrigger(trigger string) func(*history.Run) {
	return func(r *history.Run) {
		r.Trigger = trigger
	}
}

// WithStartedAt sets the run start time
func WithStartedAt(at time.Time) func(*history.Run) {
	return func(r *history.Run) {
		r.StartedAt = at
	}
}

// WithErrors sets the run error count
func WithErrors(n int) func(*history.Run) {
	return func(r *history.Run) {
		r.Errors = n
	}
}

// WithOutcome sets the placement outcome
func WithOutcome(outcome string) func(*history.Placement) {
	return func(p *history.Placement) {
		p.Outcome = outcome
	}
}

// WithMediaType sets the placement media type
func WithMediaType(mediaType string) func(*history.Placement) {
	return func(p *history.Placement) {
		p.MediaType = mediaType
	}
}

// MakeDirs creates each relative path under root and returns root
func MakeDirs(t *testing.T, root string, paths ...string) string {
	t.Helper()
	for _, p := range paths {
		if err := os.MkdirAll(filepath.Join(root, p), 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", p, err)
		}
	}
	return root
}

// Age sets the modification time of path to now minus d
func Age(t *testing.T, path string, d time.Duration) {
	t.Helper()
	mod := time.Now().Add(-d)
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("failed to age %s: %v", path, err)
	}
}

// AssertEqual is a generic helper for comparing values
func AssertEqual[T comparable](t *testing.T, expected, actual T, message string) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", message, expected, actual)
	}
}
