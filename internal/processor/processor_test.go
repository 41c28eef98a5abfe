package processor

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/glefebvre/mediasorter/internal/config"
	"github.com/glefebvre/mediasorter/internal/logger"
	"github.com/glefebvre/mediasorter/internal/placement"
	"github.com/stretchr/testify/require"
)

type recorderStub struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorderStub) Record(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorderStub) outcomes() []placement.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]placement.Outcome, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Outcome)
	}
	return out
}

func mkdir(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(path, 0o755))
	return path
}

func touch(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	return path
}

func age(t *testing.T, path string, d time.Duration) {
	t.Helper()
	mod := time.Now().Add(-d)
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func defaultSettings() config.MediaSettings {
	return config.MediaSettings{
		DeleteFailed:     true,
		DeleteUnpack:     true,
		DaysToKeepUnpack: 2,
		MoveToDuplicates: true,
		MoveToLibrary:    false,
	}
}

var testLog = logger.Discard()

type configSettings = config.MediaSettings

type configOverrides func(*configSettings)
