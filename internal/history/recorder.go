package history

import (
	"context"
	"sync"

	"github.com/glefebvre/mediasorter/internal/fsutil"
	"github.com/glefebvre/mediasorter/internal/processor"
)

// Recorder stores processor events as placements of one run and
// accumulates the run counters.
type Recorder struct {
	store *Store
	run   *Run
	mu    sync.Mutex
}

// NewRecorder creates a recorder for run
func NewRecorder(store *Store, run *Run) *Recorder {
	return &Recorder{store: store, run: run}
}

// Record implements processor.Recorder. Failures are logged and dropped.
func (r *Recorder) Record(ctx context.Context, e processor.Event) {
	p := &Placement{
		RunID:       r.run.ID,
		MediaType:   e.MediaType,
		Phase:       e.Phase,
		Source:      e.Source,
		Destination: e.Destination,
		Outcome:     string(e.Outcome),
		Reason:      e.Reason,
		CreatedAt:   e.At,
	}
	if err := r.store.RecordPlacement(ctx, p); err != nil {
		r.store.log.WarnContext(ctx, "Failed to record placement: "+err.Error())
	}
}

// AddStatistics folds the counters of a processing pass into the run
func (r *Recorder) AddStatistics(stats *processor.Statistics) {
	if stats == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.run.Processed += stats.Processed
	r.run.MovedToLibrary += stats.MovedToLibrary
	r.run.Duplicates += stats.Duplicates
	r.run.RenamedInPlace += stats.RenamedInPlace
	r.run.FilesRenamed += stats.FilesRenamed
	r.run.Skipped += stats.Skipped
	r.run.Unmatched += stats.Unmatched
	r.run.Deleted += stats.Deleted
	r.run.Errors += stats.Errors
}

// AddSweep folds a retention sweep result into the run
func (r *Recorder) AddSweep(result fsutil.SweepResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.run.Swept += result.Removed
	r.run.Errors += result.Failed
}

// Finish stores the run's final state
func (r *Recorder) Finish(ctx context.Context, runErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.FinishRun(ctx, r.run, runErr)
}

// Run returns the recorded run
func (r *Recorder) Run() *Run {
	return r.run
}
