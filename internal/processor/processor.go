// Package processor runs the movie and TV passes over the completed
// download roots: classification, normalization, placement, per-file
// renames for episodes and the library reconciliation pass.
package processor

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/glefebvre/mediasorter/internal/config"
	apperrors "github.com/glefebvre/mediasorter/internal/errors"
	"github.com/glefebvre/mediasorter/internal/fsutil"
	"github.com/glefebvre/mediasorter/internal/logger"
	"github.com/glefebvre/mediasorter/internal/placement"
)

// Media types
const (
	MediaMovie = "movie"
	MediaTV    = "tv"
)

// Phases
const (
	PhaseFirstPass = "first_pass"
	PhaseReconcile = "reconcile"
)

// OutcomeDeleted marks an entry removed because of a failed or stale
// unpacking marker
const OutcomeDeleted placement.Outcome = "deleted"

// Statistics holds processing statistics for one pass
type Statistics struct {
	MediaType      string
	Processed      int
	MovedToLibrary int
	Duplicates     int
	RenamedInPlace int
	FilesRenamed   int
	Skipped        int
	Unmatched      int
	Deleted        int
	Errors         int
	Duration       time.Duration
	ErrorMessages  []string
}

// Event is a single placement, deletion or skip performed during a pass
type Event struct {
	MediaType   string
	Phase       string
	Source      string
	Destination string
	Outcome     placement.Outcome
	Reason      string
	At          time.Time
}

// Recorder receives every event produced by a pass. Recording failures
// are the recorder's concern; processing never depends on it.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, Event) {}

// Option configures a processor
type Option func(*base)

// WithRecorder sets the event recorder
func WithRecorder(r Recorder) Option {
	return func(b *base) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		if now != nil {
			b.now = now
		}
	}
}

// base is shared by the movie and show processors
type base struct {
	mediaType string
	log       *logger.Logger
	settings  config.MediaSettings
	resolver  *placement.Resolver
	recorder  Recorder
	now       func() time.Time
	remove    func(path string) error
}

func newBase(mediaType string, log *logger.Logger, settings config.MediaSettings, opts []Option) base {
	if log == nil {
		log = logger.Discard()
	}
	b := base{
		mediaType: mediaType,
		log:       log,
		settings:  settings,
		resolver:  placement.NewResolver(log),
		recorder:  nopRecorder{},
		now:       time.Now,
		remove:    os.RemoveAll,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func newStatistics(mediaType string) *Statistics {
	return &Statistics{
		MediaType:     mediaType,
		ErrorMessages: make([]string, 0),
	}
}

func (s *Statistics) addError(msg string) {
	s.Errors++
	s.ErrorMessages = append(s.ErrorMessages, msg)
}

// count updates the counters for a placement decision
func (s *Statistics) count(d placement.Decision) {
	switch d.Outcome {
	case placement.OutcomeLibrary:
		s.MovedToLibrary++
	case placement.OutcomeDuplicates:
		s.Duplicates++
	case placement.OutcomeInPlace:
		s.RenamedInPlace++
	default:
		s.Skipped++
		if d.Err != nil {
			s.addError(d.Err.Error())
		}
	}
}

func (b *base) record(ctx context.Context, phase, src string, d placement.Decision) {
	b.recorder.Record(ctx, Event{
		MediaType:   b.mediaType,
		Phase:       phase,
		Source:      src,
		Destination: d.Path,
		Outcome:     d.Outcome,
		Reason:      d.Reason,
		At:          b.now(),
	})
}

// handleMarked deals with failed and unpacking directories. It returns
// false for normal entries, which the caller goes on to normalize.
func (b *base) handleMarked(ctx context.Context, entry fsutil.RawEntry, stats *Statistics) bool {
	var remove bool
	var reason string

	switch entry.Kind {
	case fsutil.KindFailed:
		remove = b.settings.DeleteFailed
		reason = "failed download"
	case fsutil.KindUnpacking:
		remove = b.settings.DeleteUnpack && fsutil.OlderThan(entry.ModTime, b.now(), b.settings.DaysToKeepUnpack)
		reason = "stale unpack"
	default:
		return false
	}

	if !remove {
		b.log.Debug(fmt.Sprintf("Leaving %s directory untouched: %s", entry.Kind, entry.Name))
		stats.Skipped++
		b.record(ctx, PhaseFirstPass, entry.Path, placement.Decision{
			Outcome: placement.OutcomeSkipped, Path: entry.Path, Reason: string(entry.Kind),
		})
		return true
	}

	if err := b.remove(entry.Path); err != nil {
		err = apperrors.FilesystemError("delete", entry.Path, err)
		b.log.Error(fmt.Sprintf("Failed to delete %s", entry.Path), err)
		stats.addError(err.Error())
		b.record(ctx, PhaseFirstPass, entry.Path, placement.Decision{
			Outcome: placement.OutcomeSkipped, Path: entry.Path, Reason: "filesystem error", Err: err,
		})
		return true
	}

	b.log.Info(fmt.Sprintf("Deleted %s: %s", reason, entry.Path))
	stats.Deleted++
	b.record(ctx, PhaseFirstPass, entry.Path, placement.Decision{Outcome: OutcomeDeleted, Reason: reason})
	return true
}

func (b *base) logSkip(entry fsutil.RawEntry, err error) {
	fields := map[string]interface{}{
		"directory": entry.Name,
		"reason":    string(apperrors.GetErrorCode(err)),
	}
	if apperrors.GetErrorCode(err) == apperrors.CodeUnchanged {
		b.log.WithFields(fields).Debug("Name already canonical")
		return
	}
	b.log.WithFields(fields).Warn(fmt.Sprintf("Skipping %s: %v", entry.Name, err))
}

func (b *base) logSummary(stats *Statistics) {
	b.log.WithFields(map[string]interface{}{
		"media_type":       stats.MediaType,
		"processed":        stats.Processed,
		"moved_to_library": stats.MovedToLibrary,
		"duplicates":       stats.Duplicates,
		"renamed_in_place": stats.RenamedInPlace,
		"files_renamed":    stats.FilesRenamed,
		"skipped":          stats.Skipped,
		"unmatched":        stats.Unmatched,
		"deleted":          stats.Deleted,
		"errors":           stats.Errors,
		"duration":         stats.Duration.String(),
	}).Info("Processing pass complete")
}
