// Package organizer wires one complete run together: process lock, free
// space preflight, movie pass, TV pass, retention sweep and the optional
// history record.
package organizer

import (
	"context"
	"fmt"
	"time"

	"github.com/glefebvre/mediasorter/internal/config"
	"github.com/glefebvre/mediasorter/internal/fsutil"
	"github.com/glefebvre/mediasorter/internal/history"
	"github.com/glefebvre/mediasorter/internal/logger"
	"github.com/glefebvre/mediasorter/internal/naming"
	"github.com/glefebvre/mediasorter/internal/processor"
	"github.com/glefebvre/mediasorter/internal/runlock"
	"github.com/google/uuid"
)

// Report summarizes one run
type Report struct {
	RunID    string
	Movies   *processor.Statistics
	TVShows  *processor.Statistics
	Sweeps   []SweepReport
	Duration time.Duration
}

// SweepReport is the result of sweeping one root
type SweepReport struct {
	Label  string
	Root   string
	Days   int
	Result fsutil.SweepResult
}

// Organizer runs the processing passes for a configuration
type Organizer struct {
	cfg        *config.Config
	log        *logger.Logger
	store      *history.Store
	normalizer *naming.Normalizer
}

// New creates an organizer. store may be nil when history is disabled.
func New(cfg *config.Config, log *logger.Logger, store *history.Store) (*Organizer, error) {
	if log == nil {
		log = logger.Discard()
	}
	normalizer, err := naming.NewNormalizer(cfg.CorrectionRules(), cfg.ShowAliases()...)
	if err != nil {
		return nil, err
	}
	return &Organizer{cfg: cfg, log: log, store: store, normalizer: normalizer}, nil
}

// Run performs one full batch run. Per-entry failures are logged and
// counted in the report; the returned error is reserved for failures that
// abort the run (lock contention, unreadable download roots).
func (o *Organizer) Run(ctx context.Context, trigger string) (*Report, error) {
	startTime := time.Now()
	report := &Report{RunID: uuid.New().String()}
	ctx = logger.ContextWithRunID(ctx, report.RunID)

	lock, err := runlock.Acquire(o.cfg.Run.LockFile)
	if err != nil {
		return report, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			o.log.Warn(fmt.Sprintf("Failed to release run lock: %v", err))
		}
	}()

	o.log.InfoContext(ctx, fmt.Sprintf("Starting %s run", trigger))

	rec := o.startHistory(ctx, report.RunID, trigger)
	var opts []processor.Option
	if rec != nil {
		opts = append(opts, processor.WithRecorder(rec))
	}

	o.preflight(ctx)

	runErr := o.process(ctx, report, opts)
	if runErr == nil {
		report.Sweeps = o.Sweep(ctx, false)
	}

	if rec != nil {
		rec.AddStatistics(report.Movies)
		rec.AddStatistics(report.TVShows)
		for _, s := range report.Sweeps {
			rec.AddSweep(s.Result)
		}
		if err := rec.Finish(context.WithoutCancel(ctx), runErr); err != nil {
			o.log.WarnContext(ctx, fmt.Sprintf("Failed to store run history: %v", err))
		}
	}

	report.Duration = time.Since(startTime)
	if runErr != nil {
		return report, runErr
	}

	o.log.InfoContext(ctx, fmt.Sprintf("Run finished in %s", report.Duration.Round(time.Millisecond)))
	return report, nil
}

func (o *Organizer) process(ctx context.Context, report *Report, opts []processor.Option) error {
	dirs := o.cfg.DownloadDirectories

	movies := processor.NewMovieProcessor(o.log, processor.MoviePaths{
		Complete:   dirs.Complete.Movies,
		Duplicates: dirs.Duplicate.Movies,
		Library:    o.cfg.MediaLibraries.Movies,
	}, o.cfg.Settings.Movies, opts...)

	stats, err := movies.Process(ctx)
	report.Movies = stats
	if err != nil {
		return err
	}

	shows := processor.NewShowProcessor(o.log, processor.ShowPaths{
		Complete:     dirs.Complete.TVShows,
		Duplicates:   dirs.Duplicate.TVShows,
		AdultLibrary: o.cfg.MediaLibraries.TVShows.Adult,
		KidsLibrary:  o.cfg.MediaLibraries.TVShows.Kids,
	}, o.cfg.Settings.TVShows, o.normalizer, opts...)

	stats, err = shows.Process(ctx)
	report.TVShows = stats
	return err
}

// Cleanup runs the retention sweep alone under the process lock
func (o *Organizer) Cleanup(ctx context.Context, dryRun bool) ([]SweepReport, error) {
	lock, err := runlock.Acquire(o.cfg.Run.LockFile)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	return o.Sweep(ctx, dryRun), nil
}

// Sweep runs the retention sweep over the six download roots
func (o *Organizer) Sweep(ctx context.Context, dryRun bool) []SweepReport {
	now := time.Now()
	targets := o.sweepTargets()
	reports := make([]SweepReport, 0, len(targets))

	for _, t := range targets {
		if ctx.Err() != nil {
			break
		}
		if t.Root == "" {
			continue
		}
		t.Result = fsutil.Sweep(o.log, fsutil.SweepOptions{
			Root:   t.Root,
			Days:   t.Days,
			DryRun: dryRun,
			Now:    now,
		})
		reports = append(reports, t)
	}
	return reports
}

func (o *Organizer) sweepTargets() []SweepReport {
	dirs := o.cfg.DownloadDirectories
	movies := o.cfg.Settings.Movies
	tv := o.cfg.Settings.TVShows

	return []SweepReport{
		{Label: "completed movies", Root: dirs.Complete.Movies, Days: movies.DaysToKeepCompletedDownloads},
		{Label: "completed tv shows", Root: dirs.Complete.TVShows, Days: tv.DaysToKeepCompletedDownloads},
		{Label: "duplicate movies", Root: dirs.Duplicate.Movies, Days: movies.DaysToKeepDuplicateDownloads},
		{Label: "duplicate tv shows", Root: dirs.Duplicate.TVShows, Days: tv.DaysToKeepDuplicateDownloads},
		{Label: "incomplete movies", Root: dirs.Incomplete.Movies, Days: movies.DaysToKeepIncompleteDownloads},
		{Label: "incomplete tv shows", Root: dirs.Incomplete.TVShows, Days: tv.DaysToKeepIncompleteDownloads},
	}
}

// preflight warns about destinations running out of space. It never
// blocks the run.
func (o *Organizer) preflight(ctx context.Context) {
	if o.cfg.Run.MinFreeSpaceMB <= 0 {
		return
	}

	roots := []string{
		o.cfg.DownloadDirectories.Duplicate.Movies,
		o.cfg.DownloadDirectories.Duplicate.TVShows,
	}
	if o.cfg.Settings.Movies.MoveToLibrary {
		roots = append(roots, o.cfg.MediaLibraries.Movies)
	}
	if o.cfg.Settings.TVShows.MoveToLibrary {
		roots = append(roots, o.cfg.MediaLibraries.TVShows.Adult, o.cfg.MediaLibraries.TVShows.Kids)
	}

	minFree := uint64(o.cfg.Run.MinFreeSpaceMB) * 1024 * 1024
	low, err := fsutil.CheckFreeSpace(roots, minFree)
	if err != nil {
		o.log.DebugContext(ctx, fmt.Sprintf("Free space check incomplete: %v", err))
	}
	for _, l := range low {
		o.log.WithFields(map[string]interface{}{
			"root":      l.Root,
			"available": fsutil.FormatBytes(l.Space.Available),
			"required":  fsutil.FormatBytes(minFree),
		}).WarnContext(ctx, "Low free space on destination")
	}
}

func (o *Organizer) startHistory(ctx context.Context, runID, trigger string) *history.Recorder {
	if o.store == nil {
		return nil
	}
	run, err := o.store.StartRunWithID(ctx, runID, trigger)
	if err != nil {
		o.log.WarnContext(ctx, fmt.Sprintf("History disabled for this run: %v", err))
		return nil
	}
	return history.NewRecorder(o.store, run)
}
