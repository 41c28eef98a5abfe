package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/glefebvre/mediasorter/internal/config"
	"github.com/glefebvre/mediasorter/internal/fsutil"
	"github.com/glefebvre/mediasorter/internal/logger"
	"github.com/glefebvre/mediasorter/internal/naming"
	"github.com/glefebvre/mediasorter/internal/placement"
)

// MoviePaths holds the directories a movie pass works on
type MoviePaths struct {
	Complete   string
	Duplicates string
	Library    string
}

// MovieProcessor normalizes completed movie downloads to "Title (Year)"
// and moves them to the library or the duplicates tree.
type MovieProcessor struct {
	base
	paths MoviePaths
}

// NewMovieProcessor creates a movie processor
func NewMovieProcessor(log *logger.Logger, paths MoviePaths, settings config.MediaSettings, opts ...Option) *MovieProcessor {
	return &MovieProcessor{
		base:  newBase(MediaMovie, log, settings, opts),
		paths: paths,
	}
}

// Process runs one pass over the completed movies root. Per-entry failures
// are logged and counted; only failing to list the root is returned.
func (p *MovieProcessor) Process(ctx context.Context) (*Statistics, error) {
	startTime := time.Now()
	stats := newStatistics(MediaMovie)

	p.log.WithFields(map[string]interface{}{
		"root":               p.paths.Complete,
		"move_to_library":    p.settings.MoveToLibrary,
		"move_to_duplicates": p.settings.MoveToDuplicates,
	}).Info("Processing movies")

	entries, err := fsutil.ListDirectories(p.paths.Complete)
	if err != nil {
		return stats, err
	}

	strategies := p.strategies()
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			p.log.Warn("Movie pass interrupted")
			break
		}
		stats.Processed++

		if p.handleMarked(ctx, entry, stats) {
			continue
		}

		name, err := naming.NormalizeMovie(entry.Name)
		if err != nil {
			p.logSkip(entry, err)
			stats.Skipped++
			p.record(ctx, PhaseFirstPass, entry.Path, placement.Decision{
				Outcome: placement.OutcomeSkipped, Path: entry.Path, Reason: "no year found",
			})
			continue
		}

		d := p.resolver.Place(entry.Path, name, strategies...)
		if !d.Placed() && d.Err == nil {
			p.log.Debug(fmt.Sprintf("Movie %s not placed: %s", entry.Name, d.Reason))
		}
		stats.count(d)
		p.record(ctx, PhaseFirstPass, entry.Path, d)
	}

	stats.Duration = time.Since(startTime)
	p.logSummary(stats)
	return stats, nil
}

// strategies returns library, then duplicates, then in place only when
// neither of the former is enabled.
func (p *MovieProcessor) strategies() []placement.Strategy {
	var s []placement.Strategy
	if p.settings.MoveToLibrary {
		s = append(s, placement.Library(p.paths.Library))
	}
	if p.settings.MoveToDuplicates {
		s = append(s, placement.Duplicates(p.paths.Duplicates))
	}
	if len(s) == 0 {
		s = append(s, placement.InPlace(p.paths.Complete))
	}
	return s
}
