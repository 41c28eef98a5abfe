package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glefebvre/mediasorter/internal/config"
	apperrors "github.com/glefebvre/mediasorter/internal/errors"
	"github.com/glefebvre/mediasorter/internal/fsutil"
	"github.com/glefebvre/mediasorter/internal/ledger"
	"github.com/glefebvre/mediasorter/internal/logger"
	"github.com/glefebvre/mediasorter/internal/naming"
	"github.com/glefebvre/mediasorter/internal/placement"
)

// ShowPaths holds the directories a TV pass works on
type ShowPaths struct {
	Complete     string
	Duplicates   string
	AdultLibrary string
	KidsLibrary  string
}

// ShowProcessor normalizes completed episode downloads to "Show SxxExx",
// renames the files inside them and, when enabled, files them into the
// matching library season folder.
type ShowProcessor struct {
	base
	paths      ShowPaths
	normalizer *naming.Normalizer
}

// NewShowProcessor creates a show processor
func NewShowProcessor(log *logger.Logger, paths ShowPaths, settings config.MediaSettings, normalizer *naming.Normalizer, opts ...Option) *ShowProcessor {
	return &ShowProcessor{
		base:       newBase(MediaTV, log, settings, opts),
		paths:      paths,
		normalizer: normalizer,
	}
}

// Process runs the first pass and, when move_to_library is enabled, the
// reconciliation pass. The library snapshot is taken before either pass
// moves anything.
func (p *ShowProcessor) Process(ctx context.Context) (*Statistics, error) {
	startTime := time.Now()
	stats := newStatistics(MediaTV)

	p.log.WithFields(map[string]interface{}{
		"root":               p.paths.Complete,
		"move_to_library":    p.settings.MoveToLibrary,
		"move_to_duplicates": p.settings.MoveToDuplicates,
	}).Info("Processing TV shows")

	var index *libraryIndex
	if p.settings.MoveToLibrary {
		index = p.snapshotLibraries()
	}

	if err := p.firstPass(ctx, stats); err != nil {
		return stats, err
	}

	if index != nil {
		if err := p.reconcile(ctx, index, stats); err != nil {
			return stats, err
		}
	}

	stats.Duration = time.Since(startTime)
	p.logSummary(stats)
	return stats, nil
}

func (p *ShowProcessor) firstPass(ctx context.Context, stats *Statistics) error {
	entries, err := fsutil.ListDirectories(p.paths.Complete)
	if err != nil {
		return err
	}

	strategies := p.strategies()
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			p.log.Warn("TV pass interrupted")
			return nil
		}
		stats.Processed++

		if p.handleMarked(ctx, entry, stats) {
			continue
		}

		if ledger.Exists(entry.Path) {
			p.log.Debug(fmt.Sprintf("Already renamed: %s", entry.Name))
			continue
		}

		canonical, err := p.normalizer.NormalizeShow(entry.Name)
		if err != nil {
			p.logSkip(entry, err)
			stats.Skipped++
			if apperrors.GetErrorCode(err) != apperrors.CodeUnchanged {
				p.record(ctx, PhaseFirstPass, entry.Path, placement.Decision{
					Outcome: placement.OutcomeSkipped, Path: entry.Path, Reason: "no show pattern found",
				})
			}
			continue
		}

		d := p.resolver.Place(entry.Path, canonical, strategies...)
		stats.count(d)
		p.record(ctx, PhaseFirstPass, entry.Path, d)
		if !d.Placed() {
			continue
		}

		p.appendLedger(d.Path, []ledger.Rename{{From: entry.Name, To: filepath.Base(d.Path)}})
		p.appendLedger(d.Path, p.renameFiles(d.Path, canonical, stats))
	}
	return nil
}

// strategies for the first pass. The library is never a target here; the
// reconciliation pass moves episodes there once their files are renamed.
func (p *ShowProcessor) strategies() []placement.Strategy {
	s := []placement.Strategy{placement.Rename(p.paths.Complete)}
	if p.settings.MoveToDuplicates {
		s = append(s, placement.Duplicates(p.paths.Duplicates))
	}
	if !p.settings.MoveToLibrary && !p.settings.MoveToDuplicates {
		s = append(s, placement.InPlace(p.paths.Complete))
	}
	return s
}

// renameFiles renames every regular file in dir except the marker to
// "<canonical><ext>". Two files sharing an extension get numbered names.
func (p *ShowProcessor) renameFiles(dir, canonical string, stats *Statistics) []ledger.Rename {
	entries, err := os.ReadDir(dir)
	if err != nil {
		err = apperrors.FilesystemError("list", dir, err)
		p.log.Error(fmt.Sprintf("Failed to list files in %s", dir), err)
		stats.addError(err.Error())
		return nil
	}

	stem := placement.SanitizeName(canonical)
	var renames []ledger.Rename
	for _, entry := range entries {
		if entry.Name() == ledger.FileName || !entry.Type().IsRegular() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		target := stem + ext
		if entry.Name() == target {
			continue
		}
		for n := 1; fsutil.Exists(filepath.Join(dir, target)); n++ {
			target = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}

		if err := os.Rename(filepath.Join(dir, entry.Name()), filepath.Join(dir, target)); err != nil {
			err = apperrors.FilesystemError("rename", filepath.Join(dir, entry.Name()), err)
			p.log.Error(fmt.Sprintf("Failed to rename %s", entry.Name()), err)
			stats.addError(err.Error())
			continue
		}

		p.log.Debug(fmt.Sprintf("Renamed file %s to %s", entry.Name(), target))
		stats.FilesRenamed++
		renames = append(renames, ledger.Rename{From: entry.Name(), To: target})
	}
	return renames
}

// appendLedger writes a ledger block. Failures are warnings: the marker is
// an audit trail and the renames themselves already happened.
func (p *ShowProcessor) appendLedger(dir string, renames []ledger.Rename) {
	if err := ledger.Append(dir, p.now(), renames); err != nil {
		p.log.WithFields(map[string]interface{}{
			"directory": dir,
			"error":     err.Error(),
		}).Warn("Failed to write rename marker")
	}
}
