package fsutil

import (
	"fmt"
	"os"
	"time"

	"github.com/glefebvre/mediasorter/internal/logger"
)

// SweepOptions holds configuration for a retention sweep
type SweepOptions struct {
	Root   string
	Days   int
	DryRun bool
	Now    time.Time
}

// SweepResult counts what a sweep did
type SweepResult struct {
	Removed int
	Skipped int
	Failed  int
}

// Sweep removes every immediate subdirectory of opts.Root last modified
// more than opts.Days days ago. A failure on one directory is logged and
// the sweep moves on. Days <= 0 disables the sweep.
func Sweep(log *logger.Logger, opts SweepOptions) SweepResult {
	var result SweepResult

	if opts.Days <= 0 {
		log.Debug(fmt.Sprintf("Retention sweep disabled for %s", opts.Root))
		return result
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	cutoff := opts.Now.AddDate(0, 0, -opts.Days)
	log.Info(fmt.Sprintf("Checking %s for directories older than %d days (before %s)",
		opts.Root, opts.Days, cutoff.Format(time.RFC3339)))

	dirs, err := ListDirectories(opts.Root)
	if err != nil {
		log.Warn(fmt.Sprintf("Skipping retention sweep of %s: %v", opts.Root, err))
		return result
	}

	for _, dir := range dirs {
		if !dir.ModTime.Before(cutoff) {
			result.Skipped++
			continue
		}

		age := opts.Now.Sub(dir.ModTime).Round(time.Hour)
		if opts.DryRun {
			log.Info(fmt.Sprintf("[DRY RUN] Would remove: %s (age: %s)", dir.Path, age))
			result.Removed++
			continue
		}

		if err := os.RemoveAll(dir.Path); err != nil {
			log.Error(fmt.Sprintf("Failed to delete %s", dir.Path), err)
			result.Failed++
			continue
		}
		log.Info(fmt.Sprintf("Deleted: %s (age: %s)", dir.Name, age))
		result.Removed++
	}

	log.Info(fmt.Sprintf("Sweep of %s complete: %d removed, %d skipped (too recent), %d failed",
		opts.Root, result.Removed, result.Skipped, result.Failed))
	return result
}
