package fsutil

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// DiskSpace represents available disk space information
type DiskSpace struct {
	Available uint64  // Available bytes for unprivileged users
	Free      uint64  // Free bytes on filesystem
	Total     uint64  // Total bytes on filesystem
	UsedPct   float64 // Percentage of space used
}

// LowSpace describes a root whose filesystem is below the threshold
type LowSpace struct {
	Root  string
	Space DiskSpace
}

// GetDiskSpace returns disk space information for the filesystem holding
// path, walking up to the nearest existing parent.
func GetDiskSpace(path string) (*DiskSpace, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	checkPath := absPath
	for {
		if _, err := os.Stat(checkPath); err == nil {
			break
		}
		parent := filepath.Dir(checkPath)
		if parent == checkPath {
			return nil, fmt.Errorf("no existing directory found in path")
		}
		checkPath = parent
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(checkPath, &stat); err != nil {
		return nil, fmt.Errorf("failed to get filesystem stats: %w", err)
	}

	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bfree * uint64(stat.Bsize)
	available := stat.Bavail * uint64(stat.Bsize)
	used := total - free
	var usedPct float64
	if total > 0 {
		usedPct = float64(used) / float64(total) * 100
	}

	return &DiskSpace{
		Available: available,
		Free:      free,
		Total:     total,
		UsedPct:   usedPct,
	}, nil
}

// CheckFreeSpace returns the roots whose filesystem has less than
// minFreeBytes available. Empty roots are ignored; a root that cannot be
// inspected is returned as an error alongside the others.
func CheckFreeSpace(roots []string, minFreeBytes uint64) ([]LowSpace, error) {
	var low []LowSpace
	var firstErr error
	for _, root := range roots {
		if root == "" {
			continue
		}
		space, err := GetDiskSpace(root)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", root, err)
			}
			continue
		}
		if space.Available < minFreeBytes {
			low = append(low, LowSpace{Root: root, Space: *space})
		}
	}
	return low, firstErr
}

// FormatBytes formats bytes into human-readable format
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
