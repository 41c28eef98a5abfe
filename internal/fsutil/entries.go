// Package fsutil holds the filesystem plumbing shared by the processors:
// enumerating download roots, sweeping aged directories and checking free
// space on the destination filesystems.
package fsutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "github.com/glefebvre/mediasorter/internal/errors"
)

// Markers the download client puts in directory names
const (
	FailedMarker = "_FAILED_"
	UnpackMarker = "_UNPACK_"
)

// Kind classifies a download directory
type Kind string

const (
	KindNormal    Kind = "normal"
	KindFailed    Kind = "failed"
	KindUnpacking Kind = "unpacking"
)

// RawEntry is a directory found directly under a watched root
type RawEntry struct {
	Path    string
	Name    string
	ModTime time.Time
	Kind    Kind
}

// Classify derives the kind from the marker substrings. Failed wins over
// unpacking when both are present.
func Classify(name string) Kind {
	switch {
	case strings.Contains(name, FailedMarker):
		return KindFailed
	case strings.Contains(name, UnpackMarker):
		return KindUnpacking
	default:
		return KindNormal
	}
}

// ListDirectories returns the immediate subdirectories of root sorted by
// name. Files and entries that vanish while listing are ignored.
func ListDirectories(root string) ([]RawEntry, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, apperrors.FilesystemError("list", root, err)
	}

	dirs := make([]RawEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, RawEntry{
			Path:    filepath.Join(root, entry.Name()),
			Name:    entry.Name(),
			ModTime: info.ModTime(),
			Kind:    Classify(entry.Name()),
		})
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
	return dirs, nil
}

// ListNames returns the names of the immediate subdirectories of root
func ListNames(root string) (map[string]struct{}, error) {
	dirs, err := ListDirectories(root)
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(dirs))
	for _, d := range dirs {
		names[d.Name] = struct{}{}
	}
	return names, nil
}

// Exists reports whether anything, file or directory, is at path
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// OlderThan reports whether t is before now minus the given number of days
func OlderThan(t, now time.Time, days int) bool {
	return t.Before(now.AddDate(0, 0, -days))
}
