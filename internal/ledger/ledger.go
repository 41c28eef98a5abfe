// Package ledger maintains the ".renamed" marker file. Its presence in a
// directory means the directory and its files have already been
// normalized; the content is an audit trail and is never parsed back.
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/glefebvre/mediasorter/internal/errors"
)

// FileName is the marker file name
const FileName = ".renamed"

const timestampLayout = "2006-01-02 15:04:05"

// Rename is one (original name, new name) pair
type Rename struct {
	From string
	To   string
}

// Exists reports whether dir carries a marker file
func Exists(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil && info.Mode().IsRegular()
}

// Append writes one timestamped block with the given renames to the marker
// in dir, creating the file when needed. Nothing is written for an empty
// batch. Failures come back as MARKER_WRITE_ERROR.
func Append(dir string, now time.Time, renames []Rename) error {
	if len(renames) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Timestamp: %s\n", now.Format(timestampLayout))
	for _, r := range renames {
		fmt.Fprintf(&b, "original name: %s\n", r.From)
		fmt.Fprintf(&b, "new name: %s\n", r.To)
	}
	b.WriteString("\n")

	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return apperrors.MarkerWriteError(dir, err)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return apperrors.MarkerWriteError(dir, err)
	}
	if err := f.Close(); err != nil {
		return apperrors.MarkerWriteError(dir, err)
	}
	return nil
}
