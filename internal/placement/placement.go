// Package placement decides where a normalized directory ends up and moves
// it there. Strategies are tried in order and exactly one of them places
// the entry; collisions are resolved by appending " (N)" to the name.
package placement

import (
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/glefebvre/mediasorter/internal/errors"
	"github.com/glefebvre/mediasorter/internal/fsutil"
	"github.com/glefebvre/mediasorter/internal/logger"
)

// Outcome is the kind of placement that was performed
type Outcome string

const (
	OutcomeLibrary    Outcome = "library"
	OutcomeDuplicates Outcome = "duplicates"
	OutcomeInPlace    Outcome = "in_place"
	OutcomeSkipped    Outcome = "skipped"
)

// Decision is the result of placing one entry
type Decision struct {
	Outcome Outcome
	Path    string
	Reason  string
	Err     error
}

// Placed reports whether the entry was moved or renamed
func (d Decision) Placed() bool {
	return d.Outcome != OutcomeSkipped
}

// Strategy is one candidate destination. A numbered strategy always finds
// a free slot; an unnumbered one falls through when its slot is taken.
type Strategy struct {
	Outcome  Outcome
	Root     string
	Numbered bool
	// CreateRoot creates Root before moving when it does not exist yet
	CreateRoot bool
}

// Library targets <root>/<name> and falls through when it is taken
func Library(root string) Strategy {
	return Strategy{Outcome: OutcomeLibrary, Root: root, CreateRoot: true}
}

// Duplicates targets <root>/<name>, numbering on collision
func Duplicates(root string) Strategy {
	return Strategy{Outcome: OutcomeDuplicates, Root: root, Numbered: true, CreateRoot: true}
}

// InPlace renames within parent, numbering on collision
func InPlace(parent string) Strategy {
	return Strategy{Outcome: OutcomeInPlace, Root: parent, Numbered: true}
}

// Rename renames within parent only when the exact name is free
func Rename(parent string) Strategy {
	return Strategy{Outcome: OutcomeInPlace, Root: parent}
}

// Resolver moves directories according to a list of strategies
type Resolver struct {
	log    *logger.Logger
	rename func(oldpath, newpath string) error
}

// NewResolver creates a resolver logging to log
func NewResolver(log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Discard()
	}
	return &Resolver{log: log, rename: os.Rename}
}

// Place moves src to the first strategy with a free slot for name. When no
// strategy applies, or the move fails, the entry stays where it is and the
// decision is OutcomeSkipped.
func (r *Resolver) Place(src, name string, strategies ...Strategy) Decision {
	name = SanitizeName(name)
	src = filepath.Clean(src)

	for _, s := range strategies {
		target, ok := probe(s.Root, name, s.Numbered, src)
		if target == src {
			return Decision{Outcome: OutcomeSkipped, Path: src, Reason: "already in place"}
		}
		if !ok {
			r.log.WithFields(map[string]interface{}{
				"source":   src,
				"target":   target,
				"strategy": string(s.Outcome),
			}).Debug("Destination already exists, trying next strategy")
			continue
		}

		if s.CreateRoot {
			if err := os.MkdirAll(s.Root, 0o755); err != nil {
				return r.failed(src, apperrors.FilesystemError("mkdir", s.Root, err))
			}
		}

		if err := r.rename(src, target); err != nil {
			return r.failed(src, apperrors.FilesystemError("move", src, err))
		}

		r.log.Info(fmt.Sprintf("Moved %s to %s", src, target))
		return Decision{Outcome: s.Outcome, Path: target}
	}

	return Decision{Outcome: OutcomeSkipped, Path: src, Reason: "no free destination"}
}

func (r *Resolver) failed(src string, err error) Decision {
	r.log.Error(fmt.Sprintf("Failed to place %s", src), err)
	return Decision{Outcome: OutcomeSkipped, Path: src, Reason: "filesystem error", Err: err}
}

// Candidate returns the path name would get under root. Without numbering
// the second return value is false when <root>/<name> is taken. With
// numbering, " (1)", " (2)", ... are probed until a free slot is found.
func Candidate(root, name string, numbered bool) (string, bool) {
	return probe(root, name, numbered, "")
}

// probe is Candidate with self counted as a free slot, so an entry that
// already holds one of its own candidate names is found in place.
func probe(root, name string, numbered bool, self string) (string, bool) {
	free := func(path string) bool {
		return path == self || !fsutil.Exists(path)
	}

	target := filepath.Join(root, name)
	if free(target) {
		return target, true
	}
	if !numbered {
		return target, false
	}
	for n := 1; ; n++ {
		target = filepath.Join(root, fmt.Sprintf("%s (%d)", name, n))
		if free(target) {
			return target, true
		}
	}
}

// SanitizeName replaces path separators so a name always stays a single
// path element.
func SanitizeName(name string) string {
	replacer := map[rune]rune{
		'/':  '_',
		'\\': '_',
		0:    '_',
	}

	result := []rune(name)
	for i, r := range result {
		if replacement, ok := replacer[r]; ok {
			result[i] = replacement
		}
	}
	return string(result)
}
