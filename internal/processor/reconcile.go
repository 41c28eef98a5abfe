package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/glefebvre/mediasorter/internal/fsutil"
	"github.com/glefebvre/mediasorter/internal/naming"
	"github.com/glefebvre/mediasorter/internal/placement"
)

// libraryIndex is the snapshot of show folder names in the kids and adult
// libraries, taken once per TV pass.
type libraryIndex struct {
	roots []string
	shows []map[string]struct{}
}

// lookup returns the library holding show. Kids is checked first; the
// match is exact and case sensitive.
func (idx *libraryIndex) lookup(show string) (string, bool) {
	for i, names := range idx.shows {
		if _, ok := names[show]; ok {
			return idx.roots[i], true
		}
	}
	return "", false
}

func (p *ShowProcessor) snapshotLibraries() *libraryIndex {
	idx := &libraryIndex{}
	for _, root := range []string{p.paths.KidsLibrary, p.paths.AdultLibrary} {
		if root == "" {
			continue
		}
		names, err := fsutil.ListNames(root)
		if err != nil {
			p.log.Error(fmt.Sprintf("Failed to read library %s, treating it as empty", root), err)
			names = map[string]struct{}{}
		}
		idx.roots = append(idx.roots, root)
		idx.shows = append(idx.shows, names)
	}
	return idx
}

var reBareEpisode = regexp.MustCompile(`(?i)E(\d{2})`)

// seasonIndex holds the episodes already present in a season folder.
// Entries carrying a full SxxExx marker are matched on season and episode;
// entries with only an Exx marker are matched on episode alone.
type seasonIndex struct {
	tokens map[string]struct{}
	bare   map[string]struct{}
}

func (s *seasonIndex) has(ep naming.Episode) bool {
	if _, ok := s.tokens[ep.Token()]; ok {
		return true
	}
	_, ok := s.bare[fmt.Sprintf("E%02d", ep.Episode)]
	return ok
}

func (s *seasonIndex) add(ep naming.Episode) {
	s.tokens[ep.Token()] = struct{}{}
}

func readSeason(path string) (*seasonIndex, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	idx := &seasonIndex{tokens: map[string]struct{}{}, bare: map[string]struct{}{}}
	for _, entry := range entries {
		if ep, ok := naming.ParseEpisode(entry.Name()); ok {
			idx.add(ep)
			continue
		}
		if m := reBareEpisode.FindStringSubmatch(entry.Name()); m != nil {
			idx.bare["E"+m[1]] = struct{}{}
		}
	}
	return idx, nil
}

// reconcile moves canonical episode folders from the completed root into
// their library season folder, or into duplicates when the season already
// holds the episode. Show aliases are resolved before the library lookup.
// Shows missing from both libraries stay where they are.
func (p *ShowProcessor) reconcile(ctx context.Context, libs *libraryIndex, stats *Statistics) error {
	entries, err := fsutil.ListDirectories(p.paths.Complete)
	if err != nil {
		return err
	}

	seasons := map[string]*seasonIndex{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			p.log.Warn("Reconciliation pass interrupted")
			return nil
		}
		if entry.Kind != fsutil.KindNormal {
			continue
		}

		ep, ok := naming.ParseEpisode(entry.Name)
		if !ok {
			continue
		}

		show := p.normalizer.ResolveAlias(ep.Show)
		library, ok := libs.lookup(show)
		if !ok {
			p.log.WithFields(map[string]interface{}{
				"directory": entry.Name,
				"show":      show,
			}).Info("Show not found in any library, leaving for manual classification")
			stats.Unmatched++
			continue
		}
		if show != ep.Show {
			p.log.Debug(fmt.Sprintf("Show %q filed under alias target %q", ep.Show, show))
		}

		seasonPath := filepath.Join(library, show, ep.SeasonDir())

		var strategies []placement.Strategy
		if !fsutil.Exists(seasonPath) {
			strategies = []placement.Strategy{placement.Library(seasonPath)}
		} else {
			idx, cached := seasons[seasonPath]
			if !cached {
				idx, err = readSeason(seasonPath)
				if err != nil {
					p.log.Error(fmt.Sprintf("Failed to read season folder %s", seasonPath), err)
					stats.addError(err.Error())
					continue
				}
				seasons[seasonPath] = idx
			}

			if idx.has(ep) {
				p.log.Info(fmt.Sprintf("%s already has %s, moving %s to duplicates", seasonPath, ep.Token(), entry.Name))
				strategies = []placement.Strategy{placement.Duplicates(p.paths.Duplicates)}
			} else {
				strategies = []placement.Strategy{placement.Library(seasonPath), placement.Duplicates(p.paths.Duplicates)}
			}
		}

		d := p.resolver.Place(entry.Path, entry.Name, strategies...)
		stats.count(d)
		p.record(ctx, PhaseReconcile, entry.Path, d)

		if d.Outcome == placement.OutcomeLibrary {
			if idx, ok := seasons[seasonPath]; ok {
				idx.add(ep)
			}
		}
	}
	return nil
}
