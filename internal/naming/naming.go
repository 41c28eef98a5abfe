// Package naming turns loosely structured download directory names into
// canonical library names: "Title (Year)" for movies and "Show SxxExx" for
// episodes. Everything here is pure string work; nothing touches the disk.
package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/glefebvre/mediasorter/internal/errors"
)

var (
	reMovie   = regexp.MustCompile(`^(?P<title>.*?)(?:\s|\.|\()?(?P<year>[12][0-9]{3})(?:\D.*)?$`)
	reEpisode = regexp.MustCompile(`(?i)^(.*?)(S\d{2})(E\d{2}).*$`)
)

// Episode is the parsed form of a canonical or raw episode name
type Episode struct {
	Show    string
	Season  int
	Episode int
}

// Token returns the "SxxExx" marker
func (e Episode) Token() string {
	return fmt.Sprintf("S%02dE%02d", e.Season, e.Episode)
}

// Name returns the canonical "<Show> SxxExx" form
func (e Episode) Name() string {
	return e.Show + " " + e.Token()
}

// SeasonDir returns the library season folder name, "Season <N>"
func (e Episode) SeasonDir() string {
	return fmt.Sprintf("Season %d", e.Season)
}

// Normalizer holds the compiled show name correction table and the show
// alias lookup
type Normalizer struct {
	corrections []rule
	aliases     map[string]string
}

// NewNormalizer compiles the correction table. An empty table means no
// show specific corrections are applied.
func NewNormalizer(corrections []Correction, aliases ...Alias) (*Normalizer, error) {
	rules, err := compileCorrections(corrections)
	if err != nil {
		return nil, apperrors.ConfigError("invalid show name correction", err)
	}
	lookup, err := indexAliases(aliases)
	if err != nil {
		return nil, apperrors.ConfigError("invalid show alias", err)
	}
	return &Normalizer{corrections: rules, aliases: lookup}, nil
}

// ResolveAlias returns the library folder name registered for show, or
// show itself when it is not a known alternate.
func (n *Normalizer) ResolveAlias(show string) string {
	if n == nil {
		return show
	}
	if name, ok := n.aliases[show]; ok {
		return name
	}
	return show
}

// NormalizeMovie maps a directory name to "<Title> (<Year>)". It returns a
// NoYearFound error when the name carries no 19xx/20xx-style year.
func NormalizeMovie(name string) (string, error) {
	m := reMovie.FindStringSubmatch(name)
	if m == nil {
		return "", apperrors.NoYearFound(name)
	}

	title := strings.TrimSpace(m[reMovie.SubexpIndex("title")])
	title = strings.ReplaceAll(title, ".", " ")
	title = strings.NewReplacer("(", "", ")", "").Replace(title)
	title = strings.TrimSpace(title)
	year := m[reMovie.SubexpIndex("year")]

	if title == "" {
		return "(" + year + ")", nil
	}
	return fmt.Sprintf("%s (%s)", title, year), nil
}

// NormalizeShow maps a directory name to "<Show> SxxExx". It returns
// NoShowPatternFound when there is no season/episode marker and Unchanged
// when the name already is canonical.
func (n *Normalizer) NormalizeShow(name string) (string, error) {
	ep, err := n.ParseShow(name)
	if err != nil {
		return "", err
	}
	canonical := ep.Name()
	if canonical == name {
		return "", apperrors.Unchanged(name)
	}
	return canonical, nil
}

// ParseShow extracts and corrects the show name, season and episode.
func (n *Normalizer) ParseShow(name string) (Episode, error) {
	ep, ok := ParseEpisode(name)
	if !ok {
		return Episode{}, apperrors.NoShowPatternFound(name)
	}
	ep.Show = n.CorrectShowName(ep.Show)
	return ep, nil
}

// CorrectShowName runs the ordered cleanup chain followed by the correction
// table. Each step sees the output of the previous one. Running it on an
// already corrected name returns the name unchanged.
func (n *Normalizer) CorrectShowName(show string) string {
	show = dedot(show)
	for _, r := range cleanupRules {
		show = r.re.ReplaceAllString(show, r.replacement)
	}
	for _, r := range n.corrections {
		show = r.re.ReplaceAllString(show, r.replacement)
	}
	return show
}

// ParseEpisode reads show, season and episode from a name without applying
// any correction. The show part is only trimmed.
func ParseEpisode(name string) (Episode, bool) {
	m := reEpisode.FindStringSubmatch(name)
	if m == nil {
		return Episode{}, false
	}
	season, err := strconv.Atoi(m[2][1:])
	if err != nil {
		return Episode{}, false
	}
	episode, err := strconv.Atoi(m[3][1:])
	if err != nil {
		return Episode{}, false
	}
	return Episode{
		Show:    strings.TrimSpace(m[1]),
		Season:  season,
		Episode: episode,
	}, true
}
