package naming

import (
	"fmt"
	"regexp"
)

// Correction is one configurable show name fix. Pattern is a regular
// expression; Replacement may reference groups with $1 or ${name}.
type Correction struct {
	Pattern     string
	Replacement string
}

// DefaultCorrections returns the built-in table used when the configuration
// does not provide one.
func DefaultCorrections() []Correction {
	return []Correction{
		{Pattern: `The 1 Percent Club`, Replacement: `The 1% Club`},
		{Pattern: `John Mulaney Presents Everybodys in L A`, Replacement: `John Mulaney Presents - Everybody’s in L.A`},
		{Pattern: `John Mulaney Presents - Everybody’s in L A`, Replacement: `John Mulaney Presents - Everybody’s in L.A`},
		{Pattern: `C S I $`, Replacement: `CSI - `},
		{Pattern: ` AU$`, Replacement: ` (AU)`},
		{Pattern: ` US$`, Replacement: ` (US)`},
	}
}

type rule struct {
	re          *regexp.Regexp
	replacement string
}

// word matches the characters a period must sit between to become a space.
const word = `[\p{L}\p{N}_]`

var (
	reDotBetweenWords = regexp.MustCompile(`(` + word + `)\.(` + word + `)`)
	reDotDashDot      = regexp.MustCompile(`\.-\.`)
	reLeadingSpace    = regexp.MustCompile(`^\s+`)
	reTrailingDot     = regexp.MustCompile(`\.\s*$`)
	reBracketed       = regexp.MustCompile(`\s*\[.*?\]\s*`)
)

// cleanupRules are the fixed steps applied before the correction table.
var cleanupRules = []rule{
	{reDotDashDot, ""},
	{reLeadingSpace, ""},
	{reTrailingDot, ""},
	{reBracketed, ""},
}

func compileCorrections(corrections []Correction) ([]rule, error) {
	rules := make([]rule, 0, len(corrections))
	for i, c := range corrections {
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return nil, fmt.Errorf("correction %d (%q): %w", i, c.Pattern, err)
		}
		rules = append(rules, rule{re: re, replacement: c.Replacement})
	}
	return rules, nil
}

// dedot replaces every period flanked by word characters with a space.
// Matches consume their neighbours, so "A.B.C" needs a second pass.
func dedot(s string) string {
	for {
		next := reDotBetweenWords.ReplaceAllString(s, "${1} ${2}")
		if next == s {
			return s
		}
		s = next
	}
}
