package naming

import "fmt"

// Alias maps alternate spellings of a show to the folder name used in the
// libraries
type Alias struct {
	Name       string
	Alternates []string
}

// DefaultAliases returns the built-in alias table used when the
// configuration does not provide one.
func DefaultAliases() []Alias {
	return []Alias{
		{
			Name:       "Nightmares & Dreamscapes - From the Stories of Stephen King",
			Alternates: []string{"Nightmares & Dreamscapes From The Stories Of Stephen King"},
		},
		{
			Name:       "Coastguard - Every Second Counts",
			Alternates: []string{"Coastguard Search and Rescue"},
		},
	}
}

// indexAliases builds the alternate to name lookup. An alternate claimed by
// two different shows is rejected.
func indexAliases(aliases []Alias) (map[string]string, error) {
	lookup := make(map[string]string)
	for _, a := range aliases {
		if a.Name == "" {
			return nil, fmt.Errorf("alias without a show name")
		}
		for _, alt := range a.Alternates {
			if prev, ok := lookup[alt]; ok && prev != a.Name {
				return nil, fmt.Errorf("alternate %q maps to both %q and %q", alt, prev, a.Name)
			}
			lookup[alt] = a.Name
		}
	}
	return lookup, nil
}
