package category

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ryanuber/go-glob"

	"github.com/cdnctl/snapdiff/pkg/errors"
)

const (
	globPrefix   = "glob:"
	regexpPrefix = "regexp:"
)

// Pattern selects categories by name.
type Pattern interface {
	Matches(name string) bool
	// String returns the prefixed string representation.
	String() string
	Valid() bool
}

type GlobPattern string

// RegexpPattern matches by regular expression.
type RegexpPattern struct {
	pattern string // pattern without prefix
	regexp  *regexp.Regexp
}

// NewPattern instantiates a Pattern according to the prefix it finds.
// The prefix can be either `glob:` (default if omitted) or `regexp:`.
func NewPattern(pattern string) Pattern {
	if strings.HasPrefix(pattern, regexpPrefix) {
		pattern = strings.TrimPrefix(pattern, regexpPrefix)
		r, _ := regexp.Compile(pattern)
		return RegexpPattern{pattern, r}
	}
	return GlobPattern(strings.TrimPrefix(pattern, globPrefix))
}

func (g GlobPattern) Matches(name string) bool {
	return glob.Glob(string(g), name)
}

func (g GlobPattern) String() string {
	return globPrefix + string(g)
}

func (g GlobPattern) Valid() bool {
	return true
}

func (r RegexpPattern) Matches(name string) bool {
	if r.regexp == nil {
		return false
	}
	return r.regexp.MatchString(name)
}

func (r RegexpPattern) String() string {
	return regexpPrefix + r.pattern
}

func (r RegexpPattern) Valid() bool {
	return r.regexp != nil
}

// Select returns the built-in strategies whose name, or section name,
// matches any of the patterns, in presentation order. A pattern which
// is invalid or matches nothing is an error.
func Select(patterns ...string) ([]Strategy, error) {
	selected := map[string]bool{}
	for _, p := range patterns {
		pattern := NewPattern(p)
		if !pattern.Valid() {
			return nil, &errors.Error{
				Type: errors.User,
				Err:  fmt.Errorf("invalid category pattern %q", p),
				Help: fmt.Sprintf("The category pattern %q is not a valid regular expression.\n", p),
			}
		}
		found := false
		for _, s := range Builtin() {
			if pattern.Matches(s.Name()) || pattern.Matches(string(s.(sectionStrategy).section)) {
				selected[s.Name()] = true
				found = true
			}
		}
		if !found {
			return nil, UnknownCategoryError(p)
		}
	}

	var strategies []Strategy
	for _, s := range Builtin() {
		if selected[s.Name()] {
			strategies = append(strategies, s)
		}
	}
	return strategies, nil
}
