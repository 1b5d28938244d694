package filter

import (
	"strings"

	"github.com/gobwas/glob"
)

// Glob compiles an include/exclude pair of shell-style glob lists once
// and evaluates names against them (spec section 4.4.2). Matching is
// case-sensitive except when caseInsensitive is set, which lowers both
// the pattern and the evaluated name -- used for engine names.
type Glob struct {
	include         []glob.Glob
	exclude         []glob.Glob
	caseInsensitive bool
}

// NewGlob compiles include and exclude into a Glob. Either list may be
// empty; an empty include list means "everything passes the include
// test".
func NewGlob(include, exclude []string, caseInsensitive bool) (*Glob, error) {
	inc, err := compileGlobs(include, caseInsensitive)
	if err != nil {
		return nil, err
	}
	exc, err := compileGlobs(exclude, caseInsensitive)
	if err != nil {
		return nil, err
	}
	return &Glob{include: inc, exclude: exc, caseInsensitive: caseInsensitive}, nil
}

func compileGlobs(patterns []string, caseInsensitive bool) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		if caseInsensitive {
			p = strings.ToLower(p)
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

// Evaluate reports ErrFilteredItem (wrapped in a *FilteredItemError) if
// name fails the include test (when an include list is present) or
// matches any exclude pattern; otherwise nil.
func (g *Glob) Evaluate(name string) error {
	test := name
	if g.caseInsensitive {
		test = strings.ToLower(test)
	}
	if len(g.include) > 0 {
		matched := false
		for _, inc := range g.include {
			if inc.Match(test) {
				matched = true
				break
			}
		}
		if !matched {
			return &FilteredItemError{Text: name, Reason: "matched no include pattern"}
		}
	}
	for _, exc := range g.exclude {
		if exc.Match(test) {
			return &FilteredItemError{Text: name, Reason: "matched an exclude pattern"}
		}
	}
	return nil
}
