package sync

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gadget1999/gobox/internal/action"
	gitignore "github.com/sabhiram/go-gitignore"
)

// Matcher decides which relative paths are excluded. Each entry is matched
// on its own full path; excluding a folder does not exclude its children.
type Matcher struct {
	re     *regexp.Regexp
	glob   string
	ignore *gitignore.GitIgnore
}

// NewMatcher compiles the exclusion flags. A zero Excludes yields a matcher
// that excludes nothing.
func NewMatcher(ex action.Excludes) (*Matcher, error) {
	m := &Matcher{}
	if ex.Pattern != "" {
		re, err := regexp.Compile(ex.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", ex.Pattern, err)
		}
		m.re = re
	}
	if ex.Glob != "" {
		if !doublestar.ValidatePattern(ex.Glob) {
			return nil, fmt.Errorf("invalid exclude glob %q", ex.Glob)
		}
		m.glob = ex.Glob
	}
	if ex.From != "" {
		ig, err := gitignore.CompileIgnoreFile(ex.From)
		if err != nil {
			return nil, fmt.Errorf("read exclude file %s: %w", ex.From, err)
		}
		m.ignore = ig
	}
	return m, nil
}

// Match reports whether the entry at rel is excluded. rel starts with "/".
func (m *Matcher) Match(rel string, isDir bool) bool {
	if m == nil {
		return false
	}
	if m.re != nil && m.re.MatchString(rel) {
		return true
	}
	trimmed := strings.TrimPrefix(rel, "/")
	if m.glob != "" {
		if ok, _ := doublestar.Match(m.glob, trimmed); ok {
			return true
		}
	}
	if m.ignore != nil {
		if isDir {
			trimmed += "/"
		}
		if m.ignore.MatchesPath(trimmed) {
			return true
		}
	}
	return false
}
