package config

import (
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// HiddenMatcher reports whether a workspace name matches one of the
// hidden_workspaces patterns. Patterns use gitignore syntax, so "tmp-*"
// hides every scratch workspace and "!tmp-keep" brings one back.
type HiddenMatcher struct {
	matcher *ignore.GitIgnore
}

func (c Config) Hidden() HiddenMatcher {
	var lines []string
	for _, pattern := range c.HiddenWorkspaces {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		lines = append(lines, pattern)
	}
	if len(lines) == 0 {
		return HiddenMatcher{}
	}
	return HiddenMatcher{matcher: ignore.CompileIgnoreLines(lines...)}
}

func (m HiddenMatcher) Match(name string) bool {
	if m.matcher == nil {
		return false
	}
	return m.matcher.MatchesPath(name)
}

// Filter returns names with hidden workspaces removed.
func (m HiddenMatcher) Filter(names []string) []string {
	if m.matcher == nil {
		return names
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if m.Match(name) {
			continue
		}
		out = append(out, name)
	}
	return out
}
