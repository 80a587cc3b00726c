package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Expand resolves a leading "~" and $VAR references in a configured path.
func Expand(path string) string {
	value := strings.TrimSpace(path)
	if value == "" {
		return ""
	}
	value = os.ExpandEnv(value)
	if value == "~" || strings.HasPrefix(value, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			value = filepath.Join(home, strings.TrimPrefix(value, "~"))
		}
	}
	return filepath.Clean(value)
}

// Canonical returns an absolute, symlink-resolved path when possible. When
// the path does not exist yet, the deepest existing parent is resolved and
// the rest is joined back on.
func Canonical(path string) string {
	clean := filepath.Clean(strings.TrimSpace(path))
	if clean == "" || clean == "." {
		return clean
	}
	if abs, err := filepath.Abs(clean); err == nil {
		clean = abs
	}
	if resolved, err := filepath.EvalSymlinks(clean); err == nil {
		return filepath.Clean(resolved)
	}

	prefix := clean
	var suffix []string
	for {
		if _, err := os.Lstat(prefix); err == nil {
			resolved, err := filepath.EvalSymlinks(prefix)
			if err != nil {
				break
			}
			parts := append([]string{resolved}, suffix...)
			return filepath.Join(parts...)
		}
		dir := filepath.Dir(prefix)
		if dir == prefix {
			break
		}
		suffix = append([]string{filepath.Base(prefix)}, suffix...)
		prefix = dir
	}
	return clean
}
