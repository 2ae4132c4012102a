package repoindexer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ResolveRoots expands root patterns to absolute repository directories.
// Patterns may use * and ** wildcards; plain paths must name a directory.
//
// Examples:
//   - "./services/*" → ["/abs/services/auth", "/abs/services/users"]
//   - "." → ["/abs"]
func ResolveRoots(patterns []string) ([]string, error) {
	var roots []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		dirs, err := resolveRoot(pattern)
		if err != nil {
			return nil, fmt.Errorf("resolve root %q: %w", pattern, err)
		}
		for _, d := range dirs {
			if !seen[d] {
				seen[d] = true
				roots = append(roots, d)
			}
		}
	}
	return roots, nil
}

func resolveRoot(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[{") {
		abs, err := filepath.Abs(pattern)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("not a directory: %s", abs)
		}
		return []string{abs}, nil
	}

	base, glob := doublestar.SplitPattern(filepath.ToSlash(pattern))
	absBase, err := filepath.Abs(filepath.FromSlash(base))
	if err != nil {
		return nil, err
	}
	matches, err := doublestar.FilepathGlob(filepath.Join(absBase, filepath.FromSlash(glob)))
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}

	var dirs []string
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.IsDir() {
			dirs = append(dirs, m)
		}
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no directories match pattern: %s", pattern)
	}
	return dirs, nil
}
