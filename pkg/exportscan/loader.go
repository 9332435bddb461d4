// Package exportscan finds Python modules on disk and resolves their exports.
package exportscan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoFiles is returned when the patterns match no Python files.
var ErrNoFiles = errors.New("no python files found")

// allPattern is the default pattern, meaning every .py file under Dir.
const allPattern = "./..."

// skippedDirs are never descended into.
var skippedDirs = map[string]bool{
	"__pycache__":  true,
	".git":         true,
	".venv":        true,
	"venv":         true,
	"node_modules": true,
	".tox":         true,
}

// LoaderOptions configures file discovery.
type LoaderOptions struct {
	// Patterns are files, directories or doublestar globs such as "src/**/*.py".
	// An empty list means "./...".
	Patterns []string

	// Dir is the directory patterns are relative to.
	// If empty, uses the current working directory.
	Dir string

	// Exclude lists doublestar globs; matching files are dropped.
	Exclude []string
}

// LoadFiles expands the configured patterns into a sorted, deduplicated list
// of Python file paths. Paths are joined onto Dir so they can be opened as-is.
func LoadFiles(ctx context.Context, opts LoaderOptions) ([]string, error) {
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = []string{allPattern}
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	for _, ex := range opts.Exclude {
		if !doublestar.ValidatePattern(filepath.ToSlash(ex)) {
			return nil, fmt.Errorf("invalid exclude pattern %q", ex)
		}
	}

	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fsys, base, rel := patternFS(dir, pattern)
		matches, err := expandPattern(ctx, fsys, rel)
		if err != nil {
			return nil, fmt.Errorf("expanding pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			file := filepath.Join(base, filepath.FromSlash(m))
			if seen[file] || excluded(m, opts.Exclude) {
				continue
			}
			seen[file] = true
			files = append(files, file)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w matching patterns: %v", ErrNoFiles, patterns)
	}

	slices.Sort(files)
	return files, nil
}

// patternFS picks the file system a pattern is evaluated against. Absolute
// patterns are rooted at their volume. Patterns leading out of dir with ".."
// are rooted at the ancestor they climb to, since fs.FS paths cannot contain
// "..". Everything else is rooted at dir.
func patternFS(dir, pattern string) (fs.FS, string, string) {
	if filepath.IsAbs(pattern) {
		base := filepath.VolumeName(pattern) + string(filepath.Separator)
		rel := strings.TrimPrefix(pattern, base)
		if rel == "" {
			rel = "."
		}
		return os.DirFS(base), base, rel
	}

	rel := path.Clean(filepath.ToSlash(pattern))
	if rel != ".." && !strings.HasPrefix(rel, "../") {
		return os.DirFS(dir), dir, pattern
	}
	base := dir
	for rel == ".." || strings.HasPrefix(rel, "../") {
		base = filepath.Join(base, "..")
		rel = strings.TrimPrefix(strings.TrimPrefix(rel, ".."), "/")
	}
	if rel == "" {
		rel = "."
	}
	return os.DirFS(base), base, rel
}

// expandPattern resolves one pattern against fsys.
func expandPattern(ctx context.Context, fsys fs.FS, pattern string) ([]string, error) {
	p := filepath.ToSlash(pattern)
	if before, ok := strings.CutSuffix(p, "/..."); ok || p == "..." {
		if !ok {
			before = "."
		}
		return walkPython(ctx, fsys, cleanRel(before))
	}

	p = cleanRel(p)
	info, err := fs.Stat(fsys, p)
	switch {
	case err == nil && info.IsDir():
		return walkPython(ctx, fsys, p)
	case err == nil:
		return []string{p}, nil
	}

	if !doublestar.ValidatePattern(p) {
		return nil, fmt.Errorf("invalid pattern")
	}
	matches, err := doublestar.Glob(fsys, p, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	var out []string
	for _, m := range matches {
		if isPython(m) && !inSkippedDir(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

// walkPython collects .py files under root, skipping tool and cache directories.
func walkPython(ctx context.Context, fsys fs.FS, root string) ([]string, error) {
	var out []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && skippedDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if isPython(p) {
			out = append(out, p)
		}
		return nil
	})
	return out, err
}

func excluded(file string, patterns []string) bool {
	for _, ex := range patterns {
		if doublestar.MatchUnvalidated(filepath.ToSlash(ex), file) {
			return true
		}
	}
	return false
}

func isPython(p string) bool {
	return strings.HasSuffix(p, ".py")
}

func inSkippedDir(p string) bool {
	for _, seg := range strings.Split(path.Dir(p), "/") {
		if skippedDirs[seg] {
			return true
		}
	}
	return false
}

// cleanRel turns a pattern into the unrooted form fs.FS expects.
func cleanRel(p string) string {
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "./")
	if p == "" {
		return "."
	}
	return p
}
