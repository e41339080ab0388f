// Package discovery enumerates the working copies below configured local
// root directories.
package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/skaphos/gitsync/internal/gitx"
)

// Entry is one candidate working copy.
type Entry struct {
	Path string // absolute path to the directory
	Name string // display name, ".git" suffix stripped
}

// Result collects the entries of one or more roots.
type Result struct {
	Entries []Entry
	// Missing lists configured roots that resolved to no directory.
	Missing []string
}

// Options configures the scan.
type Options struct {
	// Roots may be plain directories or doublestar patterns.
	Roots   []string
	Exclude []string // glob patterns to skip
}

// Scan lists the immediate subdirectories of every root. Missing roots are
// recorded, not returned as errors.
func Scan(opts Options) (Result, error) {
	var res Result
	for _, pattern := range opts.Roots {
		if pattern == "" {
			continue
		}
		roots, err := ExpandRoot(pattern)
		if err != nil {
			return res, err
		}
		if len(roots) == 0 {
			res.Missing = append(res.Missing, pattern)
			continue
		}
		for _, root := range roots {
			entries, err := Children(root, opts.Exclude)
			if err != nil {
				return res, err
			}
			res.Entries = append(res.Entries, entries...)
		}
	}
	return res, nil
}

// ExpandRoot resolves a root that may contain glob metacharacters into the
// existing directories it names, sorted.
func ExpandRoot(pattern string) ([]string, error) {
	abs, err := filepath.Abs(pattern)
	if err != nil {
		return nil, err
	}
	if !HasGlob(abs) {
		if isDir(abs) {
			return []string{abs}, nil
		}
		return nil, nil
	}
	base, rest := doublestar.SplitPattern(filepath.ToSlash(abs))
	matches, err := doublestar.Glob(os.DirFS(filepath.FromSlash(base)), rest)
	if err != nil {
		return nil, err
	}
	var roots []string
	for _, m := range matches {
		full := filepath.Join(filepath.FromSlash(base), filepath.FromSlash(m))
		if isDir(full) {
			roots = append(roots, full)
		}
	}
	sort.Strings(roots)
	return roots, nil
}

// Children returns the immediate subdirectories of root, skipping
// excluded paths. Symlinks to directories are followed one level.
func Children(root string, exclude []string) ([]Entry, error) {
	dirents, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for _, d := range dirents {
		path := filepath.Join(root, d.Name())
		if !d.IsDir() {
			if d.Type()&os.ModeSymlink == 0 || !isDir(path) {
				continue
			}
		}
		if MatchesExclude(path, exclude) {
			continue
		}
		entries = append(entries, Entry{Path: path, Name: gitx.TrimRepoSuffix(d.Name())})
	}
	return entries, nil
}

// MatchesExclude checks whether a path matches any of the given exclude
// glob patterns.
func MatchesExclude(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	slashPath := filepath.ToSlash(path)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		match, err := doublestar.Match(pattern, slashPath)
		if err != nil {
			continue
		}
		if match {
			return true
		}
	}
	return false
}

// HasGlob reports whether a path contains glob metacharacters.
func HasGlob(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
