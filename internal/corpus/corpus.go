// Package corpus lists the candidate image files of a directory, applying
// exclude globs. It does not inspect file contents: unsupported or broken
// files are reported later, when a view is built.
package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Options controls directory listing.
type Options struct {
	Recursive bool
	Excludes  []string
}

// CheckDir returns an error unless dir exists and is a directory.
func CheckDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("image directory %s does not exist", dir)
		}
		return fmt.Errorf("cannot stat image directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("image directory path is not a directory: %s", dir)
	}
	return nil
}

// List returns the files under dir, sorted by name. Without Recursive only
// the direct children of dir are returned.
func List(dir string, opts Options) ([]string, error) {
	if err := CheckDir(dir); err != nil {
		return nil, err
	}
	if !opts.Recursive {
		return listFlat(dir, opts.Excludes)
	}

	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if matchesExclude(rel, opts.Excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cannot scan %s: %w", dir, err)
	}
	return out, nil
}

func listFlat(dir string, excludes []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || matchesExclude(e.Name(), excludes) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

// matchesExclude reports whether relPath matches any of the given glob patterns.
func matchesExclude(relPath string, patterns []string) bool {
	name := filepath.Base(relPath)
	for _, pattern := range patterns {
		// Match against the full relative path AND just the basename.
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, relPath); matched {
			return true
		}
	}
	return false
}
