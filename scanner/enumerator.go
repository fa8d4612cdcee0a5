package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"imagecurator/imageprocessor/formats"
	"imagecurator/logging"
)

// Enumerator lists candidate files under a root
type Enumerator interface {
	List(ctx context.Context, root string) ([]string, error)
}

// FileEnumerator walks a directory tree and returns image files as sorted
// absolute paths. Unreadable entries are logged and skipped.
type FileEnumerator struct {
	// Match overrides the extension filter; nil means formats.IsImageFile
	Match func(path string) bool
}

// List implements Enumerator
func (e FileEnumerator) List(ctx context.Context, root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	match := e.Match
	if match == nil {
		match = formats.IsImageFile
	}

	var paths []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if walkErr != nil {
			if path == abs {
				return walkErr
			}
			logging.LogWarning("Skipping unreadable entry %s: %v", path, walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != abs && isHidden(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || isHidden(d.Name()) {
			return nil
		}
		if match(path) {
			paths = append(paths, filepath.Clean(path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	slices.Sort(paths)
	return paths, nil
}

// isHidden reports dot-prefixed names, which the enumerator never descends into
func isHidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".")
}
