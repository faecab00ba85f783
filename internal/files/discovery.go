package files

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	apperrors "mlxcli/internal/errors"
)

// DefaultPattern matches MassLynx ASCII exports
const DefaultPattern = "*.txt"

// officeLockPrefix marks the owner files Office leaves next to open documents
const officeLockPrefix = "~$"

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string // absolute path
	RelPath string // slash-separated path relative to the discovery root
	Name    string
	Size    int64
}

// Discovery provides file discovery operations below a root directory
type Discovery struct {
	root    string
	exclude map[string]struct{}
}

// NewDiscovery creates a new file discovery instance. Files in exclude
// (typically the output workbook) are never returned.
func NewDiscovery(root string, exclude ...string) *Discovery {
	d := &Discovery{root: root, exclude: make(map[string]struct{}, len(exclude))}
	for _, p := range exclude {
		if abs, err := filepath.Abs(p); err == nil {
			d.exclude[abs] = struct{}{}
		}
	}
	return d
}

// FindChromatograms lists the files below the root matching any of
// patterns, compared case-insensitively against the file name. With
// recursive set, subdirectories are searched too. Results are sorted by
// relative path.
func (d *Discovery) FindChromatograms(recursive bool, patterns []string) ([]FileInfo, error) {
	if len(patterns) == 0 {
		patterns = []string{DefaultPattern}
	}
	globs := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(filepath.ToSlash(p))
		if !doublestar.ValidatePattern(p) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("invalid file pattern %q", p), nil)
		}
		if recursive && !strings.HasPrefix(p, "**/") {
			p = "**/" + p
		}
		globs = append(globs, p)
	}

	info, err := os.Stat(d.root)
	if err != nil {
		return nil, apperrors.NewNotFoundError("input directory").Wrap(err).WithContext("path", d.root)
	}
	if !info.IsDir() {
		return nil, apperrors.NewValidationError("input path is not a directory", nil).WithContext("path", d.root)
	}

	var found []FileInfo
	err = filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path != d.root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), officeLockPrefix) {
			return nil
		}

		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !matchAny(globs, strings.ToLower(rel)) {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if _, skip := d.exclude[abs]; skip {
			return nil
		}

		fi, err := entry.Info()
		if err != nil {
			return nil
		}
		found = append(found, FileInfo{Path: abs, RelPath: rel, Name: entry.Name(), Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, apperrors.NewStorageError("failed to scan input directory", err).WithContext("path", d.root)
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].RelPath < found[j].RelPath
	})
	return found, nil
}

func matchAny(globs []string, rel string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}
