// Package scan builds the image catalog from a directory tree.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/sirupsen/logrus"
)

// ErrEmptyCatalog is returned when a scan finds no usable images.
// It is a fatal startup condition for the slideshow.
var ErrEmptyCatalog = errors.New("no images found")

// DefaultExtensions are the file extensions accepted when none are configured.
// Matching is exact, so upper-case variants must be listed explicitly if wanted.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// FileItem represents one cataloged image file.
type FileItem struct {
	Path string
}

// FileItems is an ordered catalog of image files.
type FileItems []FileItem

// Paths returns just the path strings, in catalog order.
func (m FileItems) Paths() []string {
	paths := make([]string, len(m))
	for i, item := range m {
		paths[i] = item.Path
	}
	return paths
}

// Options controls which files a scan accepts.
type Options struct {
	Extensions []string // allowed extensions, defaults to DefaultExtensions
	Ignore     []string // glob patterns matched against the full path
	Logger     *logrus.Logger
}

// Filter is the acceptance predicate a scan was configured with.
// The watcher reuses it so both agree on what counts as an image.
type Filter func(path string) bool

// NewFilter compiles the options into a path predicate.
// Invalid glob patterns are reported as an error up front rather than
// silently never matching.
func NewFilter(opts Options) (Filter, error) {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		allowed[e] = true
	}

	globs := make([]glob.Glob, 0, len(opts.Ignore))
	for _, pattern := range opts.Ignore {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad ignore pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}

	return func(path string) bool {
		if !allowed[filepath.Ext(path)] {
			return false
		}
		for _, g := range globs {
			if g.Match(path) {
				return false
			}
		}
		return true
	}, nil
}

// Scan walks root top-down and returns the catalog of matching images
// as absolute paths. WalkDir visits each directory's entries in
// lexical order, which keeps the catalog deterministic across runs.
// Zero-byte files are skipped; they decode to nothing useful.
func Scan(root string, opts Options) (FileItems, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	accept, err := NewFilter(opts)
	if err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}

	var items FileItems
	walkErr := filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == absRoot {
				return err
			}
			logger.WithField("path", p).WithError(err).Warn("skipping unreadable entry")
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !accept(p) {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() == 0 {
			return nil
		}
		items = append(items, FileItem{Path: p})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("scanning %s: %w", absRoot, walkErr)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmptyCatalog, absRoot)
	}
	logger.WithFields(logrus.Fields{"root": absRoot, "count": len(items)}).Debug("catalog built")
	return items, nil
}
