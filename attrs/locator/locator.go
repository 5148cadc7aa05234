// Package locator scans directory trees for PHP files and extracts their
// attributes in parallel.
package locator

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/satishbabariya/phpattr/attrs"
	"github.com/satishbabariya/phpattr/attrs/reader"
	"github.com/satishbabariya/phpattr/internal/debug"
)

// DefaultExtensions lists the file extensions scanned when none are given.
var DefaultExtensions = []string{".php"}

// Options controls a directory scan.
type Options struct {
	// Extensions are matched case-insensitively against file names.
	Extensions []string
	// Exclude holds slash-separated globs relative to the scan root. A "**"
	// segment matches any number of path segments, e.g. "vendor/**".
	Exclude []string
	// Concurrency bounds the number of files parsed at once. Zero means
	// GOMAXPROCS.
	Concurrency int
	// FailFast aborts the scan on the first file error instead of
	// collecting it in Result.Errors.
	FailFast bool
}

// FileResult holds the attributes found in one file.
type FileResult struct {
	Path        string
	Annotations []*reader.Annotation
}

// Result is the outcome of a directory scan. Files are sorted by path.
type Result struct {
	Files  []FileResult
	Errors []error
}

// Count returns the total number of annotations found.
func (r *Result) Count() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Annotations)
	}
	return n
}

// Annotations returns every annotation in file order.
func (r *Result) Annotations() []*reader.Annotation {
	out := make([]*reader.Annotation, 0, r.Count())
	for _, f := range r.Files {
		out = append(out, f.Annotations...)
	}
	return out
}

// Locator finds PHP files below a root and scans them with a Parser.
type Locator struct {
	parser *attrs.Parser
	opts   Options
}

// New creates a locator reading through p's filesystem.
func New(p *attrs.Parser, opts Options) *Locator {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	return &Locator{parser: p, opts: opts}
}

// Files lists the files below root that would be scanned, sorted. A root
// naming a single file is returned as is, whatever its extension.
func (l *Locator) Files(root string) ([]string, error) {
	fs := l.parser.Fs()

	info, err := fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = afero.Walk(fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil || rel == "." {
			return nil
		}
		if l.excluded(filepath.ToSlash(rel)) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() && l.included(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

func (l *Locator) included(p string) bool {
	ext := filepath.Ext(p)
	for _, want := range l.opts.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

func (l *Locator) excluded(rel string) bool {
	for _, pattern := range l.opts.Exclude {
		if Match(pattern, rel) {
			return true
		}
	}
	return false
}

// Scan parses every file below root. Per-file errors are collected unless
// FailFast is set; cancelling ctx stops the scan between files.
func (l *Locator) Scan(ctx context.Context, root string) (*Result, error) {
	log := debug.Component("locator")

	files, err := l.Files(root)
	if err != nil {
		return nil, err
	}
	log.Debug("Scanning files", "root", root, "files", len(files), "concurrency", l.opts.Concurrency)

	results := make([]FileResult, len(files))
	var (
		mu   sync.Mutex
		errs []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)

	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			annotations, err := l.parser.ScanAll(file)
			results[i] = FileResult{Path: file, Annotations: annotations}
			if err == nil {
				log.Debug("Scanned file", "file", file, "attributes", len(annotations))
				return nil
			}
			if l.opts.FailFast {
				return err
			}
			log.Warn("Skipping file", "file", file, "error", err)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	return &Result{Files: results, Errors: errs}, nil
}

// Match reports whether the slash-separated path rel matches pattern.
// Segments are matched with path.Match; a "**" segment matches zero or more
// segments. A pattern also matches every path below a matching directory.
func Match(pattern, rel string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(rel, "/"))
}

func matchSegments(pattern, parts []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(parts); i++ {
				if matchSegments(rest, parts[i:]) {
					return true
				}
			}
			return false
		}
		if len(parts) == 0 {
			return false
		}
		ok, err := path.Match(pattern[0], parts[0])
		if err != nil || !ok {
			return false
		}
		pattern, parts = pattern[1:], parts[1:]
	}
	return true
}
