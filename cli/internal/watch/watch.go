// Package watch re-runs a callback when PHP sources below a set of roots
// change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/satishbabariya/phpattr/internal/debug"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before calling back.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Extensions limits the files that trigger the callback. Empty means
	// every file.
	Extensions []string
	// Skip reports directories that must not be watched, given their path
	// relative to the root they were found under.
	Skip func(rel string) bool
}

// Watcher watches directory trees for changes
type Watcher struct {
	opts     Options
	callback func(changed []string) error
	watcher  *fsnotify.Watcher
	roots    []string
}

// NewWatcher watches every directory below roots. A root naming a file
// watches its directory.
func NewWatcher(roots []string, opts Options, callback func(changed []string) error) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{opts: opts, callback: callback, watcher: watcher}
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", root, err)
		}
		if !info.IsDir() {
			abs = filepath.Dir(abs)
		}
		w.roots = append(w.roots, abs)
		if err := w.addTree(abs, abs); err != nil {
			watcher.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addTree(root, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, _ := filepath.Rel(root, p); rel != "." && w.opts.Skip != nil && w.opts.Skip(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", p, err)
		}
		debug.Debug("Watching directory", "dir", p)
		return nil
	})
}

func (w *Watcher) rootOf(p string) string {
	for _, root := range w.roots {
		if p == root || strings.HasPrefix(p, root+string(filepath.Separator)) {
			return root
		}
	}
	return filepath.Dir(p)
}

func (w *Watcher) relevant(p string) bool {
	if len(w.opts.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(p)
	for _, want := range w.opts.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// Run delivers batches of changed files to the callback until ctx is done.
// Callback errors are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	var debounceCh <-chan time.Time
	pending := map[string]struct{}{}

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(w.rootOf(event.Name), event.Name); err != nil {
						debug.Warn("Failed to watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			// Debounce: reset timer on each event
			timer.Reset(w.opts.Debounce)
			debounceCh = timer.C

		case <-debounceCh:
			debounceCh = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			sort.Strings(changed)
			debug.Debug("Sources changed", "files", changed)
			if err := w.callback(changed); err != nil {
				debug.Warn("Watch callback failed", "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			debug.Warn("Watch error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}
