// Package sources discovers Jadescript source files and watches them for
// changes.
package sources

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Collect expands paths into source files. Directories are walked
// recursively and contribute files whose extension is in exts; explicit
// files are always kept. The result is sorted and free of duplicates.
func Collect(paths []string, exts []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("reading source path: %w", err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && hasExtension(p, exts) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", path, err)
		}
	}

	sort.Strings(out)
	return out, nil
}

func hasExtension(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// Watcher reports batches of changed source files
type Watcher struct {
	paths    []string
	exts     []string
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher watches paths, which may be files or directories
func NewWatcher(paths, exts []string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		paths:    paths,
		exts:     exts,
		debounce: 100 * time.Millisecond,
		logger:   logger,
	}
}

// WithDebounce sets how long the watcher waits for related events before
// reporting a batch
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Run blocks until ctx is done, calling onChange with the sorted set of
// files created or written during each quiet period.
func (w *Watcher) Run(ctx context.Context, onChange func(changed []string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	for _, path := range w.paths {
		if err := w.addPath(watcher, path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}
	w.logger.Debug("Watching sources", slog.Any("paths", w.paths))

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if err := w.addPath(watcher, event.Name); err != nil {
					w.logger.Warn("Failed to watch new directory", slog.String("path", event.Name), slog.String("error", err.Error()))
					continue
				}
				// files may land before the directory is watched
				files, err := Collect([]string{event.Name}, w.exts)
				if err != nil || len(files) == 0 {
					continue
				}
				for _, f := range files {
					pending[f] = true
				}
				timer.Reset(w.debounce)
				continue
			}
			if !w.shouldProcess(event) {
				continue
			}
			pending[event.Name] = true
			timer.Reset(w.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Warn("File watcher error", slog.String("error", err.Error()))
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			onChange(changed)
		}
	}
}

func (w *Watcher) addPath(watcher *fsnotify.Watcher, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		// watch the parent so editors that replace the file are still seen
		return watcher.Add(filepath.Dir(path))
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (w *Watcher) shouldProcess(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	return hasExtension(event.Name, w.exts)
}
