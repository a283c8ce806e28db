// Package fs watches a project's source tree and routes changes to named
// rules, one debounced event per rule and burst of changes.
package fs

import (
	"context"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/kiln/pkg/core"
)

// DefaultDebounce is the quiet period used when Config.Debounce is zero.
const DefaultDebounce = 50 * time.Millisecond

// Rule names a doublestar pattern, relative to the project root.
type Rule struct {
	Name    string
	Pattern string
}

// Config holds the configuration for a Watcher.
type Config struct {
	Root         string   // project root; event paths are relative to it
	Dirs         []string // directories under Root watched recursively, e.g. "src"
	Rules        []Rule
	Debounce     time.Duration
	IgnorePrefix []string // base name prefixes to ignore, e.g. temp files
	Logger       *slog.Logger
	ErrorHandler func(error)
}

// Watcher turns fsnotify events under Config.Dirs into core.Events.
type Watcher struct {
	config Config

	mu            sync.RWMutex
	watcherActive bool
	delivered     int
	lastEvent     *time.Time
}

// NewWatcher creates a Watcher.
func NewWatcher(config Config) *Watcher {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	return &Watcher{config: config}
}

// NewWorker returns a lifecycle worker that feeds events. Each call returns
// a fresh worker, so a supervisor can restart watching after a failure.
func (w *Watcher) NewWorker(events chan<- core.Event) worker.Worker {
	return newWatchWorker(w, events)
}

// Watch starts a worker and returns its events. The channel is closed once
// ctx is done and the worker has stopped.
func (w *Watcher) Watch(ctx context.Context) (<-chan core.Event, error) {
	events := make(chan core.Event)
	ww := newWatchWorker(w, events)
	if err := ww.Start(ctx); err != nil {
		return nil, err
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := ww.Stop(stopCtx)
		close(events)
		return err
	})
	return events, nil
}

// route returns the names of the rules covering rel.
func (w *Watcher) route(rel string) []string {
	var names []string
	for _, r := range w.config.Rules {
		if ok, err := doublestar.Match(r.Pattern, rel); err == nil && ok {
			names = append(names, r.Name)
		}
	}
	return names
}

func (w *Watcher) shouldIgnore(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return true
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return true
	}
	for _, p := range w.config.IgnorePrefix {
		if strings.HasPrefix(base, p) {
			return true
		}
	}
	return false
}

func (w *Watcher) mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	}
	return ""
}

func (w *Watcher) rel(path string) (string, error) {
	rel, err := filepath.Rel(w.config.Root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// recursiveAdd registers every directory of the watched trees.
func (w *Watcher) recursiveAdd(watcher *fsnotify.Watcher) error {
	for _, dir := range w.config.Dirs {
		if err := w.addTree(watcher, filepath.Join(w.config.Root, dir), nil); err != nil {
			return err
		}
	}
	return nil
}

// addTree registers root and its subdirectories; files found on the way are
// passed to onFile when it is not nil.
func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string, onFile func(path string)) error {
	return filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			if onFile != nil {
				onFile(path)
			}
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (w *Watcher) setWatcherActive(active bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watcherActive = active
}

func (w *Watcher) recordDelivery() {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	w.delivered++
	w.lastEvent = &now
}
