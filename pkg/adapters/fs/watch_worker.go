package fs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/kiln/pkg/core"
)

type watchWorker struct {
	*worker.BaseWorker
	w         *Watcher
	events    chan<- core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
}

func newWatchWorker(w *Watcher, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		w:          w,
		events:     events,
	}
}

func (ww *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := ww.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := ww.w.recursiveAdd(watcher); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch source tree: %w", err)
	}

	ww.watcher = watcher
	ww.debouncer = newDebouncer(ww.w.config.Debounce)
	ww.w.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	ww.cancel = cancel

	ww.SetStatus(worker.StatusRunning)
	return ww.StartFunc(runCtx, ww.run)
}

func (ww *watchWorker) Stop(ctx context.Context) error {
	if ww.cancel != nil {
		ww.StopRequested = true
		ww.cancel()
	}

	return ww.BaseWorker.Stop(ctx)
}

func (ww *watchWorker) State() worker.State {
	return ww.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

// processFilesystemEvent filters an fsnotify event, routes it to rules and
// hands one event per matching rule to the debouncer.
func (ww *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) (processed bool) {
	logger := ww.w.config.Logger
	logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	if ww.w.shouldIgnore(event) {
		return false
	}

	eType := ww.w.mapEventType(event)
	if eType == "" {
		return false
	}

	// fsnotify is not recursive: new directories are added here, and files
	// that landed in them before the add are replayed as creations.
	if eType == core.EventCreate && isDir(event.Name) {
		if err := ww.w.addTree(ww.watcher, event.Name, func(path string) {
			ww.route(ctx, core.EventCreate, path)
		}); err != nil {
			ww.handleWatcherError(fmt.Errorf("failed to watch %s: %w", event.Name, err))
		}
		return true
	}

	return ww.route(ctx, eType, event.Name)
}

func (ww *watchWorker) route(ctx context.Context, eType core.EventType, path string) bool {
	rel, err := ww.w.rel(path)
	if err != nil {
		ww.handleWatcherError(fmt.Errorf("failed to resolve %s: %w", path, err))
		return false
	}

	rules := ww.w.route(rel)
	for _, rule := range rules {
		ww.sendEvent(ctx, core.Event{
			Type:      eType,
			Path:      rel,
			Rule:      rule,
			Timestamp: time.Now().Unix(),
		})
	}
	return len(rules) > 0
}

// sendEvent enqueues an event via the debouncer, protecting against channel closure during shutdown.
func (ww *watchWorker) sendEvent(ctx context.Context, event core.Event) {
	ww.debouncer.add(event.Rule, event, func(e core.Event) {
		defer func() {
			// the events channel may be closed while stopping
			_ = recover()
		}()
		select {
		case ww.events <- e:
			ww.w.recordDelivery()
		case <-ctx.Done():
		}
	})
}

// handleWatcherError processes errors from the fsnotify watcher.
func (ww *watchWorker) handleWatcherError(err error) (shouldContinue bool) {
	ww.w.config.Logger.Error("fsnotify error", "error", err)
	if ww.w.config.ErrorHandler != nil {
		ww.w.config.ErrorHandler(err)
	}
	return true
}

// run is the main event loop for the watcher worker.
func (ww *watchWorker) run(ctx context.Context) (err error) {
	logger := ww.w.config.Logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)

			// Full stack only when debug logging is on.
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer ww.w.setWatcherActive(false)
	defer ww.watcher.Close()

	err = ww.mainEventLoop(ctx)

	// Pending timers are dropped; running callbacks finish before the caller
	// may close the events channel.
	ww.debouncer.stopAndWait(5 * time.Second)

	return err
}

func (ww *watchWorker) mainEventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-ww.watcher.Events:
			if !ok {
				if ww.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			ww.processFilesystemEvent(ctx, event)

		case wErr, ok := <-ww.watcher.Errors:
			if !ok {
				if ww.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			ww.handleWatcherError(wErr)
		}
	}
}
