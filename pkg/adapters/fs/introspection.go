package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// WatcherState exposes internal state for observability.
type WatcherState struct {
	Root          string     `json:"root"`
	Dirs          []string   `json:"dirs"`
	Rules         []string   `json:"rules"`
	Debounce      string     `json:"debounce"`
	WatcherActive bool       `json:"watcher_active"`
	Delivered     int        `json:"delivered"`
	LastEvent     *time.Time `json:"last_event,omitempty"`
}

// State implements introspection.Introspectable.
func (w *Watcher) State() any {
	w.mu.RLock()
	defer w.mu.RUnlock()

	rules := make([]string, 0, len(w.config.Rules))
	for _, r := range w.config.Rules {
		rules = append(rules, r.Name+"="+r.Pattern)
	}

	return WatcherState{
		Root:          w.config.Root,
		Dirs:          append([]string(nil), w.config.Dirs...),
		Rules:         rules,
		Debounce:      w.config.Debounce.String(),
		WatcherActive: w.watcherActive,
		Delivered:     w.delivered,
		LastEvent:     w.lastEvent,
	}
}

// ComponentType implements introspection.Component.
func (w *Watcher) ComponentType() string {
	return "watcher"
}

var _ introspection.Introspectable = (*Watcher)(nil)
var _ introspection.Component = (*Watcher)(nil)
