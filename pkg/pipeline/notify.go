package pipeline

import (
	"context"
	"log/slog"

	"github.com/aretw0/kiln/pkg/core"
)

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Notify(ctx context.Context, note core.Notification) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if note.Level == core.LevelError {
		level = slog.LevelError
	}
	logger.Log(ctx, level, note.Title, "task", note.Task, "message", note.Message)
}

// Notifiers fans a notification out to every notifier in the list.
type Notifiers []core.Notifier

func (ns Notifiers) Notify(ctx context.Context, note core.Notification) {
	for _, n := range ns {
		if n != nil {
			n.Notify(ctx, note)
		}
	}
}

var (
	_ core.Notifier = (*LogNotifier)(nil)
	_ core.Notifier = Notifiers(nil)
)
