package core

import (
	"context"
	"fmt"
)

// EventType represents the type of change seen in the source tree.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event is a debounced source change routed to a watch rule.
// Path is slash separated and relative to the project root.
type Event struct {
	Type      EventType
	Path      string
	Rule      string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s (%s)", e.Type, e.Path, e.Rule)
}

// Level is the severity of a Notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is a user facing message, typically a compile error.
type Notification struct {
	Level   Level
	Task    string
	Title   string
	Message string
	Err     error
}

// Notifier surfaces notifications to the user without stopping the caller.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}
