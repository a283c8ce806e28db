package platform

import (
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/aretw0/kiln/internal/config"
	"github.com/aretw0/kiln/pkg/core"
)

// options holds the internal configuration for a Project.
type options struct {
	logger              *slog.Logger
	config              *config.Config
	configFile          string
	flags               *pflag.FlagSet
	notifiers           []core.Notifier
	watcherErrorHandler func(error)
	lockInterval        time.Duration
}

// Option defines a functional option for configuring a Project.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConfig uses cfg as is instead of loading kiln.yaml and the environment.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithConfigFile loads settings from an explicit file instead of
// <root>/kiln.yaml. Ignored when WithConfig is set.
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configFile = path
	}
}

// WithFlags lets command-line flags override loaded settings.
// See config.FlagKeys for the recognized names.
func WithFlags(flags *pflag.FlagSet) Option {
	return func(o *options) {
		o.flags = flags
	}
}

// WithNotifier adds a receiver for compile error notifications, e.g. the
// dev server's live-reload hub. Notifications are always logged.
func WithNotifier(n core.Notifier) Option {
	return func(o *options) {
		o.notifiers = append(o.notifiers, n)
	}
}

// WithWatcherErrorHandler registers a callback to handle errors occurring during the Watch loop.
// Errors are logged either way.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.watcherErrorHandler = fn
	}
}

// WithLockInterval sets how often the scaffolder retries a held project lock.
func WithLockInterval(d time.Duration) Option {
	return func(o *options) {
		o.lockInterval = d
	}
}
