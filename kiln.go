package kiln

import (
	"context"
	"log/slog"

	"github.com/aretw0/kiln/internal/config"
	"github.com/aretw0/kiln/internal/platform"
	"github.com/aretw0/kiln/pkg/core"
	"github.com/aretw0/kiln/pkg/pipeline"
	"github.com/aretw0/kiln/pkg/scaffold"
)

// --- Types ---

// Project is a kiln project with its components wired together.
type Project = platform.Project

// Config is the effective project configuration.
type Config = config.Config

// Result lists the paths an init or component operation touched.
type Result = scaffold.Result

// BuildResult lists the files one task wrote.
type BuildResult = pipeline.Result

// --- Configuration ---

// Option defines a functional option for configuring a Project.
type Option = platform.Option

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithConfig uses cfg instead of loading kiln.yaml and the environment.
func WithConfig(cfg *Config) Option {
	return platform.WithConfig(cfg)
}

// WithConfigFile loads settings from an explicit file.
func WithConfigFile(path string) Option {
	return platform.WithConfigFile(path)
}

// WithNotifier adds a receiver for compile error notifications.
func WithNotifier(n core.Notifier) Option {
	return platform.WithNotifier(n)
}

// WithWatcherErrorHandler registers a callback for runtime watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New wires the project rooted at root.
func New(root string, opts ...Option) (*Project, error) {
	return platform.New(root, opts...)
}

// FindRoot looks upwards from dir for a kiln.yaml or src/index.gohtml.
func FindRoot(dir string) (string, error) {
	return platform.FindRoot(dir)
}

// --- Operations ---

// Init creates the source tree of a new project in root.
func Init(ctx context.Context, root string, opts ...Option) (*Result, error) {
	p, err := New(root, opts...)
	if err != nil {
		return nil, err
	}
	return p.Scaffolder.Initialize(ctx)
}

// AddComponent scaffolds component name in the project at root and registers
// it with both aggregators.
func AddComponent(ctx context.Context, root, name string, opts ...Option) (*Result, error) {
	p, err := New(root, opts...)
	if err != nil {
		return nil, err
	}
	return p.Scaffolder.AddComponent(ctx, name)
}

// Build runs the named tasks, or all of them, in build order.
func Build(ctx context.Context, root string, tasks []string, opts ...Option) ([]*BuildResult, error) {
	p, err := New(root, opts...)
	if err != nil {
		return nil, err
	}
	return p.Runner.Run(ctx, tasks...)
}
