package platform

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/introspection"

	"github.com/aretw0/kiln/internal/config"
	"github.com/aretw0/kiln/pkg/adapters/fs"
	"github.com/aretw0/kiln/pkg/core"
	"github.com/aretw0/kiln/pkg/devserver"
	"github.com/aretw0/kiln/pkg/pipeline"
	"github.com/aretw0/kiln/pkg/render"
	"github.com/aretw0/kiln/pkg/scaffold"
	"github.com/aretw0/kiln/pkg/style"
)

// Project is a kiln project with its components wired together.
//
//	p, err := platform.New("./site", platform.WithLogger(logger))
//	_, err = p.Runner.Run(ctx)
type Project struct {
	Layout core.Layout
	Config config.Config
	Logger *slog.Logger

	Scaffolder *scaffold.Scaffolder
	Templates  *render.Engine
	Styles     *style.Sass
	Registry   *pipeline.Registry
	Runner     *pipeline.Runner
	Rules      []pipeline.WatchRule

	watcherErrorHandler func(error)
}

// New wires a Project rooted at root. Settings come from WithConfig, or are
// loaded from kiln.yaml and the environment.
func New(root string, opts ...Option) (*Project, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	cfg := o.config
	if cfg == nil {
		cfg, err = config.Load(config.Options{Root: abs, File: o.configFile, Flags: o.flags})
		if err != nil {
			return nil, err
		}
	}

	layout := core.Layout{Root: abs, Src: cfg.Src, Dest: cfg.Dest}
	logger := o.logger

	scaffoldOpts := []scaffold.Option{scaffold.WithLogger(logger)}
	if o.lockInterval > 0 {
		scaffoldOpts = append(scaffoldOpts, scaffold.WithLockInterval(o.lockInterval))
	}

	templates := render.NewEngine(layout, logger)
	styles := style.NewSass(layout, cfg.Sass.Binary, cfg.Sass.Style, logger)
	registry := pipeline.NewDefaultRegistry(layout, templates, styles, pipeline.WithLogger(logger))

	notifier := pipeline.Notifiers{&pipeline.LogNotifier{Logger: logger}}
	notifier = append(notifier, o.notifiers...)

	return &Project{
		Layout:              layout,
		Config:              *cfg,
		Logger:              logger,
		Scaffolder:          scaffold.New(layout, scaffoldOpts...),
		Templates:           templates,
		Styles:              styles,
		Registry:            registry,
		Runner:              pipeline.NewRunner(registry, pipeline.WithLogger(logger), pipeline.WithNotifier(notifier)),
		Rules:               pipeline.DefaultRules(layout),
		watcherErrorHandler: o.watcherErrorHandler,
	}, nil
}

// NewWatcher returns a watcher over the source tree with one rule per watch
// variant.
func (p *Project) NewWatcher() *fs.Watcher {
	rules := make([]fs.Rule, 0, len(p.Rules))
	for _, r := range p.Rules {
		rules = append(rules, fs.Rule{Name: r.Variant, Pattern: r.Pattern})
	}
	return fs.NewWatcher(fs.Config{
		Root:         p.Layout.Root,
		Dirs:         []string{p.Layout.Src},
		Rules:        rules,
		Debounce:     p.Config.Watch.Debounce,
		IgnorePrefix: []string{scaffold.TempFilePrefix},
		Logger:       p.Logger,
		ErrorHandler: p.watcherErrorHandler,
	})
}

// TaskFor returns the task rebuilt by a watch variant.
func (p *Project) TaskFor(variant string) (string, bool) {
	for _, r := range p.Rules {
		if r.Variant == variant {
			return r.Task, true
		}
	}
	return "", false
}

// NewServer returns a dev server for the build output. components are
// exposed on the state endpoint next to the server's own state.
func (p *Project) NewServer(hub *devserver.Hub, components ...introspection.Introspectable) *devserver.Server {
	return devserver.New(devserver.Config{
		Host:   p.Config.Server.Host,
		Port:   p.Config.Server.Port,
		Root:   p.Layout.DestPath(),
		Logger: p.Logger,
	}, hub, components...)
}
