package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/kiln/internal/platform"
	watchsource "github.com/aretw0/kiln/pkg/adapters/lifecycle"
	"github.com/aretw0/kiln/pkg/core"
	"github.com/aretw0/kiln/pkg/devserver"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build everything, serve dest/ and rebuild on change (default)",
	Long: `Run every build task, serve dest/ with live reload and watch src/.
A change rebuilds only the affected task and reloads connected browsers.
Compile errors are shown in the console and in the browser; watching goes on.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runServe(cmd)
	},
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("host", "localhost", "Address to serve on")
	cmd.Flags().Int("port", 3000, "Port to serve on")
	addSassFlags(cmd)
}

func init() {
	addServeFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := devserver.NewHub(slog.Default())
	p := openProject(cmd, platform.WithNotifier(hub))

	// Compile errors are already reported; only a missing tree stops serving.
	if _, err := p.Runner.RunParallel(ctx); errors.Is(err, core.ErrNotInitialized) {
		fatal("Nothing to serve (run 'kiln init' first)", err)
	}

	if err := serve(ctx, p, hub); err != nil {
		fatal("Serve failed", err)
	}
}

func serve(ctx context.Context, p *platform.Project, hub *devserver.Hub) error {
	watcher := p.NewWatcher()
	events := make(chan core.Event)

	spec := supervisor.Spec{
		Name: "fs-watcher",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			return watcher.NewWorker(events), nil
		},
		Backoff: supervisor.Backoff{
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      2,
			ResetDuration:   time.Minute,
			MaxRestarts:     5,
			MaxDuration:     time.Minute,
		},
		RestartPolicy: supervisor.RestartOnFailure,
	}

	sup := supervisor.New("kiln-watch", supervisor.StrategyOneForOne, spec)
	if err := sup.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sup.Stop(stopCtx); err != nil {
			slog.Warn("failed to stop watcher", "error", err)
		}
	}()

	srv := p.NewServer(hub, watcher)

	variants := make([]string, 0, len(p.Rules))
	for _, r := range p.Rules {
		variants = append(variants, r.Variant)
	}

	g, gctx := errgroup.WithContext(ctx)
	source := watchsource.NewSource(events, variants...)
	if err := source.Start(gctx); err != nil {
		return err
	}

	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})
	g.Go(func() error {
		return rebuildLoop(gctx, p, hub, source.Events())
	})
	return g.Wait()
}

// rebuildLoop runs the task behind each watch event, one at a time, and
// reloads browsers when it succeeds.
func rebuildLoop(ctx context.Context, p *platform.Project, hub *devserver.Hub, events <-chan lifecycle.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			e, ok := ev.(core.Event)
			if !ok {
				continue
			}
			task, ok := p.TaskFor(e.Rule)
			if !ok {
				continue
			}
			slog.Info("change detected", "variant", e.Rule, "path", e.Path, "type", string(e.Type))

			if _, err := p.Runner.Run(ctx, task); err != nil {
				// The browser keeps the error overlay until the next good build.
				continue
			}
			hub.Reload(ctx, task, e.Path)
		}
	}
}
