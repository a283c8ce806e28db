package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/kiln/internal/platform"
)

var (
	verbose    bool
	dir        string
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kiln",
	Short: "Component-based static site builder with a live-reload dev server",
	Long: `Kiln scaffolds component-based front-end projects and builds them.
Templates and stylesheets under src/ are compiled into dest/ together with
images, fonts and scripts. Without a subcommand kiln builds everything,
serves dest/ and rebuilds on change.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
	Run: func(cmd *cobra.Command, args []string) {
		runServe(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&dir, "dir", "C", "", "Project root (default: nearest directory with kiln.yaml or src/index.gohtml)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: <root>/kiln.yaml)")
	addServeFlags(rootCmd)
}

// openProject wires the project selected by --dir, with cmd's flags
// overriding configured settings.
func openProject(cmd *cobra.Command, opts ...platform.Option) *platform.Project {
	root, err := platform.ResolveRoot(dir)
	if err != nil {
		fatal("Failed to resolve project root", err)
	}

	opts = append([]platform.Option{
		platform.WithLogger(slog.Default()),
		platform.WithConfigFile(configFile),
		platform.WithFlags(cmd.Flags()),
	}, opts...)

	p, err := platform.New(root, opts...)
	if err != nil {
		fatal("Failed to load project", err)
	}
	return p
}
