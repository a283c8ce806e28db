package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/kiln/pkg/pipeline"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build [task...]",
	Short: "Run build tasks (all by default)",
	Long: fmt.Sprintf(`Run the named tasks in build order: %s.
Without arguments every task runs. Compile errors are reported and make
the command fail after all tasks have run.`, strings.Join(pipeline.Order, ", ")),
	ValidArgs: append(append([]string{}, pipeline.Order...), "sass"),
	Run: func(cmd *cobra.Command, args []string) {
		runTasks(cmd, args...)
	},
}

var taskShort = map[string]string{
	pipeline.TaskTemplates: "Render src/*.gohtml into dest/*.html",
	pipeline.TaskStyles:    "Compile src/*.sass into dest/*.css",
	pipeline.TaskImages:    "Copy component images into dest/imgs",
	pipeline.TaskFonts:     "Copy component fonts into dest/fonts",
	pipeline.TaskScripts:   "Copy src/*.js into dest",
}

func runTasks(cmd *cobra.Command, names ...string) {
	p := openProject(cmd)

	results, err := p.Runner.Run(cmd.Context(), names...)
	if err != nil {
		fatal("Build failed", err)
	}

	files := 0
	for _, r := range results {
		files += len(r.Files)
	}
	fmt.Printf("Built %d files into %s\n", files, p.Layout.Dest)
}

func addSassFlags(cmd *cobra.Command) {
	cmd.Flags().String("sass", "sass", "Path to the dart-sass executable")
	cmd.Flags().String("style", "expanded", "Sass output style (expanded or compressed)")
}

func init() {
	addSassFlags(buildCmd)
	rootCmd.AddCommand(buildCmd)

	for _, name := range pipeline.Order {
		name := name
		c := &cobra.Command{
			Use:   name,
			Short: taskShort[name],
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				runTasks(cmd, name)
			},
		}
		if name == pipeline.TaskStyles {
			c.Aliases = []string{"sass"}
			addSassFlags(c)
		}
		rootCmd.AddCommand(c)
	}
}
