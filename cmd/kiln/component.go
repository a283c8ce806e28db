package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var componentName string

// componentCmd represents the component command
var componentCmd = &cobra.Command{
	Use:   "component --name <name>",
	Short: "Scaffold a component and register it in the root template and stylesheet",
	Long: `Create src/components/<name>/ with index.gohtml, index.sass, imgs/ and fonts/,
then append an include to src/index.gohtml and an import to src/index.sass.
Names start with a letter and contain only letters, digits, '-' and '_'.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p := openProject(cmd)

		res, err := p.Scaffolder.AddComponent(ctx, componentName)
		if err != nil {
			fatal("Failed to add component", err)
		}

		for _, path := range res.Created {
			fmt.Println("created", path)
		}
		for _, path := range res.Modified {
			fmt.Println("updated", path)
		}
	},
}

func init() {
	componentCmd.Flags().StringVar(&componentName, "name", "", "Component name")
	_ = componentCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(componentCmd)
}
