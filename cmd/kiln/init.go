package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the source tree of a new project",
	Long: `Create src/ with the root template and stylesheet (index.gohtml, index.sass),
their shared helpers (common.gohtml, common.sass) and src/components/.
Fails without touching anything if src/ already exists.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if dir == "" {
			// init never walks up into an enclosing project
			cwd, err := os.Getwd()
			if err != nil {
				fatal("Failed to get CWD", err)
			}
			dir = cwd
		}
		p := openProject(cmd)

		res, err := p.Scaffolder.Initialize(cmd.Context())
		if err != nil {
			fatal("Failed to initialize project", err)
		}

		for _, path := range res.Created {
			fmt.Println("created", path)
		}
		fmt.Println("Initialized kiln project in", p.Layout.Root)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
