package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		p := openProject(cmd)

		out, err := p.Config.YAML()
		if err != nil {
			fatal("Failed to encode config", err)
		}
		if p.Config.File != "" {
			fmt.Fprintln(os.Stderr, "# from", p.Config.File)
		}
		fmt.Print(string(out))
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
