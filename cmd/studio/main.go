// Command studio drives a studio session against a running relay from the terminal.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "studio",
		Short:        "Image studio command line client",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		modelsCommand(),
		generateCommand(),
	)

	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
