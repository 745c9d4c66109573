package main

import (
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/image-studio/internal/catalog"
	"github.com/spf13/cobra"
)

func modelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the available models and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, model := range catalog.Models() {
				params := make([]string, 0, len(model.Parameters))
				for _, p := range model.Parameters {
					params = append(params, fmt.Sprintf("%s=%v", p.ID, p.Default))
				}
				if _, err := fmt.Fprintf(out, "%-28s %-16s %s\n", model.ID, model.Name, strings.Join(params, " ")); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
