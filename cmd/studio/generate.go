package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/Conceptual-Machines/image-studio/internal/models"
	"github.com/Conceptual-Machines/image-studio/internal/studio"
	"github.com/spf13/cobra"
)

const defaultRelayURL = "http://localhost:8080"

type generateOptions struct {
	relayURL string
	model    string
	prompt   string
	params   map[string]string
	timeout  time.Duration
}

func generateCommand() *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one image through a studio relay",
		Long: `Builds a studio session locally (model, parameters, prompt) and submits it to
the relay's POST /api/generate. Prints the resulting history entry as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.relayURL, "relay", defaultRelayURL, "Base URL of the studio server")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Model id (unknown ids use the first model)")
	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "Prompt text")
	cmd.Flags().StringToStringVar(&opts.params, "param", nil, "Parameter override as key=value, repeatable")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Request timeout")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	store := studio.NewStore()

	model := store.SelectModel(opts.model)
	if opts.model != "" && model.ID != opts.model {
		fmt.Fprintf(cmd.ErrOrStderr(), "unknown model %q, using %s\n", opts.model, model.ID)
	}

	keys := make([]string, 0, len(opts.params))
	for key := range opts.params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value, err := parseParameter(model, key, opts.params[key])
		if err != nil {
			return err
		}
		store.SetParameter(key, value)
	}

	store.SetPrompt(opts.prompt)

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	entry, err := store.Generate(ctx, studio.NewRelayClient(opts.relayURL))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(entry)
}

// parseParameter converts a flag value to the type the model's parameter expects.
// Keys the model does not declare are passed through as strings.
func parseParameter(model models.ModelDefinition, key, raw string) (any, error) {
	spec, ok := model.Parameter(key)
	if !ok {
		return raw, nil
	}

	var value any = raw
	switch spec.Kind {
	case models.KindRange, models.KindNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %q is not a number", key, raw)
		}
		value = f
	case models.KindChoice:
		for _, opt := range spec.Options {
			if fmt.Sprint(opt.Value) == raw {
				value = opt.Value
				break
			}
		}
	}

	if !spec.Admits(value) {
		return nil, fmt.Errorf("parameter %q: %s is not allowed for %s", key, raw, model.ID)
	}
	return value, nil
}
