package main

import (
	"github.com/spf13/cobra"

	"github.com/alex-ilgayev/adaptogen/pkg/llm"
	"github.com/alex-ilgayev/adaptogen/pkg/output"
)

func newModelsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the model identifiers with a registered parser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if _, err := setupLogging(cmd, opts, cfg); err != nil {
				return err
			}

			registry := newRegistry(cfg.Parsers)

			rows := make([]output.ModelRow, 0)
			for _, model := range registry.Models() {
				p, ok := registry.Lookup(model)
				if !ok {
					continue
				}
				rows = append(rows, output.ModelRow{Model: model, Parser: llm.ParserName(p)})
			}

			display, err := output.NewConsoleDisplay(cmd.OutOrStdout(), false, nil)
			if err != nil {
				return err
			}
			display.PrintModels(rows)
			return nil
		},
	}
}
