package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joelklabo/codic-slack/internal/assets"
	"github.com/joelklabo/codic-slack/internal/wizard"
)

func newInitCmd(flags *rootFlags) *cobra.Command {
	var example bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a config file interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if example {
				_, err := cmd.OutOrStdout().Write(assets.ConfigExample)
				return err
			}
			path, err := wizard.Run(cmd.Context(), flags.configPath, nil, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Next: codic-slack check --config %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&example, "example", false, "print a commented example config instead of prompting")
	return cmd
}
