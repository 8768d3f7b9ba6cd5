package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joelklabo/codic-slack/internal/check"
)

func newCheckCmd(flags *rootFlags) *cobra.Command {
	var withListen bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate config and check external dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "✅ config ok")
			results := check.Run(check.ForConfig(cfg, withListen))
			for _, r := range results {
				icon := "✅"
				switch r.Status {
				case "MISSING":
					icon = "❌"
				case "WARN":
					icon = "⚠️ "
				}
				line := fmt.Sprintf("%s %s (%s)", icon, r.Name, r.Type)
				if r.Details != "" {
					line += ": " + r.Details
				}
				_, _ = fmt.Fprintln(out, line)
			}
			if check.Failed(results) {
				return fmt.Errorf("required dependencies missing")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withListen, "listen", true, "also check that server.listen is free")
	return cmd
}
