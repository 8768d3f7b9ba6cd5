package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joelklabo/codic-slack/internal/store"
)

func newTeamsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "Manage the team webhook registry",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <team_id> <webhook_url>",
			Short: "Register or replace a team's incoming webhook",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd, flags, func(st *store.Store) error {
					if err := st.Register(args[0], args[1]); err != nil {
						return err
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:     "rm <team_id>",
			Aliases: []string{"remove"},
			Short:   "Remove a team",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd, flags, func(st *store.Store) error {
					if err := st.Remove(args[0]); err != nil {
						return err
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:     "ls",
			Aliases: []string{"list"},
			Short:   "List registered teams",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withStore(cmd, flags, func(st *store.Store) error {
					teams, err := st.List()
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					_, _ = fmt.Fprintln(tw, "TEAM\tWEBHOOK\tUPDATED")
					for _, t := range teams {
						_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.URL, t.UpdatedAt.Format(time.RFC3339))
					}
					return tw.Flush()
				})
			},
		},
	)
	return cmd
}

func withStore(cmd *cobra.Command, flags *rootFlags, fn func(*store.Store) error) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.Registry.Enable {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "note: registry.enable is false; the server will not consult these entries")
	}
	st, err := store.New(cfg.Registry.Path)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	return fn(st)
}
