package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joelklabo/codic-slack/internal/config"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "codic-slack",
		Short:         "Slack slash commands that ask Codic for identifier names",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is fine; secrets may already be in the environment.
			if err := godotenv.Load(flags.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", flags.envFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config.yaml (default $"+config.EnvConfigPath+" or ~/.config/codic-slack/config.yaml)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file with secrets")

	serve := newServeCmd(flags)
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(
		serve,
		newInitCmd(flags),
		newCheckCmd(flags),
		newTeamsCmd(flags),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the resolved config file. Without an explicit path and
// with no file on disk, the environment alone must be enough.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	path := config.DefaultPath(flags.configPath)
	if flags.configPath == "" && os.Getenv(config.EnvConfigPath) == "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.FromEnv()
		}
	}
	return config.Load(path)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "codic-slack", version)
		},
	}
}
