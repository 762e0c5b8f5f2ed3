package main

import (
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/metatext-core/internal/config"
)

// commandContext loads configuration once for whichever command runs
type commandContext struct {
	envFile *string

	once   sync.Once
	config *config.Config
	logger *slog.Logger
	err    error
}

func newCommandContext(envFile *string) *commandContext {
	return &commandContext{envFile: envFile}
}

func (c *commandContext) ensureConfig() (*config.Config, *slog.Logger, error) {
	c.once.Do(func() {
		cfg, err := config.Load(*c.envFile)
		if err != nil {
			c.err = err
			return
		}
		c.config = cfg
		c.logger = cfg.Log.NewLogger(os.Stderr)
		slog.SetDefault(c.logger)
	})
	return c.config, c.logger, c.err
}

func newRootCommand() *cobra.Command {
	var envFile string
	ctx := newCommandContext(&envFile)

	rootCmd := &cobra.Command{
		Use:           "metatext-core",
		Short:         "Chunk view and image availability service for metatexts",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional .env file loaded before the environment")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newPollImageCommand(ctx))
	rootCmd.AddCommand(newPageCommand(ctx))
	rootCmd.AddCommand(newUserCommand(ctx))
	rootCmd.AddCommand(newEnvCommand())

	return rootCmd
}
