package main

import (
	"github.com/spf13/cobra"

	"github.com/RaikyD/laundry-queue/internal/config"
)

type commandContext struct {
	configFlag string
	cfg        *config.Config
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := c.configFlag
	if path == "" {
		return c.load(config.LoadConfig)
	}
	return c.load(func() (*config.Config, error) { return config.Load(path) })
}

func (c *commandContext) load(fn func() (*config.Config, error)) (*config.Config, error) {
	cfg, err := fn()
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "laundryq",
		Short:         "Laundry queue: track drop-offs and estimate ready dates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path (TOML)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newAddCommand(ctx))
	rootCmd.AddCommand(newCompleteCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newClearCommand(ctx))

	return rootCmd
}
