package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/config"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/version"
)

func newRootCmd() *cobra.Command {
	var configPath string

	run := newRunCmd(&configPath)
	cmd := &cobra.Command{
		Use:           "staffmon",
		Short:         "Collect Linux host facts and deliver them to a collector",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Bare "staffmon" runs the agent loop.
		RunE: run.RunE,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: search for config.toml)")

	cmd.AddCommand(run)
	cmd.AddCommand(newCollectCmd(&configPath))
	cmd.AddCommand(newFetchCmd(&configPath))
	cmd.AddCommand(newHistoryCmd(&configPath))
	cmd.AddCommand(newVersionCmd())

	cmd.SetVersionTemplate(version.Info() + "\n")
	cmd.Version = version.Short()

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Info())
			return err
		},
	}
}

// setup loads configuration and builds the logger shared by every
// subcommand.
func setup(configPath string) (*config.Config, *zap.Logger, error) {
	v, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	cfg, err := config.Parse(v)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	logger, err := newLogger(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(v *viper.Viper) (*zap.Logger, error) {
	logger, err := config.NewLogger(v)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}
