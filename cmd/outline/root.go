package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/outline/internal/cli"
	"github.com/aretw0/outline/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "outline",
	Short: "Outline keeps course outlines in sync with a content authority",
	Long: `Outline edits an ordered course tree against a remote content authority,
derives visibility states locally, and ships a reference authority server.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "outline.yaml", "Configuration file (yaml, json or toml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging on stderr")
}

// setup loads the configuration and the logger shared by every command.
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := cli.NewLogger(cfg.Log.Level, debug)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}
