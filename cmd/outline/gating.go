package main

import (
	"github.com/aretw0/outline/internal/cli"
	"github.com/spf13/cobra"
)

var gatingCmd = &cobra.Command{
	Use:   "gating",
	Short: "Validate prerequisite thresholds",
	RunE: func(cmd *cobra.Command, args []string) error {
		minScore, _ := cmd.Flags().GetString("min-score")
		minCompletion, _ := cmd.Flags().GetString("min-completion")
		return cli.WriteGating(cmd.OutOrStdout(), minScore, minCompletion)
	},
}

func init() {
	rootCmd.AddCommand(gatingCmd)
	gatingCmd.Flags().String("min-score", "", "Minimum score (0-100)")
	gatingCmd.Flags().String("min-completion", "", "Minimum completion (0-100)")
}
