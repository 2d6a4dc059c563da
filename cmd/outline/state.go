package main

import (
	"fmt"
	"time"

	"github.com/aretw0/outline/internal/cli"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Compute the visibility state of a node described in a file",
	Long: `Reads node attributes (published, has_changes, start, has_explicit_staff_lock, ...)
from a YAML or JSON file and prints the visibility state the editor would display.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup(cmd)
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("file")
		at, _ := cmd.Flags().GetString("now")
		if sp, _ := cmd.Flags().GetBool("self-paced"); cmd.Flags().Changed("self-paced") {
			cfg.Course.SelfPaced = sp
		}

		now := time.Now()
		if at != "" {
			if now, err = time.Parse(time.RFC3339, at); err != nil {
				return fmt.Errorf("invalid --now: %w", err)
			}
		}
		state, err := cli.StateFromFile(path, cfg.Course, now)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", state, state.WireName())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.Flags().StringP("file", "f", "", "Node attributes file (yaml or json)")
	stateCmd.Flags().String("now", "", "Evaluation time in RFC 3339")
	stateCmd.Flags().Bool("self-paced", false, "Treat the course as self-paced")
	_ = stateCmd.MarkFlagRequired("file")
}
