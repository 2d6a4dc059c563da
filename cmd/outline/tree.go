package main

import (
	"github.com/aretw0/outline/internal/cli"
	"github.com/aretw0/outline/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Fetch a course outline and print it with visibility states",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printOutline(cmd, cli.FormatText)
	},
}

func printOutline(cmd *cobra.Command, defaultFormat string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	url, _ := cmd.Flags().GetString("url")
	course, _ := cmd.Flags().GetString("course")
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = defaultFormat
	}
	if course == "" {
		course = cfg.Course.ID
	}

	ed, err := cli.OpenRemote(cmd.Context(), cli.RemoteOptions{
		URL:            url,
		CourseID:       course,
		MethodOverride: cfg.Server.MethodOverride,
		Settings:       cfg.Course,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	return cli.WriteOutline(out, ed, format, tui.IsTerminal(out))
}

func addRemoteFlags(cmd *cobra.Command) {
	cmd.Flags().String("url", "http://localhost:8080", "Base URL of the content authority")
	cmd.Flags().String("course", "", "Course id (defaults to course.id from the configuration)")
	cmd.Flags().String("format", "", "Output format: text, markdown or mermaid")
}

func init() {
	rootCmd.AddCommand(treeCmd)
	addRemoteFlags(treeCmd)
}
