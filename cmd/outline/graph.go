package main

import (
	"github.com/aretw0/outline/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the outline as a Mermaid diagram",
	Long:  `Fetches the outline and outputs a Mermaid diagram (graph TD) with one class per visibility state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printOutline(cmd, cli.FormatMermaid)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	addRemoteFlags(graphCmd)
}
