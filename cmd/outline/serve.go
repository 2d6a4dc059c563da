package main

import (
	"github.com/aretw0/outline/internal/cli"
	"github.com/aretw0/outline/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reference content authority",
	Long: `Starts the authority HTTP server over the configured store (memory or redis).
Routes live under /xblock; /metrics exposes Prometheus metrics and /openapi.yaml the API description.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); cmd.Flags().Changed("addr") {
			cfg.Server.Addr = addr
		}
		importPath, _ := cmd.Flags().GetString("import")

		if tui.IsTerminal(cmd.OutOrStdout()) {
			tui.PrintBanner(cmd.OutOrStdout())
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		err = cli.Serve(ctx, cli.ServeOptions{
			Config:     cfg,
			ImportPath: importPath,
			Logger:     logger,
		})
		if sig := ctx.Signal(); sig != nil {
			logger.Info("shutdown requested", "signal", sig.String())
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (overrides the configuration)")
	serveCmd.Flags().String("import", "", "Outline file (yaml or json) imported at startup")
}
