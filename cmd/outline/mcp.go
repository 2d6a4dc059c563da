package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aretw0/outline/internal/cli"
	httpAdapter "github.com/aretw0/outline/pkg/adapters/http"
	"github.com/aretw0/outline/pkg/adapters/mcp"
	"github.com/aretw0/outline/pkg/wire"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes outline tooling to AI agents as MCP tools:
compute_visibility, validate_gating and, when --url is set, get_outline.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		url, _ := cmd.Flags().GetString("url")

		slog.SetDefault(logger)

		var source mcp.OutlineSource
		if url != "" {
			client := httpAdapter.NewClient(url, httpAdapter.WithMethodOverride(cfg.Server.MethodOverride))
			source = mcp.TransportSource(client, wire.DefaultPaths())
		}
		srv := mcp.NewServer(source, mcp.WithCourseSettings(cfg.Course))

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("starting outline MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()
			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
	mcpCmd.Flags().String("url", "", "Base URL of a content authority for get_outline")
}
