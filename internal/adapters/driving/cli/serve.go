package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dcgraph-labs/dcgraph-cli/internal/adapters/driven/config/file"
	"github.com/dcgraph-labs/dcgraph-cli/internal/adapters/driven/datacommons"
	"github.com/dcgraph-labs/dcgraph-cli/internal/adapters/driving/mcp"
	"github.com/dcgraph-labs/dcgraph-cli/internal/core/services"
	"github.com/dcgraph-labs/dcgraph-cli/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP, with per-request X-API-Key overrides

Examples:
  # Stdio mode (default, for Claude Desktop)
  dcgraph serve

  # HTTP mode (for MCP Inspector, remote access)
  dcgraph serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "dcgraph": {
        "command": "/path/to/dcgraph",
        "args": ["serve"],
        "env": {"DC_API_KEY": "your-api-key"}
      }
    }
  }`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	serveCmd.Flags().Bool("skip-api-key-validation", false,
		"skip the startup API key check")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	skipValidation, err := cmd.Flags().GetBool("skip-api-key-validation")
	if err != nil {
		return fmt.Errorf("getting skip-api-key-validation flag: %w", err)
	}

	cfg, err := file.Load(configFlag)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		logger.SetVerbose(true)
	}

	ctx := cmd.Context()
	clients, err := datacommons.BuildClients(ctx, cfg)
	if err != nil {
		return err
	}
	if !skipValidation {
		if err := datacommons.ValidateAPIKey(ctx, clients); err != nil {
			return err
		}
	}

	ports := &mcp.Ports{
		Observations: services.NewObservationService(clients),
		Indicators:   services.NewIndicatorService(clients),
		Topics:       clients.SearchTopics(),
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
