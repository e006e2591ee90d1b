package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/palimpsest/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --http to serve streamable HTTP instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Examples:
  # Stdio mode (default, for Claude Desktop)
  palimpsest mcp

  # HTTP mode (for MCP Inspector, remote access)
  palimpsest mcp --http :8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "palimpsest": {
        "command": "/path/to/palimpsest",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

var mcpHTTPAddr string

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "Listen address for HTTP, e.g. :8080 (empty = use stdio)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ports := &mcp.Ports{
		Ingestion:   ingestionService,
		Query:       queryService,
		Translation: translationService,
		Document:    documentService,
		Version:     version,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	resumeInterrupted(cmd)

	if mcpHTTPAddr != "" {
		cmd.Printf("MCP server listening on http://localhost%s\n", mcpHTTPAddr)
		return server.RunHTTP(cmd.Context(), mcpHTTPAddr)
	}

	return server.Run(cmd.Context())
}
