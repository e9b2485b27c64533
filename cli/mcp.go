// ABOUTME: MCP server subcommand
// ABOUTME: Serves the activity and naming tools over stdio
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/crmactivity/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPCommand starts the MCP server on stdio.
func MCPCommand(app *App) error {
	app.Logger.Info("starting principal activity MCP server")

	server := handlers.NewServer(app.Service, app.Namer, app.Service, app.Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx, &mcp.StdioTransport{})
}
