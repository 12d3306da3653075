package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hmans/shelf/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the GraphQL server",
	Long: `Start an HTTP server that serves the GraphQL API.

The server exposes:
  - GraphQL endpoint at /graphql (POST, and GET for queries)
  - GraphQL playground at /graphql (GET without a query)
  - Health check at /healthz

Examples:
  # Start server on the configured port (default 4000)
  shelf serve

  # Start server on a custom port with an in-memory store
  shelf serve --port 3000 --storage memory`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.Run(ctx, cfg.Server, resolver, logger)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 4000, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
