package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/contentgate/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the content server",
	Long: `Start the contentgate server.

The server will:
  - Load configuration from contentgate.yaml (or --config)
  - Or load configuration from CONTENTGATE_* environment variables
  - Connect to the database and create missing tables
  - Serve /api/graphql, the item API, /auth and /admin

Environment variables (for Docker deployments):
  CONTENTGATE_SESSION_SECRET    - Session signing secret, 32+ bytes (required)
  CONTENTGATE_DATABASE_PROVIDER - sqlite, postgresql or mysql
  CONTENTGATE_DATABASE_URL      - Connection string (default: file:./app.db)
  CONTENTGATE_SERVER_PORT       - Server port (default: 3000)
  CONTENTGATE_LOG_LEVEL         - Log level: debug, info, warn, error

Examples:
  contentgate serve
  contentgate serve --config /etc/contentgate/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := bootstrap.New(cfg)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
