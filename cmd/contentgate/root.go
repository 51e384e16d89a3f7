package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/contentgate/config"
)

var (
	// Global flags
	cfgFile string
	envFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "contentgate",
	Short: "Headless content server with generated GraphQL and REST APIs",
	Long: `contentgate serves a set of declared lists (Post, User, Tag by default)
from a SQL database, with a generated GraphQL API, a JSON:API item API,
cookie sessions and a first-user bootstrap flow.

Quick start:
  contentgate serve     # Start the server
  contentgate validate  # Check configuration and lists
  contentgate schema    # Print the SQL schema`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile == "" {
			return config.LoadDotEnv()
		}
		return config.LoadDotEnv(envFile)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "contentgate.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default .env)")
}

// loadConfig reads the config file, falling back to CONTENTGATE_* variables.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return cfg, nil
}
