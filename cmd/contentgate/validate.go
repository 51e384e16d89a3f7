package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/artpar/contentgate/bootstrap"
	"github.com/artpar/contentgate/core/storage"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the contentgate configuration.

Checks:
  - Config file (or CONTENTGATE_* environment) is valid
  - Lists parse and their relationships resolve
  - The auth configuration matches the identity list
  - Database is reachable (optional)

Examples:
  contentgate validate
  contentgate validate --check-database`,
	RunE: runValidate,
}

var validateCheckDatabase bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckDatabase, "check-database", false, "check that the database is reachable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(out, "  %s Config valid\n", crossMark)
		return err
	}
	fmt.Fprintf(out, "  %s Config valid\n", checkMark)

	sys, reg, err := bootstrap.LoadRegistry(cfg)
	if err != nil {
		fmt.Fprintf(out, "  %s Lists valid\n", crossMark)
		return err
	}
	fmt.Fprintf(out, "  %s Lists valid: %d lists, %d relationships\n", checkMark, len(reg.List()), len(reg.Edges()))
	fmt.Fprintf(out, "  %s Auth list: %s (%s / %s)\n", checkMark, sys.Auth.ListKey, sys.Auth.IdentityField, sys.Auth.SecretField)
	fmt.Fprintf(out, "  %s Database: %s\n", checkMark, sys.DB.Provider)
	fmt.Fprintf(out, "  %s GraphQL API: %v, item API: %v\n", checkMark,
		sys.Experimental.GenerateGraphQLAPI, sys.Experimental.GenerateNodeAPI)

	if validateCheckDatabase {
		store, err := storage.Open(sys.DB.Provider, sys.DB.URL, reg, zerolog.Nop())
		if err != nil {
			fmt.Fprintf(out, "  %s Database reachable\n", crossMark)
			return err
		}
		store.Close()
		fmt.Fprintf(out, "  %s Database reachable\n", checkMark)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
