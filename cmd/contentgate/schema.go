package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/artpar/contentgate/bootstrap"
	"github.com/artpar/contentgate/core/storage"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the SQL schema and relationship table",
	Long: `Print the CREATE statements derived from the lists for the configured
database provider, followed by the resolved relationships.

Examples:
  contentgate schema
  contentgate schema --provider postgresql`,
	RunE: runSchema,
}

var schemaProvider string

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().StringVar(&schemaProvider, "provider", "", "database provider (default: from config)")
}

func runSchema(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, reg, err := bootstrap.LoadRegistry(cfg)
	if err != nil {
		return err
	}

	provider := schemaProvider
	if provider == "" {
		provider = cfg.Database.Provider
	}
	dialect, err := storage.DialectFor(provider)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, stmt := range storage.BuildSchemaSQL(reg, dialect) {
		fmt.Fprintf(out, "%s;\n\n", strings.TrimSpace(stmt))
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "-- KIND\tFROM\tTO\tSTORAGE")
	for _, e := range reg.Edges() {
		where := e.FKList + "." + e.FKColumn
		if e.IsJoin() {
			where = e.JoinTable
		}
		fmt.Fprintf(w, "-- %s\t%s\t%s\t%s\n", e.Kind, e.A, e.B, where)
	}
	return w.Flush()
}
