package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/contentgate/bootstrap"
	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/formatter"
	"github.com/artpar/contentgate/core/runtime"
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Read items from the database",
	Long: `Read items of any list through the runtime.

Examples:
  contentgate items list Post
  contentgate items list Post --where '{"status":{"equals":"published"}}' --take 10
  contentgate items list User --columns name,email --format json
  contentgate items get Post 3f2c...`,
}

var itemsListCmd = &cobra.Command{
	Use:   "list <List>",
	Short: "List items",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemsList,
}

var itemsGetCmd = &cobra.Command{
	Use:   "get <List> <id>",
	Short: "Show one item",
	Args:  cobra.ExactArgs(2),
	RunE:  runItemsGet,
}

var (
	itemsFormat  string
	itemsColumns []string
	itemsWhere   string
	itemsOrderBy string
	itemsTake    int
	itemsSkip    int
)

func init() {
	rootCmd.AddCommand(itemsCmd)
	itemsCmd.AddCommand(itemsListCmd)
	itemsCmd.AddCommand(itemsGetCmd)

	itemsCmd.PersistentFlags().StringVarP(&itemsFormat, "format", "o", "table", "output format: table, json, yaml")
	itemsCmd.PersistentFlags().StringSliceVar(&itemsColumns, "columns", nil, "fields to show")

	itemsListCmd.Flags().StringVar(&itemsWhere, "where", "", "filter as JSON, e.g. '{\"title\":{\"contains\":\"go\"}}'")
	itemsListCmd.Flags().StringVar(&itemsOrderBy, "order-by", "", "ordering as JSON, e.g. '{\"title\":\"asc\"}'")
	itemsListCmd.Flags().IntVar(&itemsTake, "take", 0, "maximum number of items (0 = all)")
	itemsListCmd.Flags().IntVar(&itemsSkip, "skip", 0, "number of items to skip")
}

// openItems boots the application and resolves the list and formatter.
func openItems(list string) (*bootstrap.App, convention.Derived, formatter.Formatter, error) {
	f, err := formatter.NewRegistry().Get(itemsFormat)
	if err != nil {
		return nil, convention.Derived{}, nil, err
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, convention.Derived{}, nil, err
	}
	cfg.Logging.Level = "error"

	app, err := bootstrap.New(cfg)
	if err != nil {
		return nil, convention.Derived{}, nil, fmt.Errorf("error initializing: %w", err)
	}

	d, ok := app.Registry.Get(list)
	if !ok {
		app.Shutdown()
		return nil, convention.Derived{}, nil, fmt.Errorf("unknown list %q", list)
	}
	return app, d, f, nil
}

func runItemsList(cmd *cobra.Command, args []string) error {
	var find runtime.FindArgs
	if itemsWhere != "" {
		if err := json.Unmarshal([]byte(itemsWhere), &find.Where); err != nil {
			return fmt.Errorf("invalid --where: %w", err)
		}
	}
	if itemsOrderBy != "" {
		var one map[string]any
		if err := json.Unmarshal([]byte(itemsOrderBy), &one); err == nil {
			find.OrderBy = []map[string]any{one}
		} else if err := json.Unmarshal([]byte(itemsOrderBy), &find.OrderBy); err != nil {
			return fmt.Errorf("invalid --order-by: %w", err)
		}
	}
	if itemsTake > 0 {
		take := itemsTake
		find.Take = &take
	}
	find.Skip = itemsSkip

	app, d, f, err := openItems(args[0])
	if err != nil {
		return err
	}
	defer app.Shutdown()

	items, err := app.Runtime.FindMany(context.Background(), d.Source.Key, find)
	if err != nil {
		return err
	}
	return f.FormatList(cmd.OutOrStdout(), d, items, formatter.Options{Columns: itemsColumns, MaxWidth: 40})
}

func runItemsGet(cmd *cobra.Command, args []string) error {
	app, d, f, err := openItems(args[0])
	if err != nil {
		return err
	}
	defer app.Shutdown()

	item, err := app.Runtime.FindOne(context.Background(), d.Source.Key, map[string]any{convention.FieldID: args[1]})
	if errors.Is(err, runtime.ErrNotFound) {
		item = nil
	} else if err != nil {
		return err
	}
	return f.FormatItem(cmd.OutOrStdout(), d, item, formatter.Options{Columns: itemsColumns})
}
