package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/runtime"
	"github.com/artpar/contentgate/core/schema"
)

// TableFormatter formats output as aligned text tables.
type TableFormatter struct{}

// Name returns the formatter name.
func (TableFormatter) Name() string {
	return "table"
}

// FormatList formats items as rows under an upper-cased header.
func (f TableFormatter) FormatList(w io.Writer, d convention.Derived, items []runtime.Item, opts Options) error {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	cols := Columns(d, opts.Columns)

	if !opts.NoHeader {
		headers := make([]string, len(cols))
		for i, col := range cols {
			headers[i] = strings.ToUpper(col)
		}
		fmt.Fprintln(tw, strings.Join(headers, "\t"))
	}

	for _, item := range items {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = formatValue(item[col], opts.MaxWidth)
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}
	return tw.Flush()
}

// FormatItem formats a single item as "field: value" lines.
func (f TableFormatter) FormatItem(w io.Writer, d convention.Derived, item runtime.Item, opts Options) error {
	if item == nil {
		fmt.Fprintln(w, "Item not found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, col := range Columns(d, opts.Columns) {
		fmt.Fprintf(tw, "%s:\t%s\n", col, formatValue(item[col], 0))
	}
	return tw.Flush()
}

func formatValue(val any, maxWidth int) string {
	var str string
	switch v := val.(type) {
	case nil:
		return "-"
	case string:
		str = v
	case bool:
		if v {
			str = "yes"
		} else {
			str = "no"
		}
	case time.Time:
		str = v.UTC().Format(time.RFC3339)
	case schema.PasswordState:
		if v.IsSet {
			str = "set"
		} else {
			str = "-"
		}
	case float64:
		if v == float64(int64(v)) {
			str = fmt.Sprintf("%d", int64(v))
		} else {
			str = fmt.Sprintf("%.2f", v)
		}
	case int, int64:
		str = fmt.Sprintf("%d", v)
	default:
		b, _ := json.Marshal(v)
		str = string(b)
	}

	if maxWidth > 3 && len(str) > maxWidth {
		str = str[:maxWidth-3] + "..."
	}
	return str
}
