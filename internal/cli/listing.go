package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"zlagoda_console/internal/export"

	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const maxCellWidth = 40

// listing is a table of JSON-shaped rows: the same rows are printed,
// filtered, sorted, exported and emitted with --json.
type listing struct {
	entity  string
	title   string
	columns []export.Column
	rows    []map[string]any
}

func newListing(entity, title string, columns []export.Column, items any) (*listing, error) {
	rows, err := toRows(items)
	if err != nil {
		return nil, err
	}
	return &listing{entity: entity, title: title, columns: columns, rows: rows}, nil
}

func toRows(items any) ([]map[string]any, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode rows: %w", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}

func (l *listing) table() export.Table {
	return export.Table{Title: l.title, Columns: l.columns, Rows: l.rows}
}

// filter keeps rows where any shown column contains text, ignoring case.
func (l *listing) filter(text string) {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return
	}
	kept := l.rows[:0]
	for _, row := range l.rows {
		for _, c := range l.columns {
			if strings.Contains(strings.ToLower(export.FormatValue(export.Lookup(row, c.Key))), needle) {
				kept = append(kept, row)
				break
			}
		}
	}
	l.rows = kept
}

// sortBy orders rows by a column key; a leading '-' sorts descending.
// Numbers, including decimal strings, compare numerically and text
// follows Ukrainian collation.
func (l *listing) sortBy(field string) error {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}
	desc := strings.HasPrefix(field, "-")
	key := strings.TrimPrefix(field, "-")
	if !l.hasColumn(key) {
		return fmt.Errorf("unknown sort field %q (one of: %s)", key, strings.Join(l.columnKeys(), ", "))
	}

	coll := collate.New(language.Ukrainian, collate.IgnoreCase)
	sort.SliceStable(l.rows, func(i, j int) bool {
		c := compareValues(coll, export.Lookup(l.rows[i], key), export.Lookup(l.rows[j], key))
		if desc {
			return c > 0
		}
		return c < 0
	})
	return nil
}

func compareValues(coll *collate.Collator, a, b any) int {
	if da, ok := asDecimal(a); ok {
		if db, ok := asDecimal(b); ok {
			return da.Cmp(db)
		}
	}
	return coll.CompareString(export.FormatValue(a), export.FormatValue(b))
}

func asDecimal(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), true
	case string:
		d, err := decimal.NewFromString(val)
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}

func (l *listing) hasColumn(key string) bool {
	for _, c := range l.columns {
		if c.Key == key {
			return true
		}
	}
	return false
}

func (l *listing) columnKeys() []string {
	keys := make([]string, 0, len(l.columns))
	for _, c := range l.columns {
		keys = append(keys, c.Key)
	}
	return keys
}

func (l *listing) print(w io.Writer) {
	if len(l.rows) == 0 {
		fmt.Fprintln(w, "(no results)")
		return
	}

	cells := make([][]string, len(l.rows))
	widths := make([]int, len(l.columns))
	for i, c := range l.columns {
		widths[i] = runewidth.StringWidth(c.Label)
	}
	for r, row := range l.rows {
		cells[r] = make([]string, len(l.columns))
		for i, c := range l.columns {
			v := runewidth.Truncate(export.FormatValue(export.Lookup(row, c.Key)), maxCellWidth, "…")
			cells[r][i] = v
			if w := runewidth.StringWidth(v); w > widths[i] {
				widths[i] = w
			}
		}
	}

	line := func(values []string) {
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = runewidth.FillRight(v, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	header := make([]string, len(l.columns))
	rule := make([]string, len(l.columns))
	for i, c := range l.columns {
		header[i] = c.Label
		rule[i] = strings.Repeat("-", widths[i])
	}
	line(header)
	line(rule)
	for _, row := range cells {
		line(row)
	}
	fmt.Fprintf(w, "%d rows\n", len(l.rows))
}

type listFlags struct {
	sort   string
	filter string
	json   bool
}

func newListFlags(name string, out io.Writer) (*flag.FlagSet, *listFlags) {
	lf := &listFlags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&lf.sort, "sort", "", "Sort by field, prefix with '-' for descending")
	fs.StringVar(&lf.filter, "filter", "", "Keep rows containing text")
	fs.BoolVar(&lf.json, "json", false, "Print JSON")
	return fs, lf
}

func (lf *listFlags) apply(l *listing) error {
	l.filter(lf.filter)
	return l.sortBy(lf.sort)
}
