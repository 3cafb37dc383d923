// Package export renders console listings and receipts as PDF files.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/zap"
)

const fileTimeLayout = "20060102-150405"

var (
	ErrNoColumns = errors.New("export needs at least one column")

	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

type Column struct {
	Key   string
	Label string
}

// Table is a generic listing. Row values are looked up by column key;
// a dotted key walks nested maps.
type Table struct {
	Title   string
	Columns []Column
	Rows    []map[string]any
}

type Exporter struct {
	dir    string
	now    func() time.Time
	logger *zap.Logger
}

func NewExporter(dir string, logger *zap.Logger) *Exporter {
	if dir == "" {
		dir = "."
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{dir: dir, now: time.Now, logger: logger.Named("export")}
}

// WriteTable renders t and writes it as <entity>-<yyyymmdd-hhmmss>.pdf,
// returning the file path.
func (e *Exporter) WriteTable(entity string, t Table) (string, error) {
	doc, err := RenderTable(t, e.now())
	if err != nil {
		return "", err
	}
	return e.write(entity, doc, zap.Int("rows", len(t.Rows)))
}

func (e *Exporter) write(entity string, doc []byte, fields ...zap.Field) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(e.dir, FileName(entity, e.now()))
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	e.logger.Info("exported", append(fields, zap.String("path", path), zap.Int("bytes", len(doc)))...)
	return path, nil
}

func FileName(entity string, at time.Time) string {
	entity = strings.TrimSpace(strings.ToLower(entity))
	if entity == "" {
		entity = "export"
	}
	entity = strings.ReplaceAll(entity, " ", "-")
	return entity + "-" + at.Format(fileTimeLayout) + ".pdf"
}

// RenderTable produces the PDF bytes of a listing. Wide tables switch to
// landscape.
func RenderTable(t Table, at time.Time) ([]byte, error) {
	if len(t.Columns) == 0 {
		return nil, ErrNoColumns
	}

	builder := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithMaxGridSize(len(t.Columns)).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle(t.Title, true)
	if len(t.Columns) > 6 {
		builder = builder.WithOrientation(orientation.Horizontal)
	}
	m := maroto.New(builder.Build())

	width := len(t.Columns)
	m.AddRows(
		row.New(10).Add(col.New(width).Add(
			text.New(t.Title, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
		)),
		row.New(6).Add(col.New(width).Add(
			text.New(fmt.Sprintf("Generated %s, %d rows", at.Format("2006-01-02 15:04"), len(t.Rows)),
				props.Text{Size: 8, Color: colorGray}),
		)),
		line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}),
	)

	header := row.New(7)
	for _, c := range t.Columns {
		header.Add(col.New(1).Add(text.New(c.Label, props.Text{Style: fontstyle.Bold, Top: 1, Left: 1})))
	}
	m.AddRows(header)

	for _, r := range t.Rows {
		cells := row.New(6)
		for _, c := range t.Columns {
			cells.Add(col.New(1).Add(text.New(FormatValue(Lookup(r, c.Key)), props.Text{Top: 1, Left: 1})))
		}
		m.AddRows(cells)
	}

	return generate(m)
}

func generate(m core.Maroto) ([]byte, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

// Lookup resolves a dotted key against nested maps.
func Lookup(row map[string]any, key string) any {
	var cur any = row
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		if cur, ok = m[part]; !ok {
			return nil
		}
	}
	return cur
}

// FormatValue renders a cell: nothing for nil, Yes/No for booleans and
// numbers without trailing zeros.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
