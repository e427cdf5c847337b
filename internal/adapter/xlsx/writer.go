// Package xlsx exports tables as spreadsheet workbooks.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/ev-adoption-etl/internal/domain"
)

// SheetName is the worksheet holding the exported rows.
const SheetName = "ev_dashboard"

// Writer exports a table to a single-sheet .xlsx workbook.
type Writer struct {
	path   string
	layout domain.Layout
	logger *slog.Logger
}

// NewWriter creates a Writer for path. The path must carry an .xlsx extension.
func NewWriter(path string, layout domain.Layout, logger *slog.Logger) *Writer {
	return &Writer{path: path, layout: layout, logger: logger}
}

// Path returns the output file path.
func (w *Writer) Path() string { return w.path }

// Load writes t to the workbook, replacing any existing file.
func (w *Writer) Load(ctx context.Context, t domain.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := Build(t, w.layout)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(w.path); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %s", domain.ErrOutputLocked, w.path)
		}
		return fmt.Errorf("save workbook: %w", err)
	}

	w.logger.Info("workbook written", "path", w.path, "sheet", SheetName, "rows", t.Len())
	return nil
}

// Build renders t into a new in-memory workbook. Undefined values are left
// as empty cells and infinities are written as text.
func Build(t domain.Table, layout domain.Layout) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	props := &excelize.DocProperties{
		Creator: "ev-adoption-etl",
		Title:   "EV readiness dashboard",
	}
	if ts := t.GeneratedAt(); !ts.IsZero() {
		props.Created = ts.UTC().Format(time.RFC3339)
		props.Modified = props.Created
	}
	if err := f.SetDocProps(props); err != nil {
		f.Close()
		return nil, fmt.Errorf("set document properties: %w", err)
	}

	columns := layout.Columns(t)
	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, r := range t.Records() {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		values := layout.Row(r, columns)
		row := make([]any, len(values))
		for j, v := range values {
			row[j] = cellValue(v)
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("freeze header: %w", err)
	}
	if len(columns) > 0 {
		last, _ := excelize.ColumnNumberToName(len(columns))
		if err := f.SetColWidth(SheetName, "A", last, 18); err != nil {
			f.Close()
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	return f, nil
}

func cellValue(v domain.Value) any {
	switch v.Kind {
	case domain.KindInt:
		return v.Int
	case domain.KindFloat:
		if math.IsInf(v.Float, 0) {
			return v.String()
		}
		return v.Float
	case domain.KindText:
		return v.Text
	default:
		return nil
	}
}
