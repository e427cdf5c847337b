package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/couchcryptid/ev-adoption-etl/internal/domain"
)

// Writer exports a table to a CSV file using a fixed column layout.
type Writer struct {
	path   string
	layout domain.Layout
	logger *slog.Logger
}

// NewWriter creates a Writer for path.
func NewWriter(path string, layout domain.Layout, logger *slog.Logger) *Writer {
	return &Writer{path: path, layout: layout, logger: logger}
}

// Path returns the output file path.
func (w *Writer) Path() string { return w.path }

// Load writes t to the output file, replacing it. A permission failure
// (usually the file held open by a spreadsheet program) is reported as
// domain.ErrOutputLocked.
func (w *Writer) Load(ctx context.Context, t domain.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Create(w.path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %s", domain.ErrOutputLocked, w.path)
		}
		return fmt.Errorf("create output: %w", err)
	}

	bw := bufio.NewWriter(f)
	if err := Encode(bw, t, w.layout); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	w.logger.Info("csv written", "path", w.path, "rows", t.Len())
	return nil
}

// Encode writes the header and every row of t in layout order.
func Encode(out io.Writer, t domain.Table, layout domain.Layout) error {
	cw := csv.NewWriter(out)
	columns := layout.Columns(t)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	line := make([]string, len(columns))
	for _, r := range t.Records() {
		for i, v := range layout.Row(r, columns) {
			line[i] = v.String()
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
