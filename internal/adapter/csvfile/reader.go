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
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/ev-adoption-etl/internal/domain"
)

var (
	errNotInteger = errors.New("not an integer")
	errEmptyValue = errors.New("empty value")
	errNotFinite  = errors.New("not a finite number")
)

// Reader loads a typed table from a CSV file with a header row.
type Reader struct {
	path   string
	logger *slog.Logger
}

// NewReader creates a Reader for the file at path.
func NewReader(path string, logger *slog.Logger) *Reader {
	return &Reader{path: path, logger: logger}
}

// Extract reads and validates the whole file. A missing file is reported as
// domain.ErrInputNotFound.
func (r *Reader) Extract(ctx context.Context) (domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return domain.Table{}, err
	}

	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Table{}, fmt.Errorf("%w: %s", domain.ErrInputNotFound, r.path)
		}
		return domain.Table{}, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	t, err := Decode(bufio.NewReader(f))
	if err != nil {
		return domain.Table{}, fmt.Errorf("load %s: %w", r.path, err)
	}

	r.logger.Info("input loaded", "path", r.path, "rows", t.Len(), "extra_columns", len(t.ExtraColumns()))
	return t, nil
}

// Decode parses CSV content into a Table. Required columns are typed; every
// other column is kept verbatim as a pass-through value.
func Decode(in io.Reader) (domain.Table, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.Table{}, errors.New("csv has no header row")
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		header[i] = h
		if _, dup := col[h]; !dup {
			col[h] = i
		}
	}
	for _, name := range domain.RequiredColumns {
		if _, ok := col[name]; !ok {
			return domain.Table{}, &ColumnError{Column: name}
		}
	}

	var extras []string
	for i, h := range header {
		if h == "" || col[h] != i || slices.Contains(domain.RequiredColumns, h) {
			continue
		}
		extras = append(extras, h)
	}

	var records []domain.Record
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Table{}, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if isBlank(fields) {
			continue
		}

		rec, err := decodeRecord(fields, col, extras, line)
		if err != nil {
			return domain.Table{}, err
		}
		records = append(records, rec)
	}

	return domain.NewTable(records, extras), nil
}

func decodeRecord(fields []string, col map[string]int, extras []string, line int) (domain.Record, error) {
	get := func(name string) string {
		i := col[name]
		if i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	year, err := parseInt(get(domain.ColYear))
	if err != nil {
		return domain.Record{}, &ParseError{Row: line, Column: domain.ColYear, Value: get(domain.ColYear), Err: err}
	}
	stations, err := parseInt(get(domain.ColChargingStations))
	if err != nil {
		return domain.Record{}, &ParseError{Row: line, Column: domain.ColChargingStations, Value: get(domain.ColChargingStations), Err: err}
	}
	if stations < 0 {
		return domain.Record{}, &ParseError{Row: line, Column: domain.ColChargingStations, Value: get(domain.ColChargingStations), Err: errors.New("negative count")}
	}
	fast, err := parseFloat(get(domain.ColFastChargerPct))
	if err != nil {
		return domain.Record{}, &ParseError{Row: line, Column: domain.ColFastChargerPct, Value: get(domain.ColFastChargerPct), Err: err}
	}
	urban, err := parseFloat(get(domain.ColUrbanCoveragePct))
	if err != nil {
		return domain.Record{}, &ParseError{Row: line, Column: domain.ColUrbanCoveragePct, Value: get(domain.ColUrbanCoveragePct), Err: err}
	}

	rec := domain.NewRecord(get(domain.ColState), year, stations, fast, urban)
	if len(extras) > 0 {
		rec.Extra = make(map[string]string, len(extras))
		for _, name := range extras {
			if i := col[name]; i < len(fields) {
				rec.Extra[name] = fields[i]
			}
		}
	}
	return rec, nil
}

// parseInt accepts plain integers and integral floats such as "2019.0".
func parseInt(s string) (int, error) {
	if s == "" {
		return 0, errEmptyValue
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errNotInteger
	}
	return int(f), nil
}

// parseFloat requires a finite number. Blank, NaN and infinite cells would
// poison the per-state trend fits downstream.
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, errEmptyValue
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
