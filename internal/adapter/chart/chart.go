// Package chart renders the EV sales trend of every state as an image.
package chart

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/ev-adoption-etl/internal/domain"
)

// Writer saves a line chart of ev_sales by year, one line per state.
// Forecast years are drawn dashed. The image format follows the file
// extension (.png, .svg, .pdf).
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter creates a chart Writer for path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// Path returns the output file path.
func (w *Writer) Path() string { return w.path }

// Load renders t and saves the image.
func (w *Writer) Load(ctx context.Context, t domain.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := Plot(t)
	if err != nil {
		return err
	}
	if err := p.Save(12*vg.Inch, 7*vg.Inch, w.path); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %s", domain.ErrOutputLocked, w.path)
		}
		return fmt.Errorf("save chart: %w", err)
	}

	w.logger.Info("chart written", "path", w.path, "states", len(t.States()))
	return nil
}

// Plot builds the chart for t without saving it.
func Plot(t domain.Table) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "EV sales by state"
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "EV sales"
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	sorted := t.SortByStateYear()
	for i, state := range t.States() {
		history, forecast := series(sorted, state)

		style := draw.LineStyle{Color: plotutil.Color(i), Width: vg.Points(1.5)}

		if len(history) > 0 {
			line, err := plotter.NewLine(history)
			if err != nil {
				return nil, fmt.Errorf("plot %s: %w", state, err)
			}
			line.LineStyle = style
			p.Add(line)
			p.Legend.Add(state, line)
		}

		if len(forecast) > 0 {
			// Join the forecast to the last historical point.
			if len(history) > 0 {
				forecast = append(plotter.XYs{history[len(history)-1]}, forecast...)
			}
			line, err := plotter.NewLine(forecast)
			if err != nil {
				return nil, fmt.Errorf("plot %s forecast: %w", state, err)
			}
			line.LineStyle = style
			line.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
			p.Add(line)
			if len(history) == 0 {
				p.Legend.Add(state, line)
			}
		}
	}

	return p, nil
}

// series splits one state's rows into historical and forecast points.
// Rows without a data type count as history.
func series(sorted domain.Table, state string) (history, forecast plotter.XYs) {
	for _, r := range sorted.Records() {
		if r.State != state {
			continue
		}
		pt := plotter.XY{X: float64(r.Year), Y: float64(r.EVSales)}
		if r.DataType == domain.Forecast {
			forecast = append(forecast, pt)
		} else {
			history = append(history, pt)
		}
	}
	return history, forecast
}
