package domain

import (
	"context"
	"fmt"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"
)

// ForecastYears are the target years emitted for every state.
var ForecastYears = []int{2025, 2026, 2027}

const (
	// stationProjectionBaseYear anchors the linear charging-station projection.
	stationProjectionBaseYear = 2024
	// evSalesFloorPercent keeps forecast EV sales at least 5% above the
	// state's historical peak.
	evSalesFloorPercent = 105
	minICESales         = 1000
	maxCoverage         = 1.0
	coverageDecimals    = 1e4
)

// InsufficientHistoryError reports a state whose history cannot support a trend fit.
type InsufficientHistoryError struct {
	State string
	Years int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("state %q has %d distinct historical year(s); at least 2 are required to fit a trend", e.State, e.Years)
}

// UndefinedInputError reports a historical row whose fit input is NaN or infinite.
type UndefinedInputError struct {
	State  string
	Year   int
	Column string
}

func (e *UndefinedInputError) Error() string {
	return fmt.Sprintf("state %q year %d: %s is undefined; cannot fit a trend", e.State, e.Year, e.Column)
}

// ForecastState projects one state's history onto ForecastYears. history may
// be in any order and must contain only rows of that state.
func ForecastState(state string, history []Record) ([]Record, error) {
	rows := slices.Clone(history)
	slices.SortStableFunc(rows, func(a, b Record) int { return a.Year - b.Year })

	if n := distinctYears(rows); n < 2 {
		return nil, &InsufficientHistoryError{State: state, Years: n}
	}

	years := make([]int, len(rows))
	evSales := make([]float64, len(rows))
	iceSales := make([]float64, len(rows))
	fast := make([]float64, len(rows))
	urban := make([]float64, len(rows))
	for i, r := range rows {
		if !isFinite(r.FastChargerPct) {
			return nil, &UndefinedInputError{State: state, Year: r.Year, Column: ColFastChargerPct}
		}
		if !isFinite(r.UrbanCoveragePct) {
			return nil, &UndefinedInputError{State: state, Year: r.Year, Column: ColUrbanCoveragePct}
		}
		years[i] = r.Year
		evSales[i] = float64(r.EVSales)
		iceSales[i] = float64(r.ICESales)
		fast[i] = r.FastChargerPct
		urban[i] = r.UrbanCoveragePct
	}

	evTrend := FitTrend(years, evSales)
	iceTrend := FitTrend(years, iceSales)
	fastTrend := FitTrend(years, fast)
	urbanTrend := FitTrend(years, urban)

	last := rows[len(rows)-1]
	growth := meanStationDelta(rows)
	evFloor := evSalesFloor(slices.Max(evSales))
	fastMin := slices.Min(fast)
	urbanMin := slices.Min(urban)

	out := make([]Record, 0, len(ForecastYears))
	for _, year := range ForecastYears {
		stations := int(math.Trunc(float64(last.ChargingStations) + growth*float64(year-stationProjectionBaseYear)))

		r := NewRecord(state, year, max(stations, 0),
			roundCoverage(clip(fastTrend.Predict(year), fastMin, maxCoverage)),
			roundCoverage(clip(urbanTrend.Predict(year), urbanMin, maxCoverage)),
		)
		r.EVSales = max(int(math.Trunc(evTrend.Predict(year))), evFloor)
		r.ICESales = max(int(math.Trunc(iceTrend.Predict(year))), minICESales)
		r.PolicyScore = last.PolicyScore
		r.DataType = Forecast
		out = append(out, r)
	}
	return out, nil
}

// BuildForecast runs ForecastState for every state of t with at most workers
// states in flight. Output follows the order states first appear in t.
func BuildForecast(ctx context.Context, t Table, workers int) (Table, error) {
	states := t.States()
	results := make([][]Record, len(states))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, state := range states {
		history := t.Filter(func(r Record) bool { return r.State == state }).Records()
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, err := ForecastState(state, history)
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Table{}, fmt.Errorf("forecast: %w", err)
	}

	var rows []Record
	for _, r := range results {
		rows = append(rows, r...)
	}
	return NewTable(rows, nil), nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// meanStationDelta is the average year-over-year change in charging stations
// across consecutive rows.
func meanStationDelta(rows []Record) float64 {
	var sum float64
	for i := 1; i < len(rows); i++ {
		sum += float64(rows[i].ChargingStations - rows[i-1].ChargingStations)
	}
	return sum / float64(len(rows)-1)
}

// evSalesFloor returns the smallest integer that is at least 105% of peak.
func evSalesFloor(peak float64) int {
	p := int(peak)
	return (p*evSalesFloorPercent + 99) / 100
}

func distinctYears(rows []Record) int {
	seen := make(map[int]struct{}, len(rows))
	for _, r := range rows {
		seen[r.Year] = struct{}{}
	}
	return len(seen)
}

// clip bounds v to [lo, hi]. When lo > hi the result is hi.
func clip(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func roundCoverage(v float64) float64 {
	return math.RoundToEven(v*coverageDecimals) / coverageDecimals
}
