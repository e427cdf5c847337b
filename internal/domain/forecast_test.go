package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyRow(state string, year, stations int, fast, urban float64, ev, ice int, policy float64) Record {
	r := NewRecord(state, year, stations, fast, urban)
	r.EVSales, r.ICESales, r.PolicyScore = ev, ice, policy
	r.DataType = Historical
	return r
}

func TestFitTrend(t *testing.T) {
	trend := FitTrend([]int{2020, 2021, 2022}, []float64{10, 20, 30})
	assert.InDelta(t, 10.0, trend.Slope, 1e-9)
	assert.InDelta(t, 40.0, trend.Predict(2023), 1e-6)
	assert.InDelta(t, 60.0, trend.Predict(2025), 1e-6)
}

func TestForecastState(t *testing.T) {
	history := []Record{
		historyRow(testDelhi, 2024, 300, 0.3, 0.3, 800, 1000, 1.8),
		historyRow(testDelhi, 2022, 100, 0.5, 0.1, 1000, 5000, 1.7),
		historyRow(testDelhi, 2023, 200, 0.4, 0.2, 900, 3000, 1.8),
	}

	rows, err := ForecastState(testDelhi, history)
	require.NoError(t, err)
	require.Len(t, rows, len(ForecastYears))

	for i, r := range rows {
		assert.Equal(t, testDelhi, r.State)
		assert.Equal(t, ForecastYears[i], r.Year)
		assert.Equal(t, Forecast, r.DataType)
		assert.Equal(t, 1.8, r.PolicyScore, "policy carries forward from the latest year")
		assert.Nil(t, r.Extra)
	}

	t.Run("stations project from the last value by the mean delta", func(t *testing.T) {
		assert.Equal(t, 400, rows[0].ChargingStations)
		assert.Equal(t, 500, rows[1].ChargingStations)
		assert.Equal(t, 600, rows[2].ChargingStations)
	})

	t.Run("fast charger share never falls below the historical minimum", func(t *testing.T) {
		for _, r := range rows {
			assert.Equal(t, 0.3, r.FastChargerPct)
		}
	})

	t.Run("urban coverage follows the trend", func(t *testing.T) {
		assert.Equal(t, 0.4, rows[0].UrbanCoveragePct)
		assert.Equal(t, 0.5, rows[1].UrbanCoveragePct)
		assert.Equal(t, 0.6, rows[2].UrbanCoveragePct)
	})

	t.Run("EV sales floored 5 percent above the historical peak", func(t *testing.T) {
		for _, r := range rows {
			assert.Equal(t, 1050, r.EVSales)
			assert.GreaterOrEqual(t, float64(r.EVSales), 1.05*1000)
		}
	})

	t.Run("ICE sales floored at 1000", func(t *testing.T) {
		for _, r := range rows {
			assert.Equal(t, 1000, r.ICESales)
		}
	})

	assert.Equal(t, 2024, history[0].Year, "input slice must not be reordered")
}

func TestForecastState_Clipping(t *testing.T) {
	history := []Record{
		historyRow(testKerala, 2022, 300, 0.8, 0.95, 100, 9000, 1.5),
		historyRow(testKerala, 2023, 200, 0.9, 0.97, 200, 9500, 1.5),
		historyRow(testKerala, 2024, 100, 1.0, 0.99, 300, 10000, 1.5),
	}

	rows, err := ForecastState(testKerala, history)
	require.NoError(t, err)

	for _, r := range rows {
		assert.Equal(t, 1.0, r.FastChargerPct, "capped at 1.0")
		assert.LessOrEqual(t, r.UrbanCoveragePct, 1.0)
		assert.GreaterOrEqual(t, r.UrbanCoveragePct, 0.95)
		assert.Zero(t, r.ChargingStations, "declining infrastructure is floored at zero")
	}

	assert.Equal(t, 400, rows[0].EVSales, "trend above the floor is kept")
	assert.Equal(t, 500, rows[1].EVSales)
	assert.Equal(t, 10500, rows[0].ICESales)
}

func TestForecastState_InsufficientHistory(t *testing.T) {
	tests := []struct {
		name    string
		history []Record
		years   int
	}{
		{"no rows", nil, 0},
		{"single year", []Record{historyRow(testDelhi, 2024, 1, 0.1, 0.1, 1, 1, 1)}, 1},
		{"duplicate year", []Record{
			historyRow(testDelhi, 2024, 1, 0.1, 0.1, 1, 1, 1),
			historyRow(testDelhi, 2024, 2, 0.2, 0.2, 2, 2, 1),
		}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ForecastState(testDelhi, tt.history)

			var histErr *InsufficientHistoryError
			require.True(t, errors.As(err, &histErr))
			assert.Equal(t, testDelhi, histErr.State)
			assert.Equal(t, tt.years, histErr.Years)
			assert.Contains(t, err.Error(), testDelhi)
		})
	}
}

func TestForecastState_UndefinedInput(t *testing.T) {
	tests := []struct {
		name   string
		fast   float64
		urban  float64
		column string
	}{
		{"NaN fast charger share", math.NaN(), 0.35, ColFastChargerPct},
		{"NaN urban coverage", 0.25, math.NaN(), ColUrbanCoveragePct},
		{"infinite urban coverage", 0.25, math.Inf(1), ColUrbanCoveragePct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := []Record{
				historyRow(testDelhi, 2022, 100, 0.2, 0.3, 800, 5000, 1.8),
				historyRow(testDelhi, 2023, 150, tt.fast, tt.urban, 900, 4000, 1.8),
				historyRow(testDelhi, 2024, 200, 0.3, 0.4, 1000, 3000, 1.8),
			}

			rows, err := ForecastState(testDelhi, history)

			assert.Nil(t, rows)
			var inputErr *UndefinedInputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, testDelhi, inputErr.State)
			assert.Equal(t, 2023, inputErr.Year)
			assert.Equal(t, tt.column, inputErr.Column)
		})
	}
}

func TestEVSalesFloor(t *testing.T) {
	tests := []struct {
		peak     float64
		expected int
	}{
		{0, 0},
		{20, 21},
		{100, 105},
		{8851, 9294},
		{1000, 1050},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.peak), func(t *testing.T) {
			got := evSalesFloor(tt.peak)
			assert.Equal(t, tt.expected, got)
			assert.GreaterOrEqual(t, float64(got)*100, tt.peak*105)
		})
	}
}

func syntheticHistory() Table {
	var rows []Record
	for i, state := range []string{"Tamil Nadu", testDelhi, "Goa", testKerala} {
		for year := 2018; year <= 2024; year++ {
			stations := 50*(i+1) + 40*(year-2018)
			fast := 0.1 + 0.02*float64(year-2018) + 0.01*float64(i)
			urban := 0.3 + 0.05*float64(year-2018)
			rows = append(rows, NewRecord(state, year, stations, fast, urban))
		}
	}
	return SynthesizeHistory(NewTable(rows, nil), DefaultPolicyTable())
}

func TestBuildForecast(t *testing.T) {
	hist := syntheticHistory()

	sequential, err := BuildForecast(context.Background(), hist, 1)
	require.NoError(t, err)
	parallel, err := BuildForecast(context.Background(), hist, 4)
	require.NoError(t, err)

	require.Equal(t, 4*len(ForecastYears), sequential.Len())
	if diff := cmp.Diff(sequential.Records(), parallel.Records(), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("forecast depends on worker count (-sequential +parallel):\n%s", diff)
	}
	assert.Equal(t, hist.States(), sequential.States(), "states keep first-appearance order")

	peaks := map[string]int{}
	for _, r := range hist.Records() {
		peaks[r.State] = max(peaks[r.State], r.EVSales)
	}
	for _, r := range sequential.Records() {
		assert.GreaterOrEqual(t, float64(r.EVSales), 1.05*float64(peaks[r.State]), "%s %d", r.State, r.Year)
		assert.GreaterOrEqual(t, r.ICESales, 1000)
		assert.True(t, slices.Contains(ForecastYears, r.Year))
	}
}

func TestBuildForecast_FailsLoudly(t *testing.T) {
	hist := syntheticHistory().Concat(NewTable([]Record{
		historyRow("Sikkim", 2024, 3, 0.1, 0.1, 10, 100, 1.0),
	}, nil))

	_, err := BuildForecast(context.Background(), hist, 2)

	var histErr *InsufficientHistoryError
	require.True(t, errors.As(err, &histErr))
	assert.Equal(t, "Sikkim", histErr.State)
}

func TestBuildForecast_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildForecast(ctx, syntheticHistory(), 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestClip(t *testing.T) {
	assert.Equal(t, 0.5, clip(0.2, 0.5, 1))
	assert.Equal(t, 1.0, clip(1.2, 0.5, 1))
	assert.Equal(t, 0.7, clip(0.7, 0.5, 1))
	assert.Equal(t, 1.0, clip(0.7, 1.2, 1), "inverted bounds resolve to the upper bound")
	assert.True(t, math.IsNaN(roundCoverage(math.NaN())))
}
