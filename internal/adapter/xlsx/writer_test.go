package xlsx

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/ev-adoption-etl/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dashboardTable() domain.Table {
	a := domain.NewRecord("Delhi", 2019, 100, 20, 40)
	a.Extra = map[string]string{"region": "north"}
	b := domain.NewRecord("Delhi", 2020, 400, 80, 90)
	b.Extra = map[string]string{"region": "north"}
	c := domain.NewRecord("Goa", 2019, 0, 0, 0)
	d := domain.NewRecord("Goa", 2020, 40, 10, 10)
	return domain.EnrichDashboard(domain.NewTable([]domain.Record{a, b, c, d}, []string{"region"}))
}

func TestWriter_Load(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	defer domain.SetClock(nil)

	path := filepath.Join(t.TempDir(), "dashboard.xlsx")
	w := NewWriter(path, domain.DashboardLayout, discardLogger())
	require.NoError(t, w.Load(context.Background(), dashboardTable().Stamp()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, []string{
		"state", "year", "charging_stations", "fast_charger_pct", "urban_coverage_pct", "region",
		"normalized_charging_stations", "ev_readiness_score", "charging_growth_pct", "ev_transition_category",
	}, rows[0])

	delhi2019 := rows[1]
	assert.Equal(t, []string{"Delhi", "2019", "100", "0.2", "0.4", "north", "0.25"}, delhi2019[:7])
	assert.Equal(t, "", delhi2019[8], "first year of a state has no growth")
	assert.Equal(t, "Low", delhi2019[9])

	delhi2020 := rows[2]
	assert.Equal(t, "3", delhi2020[8])
	assert.Equal(t, "High", delhi2020[9])

	goa2019 := rows[3]
	assert.Equal(t, "0", goa2019[7])
	assert.Len(t, goa2019, 8, "undefined trailing cells are empty")

	goa2020 := rows[4]
	assert.Equal(t, "inf", goa2020[8], "growth from zero stations")

	props, err := f.GetDocProps()
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01T09:30:00Z", props.Created)
	assert.Equal(t, "ev-adoption-etl", props.Creator)
}

func TestBuild_HeaderStyle(t *testing.T) {
	f, err := Build(dashboardTable(), domain.DashboardLayout)
	require.NoError(t, err)
	defer f.Close()

	styleID, err := f.GetCellStyle(SheetName, "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)

	v, err := f.GetCellValue(SheetName, "B2")
	require.NoError(t, err)
	assert.Equal(t, "2019", v)
}

func TestCellValue(t *testing.T) {
	assert.Equal(t, 7, cellValue(domain.IntValue(7)))
	assert.Equal(t, 0.5, cellValue(domain.FloatValue(0.5)))
	assert.Equal(t, "-inf", cellValue(domain.FloatValue(math.Inf(-1))))
	assert.Nil(t, cellValue(domain.FloatValue(math.NaN())))
	assert.Equal(t, "Low", cellValue(domain.TextValue("Low")))
}

func TestWriter_Load_Locked(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "dashboard.xlsx")
	require.NoError(t, os.WriteFile(path, nil, 0o400))

	err := NewWriter(path, domain.DashboardLayout, discardLogger()).Load(context.Background(), dashboardTable())
	require.ErrorIs(t, err, domain.ErrOutputLocked)
}

func TestWriter_Load_BadExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.txt")
	err := NewWriter(path, domain.DashboardLayout, discardLogger()).Load(context.Background(), dashboardTable())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save workbook")
}
