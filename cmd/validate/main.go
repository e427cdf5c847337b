// Command validate performs integrity checks on a forecast CSV export. It
// verifies the column set, the forecast horizon, sales floors, the vehicle
// class split and that every derived column is consistent with its inputs.
//
// Usage:
//
//	go run ./cmd/validate -export data/EV_Forecast_Complete.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/ev-adoption-etl/internal/domain"
)

const tolerance = 1e-6

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	export := flag.String("export", "", "path to the forecast CSV export")
	flag.Parse()

	if *export == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*export); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	fmt.Println("=== EV Forecast Export Validation ===")
	fmt.Println()

	header, rows, err := loadCSV(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load export: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateColumns(header),
		validateHorizon(rows),
		validateSalesFloors(rows),
		validateVehicleSplit(rows),
		validateDerived(rows),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d (%d states)\n", len(rows), len(statesOf(rows)))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// csvRow is a parsed CSV row with field values keyed by header name.
type csvRow struct {
	lineNum int
	fields  map[string]string
}

func (r csvRow) str(col string) string { return r.fields[col] }

func (r csvRow) num(col string) float64 {
	v := r.fields[col]
	switch v {
	case "":
		return math.NaN()
	case "inf":
		return math.Inf(1)
	case "-inf":
		return math.Inf(-1)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func (r csvRow) year() int { return int(r.num(domain.ColYear)) }

func loadCSV(path string) ([]string, []csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) < 2 {
		return nil, nil, fmt.Errorf("no data rows in %s", path)
	}

	header := all[0]
	var rows []csvRow
	for i, row := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				fields[strings.TrimSpace(h)] = strings.TrimSpace(row[j])
			}
		}
		rows = append(rows, csvRow{lineNum: i + 2, fields: fields})
	}
	return header, rows, nil
}

func statesOf(rows []csvRow) []string {
	var states []string
	for _, r := range rows {
		if s := r.str(domain.ColState); !slices.Contains(states, s) {
			states = append(states, s)
		}
	}
	return states
}

func byState(rows []csvRow) map[string][]csvRow {
	out := map[string][]csvRow{}
	for _, r := range rows {
		s := r.str(domain.ColState)
		out[s] = append(out[s], r)
	}
	return out
}

// ── Phase 1: Columns ──

func validateColumns(header []string) *phase {
	p := &phase{name: "Phase 1: Column Set"}

	required := append(slices.Clone(domain.RequiredColumns),
		domain.ColEVSales, domain.ColICESales, domain.ColPolicyScore, domain.ColDataType,
		domain.ColNormalizedChargingStations, domain.ColReadinessScore,
		domain.ColChargingGrowthPct, domain.ColTransitionCategory,
		domain.ColEV2W, domain.ColEV3W, domain.ColEV4W, domain.ColPenetrationPct,
	)
	for _, col := range required {
		if !slices.Contains(header, col) {
			p.errorf("missing column %q", col)
		}
	}

	seen := map[string]bool{}
	for _, h := range header {
		if seen[h] {
			p.errorf("duplicate column %q", h)
		}
		seen[h] = true
	}
	return p
}

// ── Phase 2: Forecast Horizon ──
// Every state carries history followed by exactly one row per forecast year.

func validateHorizon(rows []csvRow) *phase {
	p := &phase{name: "Phase 2: Forecast Horizon"}

	for state, group := range byState(rows) {
		var years []int
		var historical int
		for _, r := range group {
			switch domain.DataType(r.str(domain.ColDataType)) {
			case domain.Forecast:
				years = append(years, r.year())
			case domain.Historical:
				historical++
			default:
				p.errorf("%s line %d: unknown data_type %q", state, r.lineNum, r.str(domain.ColDataType))
			}
		}
		slices.Sort(years)
		if !slices.Equal(years, domain.ForecastYears) {
			p.errorf("%s: forecast years %v, want %v", state, years, domain.ForecastYears)
		}
		if historical < 2 {
			p.errorf("%s: only %d historical rows", state, historical)
		}
	}
	return p
}

// ── Phase 3: Sales Floors ──

func validateSalesFloors(rows []csvRow) *phase {
	p := &phase{name: "Phase 3: Sales Floors"}

	for state, group := range byState(rows) {
		var peak float64
		for _, r := range group {
			if domain.DataType(r.str(domain.ColDataType)) == domain.Historical {
				peak = max(peak, r.num(domain.ColEVSales))
			}
		}
		for _, r := range group {
			if domain.DataType(r.str(domain.ColDataType)) != domain.Forecast {
				continue
			}
			if ev := r.num(domain.ColEVSales); ev*100 < peak*105 {
				p.errorf("%s %d: ev_sales %.0f below 105%% of historical peak %.0f", state, r.year(), ev, peak)
			}
			if ice := r.num(domain.ColICESales); ice < 1000 {
				p.errorf("%s %d: ice_sales %.0f below 1000", state, r.year(), ice)
			}
		}
	}
	return p
}

// ── Phase 4: Vehicle Class Split ──

func validateVehicleSplit(rows []csvRow) *phase {
	p := &phase{name: "Phase 4: Vehicle Class Split"}

	for _, r := range rows {
		ev := r.num(domain.ColEVSales)
		w2, w3, w4 := r.num(domain.ColEV2W), r.num(domain.ColEV3W), r.num(domain.ColEV4W)
		if w2+w3+w4 != ev {
			p.errorf("line %d: ev_2w+ev_3w+ev_4w = %.0f, ev_sales = %.0f", r.lineNum, w2+w3+w4, ev)
		}
		if w4 < 0 {
			p.errorf("line %d: negative ev_4w %.0f", r.lineNum, w4)
		}
	}
	return p
}

// ── Phase 5: Derived Columns ──
// Recomputes readiness, growth, category and penetration from the exported
// inputs.

func validateDerived(rows []csvRow) *phase {
	p := &phase{name: "Phase 5: Derived Columns"}

	var maxStations float64
	for _, r := range rows {
		maxStations = max(maxStations, r.num(domain.ColChargingStations))
	}

	for _, r := range rows {
		norm := r.num(domain.ColNormalizedChargingStations)
		if maxStations > 0 && !near(norm, r.num(domain.ColChargingStations)/maxStations) {
			p.errorf("line %d: normalized_charging_stations %g inconsistent with max %g", r.lineNum, norm, maxStations)
		}

		score := r.num(domain.ColReadinessScore)
		want := domain.ReadinessScore(norm, r.num(domain.ColFastChargerPct), r.num(domain.ColUrbanCoveragePct))
		if !near(score, want) {
			p.errorf("line %d: ev_readiness_score %g, want %g", r.lineNum, score, want)
		}

		if got, want := r.str(domain.ColTransitionCategory), domain.ForecastScheme.Classify(score); got != want {
			p.errorf("line %d: ev_transition_category %q, want %q", r.lineNum, got, want)
		}

		total := r.num(domain.ColEVSales) + r.num(domain.ColICESales)
		if total > 0 && !near(r.num(domain.ColPenetrationPct), r.num(domain.ColEVSales)/total*100) {
			p.errorf("line %d: ev_penetration_pct %g inconsistent with sales", r.lineNum, r.num(domain.ColPenetrationPct))
		}
	}

	for state, group := range byState(rows) {
		slices.SortStableFunc(group, func(a, b csvRow) int { return a.year() - b.year() })
		for i, r := range group {
			growth := r.num(domain.ColChargingGrowthPct)
			if i == 0 {
				if growth != 0 {
					p.errorf("%s %d: first-year charging_growth_pct %g, want 0", state, r.year(), growth)
				}
				continue
			}
			prev, cur := group[i-1].num(domain.ColChargingStations), r.num(domain.ColChargingStations)
			want := 0.0
			if prev != 0 || cur != 0 {
				want = (cur - prev) / prev
			}
			if !near(growth, want) {
				p.errorf("%s %d: charging_growth_pct %g, want %g", state, r.year(), growth, want)
			}
		}
	}
	return p
}

// near compares with a relative tolerance and treats matching infinities and
// NaNs as equal.
func near(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return math.Abs(a-b) <= tolerance*max(1, math.Abs(b))
}
