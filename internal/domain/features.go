package domain

import "math"

// Readiness score weights: infrastructure, fast charging, urban reach.
const (
	stationsWeight      = 0.5
	fastChargerWeight   = 0.3
	urbanCoverageWeight = 0.2
)

// Vehicle class shares of EV sales; four-wheelers take the residual.
const (
	twoWheelerShare   = 0.75
	threeWheelerShare = 0.15
)

// GrowthPolicy decides what an undefined growth value becomes.
type GrowthPolicy int

const (
	// GrowthLeaveMissing keeps NaN for the first year of each state.
	GrowthLeaveMissing GrowthPolicy = iota
	// GrowthFillZero replaces NaN growth values with 0. Infinite values are kept.
	GrowthFillZero
)

// ReadinessScore combines normalized infrastructure and coverage metrics.
func ReadinessScore(normalizedStations, fastChargerPct, urbanCoveragePct float64) float64 {
	return stationsWeight*normalizedStations + fastChargerWeight*fastChargerPct + urbanCoverageWeight*urbanCoveragePct
}

// NormalizeStations divides each station count by the table-wide maximum.
// A zero maximum is not guarded: 0/0 yields NaN and n/0 yields +Inf.
func NormalizeStations(t Table) Table {
	maxStations := 0
	for i, r := range t.records {
		if i == 0 || r.ChargingStations > maxStations {
			maxStations = r.ChargingStations
		}
	}
	denom := float64(maxStations)
	return t.mapRecords(func(r Record) Record {
		r.NormalizedChargingStations = float64(r.ChargingStations) / denom
		return r
	})
}

// RescalePercentages converts fast_charger_pct and urban_coverage_pct from a
// 0-100 scale to fractions.
func RescalePercentages(t Table) Table {
	return t.mapRecords(func(r Record) Record {
		r.FastChargerPct /= 100
		r.UrbanCoveragePct /= 100
		return r
	})
}

// ScoreReadiness sets ReadinessScore on every row from its own inputs.
func ScoreReadiness(t Table) Table {
	return t.mapRecords(func(r Record) Record {
		r.ReadinessScore = ReadinessScore(r.NormalizedChargingStations, r.FastChargerPct, r.UrbanCoveragePct)
		return r
	})
}

// ChargingGrowth sets the fractional change in charging stations from the
// previous row of the same state, in table order. Sort the table first.
func ChargingGrowth(t Table, policy GrowthPolicy) Table {
	prev := make(map[string]int)
	return t.mapRecords(func(r Record) Record {
		last, ok := prev[r.State]
		prev[r.State] = r.ChargingStations

		growth := math.NaN()
		if ok {
			growth = float64(r.ChargingStations-last) / float64(last)
		}
		if math.IsNaN(growth) && policy == GrowthFillZero {
			growth = 0
		}
		r.ChargingGrowthPct = growth
		return r
	})
}

// SplitVehicleClasses divides EV sales into two-, three- and four-wheelers.
// The four-wheeler count is the residual so the three always sum to EVSales.
func SplitVehicleClasses(t Table) Table {
	return t.mapRecords(func(r Record) Record {
		r.EV2W = int(float64(r.EVSales) * twoWheelerShare)
		r.EV3W = int(float64(r.EVSales) * threeWheelerShare)
		r.EV4W = r.EVSales - r.EV2W - r.EV3W
		return r
	})
}

// Penetration sets the EV share of total sales as a percentage.
func Penetration(t Table) Table {
	return t.mapRecords(func(r Record) Record {
		r.PenetrationPct = float64(r.EVSales) / float64(r.EVSales+r.ICESales) * 100
		return r
	})
}

// EnrichDashboard derives the dashboard indicators from a raw input table
// whose percentages are on a 0-100 scale.
func EnrichDashboard(t Table) Table {
	t = NormalizeStations(t)
	t = RescalePercentages(t)
	t = ScoreReadiness(t)
	t = t.SortByStateYear()
	t = ChargingGrowth(t, GrowthLeaveMissing)
	return Categorize(t, DashboardScheme)
}

// RecomputeFeatures rebuilds every derived column of a merged
// historical-plus-forecast table.
func RecomputeFeatures(t Table) Table {
	t = t.SortByStateYear()
	t = NormalizeStations(t)
	t = ScoreReadiness(t)
	t = ChargingGrowth(t, GrowthFillZero)
	t = Categorize(t, ForecastScheme)
	t = SplitVehicleClasses(t)
	return Penetration(t)
}
