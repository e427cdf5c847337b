package domain

import "math"

// DataType tags a row as synthesized history or model output.
type DataType string

const (
	Historical DataType = "Historical"
	Forecast   DataType = "Forecast"
)

// Input column names shared by every pipeline.
const (
	ColState            = "state"
	ColYear             = "year"
	ColChargingStations = "charging_stations"
	ColFastChargerPct   = "fast_charger_pct"
	ColUrbanCoveragePct = "urban_coverage_pct"
)

// Derived and synthesized column names.
const (
	ColEVSales                    = "ev_sales"
	ColICESales                   = "ice_sales"
	ColPolicyScore                = "policy_score"
	ColDataType                   = "data_type"
	ColNormalizedChargingStations = "normalized_charging_stations"
	ColReadinessScore             = "ev_readiness_score"
	ColChargingGrowthPct          = "charging_growth_pct"
	ColTransitionCategory         = "ev_transition_category"
	ColEV2W                       = "ev_2w"
	ColEV3W                       = "ev_3w"
	ColEV4W                       = "ev_4w"
	ColPenetrationPct             = "ev_penetration_pct"
	ColLatitude                   = "latitude"
	ColLongitude                  = "longitude"
)

// RequiredColumns lists the input columns every loaded table must carry.
var RequiredColumns = []string{
	ColState,
	ColYear,
	ColChargingStations,
	ColFastChargerPct,
	ColUrbanCoveragePct,
}

// Geo is a WGS-84 coordinate pair resolved for a state.
type Geo struct {
	Lat float64
	Lon float64
}

// Record is one (state, year) row. Fields below the input block are derived
// and are recomputed wholesale by the transforms in this package.
type Record struct {
	State            string
	Year             int
	ChargingStations int
	FastChargerPct   float64
	UrbanCoveragePct float64

	EVSales     int
	ICESales    int
	PolicyScore float64
	DataType    DataType

	NormalizedChargingStations float64
	ReadinessScore             float64
	ChargingGrowthPct          float64 // NaN when undefined
	TransitionCategory         string  // empty when the score falls outside every bin
	EV2W                       int
	EV3W                       int
	EV4W                       int
	PenetrationPct             float64 // NaN when ev_sales + ice_sales == 0

	Geo *Geo // nil unless geocoding resolved the state

	// Extra holds input columns this package does not interpret, keyed by header.
	Extra map[string]string
}

// NewRecord builds an input row with every derived field undefined.
func NewRecord(state string, year, stations int, fastChargerPct, urbanCoveragePct float64) Record {
	return Record{
		State:                      state,
		Year:                       year,
		ChargingStations:           stations,
		FastChargerPct:             fastChargerPct,
		UrbanCoveragePct:           urbanCoveragePct,
		PolicyScore:                math.NaN(),
		NormalizedChargingStations: math.NaN(),
		ReadinessScore:             math.NaN(),
		ChargingGrowthPct:          math.NaN(),
		PenetrationPct:             math.NaN(),
	}
}

// cloneExtra copies the pass-through columns so tables never share maps.
func cloneExtra(extra map[string]string) map[string]string {
	if extra == nil {
		return nil
	}
	out := make(map[string]string, len(extra))
	for k, v := range extra {
		out[k] = v
	}
	return out
}
