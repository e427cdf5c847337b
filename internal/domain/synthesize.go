package domain

import "math"

// Market model constants for synthesized history.
const (
	marketBaseYear     = 2016
	marketBaseSize     = 600000
	marketGrowthRate   = 1.03
	earlyAdoptionRate  = 0.01
	matureAdoptionRate = 0.04
	adoptionCutoffYear = 2020
	stationsPerShare   = 400
	maxEVShare         = 0.18
)

// EVShare returns the modelled EV market share for a state-year, capped at 18%.
func EVShare(year, stations int, policy float64) float64 {
	baseRate := matureAdoptionRate
	if year < adoptionCutoffYear {
		baseRate = earlyAdoptionRate
	}
	share := baseRate * (float64(stations) / stationsPerShare) * policy
	return math.Min(share, maxEVShare)
}

// TotalMarket returns the modelled vehicle market size for year, compounding
// 3% a year from the 2016 baseline.
func TotalMarket(year int) float64 {
	return marketBaseSize * math.Pow(marketGrowthRate, float64(year-marketBaseYear))
}

// SynthesizeSales fills EV and ICE sales, the policy score and the data type
// of one historical row. It depends only on the row's state, year and
// charging stations.
func SynthesizeSales(r Record, policies PolicyTable) Record {
	policy := policies.Score(r.State)
	market := TotalMarket(r.Year)
	evSales := int(math.Floor(market * EVShare(r.Year, r.ChargingStations, policy)))

	r.PolicyScore = policy
	r.EVSales = evSales
	r.ICESales = int(math.Floor(market)) - evSales
	r.DataType = Historical
	return r
}

// SynthesizeHistory applies SynthesizeSales to every row.
func SynthesizeHistory(t Table, policies PolicyTable) Table {
	return t.mapRecords(func(r Record) Record {
		return SynthesizeSales(r, policies)
	})
}
