// Package domain models per-state electric-vehicle (EV) adoption data and the
// pure transforms that derive dashboard and forecast indicators from it.
//
// # Data Source
//
// Input is an analyst-maintained CSV with one row per (state, year). The
// columns this package understands are state, year, charging_stations,
// fast_charger_pct and urban_coverage_pct. Any other column is carried through
// to the export verbatim (see [Record.Extra]).
//
// # Conventions
//
// Percentages:
//
//	The dashboard input stores fast_charger_pct and urban_coverage_pct on a
//	0-100 scale; [RescalePercentages] converts them to fractions. The forecast
//	input already stores fractions in [0, 1].
//
// Undefined values:
//
//	Computations that have no defined result (first growth value of a state,
//	normalization against a zero maximum, penetration with no sales) produce
//	NaN. Exporters write NaN as an empty cell. Division of a positive value by
//	zero produces +Inf and is exported as "inf".
//
// Ordering:
//
//	Growth rates and trend fits are computed per state in ascending year
//	order. [Table.SortByStateYear] is a stable sort, so rows sharing a
//	(state, year) key keep their input order.
//
// # Category Schemes
//
// Two readiness bucketings exist and are intentionally kept apart:
//
//	Dashboard: (0, 0.5] Low | (0.5, 0.75] Medium | (0.75, 1] High
//	Forecast:  (0, 0.3] Emerging (Low) | (0.3, 0.6] Developing (Mid) | (0.6, 1.1] Leader (High)
//
// Bins are right-inclusive and the lowest edge is excluded, so a score of
// exactly 0 has no category.
//
// # Sales Synthesis
//
// Historical sales are synthesized from infrastructure counts:
//
//	ev_share     = min(base_rate * stations/400 * policy, 0.18)
//	base_rate    = 0.01 before 2020, 0.04 from 2020
//	total_market = 600000 * 1.03^(year-2016)
//
// See [SynthesizeSales] and [PolicyTable].
package domain
