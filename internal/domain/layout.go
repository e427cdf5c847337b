package domain

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// ValueKind identifies which field of a Value is set.
type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindInt
	KindFloat
	KindText
)

// Value is a single exported cell.
type Value struct {
	Kind  ValueKind
	Int   int
	Float float64
	Text  string
}

// IntValue wraps an integer cell.
func IntValue(v int) Value { return Value{Kind: KindInt, Int: v} }

// FloatValue wraps a float cell; NaN becomes an empty cell.
func FloatValue(v float64) Value {
	if math.IsNaN(v) {
		return Value{}
	}
	return Value{Kind: KindFloat, Float: v}
}

// TextValue wraps a string cell; the empty string becomes an empty cell.
func TextValue(v string) Value {
	if v == "" {
		return Value{}
	}
	return Value{Kind: KindText, Text: v}
}

// String renders the value the way the CSV export writes it.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.Itoa(v.Int)
	case KindFloat:
		return formatFloat(v.Float)
	case KindText:
		return v.Text
	default:
		return ""
	}
}

// formatFloat prints the shortest representation that round-trips, always
// keeping a decimal point or exponent so floats stay distinguishable from ints.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if strings.ContainsRune(s, '.') {
		return s
	}
	return s + ".0"
}

// Layout is the ordered set of columns one export writes. Leading columns come
// first, then pass-through input columns, then trailing columns.
type Layout struct {
	Name     string
	leading  []string
	trailing []string
}

// DashboardLayout is written by the enrichment pipeline.
var DashboardLayout = Layout{
	Name:    "dashboard",
	leading: RequiredColumns,
	trailing: []string{
		ColNormalizedChargingStations,
		ColReadinessScore,
		ColChargingGrowthPct,
		ColTransitionCategory,
	},
}

// ForecastLayout is written by the forecast pipeline.
var ForecastLayout = Layout{
	Name:    "forecast",
	leading: RequiredColumns,
	trailing: []string{
		ColEVSales,
		ColICESales,
		ColPolicyScore,
		ColDataType,
		ColNormalizedChargingStations,
		ColReadinessScore,
		ColChargingGrowthPct,
		ColTransitionCategory,
		ColEV2W,
		ColEV3W,
		ColEV4W,
		ColPenetrationPct,
	},
}

// Columns returns the header for t. Pass-through columns that the layout
// computes itself are dropped; coordinates are appended for located tables.
func (l Layout) Columns(t Table) []string {
	cols := slices.Clone(l.leading)
	for _, c := range t.extraColumns {
		if l.computes(c) || (t.located && isCoordinate(c)) || slices.Contains(cols, c) {
			continue
		}
		cols = append(cols, c)
	}
	cols = append(cols, l.trailing...)
	if t.located {
		cols = append(cols, ColLatitude, ColLongitude)
	}
	return cols
}

// Row returns the cells of r in the order given by columns.
func (l Layout) Row(r Record, columns []string) []Value {
	out := make([]Value, len(columns))
	for i, c := range columns {
		out[i] = l.Value(r, c)
	}
	return out
}

// Value returns the cell of r for column.
func (l Layout) Value(r Record, column string) Value {
	if isCoordinate(column) && r.Geo != nil {
		if column == ColLatitude {
			return FloatValue(r.Geo.Lat)
		}
		return FloatValue(r.Geo.Lon)
	}
	if !l.computes(column) {
		return TextValue(r.Extra[column])
	}
	switch column {
	case ColState:
		return TextValue(r.State)
	case ColYear:
		return IntValue(r.Year)
	case ColChargingStations:
		return IntValue(r.ChargingStations)
	case ColFastChargerPct:
		return FloatValue(r.FastChargerPct)
	case ColUrbanCoveragePct:
		return FloatValue(r.UrbanCoveragePct)
	case ColEVSales:
		return IntValue(r.EVSales)
	case ColICESales:
		return IntValue(r.ICESales)
	case ColPolicyScore:
		return FloatValue(r.PolicyScore)
	case ColDataType:
		return TextValue(string(r.DataType))
	case ColNormalizedChargingStations:
		return FloatValue(r.NormalizedChargingStations)
	case ColReadinessScore:
		return FloatValue(r.ReadinessScore)
	case ColChargingGrowthPct:
		return FloatValue(r.ChargingGrowthPct)
	case ColTransitionCategory:
		return TextValue(r.TransitionCategory)
	case ColEV2W:
		return IntValue(r.EV2W)
	case ColEV3W:
		return IntValue(r.EV3W)
	case ColEV4W:
		return IntValue(r.EV4W)
	case ColPenetrationPct:
		return FloatValue(r.PenetrationPct)
	}
	return Value{}
}

func (l Layout) computes(column string) bool {
	return slices.Contains(l.leading, column) || slices.Contains(l.trailing, column)
}

func isCoordinate(column string) bool {
	return column == ColLatitude || column == ColLongitude
}
