package domain

import "math"

// CategoryScheme buckets a readiness score into labelled bins. Bins are
// right-inclusive with the lowest edge excluded: label i covers
// (Bounds[i], Bounds[i+1]].
type CategoryScheme struct {
	Name   string
	Bounds []float64
	Labels []string
}

// DashboardScheme is the bucketing used by the dashboard export.
var DashboardScheme = CategoryScheme{
	Name:   "dashboard",
	Bounds: []float64{0, 0.5, 0.75, 1},
	Labels: []string{"Low", "Medium", "High"},
}

// ForecastScheme is the bucketing used by the forecast export.
var ForecastScheme = CategoryScheme{
	Name:   "forecast",
	Bounds: []float64{0, 0.3, 0.6, 1.1},
	Labels: []string{"Emerging (Low)", "Developing (Mid)", "Leader (High)"},
}

// Classify returns the label whose bin contains score, or "" when the score is
// NaN or outside every bin.
func (s CategoryScheme) Classify(score float64) string {
	if math.IsNaN(score) {
		return ""
	}
	for i, label := range s.Labels {
		if score > s.Bounds[i] && score <= s.Bounds[i+1] {
			return label
		}
	}
	return ""
}

// Categorize sets TransitionCategory on every row using scheme.
func Categorize(t Table, scheme CategoryScheme) Table {
	return t.mapRecords(func(r Record) Record {
		r.TransitionCategory = scheme.Classify(r.ReadinessScore)
		return r
	})
}
