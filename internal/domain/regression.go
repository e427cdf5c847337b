package domain

import "gonum.org/v1/gonum/stat"

// LinearTrend is an ordinary least squares fit of a value against year.
type LinearTrend struct {
	Intercept float64
	Slope     float64
}

// FitTrend fits value = Intercept + Slope*year. Callers must supply at least
// two distinct years; fewer leave the slope undefined.
func FitTrend(years []int, values []float64) LinearTrend {
	xs := make([]float64, len(years))
	for i, y := range years {
		xs[i] = float64(y)
	}
	alpha, beta := stat.LinearRegression(xs, values, nil, false)
	return LinearTrend{Intercept: alpha, Slope: beta}
}

// Predict evaluates the trend at year.
func (l LinearTrend) Predict(year int) float64 {
	return l.Intercept + l.Slope*float64(year)
}
