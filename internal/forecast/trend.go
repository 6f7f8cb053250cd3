package forecast

import "github.com/planora/demandcast/internal/domain"

// TrendLine is the ordinary-least-squares fit of a sales series against its
// sequence index 0..n-1.
type TrendLine struct {
	Slope     float64
	Intercept float64
}

// At evaluates the fitted line at the given sequence index.
func (l TrendLine) At(index float64) float64 {
	return l.Slope*index + l.Intercept
}

// EstimateTrend fits a least-squares line through one product's series.
// The slope is forced to 0 when the index has zero variance (n <= 1), so a
// single-observation series degrades to its constant mean instead of
// extrapolating from one point.
func EstimateTrend(series domain.SalesSeries) TrendLine {
	n := series.Len()
	if n == 0 {
		return TrendLine{}
	}

	ys := series.Quantities()

	// 1. Means of index and quantity
	var xMean, yMean float64
	for i, y := range ys {
		xMean += float64(i)
		yMean += y
	}
	xMean /= float64(n)
	yMean /= float64(n)

	// 2. slope = Σ(x-x̄)(y-ȳ) / Σ(x-x̄)²
	var numerator, denominator float64
	for i, y := range ys {
		dx := float64(i) - xMean
		numerator += dx * (y - yMean)
		denominator += dx * dx
	}

	var slope float64
	if denominator != 0 {
		slope = numerator / denominator
	}

	// 3. intercept = ȳ - slope·x̄
	return TrendLine{
		Slope:     slope,
		Intercept: yMean - slope*xMean,
	}
}
