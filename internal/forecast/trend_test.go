package forecast_test

import (
	"testing"
	"time"

	"github.com/planora/demandcast/internal/domain"
	"github.com/planora/demandcast/internal/forecast"
	"github.com/stretchr/testify/assert"
)

func seriesOf(product string, quantities ...float64) domain.SalesSeries {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	obs := make([]domain.SalesObservation, len(quantities))
	for i, q := range quantities {
		obs[i] = domain.SalesObservation{
			Product:  product,
			Date:     start.AddDate(0, 0, i),
			Quantity: q,
		}
	}
	return domain.SalesSeries{Product: product, Observations: obs}
}

func TestEstimateTrend_EmptySeries(t *testing.T) {
	line := forecast.EstimateTrend(domain.SalesSeries{Product: "A"})
	assert.Zero(t, line.Slope)
	assert.Zero(t, line.Intercept)
}

func TestEstimateTrend_SingleObservationHasZeroSlope(t *testing.T) {
	line := forecast.EstimateTrend(seriesOf("A", 42))
	assert.Zero(t, line.Slope, "one point gives the index zero variance")
	assert.InDelta(t, 42, line.Intercept, 1e-9)
}

func TestEstimateTrend_ConstantSeriesIsFlat(t *testing.T) {
	line := forecast.EstimateTrend(seriesOf("A", 10, 10, 10, 10))
	assert.InDelta(t, 0, line.Slope, 1e-9)
	assert.InDelta(t, 10, line.Intercept, 1e-9)
}

func TestEstimateTrend_StrictlyIncreasingSeries(t *testing.T) {
	line := forecast.EstimateTrend(seriesOf("A", 1, 2, 3, 4, 5))
	assert.InDelta(t, 1, line.Slope, 1e-9)
	assert.InDelta(t, 1, line.Intercept, 1e-9)
	assert.InDelta(t, 6, line.At(5), 1e-9, "one step past the last index")
}

func TestEstimateTrend_DecreasingSeries(t *testing.T) {
	line := forecast.EstimateTrend(seriesOf("A", 9, 7, 5, 3))
	assert.InDelta(t, -2, line.Slope, 1e-9)
	assert.InDelta(t, 9, line.Intercept, 1e-9)
}

func TestTrendLineAt(t *testing.T) {
	line := forecast.TrendLine{Slope: 2, Intercept: 3}
	assert.InDelta(t, 3, line.At(0), 1e-9)
	assert.InDelta(t, 13, line.At(5), 1e-9)
}
