package forecast_test

import (
	"context"
	"testing"

	"github.com/planora/demandcast/internal/domain"
	"github.com/planora/demandcast/internal/forecast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsNonPositivePeriods(t *testing.T) {
	_, err := forecast.New(forecast.Options{Periods: 0})
	assert.ErrorIs(t, err, forecast.ErrInvalidPeriods)

	_, err = forecast.New(forecast.Options{Periods: -3})
	assert.ErrorIs(t, err, forecast.ErrInvalidPeriods)
}

func TestNew_RejectsUnknownModeAndFrequency(t *testing.T) {
	_, err := forecast.New(forecast.Options{Periods: 1, Mode: "exponential"})
	assert.ErrorIs(t, err, forecast.ErrUnknownMode)

	_, err = forecast.New(forecast.Options{Periods: 1, Frequency: "fortnight"})
	assert.ErrorIs(t, err, forecast.ErrUnknownFrequency)
}

func TestNew_RejectsNegativeWindow(t *testing.T) {
	_, err := forecast.New(forecast.Options{Periods: 1, Window: -1})
	assert.ErrorIs(t, err, forecast.ErrInvalidWindow)
}

func TestParseMode(t *testing.T) {
	mode, err := forecast.ParseMode(" Combined ")
	require.NoError(t, err)
	assert.Equal(t, forecast.ModeCombined, mode)

	_, err = forecast.ParseMode("arima")
	assert.ErrorIs(t, err, forecast.ErrUnknownMode)
}

func TestForecast_FlatSeriesTrendOnly(t *testing.T) {
	f, err := forecast.New(forecast.Options{Periods: 1, Mode: forecast.ModeTrend})
	require.NoError(t, err)

	points, err := f.Forecast(context.Background(), []domain.SalesSeries{seriesOf("A", 10, 10, 10, 10)})
	require.NoError(t, err)

	require.Len(t, points, 1)
	assert.Equal(t, "A", points[0].Product)
	assert.Equal(t, 1, points[0].HorizonStep)
	assert.InDelta(t, 10, points[0].ForecastDemand, 1e-9)
}

func TestForecast_IncreasingSeriesTrendOnly(t *testing.T) {
	f, err := forecast.New(forecast.Options{Periods: 1, Mode: forecast.ModeTrend})
	require.NoError(t, err)

	points, err := f.Forecast(context.Background(), []domain.SalesSeries{seriesOf("A", 1, 2, 3, 4, 5)})
	require.NoError(t, err)

	require.Len(t, points, 1)
	// slope 1, intercept 1, evaluated at index 5
	assert.InDelta(t, 6, points[0].ForecastDemand, 1e-9)
}

func TestForecast_DemandNeverNegative(t *testing.T) {
	f, err := forecast.New(forecast.Options{Periods: 10, Mode: forecast.ModeTrend})
	require.NoError(t, err)

	// Steep downward trend drives the raw projection below zero quickly.
	points, err := f.Forecast(context.Background(), []domain.SalesSeries{seriesOf("A", 10, 7, 4, 1)})
	require.NoError(t, err)

	require.Len(t, points, 10)
	for _, p := range points {
		assert.GreaterOrEqual(t, p.ForecastDemand, 0.0)
	}
}

func TestForecast_SameSeedIsBitIdentical(t *testing.T) {
	series := []domain.SalesSeries{
		seriesOf("A", 5, 8, 6, 9, 7, 10),
		seriesOf("B", 20, 18, 22, 19, 21, 23),
	}

	run := func() []domain.ForecastPoint {
		f, err := forecast.New(forecast.Options{Periods: 7, Mode: forecast.ModeCombined, Seed: 1234})
		require.NoError(t, err)
		points, err := f.Forecast(context.Background(), series)
		require.NoError(t, err)
		return points
	}

	assert.Equal(t, run(), run())
}

func TestForecast_DifferentSeedChangesNoise(t *testing.T) {
	series := []domain.SalesSeries{seriesOf("A", 5, 8, 6, 9, 7, 10)}

	run := func(seed int64) []domain.ForecastPoint {
		f, err := forecast.New(forecast.Options{Periods: 7, Mode: forecast.ModeCombined, Seed: seed})
		require.NoError(t, err)
		points, err := f.Forecast(context.Background(), series)
		require.NoError(t, err)
		return points
	}

	assert.NotEqual(t, run(1), run(2))
}

func TestForecast_ZeroNoiseWeightIsDeterministicBlend(t *testing.T) {
	series := seriesOf("A", 10, 10, 10, 10, 10, 10, 10)

	f, err := forecast.New(forecast.Options{
		Periods: 3,
		Mode:    forecast.ModeCombined,
		Weights: forecast.Weights{Trend: 0.5, Seasonal: 0.5},
	})
	require.NoError(t, err)

	points, err := f.Forecast(context.Background(), []domain.SalesSeries{series})
	require.NoError(t, err)

	// Flat series: trend and seasonal components both evaluate to 10, so the
	// blend is 0.5*10 + 0.5*10 regardless of any random source.
	require.Len(t, points, 3)
	for _, p := range points {
		assert.InDelta(t, 10, p.ForecastDemand, 1e-9)
	}
}

func TestForecast_SeasonalOnlyUsesBucketFactors(t *testing.T) {
	f, err := forecast.New(forecast.Options{Periods: 7, Mode: forecast.ModeSeasonal})
	require.NoError(t, err)

	// 14 daily observations starting Monday 2026-03-02: Mondays 20, rest 10.
	series := seriesOf("A",
		20, 10, 10, 10, 10, 10, 10,
		20, 10, 10, 10, 10, 10, 10)

	points, err := f.Forecast(context.Background(), []domain.SalesSeries{series})
	require.NoError(t, err)
	require.Len(t, points, 7)

	// Last observation is Sunday 2026-03-15, so step 1 is a Monday.
	mean := 160.0 / 14.0
	assert.InDelta(t, mean*(20.0/mean), points[0].ForecastDemand, 1e-9)
	assert.InDelta(t, mean*(10.0/mean), points[1].ForecastDemand, 1e-9)
}

func TestForecast_MovingAverage(t *testing.T) {
	f, err := forecast.New(forecast.Options{Periods: 4, Mode: forecast.ModeMovingAverage, Window: 2})
	require.NoError(t, err)

	points, err := f.Forecast(context.Background(), []domain.SalesSeries{seriesOf("A", 2, 4, 6)})
	require.NoError(t, err)

	require.Len(t, points, 4)
	for _, p := range points {
		assert.InDelta(t, 5, p.ForecastDemand, 1e-9, "rolling mean of the last two observations")
	}
}

func TestForecast_MovingAverageWindowLargerThanSeries(t *testing.T) {
	f, err := forecast.New(forecast.Options{Periods: 2, Mode: forecast.ModeMovingAverage, Window: 10})
	require.NoError(t, err)

	points, err := f.Forecast(context.Background(), []domain.SalesSeries{seriesOf("A", 2, 4, 6)})
	require.NoError(t, err)

	require.Len(t, points, 2)
	for _, p := range points {
		assert.InDelta(t, 4, p.ForecastDemand, 1e-9, "window falls back to the full-series mean")
	}
}

func TestForecast_EmptySeriesProducesNoRows(t *testing.T) {
	f, err := forecast.New(forecast.Options{Periods: 5})
	require.NoError(t, err)

	points, err := f.Forecast(context.Background(), []domain.SalesSeries{{Product: "ghost"}})
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestForecast_SingleObservationDegradesToConstant(t *testing.T) {
	f, err := forecast.New(forecast.Options{Periods: 3, Mode: forecast.ModeTrend})
	require.NoError(t, err)

	points, err := f.Forecast(context.Background(), []domain.SalesSeries{seriesOf("A", 7)})
	require.NoError(t, err)

	require.Len(t, points, 3)
	for _, p := range points {
		assert.InDelta(t, 7, p.ForecastDemand, 1e-9)
	}
}

func TestForecast_RowsGroupedByProductInput(t *testing.T) {
	f, err := forecast.New(forecast.Options{Periods: 2, Mode: forecast.ModeTrend, Concurrency: 8})
	require.NoError(t, err)

	series := []domain.SalesSeries{
		seriesOf("A", 1, 2, 3),
		seriesOf("B", 4, 5, 6),
		seriesOf("C", 7, 8, 9),
	}

	points, err := f.Forecast(context.Background(), series)
	require.NoError(t, err)

	require.Len(t, points, 6)
	want := []string{"A", "A", "B", "B", "C", "C"}
	for i, p := range points {
		assert.Equal(t, want[i], p.Product)
		assert.Equal(t, i%2+1, p.HorizonStep)
	}
}

func TestForecast_CancelledContext(t *testing.T) {
	f, err := forecast.New(forecast.Options{Periods: 2})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.Forecast(ctx, []domain.SalesSeries{seriesOf("A", 1, 2, 3)})
	assert.ErrorIs(t, err, context.Canceled)
}
