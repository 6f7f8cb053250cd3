package forecast_test

import (
	"testing"
	"time"

	"github.com/planora/demandcast/internal/domain"
	"github.com/planora/demandcast/internal/forecast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrequency(t *testing.T) {
	freq, err := forecast.ParseFrequency(" Week ")
	require.NoError(t, err)
	assert.Equal(t, forecast.FrequencyWeekly, freq)

	freq, err = forecast.ParseFrequency("MONTH")
	require.NoError(t, err)
	assert.Equal(t, forecast.FrequencyMonthly, freq)

	_, err = forecast.ParseFrequency("quarter")
	assert.ErrorIs(t, err, forecast.ErrUnknownFrequency)
}

func TestFrequencyBucket(t *testing.T) {
	// 2026-03-02 is a Monday.
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, int(time.Monday), forecast.FrequencyWeekly.Bucket(monday))
	assert.Equal(t, 2, forecast.FrequencyMonthly.Bucket(monday))
}

func TestEstimateSeasonal_WeekdayFactors(t *testing.T) {
	// Two weeks of data: Mondays sell 20, every other day sells 10.
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // Monday
	obs := make([]domain.SalesObservation, 0, 14)
	for i := 0; i < 14; i++ {
		date := start.AddDate(0, 0, i)
		qty := 10.0
		if date.Weekday() == time.Monday {
			qty = 20.0
		}
		obs = append(obs, domain.SalesObservation{Product: "A", Date: date, Quantity: qty})
	}
	series := domain.SalesSeries{Product: "A", Observations: obs}

	profile := forecast.EstimateSeasonal(series, forecast.FrequencyWeekly)

	// overall mean = (2*20 + 12*10) / 14
	mean := 160.0 / 14.0
	assert.InDelta(t, mean, profile.OverallMean, 1e-9)
	assert.InDelta(t, 20.0/mean, profile.Factor(int(time.Monday)), 1e-9)
	assert.InDelta(t, 10.0/mean, profile.Factor(int(time.Tuesday)), 1e-9)
}

func TestEstimateSeasonal_UnseenBucketDefaultsToNeutral(t *testing.T) {
	// Only Monday and Tuesday observed; Sunday never appears.
	profile := forecast.EstimateSeasonal(seriesOf("A", 10, 12), forecast.FrequencyWeekly)
	assert.Equal(t, 1.0, profile.Factor(int(time.Sunday)))
}

func TestEstimateSeasonal_ZeroMeanFallsBackToNeutral(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	series := domain.SalesSeries{Product: "A", Observations: []domain.SalesObservation{
		{Product: "A", Date: start, Quantity: 0},
		{Product: "A", Date: start.AddDate(0, 0, 1), Quantity: 0},
	}}

	profile := forecast.EstimateSeasonal(series, forecast.FrequencyWeekly)

	assert.Zero(t, profile.OverallMean)
	for bucket, factor := range profile.Factors() {
		assert.Equal(t, 1.0, factor, "bucket %d should be neutral", bucket)
	}
}

func TestEstimateSeasonal_EmptySeries(t *testing.T) {
	profile := forecast.EstimateSeasonal(domain.SalesSeries{Product: "A"}, forecast.FrequencyWeekly)
	assert.Zero(t, profile.OverallMean)
	assert.Empty(t, profile.Factors())
	assert.Equal(t, 1.0, profile.Factor(0))
}

func TestEstimateSeasonal_Idempotent(t *testing.T) {
	series := seriesOf("A", 3, 7, 5, 9, 4, 6, 8, 2)

	first := forecast.EstimateSeasonal(series, forecast.FrequencyWeekly)
	second := forecast.EstimateSeasonal(series, forecast.FrequencyWeekly)

	assert.Equal(t, first.OverallMean, second.OverallMean)
	assert.Equal(t, first.Factors(), second.Factors())
}

func TestEstimateSeasonal_MonthlyBucketsByDayOfMonth(t *testing.T) {
	series := domain.SalesSeries{Product: "A", Observations: []domain.SalesObservation{
		{Product: "A", Date: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), Quantity: 30},
		{Product: "A", Date: time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), Quantity: 30},
		{Product: "A", Date: time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC), Quantity: 10},
		{Product: "A", Date: time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), Quantity: 10},
	}}

	profile := forecast.EstimateSeasonal(series, forecast.FrequencyMonthly)

	assert.InDelta(t, 20, profile.OverallMean, 1e-9)
	assert.InDelta(t, 1.5, profile.Factor(15), 1e-9)
	assert.InDelta(t, 0.5, profile.Factor(20), 1e-9)
}
