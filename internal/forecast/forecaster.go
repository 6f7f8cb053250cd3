package forecast

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"

	"github.com/planora/demandcast/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Mode selects how the combiner weighs its components. The three simple modes
// are the same combiner with one weight forced to 1 and the others to 0,
// except moving_average which is a plain rolling mean with no noise term.
type Mode string

const (
	ModeCombined      Mode = "combined"
	ModeTrend         Mode = "trend"
	ModeSeasonal      Mode = "seasonal"
	ModeMovingAverage Mode = "moving_average"
)

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeCombined:
		return ModeCombined, nil
	case ModeTrend:
		return ModeTrend, nil
	case ModeSeasonal:
		return ModeSeasonal, nil
	case ModeMovingAverage:
		return ModeMovingAverage, nil
	default:
		return "", ErrUnknownMode
	}
}

// Weights blend the trend, seasonal, and noise components. They are a design
// knob, not a probability distribution, and need not sum to 1. A zero noise
// weight makes the combined mode fully deterministic.
type Weights struct {
	Trend    float64
	Seasonal float64
	Noise    float64
}

// DefaultWeights is the combined-mode blend.
var DefaultWeights = Weights{Trend: 0.4, Seasonal: 0.4, Noise: 0.2}

// DefaultNoiseScale is the stddev multiplier of the noise term in combined
// mode: stddev = |overall mean| * scale.
const DefaultNoiseScale = 0.2

// DefaultWindow is the rolling window of the moving-average mode.
const DefaultWindow = 3

// Options configures a Forecaster. Zero values for Weights, NoiseScale,
// Window, and Concurrency fall back to defaults; Periods must be positive.
// A zero NoiseScale means DefaultNoiseScale, not "no noise"; to disable the
// noise term set Weights.Noise to 0, which also skips creating the random
// source.
type Options struct {
	Periods     int
	Mode        Mode
	Frequency   Frequency
	Weights     Weights
	NoiseScale  float64
	Window      int
	Seed        int64
	Concurrency int
}

// Forecaster produces per-product demand forecasts for the next N periods.
type Forecaster struct {
	opts Options
}

// New validates the options and builds a Forecaster. Usage errors (bad
// periods, window, mode, or frequency) are rejected here so callers fail fast
// before any per-product compute is spent.
func New(opts Options) (*Forecaster, error) {
	if opts.Periods <= 0 {
		return nil, ErrInvalidPeriods
	}
	if opts.Mode == "" {
		opts.Mode = ModeCombined
	}
	if _, err := ParseMode(string(opts.Mode)); err != nil {
		return nil, err
	}
	if opts.Frequency == "" {
		opts.Frequency = FrequencyWeekly
	}
	if _, err := ParseFrequency(string(opts.Frequency)); err != nil {
		return nil, err
	}
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights
	}
	if opts.NoiseScale == 0 {
		opts.NoiseScale = DefaultNoiseScale
	}
	if opts.Window == 0 {
		opts.Window = DefaultWindow
	}
	if opts.Window < 0 {
		return nil, ErrInvalidWindow
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Forecaster{opts: opts}, nil
}

// Forecast runs the combiner over every series and fans the per-product work
// out across a bounded worker group. Products are independent, so the only
// ordering requirement is that results come back grouped by product in the
// input's order. Empty series short-circuit with no forecast rows.
func (f *Forecaster) Forecast(ctx context.Context, series []domain.SalesSeries) ([]domain.ForecastPoint, error) {
	perProduct := make([][]domain.ForecastPoint, len(series))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Concurrency)
	for i, s := range series {
		i, s := i, s
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			perProduct[i] = f.forecastSeries(s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	points := make([]domain.ForecastPoint, 0, len(series)*f.opts.Periods)
	for _, rows := range perProduct {
		points = append(points, rows...)
	}
	return points, nil
}

// forecastSeries produces the forecast rows for a single product.
func (f *Forecaster) forecastSeries(series domain.SalesSeries) []domain.ForecastPoint {
	n := series.Len()
	if n == 0 {
		return nil
	}

	if f.opts.Mode == ModeMovingAverage {
		return f.movingAverage(series)
	}

	weights := f.opts.Weights
	switch f.opts.Mode {
	case ModeTrend:
		weights = Weights{Trend: 1}
	case ModeSeasonal:
		weights = Weights{Seasonal: 1}
	}

	trend := EstimateTrend(series)
	seasonal := EstimateSeasonal(series, f.opts.Frequency)

	if n == 1 {
		log.Debug().Str("product", series.Product).
			Msg("single-observation series, trend degrades to constant mean")
	}

	// Each product draws from its own generator so the per-product fan-out
	// stays reproducible regardless of scheduling order.
	var rng *rand.Rand
	if weights.Noise != 0 {
		rng = rand.New(rand.NewSource(productSeed(f.opts.Seed, series.Product)))
	}

	lastDate := series.LastDate()
	points := make([]domain.ForecastPoint, 0, f.opts.Periods)
	for step := 1; step <= f.opts.Periods; step++ {
		trendComponent := trend.At(float64(n - 1 + step))

		futureDate := lastDate.AddDate(0, 0, step)
		seasonalComponent := seasonal.OverallMean * seasonal.Factor(f.opts.Frequency.Bucket(futureDate))

		var noiseComponent float64
		if rng != nil {
			noiseComponent = rng.NormFloat64() * math.Abs(seasonal.OverallMean) * f.opts.NoiseScale
		}

		raw := weights.Trend*trendComponent +
			weights.Seasonal*seasonalComponent +
			weights.Noise*noiseComponent

		points = append(points, domain.ForecastPoint{
			Product:        series.Product,
			HorizonStep:    step,
			ForecastDemand: math.Max(raw, 0),
		})
	}
	return points
}

// movingAverage forecasts every future step as the rolling mean of the last
// window observations, falling back to the full-series mean while the window
// is not yet filled. This path is deterministic.
func (f *Forecaster) movingAverage(series domain.SalesSeries) []domain.ForecastPoint {
	qs := series.Quantities()
	window := f.opts.Window
	if window > len(qs) {
		window = len(qs)
	}

	var sum float64
	for _, q := range qs[len(qs)-window:] {
		sum += q
	}
	mean := sum / float64(window)

	points := make([]domain.ForecastPoint, 0, f.opts.Periods)
	for step := 1; step <= f.opts.Periods; step++ {
		points = append(points, domain.ForecastPoint{
			Product:        series.Product,
			HorizonStep:    step,
			ForecastDemand: math.Max(mean, 0),
		})
	}
	return points
}

// productSeed derives a stable per-product seed from the run seed.
func productSeed(seed int64, product string) int64 {
	h := fnv.New64a()
	h.Write([]byte(product))
	return seed ^ int64(h.Sum64())
}
