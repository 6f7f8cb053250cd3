package forecast

import (
	"strings"
	"time"

	"github.com/planora/demandcast/internal/domain"
)

// Frequency selects the seasonal cycle used to bucket observations.
type Frequency string

const (
	// FrequencyWeekly buckets by day of week (7 buckets).
	FrequencyWeekly Frequency = "week"
	// FrequencyMonthly buckets by day of month.
	FrequencyMonthly Frequency = "month"
)

// ParseFrequency maps a config string to a Frequency. Unrecognized selectors
// are a usage error.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case FrequencyWeekly:
		return FrequencyWeekly, nil
	case FrequencyMonthly:
		return FrequencyMonthly, nil
	default:
		return "", ErrUnknownFrequency
	}
}

// Bucket returns the seasonal bucket key for a date.
func (f Frequency) Bucket(t time.Time) int {
	if f == FrequencyMonthly {
		return t.Day()
	}
	return int(t.Weekday())
}

// SeasonalProfile holds one product's demand multipliers per seasonal bucket,
// relative to the product's overall mean.
type SeasonalProfile struct {
	OverallMean float64
	factors     map[int]float64
}

// Factor returns the multiplier for a bucket. Buckets absent from history
// query as the neutral factor 1.0.
func (p SeasonalProfile) Factor(bucket int) float64 {
	if f, ok := p.factors[bucket]; ok {
		return f
	}
	return 1.0
}

// Factors returns a copy of the bucket-to-factor mapping.
func (p SeasonalProfile) Factors() map[int]float64 {
	out := make(map[int]float64, len(p.factors))
	for k, v := range p.factors {
		out[k] = v
	}
	return out
}

// EstimateSeasonal computes bucket means over one product's series and turns
// them into multipliers against the overall mean. A zero overall mean forces
// every factor to 1.0 so the flat fallback never propagates a NaN.
func EstimateSeasonal(series domain.SalesSeries, freq Frequency) SeasonalProfile {
	profile := SeasonalProfile{factors: make(map[int]float64)}
	if series.Len() == 0 {
		return profile
	}

	sums := make(map[int]float64)
	counts := make(map[int]int)
	var total float64
	for _, obs := range series.Observations {
		bucket := freq.Bucket(obs.Date)
		sums[bucket] += obs.Quantity
		counts[bucket]++
		total += obs.Quantity
	}
	profile.OverallMean = total / float64(series.Len())

	for bucket, sum := range sums {
		if profile.OverallMean != 0 {
			bucketMean := sum / float64(counts[bucket])
			profile.factors[bucket] = bucketMean / profile.OverallMean
		} else {
			profile.factors[bucket] = 1.0
		}
	}

	return profile
}
