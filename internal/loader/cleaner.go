// internal/loader/cleaner.go
package loader

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/planora/demandcast/internal/domain"
	"github.com/rs/zerolog/log"
)

// ErrInvalidFrequency marks an unrecognized aggregation frequency selector.
var ErrInvalidFrequency = errors.New("loader: invalid aggregation frequency, use D, W, or M")

// AggFrequency is the period used to aggregate raw sales before forecasting.
type AggFrequency string

const (
	AggDaily   AggFrequency = "D"
	AggWeekly  AggFrequency = "W"
	AggMonthly AggFrequency = "M"
)

// ParseAggFrequency maps a config string to an AggFrequency.
func ParseAggFrequency(s string) (AggFrequency, error) {
	switch AggFrequency(strings.ToUpper(strings.TrimSpace(s))) {
	case AggDaily:
		return AggDaily, nil
	case AggWeekly:
		return AggWeekly, nil
	case AggMonthly:
		return AggMonthly, nil
	default:
		return "", ErrInvalidFrequency
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Cleaner coerces raw sales rows into observations, drops invalid rows, and
// aggregates by product and period.
type Cleaner struct {
	freq AggFrequency
}

// NewCleaner creates a cleaner for the given aggregation frequency.
func NewCleaner(freq AggFrequency) (*Cleaner, error) {
	parsed, err := ParseAggFrequency(string(freq))
	if err != nil {
		return nil, err
	}
	return &Cleaner{freq: parsed}, nil
}

// Clean runs the full cleaning pipeline: coerce dates and quantities, drop
// rows with an unparseable date, an unparseable quantity, or a non-positive
// quantity, sum quantities per product per period, and sort by product and
// date. Dropped rows are logged, never fatal.
func (c *Cleaner) Clean(rows []RawSalesRow) []domain.SalesObservation {
	type key struct {
		product string
		date    time.Time
	}

	sums := make(map[key]float64)
	dropped := 0
	for _, row := range rows {
		if row.Product == "" {
			dropped++
			continue
		}

		date, ok := parseDate(row.Date)
		if !ok {
			dropped++
			continue
		}

		qty, err := strconv.ParseFloat(cleanNumber(row.Quantity), 64)
		if err != nil || qty <= 0 {
			dropped++
			continue
		}

		sums[key{product: row.Product, date: c.bucket(date)}] += qty
	}

	if dropped > 0 {
		log.Info().Int("dropped", dropped).Int("kept", len(sums)).
			Msg("cleaner dropped invalid sales rows")
	}

	observations := make([]domain.SalesObservation, 0, len(sums))
	for k, qty := range sums {
		observations = append(observations, domain.SalesObservation{
			Product:  k.product,
			Date:     k.date,
			Quantity: qty,
		})
	}
	sort.Slice(observations, func(i, j int) bool {
		if observations[i].Product != observations[j].Product {
			return observations[i].Product < observations[j].Product
		}
		return observations[i].Date.Before(observations[j].Date)
	})

	return observations
}

// bucket truncates a date to the start of its aggregation period. Weekly
// buckets start on Monday.
func (c *Cleaner) bucket(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch c.freq {
	case AggWeekly:
		offset := (int(t.Weekday()) + 6) % 7
		return t.AddDate(0, 0, -offset)
	case AggMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

func parseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
