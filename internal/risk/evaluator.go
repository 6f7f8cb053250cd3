// internal/risk/evaluator.go
package risk

import (
	"errors"
	"math"
	"sort"

	"github.com/planora/demandcast/internal/domain"
	"github.com/rs/zerolog/log"
)

// ErrEmptyInventory is returned in strict mode when forecasts are present but
// the inventory input is empty.
var ErrEmptyInventory = errors.New("risk: inventory input is empty while forecasts are non-empty")

// Evaluator joins forecasted demand with the current inventory snapshot and
// classifies each product's stock-out exposure over its lead time.
type Evaluator struct {
	strict bool
}

// NewEvaluator builds an Evaluator. In strict mode an empty inventory input is
// a usage error instead of every product degrading to unknown inventory.
func NewEvaluator(strict bool) *Evaluator {
	return &Evaluator{strict: strict}
}

// Evaluate produces one RiskAssessment per forecasted product, ordered by
// product identifier. Expected consumption sums forecast_demand across every
// horizon step and multiplies by the product's lead time: the total demand
// expected while waiting for resupply, cumulative rather than average
// exposure. Products missing from the inventory snapshot are never dropped
// and never treated as zero stock; they surface with the unknown_inventory
// status so the planner can tell "no stock" from "no data".
func (e *Evaluator) Evaluate(forecasts []domain.ForecastPoint, inventory []domain.InventorySnapshot) ([]domain.RiskAssessment, error) {
	if e.strict && len(forecasts) > 0 && len(inventory) == 0 {
		return nil, ErrEmptyInventory
	}

	stockByProduct := make(map[string]domain.InventorySnapshot, len(inventory))
	for _, snap := range inventory {
		stockByProduct[snap.Product] = snap
	}

	demandByProduct := make(map[string]float64)
	for _, point := range forecasts {
		demandByProduct[point.Product] += point.ForecastDemand
	}

	products := make([]string, 0, len(demandByProduct))
	for product := range demandByProduct {
		products = append(products, product)
	}
	sort.Strings(products)

	assessments := make([]domain.RiskAssessment, 0, len(products))
	for _, product := range products {
		snap, known := stockByProduct[product]
		if !known {
			log.Warn().Str("product", product).Msg("forecasted product has no inventory snapshot")
			assessments = append(assessments, domain.RiskAssessment{
				Product: product,
				Status:  domain.RiskStatusUnknownInventory,
			})
			continue
		}

		expected := demandByProduct[product] * float64(snap.LeadTimePeriods)
		atRisk := snap.CurrentStock < expected

		status := domain.RiskStatusOK
		if atRisk {
			status = domain.RiskStatusAtRisk
		}

		assessments = append(assessments, domain.RiskAssessment{
			Product:             product,
			ExpectedConsumption: expected,
			CurrentStock:        snap.CurrentStock,
			StockOutRisk:        atRisk,
			ShortageQty:         math.Max(expected-snap.CurrentStock, 0),
			Status:              status,
		})
	}

	return assessments, nil
}
