package forecast

import (
	"sort"

	"github.com/planora/demandcast/internal/domain"
)

// GroupSeries partitions a flat collection of sales observations into one
// chronologically ordered series per product. Products with no observations
// simply do not appear; no synthetic zero-filling happens here. The result is
// sorted by product identifier so downstream output is stable.
func GroupSeries(observations []domain.SalesObservation) []domain.SalesSeries {
	byProduct := make(map[string][]domain.SalesObservation)
	for _, obs := range observations {
		byProduct[obs.Product] = append(byProduct[obs.Product], obs)
	}

	products := make([]string, 0, len(byProduct))
	for product := range byProduct {
		products = append(products, product)
	}
	sort.Strings(products)

	series := make([]domain.SalesSeries, 0, len(products))
	for _, product := range products {
		obs := byProduct[product]
		// Stable sort keeps input order for duplicate dates.
		sort.SliceStable(obs, func(i, j int) bool {
			return obs[i].Date.Before(obs[j].Date)
		})
		series = append(series, domain.SalesSeries{
			Product:      product,
			Observations: obs,
		})
	}

	return series
}
