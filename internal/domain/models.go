// internal/domain/models.go
package domain

import "time"

// SalesObservation is a single cleaned sales record for one product on one date.
type SalesObservation struct {
	Product  string    `json:"product" db:"product"`
	Date     time.Time `json:"date" db:"date"`
	Quantity float64   `json:"quantity" db:"quantity"`
}

// SalesSeries is one product's observations in chronological order.
type SalesSeries struct {
	Product      string             `json:"product"`
	Observations []SalesObservation `json:"observations"`
}

// Len returns the number of observations in the series.
func (s SalesSeries) Len() int { return len(s.Observations) }

// LastDate returns the date of the most recent observation. The zero time is
// returned for an empty series.
func (s SalesSeries) LastDate() time.Time {
	if len(s.Observations) == 0 {
		return time.Time{}
	}
	return s.Observations[len(s.Observations)-1].Date
}

// Quantities returns the observed quantities in chronological order.
func (s SalesSeries) Quantities() []float64 {
	qs := make([]float64, len(s.Observations))
	for i, obs := range s.Observations {
		qs[i] = obs.Quantity
	}
	return qs
}

// InventorySnapshot is the current stock position for one product.
// LeadTimePeriods is the number of periods between placing a replenishment
// order and receiving stock.
type InventorySnapshot struct {
	Product         string  `json:"product" db:"product"`
	CurrentStock    float64 `json:"current_stock" db:"current_stock"`
	LeadTimePeriods int     `json:"lead_time_periods" db:"lead_time_periods"`
}

// ForecastPoint is one forecasted period for one product. HorizonStep counts
// from 1 (the nearest future period). ForecastDemand is never negative.
type ForecastPoint struct {
	Product        string  `json:"product" db:"product"`
	HorizonStep    int     `json:"horizon_step" db:"horizon_step"`
	ForecastDemand float64 `json:"forecast_demand" db:"forecast_demand"`
}

// RiskStatus classifies a product's risk row. A product with forecasts but no
// inventory snapshot is reported as unknown_inventory rather than being folded
// into the no-risk bucket: zero stock and unknown stock mean different things
// to a planner.
type RiskStatus string

const (
	RiskStatusOK               RiskStatus = "ok"
	RiskStatusAtRisk           RiskStatus = "at_risk"
	RiskStatusUnknownInventory RiskStatus = "unknown_inventory"
)

// RiskAssessment is one product's aggregated stock-out exposure across every
// forecasted horizon step.
type RiskAssessment struct {
	Product             string     `json:"product" db:"product"`
	ExpectedConsumption float64    `json:"expected_consumption" db:"expected_consumption"`
	CurrentStock        float64    `json:"current_stock" db:"current_stock"`
	StockOutRisk        bool       `json:"stock_out_risk" db:"stock_out_risk"`
	ShortageQty         float64    `json:"shortage_qty" db:"shortage_qty"`
	Status              RiskStatus `json:"status" db:"status"`
}

// ForecastRun records one pipeline execution together with the parameters that
// produced it, so a planner can audit where a number came from.
type ForecastRun struct {
	ID           int64     `json:"id" db:"id"`
	Mode         string    `json:"mode" db:"mode"`
	Periods      int       `json:"periods" db:"periods"`
	Seed         int64     `json:"seed" db:"seed"`
	ProductCount int       `json:"product_count" db:"product_count"`
	AtRiskCount  int       `json:"at_risk_count" db:"at_risk_count"`
	StartedAt    time.Time `json:"started_at" db:"started_at"`
	CompletedAt  time.Time `json:"completed_at" db:"completed_at"`
}

// RiskFilter narrows risk queries served by the API.
type RiskFilter struct {
	Products []string   `json:"products"`
	Status   RiskStatus `json:"status"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

// RiskSummary counts risk rows per status for the dashboard endpoints.
type RiskSummary struct {
	Status RiskStatus `json:"status" db:"status"`
	Count  int        `json:"count" db:"count"`
}
