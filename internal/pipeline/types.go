package pipeline

import "time"

// RunStatus represents the state of a single pipeline run.
type RunStatus string

const (
	StatusPending    RunStatus = "pending"
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// RunSummary tracks one execution of the forecasting pipeline.
type RunSummary struct {
	Date          time.Time     `json:"date"`
	Status        RunStatus     `json:"status"`
	SalesRows     int           `json:"sales_rows"`
	Observations  int           `json:"observations"`
	Products      int           `json:"products"`
	ForecastRows  int           `json:"forecast_rows"`
	AtRiskCount   int           `json:"at_risk_count"`
	UnknownCount  int           `json:"unknown_inventory_count"`
	ForecastCSV   string        `json:"forecast_csv,omitempty"`
	RiskCSV       string        `json:"risk_csv,omitempty"`
	RiskPDF       string        `json:"risk_pdf,omitempty"`
	UploadedKeys  []string      `json:"uploaded_keys,omitempty"`
	RunID         int64         `json:"run_id,omitempty"`
	Duration      time.Duration `json:"duration"`
	ErrorMessage  string        `json:"error_message,omitempty"`
}
