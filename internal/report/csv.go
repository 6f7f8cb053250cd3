// internal/report/csv.go
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/planora/demandcast/internal/domain"
)

// Writer persists the forecast and risk tables for the report collaborators.
type Writer struct {
	outputDir string
}

// NewWriter creates a report writer rooted at outputDir.
func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir}
}

// WriteForecastCSV writes the per-product forecast table for a run date and
// returns the file path.
func (w *Writer) WriteForecastCSV(date time.Time, points []domain.ForecastPoint) (string, error) {
	path := filepath.Join(w.outputDir, date.Format("20060102")+"_forecast.csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create forecast csv: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if err := cw.Write([]string{"product", "horizon_step", "forecast_demand"}); err != nil {
		return "", err
	}
	for _, p := range points {
		rec := []string{
			p.Product,
			strconv.Itoa(p.HorizonStep),
			formatFloat(p.ForecastDemand),
		}
		if err := cw.Write(rec); err != nil {
			return "", err
		}
	}
	cw.Flush()
	return path, cw.Error()
}

// WriteRiskCSV writes the per-product risk table for a run date and returns
// the file path.
func (w *Writer) WriteRiskCSV(date time.Time, assessments []domain.RiskAssessment) (string, error) {
	path := filepath.Join(w.outputDir, date.Format("20060102")+"_risk.csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create risk csv: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	header := []string{"product", "expected_consumption", "current_stock", "stock_out_risk", "shortage_qty", "status"}
	if err := cw.Write(header); err != nil {
		return "", err
	}
	for _, a := range assessments {
		rec := []string{
			a.Product,
			formatFloat(a.ExpectedConsumption),
			formatFloat(a.CurrentStock),
			strconv.FormatBool(a.StockOutRisk),
			formatFloat(a.ShortageQty),
			string(a.Status),
		}
		if err := cw.Write(rec); err != nil {
			return "", err
		}
	}
	cw.Flush()
	return path, cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
