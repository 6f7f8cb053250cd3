// internal/report/pdf.go
package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/planora/demandcast/internal/domain"
)

// WriteRiskPDF renders the executive summary PDF: run header, risk counts,
// and the full risk table. Returns the file path.
func (w *Writer) WriteRiskPDF(date time.Time, assessments []domain.RiskAssessment) (string, error) {
	path := filepath.Join(w.outputDir, date.Format("20060102")+"_risk_report.pdf")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Stock-Out Risk Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Stock-Out Risk Report")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 8, "Generated "+date.Format("2006-01-02"))
	pdf.Ln(12)

	var atRisk, unknown int
	for _, a := range assessments {
		switch a.Status {
		case domain.RiskStatusAtRisk:
			atRisk++
		case domain.RiskStatusUnknownInventory:
			unknown++
		}
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 8, fmt.Sprintf("%d products assessed, %d at risk, %d with unknown inventory",
		len(assessments), atRisk, unknown))
	pdf.Ln(12)

	headers := []string{"Product", "Expected", "Stock", "Shortage", "Status"}
	widths := []float64{60, 32, 32, 32, 34}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, a := range assessments {
		fill := a.Status == domain.RiskStatusAtRisk
		pdf.SetFillColor(252, 228, 228)
		cells := []string{
			a.Product,
			formatFloat(a.ExpectedConsumption),
			formatFloat(a.CurrentStock),
			formatFloat(a.ShortageQty),
			string(a.Status),
		}
		for i, v := range cells {
			pdf.CellFormat(widths[i], 6, v, "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write risk pdf: %w", err)
	}
	return path, nil
}
