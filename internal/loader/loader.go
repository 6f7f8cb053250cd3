// internal/loader/loader.go
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/planora/demandcast/internal/domain"
	"github.com/rs/zerolog/log"
)

// ErrMissingColumn marks a schema validation failure in an input file.
var ErrMissingColumn = errors.New("loader: required column missing")

// RawSalesRow is one uncoerced record from the sales input. Coercion and
// invalid-row removal happen in the Cleaner so the forecasting core only ever
// sees valid observations.
type RawSalesRow struct {
	Product  string
	Date     string
	Quantity string
}

// Loader reads and validates the two tabular inputs of a pipeline run.
type Loader struct {
	salesFile string
	stockFile string
}

// NewLoader creates a loader for the given input files.
func NewLoader(salesFile, stockFile string) *Loader {
	return &Loader{salesFile: salesFile, stockFile: stockFile}
}

// LoadSales reads the sales history file. Required columns: date, product,
// quantity_sold. Rows come back raw; run them through a Cleaner before
// forecasting.
func (l *Loader) LoadSales() ([]RawSalesRow, error) {
	file, err := os.Open(l.salesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open sales file %s: %w", l.salesFile, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read sales header: %w", err)
	}

	idxDate := colIndex(header, "date")
	idxProduct := colIndex(header, "product", "product_id")
	idxQty := colIndex(header, "quantity_sold", "quantity")
	for name, idx := range map[string]int{"date": idxDate, "product": idxProduct, "quantity_sold": idxQty} {
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s in %s", ErrMissingColumn, name, l.salesFile)
		}
	}

	rows := make([]RawSalesRow, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read sales row: %w", err)
		}
		rows = append(rows, RawSalesRow{
			Product:  field(record, idxProduct),
			Date:     field(record, idxDate),
			Quantity: field(record, idxQty),
		})
	}

	return rows, nil
}

// LoadStock reads the inventory snapshot file. Required columns: product,
// current_stock, lead_time_days. Rows with negative stock or a non-positive
// lead time are dropped with a warning; one snapshot per product, last one
// wins.
func (l *Loader) LoadStock() ([]domain.InventorySnapshot, error) {
	file, err := os.Open(l.stockFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open stock file %s: %w", l.stockFile, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read stock header: %w", err)
	}

	idxProduct := colIndex(header, "product", "product_id")
	idxStock := colIndex(header, "current_stock", "stock")
	idxLead := colIndex(header, "lead_time_days", "lead_time", "lead_time_periods")
	for name, idx := range map[string]int{"product": idxProduct, "current_stock": idxStock, "lead_time_days": idxLead} {
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s in %s", ErrMissingColumn, name, l.stockFile)
		}
	}

	byProduct := make(map[string]int)
	snapshots := make([]domain.InventorySnapshot, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read stock row: %w", err)
		}

		product := field(record, idxProduct)
		if product == "" {
			continue
		}

		stock, err := strconv.ParseFloat(cleanNumber(field(record, idxStock)), 64)
		if err != nil || stock < 0 {
			log.Warn().Str("product", product).Str("value", field(record, idxStock)).
				Msg("dropping stock row with invalid current_stock")
			continue
		}

		lead, err := strconv.Atoi(cleanNumber(field(record, idxLead)))
		if err != nil || lead <= 0 {
			log.Warn().Str("product", product).Str("value", field(record, idxLead)).
				Msg("dropping stock row with invalid lead_time_days")
			continue
		}

		snap := domain.InventorySnapshot{
			Product:         product,
			CurrentStock:    stock,
			LeadTimePeriods: lead,
		}
		if i, ok := byProduct[product]; ok {
			snapshots[i] = snap
			continue
		}
		byProduct[product] = len(snapshots)
		snapshots = append(snapshots, snap)
	}

	return snapshots, nil
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// colIndex finds the first header column matching any of the candidate names,
// after normalization.
func colIndex(header []string, names ...string) int {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, h := range header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func cleanNumber(v string) string {
	return strings.ReplaceAll(v, ",", "")
}
