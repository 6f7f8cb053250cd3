package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/planora/demandcast/internal/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSales_ReadsRawRows(t *testing.T) {
	path := writeCSV(t, "sales.csv",
		"date,product,quantity_sold\n"+
			"2026-03-02,apple,5\n"+
			"2026-03-03,banana,7\n")

	l := loader.NewLoader(path, "")
	rows, err := l.LoadSales()
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, loader.RawSalesRow{Product: "apple", Date: "2026-03-02", Quantity: "5"}, rows[0])
	assert.Equal(t, loader.RawSalesRow{Product: "banana", Date: "2026-03-03", Quantity: "7"}, rows[1])
}

func TestLoadSales_AcceptsColumnAliases(t *testing.T) {
	path := writeCSV(t, "sales.csv",
		"Date,Product ID,Quantity\n"+
			"2026-03-02,apple,5\n")

	l := loader.NewLoader(path, "")
	rows, err := l.LoadSales()
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "apple", rows[0].Product)
}

func TestLoadSales_MissingColumn(t *testing.T) {
	path := writeCSV(t, "sales.csv",
		"date,product\n"+
			"2026-03-02,apple\n")

	l := loader.NewLoader(path, "")
	_, err := l.LoadSales()
	assert.ErrorIs(t, err, loader.ErrMissingColumn)
}

func TestLoadSales_MissingFile(t *testing.T) {
	l := loader.NewLoader(filepath.Join(t.TempDir(), "nope.csv"), "")
	_, err := l.LoadSales()
	assert.Error(t, err)
}

func TestLoadStock_ReadsSnapshots(t *testing.T) {
	path := writeCSV(t, "stock.csv",
		"product,current_stock,lead_time_days\n"+
			"apple,30,2\n"+
			"banana,\"1,200\",5\n")

	l := loader.NewLoader("", path)
	snapshots, err := l.LoadStock()
	require.NoError(t, err)

	require.Len(t, snapshots, 2)
	assert.Equal(t, "apple", snapshots[0].Product)
	assert.InDelta(t, 30, snapshots[0].CurrentStock, 1e-9)
	assert.Equal(t, 2, snapshots[0].LeadTimePeriods)
	assert.InDelta(t, 1200, snapshots[1].CurrentStock, 1e-9, "thousands separators are stripped")
}

func TestLoadStock_DropsInvalidRows(t *testing.T) {
	path := writeCSV(t, "stock.csv",
		"product,current_stock,lead_time_days\n"+
			"apple,-5,2\n"+
			"banana,10,0\n"+
			"cherry,not-a-number,3\n"+
			"date,15,4\n")

	l := loader.NewLoader("", path)
	snapshots, err := l.LoadStock()
	require.NoError(t, err)

	require.Len(t, snapshots, 1, "only the valid row survives")
	assert.Equal(t, "date", snapshots[0].Product)
}

func TestLoadStock_LastSnapshotWins(t *testing.T) {
	path := writeCSV(t, "stock.csv",
		"product,current_stock,lead_time_days\n"+
			"apple,30,2\n"+
			"apple,45,3\n")

	l := loader.NewLoader("", path)
	snapshots, err := l.LoadStock()
	require.NoError(t, err)

	require.Len(t, snapshots, 1)
	assert.InDelta(t, 45, snapshots[0].CurrentStock, 1e-9)
	assert.Equal(t, 3, snapshots[0].LeadTimePeriods)
}

func TestLoadStock_MissingColumn(t *testing.T) {
	path := writeCSV(t, "stock.csv",
		"product,current_stock\n"+
			"apple,30\n")

	l := loader.NewLoader("", path)
	_, err := l.LoadStock()
	assert.ErrorIs(t, err, loader.ErrMissingColumn)
}
