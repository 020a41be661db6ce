package importer

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	lerrors "position-ledger/internal/errors"
	"position-ledger/internal/models"
	"position-ledger/internal/store"
	"position-ledger/internal/trading"
)

const exportCSV = "\ufeffData,Hora,Produto,ISIN,Quantidade,Valor,Custos de transação\n" +
	"08-05-2020,15:48,ALTRI SGPS,PTALT0AE0002,-27,127.44,-0.56\n" +
	"08-05-2020,15:33,PEUGEOT,FR0000121501,-46,613.64,-4.31\n" +
	"20-04-2020,14:48,PEUGEOT,FR0000121501,25,-288.25,-4.14\n" +
	"31-03-2020,13:17,PEUGEOT,FR0000121501,21,-249.48,-4.12\n" +
	"31-03-2020,12:21,ALTRI SGPS,PTALT0AE0002,27,-97.69,-0.55\n"

type expectedRow struct {
	date, product, ticker string
	orderType             models.OrderType
	quantity, price, fees string
}

var expectedExport = []expectedRow{
	{"08-05-2020@15:48", "ALTRI SGPS", "ALTR", models.OrderTypeSell, "-27", "127.44", "-0.56"},
	{"08-05-2020@15:33", "PEUGEOT", "", models.OrderTypeSell, "-46", "613.64", "-4.31"},
	{"20-04-2020@14:48", "PEUGEOT", "", models.OrderTypeBuy, "25", "-288.25", "-4.14"},
	{"31-03-2020@13:17", "PEUGEOT", "", models.OrderTypeBuy, "21", "-249.48", "-4.12"},
	{"31-03-2020@12:21", "ALTRI SGPS", "ALTR", models.OrderTypeBuy, "27", "-97.69", "-0.55"},
}

func assertExport(t *testing.T, got []Imported) {
	t.Helper()
	require.Len(t, got, len(expectedExport))
	for i, want := range expectedExport {
		g := got[i]
		assert.Equal(t, i+1, g.Row)
		assert.Equal(t, want.date, g.Date, "row %d", i+1)
		assert.Equal(t, want.product, g.Product, "row %d", i+1)
		assert.Equal(t, want.ticker, g.Ticker, "row %d", i+1)
		assert.Equal(t, want.orderType, g.OrderType, "row %d", i+1)
		assert.True(t, g.Quantity.Equal(decimal.RequireFromString(want.quantity)), "row %d quantity %s", i+1, g.Quantity)
		assert.True(t, g.Price.Equal(decimal.RequireFromString(want.price)), "row %d price %s", i+1, g.Price)
		assert.True(t, g.Fees.Equal(decimal.RequireFromString(want.fees)), "row %d fees %s", i+1, g.Fees)
		assert.Empty(t, g.Invalid)
	}
}

func TestNormalize_AltriSell(t *testing.T) {
	row := Row{Quantidade: "-27", Valor: "127.44", Produto: "ALTRI SGPS", Data: "08-05-2020", Hora: "15:48", Custos: "-0.56"}

	got := Normalize(row, DefaultTickers)

	assert.Equal(t, "08-05-2020@15:48", got.Date)
	assert.Equal(t, "ALTR", got.Ticker)
	assert.Equal(t, models.OrderTypeSell, got.OrderType)
	assert.Equal(t, "-27", got.Quantity.String())
	assert.Equal(t, "127.44", got.Price.String())
	assert.Equal(t, "-0.56", got.Fees.String())
	assert.Equal(t, "-27", row.Quantidade, "input must not be mutated")
}

func TestNormalize_OrderTypeInference(t *testing.T) {
	tests := []struct {
		quantity, value string
		want            models.OrderType
	}{
		{"10", "-100", models.OrderTypeBuy},
		{"-10", "100", models.OrderTypeSell},
		{"0", "12.5", models.OrderTypeDividend},
		{"", "12.5", models.OrderTypeDividend},
		{"10", "100", models.OrderTypeUnknown},
		{"-10", "-100", models.OrderTypeUnknown},
		{"0", "-1", models.OrderTypeUnknown},
		{"0", "0", models.OrderTypeUnknown},
		{"abc", "-1", models.OrderTypeUnknown},
	}

	for _, tt := range tests {
		got := Normalize(Row{Quantidade: tt.quantity, Valor: tt.value, Produto: "ALTRI SGPS"}, DefaultTickers)
		assert.Equal(t, tt.want, got.OrderType, "quantity=%q value=%q", tt.quantity, tt.value)
	}
}

func TestNormalize_DecimalComma(t *testing.T) {
	got := Normalize(Row{Quantidade: "27", Valor: "-97,69", Custos: "-0,55"}, DefaultTickers)
	assert.Equal(t, "-97.69", got.Price.String())
	assert.Equal(t, "-0.55", got.Fees.String())
	assert.Equal(t, models.OrderTypeBuy, got.OrderType)
	assert.Equal(t, "", got.Ticker)
	assert.False(t, got.Resolved())
}

func TestNormalize_InvalidNumbers(t *testing.T) {
	got := Normalize(Row{Quantidade: "x", Valor: "1", Custos: "n/a"}, DefaultTickers)
	assert.Equal(t, []string{"quantity", "fees"}, got.Invalid)
	assert.Equal(t, models.OrderTypeUnknown, got.OrderType)
}

func TestNormalize_OutOfRangeNumbers(t *testing.T) {
	tests := []struct {
		name    string
		row     Row
		invalid []string
	}{
		{"huge quantity exponent", Row{Quantidade: "1e20000000", Valor: "-10"}, []string{"quantity"}},
		{"huge value exponent", Row{Quantidade: "10", Valor: "-1E20000000"}, []string{"price"}},
		{"tiny fees exponent", Row{Quantidade: "10", Valor: "-10", Custos: "1e-20000000"}, []string{"fees"}},
		{"too many integer digits", Row{Quantidade: "1234567890123456789", Valor: "-10"}, []string{"quantity"}},
		{"large but plausible", Row{Quantidade: "100000", Valor: "-123456789012,5"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.row, DefaultTickers)
			assert.Equal(t, tt.invalid, got.Invalid)
		})
	}
}

func TestImported_Raw(t *testing.T) {
	sellRow := Normalize(Row{Quantidade: "-27", Valor: "127.44", Produto: "ALTRI SGPS", Data: "08-05-2020", Hora: "15:48", Custos: "-0.56"}, DefaultTickers)
	tx, err := trading.Validate(sellRow.Raw())
	require.NoError(t, err)
	assert.Equal(t, models.OrderTypeSell, tx.OrderType)
	assert.Equal(t, "-27", tx.Quantity.String())
	assert.Equal(t, "4.72", tx.Price.String())
	assert.Equal(t, "0.56", tx.Fees.String())
	assert.Equal(t, "ALTR", tx.Ticker)

	buyRow := Normalize(Row{Quantidade: "27", Valor: "-97.69", Produto: "ALTRI SGPS", Data: "31-03-2020", Hora: "12:21"}, DefaultTickers)
	tx, err = trading.Validate(buyRow.Raw())
	require.NoError(t, err)
	assert.Equal(t, "27", tx.Quantity.String())
	assert.Equal(t, "3.6181", tx.Price.String())

	divRow := Normalize(Row{Quantidade: "0", Valor: "8.10", Produto: "ALTRI SGPS", Data: "01-06-2020", Hora: "09:00"}, DefaultTickers)
	tx, err = trading.Validate(divRow.Raw())
	require.NoError(t, err)
	assert.Equal(t, models.OrderTypeDividend, tx.OrderType)
	assert.True(t, tx.Quantity.IsZero())
	assert.True(t, tx.Price.IsZero())
	assert.Equal(t, "8.1", tx.Dividend.String())
}

func TestTickerTable_Merge(t *testing.T) {
	table := DefaultTickers.Merge(map[string]string{" PEUGEOT ": "ug"})
	assert.Equal(t, "UG", table.Lookup("PEUGEOT"))
	assert.Equal(t, "ALTR", table.Lookup("ALTRI SGPS"))
	assert.Equal(t, "", DefaultTickers.Lookup("PEUGEOT"), "merge must not modify the receiver")
}

func TestReadCSV(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(exportCSV))
	require.NoError(t, err)
	assertExport(t, NormalizeAll(rows, DefaultTickers))
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(exportCSV, "\ufeff")), "\n")
	for i, line := range lines {
		cells := strings.Split(line, ",")
		values := make([]interface{}, len(cells))
		for j, c := range cells {
			values[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &values))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	rows, err := ReadFile(path)
	require.NoError(t, err)
	assertExport(t, NormalizeAll(rows, DefaultTickers))
}

func TestReadFile_Unsupported(t *testing.T) {
	_, err := ReadFile("export.json")
	assert.ErrorIs(t, err, lerrors.ErrUnsupportedInput)
}

func newTestImporter(t *testing.T) (*Importer, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	engine := trading.NewEngine(s, zerolog.Nop())
	return NewImporter(engine, nil, zerolog.Nop()), s
}

func TestImport_AppliesOldestFirst(t *testing.T) {
	ctx := context.Background()
	im, s := newTestImporter(t)

	rows, err := ReadCSV(strings.NewReader(exportCSV))
	require.NoError(t, err)

	report, err := im.Import(ctx, rows, false)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Counts[StatusApplied])
	assert.Equal(t, 3, report.Counts[StatusSkipped])
	assert.False(t, report.Failed())

	require.Len(t, report.Rows, 5)
	assert.Equal(t, 5, report.Rows[0].Imported.Row)
	require.NotNil(t, report.Rows[0].Outcome)
	assert.Equal(t, trading.OutcomeCreated, report.Rows[0].Outcome.Kind)
	assert.Equal(t, 1, report.Rows[4].Imported.Row)
	assert.Equal(t, trading.OutcomeClosed, report.Rows[4].Outcome.Kind)

	positions, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestImport_ContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	im, s := newTestImporter(t)

	rows := []Row{
		{Data: "01-01-2020", Hora: "10:00", Produto: "ALTRI SGPS", Quantidade: "abc", Valor: "-10"},
		{Data: "02-01-2020", Hora: "10:00", Produto: "ALTRI SGPS", Quantidade: "-5", Valor: "50"},
		{Data: "03-01-2020", Hora: "10:00", Produto: "ALTRI SGPS", Quantidade: "10", Valor: "-50"},
		{Data: "04-01-2020", Hora: "10:00", Produto: "ALTRI SGPS", Quantidade: "0", Valor: "1.25"},
	}

	report, err := im.Import(ctx, rows, false)
	require.NoError(t, err)

	assert.Equal(t, StatusInvalid, report.Rows[0].Status)
	assert.Error(t, report.Rows[0].Err())
	assert.Equal(t, StatusInfeasible, report.Rows[1].Status)
	assert.Equal(t, StatusApplied, report.Rows[2].Status)
	assert.Equal(t, StatusApplied, report.Rows[3].Status)
	assert.True(t, report.Failed())

	pos, err := s.Get(ctx, "ALTR")
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, "10", pos.Quantity.String())
	assert.Equal(t, "5", pos.AvgPrice.String())
	assert.Equal(t, "1.25", pos.HistDividend.String())
}

func TestImport_DryRunDoesNotApply(t *testing.T) {
	ctx := context.Background()
	im, s := newTestImporter(t)

	rows, err := ReadCSV(strings.NewReader(exportCSV))
	require.NoError(t, err)

	report, err := im.Import(ctx, rows, true)
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.Counts[StatusValid])

	positions, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestImport_StoreFailureIsReported(t *testing.T) {
	ctx := context.Background()
	im, s := newTestImporter(t)
	require.NoError(t, s.Close())

	rows, err := ReadCSV(strings.NewReader(exportCSV))
	require.NoError(t, err)

	report, err := im.Import(ctx, rows, false)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Counts[StatusFailed])
	assert.ErrorIs(t, report.Rows[0].Err(), lerrors.ErrStoreUnavailable)
}

func TestImport_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	im, _ := newTestImporter(t)

	rows, err := ReadCSV(strings.NewReader(exportCSV))
	require.NoError(t, err)

	_, err = im.Import(ctx, rows, false)
	assert.ErrorIs(t, err, context.Canceled)
}
