package trading

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lerrors "position-ledger/internal/errors"
	"position-ledger/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func position(ticker, qty, avg, div string) *models.Position {
	return &models.Position{Ticker: ticker, Quantity: dec(qty), AvgPrice: dec(avg), HistDividend: dec(div)}
}

func TestRecalculate_WeightedAverage(t *testing.T) {
	existing := position("ALTR", "10", "100", "0")
	tx := models.Transaction{Ticker: "ALTR", OrderType: models.OrderTypeBuy, Quantity: dec("10"), Price: dec("200")}

	result := Recalculate(existing, tx)

	require.Equal(t, RecalcUpdated, result.Kind)
	assert.Equal(t, "150.0000", result.Position.AvgPrice.StringFixed(models.PricePrecision))
	assert.True(t, result.Position.Quantity.Equal(dec("20")))
	assert.NoError(t, result.Err())
}

func TestRecalculate_RoundsAveragePrice(t *testing.T) {
	existing := position("ALTR", "3", "1", "0")
	tx := models.Transaction{Ticker: "ALTR", OrderType: models.OrderTypeBuy, Quantity: dec("3"), Price: dec("2.00005")}

	result := Recalculate(existing, tx)

	require.Equal(t, RecalcUpdated, result.Kind)
	// (3 + 6.00015) / 6 = 1.500025
	assert.Equal(t, "1.5", result.Position.AvgPrice.String())
}

func TestRecalculate_ClosesAtZero(t *testing.T) {
	existing := position("ALTR", "27", "97.69", "1.5")
	for _, price := range []string{"0", "97.69", "127.44", "100000"} {
		tx := models.Transaction{Ticker: "ALTR", OrderType: models.OrderTypeSell, Quantity: dec("-27"), Price: dec(price)}
		result := Recalculate(existing, tx)
		assert.Equal(t, RecalcClosed, result.Kind, "price %s", price)
	}
}

func TestRecalculate_AccumulatesDividends(t *testing.T) {
	existing := position("ALTR", "5", "10", "1.10")
	tx := models.Transaction{Ticker: "ALTR", OrderType: models.OrderTypeDividend, Quantity: decimal.Zero, Dividend: dec("0.335")}

	result := Recalculate(existing, tx)

	require.Equal(t, RecalcUpdated, result.Kind)
	assert.Equal(t, "1.44", result.Position.HistDividend.StringFixed(models.DividendPrecision))
	assert.True(t, result.Position.AvgPrice.Equal(dec("10")))
	assert.True(t, result.Position.Quantity.Equal(dec("5")))
}

func TestRecalculate_RejectsNegativeValues(t *testing.T) {
	existing := position("ALTR", "5", "10", "0")

	oversell := models.Transaction{Ticker: "ALTR", OrderType: models.OrderTypeSell, Quantity: dec("-6"), Price: dec("1")}
	result := Recalculate(existing, oversell)
	require.Equal(t, RecalcRejected, result.Kind)
	assert.ErrorIs(t, result.Err(), lerrors.ErrNegativeValue)

	// Selling most of the position far above cost drives the average negative.
	profitable := models.Transaction{Ticker: "ALTR", OrderType: models.OrderTypeSell, Quantity: dec("-4"), Price: dec("100")}
	result = Recalculate(existing, profitable)
	assert.Equal(t, RecalcRejected, result.Kind)
}

func TestRecalculate_NoExistingPosition(t *testing.T) {
	buy := models.Transaction{Ticker: "ALTR", OrderType: models.OrderTypeBuy, Quantity: dec("27"), Price: dec("4.72000001"), Dividend: dec("3")}
	result := Recalculate(nil, buy)

	require.Equal(t, RecalcCreated, result.Kind)
	assert.True(t, result.Position.Quantity.Equal(dec("27")))
	assert.Equal(t, "4.72", result.Position.AvgPrice.String())
	assert.True(t, result.Position.HistDividend.IsZero())

	for _, tx := range []models.Transaction{
		{Ticker: "ALTR", OrderType: models.OrderTypeSell, Quantity: dec("-1"), Price: dec("1")},
		{Ticker: "ALTR", OrderType: models.OrderTypeDividend, Dividend: dec("1")},
	} {
		result := Recalculate(nil, tx)
		assert.Equal(t, RecalcRejected, result.Kind, "%s", tx.OrderType)
		assert.Error(t, result.Err())
	}
}

func TestCheckFeasible(t *testing.T) {
	ctx := context.Background()
	absent := snapshot(nil)

	tests := []struct {
		name      string
		orderType models.OrderType
		quantity  string
		lookup    PositionLookup
		want      bool
	}{
		{"buy without position", models.OrderTypeBuy, "10", absent, true},
		{"sell without position", models.OrderTypeSell, "-1", absent, false},
		{"div without position", models.OrderTypeDividend, "0", absent, false},
		{"div with holding", models.OrderTypeDividend, "0", snapshot(position("X", "5", "1", "0")), true},
		{"div with zero quantity", models.OrderTypeDividend, "0", snapshot(position("X", "0", "1", "0")), false},
		{"sell within holding", models.OrderTypeSell, "-5", snapshot(position("X", "5", "1", "0")), true},
		{"sell beyond holding", models.OrderTypeSell, "-6", snapshot(position("X", "5", "1", "0")), false},
		{"unknown type", models.OrderTypeUnknown, "1", absent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckFeasible(ctx, "X", tt.orderType, dec(tt.quantity), tt.lookup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckFeasible_BuySkipsLookup(t *testing.T) {
	calls := 0
	lookup := PositionLookupFunc(func(ctx context.Context, ticker string) (*models.Position, error) {
		calls++
		return nil, nil
	})

	ok, err := CheckFeasible(context.Background(), "X", models.OrderTypeBuy, dec("1"), lookup)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, calls)
}

func TestCheckFeasible_LookupError(t *testing.T) {
	failing := PositionLookupFunc(func(ctx context.Context, ticker string) (*models.Position, error) {
		return nil, lerrors.NewStoreError("get", ticker, lerrors.New("connection refused"))
	})

	ok, err := CheckFeasible(context.Background(), "X", models.OrderTypeSell, dec("-1"), failing)
	assert.False(t, ok)
	assert.ErrorIs(t, err, lerrors.ErrStoreUnavailable)
}
