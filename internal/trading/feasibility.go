package trading

import (
	"context"

	"github.com/shopspring/decimal"

	"position-ledger/internal/models"
)

// CheckFeasible decides whether a transaction may be applied to the current
// position of ticker.
//
// BUY is always feasible and skips the lookup. SELL needs an existing
// position that stays non-negative after adding requestedQuantity (which is
// negative for sells). DIV needs an existing position with a positive
// quantity. An absent position makes SELL and DIV infeasible; that is an
// outcome, not an error. Only a failing lookup returns an error.
func CheckFeasible(ctx context.Context, ticker string, orderType models.OrderType, requestedQuantity decimal.Decimal, lookup PositionLookup) (bool, error) {
	switch orderType {
	case models.OrderTypeBuy:
		return true, nil
	case models.OrderTypeSell, models.OrderTypeDividend:
	default:
		return false, nil
	}

	existing, err := lookup.Get(ctx, ticker)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	if orderType == models.OrderTypeSell {
		return !existing.Quantity.Add(requestedQuantity).IsNegative(), nil
	}
	return existing.Quantity.IsPositive(), nil
}
