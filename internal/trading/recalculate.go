package trading

import (
	"github.com/shopspring/decimal"

	lerrors "position-ledger/internal/errors"
	"position-ledger/internal/models"
)

// RecalcKind is the outcome of folding a transaction into a position.
type RecalcKind string

const (
	RecalcCreated  RecalcKind = "CREATED"
	RecalcUpdated  RecalcKind = "UPDATED"
	RecalcClosed   RecalcKind = "CLOSED"
	RecalcRejected RecalcKind = "REJECTED"
)

// RecalcResult is what Recalculate produced. Position is set for Created and
// Updated; Reason is set for Rejected.
type RecalcResult struct {
	Kind     RecalcKind
	Ticker   string
	Position models.Position
	Reason   string
}

// Err returns a *errors.RejectionError for rejected results and nil otherwise.
func (r RecalcResult) Err() error {
	if r.Kind != RecalcRejected {
		return nil
	}
	return lerrors.NewRejectionError(r.Ticker, r.Reason)
}

const reasonNoPosition = "no position to apply a non-buy transaction to"

// Recalculate folds tx into existing, which is nil when the ticker has no
// position yet.
//
// The new average price is the volume-weighted cost over the combined signed
// quantity, rounded to models.PricePrecision; dividends accumulate rounded to
// models.DividendPrecision. A resulting quantity of exactly zero closes the
// position. Any negative resulting value rejects the transaction.
func Recalculate(existing *models.Position, tx models.Transaction) RecalcResult {
	if existing == nil {
		if tx.OrderType != models.OrderTypeBuy || !tx.Quantity.IsPositive() || tx.Price.IsNegative() {
			return RecalcResult{Kind: RecalcRejected, Ticker: tx.Ticker, Reason: reasonNoPosition}
		}
		return RecalcResult{
			Kind:   RecalcCreated,
			Ticker: tx.Ticker,
			Position: models.Position{
				Ticker:       tx.Ticker,
				Quantity:     tx.Quantity,
				AvgPrice:     models.RoundPrice(tx.Price),
				HistDividend: decimal.Zero,
			},
		}
	}

	totalQuantity := existing.Quantity.Add(tx.Quantity)
	if totalQuantity.IsZero() {
		return RecalcResult{Kind: RecalcClosed, Ticker: existing.Ticker}
	}

	cost := existing.Quantity.Mul(existing.AvgPrice).Add(tx.Quantity.Mul(tx.Price))
	// Extra working digits so RoundPrice is the only rounding that matters.
	newAvgPrice := models.RoundPrice(cost.DivRound(totalQuantity, models.PricePrecision+8))
	newHistDividend := models.RoundDividend(existing.HistDividend.Add(tx.Dividend))

	if totalQuantity.IsNegative() || newAvgPrice.IsNegative() || newHistDividend.IsNegative() {
		return RecalcResult{Kind: RecalcRejected, Ticker: existing.Ticker, Reason: lerrors.ErrNegativeValue.Error()}
	}

	return RecalcResult{
		Kind:   RecalcUpdated,
		Ticker: existing.Ticker,
		Position: models.Position{
			Ticker:       existing.Ticker,
			Quantity:     totalQuantity,
			AvgPrice:     newAvgPrice,
			HistDividend: newHistDividend,
		},
	}
}
