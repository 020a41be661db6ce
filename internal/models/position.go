package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the aggregated holding of one ticker.
type Position struct {
	Ticker       string          `json:"ticker"`
	Quantity     decimal.Decimal `json:"quantity"`
	AvgPrice     decimal.Decimal `json:"avgPrice"`
	HistDividend decimal.Decimal `json:"histDividend"`
	UpdatedAt    time.Time       `json:"updatedAt,omitempty"`
}

// CostBasis returns quantity times average price.
func (p Position) CostBasis() decimal.Decimal {
	return p.Quantity.Mul(p.AvgPrice)
}

// Equal compares the ledger values of two positions, ignoring UpdatedAt.
func (p Position) Equal(o Position) bool {
	return p.Ticker == o.Ticker &&
		p.Quantity.Equal(o.Quantity) &&
		p.AvgPrice.Equal(o.AvgPrice) &&
		p.HistDividend.Equal(o.HistDividend)
}
