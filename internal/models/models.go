// Package models provides domain models for the position ledger.
package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// OrderType represents the kind of a transaction.
type OrderType string

const (
	OrderTypeBuy      OrderType = "BUY"
	OrderTypeSell     OrderType = "SELL"
	OrderTypeDividend OrderType = "DIV"
	OrderTypeUnknown  OrderType = "" // import rows whose signs match no known pattern
)

// OrderTypes lists the order types accepted by validation.
var OrderTypes = []OrderType{OrderTypeBuy, OrderTypeSell, OrderTypeDividend}

// ParseOrderType matches s case-insensitively against the known order types.
func ParseOrderType(s string) (OrderType, bool) {
	candidate := OrderType(strings.ToUpper(strings.TrimSpace(s)))
	for _, ot := range OrderTypes {
		if candidate == ot {
			return ot, true
		}
	}
	return OrderTypeUnknown, false
}

// Rounding precisions applied on every recalculation.
const (
	PricePrecision    int32 = 4
	DividendPrecision int32 = 2
)

// RoundPrice rounds an average price to PricePrecision digits.
func RoundPrice(d decimal.Decimal) decimal.Decimal { return d.Round(PricePrecision) }

// RoundDividend rounds a dividend amount to DividendPrecision digits.
func RoundDividend(d decimal.Decimal) decimal.Decimal { return d.Round(DividendPrecision) }
