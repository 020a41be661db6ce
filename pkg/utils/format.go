// Package utils provides shared utility functions.
package utils

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no display currency is configured.
const DefaultCurrency = money.EUR

// FormatMoney formats an amount in the given ISO currency, rounded to the
// currency's minor unit. Unknown currency codes are formatted as plain
// two-digit amounts followed by the code.
func FormatMoney(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = DefaultCurrency
	}

	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}

	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, code).Display()
}

// FormatPrice formats a unit price with the ledger's fixed price precision.
func FormatPrice(price decimal.Decimal, precision int32) string {
	return price.StringFixed(precision)
}

// FormatQuantity formats a quantity without trailing zeros.
func FormatQuantity(qty decimal.Decimal) string {
	return qty.String()
}
