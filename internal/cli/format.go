package cli

import (
	"time"

	"github.com/shopspring/decimal"

	"position-ledger/internal/models"
	"position-ledger/pkg/utils"
)

// FormatPrice formats a unit price at the ledger's price precision.
func FormatPrice(price decimal.Decimal) string {
	return utils.FormatPrice(price, models.PricePrecision)
}

// FormatDividend formats accumulated dividends in currency.
func FormatDividend(amount decimal.Decimal, currency string) string {
	return utils.FormatMoney(amount.Round(models.DividendPrecision), currency)
}

// FormatCostBasis formats quantity times average price in currency.
func FormatCostBasis(p models.Position, currency string) string {
	return utils.FormatMoney(p.CostBasis(), currency)
}

// FormatDateTime formats a timestamp for tables; zero times render as "-".
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// TruncateString truncates a string to maxLen runes with ellipsis.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
