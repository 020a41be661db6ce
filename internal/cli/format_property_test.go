package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"position-ledger/internal/models"
)

// FormatPrice always renders exactly four fractional digits and preserves
// the value once rounded to that precision.
func TestProperty_PriceFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatPrice has four decimals and round-trips", prop.ForAll(
		func(units int64, scale int32) bool {
			price := decimal.New(units, -scale)
			formatted := FormatPrice(price)

			parts := strings.Split(formatted, ".")
			if len(parts) != 2 || len(parts[1]) != int(models.PricePrecision) {
				t.Logf("unexpected format for %s: %s", price, formatted)
				return false
			}

			parsed, err := decimal.NewFromString(formatted)
			if err != nil {
				return false
			}
			return parsed.Equal(price.Round(models.PricePrecision))
		},
		gen.Int64Range(0, 1_000_000_000),
		gen.Int32Range(0, 8),
	))

	properties.TestingRun(t)
}

// TruncateString never exceeds the limit and leaves short strings alone.
func TestProperty_TruncateString(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("TruncateString respects maxLen", prop.ForAll(
		func(s string, maxLen int) bool {
			out := TruncateString(s, maxLen)
			if len([]rune(out)) > maxLen {
				return false
			}
			if len([]rune(s)) <= maxLen {
				return out == s
			}
			return true
		},
		gen.AnyString(),
		gen.IntRange(0, 40),
	))

	properties.TestingRun(t)
}

func TestFormatDividend(t *testing.T) {
	got := FormatDividend(decimal.RequireFromString("1.435"), "EUR")
	if !strings.Contains(got, "1.44") {
		t.Errorf("expected 1.44 in %q", got)
	}
}

func TestFormatCostBasis(t *testing.T) {
	p := models.Position{
		Ticker:   "ALTR",
		Quantity: decimal.NewFromInt(170),
		AvgPrice: decimal.RequireFromString("3.6181"),
	}
	got := FormatCostBasis(p, "EUR")
	if !strings.Contains(got, "615.08") {
		t.Errorf("expected 615.08 in %q", got)
	}
}

func TestFormatDateTime_Zero(t *testing.T) {
	if got := FormatDateTime(time.Time{}); got != "-" {
		t.Errorf("FormatDateTime(zero) = %q", got)
	}
}
