package trading

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"go.uber.org/multierr"

	lerrors "position-ledger/internal/errors"
	"position-ledger/internal/models"
)

// Validate turns raw input into a canonical Transaction.
//
// Quantity and dividend are derived from the order type rather than trusted:
// BUY takes |quantity|, SELL -|quantity|, DIV a zero quantity and |dividend|.
// Fees become |fees| and never invalidate input. Every violated rule is
// reported in one *errors.ValidationError.
func Validate(raw models.RawTransaction) (models.Transaction, error) {
	var errs error

	orderTypeText, _ := textField(raw.OrderType)
	orderType, ok := models.ParseOrderType(orderTypeText)
	if !ok {
		errs = multierr.Append(errs, lerrors.NewFieldError(lerrors.InvalidOrderType, "orderType", raw.OrderType,
			"must be one of BUY, SELL, DIV"))
	}

	quantity, quantityOK := deriveQuantity(orderType, raw.Quantity)
	if !quantityOK {
		errs = multierr.Append(errs, lerrors.NewFieldError(lerrors.InvalidQuantity, "quantity", raw.Quantity,
			"not a number or out of range"))
	} else if quantity.IsZero() && orderType != models.OrderTypeDividend {
		errs = multierr.Append(errs, lerrors.NewFieldError(lerrors.InvalidQuantity, "quantity", raw.Quantity,
			"must be non-zero for "+orderTypeLabel(orderTypeText)))
	}

	dividend := decimal.Zero
	if orderType == models.OrderTypeDividend && !isAbsent(raw.Dividend) {
		d, ok := parseNumber(raw.Dividend)
		if !ok {
			errs = multierr.Append(errs, lerrors.NewFieldError(lerrors.InvalidDividend, "dividend", raw.Dividend,
				"not a number or out of range"))
		}
		dividend = d.Abs()
	}

	price := decimal.Zero
	switch {
	case isAbsent(raw.Price):
		// Dividends carry no unit price.
		if orderType != models.OrderTypeDividend {
			errs = multierr.Append(errs, lerrors.NewFieldError(lerrors.InvalidPrice, "price", raw.Price,
				"required"))
		}
	default:
		p, ok := parseNumber(raw.Price)
		switch {
		case !ok:
			errs = multierr.Append(errs, lerrors.NewFieldError(lerrors.InvalidPrice, "price", raw.Price,
				"not a number or out of range"))
		case p.IsNegative():
			errs = multierr.Append(errs, lerrors.NewFieldError(lerrors.InvalidPrice, "price", raw.Price,
				"must not be negative"))
		default:
			price = p
		}
	}

	date, ok := textField(raw.Date)
	switch {
	case !ok:
		errs = multierr.Append(errs, lerrors.NewFieldError(lerrors.InvalidDate, "date", raw.Date, "must be a string"))
	case date == "":
		errs = multierr.Append(errs, lerrors.NewFieldError(lerrors.InvalidDate, "date", raw.Date, "required"))
	}

	ticker, ok := textField(raw.Ticker)
	ticker = strings.ToUpper(ticker)
	switch {
	case !ok:
		errs = multierr.Append(errs, lerrors.NewFieldError(lerrors.InvalidTicker, "ticker", raw.Ticker, "must be a string"))
	case ticker == "":
		errs = multierr.Append(errs, lerrors.NewFieldError(lerrors.InvalidTicker, "ticker", raw.Ticker, "required"))
	}

	fees, ok := parseNumber(raw.Fees)
	if !ok {
		fees = decimal.Zero
	}

	if errs != nil {
		return models.Transaction{}, lerrors.NewValidationError(errs)
	}

	return models.Transaction{
		Date:      date,
		Ticker:    ticker,
		OrderType: orderType,
		Quantity:  quantity,
		Price:     price,
		Fees:      fees.Abs(),
		Dividend:  dividend,
	}, nil
}

// deriveQuantity applies the sign convention of the order type. Unknown
// order types derive a zero quantity.
func deriveQuantity(orderType models.OrderType, v any) (decimal.Decimal, bool) {
	switch orderType {
	case models.OrderTypeBuy:
		q, ok := parseNumber(v)
		return q.Abs(), ok
	case models.OrderTypeSell:
		q, ok := parseNumber(v)
		return q.Abs().Neg(), ok
	default:
		return decimal.Zero, true
	}
}

func orderTypeLabel(s string) string {
	if strings.TrimSpace(s) == "" {
		return "missing order type"
	}
	return strings.ToUpper(s)
}

// textField reads a textual raw field. Absent fields are blank; anything
// other than a string reports false.
func textField(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return strings.TrimSpace(t), true
	default:
		return "", false
	}
}

// isAbsent reports whether a raw field was left out or blank.
func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// Magnitude limits for parsed numbers. Anything outside them is far beyond
// any real trade and makes decimal arithmetic arbitrarily expensive.
const (
	maxExponent      = 12
	minExponent      = -18
	maxIntegerDigits = 18
)

// InRange reports whether d is a plausible trade amount: its exponent lies
// between -18 and 12 and it has at most 18 integer digits.
func InRange(d decimal.Decimal) bool {
	exp := int(d.Exponent())
	if exp > maxExponent || exp < minExponent {
		return false
	}
	return d.IsZero() || d.NumDigits()+exp <= maxIntegerDigits
}

// parseNumber coerces a raw JSON or CSV value to a decimal. Absent values,
// anything that is not a finite number and numbers outside InRange report
// false.
func parseNumber(v any) (decimal.Decimal, bool) {
	if isAbsent(v) {
		return decimal.Zero, false
	}
	switch n := v.(type) {
	case decimal.Decimal:
		return n, InRange(n)
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero, false
		}
		return *n, InRange(*n)
	case bool:
		return decimal.Zero, false
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !InRange(d) {
		return decimal.Zero, false
	}
	return d, true
}
