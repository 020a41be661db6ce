// Package importer turns broker transaction exports into canonical
// transactions and applies them in batches.
package importer

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"position-ledger/internal/models"
	"position-ledger/internal/trading"
)

// Row is one line of the broker export. Valor is the signed total value of
// the trade: negative when money left the account.
type Row struct {
	Data       string `csv:"Data"`
	Hora       string `csv:"Hora"`
	Produto    string `csv:"Produto"`
	Quantidade string `csv:"Quantidade"`
	Valor      string `csv:"Valor"`
	Custos     string `csv:"Custos de transação"`
}

// TickerLookup resolves a product name to a ticker. Unknown products
// resolve to "".
type TickerLookup interface {
	Lookup(product string) string
}

// TickerTable is a fixed product name to ticker mapping.
type TickerTable map[string]string

// DefaultTickers is the built-in product table.
var DefaultTickers = TickerTable{
	"ALTRI SGPS": "ALTR",
}

// Lookup implements TickerLookup. Product names match exactly after trimming.
func (t TickerTable) Lookup(product string) string {
	return t[strings.TrimSpace(product)]
}

// Merge returns a new table holding t overlaid with extra.
func (t TickerTable) Merge(extra map[string]string) TickerTable {
	merged := make(TickerTable, len(t)+len(extra))
	for k, v := range t {
		merged[k] = v
	}
	for k, v := range extra {
		merged[strings.TrimSpace(k)] = strings.ToUpper(strings.TrimSpace(v))
	}
	return merged
}

// Imported is a normalized export row. Quantity, Price and Fees keep the
// export's signs; Raw converts them to the canonical convention.
type Imported struct {
	Row       int              `json:"row"`
	Date      string           `json:"date"`
	Product   string           `json:"product"`
	Ticker    string           `json:"ticker"`
	OrderType models.OrderType `json:"orderType"`
	Quantity  decimal.Decimal  `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
	Fees      decimal.Decimal  `json:"fees"`
	Invalid   []string         `json:"invalid,omitempty"`
}

// Normalize maps one export row. It never fails: unparseable numbers are
// listed in Invalid and leave the order type unknown.
func Normalize(row Row, tickers TickerLookup) Imported {
	out := Imported{
		Date:    row.Data + "@" + row.Hora,
		Product: row.Produto,
		Ticker:  tickers.Lookup(row.Produto),
	}

	var ok bool
	if out.Quantity, ok = parseExportNumber(row.Quantidade); !ok {
		out.Invalid = append(out.Invalid, "quantity")
	}
	if out.Price, ok = parseExportNumber(row.Valor); !ok {
		out.Invalid = append(out.Invalid, "price")
	}
	if out.Fees, ok = parseExportNumber(row.Custos); !ok {
		out.Invalid = append(out.Invalid, "fees")
	}

	if len(out.Invalid) == 0 {
		out.OrderType = inferOrderType(out.Quantity, out.Price)
	}
	return out
}

// NormalizeAll normalizes rows in order. Row numbers start at 1.
func NormalizeAll(rows []Row, tickers TickerLookup) []Imported {
	out := make([]Imported, len(rows))
	for i, row := range rows {
		out[i] = Normalize(row, tickers)
		out[i].Row = i + 1
	}
	return out
}

// inferOrderType reads the export's convention: money out for buys, money
// in for sells, money in with no shares moved for dividends.
func inferOrderType(quantity, price decimal.Decimal) models.OrderType {
	switch {
	case quantity.IsPositive() && price.IsNegative():
		return models.OrderTypeBuy
	case quantity.IsNegative() && price.IsPositive():
		return models.OrderTypeSell
	case quantity.IsZero() && price.IsPositive():
		return models.OrderTypeDividend
	default:
		return models.OrderTypeUnknown
	}
}

// Resolved reports whether the row can be applied: known order type and
// ticker.
func (i Imported) Resolved() bool {
	return i.OrderType != models.OrderTypeUnknown && i.Ticker != ""
}

// Raw converts the row to the canonical input form. The export's Valor
// column is the total trade value, not a unit price: the SELL row of 27
// ALTRI SGPS shares at 4.72 carries Valor 127.44 (27 x 4.72). The unit
// price is therefore |Valor| / |Quantidade|. Dividends carry the value as
// the dividend amount and no price.
func (i Imported) Raw() models.RawTransaction {
	raw := models.RawTransaction{
		Date:      i.Date,
		Ticker:    i.Ticker,
		OrderType: string(i.OrderType),
		Fees:      i.Fees.Abs().String(),
	}

	switch {
	case i.OrderType == models.OrderTypeDividend:
		raw.Quantity = "0"
		raw.Price = "0"
		raw.Dividend = i.Price.Abs().String()
	case i.Quantity.IsZero():
		raw.Quantity = i.Quantity.String()
	default:
		raw.Quantity = i.Quantity.String()
		unit := i.Price.Abs().DivRound(i.Quantity.Abs(), models.PricePrecision+8)
		raw.Price = models.RoundPrice(unit).String()
	}
	return raw
}

// parseExportNumber reads a numeric export cell. Blank cells are zero and a
// lone decimal comma is accepted; values outside trading.InRange are not
// numbers.
func parseExportNumber(v any) (decimal.Decimal, bool) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return decimal.Zero, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, true
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !trading.InRange(d) {
		return decimal.Zero, false
	}
	return d, true
}
