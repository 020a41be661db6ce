package models

import "github.com/shopspring/decimal"

// Transaction is a validated trade or dividend event.
//
// Quantity is signed by order type: positive for BUY, negative for SELL and
// zero for DIV. Price, Fees and Dividend are never negative.
type Transaction struct {
	Date      string          `json:"date"`
	Ticker    string          `json:"ticker"`
	OrderType OrderType       `json:"orderType"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Fees      decimal.Decimal `json:"fees"`
	Dividend  decimal.Decimal `json:"dividend"`
}

// Raw returns the transaction in its unvalidated form. Validating the result
// yields an equal transaction.
func (t Transaction) Raw() RawTransaction {
	return RawTransaction{
		Date:      t.Date,
		Ticker:    t.Ticker,
		OrderType: string(t.OrderType),
		Quantity:  t.Quantity.String(),
		Price:     t.Price.String(),
		Fees:      t.Fees.String(),
		Dividend:  t.Dividend.String(),
	}
}

// Equal reports whether two transactions carry the same values.
func (t Transaction) Equal(o Transaction) bool {
	return t.Date == o.Date &&
		t.Ticker == o.Ticker &&
		t.OrderType == o.OrderType &&
		t.Quantity.Equal(o.Quantity) &&
		t.Price.Equal(o.Price) &&
		t.Fees.Equal(o.Fees) &&
		t.Dividend.Equal(o.Dividend)
}

// RawTransaction is transaction input as received from a client. Every
// field holds whatever the client sent (JSON numbers, strings or nothing),
// so a mistyped field is reported by validation instead of failing decode.
type RawTransaction struct {
	Date      any `json:"date"`
	Ticker    any `json:"ticker"`
	OrderType any `json:"orderType"`
	Quantity  any `json:"quantity"`
	Price     any `json:"price"`
	Fees      any `json:"fees"`
	Dividend  any `json:"dividend"`
}
