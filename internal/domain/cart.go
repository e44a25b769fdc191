package domain

import "github.com/shopspring/decimal"

// CartLineItem is one aggregated cart entry. Name is the merge identity.
type CartLineItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Total returns price x quantity, unrounded
func (l CartLineItem) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// FormatAmount renders an amount for presentation, rounded to 2 decimal places
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
