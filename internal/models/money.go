package models

import "github.com/shopspring/decimal"

// Money is a decimal amount that always serialises with two fraction digits.
type Money struct {
	decimal.Decimal
}

// NewMoney rounds d to cents.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(2)}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}
