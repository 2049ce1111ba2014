package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

// MoneyFromCents converts an integer cent amount to a Money value.
func MoneyFromCents(cents int64, unit currency.Unit) Money {
	return Money{
		Amount:   decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)),
		Currency: unit,
	}
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency.String()
}
