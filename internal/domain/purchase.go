package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// SellOrderPurchase is an immutable ledger entry for a committed fraction
// purchase. Rows are only ever inserted, never updated or deleted.
type SellOrderPurchase struct {
	ID      uuid.UUID
	OrderID uuid.UUID
	UserID  uuid.UUID

	FractionQty        int64
	FractionPriceCents int64
	PriceCurrency      currency.Unit

	CreatedAt time.Time
}

// Total is the amount paid: price per fraction times quantity.
func (p SellOrderPurchase) Total() Money {
	cents := decimal.NewFromInt(p.FractionPriceCents).Mul(decimal.NewFromInt(p.FractionQty))
	return Money{
		Amount:   cents.Div(decimal.NewFromInt(100)),
		Currency: p.PriceCurrency,
	}
}

// PurchaseRequest carries the client's view of the purchase: quantity and
// the price it expects to pay. The price acts as a guard against the order
// having been repriced between read and purchase.
type PurchaseRequest struct {
	FractionsToPurchase int64
	FractionPriceCents  int64
}

func (r PurchaseRequest) Validate() error {
	if r.FractionsToPurchase < 1 {
		return ErrInvalidQuantity
	}
	if r.FractionPriceCents < 1 {
		return ErrInvalidPrice
	}
	return nil
}
