package domain

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/currency"
)

// SellOrder is an offer to sell a fixed quantity of fractional ownership
// units in an asset at a fixed price, within a time window.
type SellOrder struct {
	ID        uuid.UUID
	UserID    *uuid.UUID // nil for platform-originated orders
	PartnerID uuid.UUID
	AssetID   uuid.UUID

	FractionQty          int64
	FractionQtyAvailable int64
	FractionPriceCents   int64
	PriceCurrency        currency.Unit

	Type       SaleType
	StartTime  time.Time
	ExpireTime time.Time

	// Drop orders only: per-user purchase cap and the instant it stops applying.
	UserFractionLimit        *int64
	UserFractionLimitEndTime *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Validate checks creation-time invariants against the backing asset's
// total fraction supply.
func (o SellOrder) Validate(assetSupply int64) error {
	if o.FractionQty <= 0 {
		return ErrInvalidQuantity
	}

	if o.FractionQty > assetSupply {
		return ErrInsufficientSupplyForOrder
	}

	if o.FractionPriceCents <= 0 {
		return ErrInvalidPrice
	}

	if !o.ExpireTime.After(o.StartTime) {
		return ErrInvalidTimeWindow
	}

	if o.Type == SaleTypeDrop {
		if o.UserFractionLimit == nil || *o.UserFractionLimit <= 0 || *o.UserFractionLimit > o.FractionQty {
			return ErrInvalidUserFractionLimit
		}

		if o.UserFractionLimitEndTime == nil || !o.UserFractionLimitEndTime.After(o.StartTime) {
			return ErrInvalidUserFractionLimitEndTime
		}
	}

	return nil
}

// ActiveAt reports whether the order can be purchased from at instant t:
// not soft-deleted and within [StartTime, ExpireTime).
func (o SellOrder) ActiveAt(t time.Time) bool {
	if o.DeletedAt != nil {
		return false
	}
	return !t.Before(o.StartTime) && t.Before(o.ExpireTime)
}

// LimitAppliesAt reports whether the per-user drop cap is in force at instant t.
func (o SellOrder) LimitAppliesAt(t time.Time) bool {
	if o.Type != SaleTypeDrop || o.UserFractionLimitEndTime == nil {
		return false
	}
	return t.Before(*o.UserFractionLimitEndTime)
}

// OwnedBy reports whether userID is the order's owning user.
func (o SellOrder) OwnedBy(userID uuid.UUID) bool {
	return o.UserID != nil && *o.UserID == userID
}

func (o SellOrder) Price() Money {
	return MoneyFromCents(o.FractionPriceCents, o.PriceCurrency)
}
