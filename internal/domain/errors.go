package domain

import "errors"

var (
	// ErrOrderNotFound covers absent, soft-deleted, not-yet-started and
	// expired orders. Callers cannot distinguish these on purpose.
	ErrOrderNotFound = errors.New("sell order not found")

	ErrInsufficientAvailability = errors.New("insufficient fraction availability")
	ErrPriceMismatch            = errors.New("fraction price mismatch")
	ErrSelfPurchaseForbidden    = errors.New("cannot purchase own sell order")
	ErrPurchaseLimitReached     = errors.New("user fraction limit reached")

	// ErrInvalidOrderConfiguration means a drop order was persisted without
	// its limit fields. Creation validation was bypassed, so this is a
	// server fault, not a user input error.
	ErrInvalidOrderConfiguration = errors.New("invalid sell order configuration")

	ErrInsufficientSupplyForOrder      = errors.New("asset supply is lower than requested fraction quantity")
	ErrInvalidUserFractionLimit        = errors.New("invalid user fraction limit")
	ErrInvalidUserFractionLimitEndTime = errors.New("invalid user fraction limit end time")

	ErrAssetNotFound     = errors.New("asset not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidQuantity   = errors.New("invalid fraction quantity")
	ErrInvalidPrice      = errors.New("invalid fraction price")
	ErrInvalidTimeWindow = errors.New("invalid sale time window")
)
