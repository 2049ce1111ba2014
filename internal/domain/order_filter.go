package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderFilter has AND semantics across fields, OR semantics within each field
// slice. The zero filter matches every non-deleted order.
type OrderFilter struct {
	IDs          []uuid.UUID
	PartnerIDs   []uuid.UUID
	AssetIDs     []uuid.UUID
	PurchaserIDs []uuid.UUID
	Types        []SaleType
	CreatedAt    *TimeRange

	IncludeDeleted bool
}

func (f OrderFilter) Validate() error {
	for _, t := range f.Types {
		if _, err := ToSaleType(string(t)); err != nil {
			return fmt.Errorf("types: %w", err)
		}
	}

	if f.CreatedAt != nil {
		if err := f.CreatedAt.Validate(); err != nil {
			return fmt.Errorf("createdAt: %w", err)
		}
	}

	return nil
}

type TimeRange struct {
	Before *time.Time
	After  *time.Time
}

func (t TimeRange) Validate() error {
	if t.Before == nil && t.After == nil {
		return errors.New("both Before and After are nil")
	}

	if t.Before != nil && t.After != nil {
		if t.Before.Before(*t.After) {
			return fmt.Errorf("before is before After")
		}
	}

	return nil
}
