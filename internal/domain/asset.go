package domain

import (
	"time"

	"github.com/google/uuid"
)

// Asset is the catalog record backing sell orders: the total fraction supply
// caps how many fractions partner orders may offer in aggregate. Slug is the
// catalog's URL-friendly identifier and is what listing filters match on.
type Asset struct {
	ID               uuid.UUID
	PartnerID        uuid.UUID
	Name             string
	Slug             string
	FractionQtyTotal int64

	CreatedAt time.Time
}
