package port

import (
	"context"

	"github.com/fractionlab/ordercore/internal/domain"
	"github.com/google/uuid"
)

type OrderRepository interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.SellOrder, error)
	GetOrderForPartner(ctx context.Context, orderID, partnerID uuid.UUID) (domain.SellOrder, error)

	// GetOrderForUpdate takes an exclusive row lock on the order. It is only
	// meaningful inside a transaction-scoped repository.
	GetOrderForUpdate(ctx context.Context, orderID uuid.UUID) (domain.SellOrder, error)

	SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.SellOrder, error)

	InsertOrder(ctx context.Context, order domain.SellOrder) (uuid.UUID, error)

	// DecrementAvailability reduces fraction_qty_available by qty, refusing
	// to take it below zero.
	DecrementAvailability(ctx context.Context, orderID uuid.UUID, qty int64) error

	SoftDeleteOrder(ctx context.Context, orderID, partnerID uuid.UUID) error
}

type PurchaseRepository interface {
	InsertPurchase(ctx context.Context, purchase domain.SellOrderPurchase) (uuid.UUID, error)

	ListPurchasesByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.SellOrderPurchase, error)

	SumPurchasedByUser(ctx context.Context, orderID, userID uuid.UUID) (int64, error)
	SumPurchased(ctx context.Context, orderID uuid.UUID) (int64, error)
}

type AssetRepository interface {
	GetAsset(ctx context.Context, assetID uuid.UUID) (domain.Asset, error)
	GetAssetForPartner(ctx context.Context, assetID, partnerID uuid.UUID) (domain.Asset, error)

	// FindAssetIDsBySlug resolves a catalog slug for listing filters. An
	// unknown slug yields an empty slice, not an error.
	FindAssetIDsBySlug(ctx context.Context, slug string) ([]uuid.UUID, error)

	InsertAsset(ctx context.Context, asset domain.Asset) (uuid.UUID, error)
}

// UserDirectory resolves buyer and owner identities in the external user
// service.
type UserDirectory interface {
	FindUserByID(ctx context.Context, userID uuid.UUID) (domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (domain.User, error)
}
