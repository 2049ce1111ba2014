package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fractionlab/ordercore/internal/domain"
	"github.com/fractionlab/ordercore/internal/port"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

// defaultCurrency applies when an order does not name a price currency.
var defaultCurrency = currency.USD

// OrderService manages sell order lifecycle outside of purchases: creation
// with supply and drop-limit validation, listing, partner-scoped reads and
// soft deletion.
type OrderService struct {
	orders    port.OrderRepository
	purchases port.PurchaseRepository
	assets    port.AssetRepository
	users     port.UserDirectory
	logger    *zap.Logger
}

func NewOrderService(orders port.OrderRepository, purchases port.PurchaseRepository, assets port.AssetRepository, users port.UserDirectory, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orders:    orders,
		purchases: purchases,
		assets:    assets,
		users:     users,
		logger:    logger,
	}
}

type CreateOrderInput struct {
	UserID             *uuid.UUID
	PartnerID          uuid.UUID
	AssetID            uuid.UUID
	FractionQty        int64
	FractionPriceCents int64
	PriceCurrency      string // ISO 4217, empty means USD
	Type               domain.SaleType
	StartTime          time.Time
	ExpireTime         time.Time

	UserFractionLimit        *int64
	UserFractionLimitEndTime *time.Time
}

func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (domain.SellOrder, error) {
	var o domain.SellOrder

	asset, err := s.assets.GetAssetForPartner(ctx, in.AssetID, in.PartnerID)
	if err != nil {
		return o, fmt.Errorf("assets.GetAssetForPartner: %w", err)
	}

	priceCurrency := defaultCurrency
	if in.PriceCurrency != "" {
		priceCurrency, err = currency.ParseISO(in.PriceCurrency)
		if err != nil {
			return o, fmt.Errorf("currency[%s] is not valid: %w", in.PriceCurrency, err)
		}
	}

	if in.UserID != nil && s.users != nil {
		if _, err := s.users.FindUserByID(ctx, *in.UserID); err != nil {
			return o, fmt.Errorf("users.FindUserByID: %w", err)
		}
	}

	order := domain.SellOrder{
		UserID:                   in.UserID,
		PartnerID:                in.PartnerID,
		AssetID:                  in.AssetID,
		FractionQty:              in.FractionQty,
		FractionQtyAvailable:     in.FractionQty,
		FractionPriceCents:       in.FractionPriceCents,
		PriceCurrency:            priceCurrency,
		Type:                     in.Type,
		StartTime:                in.StartTime,
		ExpireTime:               in.ExpireTime,
		UserFractionLimit:        in.UserFractionLimit,
		UserFractionLimitEndTime: in.UserFractionLimitEndTime,
	}

	if err := order.Validate(asset.FractionQtyTotal); err != nil {
		return o, err
	}

	orderID, err := s.orders.InsertOrder(ctx, order)
	if err != nil {
		return o, fmt.Errorf("orders.InsertOrder: %w", err)
	}

	created, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return o, fmt.Errorf("orders.GetOrder: %w", err)
	}

	s.logger.Info("sell order created",
		zap.String("order_id", created.ID.String()),
		zap.String("partner_id", created.PartnerID.String()),
		zap.String("asset_id", created.AssetID.String()),
		zap.Int64("fraction_qty", created.FractionQty),
		zap.String("type", string(created.Type)))

	return created, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.SellOrder, error) {
	return s.orders.GetOrder(ctx, orderID)
}

func (s *OrderService) GetOrderForPartner(ctx context.Context, orderID, partnerID uuid.UUID) (domain.SellOrder, error) {
	return s.orders.GetOrderForPartner(ctx, orderID, partnerID)
}

// ListOrders searches orders; a non-empty purchaserEmail is resolved through
// the user directory and narrows results to orders that user bought from, a
// non-empty assetSlug is resolved through the asset catalog. An unknown email
// or slug matches nothing.
func (s *OrderService) ListOrders(ctx context.Context, filter domain.OrderFilter, purchaserEmail, assetSlug string) ([]domain.SellOrder, error) {
	if purchaserEmail != "" {
		if s.users == nil {
			return nil, errors.New("purchaser email filter requires a user directory")
		}

		user, err := s.users.FindUserByEmail(ctx, purchaserEmail)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("users.FindUserByEmail: %w", err)
		}

		filter.PurchaserIDs = append(filter.PurchaserIDs, user.ID)
	}

	if assetSlug != "" {
		assetIDs, err := s.assets.FindAssetIDsBySlug(ctx, assetSlug)
		if err != nil {
			return nil, fmt.Errorf("assets.FindAssetIDsBySlug: %w", err)
		}
		if len(assetIDs) == 0 {
			return nil, nil
		}

		filter.AssetIDs = append(filter.AssetIDs, assetIDs...)
	}

	orders, err := s.orders.SearchOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("orders.SearchOrders: %w", err)
	}

	return orders, nil
}

// DeleteOrder soft-deletes a partner's order. Purchase history stays intact.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID, partnerID uuid.UUID) error {
	if err := s.orders.SoftDeleteOrder(ctx, orderID, partnerID); err != nil {
		return fmt.Errorf("orders.SoftDeleteOrder: %w", err)
	}

	s.logger.Info("sell order soft-deleted",
		zap.String("order_id", orderID.String()),
		zap.String("partner_id", partnerID.String()))

	return nil
}

// ListPurchases returns the ledger entries for an order, oldest first.
func (s *OrderService) ListPurchases(ctx context.Context, orderID uuid.UUID) ([]domain.SellOrderPurchase, error) {
	if _, err := s.orders.GetOrder(ctx, orderID); err != nil {
		return nil, fmt.Errorf("orders.GetOrder: %w", err)
	}

	purchases, err := s.purchases.ListPurchasesByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("purchases.ListPurchasesByOrder: %w", err)
	}

	return purchases, nil
}
