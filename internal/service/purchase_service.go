package service

import (
	"context"
	"fmt"

	"github.com/fractionlab/ordercore/internal/clock"
	"github.com/fractionlab/ordercore/internal/domain"
	"github.com/fractionlab/ordercore/internal/port"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TxRunner executes fn against transaction-scoped repositories. Everything fn
// does commits together or not at all.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(orders port.OrderRepository, purchases port.PurchaseRepository) error) error
}

// PurchaseService is the purchase coordinator: it validates and commits a
// purchase attempt against the order store and the purchase ledger as a
// single atomic unit of work.
type PurchaseService struct {
	tx     TxRunner
	clock  clock.Clock
	logger *zap.Logger
}

func NewPurchaseService(tx TxRunner, clk clock.Clock, logger *zap.Logger) *PurchaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseService{
		tx:     tx,
		clock:  clk,
		logger: logger,
	}
}

// Purchase attempts to buy fractions from a sell order on behalf of buyerID.
//
// The order row is locked for exclusive write at the start of the
// transaction, so concurrent attempts against the same order serialize and
// every precondition is evaluated against the committed state of the
// previous attempt. Attempts against different orders do not contend.
//
// Preconditions are checked in a fixed sequence, each with its own failure
// signal: existence, availability, price, ownership, sale window, and for
// drop orders the per-user cap. Not-yet-started and expired orders report
// the same signal as absent ones.
func (s *PurchaseService) Purchase(ctx context.Context, buyerID, orderID uuid.UUID, req domain.PurchaseRequest) (domain.SellOrderPurchase, error) {
	var p domain.SellOrderPurchase

	if buyerID == uuid.Nil {
		return p, domain.ErrUserNotFound
	}
	if err := req.Validate(); err != nil {
		return p, err
	}

	now := s.clock.Now()
	var result domain.SellOrderPurchase

	err := s.tx.WithTx(ctx, func(orders port.OrderRepository, purchases port.PurchaseRepository) error {
		order, err := orders.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return fmt.Errorf("orders.GetOrderForUpdate: %w", err)
		}

		if order.FractionQtyAvailable < req.FractionsToPurchase {
			return domain.ErrInsufficientAvailability
		}

		if order.FractionPriceCents != req.FractionPriceCents {
			return domain.ErrPriceMismatch
		}

		if order.OwnedBy(buyerID) {
			return domain.ErrSelfPurchaseForbidden
		}

		if !order.ActiveAt(now) {
			s.logger.Debug("purchase attempt outside sale window",
				zap.String("order_id", orderID.String()),
				zap.Time("start_time", order.StartTime),
				zap.Time("expire_time", order.ExpireTime),
				zap.Time("now", now))
			return domain.ErrOrderNotFound
		}

		if order.Type == domain.SaleTypeDrop {
			if order.UserFractionLimit == nil || order.UserFractionLimitEndTime == nil {
				s.logger.Error("drop order persisted without limit fields",
					zap.String("order_id", orderID.String()))
				return domain.ErrInvalidOrderConfiguration
			}

			if order.LimitAppliesAt(now) {
				alreadyPurchased, err := purchases.SumPurchasedByUser(ctx, orderID, buyerID)
				if err != nil {
					return fmt.Errorf("purchases.SumPurchasedByUser: %w", err)
				}

				if alreadyPurchased+req.FractionsToPurchase > *order.UserFractionLimit {
					return domain.ErrPurchaseLimitReached
				}
			}
		}

		if err := orders.DecrementAvailability(ctx, orderID, req.FractionsToPurchase); err != nil {
			return fmt.Errorf("orders.DecrementAvailability: %w", err)
		}

		purchase := domain.SellOrderPurchase{
			OrderID:            orderID,
			UserID:             buyerID,
			FractionQty:        req.FractionsToPurchase,
			FractionPriceCents: order.FractionPriceCents,
			PriceCurrency:      order.PriceCurrency,
			CreatedAt:          now,
		}

		purchaseID, err := purchases.InsertPurchase(ctx, purchase)
		if err != nil {
			return fmt.Errorf("purchases.InsertPurchase: %w", err)
		}

		purchase.ID = purchaseID
		result = purchase
		return nil
	})
	if err != nil {
		return p, err
	}

	s.logger.Info("purchase committed",
		zap.String("purchase_id", result.ID.String()),
		zap.String("order_id", orderID.String()),
		zap.String("user_id", buyerID.String()),
		zap.Int64("fraction_qty", result.FractionQty),
		zap.Int64("fraction_price_cents", result.FractionPriceCents))

	return result, nil
}
