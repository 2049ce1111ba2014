package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fractionlab/ordercore/internal/domain"
	"github.com/fractionlab/ordercore/internal/port"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"golang.org/x/text/currency"
)

const sellOrderColumns = `id, user_id, partner_id, asset_id,
	fraction_qty, fraction_qty_available, fraction_price_cents, price_currency,
	type, start_time, expire_time,
	user_fraction_limit, user_fraction_limit_end_time,
	created_at, updated_at, deleted_at`

type orderRepository struct {
	db DBTX
}

func NewOrder(pool *pgxpool.Pool) port.OrderRepository {
	return &orderRepository{db: pool}
}

func NewOrderWithTx(tx pgx.Tx) port.OrderRepository {
	return &orderRepository{db: tx}
}

func (r *orderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.SellOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM sell_orders WHERE id = $1 AND deleted_at IS NULL`, sellOrderColumns)
	return r.getOrder(ctx, query, orderID)
}

// GetOrderForUpdate locks the order row exclusively. Concurrent purchase
// attempts against the same order serialize here; the second transaction
// blocks until the first commits or rolls back, then sees the updated row.
func (r *orderRepository) GetOrderForUpdate(ctx context.Context, orderID uuid.UUID) (domain.SellOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM sell_orders WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, sellOrderColumns)
	return r.getOrder(ctx, query, orderID)
}

func (r *orderRepository) GetOrderForPartner(ctx context.Context, orderID, partnerID uuid.UUID) (domain.SellOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM sell_orders WHERE id = $1 AND partner_id = $2 AND deleted_at IS NULL`, sellOrderColumns)
	return r.getOrder(ctx, query, orderID, partnerID)
}

func (r *orderRepository) getOrder(ctx context.Context, query string, args ...any) (domain.SellOrder, error) {
	var o domain.SellOrder

	row, err := scanSellOrderRow(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return o, fmt.Errorf("scanSellOrderRow: %w", domain.ErrOrderNotFound)
		}
		return o, fmt.Errorf("scanSellOrderRow: %w", err)
	}

	order, err := mapRowToSellOrder(row)
	if err != nil {
		return o, fmt.Errorf("mapRowToSellOrder: %w", err)
	}

	return order, nil
}

func (r *orderRepository) InsertOrder(ctx context.Context, order domain.SellOrder) (uuid.UUID, error) {
	const stmt = `
INSERT INTO sell_orders (user_id, partner_id, asset_id,
	fraction_qty, fraction_qty_available, fraction_price_cents, price_currency,
	type, start_time, expire_time,
	user_fraction_limit, user_fraction_limit_end_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id`

	var orderID uuid.UUID

	err := r.db.QueryRow(ctx, stmt,
		order.UserID,
		order.PartnerID,
		order.AssetID,
		order.FractionQty,
		order.FractionQty, // a new order has its full quantity available
		order.FractionPriceCents,
		order.PriceCurrency.String(),
		string(order.Type),
		order.StartTime,
		order.ExpireTime,
		order.UserFractionLimit,
		order.UserFractionLimitEndTime,
	).Scan(&orderID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert sell order: %w", err)
	}

	return orderID, nil
}

func (r *orderRepository) DecrementAvailability(ctx context.Context, orderID uuid.UUID, qty int64) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}

	const stmt = `
UPDATE sell_orders
SET fraction_qty_available = fraction_qty_available - $2, updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL AND fraction_qty_available >= $2`

	cmdTag, err := r.db.Exec(ctx, stmt, orderID, qty)
	if err != nil {
		return fmt.Errorf("decrement availability: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("decrement availability: %w", domain.ErrInsufficientAvailability)
	}

	return nil
}

func (r *orderRepository) SoftDeleteOrder(ctx context.Context, orderID, partnerID uuid.UUID) error {
	if orderID == uuid.Nil {
		return fmt.Errorf("orderID is empty")
	}

	const stmt = `
UPDATE sell_orders
SET deleted_at = NOW(), updated_at = NOW()
WHERE id = $1 AND partner_id = $2 AND deleted_at IS NULL`

	cmdTag, err := r.db.Exec(ctx, stmt, orderID, partnerID)
	if err != nil {
		return fmt.Errorf("soft delete sell order: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("soft delete sell order: %w", domain.ErrOrderNotFound)
	}

	return nil
}

func (r *orderRepository) SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.SellOrder, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter.Validate: %w", err)
	}

	query, args := buildSearchOrdersQuery(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search sell orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.SellOrder
	for rows.Next() {
		row, err := scanSellOrderRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanSellOrderRow: %w", err)
		}

		order, err := mapRowToSellOrder(row)
		if err != nil {
			return nil, fmt.Errorf("mapRowToSellOrder: %w", err)
		}

		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return orders, nil
}

func buildSearchOrdersQuery(filter domain.OrderFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted_at IS NULL")
	}
	if len(filter.IDs) > 0 {
		conditions = append(conditions, "id = ANY("+arg(filter.IDs)+")")
	}
	if len(filter.PartnerIDs) > 0 {
		conditions = append(conditions, "partner_id = ANY("+arg(filter.PartnerIDs)+")")
	}
	if len(filter.AssetIDs) > 0 {
		conditions = append(conditions, "asset_id = ANY("+arg(filter.AssetIDs)+")")
	}
	if len(filter.Types) > 0 {
		types := lo.Map(filter.Types, func(t domain.SaleType, _ int) string { return string(t) })
		conditions = append(conditions, "type = ANY("+arg(types)+")")
	}
	if len(filter.PurchaserIDs) > 0 {
		conditions = append(conditions,
			"id IN (SELECT order_id FROM sell_order_purchases WHERE user_id = ANY("+arg(filter.PurchaserIDs)+"))")
	}
	if filter.CreatedAt != nil {
		if filter.CreatedAt.After != nil {
			conditions = append(conditions, "created_at >= "+arg(*filter.CreatedAt.After))
		}
		if filter.CreatedAt.Before != nil {
			conditions = append(conditions, "created_at <= "+arg(*filter.CreatedAt.Before))
		}
	}

	query := fmt.Sprintf("SELECT %s FROM sell_orders", sellOrderColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, id"

	return query, args
}

// sellOrderRow mirrors the sell_orders table layout.
type sellOrderRow struct {
	ID                       uuid.UUID
	UserID                   *uuid.UUID
	PartnerID                uuid.UUID
	AssetID                  uuid.UUID
	FractionQty              int64
	FractionQtyAvailable     int64
	FractionPriceCents       int64
	PriceCurrency            string
	Type                     string
	StartTime                time.Time
	ExpireTime               time.Time
	UserFractionLimit        *int64
	UserFractionLimitEndTime *time.Time
	CreatedAt                time.Time
	UpdatedAt                time.Time
	DeletedAt                *time.Time
}

func scanSellOrderRow(row pgx.Row) (sellOrderRow, error) {
	var r sellOrderRow
	err := row.Scan(
		&r.ID, &r.UserID, &r.PartnerID, &r.AssetID,
		&r.FractionQty, &r.FractionQtyAvailable, &r.FractionPriceCents, &r.PriceCurrency,
		&r.Type, &r.StartTime, &r.ExpireTime,
		&r.UserFractionLimit, &r.UserFractionLimitEndTime,
		&r.CreatedAt, &r.UpdatedAt, &r.DeletedAt,
	)
	return r, err
}

func mapRowToSellOrder(row sellOrderRow) (domain.SellOrder, error) {
	var o domain.SellOrder

	parsedCurrency, err := currency.ParseISO(row.PriceCurrency)
	if err != nil {
		return o, fmt.Errorf("currency[%s] is not valid: %w", row.PriceCurrency, err)
	}

	saleType, err := domain.ToSaleType(row.Type)
	if err != nil {
		return o, fmt.Errorf("domain.ToSaleType[%s]: %w", row.Type, err)
	}

	return domain.SellOrder{
		ID:                       row.ID,
		UserID:                   row.UserID,
		PartnerID:                row.PartnerID,
		AssetID:                  row.AssetID,
		FractionQty:              row.FractionQty,
		FractionQtyAvailable:     row.FractionQtyAvailable,
		FractionPriceCents:       row.FractionPriceCents,
		PriceCurrency:            parsedCurrency,
		Type:                     saleType,
		StartTime:                row.StartTime,
		ExpireTime:               row.ExpireTime,
		UserFractionLimit:        row.UserFractionLimit,
		UserFractionLimitEndTime: row.UserFractionLimitEndTime,
		CreatedAt:                row.CreatedAt,
		UpdatedAt:                row.UpdatedAt,
		DeletedAt:                row.DeletedAt,
	}, nil
}
