package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fractionlab/ordercore/internal/domain"
	"github.com/fractionlab/ordercore/internal/port"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/currency"
)

type purchaseRepository struct {
	db DBTX
}

func NewPurchase(pool *pgxpool.Pool) port.PurchaseRepository {
	return &purchaseRepository{db: pool}
}

func NewPurchaseWithTx(tx pgx.Tx) port.PurchaseRepository {
	return &purchaseRepository{db: tx}
}

// InsertPurchase persists a ledger entry. A zero CreatedAt falls back to the
// database clock; the coordinator always passes its own timestamp so the row
// it returns matches what was stored.
func (r *purchaseRepository) InsertPurchase(ctx context.Context, purchase domain.SellOrderPurchase) (uuid.UUID, error) {
	const stmt = `
INSERT INTO sell_order_purchases (order_id, user_id, fraction_qty, fraction_price_cents, price_currency, created_at)
VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
RETURNING id`

	var createdAt *time.Time
	if !purchase.CreatedAt.IsZero() {
		createdAt = &purchase.CreatedAt
	}

	var purchaseID uuid.UUID

	err := r.db.QueryRow(ctx, stmt,
		purchase.OrderID,
		purchase.UserID,
		purchase.FractionQty,
		purchase.FractionPriceCents,
		purchase.PriceCurrency.String(),
		createdAt,
	).Scan(&purchaseID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert purchase: %w", err)
	}

	return purchaseID, nil
}

// SumPurchasedByUser totals the fractions a user has already bought from an
// order. The drop-limit check calls it inside the coordinator's transaction
// so the sum is consistent with the locked order row.
func (r *purchaseRepository) SumPurchasedByUser(ctx context.Context, orderID, userID uuid.UUID) (int64, error) {
	const query = `
SELECT COALESCE(SUM(fraction_qty), 0)
FROM sell_order_purchases
WHERE order_id = $1 AND user_id = $2`

	var total int64
	if err := r.db.QueryRow(ctx, query, orderID, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum purchased by user: %w", err)
	}
	return total, nil
}

func (r *purchaseRepository) SumPurchased(ctx context.Context, orderID uuid.UUID) (int64, error) {
	const query = `
SELECT COALESCE(SUM(fraction_qty), 0)
FROM sell_order_purchases
WHERE order_id = $1`

	var total int64
	if err := r.db.QueryRow(ctx, query, orderID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum purchased: %w", err)
	}
	return total, nil
}

func (r *purchaseRepository) ListPurchasesByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.SellOrderPurchase, error) {
	const query = `
SELECT id, order_id, user_id, fraction_qty, fraction_price_cents, price_currency, created_at
FROM sell_order_purchases
WHERE order_id = $1
ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []domain.SellOrderPurchase
	for rows.Next() {
		row, err := scanPurchaseRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanPurchaseRow: %w", err)
		}

		purchase, err := mapRowToPurchase(row)
		if err != nil {
			return nil, fmt.Errorf("mapRowToPurchase: %w", err)
		}

		purchases = append(purchases, purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return purchases, nil
}

type purchaseRow struct {
	ID                 uuid.UUID
	OrderID            uuid.UUID
	UserID             uuid.UUID
	FractionQty        int64
	FractionPriceCents int64
	PriceCurrency      string
	CreatedAt          time.Time
}

func scanPurchaseRow(row pgx.Row) (purchaseRow, error) {
	var r purchaseRow
	err := row.Scan(&r.ID, &r.OrderID, &r.UserID, &r.FractionQty, &r.FractionPriceCents, &r.PriceCurrency, &r.CreatedAt)
	return r, err
}

func mapRowToPurchase(row purchaseRow) (domain.SellOrderPurchase, error) {
	parsedCurrency, err := currency.ParseISO(row.PriceCurrency)
	if err != nil {
		return domain.SellOrderPurchase{}, fmt.Errorf("currency[%s] is not valid: %w", row.PriceCurrency, err)
	}

	return domain.SellOrderPurchase{
		ID:                 row.ID,
		OrderID:            row.OrderID,
		UserID:             row.UserID,
		FractionQty:        row.FractionQty,
		FractionPriceCents: row.FractionPriceCents,
		PriceCurrency:      parsedCurrency,
		CreatedAt:          row.CreatedAt,
	}, nil
}
