package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fractionlab/ordercore/internal/domain"
	"github.com/fractionlab/ordercore/internal/port"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type assetRepository struct {
	db DBTX
}

func NewAsset(pool *pgxpool.Pool) port.AssetRepository {
	return &assetRepository{db: pool}
}

func NewAssetWithTx(tx pgx.Tx) port.AssetRepository {
	return &assetRepository{db: tx}
}

func (r *assetRepository) GetAsset(ctx context.Context, assetID uuid.UUID) (domain.Asset, error) {
	const query = `SELECT id, partner_id, name, slug, fraction_qty_total, created_at FROM assets WHERE id = $1`
	return r.getAsset(ctx, query, assetID)
}

// GetAssetForPartner scopes the lookup to a partner: a partner may only back
// orders with its own assets.
func (r *assetRepository) GetAssetForPartner(ctx context.Context, assetID, partnerID uuid.UUID) (domain.Asset, error) {
	const query = `SELECT id, partner_id, name, slug, fraction_qty_total, created_at FROM assets WHERE id = $1 AND partner_id = $2`
	return r.getAsset(ctx, query, assetID, partnerID)
}

func (r *assetRepository) getAsset(ctx context.Context, query string, args ...any) (domain.Asset, error) {
	var a domain.Asset

	err := r.db.QueryRow(ctx, query, args...).Scan(&a.ID, &a.PartnerID, &a.Name, &a.Slug, &a.FractionQtyTotal, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return a, fmt.Errorf("get asset: %w", domain.ErrAssetNotFound)
		}
		return a, fmt.Errorf("get asset: %w", err)
	}

	return a, nil
}

// FindAssetIDsBySlug resolves a catalog slug to asset IDs for listing filters.
func (r *assetRepository) FindAssetIDsBySlug(ctx context.Context, slug string) ([]uuid.UUID, error) {
	const query = `SELECT id FROM assets WHERE slug = $1`

	rows, err := r.db.Query(ctx, query, slug)
	if err != nil {
		return nil, fmt.Errorf("find assets by slug: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return ids, nil
}

func (r *assetRepository) InsertAsset(ctx context.Context, asset domain.Asset) (uuid.UUID, error) {
	if asset.FractionQtyTotal <= 0 {
		return uuid.Nil, domain.ErrInvalidQuantity
	}

	const stmt = `
INSERT INTO assets (partner_id, name, slug, fraction_qty_total)
VALUES ($1, $2, $3, $4)
RETURNING id`

	var assetID uuid.UUID

	err := r.db.QueryRow(ctx, stmt, asset.PartnerID, asset.Name, asset.Slug, asset.FractionQtyTotal).Scan(&assetID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert asset: %w", err)
	}

	return assetID, nil
}
