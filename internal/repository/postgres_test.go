package repository_test

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fractionlab/ordercore/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/text/currency"
)

func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ordercore"),
		tcpostgres.WithUsername("ordercore"),
		tcpostgres.WithPassword("ordercore"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("tcpostgres.Run: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return container, "", fmt.Errorf("container.ConnectionString: %w", err)
	}

	return container, connStr, nil
}

func fakeAsset(partnerID uuid.UUID, supply int64) domain.Asset {
	name := gofakeit.ProductName()
	return domain.Asset{
		PartnerID:        partnerID,
		Name:             name,
		Slug:             strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		FractionQtyTotal: supply,
	}
}

func fakeOrder(partnerID, assetID uuid.UUID) domain.SellOrder {
	start := time.Now().UTC().Add(-time.Hour)

	return domain.SellOrder{
		PartnerID:            partnerID,
		AssetID:              assetID,
		FractionQty:          1000,
		FractionQtyAvailable: 1000,
		FractionPriceCents:   500,
		PriceCurrency:        currency.USD,
		Type:                 domain.SaleTypeStandard,
		StartTime:            start,
		ExpireTime:           start.AddDate(0, 1, 0),
	}
}

func fakeDropOrder(partnerID, assetID uuid.UUID, limit int64, limitEnd time.Time) domain.SellOrder {
	o := fakeOrder(partnerID, assetID)
	o.Type = domain.SaleTypeDrop
	o.UserFractionLimit = &limit
	o.UserFractionLimitEndTime = &limitEnd
	return o
}

func truncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `TRUNCATE sell_order_purchases, sell_orders, assets`)
	return err
}
