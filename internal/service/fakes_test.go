package service_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/fractionlab/ordercore/internal/domain"
	"github.com/fractionlab/ordercore/internal/port"
	"github.com/google/uuid"
)

// fakeStore is an in-memory stand-in for the order store and purchase
// ledger. WithTx serializes callers on a mutex, mirroring the row lock, and
// restores a snapshot when fn fails, mirroring rollback.
type fakeStore struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]domain.SellOrder
	purchases []domain.SellOrderPurchase
}

func newFakeStore(orders ...domain.SellOrder) *fakeStore {
	s := &fakeStore{orders: make(map[uuid.UUID]domain.SellOrder)}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(orders port.OrderRepository, purchases port.PurchaseRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ordersSnapshot := make(map[uuid.UUID]domain.SellOrder, len(s.orders))
	for id, o := range s.orders {
		ordersSnapshot[id] = o
	}
	purchasesSnapshot := append([]domain.SellOrderPurchase(nil), s.purchases...)

	if err := fn(&fakeOrderRepo{store: s}, &fakePurchaseRepo{store: s}); err != nil {
		s.orders = ordersSnapshot
		s.purchases = purchasesSnapshot
		return err
	}
	return nil
}

type fakeOrderRepo struct {
	store *fakeStore

	insertErr error
}

func (r *fakeOrderRepo) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.SellOrder, error) {
	order, ok := r.store.orders[orderID]
	if !ok || order.DeletedAt != nil {
		return domain.SellOrder{}, domain.ErrOrderNotFound
	}
	return order, nil
}

func (r *fakeOrderRepo) GetOrderForUpdate(ctx context.Context, orderID uuid.UUID) (domain.SellOrder, error) {
	return r.GetOrder(ctx, orderID)
}

func (r *fakeOrderRepo) GetOrderForPartner(ctx context.Context, orderID, partnerID uuid.UUID) (domain.SellOrder, error) {
	order, err := r.GetOrder(ctx, orderID)
	if err != nil {
		return domain.SellOrder{}, err
	}
	if order.PartnerID != partnerID {
		return domain.SellOrder{}, domain.ErrOrderNotFound
	}
	return order, nil
}

func (r *fakeOrderRepo) SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.SellOrder, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var result []domain.SellOrder
	for _, order := range r.store.orders {
		if order.DeletedAt != nil && !filter.IncludeDeleted {
			continue
		}
		if len(filter.PartnerIDs) > 0 && !containsUUID(filter.PartnerIDs, order.PartnerID) {
			continue
		}
		if len(filter.AssetIDs) > 0 && !containsUUID(filter.AssetIDs, order.AssetID) {
			continue
		}
		if len(filter.PurchaserIDs) > 0 && !r.purchasedBy(order.ID, filter.PurchaserIDs) {
			continue
		}
		result = append(result, order)
	}
	return result, nil
}

func (r *fakeOrderRepo) purchasedBy(orderID uuid.UUID, userIDs []uuid.UUID) bool {
	for _, p := range r.store.purchases {
		if p.OrderID == orderID && containsUUID(userIDs, p.UserID) {
			return true
		}
	}
	return false
}

func (r *fakeOrderRepo) InsertOrder(ctx context.Context, order domain.SellOrder) (uuid.UUID, error) {
	if r.insertErr != nil {
		return uuid.Nil, r.insertErr
	}
	order.ID = uuid.New()
	order.FractionQtyAvailable = order.FractionQty
	r.store.orders[order.ID] = order
	return order.ID, nil
}

func (r *fakeOrderRepo) DecrementAvailability(ctx context.Context, orderID uuid.UUID, qty int64) error {
	order, ok := r.store.orders[orderID]
	if !ok || order.DeletedAt != nil {
		return domain.ErrOrderNotFound
	}
	if order.FractionQtyAvailable < qty {
		return fmt.Errorf("decrement availability: %w", domain.ErrInsufficientAvailability)
	}
	order.FractionQtyAvailable -= qty
	r.store.orders[orderID] = order
	return nil
}

func (r *fakeOrderRepo) SoftDeleteOrder(ctx context.Context, orderID, partnerID uuid.UUID) error {
	order, ok := r.store.orders[orderID]
	if !ok || order.DeletedAt != nil || order.PartnerID != partnerID {
		return domain.ErrOrderNotFound
	}
	deletedAt := order.UpdatedAt
	order.DeletedAt = &deletedAt
	r.store.orders[orderID] = order
	return nil
}

type fakePurchaseRepo struct {
	store *fakeStore
}

func (r *fakePurchaseRepo) InsertPurchase(ctx context.Context, purchase domain.SellOrderPurchase) (uuid.UUID, error) {
	purchase.ID = uuid.New()
	r.store.purchases = append(r.store.purchases, purchase)
	return purchase.ID, nil
}

func (r *fakePurchaseRepo) ListPurchasesByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.SellOrderPurchase, error) {
	var result []domain.SellOrderPurchase
	for _, p := range r.store.purchases {
		if p.OrderID == orderID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *fakePurchaseRepo) SumPurchasedByUser(ctx context.Context, orderID, userID uuid.UUID) (int64, error) {
	var total int64
	for _, p := range r.store.purchases {
		if p.OrderID == orderID && p.UserID == userID {
			total += p.FractionQty
		}
	}
	return total, nil
}

func (r *fakePurchaseRepo) SumPurchased(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var total int64
	for _, p := range r.store.purchases {
		if p.OrderID == orderID {
			total += p.FractionQty
		}
	}
	return total, nil
}

type fakeAssetRepo struct {
	assets map[uuid.UUID]domain.Asset
}

func newFakeAssetRepo(assets ...domain.Asset) *fakeAssetRepo {
	r := &fakeAssetRepo{assets: make(map[uuid.UUID]domain.Asset)}
	for _, a := range assets {
		r.assets[a.ID] = a
	}
	return r
}

func (r *fakeAssetRepo) GetAsset(ctx context.Context, assetID uuid.UUID) (domain.Asset, error) {
	asset, ok := r.assets[assetID]
	if !ok {
		return domain.Asset{}, domain.ErrAssetNotFound
	}
	return asset, nil
}

func (r *fakeAssetRepo) GetAssetForPartner(ctx context.Context, assetID, partnerID uuid.UUID) (domain.Asset, error) {
	asset, err := r.GetAsset(ctx, assetID)
	if err != nil {
		return domain.Asset{}, err
	}
	if asset.PartnerID != partnerID {
		return domain.Asset{}, domain.ErrAssetNotFound
	}
	return asset, nil
}

func (r *fakeAssetRepo) FindAssetIDsBySlug(ctx context.Context, slug string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, a := range r.assets {
		if a.Slug == slug {
			ids = append(ids, a.ID)
		}
	}
	return ids, nil
}

func (r *fakeAssetRepo) InsertAsset(ctx context.Context, asset domain.Asset) (uuid.UUID, error) {
	asset.ID = uuid.New()
	r.assets[asset.ID] = asset
	return asset.ID, nil
}

type fakeUserDirectory struct {
	users map[string]domain.User // keyed by email
}

func newFakeUserDirectory(users ...domain.User) *fakeUserDirectory {
	d := &fakeUserDirectory{users: make(map[string]domain.User)}
	for _, u := range users {
		d.users[u.Email] = u
	}
	return d
}

func (d *fakeUserDirectory) FindUserByID(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	for _, u := range d.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (d *fakeUserDirectory) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, ok := d.users[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func containsUUID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
