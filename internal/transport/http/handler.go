package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fractionlab/ordercore/internal/domain"
	"github.com/fractionlab/ordercore/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderManager is the slice of OrderService the handlers need.
type OrderManager interface {
	CreateOrder(ctx context.Context, in service.CreateOrderInput) (domain.SellOrder, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.SellOrder, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter, purchaserEmail, assetSlug string) ([]domain.SellOrder, error)
	DeleteOrder(ctx context.Context, orderID, partnerID uuid.UUID) error
	ListPurchases(ctx context.Context, orderID uuid.UUID) ([]domain.SellOrderPurchase, error)
}

// Purchaser is the slice of PurchaseService the handlers need.
type Purchaser interface {
	Purchase(ctx context.Context, buyerID, orderID uuid.UUID, req domain.PurchaseRequest) (domain.SellOrderPurchase, error)
}

type ordersHandler struct {
	orders    OrderManager
	purchaser Purchaser
	logger    *zap.Logger
}

func NewOrdersHandler(orders OrderManager, purchaser Purchaser, logger *zap.Logger) *ordersHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ordersHandler{
		orders:    orders,
		purchaser: purchaser,
		logger:    logger,
	}
}

type createOrderRequest struct {
	UserID             *string `json:"user_id"`
	AssetID            string  `json:"asset_id" binding:"required"`
	FractionQty        int64   `json:"fraction_qty" binding:"required"`
	FractionPriceCents int64   `json:"fraction_price_cents" binding:"required"`
	PriceCurrency      string  `json:"price_currency"`
	Type               string  `json:"type" binding:"required"`
	StartTime          string  `json:"start_time" binding:"required"`
	ExpireTime         string  `json:"expire_time" binding:"required"`

	UserFractionLimit        *int64  `json:"user_fraction_limit"`
	UserFractionLimitEndTime *string `json:"user_fraction_limit_end_time"`
}

func (h *ordersHandler) handleCreateOrder(c *gin.Context) {
	partnerID, ok := headerUUID(c, "X-Partner-ID")
	if !ok {
		return
	}

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind create order request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	in, err := req.toInput(partnerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), in)
	if err != nil {
		h.logger.Error("failed to create sell order",
			zap.Error(err),
			zap.String("partner_id", partnerID.String()),
			zap.String("asset_id", req.AssetID))
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, mapOrderResponse(order))
}

func (r createOrderRequest) toInput(partnerID uuid.UUID) (service.CreateOrderInput, error) {
	var in service.CreateOrderInput

	assetID, err := uuid.Parse(r.AssetID)
	if err != nil {
		return in, errors.New("asset_id is not a valid uuid")
	}

	var userID *uuid.UUID
	if r.UserID != nil {
		parsed, err := uuid.Parse(*r.UserID)
		if err != nil {
			return in, errors.New("user_id is not a valid uuid")
		}
		userID = &parsed
	}

	saleType, err := domain.ToSaleType(r.Type)
	if err != nil {
		return in, err
	}

	startTime, err := time.Parse(time.RFC3339, r.StartTime)
	if err != nil {
		return in, errors.New("start_time is not a valid RFC 3339 timestamp")
	}

	expireTime, err := time.Parse(time.RFC3339, r.ExpireTime)
	if err != nil {
		return in, errors.New("expire_time is not a valid RFC 3339 timestamp")
	}

	var limitEndTime *time.Time
	if r.UserFractionLimitEndTime != nil {
		parsed, err := time.Parse(time.RFC3339, *r.UserFractionLimitEndTime)
		if err != nil {
			return in, errors.New("user_fraction_limit_end_time is not a valid RFC 3339 timestamp")
		}
		limitEndTime = &parsed
	}

	return service.CreateOrderInput{
		UserID:                   userID,
		PartnerID:                partnerID,
		AssetID:                  assetID,
		FractionQty:              r.FractionQty,
		FractionPriceCents:       r.FractionPriceCents,
		PriceCurrency:            r.PriceCurrency,
		Type:                     saleType,
		StartTime:                startTime,
		ExpireTime:               expireTime,
		UserFractionLimit:        r.UserFractionLimit,
		UserFractionLimitEndTime: limitEndTime,
	}, nil
}

func (h *ordersHandler) handleGetOrder(c *gin.Context) {
	orderID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapOrderResponse(order))
}

func (h *ordersHandler) handleListOrders(c *gin.Context) {
	var filter domain.OrderFilter

	if partnerID := c.Query("partner_id"); partnerID != "" {
		id, err := uuid.Parse(partnerID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "partner_id is not a valid uuid"})
			return
		}
		filter.PartnerIDs = append(filter.PartnerIDs, id)
	}

	if assetID := c.Query("asset_id"); assetID != "" {
		id, err := uuid.Parse(assetID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "asset_id is not a valid uuid"})
			return
		}
		filter.AssetIDs = append(filter.AssetIDs, id)
	}

	if saleType := c.Query("type"); saleType != "" {
		parsed, err := domain.ToSaleType(saleType)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.Types = append(filter.Types, parsed)
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), filter, c.Query("purchaser_email"), c.Query("slug"))
	if err != nil {
		h.logger.Error("failed to list sell orders", zap.Error(err))
		h.writeError(c, err)
		return
	}

	results := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		results = append(results, mapOrderResponse(order))
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "quantity": len(results)})
}

func (h *ordersHandler) handleDeleteOrder(c *gin.Context) {
	partnerID, ok := headerUUID(c, "X-Partner-ID")
	if !ok {
		return
	}

	orderID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.orders.DeleteOrder(c.Request.Context(), orderID, partnerID); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type purchaseOrderRequest struct {
	FractionsToPurchase int64 `json:"fractions_to_purchase" binding:"required"`
	FractionPriceCents  int64 `json:"fraction_price_cents" binding:"required"`
}

func (h *ordersHandler) handlePurchaseOrder(c *gin.Context) {
	buyerID, ok := headerUUID(c, "X-User-ID")
	if !ok {
		return
	}

	orderID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req purchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind purchase request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	purchase, err := h.purchaser.Purchase(c.Request.Context(), buyerID, orderID, domain.PurchaseRequest{
		FractionsToPurchase: req.FractionsToPurchase,
		FractionPriceCents:  req.FractionPriceCents,
	})
	if err != nil {
		h.logger.Warn("purchase rejected",
			zap.Error(err),
			zap.String("order_id", orderID.String()),
			zap.String("user_id", buyerID.String()))
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, mapPurchaseResponse(purchase))
}

func (h *ordersHandler) handleListPurchases(c *gin.Context) {
	orderID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	purchases, err := h.orders.ListPurchases(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	results := make([]purchaseResponse, 0, len(purchases))
	for _, purchase := range purchases {
		results = append(results, mapPurchaseResponse(purchase))
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "quantity": len(results)})
}

// writeError maps domain sentinels to HTTP statuses: absence to 404, state
// conflicts to 409, user input to 400, broken invariants to 500.
func (h *ordersHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrAssetNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": unwrapMessage(err)})
	case errors.Is(err, domain.ErrInsufficientAvailability),
		errors.Is(err, domain.ErrPriceMismatch),
		errors.Is(err, domain.ErrSelfPurchaseForbidden),
		errors.Is(err, domain.ErrPurchaseLimitReached):
		c.JSON(http.StatusConflict, gin.H{"error": unwrapMessage(err)})
	case errors.Is(err, domain.ErrInsufficientSupplyForOrder),
		errors.Is(err, domain.ErrInvalidUserFractionLimit),
		errors.Is(err, domain.ErrInvalidUserFractionLimitEndTime),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidTimeWindow):
		c.JSON(http.StatusBadRequest, gin.H{"error": unwrapMessage(err)})
	default:
		// ErrInvalidOrderConfiguration lands here on purpose: it is a
		// server fault, never a client one.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// unwrapMessage strips the call-site prefixes so clients see the sentinel text.
func unwrapMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrOrderNotFound,
		domain.ErrAssetNotFound,
		domain.ErrUserNotFound,
		domain.ErrInsufficientAvailability,
		domain.ErrPriceMismatch,
		domain.ErrSelfPurchaseForbidden,
		domain.ErrPurchaseLimitReached,
		domain.ErrInsufficientSupplyForOrder,
		domain.ErrInvalidUserFractionLimit,
		domain.ErrInvalidUserFractionLimitEndTime,
		domain.ErrInvalidQuantity,
		domain.ErrInvalidPrice,
		domain.ErrInvalidTimeWindow,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func headerUUID(c *gin.Context, header string) (uuid.UUID, bool) {
	value := c.GetHeader(header)
	if value == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": header + " header is required"})
		return uuid.Nil, false
	}

	id, err := uuid.Parse(value)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": header + " header is not a valid uuid"})
		return uuid.Nil, false
	}

	return id, true
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " is not a valid uuid"})
		return uuid.Nil, false
	}
	return id, true
}

type orderResponse struct {
	ID                       string     `json:"id"`
	UserID                   *string    `json:"user_id,omitempty"`
	PartnerID                string     `json:"partner_id"`
	AssetID                  string     `json:"asset_id"`
	FractionQty              int64      `json:"fraction_qty"`
	FractionQtyAvailable     int64      `json:"fraction_qty_available"`
	FractionPriceCents       int64      `json:"fraction_price_cents"`
	PriceCurrency            string     `json:"price_currency"`
	Type                     string     `json:"type"`
	StartTime                time.Time  `json:"start_time"`
	ExpireTime               time.Time  `json:"expire_time"`
	UserFractionLimit        *int64     `json:"user_fraction_limit,omitempty"`
	UserFractionLimitEndTime *time.Time `json:"user_fraction_limit_end_time,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
}

func mapOrderResponse(order domain.SellOrder) orderResponse {
	var userID *string
	if order.UserID != nil {
		s := order.UserID.String()
		userID = &s
	}

	return orderResponse{
		ID:                       order.ID.String(),
		UserID:                   userID,
		PartnerID:                order.PartnerID.String(),
		AssetID:                  order.AssetID.String(),
		FractionQty:              order.FractionQty,
		FractionQtyAvailable:     order.FractionQtyAvailable,
		FractionPriceCents:       order.FractionPriceCents,
		PriceCurrency:            order.PriceCurrency.String(),
		Type:                     string(order.Type),
		StartTime:                order.StartTime,
		ExpireTime:               order.ExpireTime,
		UserFractionLimit:        order.UserFractionLimit,
		UserFractionLimitEndTime: order.UserFractionLimitEndTime,
		CreatedAt:                order.CreatedAt,
	}
}

type purchaseResponse struct {
	ID                 string    `json:"id"`
	OrderID            string    `json:"order_id"`
	UserID             string    `json:"user_id"`
	FractionQty        int64     `json:"fraction_qty"`
	FractionPriceCents int64     `json:"fraction_price_cents"`
	PriceCurrency      string    `json:"price_currency"`
	Total              string    `json:"total"`
	CreatedAt          time.Time `json:"created_at"`
}

func mapPurchaseResponse(purchase domain.SellOrderPurchase) purchaseResponse {
	return purchaseResponse{
		ID:                 purchase.ID.String(),
		OrderID:            purchase.OrderID.String(),
		UserID:             purchase.UserID.String(),
		FractionQty:        purchase.FractionQty,
		FractionPriceCents: purchase.FractionPriceCents,
		PriceCurrency:      purchase.PriceCurrency.String(),
		Total:              purchase.Total().String(),
		CreatedAt:          purchase.CreatedAt,
	}
}
