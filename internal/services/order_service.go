package services

import (
	"context"
	"time"

	"localmart/internal/caching"
	"localmart/internal/common"
	"localmart/internal/models"
	"localmart/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Idempotency keys outlive any client retry window by a wide margin.
const idempotencyTTL = 24 * time.Hour

// OrderService turns a submitted cart into a durable order plus per-store
// reservation lines, and manages each line's fulfillment status.
type OrderService interface {
	// SubmitOrder creates the order header and one line per input line,
	// atomically. Prices are re-read from the catalog; client-supplied
	// display data is never persisted. A non-empty idempotencyKey makes
	// retries safe: replays return the original order id.
	SubmitOrder(ctx context.Context, userID uuid.UUID, lines []models.OrderLineInput, idempotencyKey string) (uuid.UUID, error)
	ListReservedOrdersForStore(ctx context.Context, storeID uuid.UUID) ([]*models.Order, error)
	// GetOrderLinesForStoreOrder returns NotFound, not an empty list, when
	// no line matches both the store and the order.
	GetOrderLinesForStoreOrder(ctx context.Context, storeID, orderID uuid.UUID) ([]*models.OrderLineView, error)
	// SetLineStatus updates exactly one (order, product, store) tuple.
	// Setting the current status again is a no-op success.
	SetLineStatus(ctx context.Context, orderID, productID, storeID uuid.UUID, status string) error
}

type orderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	cacheSvc    caching.CacheService
}

func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, cacheSvc caching.CacheService) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cacheSvc:    cacheSvc,
	}
}

func (s *orderService) SubmitOrder(ctx context.Context, userID uuid.UUID, lines []models.OrderLineInput, idempotencyKey string) (uuid.UUID, error) {
	const op = "order.submit"

	if userID == uuid.Nil {
		return uuid.Nil, common.E(common.KindAuthentication, op, "missing shopper principal")
	}
	if len(lines) == 0 {
		return uuid.Nil, common.E(common.KindValidation, op, "order must contain at least one line")
	}
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return uuid.Nil, common.E(common.KindValidation, op, "every line needs a product id")
		}
		if line.StoreID == uuid.Nil {
			return uuid.Nil, common.E(common.KindValidation, op, "every line needs a store id")
		}
		if line.Quantity <= 0 {
			return uuid.Nil, common.E(common.KindValidation, op, "line quantity must be positive")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	orderID := uuid.New()

	if idempotencyKey != "" {
		key := idempotencyCacheKey(userID, idempotencyKey)
		stored, err := s.cacheSvc.SetNX(ctx, key, orderID.String(), idempotencyTTL)
		if err != nil {
			return uuid.Nil, common.WrapErr(common.KindPersistence, op, "could not reserve idempotency key", err)
		}
		if !stored {
			// Replay: hand back the order id the first submission created.
			existing, err := s.cacheSvc.GetString(ctx, key)
			if err != nil {
				return uuid.Nil, common.WrapErr(common.KindPersistence, op, "could not read idempotency key", err)
			}
			replayID, err := uuid.Parse(existing)
			if err != nil {
				return uuid.Nil, common.WrapErr(common.KindPersistence, op, "malformed idempotency record", err)
			}
			return replayID, nil
		}
	}

	// Reprice server-side: the catalog is the authority on price and on
	// which store a product belongs to.
	orderLines := make([]*models.OrderLine, 0, len(lines))
	for _, line := range lines {
		product, err := s.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			s.releaseIdempotencyKey(userID, idempotencyKey)
			if err == pgx.ErrNoRows {
				return uuid.Nil, common.E(common.KindNotFound, op, "product no longer exists")
			}
			return uuid.Nil, common.WrapErr(common.KindPersistence, op, "could not look up product", err)
		}
		if product.StoreID != line.StoreID {
			s.releaseIdempotencyKey(userID, idempotencyKey)
			return uuid.Nil, common.E(common.KindValidation, op, "line store does not match the product's store")
		}
		orderLines = append(orderLines, &models.OrderLine{
			OrderID:   orderID,
			StoreID:   product.StoreID,
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
			Status:    models.LineStatusReserved,
		})
	}

	order := &models.Order{
		ID:        orderID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	if err := s.orderRepo.CreateWithLines(ctx, order, orderLines); err != nil {
		s.releaseIdempotencyKey(userID, idempotencyKey)
		return uuid.Nil, common.WrapErr(common.KindPersistence, op, "could not persist order", err)
	}

	return orderID, nil
}

// releaseIdempotencyKey frees the key after a failed submission so the
// client's retry gets a clean attempt instead of a replay of a failure.
func (s *orderService) releaseIdempotencyKey(userID uuid.UUID, idempotencyKey string) {
	if idempotencyKey == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	_ = s.cacheSvc.Delete(ctx, idempotencyCacheKey(userID, idempotencyKey))
}

func (s *orderService) ListReservedOrdersForStore(ctx context.Context, storeID uuid.UUID) ([]*models.Order, error) {
	const op = "order.list_reserved"
	if storeID == uuid.Nil {
		return nil, common.E(common.KindAuthentication, op, "missing store principal")
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	orders, err := s.orderRepo.ListReservedByStore(ctx, storeID)
	if err != nil {
		return nil, common.WrapErr(common.KindPersistence, op, "could not list reserved orders", err)
	}
	return orders, nil
}

func (s *orderService) GetOrderLinesForStoreOrder(ctx context.Context, storeID, orderID uuid.UUID) ([]*models.OrderLineView, error) {
	const op = "order.lines_for_store"
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	lines, err := s.orderRepo.LinesForStoreOrder(ctx, storeID, orderID)
	if err != nil {
		return nil, common.WrapErr(common.KindPersistence, op, "could not load order lines", err)
	}
	if len(lines) == 0 {
		return nil, common.E(common.KindNotFound, op, "no order lines for this store and order")
	}
	return lines, nil
}

func (s *orderService) SetLineStatus(ctx context.Context, orderID, productID, storeID uuid.UUID, status string) error {
	const op = "order.set_line_status"
	if err := common.ValidateLineStatus(status); err != nil {
		return common.E(common.KindValidation, op, err.Error())
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err := s.orderRepo.UpdateLineStatus(ctx, orderID, productID, storeID, status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return common.E(common.KindNotFound, op, "no matching order line")
		}
		return common.WrapErr(common.KindPersistence, op, "could not update line status", err)
	}
	return nil
}

func idempotencyCacheKey(userID uuid.UUID, key string) string {
	return "localmart:order:idem:" + userID.String() + ":" + key
}
