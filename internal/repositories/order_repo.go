package repositories

import (
	"context"

	"localmart/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type OrderRepository interface {
	// CreateWithLines persists the order header and every line in one
	// transaction. The header row exists before any line referencing it;
	// a failed line insert rolls back the whole submission.
	CreateWithLines(ctx context.Context, order *models.Order, lines []*models.OrderLine) error
	// ListReservedByStore returns distinct orders with at least one reserved
	// line belonging to the store, newest first.
	ListReservedByStore(ctx context.Context, storeID uuid.UUID) ([]*models.Order, error)
	// LinesForStoreOrder returns the store's lines of one order joined with
	// product and store display fields.
	LinesForStoreOrder(ctx context.Context, storeID, orderID uuid.UUID) ([]*models.OrderLineView, error)
	// UpdateLineStatus sets the status of exactly the
	// (order_id, product_id, store_id) tuple. Returns pgx.ErrNoRows when no
	// such line exists; a same-state update is a success.
	UpdateLineStatus(ctx context.Context, orderID, productID, storeID uuid.UUID, status string) error
}

type orderRepo struct {
	db Database
}

func NewOrderRepo(db Database) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) CreateWithLines(ctx context.Context, order *models.Order, lines []*models.OrderLine) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	headerSQL := `
		INSERT INTO orders (id, user_id, created_at)
		VALUES ($1, $2, NOW())
	`
	if _, err := tx.Exec(ctx, headerSQL, order.ID, order.UserID); err != nil {
		return err
	}

	lineSQL := `
		INSERT INTO order_lines (order_id, store_id, product_id, quantity, unit_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	for _, line := range lines {
		if _, err := tx.Exec(ctx, lineSQL, order.ID, line.StoreID, line.ProductID, line.Quantity, line.UnitPrice, line.Status); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *orderRepo) ListReservedByStore(ctx context.Context, storeID uuid.UUID) ([]*models.Order, error) {
	query := `
		SELECT DISTINCT o.id, o.user_id, o.created_at
		FROM orders o
		JOIN order_lines ol ON ol.order_id = o.id
		WHERE ol.store_id = $1 AND ol.status = 'reserved'
		ORDER BY o.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(&order.ID, &order.UserID, &order.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *orderRepo) LinesForStoreOrder(ctx context.Context, storeID, orderID uuid.UUID) ([]*models.OrderLineView, error) {
	query := `
		SELECT ol.order_id, ol.store_id, ol.product_id, ol.quantity, ol.unit_price, ol.status, ol.created_at, ol.updated_at,
		       p.name AS product_name, p.image_url AS product_image, s.name AS store_name
		FROM order_lines ol
		JOIN products p ON p.id = ol.product_id
		JOIN stores s ON s.id = ol.store_id
		WHERE ol.store_id = $1 AND ol.order_id = $2
		ORDER BY p.name ASC
	`
	rows, err := r.db.Query(ctx, query, storeID, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*models.OrderLineView
	for rows.Next() {
		line := &models.OrderLineView{}
		if err := rows.Scan(&line.OrderID, &line.StoreID, &line.ProductID, &line.Quantity, &line.UnitPrice,
			&line.Status, &line.CreatedAt, &line.UpdatedAt, &line.ProductName, &line.ProductImage, &line.StoreName); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *orderRepo) UpdateLineStatus(ctx context.Context, orderID, productID, storeID uuid.UUID, status string) error {
	query := `
		UPDATE order_lines
		SET status = $1, updated_at = NOW()
		WHERE order_id = $2 AND product_id = $3 AND store_id = $4
	`
	tag, err := r.db.Exec(ctx, query, status, orderID, productID, storeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
