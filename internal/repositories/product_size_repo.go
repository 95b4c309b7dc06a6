package repositories

import (
	"context"
	"strings"

	"localmart/internal/models"

	"github.com/google/uuid"
)

type ProductSizeRepository interface {
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*models.ProductSize, error)
	// UpsertAll replaces the quantities for the submitted size rows in one
	// transaction. Rows with an empty size label or negative quantity are
	// skipped, and dead rows (empty size, quantity <= 0) are pruned
	// afterwards within the same transaction.
	UpsertAll(ctx context.Context, productID uuid.UUID, sizes []models.SizeInput) error
	// PruneDead sweeps dead size rows across all products.
	PruneDead(ctx context.Context) (int64, error)
}

type productSizeRepo struct {
	db Database
}

func NewProductSizeRepo(db Database) ProductSizeRepository {
	return &productSizeRepo{db: db}
}

func (r *productSizeRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*models.ProductSize, error) {
	query := `
		SELECT product_id, size, quantity
		FROM product_sizes
		WHERE product_id = $1
		ORDER BY size ASC
	`
	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sizes []*models.ProductSize
	for rows.Next() {
		size := &models.ProductSize{}
		if err := rows.Scan(&size.ProductID, &size.Size, &size.Quantity); err != nil {
			return nil, err
		}
		sizes = append(sizes, size)
	}
	return sizes, rows.Err()
}

func (r *productSizeRepo) UpsertAll(ctx context.Context, productID uuid.UUID, sizes []models.SizeInput) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	upsert := `
		INSERT INTO product_sizes (product_id, size, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, size) DO UPDATE SET quantity = EXCLUDED.quantity
	`
	for _, s := range sizes {
		if strings.TrimSpace(s.Size) == "" || s.Quantity < 0 {
			continue
		}
		if _, err := tx.Exec(ctx, upsert, productID, s.Size, s.Quantity); err != nil {
			return err
		}
	}

	prune := `DELETE FROM product_sizes WHERE product_id = $1 AND (size = '' OR quantity <= 0)`
	if _, err := tx.Exec(ctx, prune, productID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *productSizeRepo) PruneDead(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM product_sizes WHERE size = '' OR quantity <= 0`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
