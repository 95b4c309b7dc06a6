package repositories

import (
	"context"
	"fmt"
	"strings"

	"localmart/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	// DeleteWithSizes removes the product and its size rows in one
	// transaction. Returns ErrProductReferenced while order lines still
	// reference the product, pgx.ErrNoRows when the product is already gone.
	DeleteWithSizes(ctx context.Context, id uuid.UUID) error
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]*models.Product, error)
	ListByCategoryIDs(ctx context.Context, categoryIDs []uuid.UUID) ([]*models.Product, error)
	TopByCategory(ctx context.Context, categoryID uuid.UUID, limit int) ([]*models.Product, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
}

type productRepo struct {
	db Database
}

func NewProductRepo(db Database) ProductRepository {
	return &productRepo{db: db}
}

const productColumns = "id, store_id, category_id, name, description, price, quantity, image_url, view_count, created_at, updated_at"

func scanProduct(row pgx.Row) (*models.Product, error) {
	product := &models.Product{}
	err := row.Scan(&product.ID, &product.StoreID, &product.CategoryID, &product.Name, &product.Description,
		&product.Price, &product.Quantity, &product.ImageURL, &product.ViewCount, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func scanProducts(rows pgx.Rows) ([]*models.Product, error) {
	defer rows.Close()
	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (id, store_id, category_id, name, description, price, quantity, image_url, view_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, product.ID, product.StoreID, product.CategoryID, product.Name,
		product.Description, product.Price, product.Quantity, product.ImageURL)
	return err
}

func (r *productRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`
	return scanProduct(r.db.QueryRow(ctx, query, id))
}

func (r *productRepo) Update(ctx context.Context, product *models.Product) error {
	query := `
		UPDATE products
		SET name = $1, category_id = $2, description = $3, price = $4, quantity = $5, image_url = $6, updated_at = NOW()
		WHERE id = $7
	`
	tag, err := r.db.Exec(ctx, query, product.Name, product.CategoryID, product.Description,
		product.Price, product.Quantity, product.ImageURL, product.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *productRepo) DeleteWithSizes(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var referenced bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM order_lines WHERE product_id = $1)`, id).Scan(&referenced)
	if err != nil {
		return err
	}
	if referenced {
		return ErrProductReferenced
	}

	if _, err := tx.Exec(ctx, `DELETE FROM product_sizes WHERE product_id = $1`, id); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

func (r *productRepo) ListByStore(ctx context.Context, storeID uuid.UUID) ([]*models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE store_id = $1
		ORDER BY name ASC
	`
	rows, err := r.db.Query(ctx, query, storeID)
	if err != nil {
		return nil, err
	}
	return scanProducts(rows)
}

func (r *productRepo) ListByCategoryIDs(ctx context.Context, categoryIDs []uuid.UUID) ([]*models.Product, error) {
	placeholders := make([]string, len(categoryIDs))
	args := make([]any, len(categoryIDs))
	for i, id := range categoryIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`
		SELECT `+productColumns+`
		FROM products
		WHERE category_id IN (%s)
		ORDER BY name ASC
	`, strings.Join(placeholders, ","))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanProducts(rows)
}

func (r *productRepo) TopByCategory(ctx context.Context, categoryID uuid.UUID, limit int) ([]*models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE category_id = $1
		ORDER BY view_count DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, categoryID, limit)
	if err != nil {
		return nil, err
	}
	return scanProducts(rows)
}

func (r *productRepo) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE products SET view_count = view_count + 1 WHERE id = $1`, id)
	return err
}
