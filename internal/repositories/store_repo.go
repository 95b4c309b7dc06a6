package repositories

import (
	"context"

	"localmart/internal/models"

	"github.com/google/uuid"
)

type StoreRepository interface {
	Create(ctx context.Context, store *models.Store) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	GetByEmail(ctx context.Context, email string) (*models.Store, error)
	List(ctx context.Context) ([]*models.Store, error)
}

type storeRepo struct {
	db Database
}

func NewStoreRepo(db Database) StoreRepository {
	return &storeRepo{db: db}
}

func (r *storeRepo) Create(ctx context.Context, store *models.Store) error {
	query := `
		INSERT INTO stores (id, name, address, description, email, password_hash, logo_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, store.ID, store.Name, store.Address, store.Description, store.Email, store.PasswordHash, store.LogoURL)
	return err
}

func (r *storeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store := &models.Store{}
	query := `
		SELECT id, name, address, description, email, password_hash, logo_url, created_at, updated_at
		FROM stores
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&store.ID, &store.Name, &store.Address, &store.Description, &store.Email, &store.PasswordHash, &store.LogoURL, &store.CreatedAt, &store.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (r *storeRepo) GetByEmail(ctx context.Context, email string) (*models.Store, error) {
	store := &models.Store{}
	query := `
		SELECT id, name, address, description, email, password_hash, logo_url, created_at, updated_at
		FROM stores
		WHERE email = $1
	`
	err := r.db.QueryRow(ctx, query, email).Scan(&store.ID, &store.Name, &store.Address, &store.Description, &store.Email, &store.PasswordHash, &store.LogoURL, &store.CreatedAt, &store.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (r *storeRepo) List(ctx context.Context) ([]*models.Store, error) {
	query := `
		SELECT id, name, address, description, email, password_hash, logo_url, created_at, updated_at
		FROM stores
		ORDER BY name ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stores []*models.Store
	for rows.Next() {
		store := &models.Store{}
		if err := rows.Scan(&store.ID, &store.Name, &store.Address, &store.Description, &store.Email, &store.PasswordHash, &store.LogoURL, &store.CreatedAt, &store.UpdatedAt); err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}
	return stores, rows.Err()
}
