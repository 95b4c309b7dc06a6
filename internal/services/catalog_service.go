package services

import (
	"context"
	"log"
	"time"

	"localmart/internal/common"
	"localmart/internal/models"
	"localmart/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Every database call is bounded; deadline overruns surface as timeouts.
const dbTimeout = 5 * time.Second

const maxPrice = 1000000.0
const maxQuantity = 1000000

// CatalogService owns products, per-size stock and store listings. All
// reads go straight to Postgres; nothing in the catalog is cached.
type CatalogService interface {
	CreateProduct(ctx context.Context, storeID uuid.UUID, product *models.ProductUpdate) (*models.Product, error)
	UpdateProduct(ctx context.Context, productID, storeID uuid.UUID, fields *models.ProductUpdate) error
	DeleteProduct(ctx context.Context, productID, storeID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	ListProductsByStore(ctx context.Context, storeID uuid.UUID) ([]*models.Product, error)
	ListProductsByCategory(ctx context.Context, categoryIDs []uuid.UUID) ([]*models.Product, error)
	TopProductsByCategory(ctx context.Context, categoryID uuid.UUID, limit int) ([]*models.Product, error)
	UpsertProductSizes(ctx context.Context, productID, storeID uuid.UUID, sizes []models.SizeInput) error
	ListProductSizes(ctx context.Context, productID uuid.UUID) ([]*models.ProductSize, error)
	ListStores(ctx context.Context) ([]*models.Store, error)
}

type catalogService struct {
	productRepo repositories.ProductRepository
	sizeRepo    repositories.ProductSizeRepository
	categoryRepo repositories.CategoryRepository
	storeRepo   repositories.StoreRepository
}

func NewCatalogService(productRepo repositories.ProductRepository, sizeRepo repositories.ProductSizeRepository,
	categoryRepo repositories.CategoryRepository, storeRepo repositories.StoreRepository) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		sizeRepo:     sizeRepo,
		categoryRepo: categoryRepo,
		storeRepo:    storeRepo,
	}
}

func validateProductFields(op string, fields *models.ProductUpdate) *common.AppError {
	if err := common.ValidateRequiredString(fields.Name, "name"); err != nil {
		return common.E(common.KindValidation, op, err.Error())
	}
	if err := common.ValidateRequiredString(fields.Description, "description"); err != nil {
		return common.E(common.KindValidation, op, err.Error())
	}
	if fields.CategoryID == nil {
		return common.E(common.KindValidation, op, "category_id is required")
	}
	if err := common.ValidateNonNegativeFloat(fields.Price, "price", maxPrice); err != nil {
		return common.E(common.KindValidation, op, err.Error())
	}
	if fields.Quantity < 0 || fields.Quantity > maxQuantity {
		return common.E(common.KindValidation, op, "quantity must be between 0 and 1,000,000")
	}
	return nil
}

func (s *catalogService) CreateProduct(ctx context.Context, storeID uuid.UUID, fields *models.ProductUpdate) (*models.Product, error) {
	const op = "catalog.create_product"
	if err := validateProductFields(op, fields); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := s.categoryRepo.GetByID(ctx, *fields.CategoryID); err != nil {
		if err == pgx.ErrNoRows {
			return nil, common.E(common.KindNotFound, op, "category not found")
		}
		return nil, common.WrapErr(common.KindPersistence, op, "could not look up category", err)
	}

	product := &models.Product{
		ID:          uuid.New(),
		StoreID:     storeID,
		CategoryID:  fields.CategoryID,
		Name:        fields.Name,
		Description: fields.Description,
		Price:       fields.Price,
		Quantity:    fields.Quantity,
		ImageURL:    fields.ImageURL,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, common.WrapErr(common.KindPersistence, op, "could not create product", err)
	}
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, productID, storeID uuid.UUID, fields *models.ProductUpdate) error {
	const op = "catalog.update_product"
	if err := validateProductFields(op, fields); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	existing, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return common.E(common.KindNotFound, op, "product not found")
		}
		return common.WrapErr(common.KindPersistence, op, "could not look up product", err)
	}
	if existing.StoreID != storeID {
		return common.E(common.KindAuthorization, op, "product belongs to another store")
	}

	existing.Name = fields.Name
	existing.CategoryID = fields.CategoryID
	existing.Description = fields.Description
	existing.Price = fields.Price
	existing.Quantity = fields.Quantity
	existing.ImageURL = fields.ImageURL

	if err := s.productRepo.Update(ctx, existing); err != nil {
		if err == pgx.ErrNoRows {
			return common.E(common.KindNotFound, op, "product not found")
		}
		return common.WrapErr(common.KindPersistence, op, "could not update product", err)
	}
	return nil
}

// DeleteProduct is blocked while order lines reference the product; the
// product's size rows go away in the same transaction as the product.
func (s *catalogService) DeleteProduct(ctx context.Context, productID, storeID uuid.UUID) error {
	const op = "catalog.delete_product"
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	existing, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return common.E(common.KindNotFound, op, "product not found")
		}
		return common.WrapErr(common.KindPersistence, op, "could not look up product", err)
	}
	if existing.StoreID != storeID {
		return common.E(common.KindAuthorization, op, "product belongs to another store")
	}

	if err := s.productRepo.DeleteWithSizes(ctx, productID); err != nil {
		switch err {
		case repositories.ErrProductReferenced:
			return common.E(common.KindConflict, op, "product is referenced by existing orders")
		case pgx.ErrNoRows:
			return common.E(common.KindNotFound, op, "product not found")
		default:
			return common.WrapErr(common.KindPersistence, op, "could not delete product", err)
		}
	}
	return nil
}

// GetProduct serves the detail view. The view counter bump happens off the
// read path; a failed bump is logged and never surfaced.
func (s *catalogService) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	const op = "catalog.get_product"
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, common.E(common.KindNotFound, op, "product not found")
		}
		return nil, common.WrapErr(common.KindPersistence, op, "could not look up product", err)
	}

	go func(id uuid.UUID) {
		bumpCtx, bumpCancel := context.WithTimeout(context.Background(), dbTimeout)
		defer bumpCancel()
		if err := s.productRepo.IncrementViewCount(bumpCtx, id); err != nil {
			log.Printf("WARN catalog.view_count: product %s: %v", id, err)
		}
	}(productID)

	return product, nil
}

func (s *catalogService) ListProductsByStore(ctx context.Context, storeID uuid.UUID) ([]*models.Product, error) {
	const op = "catalog.list_by_store"
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	products, err := s.productRepo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, common.WrapErr(common.KindPersistence, op, "could not list products", err)
	}
	return products, nil
}

// ListProductsByCategory takes IN-list semantics: an empty id set is a
// validation error, not an empty result.
func (s *catalogService) ListProductsByCategory(ctx context.Context, categoryIDs []uuid.UUID) ([]*models.Product, error) {
	const op = "catalog.list_by_category"
	if len(categoryIDs) == 0 {
		return nil, common.E(common.KindValidation, op, "at least one category id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	products, err := s.productRepo.ListByCategoryIDs(ctx, categoryIDs)
	if err != nil {
		return nil, common.WrapErr(common.KindPersistence, op, "could not list products", err)
	}
	return products, nil
}

func (s *catalogService) TopProductsByCategory(ctx context.Context, categoryID uuid.UUID, limit int) ([]*models.Product, error) {
	const op = "catalog.top_by_category"
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	products, err := s.productRepo.TopByCategory(ctx, categoryID, limit)
	if err != nil {
		return nil, common.WrapErr(common.KindPersistence, op, "could not list top products", err)
	}
	return products, nil
}

func (s *catalogService) UpsertProductSizes(ctx context.Context, productID, storeID uuid.UUID, sizes []models.SizeInput) error {
	const op = "catalog.upsert_sizes"
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	existing, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return common.E(common.KindNotFound, op, "product not found")
		}
		return common.WrapErr(common.KindPersistence, op, "could not look up product", err)
	}
	if existing.StoreID != storeID {
		return common.E(common.KindAuthorization, op, "product belongs to another store")
	}

	if err := s.sizeRepo.UpsertAll(ctx, productID, sizes); err != nil {
		return common.WrapErr(common.KindPersistence, op, "could not save product sizes", err)
	}
	return nil
}

func (s *catalogService) ListProductSizes(ctx context.Context, productID uuid.UUID) ([]*models.ProductSize, error) {
	const op = "catalog.list_sizes"
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	sizes, err := s.sizeRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, common.WrapErr(common.KindPersistence, op, "could not list product sizes", err)
	}
	return sizes, nil
}

func (s *catalogService) ListStores(ctx context.Context) ([]*models.Store, error) {
	const op = "catalog.list_stores"
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	stores, err := s.storeRepo.List(ctx)
	if err != nil {
		return nil, common.WrapErr(common.KindPersistence, op, "could not list stores", err)
	}
	return stores, nil
}
