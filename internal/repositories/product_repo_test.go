package repositories

import (
	"context"
	"testing"
	"time"

	"localmart/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type ProductRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    ProductRepository
	storeID uuid.UUID
	context context.Context
}

func (suite *ProductRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewProductRepo(mock)
	suite.storeID = uuid.New()
	suite.context = context.Background()
}

func (suite *ProductRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestProductRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ProductRepoTestSuite))
}

func (suite *ProductRepoTestSuite) productRows(products ...*models.Product) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{
		"id", "store_id", "category_id", "name", "description", "price",
		"quantity", "image_url", "view_count", "created_at", "updated_at",
	})
	for _, p := range products {
		rows.AddRow(p.ID, p.StoreID, p.CategoryID, p.Name, p.Description, p.Price,
			p.Quantity, p.ImageURL, p.ViewCount, p.CreatedAt, p.UpdatedAt)
	}
	return rows
}

func (suite *ProductRepoTestSuite) sampleProduct() *models.Product {
	categoryID := uuid.New()
	return &models.Product{
		ID:          uuid.New(),
		StoreID:     suite.storeID,
		CategoryID:  &categoryID,
		Name:        "Canvas Tote",
		Description: "Heavy cotton tote bag",
		Price:       24.00,
		Quantity:    15,
		ViewCount:   42,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

func (suite *ProductRepoTestSuite) TestCreate_Success() {
	product := suite.sampleProduct()

	suite.mock.ExpectExec("INSERT INTO products").
		WithArgs(product.ID, product.StoreID, product.CategoryID, product.Name,
			product.Description, product.Price, product.Quantity, product.ImageURL).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, product)
	assert.NoError(suite.T(), err)
}

func (suite *ProductRepoTestSuite) TestGetByID_NotFound() {
	id := uuid.New()

	suite.mock.ExpectQuery("FROM products").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	product, err := suite.repo.GetByID(suite.context, id)
	assert.Nil(suite.T(), product)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
}

func (suite *ProductRepoTestSuite) TestUpdate_MissingProduct() {
	product := suite.sampleProduct()

	suite.mock.ExpectExec("UPDATE products").
		WithArgs(product.Name, product.CategoryID, product.Description,
			product.Price, product.Quantity, product.ImageURL, product.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.Update(suite.context, product)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
}

func (suite *ProductRepoTestSuite) TestDeleteWithSizes_RemovesSizeRowsInSameTransaction() {
	id := uuid.New()

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery("SELECT EXISTS").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	suite.mock.ExpectExec("DELETE FROM product_sizes").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	suite.mock.ExpectExec("DELETE FROM products").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	suite.mock.ExpectCommit()

	err := suite.repo.DeleteWithSizes(suite.context, id)
	assert.NoError(suite.T(), err)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *ProductRepoTestSuite) TestDeleteWithSizes_BlockedWhileOrderLinesReference() {
	id := uuid.New()

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery("SELECT EXISTS").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	suite.mock.ExpectRollback()

	err := suite.repo.DeleteWithSizes(suite.context, id)
	assert.ErrorIs(suite.T(), err, ErrProductReferenced)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *ProductRepoTestSuite) TestDeleteWithSizes_AlreadyGone() {
	id := uuid.New()

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery("SELECT EXISTS").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	suite.mock.ExpectExec("DELETE FROM product_sizes").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	suite.mock.ExpectExec("DELETE FROM products").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	suite.mock.ExpectRollback()

	err := suite.repo.DeleteWithSizes(suite.context, id)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
}

func (suite *ProductRepoTestSuite) TestListByCategoryIDs_BuildsPlaceholderList() {
	first := suite.sampleProduct()
	second := suite.sampleProduct()
	ids := []uuid.UUID{*first.CategoryID, *second.CategoryID}

	suite.mock.ExpectQuery("WHERE category_id IN").
		WithArgs(ids[0], ids[1]).
		WillReturnRows(suite.productRows(first, second))

	products, err := suite.repo.ListByCategoryIDs(suite.context, ids)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), products, 2)
}

func (suite *ProductRepoTestSuite) TestTopByCategory_OrdersByViewCount() {
	categoryID := uuid.New()
	popular := suite.sampleProduct()
	popular.ViewCount = 900
	niche := suite.sampleProduct()
	niche.ViewCount = 3

	suite.mock.ExpectQuery("ORDER BY view_count DESC").
		WithArgs(categoryID, 10).
		WillReturnRows(suite.productRows(popular, niche))

	products, err := suite.repo.TopByCategory(suite.context, categoryID, 10)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), products, 2)
	assert.Equal(suite.T(), popular.ID, products[0].ID)
}

func (suite *ProductRepoTestSuite) TestIncrementViewCount() {
	id := uuid.New()

	suite.mock.ExpectExec("view_count = view_count").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.IncrementViewCount(suite.context, id)
	assert.NoError(suite.T(), err)
}
