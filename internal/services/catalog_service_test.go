package services

import (
	"context"
	"testing"

	"localmart/internal/common"
	"localmart/internal/models"
	"localmart/internal/repositories"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type CatalogServiceTestSuite struct {
	suite.Suite
	productRepo  *MockProductRepository
	sizeRepo     *MockProductSizeRepository
	categoryRepo *MockCategoryRepository
	storeRepo    *MockStoreRepository
	svc          CatalogService
	storeID      uuid.UUID
	context      context.Context
}

func (suite *CatalogServiceTestSuite) SetupTest() {
	suite.productRepo = new(MockProductRepository)
	suite.sizeRepo = new(MockProductSizeRepository)
	suite.categoryRepo = new(MockCategoryRepository)
	suite.storeRepo = new(MockStoreRepository)
	suite.svc = NewCatalogService(suite.productRepo, suite.sizeRepo, suite.categoryRepo, suite.storeRepo)
	suite.storeID = uuid.New()
	suite.context = context.Background()
}

func TestCatalogServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceTestSuite))
}

func (suite *CatalogServiceTestSuite) validFields() *models.ProductUpdate {
	categoryID := uuid.New()
	return &models.ProductUpdate{
		Name:        "Denim Jacket",
		CategoryID:  &categoryID,
		Description: "Mid-weight denim jacket",
		Price:       59.90,
		Quantity:    8,
	}
}

func (suite *CatalogServiceTestSuite) ownedProduct(productID uuid.UUID) *models.Product {
	categoryID := uuid.New()
	return &models.Product{
		ID:          productID,
		StoreID:     suite.storeID,
		CategoryID:  &categoryID,
		Name:        "Denim Jacket",
		Description: "Mid-weight denim jacket",
		Price:       59.90,
		Quantity:    8,
	}
}

func (suite *CatalogServiceTestSuite) TestCreateProduct_Success() {
	fields := suite.validFields()
	suite.categoryRepo.On("GetByID", mock.Anything, *fields.CategoryID).
		Return(&models.Category{ID: *fields.CategoryID, Name: "Jackets"}, nil)
	suite.productRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Product")).Return(nil)

	product, err := suite.svc.CreateProduct(suite.context, suite.storeID, fields)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.storeID, product.StoreID)
	assert.Equal(suite.T(), 59.90, product.Price)
}

func (suite *CatalogServiceTestSuite) TestCreateProduct_RejectsNegativePrice() {
	fields := suite.validFields()
	fields.Price = -1

	_, err := suite.svc.CreateProduct(suite.context, suite.storeID, fields)
	assert.Equal(suite.T(), common.KindValidation, common.KindOf(err))
	suite.productRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *CatalogServiceTestSuite) TestCreateProduct_RejectsMissingCategory() {
	fields := suite.validFields()
	fields.CategoryID = nil

	_, err := suite.svc.CreateProduct(suite.context, suite.storeID, fields)
	assert.Equal(suite.T(), common.KindValidation, common.KindOf(err))
}

func (suite *CatalogServiceTestSuite) TestCreateProduct_UnknownCategory() {
	fields := suite.validFields()
	suite.categoryRepo.On("GetByID", mock.Anything, *fields.CategoryID).Return(nil, pgx.ErrNoRows)

	_, err := suite.svc.CreateProduct(suite.context, suite.storeID, fields)
	assert.Equal(suite.T(), common.KindNotFound, common.KindOf(err))
}

func (suite *CatalogServiceTestSuite) TestUpdateProduct_OtherStoresProduct() {
	productID := uuid.New()
	foreign := suite.ownedProduct(productID)
	foreign.StoreID = uuid.New()
	suite.productRepo.On("GetByID", mock.Anything, productID).Return(foreign, nil)

	err := suite.svc.UpdateProduct(suite.context, productID, suite.storeID, suite.validFields())
	assert.Equal(suite.T(), common.KindAuthorization, common.KindOf(err))
	suite.productRepo.AssertNotCalled(suite.T(), "Update", mock.Anything, mock.Anything)
}

func (suite *CatalogServiceTestSuite) TestUpdateProduct_AppliesFields() {
	productID := uuid.New()
	fields := suite.validFields()
	fields.Price = 45.00
	suite.productRepo.On("GetByID", mock.Anything, productID).Return(suite.ownedProduct(productID), nil)
	suite.productRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *models.Product) bool {
		return p.ID == productID && p.Price == 45.00
	})).Return(nil)

	err := suite.svc.UpdateProduct(suite.context, productID, suite.storeID, fields)
	assert.NoError(suite.T(), err)
}

func (suite *CatalogServiceTestSuite) TestDeleteProduct_ReferencedByOrders() {
	productID := uuid.New()
	suite.productRepo.On("GetByID", mock.Anything, productID).Return(suite.ownedProduct(productID), nil)
	suite.productRepo.On("DeleteWithSizes", mock.Anything, productID).Return(repositories.ErrProductReferenced)

	err := suite.svc.DeleteProduct(suite.context, productID, suite.storeID)
	assert.Equal(suite.T(), common.KindConflict, common.KindOf(err))
}

func (suite *CatalogServiceTestSuite) TestDeleteProduct_Success() {
	productID := uuid.New()
	suite.productRepo.On("GetByID", mock.Anything, productID).Return(suite.ownedProduct(productID), nil)
	suite.productRepo.On("DeleteWithSizes", mock.Anything, productID).Return(nil)

	err := suite.svc.DeleteProduct(suite.context, productID, suite.storeID)
	assert.NoError(suite.T(), err)
}

func (suite *CatalogServiceTestSuite) TestGetProduct_NotFound() {
	productID := uuid.New()
	suite.productRepo.On("GetByID", mock.Anything, productID).Return(nil, pgx.ErrNoRows)

	_, err := suite.svc.GetProduct(suite.context, productID)
	assert.Equal(suite.T(), common.KindNotFound, common.KindOf(err))
}

func (suite *CatalogServiceTestSuite) TestGetProduct_ReadSucceedsRegardlessOfViewBump() {
	productID := uuid.New()
	suite.productRepo.On("GetByID", mock.Anything, productID).Return(suite.ownedProduct(productID), nil)
	// The bump runs off the request path and may or may not land before
	// the assertion.
	suite.productRepo.On("IncrementViewCount", mock.Anything, productID).Return(nil).Maybe()

	product, err := suite.svc.GetProduct(suite.context, productID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), productID, product.ID)
}

func (suite *CatalogServiceTestSuite) TestListProductsByCategory_RejectsEmptyIDSet() {
	_, err := suite.svc.ListProductsByCategory(suite.context, nil)
	assert.Equal(suite.T(), common.KindValidation, common.KindOf(err))
}

func (suite *CatalogServiceTestSuite) TestTopProductsByCategory_DefaultsLimit() {
	categoryID := uuid.New()
	suite.productRepo.On("TopByCategory", mock.Anything, categoryID, 10).
		Return([]*models.Product{}, nil)

	_, err := suite.svc.TopProductsByCategory(suite.context, categoryID, 0)
	assert.NoError(suite.T(), err)
	suite.productRepo.AssertExpectations(suite.T())
}

func (suite *CatalogServiceTestSuite) TestUpsertProductSizes_ChecksOwnership() {
	productID := uuid.New()
	foreign := suite.ownedProduct(productID)
	foreign.StoreID = uuid.New()
	suite.productRepo.On("GetByID", mock.Anything, productID).Return(foreign, nil)

	err := suite.svc.UpsertProductSizes(suite.context, productID, suite.storeID, []models.SizeInput{{Size: "M", Quantity: 1}})
	assert.Equal(suite.T(), common.KindAuthorization, common.KindOf(err))
	suite.sizeRepo.AssertNotCalled(suite.T(), "UpsertAll", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CatalogServiceTestSuite) TestUpsertProductSizes_Delegates() {
	productID := uuid.New()
	sizes := []models.SizeInput{{Size: "S", Quantity: 3}, {Size: "M", Quantity: 0}}
	suite.productRepo.On("GetByID", mock.Anything, productID).Return(suite.ownedProduct(productID), nil)
	suite.sizeRepo.On("UpsertAll", mock.Anything, productID, sizes).Return(nil)

	err := suite.svc.UpsertProductSizes(suite.context, productID, suite.storeID, sizes)
	assert.NoError(suite.T(), err)
}

func (suite *CatalogServiceTestSuite) TestListStores() {
	stores := []*models.Store{{ID: uuid.New(), Name: "Corner Shop"}}
	suite.storeRepo.On("List", mock.Anything).Return(stores, nil)

	got, err := suite.svc.ListStores(suite.context)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), stores, got)
}
