package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"localmart/internal/common"
	"localmart/internal/models"
	"localmart/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const maxImageSize = 5 << 20 // 5 MiB

// ProductHandlers serves the public catalog reads and the store-scoped
// product management endpoints.
type ProductHandlers struct {
	catalogSvc  services.CatalogService
	categorySvc services.CategoryService
	imageSvc    services.ImageService
}

func NewProductHandlers(catalogSvc services.CatalogService, categorySvc services.CategoryService,
	imageSvc services.ImageService) *ProductHandlers {
	return &ProductHandlers{
		catalogSvc:  catalogSvc,
		categorySvc: categorySvc,
		imageSvc:    imageSvc,
	}
}

// ListStores handles GET /stores
func (h *ProductHandlers) ListStores(c echo.Context) error {
	stores, err := h.catalogSvc.ListStores(c.Request().Context())
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, stores)
}

// GetProduct handles GET /products/:id
func (h *ProductHandlers) GetProduct(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "product id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	product, err := h.catalogSvc.GetProduct(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// ListProductsByCategory handles GET /products/by-category?category_ids=a,b,c.
// A category id that has children is expanded to its leaf descendants before
// the lookup, so browsing a parent category shows everything beneath it.
func (h *ProductHandlers) ListProductsByCategory(c echo.Context) error {
	ctx := c.Request().Context()

	raw := strings.TrimSpace(c.QueryParam("category_ids"))
	if raw == "" {
		return common.SendValidationError(c, "category_ids", "category_ids is required")
	}

	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		id, err := common.ValidateUUID(part, "category id")
		if err != nil {
			return common.SendValidationError(c, "category_ids", err.Error())
		}
		leaves, err := h.categorySvc.ResolveLeafCategories(ctx, id)
		if err != nil {
			return common.SendError(c, err)
		}
		for leaf := range leaves {
			if !seen[leaf] {
				seen[leaf] = true
				ids = append(ids, leaf)
			}
		}
	}

	products, err := h.catalogSvc.ListProductsByCategory(ctx, ids)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// TopProducts handles GET /products/top/:categoryId?limit=n
func (h *ProductHandlers) TopProducts(c echo.Context) error {
	categoryID, err := common.ValidateUUID(c.Param("categoryId"), "category id")
	if err != nil {
		return common.SendValidationError(c, "categoryId", err.Error())
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return common.SendValidationError(c, "limit", "limit must be an integer")
		}
	}

	products, err := h.catalogSvc.TopProductsByCategory(c.Request().Context(), categoryID, limit)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// ListProductSizes handles GET /products/:id/sizes
func (h *ProductHandlers) ListProductSizes(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "product id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	sizes, err := h.catalogSvc.ListProductSizes(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, sizes)
}

// ListMyProducts handles GET /store/products
func (h *ProductHandlers) ListMyProducts(c echo.Context) error {
	principal, ok := common.GetPrincipal(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	products, err := h.catalogSvc.ListProductsByStore(c.Request().Context(), principal.ID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// CreateProduct handles POST /store/products
func (h *ProductHandlers) CreateProduct(c echo.Context) error {
	principal, ok := common.GetPrincipal(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req models.ProductUpdate
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	product, err := h.catalogSvc.CreateProduct(c.Request().Context(), principal.ID, &req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /store/products/:id
func (h *ProductHandlers) UpdateProduct(c echo.Context) error {
	principal, ok := common.GetPrincipal(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "product id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req models.ProductUpdate
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.catalogSvc.UpdateProduct(c.Request().Context(), id, principal.ID, &req); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Product updated"})
}

// DeleteProduct handles DELETE /store/products/:id
func (h *ProductHandlers) DeleteProduct(c echo.Context) error {
	principal, ok := common.GetPrincipal(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "product id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.catalogSvc.DeleteProduct(c.Request().Context(), id, principal.ID); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Product deleted"})
}

// SizesRequest replaces a product's size breakdown.
type SizesRequest struct {
	Sizes []models.SizeInput `json:"sizes"`
}

// UpsertProductSizes handles PUT /store/products/:id/sizes
func (h *ProductHandlers) UpsertProductSizes(c echo.Context) error {
	principal, ok := common.GetPrincipal(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "product id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req SizesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.catalogSvc.UpsertProductSizes(c.Request().Context(), id, principal.ID, req.Sizes); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Sizes updated"})
}

// UploadProductImage handles POST /store/products/:id/image. The stored
// object URL is written back onto the product record.
func (h *ProductHandlers) UploadProductImage(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := common.GetPrincipal(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "product id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	file, err := c.FormFile("image")
	if err != nil {
		return common.SendValidationError(c, "image", "image file is required")
	}
	if file.Size > maxImageSize {
		return common.SendValidationError(c, "image", "image exceeds the 5MB limit")
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return common.SendValidationError(c, "image", "only image uploads are accepted")
	}

	product, err := h.catalogSvc.GetProduct(ctx, id)
	if err != nil {
		return common.SendError(c, err)
	}
	if product.StoreID != principal.ID {
		return common.SendError(c, common.E(common.KindAuthorization, "product.upload_image", "product belongs to another store"))
	}

	src, err := file.Open()
	if err != nil {
		return common.SendError(c, common.WrapErr(common.KindValidation, "product.upload_image", "could not read upload", err))
	}
	defer src.Close()

	objectName := "products/" + id.String() + filepath.Ext(file.Filename)
	url, err := h.imageSvc.Upload(ctx, objectName, src, file.Size, contentType)
	if err != nil {
		return common.SendError(c, err)
	}

	update := &models.ProductUpdate{
		Name:        product.Name,
		CategoryID:  product.CategoryID,
		Description: product.Description,
		Price:       product.Price,
		Quantity:    product.Quantity,
		ImageURL:    &url,
	}
	if err := h.catalogSvc.UpdateProduct(ctx, id, principal.ID, update); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"image_url": url})
}
