package handlers

import (
	"net/http"

	"localmart/internal/common"
	"localmart/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CategoryHandlers serves the category tree endpoints.
type CategoryHandlers struct {
	categorySvc services.CategoryService
}

func NewCategoryHandlers(categorySvc services.CategoryService) *CategoryHandlers {
	return &CategoryHandlers{categorySvc: categorySvc}
}

// ListCategories handles GET /categories
func (h *CategoryHandlers) ListCategories(c echo.Context) error {
	categories, err := h.categorySvc.ListCategories(c.Request().Context())
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, categories)
}

// CategoryRequest is the create/update payload for a category node.
type CategoryRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id"`
}

// CreateCategory handles POST /categories
func (h *CategoryHandlers) CreateCategory(c echo.Context) error {
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return common.SendValidationError(c, "name", err.Error())
	}

	parentID, err := parseOptionalUUID(req.ParentID, "parent_id")
	if err != nil {
		return common.SendValidationError(c, "parent_id", err.Error())
	}

	category, err := h.categorySvc.CreateCategory(c.Request().Context(), req.Name, parentID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory handles PUT /categories/:id
func (h *CategoryHandlers) UpdateCategory(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "category id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return common.SendValidationError(c, "name", err.Error())
	}

	parentID, err := parseOptionalUUID(req.ParentID, "parent_id")
	if err != nil {
		return common.SendValidationError(c, "parent_id", err.Error())
	}

	if err := h.categorySvc.UpdateCategory(c.Request().Context(), id, req.Name, parentID); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Category updated"})
}

// DeleteCategory handles DELETE /categories/:id
func (h *CategoryHandlers) DeleteCategory(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "category id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.categorySvc.DeleteCategory(c.Request().Context(), id); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Category deleted"})
}

func parseOptionalUUID(raw, fieldName string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := common.ValidateUUID(raw, fieldName)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
