package handlers

import (
	"net/http"

	"localmart/internal/common"
	"localmart/internal/models"
	"localmart/internal/services"

	"github.com/labstack/echo/v4"
)

// OrderHandlers serves order submission for shoppers and the pickup
// workflow for stores.
type OrderHandlers struct {
	orderSvc services.OrderService
}

func NewOrderHandlers(orderSvc services.OrderService) *OrderHandlers {
	return &OrderHandlers{orderSvc: orderSvc}
}

// SubmitOrderRequest is the checkout payload. Prices are never accepted
// from the client; every line is repriced from the catalog on the server.
type SubmitOrderRequest struct {
	Lines []models.OrderLineInput `json:"lines"`
}

// SubmitOrder handles POST /orders
func (h *OrderHandlers) SubmitOrder(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := common.GetPrincipal(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req SubmitOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	idempotencyKey := c.Request().Header.Get("Idempotency-Key")

	orderID, err := h.orderSvc.SubmitOrder(ctx, principal.ID, req.Lines, idempotencyKey)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"order_id": orderID.String()})
}

// ListReservedOrders handles GET /store/orders
func (h *OrderHandlers) ListReservedOrders(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := common.GetPrincipal(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	orders, err := h.orderSvc.ListReservedOrdersForStore(ctx, principal.ID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// GetOrderLines handles GET /store/orders/:orderId/lines
func (h *OrderHandlers) GetOrderLines(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := common.GetPrincipal(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	orderID, err := common.ValidateUUID(c.Param("orderId"), "order id")
	if err != nil {
		return common.SendValidationError(c, "orderId", err.Error())
	}

	lines, err := h.orderSvc.GetOrderLinesForStoreOrder(ctx, principal.ID, orderID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, lines)
}

// LineStatusRequest sets a line's fulfillment status.
type LineStatusRequest struct {
	Status string `json:"status"`
}

// UpdateLineStatus handles PUT /store/orders/:orderId/lines/:productId/status
func (h *OrderHandlers) UpdateLineStatus(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := common.GetPrincipal(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	orderID, err := common.ValidateUUID(c.Param("orderId"), "order id")
	if err != nil {
		return common.SendValidationError(c, "orderId", err.Error())
	}
	productID, err := common.ValidateUUID(c.Param("productId"), "product id")
	if err != nil {
		return common.SendValidationError(c, "productId", err.Error())
	}

	var req LineStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.orderSvc.SetLineStatus(ctx, orderID, productID, principal.ID, req.Status); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Line status updated"})
}
