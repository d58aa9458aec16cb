package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"shopcore/internal/errors"
	"shopcore/internal/model"
	"shopcore/internal/repository"
	"shopcore/internal/service"
)

// OrderHandler handles order endpoints.
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// OrderItemRequest is one requested line of a new order.
type OrderItemRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest represents a new order.
type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress model.Address      `json:"shipping_address" validate:"required"`
	BillingAddress  model.Address      `json:"billing_address"`
	ShippingCost    string             `json:"shipping_cost"`
}

// UpdateOrderStatusRequest represents a privileged status change.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Create creates a pending order for the authenticated user.
func (h *OrderHandler) Create(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}

	shippingCost := decimal.Zero
	if req.ShippingCost != "" {
		shippingCost, err = decimal.NewFromString(req.ShippingCost)
		if err != nil || shippingCost.IsNegative() {
			return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
				Error: "invalid shipping_cost",
				Code:  "INVALID_AMOUNT",
			})
		}
	}

	items := make([]service.OrderItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.OrderItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.orderService.CreateOrder(c.Request().Context(), claims.UserID, items,
		req.ShippingAddress, req.BillingAddress, shippingCost)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusCreated, order)
}

// Get returns one of the authenticated user's orders.
func (h *OrderHandler) Get(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orderService.GetOrderForUser(c.Request().Context(), id, claims.UserID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, order)
}

// ListMine returns the authenticated user's orders.
func (h *OrderHandler) ListMine(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	orders, total, err := h.orderService.ListOrders(c.Request().Context(), repository.OrderFilter{UserID: &claims.UserID})
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"orders": orders, "total": total})
}

// List returns all orders, optionally filtered by status. Store keeper and
// above.
func (h *OrderHandler) List(c echo.Context) error {
	filter := repository.OrderFilter{}
	if status := c.QueryParam("status"); status != "" {
		orderStatus := model.OrderStatus(status)
		if !orderStatus.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
				Error: "invalid status filter",
				Code:  "INVALID_ORDER_STATUS",
			})
		}
		filter.Status = &orderStatus
	}

	orders, total, err := h.orderService.ListOrders(c.Request().Context(), filter)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"orders": orders, "total": total})
}

// UpdateStatus forces an order status change. Store keeper and above.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}

	order, err := h.orderService.UpdateStatus(c.Request().Context(), id, model.OrderStatus(req.Status))
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, order)
}
