package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"shopcore/internal/errors"
	"shopcore/internal/service"
)

// PaymentHandler handles payment and webhook endpoints.
type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreateIntentRequest names the order to pay.
type CreateIntentRequest struct {
	OrderID uint `json:"order_id" validate:"required"`
}

// CreateCheckoutRequest names the order and the redirect targets.
type CreateCheckoutRequest struct {
	OrderID    uint   `json:"order_id" validate:"required"`
	SuccessURL string `json:"success_url" validate:"required,url"`
	CancelURL  string `json:"cancel_url" validate:"required,url"`
}

// ConfirmPaymentRequest carries the client-side intent reference back.
type ConfirmPaymentRequest struct {
	OrderID  uint   `json:"order_id" validate:"required"`
	IntentID string `json:"intent_id" validate:"required"`
}

// CreateIntent creates a payment intent for one of the user's pending orders.
func (h *PaymentHandler) CreateIntent(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req CreateIntentRequest
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

	intent, err := h.paymentService.CreateIntent(c.Request().Context(), req.OrderID, claims.UserID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"intent_id":     intent.ID,
		"client_secret": intent.ClientSecret,
		"status":        intent.Status,
	})
}

// CreateCheckout creates a hosted checkout session.
func (h *PaymentHandler) CreateCheckout(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req CreateCheckoutRequest
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

	session, err := h.paymentService.CreateCheckoutSession(c.Request().Context(),
		req.OrderID, claims.UserID, req.SuccessURL, req.CancelURL)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"session_id":   session.ID,
		"checkout_url": session.URL,
	})
}

// Confirm is the client-driven confirmation path after an intent succeeds.
func (h *PaymentHandler) Confirm(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req ConfirmPaymentRequest
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

	invoice, err := h.paymentService.ConfirmPayment(c.Request().Context(), req.OrderID, claims.UserID, req.IntentID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, invoice)
}

// Webhook receives provider callbacks. The raw body is passed through
// untouched so the signature check sees exactly what the provider signed.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "unreadable body",
			Code:  "INVALID_REQUEST",
		})
	}

	signature := c.Request().Header.Get("Stripe-Signature")
	if err := h.paymentService.HandleWebhook(c.Request().Context(), payload, signature); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"received": true})
}
