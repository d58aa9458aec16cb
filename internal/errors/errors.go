package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrProductNotFound is returned when a product is not found.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound is returned when an order is not found.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvoiceNotFound is returned when an invoice is not found.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrCategoryNotFound is returned when a category is not found.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrInvalidOrderStatus is returned when a status outside the order lifecycle is requested.
	ErrInvalidOrderStatus = errors.New("invalid order status")
	// ErrEmptyOrder is returned when an order is created without items.
	ErrEmptyOrder = errors.New("order has no items")
	// ErrPaymentNotSucceeded is returned when the payment provider reports a non-success state.
	ErrPaymentNotSucceeded = errors.New("payment not succeeded")
	// ErrInvalidWebhookSignature is returned when the provider signature check fails.
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")
	// ErrForbidden is returned on role or ownership mismatch.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials is returned when email/password authentication fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailExists is returned when registering an already-registered email.
	ErrEmailExists = errors.New("email already registered")
	// ErrInvalidToken is returned for unknown, malformed or revoked tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when a verification or reset token is past its window.
	ErrTokenExpired = errors.New("token expired")
	// ErrAccountDisabled is returned when a deactivated account authenticates.
	ErrAccountDisabled = errors.New("account disabled")
)

// InsufficientStockError names the offending product and quantities so the
// client can surface an itemized message.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: %d available, %d requested",
		e.ProductName, e.Available, e.Requested)
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return NewHTTPError(http.StatusBadRequest, stockErr.Error(), "INSUFFICIENT_STOCK")
	}

	switch {
	case errors.Is(err, ErrProductNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "PRODUCT_NOT_FOUND")
	case errors.Is(err, ErrOrderNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "ORDER_NOT_FOUND")
	case errors.Is(err, ErrInvoiceNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "INVOICE_NOT_FOUND")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrCategoryNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "CATEGORY_NOT_FOUND")
	case errors.Is(err, ErrInvalidOrderStatus):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_ORDER_STATUS")
	case errors.Is(err, ErrEmptyOrder):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "EMPTY_ORDER")
	case errors.Is(err, ErrPaymentNotSucceeded):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "PAYMENT_NOT_SUCCEEDED")
	case errors.Is(err, ErrInvalidWebhookSignature):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_SIGNATURE")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrEmailExists):
		return NewHTTPError(http.StatusConflict, err.Error(), "EMAIL_EXISTS")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_TOKEN")
	case errors.Is(err, ErrTokenExpired):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "TOKEN_EXPIRED")
	case errors.Is(err, ErrAccountDisabled):
		return NewHTTPError(http.StatusForbidden, err.Error(), "ACCOUNT_DISABLED")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
