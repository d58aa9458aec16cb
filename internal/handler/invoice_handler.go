package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"shopcore/internal/errors"
	"shopcore/internal/service"
)

// InvoiceHandler handles invoice endpoints.
type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Get returns an invoice the requester may read.
func (h *InvoiceHandler) Get(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	invoice, err := h.invoiceService.Get(c.Request().Context(), id, claims.UserID, claims.Role)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, invoice)
}

// GetByOrder returns the invoice of an order.
func (h *InvoiceHandler) GetByOrder(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	invoice, err := h.invoiceService.GetByOrder(c.Request().Context(), orderID, claims.UserID, claims.Role)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, invoice)
}

// ListMine returns the authenticated user's invoices.
func (h *InvoiceHandler) ListMine(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	invoices, err := h.invoiceService.ListMine(c.Request().Context(), claims.UserID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"invoices": invoices})
}

// DownloadPDF streams the rendered invoice document.
func (h *InvoiceHandler) DownloadPDF(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	invoice, err := h.invoiceService.Get(c.Request().Context(), id, claims.UserID, claims.Role)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	if invoice.PDFPath == "" {
		return echo.NewHTTPError(http.StatusNotFound, errors.ErrorResponse{
			Error: "invoice document not generated",
			Code:  "PDF_NOT_FOUND",
		})
	}
	return c.Attachment(invoice.PDFPath, "facture.pdf")
}
