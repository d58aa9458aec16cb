package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"shopcore/internal/errors"
	"shopcore/internal/model"
	"shopcore/internal/service"
)

// CatalogHandler handles product and category endpoints.
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ProductRequest represents a product create or update payload. Prices are
// decimal strings, tax inclusive.
type ProductRequest struct {
	Name          string        `json:"name" validate:"required"`
	Description   string        `json:"description"`
	Price         string        `json:"price" validate:"required"`
	SalePrice     string        `json:"sale_price"`
	IsOnSale      bool          `json:"is_on_sale"`
	StockQuantity int           `json:"stock_quantity" validate:"gte=0"`
	Images        []model.Image `json:"images"`
	Status        string        `json:"status"`
	IsActive      *bool         `json:"is_active"`
	CategoryID    *uint         `json:"category_id"`
}

// CategoryRequest represents a category create or update payload.
type CategoryRequest struct {
	Name     string `json:"name" validate:"required"`
	Slug     string `json:"slug" validate:"required"`
	IsActive *bool  `json:"is_active"`
}

func (r *ProductRequest) toModel() (*model.Product, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid price",
			Code:  "INVALID_AMOUNT",
		})
	}

	product := &model.Product{
		Name:          r.Name,
		Description:   r.Description,
		Price:         price,
		IsOnSale:      r.IsOnSale,
		StockQuantity: r.StockQuantity,
		Images:        r.Images,
		Status:        model.ProductStatusDraft,
		IsActive:      true,
		CategoryID:    r.CategoryID,
	}
	if r.SalePrice != "" {
		sale, err := decimal.NewFromString(r.SalePrice)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
				Error: "invalid sale_price",
				Code:  "INVALID_AMOUNT",
			})
		}
		product.SalePrice = &sale
	}
	if r.Status != "" {
		product.Status = model.ProductStatus(r.Status)
	}
	if r.IsActive != nil {
		product.IsActive = *r.IsActive
	}
	return product, nil
}

// ListProducts returns the full catalog from the relational store.
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	products, err := h.catalogService.ListProducts(c.Request().Context())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"products": products})
}

// GetProduct returns one product, served through the cache.
func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.catalogService.GetProduct(c.Request().Context(), id)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct creates a product. Store keeper and above.
func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	var req ProductRequest
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

	product, err := req.toModel()
	if err != nil {
		return err
	}
	if err := h.catalogService.CreateProduct(c.Request().Context(), product); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct replaces a product's fields.
func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ProductRequest
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

	product, err := req.toModel()
	if err != nil {
		return err
	}
	product.ID = id
	if err := h.catalogService.UpdateProduct(c.Request().Context(), product); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct removes a product from both stores.
func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalogService.DeleteProduct(c.Request().Context(), id); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "product deleted"})
}

// ListCategories returns all categories.
func (h *CatalogHandler) ListCategories(c echo.Context) error {
	categories, err := h.catalogService.ListCategories(c.Request().Context())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"categories": categories})
}

// CreateCategory creates a category.
func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	var req CategoryRequest
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

	category := &model.Category{Name: req.Name, Slug: req.Slug, IsActive: true}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := h.catalogService.CreateCategory(c.Request().Context(), category); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory updates a category and propagates the change to mirrored
// products.
func (h *CatalogHandler) UpdateCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req CategoryRequest
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

	category := &model.Category{ID: id, Name: req.Name, Slug: req.Slug, IsActive: true}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := h.catalogService.UpdateCategory(c.Request().Context(), category); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory removes a category.
func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalogService.DeleteCategory(c.Request().Context(), id); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "category deleted"})
}
