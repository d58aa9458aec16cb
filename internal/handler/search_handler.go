package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"shopcore/internal/errors"
	"shopcore/internal/search"
)

// SearchHandler serves read-only queries against the document mirror.
type SearchHandler struct {
	store search.Store
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(store search.Store) *SearchHandler {
	return &SearchHandler{store: store}
}

// Products runs a weighted text search over the mirrored catalog.
func (h *SearchHandler) Products(c echo.Context) error {
	query := search.ProductQuery{
		Text:   c.QueryParam("q"),
		Limit:  parseLimit(c.QueryParam("limit"), 20),
		Offset: parseOffset(c.QueryParam("offset")),
	}

	if raw := c.QueryParam("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
				Error: "invalid category_id",
				Code:  "INVALID_REQUEST",
			})
		}
		categoryID := uint(id)
		query.CategoryID = &categoryID
	}
	if raw := c.QueryParam("on_sale"); raw != "" {
		onSale := raw == "true"
		query.OnSale = &onSale
	}
	query.InStock = c.QueryParam("in_stock") == "true"

	docs, err := h.store.SearchProducts(c.Request().Context(), query)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"products": docs, "count": len(docs)})
}

// Users runs a weighted text search over mirrored users. Store keeper and
// above.
func (h *SearchHandler) Users(c echo.Context) error {
	query := search.UserQuery{
		Text:   c.QueryParam("q"),
		Role:   c.QueryParam("role"),
		Limit:  parseLimit(c.QueryParam("limit"), 20),
		Offset: parseOffset(c.QueryParam("offset")),
	}
	if raw := c.QueryParam("active"); raw != "" {
		active := raw == "true"
		query.Active = &active
	}

	docs, err := h.store.SearchUsers(c.Request().Context(), query)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"users": docs, "count": len(docs)})
}

func parseLimit(raw string, fallback int64) int64 {
	if raw == "" {
		return fallback
	}
	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit <= 0 || limit > 100 {
		return fallback
	}
	return limit
}

func parseOffset(raw string) int64 {
	if raw == "" {
		return 0
	}
	offset, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}
