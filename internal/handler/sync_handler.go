package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"shopcore/internal/errors"
	syncengine "shopcore/internal/sync"
)

// SyncHandler exposes admin operations on the mirror sync engine.
type SyncHandler struct {
	engine *syncengine.Engine
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(engine *syncengine.Engine) *SyncHandler {
	return &SyncHandler{engine: engine}
}

// Stats compares entity counts between the relational store and the mirror.
func (h *SyncHandler) Stats(c echo.Context) error {
	stats, err := h.engine.Stats(c.Request().Context())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, stats)
}

// ForceFullSync triggers a full resync immediately. A pass already in
// flight wins; the request then reports skipped.
func (h *SyncHandler) ForceFullSync(c echo.Context) error {
	if err := h.engine.FullSync(c.Request().Context()); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "full sync completed"})
}
