package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"shopcore/internal/errors"
	"shopcore/internal/model"
	"shopcore/internal/service"
)

// UserHandler handles profile and account endpoints.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UpdateProfileRequest represents a profile update.
type UpdateProfileRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone"`
}

// SetRoleRequest represents an admin role assignment.
type SetRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// Me returns the authenticated user's profile.
func (h *UserHandler) Me(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	user, err := h.userService.GetProfile(c.Request().Context(), claims.UserID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateMe updates the authenticated user's profile.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req UpdateProfileRequest
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

	user, err := h.userService.UpdateProfile(c.Request().Context(), claims.UserID, req.FirstName, req.LastName, req.Phone)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, user)
}

// EraseMe hard-deletes the authenticated user's account and order history.
func (h *UserHandler) EraseMe(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	if err := h.userService.EraseAccount(c.Request().Context(), claims.UserID); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "account erased"})
}

// SetRole assigns a role to a user. Admin only, enforced by the router.
func (h *UserHandler) SetRole(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req SetRoleRequest
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

	role := model.Role(req.Role)
	if !role.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "unknown role",
			Code:  "INVALID_ROLE",
		})
	}

	user, err := h.userService.SetUserRole(c.Request().Context(), userID, role)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, user)
}
