package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"shopcore/internal/auth"
	"shopcore/internal/config"
	"shopcore/internal/handler"
	"shopcore/internal/model"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	catalogHandler *handler.CatalogHandler,
	orderHandler *handler.OrderHandler,
	paymentHandler *handler.PaymentHandler,
	invoiceHandler *handler.InvoiceHandler,
	searchHandler *handler.SearchHandler,
	syncHandler *handler.SyncHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/verify-email", authHandler.VerifyEmail)
	api.POST("/auth/forgot-password", authHandler.ForgotPassword)
	api.POST("/auth/reset-password", authHandler.ResetPassword)

	api.GET("/products", catalogHandler.ListProducts)
	api.GET("/products/:id", catalogHandler.GetProduct)
	api.GET("/categories", catalogHandler.ListCategories)
	api.GET("/search/products", searchHandler.Products)

	// The webhook authenticates by signature, not by JWT.
	api.POST("/webhooks/stripe", paymentHandler.Webhook)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
	}))

	secured.GET("/me", userHandler.Me)
	secured.PUT("/me", userHandler.UpdateMe)
	secured.DELETE("/me", userHandler.EraseMe)

	secured.POST("/orders", orderHandler.Create)
	secured.GET("/orders", orderHandler.ListMine)
	secured.GET("/orders/:id", orderHandler.Get)
	secured.GET("/orders/:id/invoice", invoiceHandler.GetByOrder)

	secured.POST("/payments/intent", paymentHandler.CreateIntent)
	secured.POST("/payments/checkout", paymentHandler.CreateCheckout)
	secured.POST("/payments/confirm", paymentHandler.Confirm)

	secured.GET("/invoices", invoiceHandler.ListMine)
	secured.GET("/invoices/:id", invoiceHandler.Get)
	secured.GET("/invoices/:id/pdf", invoiceHandler.DownloadPDF)

	// Store keeper routes
	keeper := secured.Group("", RequireRole(model.RoleStoreKeeper))
	keeper.POST("/products", catalogHandler.CreateProduct)
	keeper.PUT("/products/:id", catalogHandler.UpdateProduct)
	keeper.DELETE("/products/:id", catalogHandler.DeleteProduct)
	keeper.POST("/categories", catalogHandler.CreateCategory)
	keeper.PUT("/categories/:id", catalogHandler.UpdateCategory)
	keeper.DELETE("/categories/:id", catalogHandler.DeleteCategory)
	keeper.GET("/admin/orders", orderHandler.List)
	keeper.PATCH("/admin/orders/:id/status", orderHandler.UpdateStatus)
	keeper.GET("/search/users", searchHandler.Users)

	// Admin routes
	admin := secured.Group("", RequireRole(model.RoleAdmin))
	admin.PATCH("/admin/users/:id/role", userHandler.SetRole)
	admin.GET("/admin/sync/stats", syncHandler.Stats)
	admin.POST("/admin/sync/full", syncHandler.ForceFullSync)
}

// RequireRole rejects requests whose token carries less privilege than min.
func RequireRole(min model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if !claims.Role.AtLeast(min) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
