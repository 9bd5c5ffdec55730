package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/salesapp/sales-management/internal/auth"
	"github.com/salesapp/sales-management/internal/handlers"
	"github.com/salesapp/sales-management/internal/middleware/authmw"
	"github.com/salesapp/sales-management/internal/models"
)

type Deps struct {
	Auth        *auth.Authenticator
	AuthHandler *handlers.AuthHandler
	Orders      *handlers.OrderHandler
	Products    *handlers.ProductHandler
	Customers   *handlers.CustomerHandler
	Dashboard   *handlers.DashboardHandler
	Search      *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api")

	api.POST("/auth/login", d.AuthHandler.Login)
	api.POST("/auth/forgot-password", d.AuthHandler.ForgotPassword)
	api.POST("/auth/verify-otp", d.AuthHandler.VerifyOTP)
	api.POST("/auth/reset-password", d.AuthHandler.ResetPassword)

	api.GET("/products", d.Products.List)
	api.GET("/products/:id", d.Products.Get)
	api.GET("/search", d.Search.Products)

	private := api.Group("", authmw.RequireAuth(d.Auth))

	private.GET("/auth/verify", d.AuthHandler.Verify)
	private.GET("/auth/me", d.AuthHandler.Me)
	private.POST("/auth/logout", d.AuthHandler.Logout)
	private.PUT("/auth/update-profile", d.AuthHandler.UpdateProfile)

	manage := authmw.RequireRoles(models.RoleAdmin, models.RoleManager)
	private.POST("/products", d.Products.Create, manage)
	private.PUT("/products/:id", d.Products.Update, manage)
	private.DELETE("/products/:id", d.Products.Delete, manage)

	private.GET("/customers", d.Customers.List)
	private.GET("/customers/:id", d.Customers.Get)
	private.POST("/customers", d.Customers.Create)
	private.DELETE("/customers/:id", d.Customers.Delete, manage)

	private.GET("/orders", d.Orders.List)
	private.GET("/orders/:id", d.Orders.Get)
	private.POST("/orders", d.Orders.Create)
	private.PUT("/orders/:id/cancel", d.Orders.Cancel)
	private.PUT("/orders/:id/status", d.Orders.SetStatus, manage)
	private.PUT("/orders/:id/payment", d.Orders.SetPayment, manage)

	private.GET("/dashboard/stats", d.Dashboard.Stats)
}
