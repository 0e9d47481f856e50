package handlers

import (
	"dinerhub/internal/middleware"

	"github.com/labstack/echo/v4"
)

// Handlers bundles every HTTP handler set mounted by RegisterRoutes.
type Handlers struct {
	Health        *HealthHandlers
	Auth          *AuthHandlers
	Users         *UserHandlers
	Access        *AccessHandlers
	Categories    *CategoryHandlers
	Dishes        *DishHandlers
	Uploads       *UploadHandlers
	Tables        *TableHandlers
	Cart          *CartHandlers
	Orders        *OrderHandlers
	Promotions    *PromotionHandlers
	Reservations  *ReservationHandlers
	Notifications *NotificationHandlers
}

// RegisterRoutes mounts health checks at the root and the API under /v1.
// Every route behind auth carries its own access rule.
func RegisterRoutes(e *echo.Echo, h Handlers, auth echo.MiddlewareFunc, gate *middleware.RBACMiddleware, versions *middleware.VersionMiddleware, audit *middleware.AuditMiddleware) {
	h.Health.Register(e)

	v1 := e.Group("/v1")
	v1.Use(versions.VersionHeader("v1"))

	// Public routes
	h.Auth.Register(v1, auth, gate)
	public := v1.Group("")

	// Protected routes
	protected := v1.Group("")
	protected.Use(auth, audit.AuditRequest())

	h.Users.Register(protected, gate)
	h.Access.Register(protected, gate)
	h.Categories.Register(public, protected, gate)
	h.Dishes.Register(public, protected, gate)
	h.Uploads.Register(protected, gate)
	h.Tables.Register(protected, gate)
	h.Cart.Register(protected, gate)
	h.Orders.Register(protected)
	h.Promotions.Register(protected, gate)
	h.Reservations.Register(public, protected)
	h.Notifications.Register(protected)
}
