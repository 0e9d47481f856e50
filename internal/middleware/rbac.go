package middleware

import (
	"fmt"

	"dinerhub/internal/common"
	"dinerhub/internal/services"

	"github.com/labstack/echo/v4"
)

type RBACMiddleware struct {
	rbacService services.RBACService
}

func NewRBACMiddleware(rbacService services.RBACService) *RBACMiddleware {
	return &RBACMiddleware{
		rbacService: rbacService,
	}
}

// Require gates a route on the named entry of services.AccessPolicy.
// It panics at route registration when the operation is unknown.
func (m *RBACMiddleware) Require(operation string) echo.MiddlewareFunc {
	rule, ok := services.AccessPolicy[operation]
	if !ok {
		panic(fmt.Sprintf("rbac: no access rule for operation %q", operation))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := m.rbacService.Authorize(c.Request().Context(), Principal(c), rule); err != nil {
				return common.SendAppError(c, err)
			}
			return next(c)
		}
	}
}

// Allowed reports whether the caller passes the operation's rule, for
// handlers that widen their response for privileged callers.
func (m *RBACMiddleware) Allowed(c echo.Context, operation string) bool {
	rule, ok := services.AccessPolicy[operation]
	if !ok {
		return false
	}
	return m.rbacService.Authorize(c.Request().Context(), Principal(c), rule) == nil
}
