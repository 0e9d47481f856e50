package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// AuditMiddleware records every state-changing request made by an
// authenticated caller
type AuditMiddleware struct {
	logger *slog.Logger
}

func NewAuditMiddleware(logger *slog.Logger) *AuditMiddleware {
	return &AuditMiddleware{logger: logger.With("action", "audit")}
}

// AuditRequest logs mutating requests after they complete. Reads are skipped.
func (m *AuditMiddleware) AuditRequest() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			method := c.Request().Method
			if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
				return err
			}
			p := Principal(c)
			if p == nil {
				return err
			}

			attrs := []any{
				"method", method,
				"route", c.Path(),
				"status", c.Response().Status,
				"role", p.RoleName,
				"ip", c.RealIP(),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if p.UserID != nil {
				attrs = append(attrs, "user_id", p.UserID.String())
			}
			if p.GuestID != nil {
				attrs = append(attrs, "guest_id", p.GuestID.String())
			}
			if err != nil {
				attrs = append(attrs, "error", err.Error())
			}
			m.logger.InfoContext(c.Request().Context(), "request audited", attrs...)
			return err
		}
	}
}
