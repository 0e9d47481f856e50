package handlers

import (
	"net/http"

	"dinerhub/internal/common"
	"dinerhub/internal/middleware"
	"dinerhub/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles registration, login and session endpoints
type AuthHandlers struct {
	authSvc services.AuthService
}

func NewAuthHandlers(authSvc services.AuthService) *AuthHandlers {
	return &AuthHandlers{authSvc: authSvc}
}

func (h *AuthHandlers) Register(g *echo.Group, auth echo.MiddlewareFunc, gate *middleware.RBACMiddleware) {
	g.POST("/auth/otp", h.SendOTP)
	g.POST("/auth/register", h.SignUp)
	g.POST("/auth/login", h.Login)
	g.POST("/auth/refresh", h.Refresh)
	g.POST("/auth/guest", h.GuestSession)

	g.POST("/auth/logout", h.Logout, auth, gate.Require("auth.logout"))
	g.GET("/auth/sessions", h.Sessions, auth, gate.Require("auth.sessions"))
	g.DELETE("/auth/sessions", h.RevokeSessions, auth, gate.Require("auth.revokeSessions"))
}

// SendOTP issues a one-time registration code
func (h *AuthHandlers) SendOTP(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	if err := h.authSvc.SendOTP(c.Request().Context(), req.Email); err != nil {
		return common.SendAppError(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}

// SignUp registers a client account after OTP verification
func (h *AuthHandlers) SignUp(c echo.Context) error {
	var req services.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	user, err := h.authSvc.Register(c.Request().Context(), req)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return created(c, user)
}

// Login exchanges credentials for a token pair
func (h *AuthHandlers) Login(c echo.Context) error {
	var req services.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	req.UserAgent = c.Request().UserAgent()
	req.IP = c.RealIP()
	tokens, err := h.authSvc.Login(c.Request().Context(), req)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, tokens)
}

// Refresh rotates a refresh token
func (h *AuthHandlers) Refresh(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	tokens, err := h.authSvc.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, tokens)
}

// GuestSession opens a guest session from a table QR code
func (h *AuthHandlers) GuestSession(c echo.Context) error {
	var req struct {
		QRCode   string `json:"qr_code"`
		DeviceID string `json:"device_id"`
	}
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	tokens, err := h.authSvc.GuestSession(c.Request().Context(), req.QRCode, req.DeviceID)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, tokens)
}

func (h *AuthHandlers) Logout(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	if err := h.authSvc.Logout(c.Request().Context(), p); err != nil {
		return common.SendAppError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Sessions lists the caller's signed-in devices
func (h *AuthHandlers) Sessions(c echo.Context) error {
	_, userID, err := requireUser(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	sessions, err := h.authSvc.ListSessions(c.Request().Context(), userID)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, map[string]any{"data": sessions})
}

// RevokeSessions signs the caller out everywhere
func (h *AuthHandlers) RevokeSessions(c echo.Context) error {
	_, userID, err := requireUser(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	if err := h.authSvc.RevokeAllSessions(c.Request().Context(), userID); err != nil {
		return common.SendAppError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
