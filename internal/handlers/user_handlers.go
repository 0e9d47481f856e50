package handlers

import (
	"context"
	"net/http"

	"dinerhub/internal/analytics"
	"dinerhub/internal/common"
	"dinerhub/internal/middleware"
	"dinerhub/internal/models"
	"dinerhub/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UserHandlers handles profile and user administration requests
type UserHandlers struct {
	userSvc services.UserService
	stats   *analytics.AnalyticsService
}

// NewUserHandlers creates a new user handlers instance
func NewUserHandlers(userSvc services.UserService, stats *analytics.AnalyticsService) *UserHandlers {
	return &UserHandlers{userSvc: userSvc, stats: stats}
}

func (h *UserHandlers) Register(g *echo.Group, gate *middleware.RBACMiddleware) {
	g.GET("/me", h.Profile, gate.Require("profile.get"))
	g.PATCH("/me", h.UpdateProfile, gate.Require("profile.update"))
	g.GET("/me/addresses", h.Addresses, gate.Require("profile.addresses"))
	g.POST("/me/addresses", h.AddAddress, gate.Require("profile.addAddress"))

	g.GET("/users", h.ListUsers, gate.Require("user.list"))
	g.POST("/users", h.CreateUser, gate.Require("user.create"))
	g.GET("/users/:id", h.GetUser, gate.Require("user.get"))
	g.PATCH("/users/:id", h.UpdateUser, gate.Require("user.update"))
	g.DELETE("/users/:id", h.DeleteUser, gate.Require("user.delete"))

	g.POST("/admin/users/:id/ban", h.BanUser, gate.Require("admin.banUser"))
	g.POST("/admin/users/:id/unban", h.UnbanUser, gate.Require("admin.unbanUser"))
	g.POST("/admin/users/:id/logout", h.ForceLogout, gate.Require("admin.forceLogout"))
	g.GET("/admin/stats", h.Stats, gate.Require("admin.getStats"))
}

// Profile returns the caller's own account
func (h *UserHandlers) Profile(c echo.Context) error {
	_, userID, err := requireUser(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	user, err := h.userSvc.Get(c.Request().Context(), userID)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, user)
}

func (h *UserHandlers) UpdateProfile(c echo.Context) error {
	_, userID, err := requireUser(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	var req services.UpdateUserRequest
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	user, err := h.userSvc.UpdateProfile(c.Request().Context(), userID, req)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, user)
}

func (h *UserHandlers) Addresses(c echo.Context) error {
	_, userID, err := requireUser(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	params, err := common.PageParamsFromQuery(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	page, err := h.userSvc.Addresses(c.Request().Context(), userID, params)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, page)
}

func (h *UserHandlers) AddAddress(c echo.Context) error {
	_, userID, err := requireUser(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	var address models.Address
	if err := bindJSON(c, &address); err != nil {
		return common.SendAppError(c, err)
	}
	if err := h.userSvc.AddAddress(c.Request().Context(), userID, &address); err != nil {
		return common.SendAppError(c, err)
	}
	return created(c, address)
}

// ListUsers handles getting a page of users, optionally filtered by role or status
func (h *UserHandlers) ListUsers(c echo.Context) error {
	params, err := common.PageParamsFromQuery(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	roleID, err := optionalUUIDQuery(c, "role_id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	filter := models.UserFilter{RoleID: roleID, Search: common.SanitizeSearchQuery(c.QueryParam("search"))}
	if status := c.QueryParam("status"); status != "" {
		filter.Status = &status
	}
	page, err := h.userSvc.List(c.Request().Context(), filter, params)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, page)
}

func (h *UserHandlers) CreateUser(c echo.Context) error {
	var req services.CreateUserRequest
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	user, err := h.userSvc.Create(c.Request().Context(), req)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return created(c, user)
}

func (h *UserHandlers) GetUser(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	user, err := h.userSvc.Get(c.Request().Context(), id)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, user)
}

func (h *UserHandlers) UpdateUser(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	var req services.UpdateUserRequest
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	user, err := h.userSvc.Update(c.Request().Context(), id, req)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, user)
}

func (h *UserHandlers) DeleteUser(c echo.Context) error {
	return h.userAction(c, h.userSvc.Delete)
}

// BanUser blocks the account and signs it out everywhere
func (h *UserHandlers) BanUser(c echo.Context) error {
	return h.userAction(c, h.userSvc.Ban)
}

func (h *UserHandlers) UnbanUser(c echo.Context) error {
	return h.userAction(c, h.userSvc.Unban)
}

func (h *UserHandlers) ForceLogout(c echo.Context) error {
	return h.userAction(c, h.userSvc.ForceLogout)
}

// Stats serves the admin dashboard aggregates
func (h *UserHandlers) Stats(c echo.Context) error {
	stats, err := h.stats.DashboardStats(c.Request().Context())
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, stats)
}

func (h *UserHandlers) userAction(c echo.Context, action func(ctx context.Context, id uuid.UUID) error) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	if err := action(c.Request().Context(), id); err != nil {
		return common.SendAppError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
