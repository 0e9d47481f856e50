package handlers

import (
	"net/http"

	"dinerhub/internal/common"
	"dinerhub/internal/middleware"
	"dinerhub/internal/models"
	"dinerhub/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AccessHandlers handles role and permission management
type AccessHandlers struct {
	roleSvc       services.RoleService
	permissionSvc services.PermissionService
}

func NewAccessHandlers(roleSvc services.RoleService, permissionSvc services.PermissionService) *AccessHandlers {
	return &AccessHandlers{roleSvc: roleSvc, permissionSvc: permissionSvc}
}

func (h *AccessHandlers) Register(g *echo.Group, gate *middleware.RBACMiddleware) {
	g.GET("/roles", h.ListRoles, gate.Require("role.list"))
	g.POST("/roles", h.CreateRole, gate.Require("role.create"))
	g.GET("/roles/:id", h.GetRole, gate.Require("role.get"))
	g.PATCH("/roles/:id", h.UpdateRole, gate.Require("role.update"))
	g.DELETE("/roles/:id", h.DeleteRole, gate.Require("role.delete"))
	g.PUT("/roles/:id/permissions", h.AssignPermissions, gate.Require("role.assignPermissions"))

	g.GET("/permissions", h.ListPermissions, gate.Require("permission.list"))
	g.POST("/permissions", h.CreatePermission, gate.Require("permission.create"))
	g.GET("/permissions/:id", h.GetPermission, gate.Require("permission.get"))
	g.PATCH("/permissions/:id", h.UpdatePermission, gate.Require("permission.update"))
	g.DELETE("/permissions/:id", h.DeletePermission, gate.Require("permission.delete"))
}

func (h *AccessHandlers) ListRoles(c echo.Context) error {
	params, err := common.PageParamsFromQuery(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	page, err := h.roleSvc.List(c.Request().Context(), params)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, page)
}

func (h *AccessHandlers) CreateRole(c echo.Context) error {
	var role models.Role
	if err := bindJSON(c, &role); err != nil {
		return common.SendAppError(c, err)
	}
	if err := h.roleSvc.Create(c.Request().Context(), &role); err != nil {
		return common.SendAppError(c, err)
	}
	return created(c, role)
}

// GetRole returns a role with its permission set
func (h *AccessHandlers) GetRole(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	role, err := h.roleSvc.Get(c.Request().Context(), id)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, role)
}

func (h *AccessHandlers) UpdateRole(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	var req services.UpdateRoleRequest
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	role, err := h.roleSvc.Update(c.Request().Context(), id, req)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, role)
}

// DeleteRole soft-deletes a custom role. Base roles are refused.
func (h *AccessHandlers) DeleteRole(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	if err := h.roleSvc.Delete(c.Request().Context(), id); err != nil {
		return common.SendAppError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AssignPermissions replaces the role's permission set
func (h *AccessHandlers) AssignPermissions(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	var req struct {
		PermissionIDs []uuid.UUID `json:"permission_ids"`
	}
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	role, err := h.roleSvc.AssignPermissions(c.Request().Context(), id, req.PermissionIDs)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, role)
}

func (h *AccessHandlers) ListPermissions(c echo.Context) error {
	params, err := common.PageParamsFromQuery(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	page, err := h.permissionSvc.List(c.Request().Context(), c.QueryParam("module"), params)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, page)
}

func (h *AccessHandlers) CreatePermission(c echo.Context) error {
	var permission models.Permission
	if err := bindJSON(c, &permission); err != nil {
		return common.SendAppError(c, err)
	}
	if err := h.permissionSvc.Create(c.Request().Context(), &permission); err != nil {
		return common.SendAppError(c, err)
	}
	return created(c, permission)
}

func (h *AccessHandlers) GetPermission(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	permission, err := h.permissionSvc.Get(c.Request().Context(), id)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, permission)
}

func (h *AccessHandlers) UpdatePermission(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	var permission models.Permission
	if err := bindJSON(c, &permission); err != nil {
		return common.SendAppError(c, err)
	}
	permission.ID = id
	if err := h.permissionSvc.Update(c.Request().Context(), &permission); err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, permission)
}

func (h *AccessHandlers) DeletePermission(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	if err := h.permissionSvc.Delete(c.Request().Context(), id); err != nil {
		return common.SendAppError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
