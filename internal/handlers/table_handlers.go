package handlers

import (
	"net/http"

	"dinerhub/internal/common"
	"dinerhub/internal/middleware"
	"dinerhub/internal/models"
	"dinerhub/internal/services"

	"github.com/labstack/echo/v4"
)

// TableHandlers handles dining tables and their QR codes
type TableHandlers struct {
	tableSvc services.TableService
}

func NewTableHandlers(tableSvc services.TableService) *TableHandlers {
	return &TableHandlers{tableSvc: tableSvc}
}

func (h *TableHandlers) Register(g *echo.Group, gate *middleware.RBACMiddleware) {
	g.GET("/tables", h.ListTables, gate.Require("table.list"))
	g.POST("/tables", h.CreateTable, gate.Require("table.create"))
	g.GET("/tables/:id", h.GetTable, gate.Require("table.get"))
	g.PATCH("/tables/:id", h.UpdateTable, gate.Require("table.update"))
	g.PATCH("/tables/:id/status", h.UpdateStatus, gate.Require("table.updateStatus"))
	g.DELETE("/tables/:id", h.DeleteTable, gate.Require("table.delete"))
	g.GET("/tables/:id/qr", h.QRCode, gate.Require("table.qr"))
	g.POST("/tables/:id/qr/rotate", h.RotateQRCode, gate.Require("table.qr"))
}

func (h *TableHandlers) ListTables(c echo.Context) error {
	params, err := common.PageParamsFromQuery(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	var status *models.TableStatus
	if raw := c.QueryParam("status"); raw != "" {
		s := models.TableStatus(raw)
		if !s.Valid() {
			return common.SendAppError(c, common.NewValidationError("status", "unknown table status"))
		}
		status = &s
	}
	page, err := h.tableSvc.List(c.Request().Context(), status, params)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, page)
}

func (h *TableHandlers) CreateTable(c echo.Context) error {
	var table models.RestaurantTable
	if err := bindJSON(c, &table); err != nil {
		return common.SendAppError(c, err)
	}
	if err := h.tableSvc.Create(c.Request().Context(), &table); err != nil {
		return common.SendAppError(c, err)
	}
	return created(c, table)
}

func (h *TableHandlers) GetTable(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	table, err := h.tableSvc.Get(c.Request().Context(), id)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, table)
}

func (h *TableHandlers) UpdateTable(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	var table models.RestaurantTable
	if err := bindJSON(c, &table); err != nil {
		return common.SendAppError(c, err)
	}
	table.ID = id
	if err := h.tableSvc.Update(c.Request().Context(), &table); err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, table)
}

func (h *TableHandlers) UpdateStatus(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	var req struct {
		Status models.TableStatus `json:"status"`
	}
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	table, err := h.tableSvc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, table)
}

func (h *TableHandlers) DeleteTable(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	if err := h.tableSvc.Delete(c.Request().Context(), id); err != nil {
		return common.SendAppError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// QRCode renders the printable guest link for a table
func (h *TableHandlers) QRCode(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	png, err := h.tableSvc.QRCode(c.Request().Context(), id)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func (h *TableHandlers) RotateQRCode(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	table, err := h.tableSvc.RotateQRCode(c.Request().Context(), id)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, table)
}
