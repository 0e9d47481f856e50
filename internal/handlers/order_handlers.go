package handlers

import (
	"dinerhub/internal/common"
	"dinerhub/internal/middleware"
	"dinerhub/internal/models"
	"dinerhub/internal/services"

	"github.com/labstack/echo/v4"
)

// OrderHandlers handles order placement and the kitchen workflow
type OrderHandlers struct {
	orderSvc services.OrderService
	gate     *middleware.RBACMiddleware
}

// NewOrderHandlers creates a new order handlers instance
func NewOrderHandlers(orderSvc services.OrderService, gate *middleware.RBACMiddleware) *OrderHandlers {
	return &OrderHandlers{orderSvc: orderSvc, gate: gate}
}

func (h *OrderHandlers) Register(g *echo.Group) {
	g.POST("/orders/checkout", h.CreateFromCart, h.gate.Require("order.createFromCart"))
	g.POST("/orders", h.CreateOrder, h.gate.Require("order.create"))
	g.GET("/orders/mine", h.MyOrders, h.gate.Require("order.myOrders"))
	g.GET("/orders", h.ListOrders, h.gate.Require("order.list"))
	g.GET("/orders/:id", h.GetOrder, h.gate.Require("order.get"))
	g.PATCH("/orders/:id/status", h.UpdateStatus, h.gate.Require("order.updateStatus"))
	g.POST("/orders/:id/cancel", h.CancelOrder, h.gate.Require("order.cancel"))
}

// CreateFromCart checks out the caller's cart
func (h *OrderHandlers) CreateFromCart(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	var req services.CreateFromCartRequest
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	order, err := h.orderSvc.CreateFromCart(c.Request().Context(), p, req)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return created(c, order)
}

// CreateOrder places an order from explicit items, for table guests and
// staff at the point of sale
func (h *OrderHandlers) CreateOrder(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	var req services.CreateOrderRequest
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	order, err := h.orderSvc.Create(c.Request().Context(), p, req)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return created(c, order)
}

func (h *OrderHandlers) MyOrders(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	params, err := common.PageParamsFromQuery(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	page, err := h.orderSvc.MyOrders(c.Request().Context(), p, params)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, page)
}

// ListOrders handles the staff order board with optional filters
func (h *OrderHandlers) ListOrders(c echo.Context) error {
	params, err := common.PageParamsFromQuery(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	var filter models.OrderFilter
	if raw := c.QueryParam("status"); raw != "" {
		s := models.OrderStatus(raw)
		if !s.Valid() {
			return common.SendAppError(c, common.NewValidationError("status", "unknown order status"))
		}
		filter.Status = &s
	}
	if raw := c.QueryParam("channel"); raw != "" {
		ch := models.OrderChannel(raw)
		if !ch.Valid() {
			return common.SendAppError(c, common.NewValidationError("channel", "unknown order channel"))
		}
		filter.Channel = &ch
	}
	if filter.TableID, err = optionalUUIDQuery(c, "table_id"); err != nil {
		return common.SendAppError(c, err)
	}
	if filter.UserID, err = optionalUUIDQuery(c, "user_id"); err != nil {
		return common.SendAppError(c, err)
	}
	page, err := h.orderSvc.List(c.Request().Context(), filter, params)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, page)
}

// GetOrder returns one order. Callers without order.list only see their own.
func (h *OrderHandlers) GetOrder(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	order, err := h.orderSvc.Get(c.Request().Context(), p, id, h.gate.Allowed(c, "order.list"))
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, order)
}

func (h *OrderHandlers) UpdateStatus(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	order, err := h.orderSvc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, order)
}

func (h *OrderHandlers) CancelOrder(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	order, err := h.orderSvc.Cancel(c.Request().Context(), p, id)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, order)
}
