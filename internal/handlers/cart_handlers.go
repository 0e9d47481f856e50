package handlers

import (
	"dinerhub/internal/common"
	"dinerhub/internal/middleware"
	"dinerhub/internal/services"

	"github.com/labstack/echo/v4"
)

// CartHandlers handles the caller's cart. Guests and users share the same
// routes; the cart is keyed by the principal.
type CartHandlers struct {
	cartSvc services.CartService
}

func NewCartHandlers(cartSvc services.CartService) *CartHandlers {
	return &CartHandlers{cartSvc: cartSvc}
}

func (h *CartHandlers) Register(g *echo.Group, gate *middleware.RBACMiddleware) {
	g.GET("/cart", h.GetCart, gate.Require("cart.get"))
	g.POST("/cart/items", h.AddItem, gate.Require("cart.add"))
	g.PATCH("/cart/items/:skuId", h.UpdateItem, gate.Require("cart.update"))
	g.DELETE("/cart/items/:skuId", h.RemoveItem, gate.Require("cart.remove"))
}

func ownerKey(c echo.Context) (string, error) {
	p, err := principal(c)
	if err != nil {
		return "", err
	}
	key := p.OwnerKey()
	if key == "" {
		return "", common.NewForbiddenError("no cart for this session")
	}
	return key, nil
}

func (h *CartHandlers) GetCart(c echo.Context) error {
	key, err := ownerKey(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	cart, err := h.cartSvc.Get(c.Request().Context(), key)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, cart)
}

// AddItem adds a SKU, or a dish plus option selections, to the cart
func (h *CartHandlers) AddItem(c echo.Context) error {
	key, err := ownerKey(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	var req services.AddToCartRequest
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	cart, err := h.cartSvc.Add(c.Request().Context(), key, req)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, cart)
}

func (h *CartHandlers) UpdateItem(c echo.Context) error {
	key, err := ownerKey(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	skuID, err := common.ParamUUID(c, "skuId")
	if err != nil {
		return common.SendAppError(c, err)
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	cart, err := h.cartSvc.Update(c.Request().Context(), key, skuID, req.Quantity)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, cart)
}

func (h *CartHandlers) RemoveItem(c echo.Context) error {
	key, err := ownerKey(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	skuID, err := common.ParamUUID(c, "skuId")
	if err != nil {
		return common.SendAppError(c, err)
	}
	cart, err := h.cartSvc.Remove(c.Request().Context(), key, skuID)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, cart)
}
