package handlers

import (
	"net/http"

	"dinerhub/internal/common"
	"dinerhub/internal/middleware"
	"dinerhub/internal/models"
	"dinerhub/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// PromotionHandlers handles promotion codes
type PromotionHandlers struct {
	promotionSvc services.PromotionService
}

func NewPromotionHandlers(promotionSvc services.PromotionService) *PromotionHandlers {
	return &PromotionHandlers{promotionSvc: promotionSvc}
}

func (h *PromotionHandlers) Register(g *echo.Group, gate *middleware.RBACMiddleware) {
	g.POST("/promotions/apply", h.ApplyCode, gate.Require("promotion.applyCode"))
	g.POST("/promotions/preview", h.Preview, gate.Require("promotion.preview"))

	g.GET("/promotions", h.ListPromotions, gate.Require("promotion.list"))
	g.POST("/promotions", h.CreatePromotion, gate.Require("promotion.create"))
	g.GET("/promotions/:id", h.GetPromotion, gate.Require("promotion.get"))
	g.PATCH("/promotions/:id", h.UpdatePromotion, gate.Require("promotion.update"))
	g.DELETE("/promotions/:id", h.DeletePromotion, gate.Require("promotion.delete"))
}

type promotionCodeRequest struct {
	Code       string          `json:"code"`
	OrderValue decimal.Decimal `json:"order_value"`
}

// ApplyCode redeems a code against an order value and counts the use
func (h *PromotionHandlers) ApplyCode(c echo.Context) error {
	var req promotionCodeRequest
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	result, err := h.promotionSvc.Apply(c.Request().Context(), req.Code, req.OrderValue)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, result)
}

// Preview prices a code without consuming it
func (h *PromotionHandlers) Preview(c echo.Context) error {
	var req promotionCodeRequest
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	result, err := h.promotionSvc.Preview(c.Request().Context(), req.Code, req.OrderValue)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, result)
}

func (h *PromotionHandlers) ListPromotions(c echo.Context) error {
	params, err := common.PageParamsFromQuery(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	page, err := h.promotionSvc.List(c.Request().Context(), params)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, page)
}

func (h *PromotionHandlers) CreatePromotion(c echo.Context) error {
	var promotion models.Promotion
	if err := bindJSON(c, &promotion); err != nil {
		return common.SendAppError(c, err)
	}
	if err := h.promotionSvc.Create(c.Request().Context(), &promotion); err != nil {
		return common.SendAppError(c, err)
	}
	return created(c, promotion)
}

func (h *PromotionHandlers) GetPromotion(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	promotion, err := h.promotionSvc.Get(c.Request().Context(), id)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, promotion)
}

func (h *PromotionHandlers) UpdatePromotion(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	var promotion models.Promotion
	if err := bindJSON(c, &promotion); err != nil {
		return common.SendAppError(c, err)
	}
	promotion.ID = id
	if err := h.promotionSvc.Update(c.Request().Context(), &promotion); err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, promotion)
}

func (h *PromotionHandlers) DeletePromotion(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	if err := h.promotionSvc.Delete(c.Request().Context(), id); err != nil {
		return common.SendAppError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
