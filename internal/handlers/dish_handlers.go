package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"dinerhub/internal/common"
	"dinerhub/internal/middleware"
	"dinerhub/internal/models"
	"dinerhub/internal/services"

	"github.com/labstack/echo/v4"
)

// DishHandlers handles menu browsing and dish management
type DishHandlers struct {
	dishSvc services.DishService
}

func NewDishHandlers(dishSvc services.DishService) *DishHandlers {
	return &DishHandlers{dishSvc: dishSvc}
}

func (h *DishHandlers) Register(pub, g *echo.Group, gate *middleware.RBACMiddleware) {
	pub.GET("/dishes", h.ListDishes)
	pub.GET("/dishes/:id", h.GetDish)

	g.POST("/dishes", h.CreateDish, gate.Require("dish.create"))
	g.PATCH("/dishes/:id", h.UpdateDish, gate.Require("dish.update"))
	g.PATCH("/dishes/:id/skus/:skuId", h.UpdateSKU, gate.Require("dish.updateSku"))
	g.DELETE("/dishes/:id", h.DeleteDish, gate.Require("dish.delete"))
}

// language picks the ?lang query value, then the first Accept-Language tag.
func language(c echo.Context) string {
	if lang := c.QueryParam("lang"); lang != "" {
		return lang
	}
	header := c.Request().Header.Get("Accept-Language")
	if header == "" {
		return ""
	}
	tag, _, _ := strings.Cut(header, ",")
	tag, _, _ = strings.Cut(tag, ";")
	return strings.TrimSpace(tag)
}

// ListDishes serves the menu, filtered by category, availability and search
func (h *DishHandlers) ListDishes(c echo.Context) error {
	params, err := common.PageParamsFromQuery(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	categoryID, err := optionalUUIDQuery(c, "category_id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	filter := models.DishFilter{
		CategoryID: categoryID,
		Search:     common.SanitizeSearchQuery(c.QueryParam("search")),
		Language:   language(c),
	}
	if raw := c.QueryParam("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return common.SendAppError(c, common.NewValidationError("active", "active must be true or false"))
		}
		filter.Active = &active
	}
	page, err := h.dishSvc.List(c.Request().Context(), filter, params)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, page)
}

func (h *DishHandlers) GetDish(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	dish, err := h.dishSvc.Get(c.Request().Context(), id, language(c))
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, dish)
}

// CreateDish creates a dish with its variants and SKUs
func (h *DishHandlers) CreateDish(c echo.Context) error {
	var dish models.Dish
	if err := bindJSON(c, &dish); err != nil {
		return common.SendAppError(c, err)
	}
	if err := h.dishSvc.Create(c.Request().Context(), &dish); err != nil {
		return common.SendAppError(c, err)
	}
	return created(c, dish)
}

func (h *DishHandlers) UpdateDish(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	var dish models.Dish
	if err := bindJSON(c, &dish); err != nil {
		return common.SendAppError(c, err)
	}
	dish.ID = id
	if err := h.dishSvc.Update(c.Request().Context(), &dish); err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, dish)
}

// UpdateSKU changes one SKU's price, stock or images
func (h *DishHandlers) UpdateSKU(c echo.Context) error {
	dishID, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	skuID, err := common.ParamUUID(c, "skuId")
	if err != nil {
		return common.SendAppError(c, err)
	}
	var update models.SKUUpdate
	if err := bindJSON(c, &update); err != nil {
		return common.SendAppError(c, err)
	}
	sku, err := h.dishSvc.UpdateSKU(c.Request().Context(), dishID, skuID, update)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, sku)
}

func (h *DishHandlers) DeleteDish(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	if err := h.dishSvc.Delete(c.Request().Context(), id); err != nil {
		return common.SendAppError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
