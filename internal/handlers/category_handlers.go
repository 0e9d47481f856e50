package handlers

import (
	"net/http"

	"dinerhub/internal/common"
	"dinerhub/internal/middleware"
	"dinerhub/internal/models"
	"dinerhub/internal/services"

	"github.com/labstack/echo/v4"
)

// CategoryHandlers handles category-related HTTP requests
type CategoryHandlers struct {
	categorySvc services.CategoryService
}

// NewCategoryHandlers creates a new category handlers instance
func NewCategoryHandlers(categorySvc services.CategoryService) *CategoryHandlers {
	return &CategoryHandlers{categorySvc: categorySvc}
}

// Register mounts the public reads on pub and the management routes on g.
func (h *CategoryHandlers) Register(pub, g *echo.Group, gate *middleware.RBACMiddleware) {
	pub.GET("/categories", h.ListCategories)
	pub.GET("/categories/:id", h.GetCategory)

	g.POST("/categories", h.CreateCategory, gate.Require("category.create"))
	g.PATCH("/categories/:id", h.UpdateCategory, gate.Require("category.update"))
	g.DELETE("/categories/:id", h.DeleteCategory, gate.Require("category.delete"))
}

// ListCategories handles getting a page of categories
func (h *CategoryHandlers) ListCategories(c echo.Context) error {
	params, err := common.PageParamsFromQuery(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	page, err := h.categorySvc.List(c.Request().Context(), params)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, page)
}

// GetCategory handles getting a category by ID
func (h *CategoryHandlers) GetCategory(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	category, err := h.categorySvc.Get(c.Request().Context(), id)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, category)
}

// CreateCategory handles creating a new category
func (h *CategoryHandlers) CreateCategory(c echo.Context) error {
	var category models.Category
	if err := bindJSON(c, &category); err != nil {
		return common.SendAppError(c, err)
	}
	if err := h.categorySvc.Create(c.Request().Context(), &category); err != nil {
		return common.SendAppError(c, err)
	}
	return created(c, category)
}

// UpdateCategory handles updating an existing category
func (h *CategoryHandlers) UpdateCategory(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	var category models.Category
	if err := bindJSON(c, &category); err != nil {
		return common.SendAppError(c, err)
	}
	category.ID = id
	if err := h.categorySvc.Update(c.Request().Context(), &category); err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, category)
}

// DeleteCategory handles deleting a category
func (h *CategoryHandlers) DeleteCategory(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	if err := h.categorySvc.Delete(c.Request().Context(), id); err != nil {
		return common.SendAppError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
