package handler

import (
	"net/http"

	"adminhub/internal/middleware"
	"adminhub/internal/rbac"
	"adminhub/internal/service"
	"adminhub/pkg/pagination"
	"adminhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	categoryService service.CategoryService
}

func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

func (h *CategoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	categories := router.Group("/api/categories")
	{
		categories.GET("", middleware.RequirePermission(rbac.ResourceCategories, rbac.ActionView), h.ListCategories)
		categories.GET("/:id", middleware.RequirePermission(rbac.ResourceCategories, rbac.ActionView), h.GetCategory)
		categories.POST("", middleware.RequirePermission(rbac.ResourceCategories, rbac.ActionCreate), h.CreateCategory)
		categories.PUT("/:id", middleware.RequirePermission(rbac.ResourceCategories, rbac.ActionUpdate), h.UpdateCategory)
		categories.DELETE("/:id", middleware.RequirePermission(rbac.ResourceCategories, rbac.ActionDelete), h.DeleteCategory)
	}
}

func (h *CategoryHandler) ListCategories(c *gin.Context) {
	p := pagination.Parse(c)

	categories, total, err := h.categoryService.ListCategories(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to retrieve categories: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{
		"items": categories,
		"meta":  p.NewMeta(total),
	}))
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	category, err := h.categoryService.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(category))
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req service.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), actorID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(category))
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	var req service.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	category, err := h.categoryService.UpdateCategory(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(category))
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	if err := h.categoryService.DeleteCategory(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Category deleted successfully"}))
}
