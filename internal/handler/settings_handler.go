package handler

import (
	"net/http"

	"adminhub/internal/middleware"
	"adminhub/internal/rbac"
	"adminhub/internal/service"
	"adminhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	settingsService service.SettingsService
}

func NewSettingsHandler(settingsService service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

func (h *SettingsHandler) RegisterRoutes(router *gin.RouterGroup) {
	settings := router.Group("/api/settings")
	settings.Use(middleware.RequirePermission(rbac.ResourceSettings, rbac.ActionManage))
	{
		settings.GET("", h.ListSettings)
		settings.GET("/:key", h.GetSetting)
		settings.PUT("/:key", h.UpdateSetting)
	}
}

func (h *SettingsHandler) ListSettings(c *gin.Context) {
	settings, err := h.settingsService.ListSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(settings))
}

func (h *SettingsHandler) GetSetting(c *gin.Context) {
	setting, err := h.settingsService.GetSetting(c.Request.Context(), c.Param("key"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(setting))
}

func (h *SettingsHandler) UpdateSetting(c *gin.Context) {
	var req service.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	setting, err := h.settingsService.UpdateSetting(c.Request.Context(), actorID(c), c.Param("key"), req.Value)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(setting))
}
