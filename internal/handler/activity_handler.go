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

type ActivityHandler struct {
	activityService service.ActivityService
}

func NewActivityHandler(activityService service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

func (h *ActivityHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/activity")
	group.Use(middleware.RequirePermission(rbac.ResourceActivity, rbac.ActionView))
	{
		group.GET("", h.ListActivity)
	}
}

// ListActivity retrieves paginated activity entries with the acting user
// preloaded. The durable history lives here; the live stream only covers
// entries created while a client is connected.
// @Summary      Get activity log
// @Tags         activity
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/activity [get]
func (h *ActivityHandler) ListActivity(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.activityService.List(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to retrieve activity log: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{
		"items": logs,
		"meta":  p.NewMeta(total),
	}))
}
