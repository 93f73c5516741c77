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

type UserHandler struct {
	userService service.UserService
}

// NewUserHandler sets up the routing dependencies for User endpoints
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRoutes binds the endpoints to the gin RouterGroup
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/api/users")
	{
		users.GET("", middleware.RequirePermission(rbac.ResourceUsers, rbac.ActionView), h.ListUsers)
		users.GET("/:id", middleware.RequirePermission(rbac.ResourceUsers, rbac.ActionView), h.GetUserByID)
		users.POST("", middleware.RequirePermission(rbac.ResourceUsers, rbac.ActionCreate), h.CreateUser)
		users.PUT("/:id", middleware.RequirePermission(rbac.ResourceUsers, rbac.ActionUpdate), h.UpdateUser)
		users.PUT("/:id/roles", middleware.RequirePermission(rbac.ResourceUsers, rbac.ActionManage), h.AssignRoles)
		users.DELETE("/:id", middleware.RequirePermission(rbac.ResourceUsers, rbac.ActionDelete), h.DeleteUser)
	}
}

// CreateUser handles POST /api/users
// @Summary      Create a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUserRequest  true  "Create User Payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), actorID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(user))
}

// ListUsers returns paginated users
func (h *UserHandler) ListUsers(c *gin.Context) {
	p := pagination.Parse(c)

	users, total, err := h.userService.ListUsers(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to retrieve users: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{
		"items": users,
		"meta":  p.NewMeta(total),
	}))
}

// GetUserByID returns a single user
func (h *UserHandler) GetUserByID(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(user))
}

// UpdateUser updates profile fields and the active flag
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(user))
}

// AssignRoles replaces the user's role set
func (h *UserHandler) AssignRoles(c *gin.Context) {
	var req service.AssignRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.userService.AssignRoles(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(user))
}

// DeleteUser soft-deletes a user
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"message": "User deleted successfully"}))
}

// actorID returns the authenticated caller's id for activity attribution
func actorID(c *gin.Context) string {
	if user, ok := middleware.CurrentUser(c); ok {
		return user.ID.String()
	}
	return ""
}
