package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

// NewUserHandler sets up the routing dependencies for User endpoints
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/login", h.Login)
	router.POST("/logout", middleware.RequireRole(model.RoleUser, model.RoleAdmin, model.RoleSuperAdmin), h.Logout)

	router.GET("/me", middleware.RequireRole(model.RoleUser, model.RoleAdmin, model.RoleSuperAdmin), h.GetMe)

	// User management is admin territory
	users := router.Group("/api/users", middleware.RequireRole(model.RoleAdmin, model.RoleSuperAdmin))
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUserByID)
		users.POST("", h.CreateUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}
}

// Login authenticates a user and returns a JWT
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginUserRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      401      {object}  response.Response
// @Router       /login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req service.LoginUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	token, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	middleware.SetTokenCookie(c, token.Token)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, token))
}

// Logout clears the auth cookie and records the event
// @Summary      Logout
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	h.userService.Logout(c.Request.Context(), c.GetString("userID"))
	middleware.ClearTokenCookie(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Logged out"))
}

// GetMe returns the authenticated user's profile
// @Summary      Get current user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      404  {object}  response.Response
// @Router       /me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// CreateUser creates a new staff account
// @Summary      Create user
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateUserRequest  true  "Create User Payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// ListUsers lists accounts with pagination
// @Summary      List users
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200   {object}  response.Response{data=object}
// @Failure      500   {object}  response.Response
// @Router       /api/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := pagination.Parse(c)

	users, total, err := h.userService.ListUsers(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"users": users,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// GetUserByID fetches one account
// @Summary      Get user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/users/{id} [get]
func (h *UserHandler) GetUserByID(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// UpdateUser updates an account's profile, role or password
// @Summary      Update user
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "User ID"
// @Param        payload  body      service.UpdateUserRequest  true  "Update User Payload"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// DeleteUser removes an account
// @Summary      Delete user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "User deleted successfully"))
}
