package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
}

func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/dashboard", middleware.RequireRole(model.RoleUser, model.RoleAdmin, model.RoleSuperAdmin), h.GetDashboard)
}

// GetDashboard returns the aggregate figures for the dashboard page
// @Summary      Dashboard metrics
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.DashboardResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.dashboardService.GetDashboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, dashboard))
}
