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

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	// The audit log page is restricted to admins in the original navigation.
	router.GET("/api/audit-logs", middleware.RequireRole(model.RoleAdmin, model.RoleSuperAdmin), h.GetAuditLogs)
}

// GetAuditLogs lists audit entries newest first
// @Summary      List audit logs
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        action  query     string  false  "Filter by action"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)
	action := c.Query("action")

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), params.Page, params.Limit, action)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}
