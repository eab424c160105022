package handler

import (
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders", middleware.RequireRole(model.RoleUser, model.RoleAdmin, model.RoleSuperAdmin))
	{
		orders.GET("", h.ListOrders)
		orders.GET("/:number", h.GetOrder)
		orders.POST("", h.CreateOrder)
		orders.PUT("/:number", h.UpdateOrder)
		orders.POST("/:number/cancel", h.CancelOrder)
		orders.DELETE("/:number", h.DeleteOrder)
	}
}

// ListOrders lists orders filtered by status and date range
// @Summary      List orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        status  query     string  false  "Filter by order status"
// @Param        from    query     string  false  "Order date lower bound (YYYY-MM-DD)"
// @Param        to      query     string  false  "Order date upper bound (YYYY-MM-DD)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	params := pagination.Parse(c)
	status := c.Query("status")

	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			from = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			to = &t
		}
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), params.Page, params.Limit, status, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve orders: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	}))
}

// GetOrder fetches one order with its items
// @Summary      Get order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        number  path      string  true  "Order number"
// @Success      200     {object}  response.Response{data=model.Order}
// @Failure      404     {object}  response.Response
// @Router       /api/orders/{number} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("number"))
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CreateOrder creates an order, reserving stock and minting the order number
// in one transaction
// @Summary      Create order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.OrderRequest  true  "Create Order Payload"
// @Success      201      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// UpdateOrder edits an order, netting the stock adjustment in one transaction
// @Summary      Update order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        number   path      string                true  "Order number"
// @Param        payload  body      service.OrderRequest  true  "Update Order Payload"
// @Success      200      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/orders/{number} [put]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var req service.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), c.GetString("userID"), c.Param("number"), req)
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CancelOrder cancels an order, returning its reserved stock exactly once
// @Summary      Cancel order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        number  path      string  true  "Order number"
// @Success      200     {object}  response.Response{data=model.Order}
// @Failure      404     {object}  response.Response
// @Router       /api/orders/{number}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	order, err := h.orderService.CancelOrder(c.Request.Context(), c.GetString("userID"), c.Param("number"))
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// DeleteOrder removes an order, releasing its reservation if still held
// @Summary      Delete order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        number  path      string  true  "Order number"
// @Success      200     {object}  response.Response
// @Failure      404     {object}  response.Response
// @Router       /api/orders/{number} [delete]
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.orderService.DeleteOrder(c.Request.Context(), c.GetString("userID"), c.Param("number")); err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Order deleted successfully"))
}
