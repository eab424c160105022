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

type ProductHandler struct {
	productService service.ProductService
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/api/products", middleware.RequireRole(model.RoleUser, model.RoleAdmin, model.RoleSuperAdmin))
	{
		products.GET("", h.GetProducts)
		products.GET("/:id", h.GetProduct)
		products.POST("", h.CreateProduct)
		products.PUT("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeleteProduct)
	}
}

// GetProducts lists products with optional search and status filter
// @Summary      List products
// @Description  Retrieves a paginated list of products with current stock
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        search  query     string  false  "Search by product name or code"
// @Param        status  query     string  false  "Filter by product status"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/products [get]
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := pagination.Parse(c)
	search := c.Query("search")
	status := c.Query("status")

	products, total, err := h.productService.GetProducts(c.Request.Context(), params.Page, params.Limit, search, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve products: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"products": products,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// GetProduct fetches one product by its code
// @Summary      Get product
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product code"
// @Success      200  {object}  response.Response{data=model.Product}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// CreateProduct creates a new product with its initial stock
// @Summary      Create product
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProductRequest  true  "Create Product Payload"
// @Success      201      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// UpdateProduct updates a product's details (never its stock)
// @Summary      Update product
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Product code"
// @Param        payload  body      service.UpdateProductRequest  true  "Update Product Payload"
// @Success      200      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/products/{id} [put]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// DeleteProduct removes a product
// @Summary      Delete product
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product code"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.productService.DeleteProduct(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Product deleted successfully"))
}
