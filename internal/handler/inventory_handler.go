package handler

import (
	"net/http"

	"facture/internal/service"
	"facture/pkg/pagination"
	"facture/pkg/response"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/api/products")
	{
		inventory.GET("", h.GetProducts)
		inventory.POST("", h.CreateProduct)
		inventory.GET("/:id", h.GetProduct)
		inventory.PUT("/:id", h.UpdateProduct)
		inventory.DELETE("/:id", h.DeleteProduct)
		inventory.POST("/:id/stock", h.AdjustStock)
		inventory.GET("/:id/movements", h.GetMovements)
	}
}

// GetProducts lists the catalog with current stock
// @Summary      Get products
// @Description  Retrieves products with current stock, optionally filtered by reference or name
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Search by reference or name"
// @Success      200     {object}  response.Response{data=[]service.ProductResponse}
// @Failure      500     {object}  response.Response
// @Router       /api/products [get]
func (h *InventoryHandler) GetProducts(c *gin.Context) {
	products, err := h.inventoryService.GetProducts(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, products))
}

// @Summary      Get product
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.ProductResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [get]
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	product, err := h.inventoryService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// CreateProduct creates a new inventory product entry
// @Summary      Create product
// @Description  Creates a product; a positive initial stock is journaled as an IN movement
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ProductRequest  true  "Product Payload"
// @Success      201      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/products [post]
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	product, err := h.inventoryService.CreateProduct(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// UpdateProduct updates an existing product's metadata
// @Summary      Update product
// @Description  Updates product details by ID; stock only moves through invoices and adjustments
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Product ID"
// @Param        payload  body      service.ProductRequest  true  "Product Payload"
// @Success      200      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/products/{id} [put]
func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	product, err := h.inventoryService.UpdateProduct(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// DeleteProduct removes a product that no invoice line uses
// @Summary      Delete product
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *InventoryHandler) DeleteProduct(c *gin.Context) {
	if err := h.inventoryService.DeleteProduct(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Product deleted successfully"))
}

// AdjustStock adds or removes units outside of invoicing
// @Summary      Adjust stock
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Product ID"
// @Param        payload  body      service.StockAdjustmentRequest  true  "Adjustment Payload"
// @Success      200      {object}  response.Response{data=service.ProductResponse}
// @Failure      422      {object}  response.Response "Insufficient stock"
// @Router       /api/products/{id}/stock [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req service.StockAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	product, err := h.inventoryService.AdjustStock(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// GetMovements returns the stock journal of a product, newest first
// @Summary      Stock movements
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Product ID"
// @Param        limit  query     int     false  "Max entries (default 100)"
// @Success      200    {object}  response.Response{data=[]service.StockMovementResponse}
// @Failure      404    {object}  response.Response
// @Router       /api/products/{id}/movements [get]
func (h *InventoryHandler) GetMovements(c *gin.Context) {
	limit := pagination.Limit(c, pagination.MaxLimit)

	moves, err := h.inventoryService.GetMovements(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, moves))
}
