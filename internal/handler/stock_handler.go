package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/internal/websocket"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StockHandler struct {
	stockService service.StockService
	hub          *websocket.Hub
}

func NewStockHandler(stockService service.StockService, hub *websocket.Hub) *StockHandler {
	return &StockHandler{stockService: stockService, hub: hub}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stock := router.Group("/api/stock")
	{
		stock.POST("/receive", middleware.RequireRole("admin", "staff"), h.ReceiveStock)
		stock.GET("/on-hand", middleware.RequireRole("admin", "staff"), h.GetOnHand)
	}
	router.GET("/api/depots/:id/variants", middleware.RequireRole("admin", "staff"), h.ListDepotVariants)
}

type receiveStockRequest struct {
	VariantID string `json:"variant_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// ReceiveStock records incoming stock at a depot
// @Summary      Receive stock
// @Description  Appends a received-quantity ledger entry and raises the variant's closing quantity
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      receiveStockRequest  true  "Receive Payload"
// @Success      200      {object}  response.Response{data=model.DepotProductVariant}
// @Failure      404      {object}  response.Response
// @Router       /api/stock/receive [post]
func (h *StockHandler) ReceiveStock(c *gin.Context) {
	var req receiveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	variantID, err := uuid.Parse(req.VariantID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid variant id"))
		return
	}

	var userID *uuid.UUID
	if uid, err := uuid.Parse(currentUserID(c)); err == nil {
		userID = &uid
	}

	variant, err := h.stockService.Receive(c.Request.Context(), variantID, req.Quantity, model.StockModuleDepotReceive, userID)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	h.hub.Notify(websocket.EventStockAdjusted, variant)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, variant))
}

// GetOnHand returns the ledger-derived on-hand quantity for a stock unit
// @Summary      On-hand quantity
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        product_id  query     string  true  "Product ID"
// @Param        variant_id  query     string  true  "Variant ID"
// @Param        depot_id    query     string  true  "Depot ID"
// @Success      200         {object}  response.Response{data=object}
// @Router       /api/stock/on-hand [get]
func (h *StockHandler) GetOnHand(c *gin.Context) {
	productID, err1 := uuid.Parse(c.Query("product_id"))
	variantID, err2 := uuid.Parse(c.Query("variant_id"))
	depotID, err3 := uuid.Parse(c.Query("depot_id"))
	if err1 != nil || err2 != nil || err3 != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "product_id, variant_id and depot_id are required"))
		return
	}

	onHand, err := h.stockService.OnHand(c.Request.Context(), productID, variantID, depotID)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"product_id": productID,
		"variant_id": variantID,
		"depot_id":   depotID,
		"on_hand":    onHand,
	}))
}

// ListDepotVariants returns the sellable variants of one depot
// @Summary      List depot variants
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Depot ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/depots/{id}/variants [get]
func (h *StockHandler) ListDepotVariants(c *gin.Context) {
	depotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid depot id"))
		return
	}

	p := pagination.Parse(c)

	variants, total, err := h.stockService.VariantsByDepot(c.Request.Context(), depotID, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"variants": variants,
		"total":    total,
		"page":     p.Page,
		"limit":    p.Limit,
	}))
}
