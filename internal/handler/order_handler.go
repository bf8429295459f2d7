package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/internal/websocket"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService service.OrderService
	auditService service.AuditService
	hub          *websocket.Hub
}

func NewOrderHandler(orderService service.OrderService, auditService service.AuditService, hub *websocket.Hub) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		auditService: auditService,
		hub:          hub,
	}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		orders.POST("", middleware.RequireRole("admin", "staff"), h.CreateOrder)
		orders.GET("", middleware.RequireRole("admin", "staff"), h.ListOrders)
		orders.GET("/:id", middleware.RequireRole("admin", "staff"), h.GetOrder)
		orders.PUT("/:id", middleware.RequireRole("admin", "staff"), h.UpdateOrder)
		orders.PUT("/:id/paid", middleware.RequireRole("admin", "staff"), h.MarkPaid)
		orders.POST("/:id/items", middleware.RequireRole("admin", "staff"), h.AddItem)
		orders.PUT("/:id/items/:itemId/quantity", middleware.RequireRole("admin", "staff"), h.UpdateItemQuantity)
		orders.PUT("/:id/items/:itemId/cancel", middleware.RequireRole("admin", "staff"), h.ToggleItemCancellation)
		orders.GET("/:id/history", middleware.RequireRole("admin"), h.GetOrderHistory)
	}
}

func currentUserID(c *gin.Context) string {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)
	return userIDStr
}

// CreateOrder creates a new order with its items
// @Summary      Create order
// @Description  Creates an order, applies wallet funds, issues stock and binds an invoice
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderRequest  true  "Create Order Payload"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	h.hub.Notify(websocket.EventOrderCreated, order)
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListOrders returns a paginated list of orders
// @Summary      List orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        status     query     string  false  "Filter by payment status (PENDING, PAID, CANCELLED)"
// @Param        member_id  query     string  false  "Filter by member"
// @Param        depot_id   query     string  false  "Filter by depot"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Success      200        {object}  response.Response{data=object}
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	p := pagination.Parse(c)

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), service.OrderListFilter{
		PaymentStatus: c.Query("status"),
		MemberID:      c.Query("member_id"),
		DepotID:       c.Query("depot_id"),
		Page:          p.Page,
		Limit:         p.Limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"page":   p.Page,
		"limit":  p.Limit,
	}))
}

// GetOrder returns one order with items
// @Summary      Get order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateOrder updates customer fields, delivery fee or payment status
// @Summary      Update order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Order ID"
// @Param        payload  body      service.UpdateOrderRequest  true  "Update Order Payload"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/orders/{id} [put]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var req service.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	h.hub.Notify(websocket.EventOrderUpdated, order)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// MarkPaid transitions a pending order to PAID
// @Summary      Mark order paid
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Order ID"
// @Param        payload  body      service.MarkPaidRequest  true  "Payment metadata"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/orders/{id}/paid [put]
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	var req service.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.MarkPaid(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	h.hub.Notify(websocket.EventOrderUpdated, order)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// AddItem appends a line item to an existing order
// @Summary      Add order item
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Order ID"
// @Param        payload  body      service.AddItemRequest  true  "Item Payload"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/orders/{id}/items [post]
func (h *OrderHandler) AddItem(c *gin.Context) {
	var req service.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.AddItem(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	h.hub.Notify(websocket.EventOrderUpdated, order)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// UpdateItemQuantity changes a line item's quantity
// @Summary      Update item quantity
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Order ID"
// @Param        itemId   path      string                 true  "Item ID"
// @Param        payload  body      updateQuantityRequest  true  "New quantity"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/orders/{id}/items/{itemId}/quantity [put]
func (h *OrderHandler) UpdateItemQuantity(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.UpdateItemQuantity(c.Request.Context(),
		currentUserID(c), c.Param("id"), c.Param("itemId"), req.Quantity)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	h.hub.Notify(websocket.EventOrderUpdated, order)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

type toggleCancelRequest struct {
	IsCancelled bool `json:"is_cancelled"`
}

// ToggleItemCancellation cancels or restores a line item
// @Summary      Toggle item cancellation
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Order ID"
// @Param        itemId   path      string               true  "Item ID"
// @Param        payload  body      toggleCancelRequest  true  "Cancellation flag"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Router       /api/orders/{id}/items/{itemId}/cancel [put]
func (h *OrderHandler) ToggleItemCancellation(c *gin.Context) {
	var req toggleCancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.ToggleItemCancellation(c.Request.Context(),
		currentUserID(c), c.Param("id"), c.Param("itemId"), req.IsCancelled)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	h.hub.Notify(websocket.EventOrderUpdated, order)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// GetOrderHistory returns the audit trail for one order
// @Summary      Order change history
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=[]service.AuditLogResponse}
// @Router       /api/orders/{id}/history [get]
func (h *OrderHandler) GetOrderHistory(c *gin.Context) {
	logs, err := h.auditService.GetOrderHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}
