package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/internal/websocket"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	walletService service.WalletService
	hub           *websocket.Hub
}

func NewWalletHandler(walletService service.WalletService, hub *websocket.Hub) *WalletHandler {
	return &WalletHandler{walletService: walletService, hub: hub}
}

func (h *WalletHandler) RegisterRoutes(router *gin.RouterGroup) {
	wallet := router.Group("/api/members/:id/wallet")
	{
		wallet.POST("/credit", middleware.RequireRole("admin", "staff"), h.Credit)
		wallet.POST("/debit", middleware.RequireRole("admin"), h.Debit)
		wallet.GET("", middleware.RequireRole("admin", "staff"), h.GetWallet)
	}
}

type walletMutationRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	PaymentMethod string  `json:"payment_method"`
	ReferenceNo   string  `json:"reference_no"`
	Notes         string  `json:"notes"`
}

func (h *WalletHandler) buildRequest(c *gin.Context, body walletMutationRequest) (service.WalletTxRequest, bool) {
	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid member id"))
		return service.WalletTxRequest{}, false
	}

	req := service.WalletTxRequest{
		MemberID:      memberID,
		Amount:        decimal.NewFromFloat(body.Amount).Round(2),
		PaymentMethod: body.PaymentMethod,
		ReferenceNo:   body.ReferenceNo,
		Notes:         body.Notes,
	}
	if uid, err := uuid.Parse(currentUserID(c)); err == nil {
		req.ProcessedByID = &uid
	}
	return req, true
}

// Credit adds funds to a member's wallet
// @Summary      Credit wallet
// @Tags         wallet
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Member ID"
// @Param        payload  body      walletMutationRequest  true  "Credit Payload"
// @Success      201      {object}  response.Response{data=model.WalletTransaction}
// @Failure      400      {object}  response.Response
// @Router       /api/members/{id}/wallet/credit [post]
func (h *WalletHandler) Credit(c *gin.Context) {
	var body walletMutationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	req, ok := h.buildRequest(c, body)
	if !ok {
		return
	}

	tx, err := h.walletService.Credit(c.Request.Context(), req)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	h.hub.Notify(websocket.EventWalletChanged, tx)
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tx))
}

// Debit removes funds from a member's wallet
// @Summary      Debit wallet
// @Tags         wallet
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Member ID"
// @Param        payload  body      walletMutationRequest  true  "Debit Payload"
// @Success      201      {object}  response.Response{data=model.WalletTransaction}
// @Failure      422      {object}  response.Response
// @Router       /api/members/{id}/wallet/debit [post]
func (h *WalletHandler) Debit(c *gin.Context) {
	var body walletMutationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	req, ok := h.buildRequest(c, body)
	if !ok {
		return
	}

	tx, err := h.walletService.Debit(c.Request.Context(), req)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	h.hub.Notify(websocket.EventWalletChanged, tx)
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tx))
}

// GetWallet returns the balance and transaction history
// @Summary      Wallet balance and history
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Member ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/members/{id}/wallet [get]
func (h *WalletHandler) GetWallet(c *gin.Context) {
	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid member id"))
		return
	}

	p := pagination.Parse(c)

	balance, err := h.walletService.Balance(c.Request.Context(), memberID)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	txs, total, err := h.walletService.Transactions(c.Request.Context(), memberID, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"balance":      balance.StringFixed(2),
		"transactions": txs,
		"total":        total,
		"page":         p.Page,
		"limit":        p.Limit,
	}))
}
