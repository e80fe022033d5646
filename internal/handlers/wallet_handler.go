package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prizepool/draw-engine-backend/internal/services"
)

// WalletHandler handles wallet ledger requests
type WalletHandler struct {
	walletService services.WalletService
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(walletService services.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// CreditRequest is the payload for POST /wallet/credit
type CreditRequest struct {
	UserID      string     `json:"userId" binding:"required"`
	AmountPence int64      `json:"amountPence" binding:"required,gt=0"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	Description string     `json:"description"`
	Source      string     `json:"source"`
}

// Credit handles POST /wallet/credit
func (h *WalletHandler) Credit(c *gin.Context) {
	var request CreditRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var expiry time.Time
	if request.ExpiresAt != nil {
		expiry = *request.ExpiresAt
	}
	tx, err := h.walletService.Credit(c.Request.Context(),
		request.UserID, request.AmountPence, expiry, request.Description, request.Source)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// DebitRequest is the payload for POST /wallet/debit
type DebitRequest struct {
	UserID      string `json:"userId" binding:"required"`
	AmountPence int64  `json:"amountPence" binding:"required,gt=0"`
	Description string `json:"description"`
}

// Debit handles POST /wallet/debit
func (h *WalletHandler) Debit(c *gin.Context) {
	var request DebitRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := h.walletService.Debit(c.Request.Context(), request.UserID, request.AmountPence, request.Description)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// GetBalance handles GET /wallet/:userId/balance
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID := c.Param("userId")
	balance, err := h.walletService.Balance(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID, "balancePence": balance})
}

// GetTransactions handles GET /wallet/:userId/transactions
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID := c.Param("userId")
	page, limit := paginationParams(c)
	txs, err := h.walletService.Transactions(c.Request.Context(), userID, page, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}
