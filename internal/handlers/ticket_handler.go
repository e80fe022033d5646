package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prizepool/draw-engine-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TicketHandler handles the buyer-facing claim and reveal endpoints
type TicketHandler struct {
	allocationService services.AllocationService
	revealService     services.RevealService
}

// NewTicketHandler creates a new TicketHandler
func NewTicketHandler(allocationService services.AllocationService, revealService services.RevealService) *TicketHandler {
	return &TicketHandler{
		allocationService: allocationService,
		revealService:     revealService,
	}
}

// ClaimTicketsRequest is the payload for POST /tickets/claim. It arrives
// from the order flow after payment clears.
type ClaimTicketsRequest struct {
	CompetitionID string `json:"competitionId" binding:"required"`
	OrderID       string `json:"orderId" binding:"required"`
	UserID        string `json:"userId" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required,gt=0"`
}

// ClaimTickets handles POST /tickets/claim
func (h *TicketHandler) ClaimTickets(c *gin.Context) {
	var request ClaimTicketsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	competitionID, err := primitive.ObjectIDFromHex(request.CompetitionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid competition ID format"})
		return
	}
	result, err := h.allocationService.ClaimTickets(c.Request.Context(),
		competitionID, request.OrderID, request.UserID, request.Quantity)
	if err != nil {
		abortWithError(c, err)
		return
	}
	status := http.StatusCreated
	if result.AlreadyHeld {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// RevealRequest is the payload for POST /tickets/:id/reveal
type RevealRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// Reveal handles POST /tickets/:id/reveal
func (h *TicketHandler) Reveal(c *gin.Context) {
	ticketID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket ID format"})
		return
	}
	var request RevealRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	outcome, err := h.revealService.Reveal(c.Request.Context(), ticketID, request.UserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}
