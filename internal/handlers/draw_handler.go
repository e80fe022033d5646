package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prizepool/draw-engine-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DrawHandler handles snapshot, draw execution and verification requests
type DrawHandler struct {
	drawService services.DrawService
}

// NewDrawHandler creates a new DrawHandler
func NewDrawHandler(drawService services.DrawService) *DrawHandler {
	return &DrawHandler{drawService: drawService}
}

// CreateSnapshot handles POST /competitions/:id/snapshot
func (h *DrawHandler) CreateSnapshot(c *gin.Context) {
	competitionID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid competition ID format"})
		return
	}
	snapshot, err := h.drawService.CreateSnapshot(c.Request.Context(), competitionID, actorFromContext(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}

// ExecuteDraw handles POST /competitions/:id/draw
func (h *DrawHandler) ExecuteDraw(c *gin.Context) {
	competitionID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid competition ID format"})
		return
	}
	draw, err := h.drawService.ExecuteDraw(c.Request.Context(), competitionID, actorFromContext(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, draw)
}

// GetDraw handles GET /draws/:id
func (h *DrawHandler) GetDraw(c *gin.Context) {
	drawID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid draw ID format"})
		return
	}
	draw, err := h.drawService.GetDraw(c.Request.Context(), drawID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, draw)
}

// VerifyDraw handles GET /draws/:id/verify. Public: anyone holding the draw
// ID can replay the proof chain.
func (h *DrawHandler) VerifyDraw(c *gin.Context) {
	drawID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid draw ID format"})
		return
	}
	report, err := h.drawService.VerifyDraw(c.Request.Context(), drawID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetSnapshot handles GET /competitions/:id/snapshot
func (h *DrawHandler) GetSnapshot(c *gin.Context) {
	competitionID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid competition ID format"})
		return
	}
	snapshot, err := h.drawService.GetSnapshot(c.Request.Context(), competitionID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
