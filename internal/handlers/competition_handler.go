package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prizepool/draw-engine-backend/internal/models"
	"github.com/prizepool/draw-engine-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompetitionHandler handles competition lifecycle and pool-generation requests
type CompetitionHandler struct {
	competitionService services.CompetitionService
	statsService       services.StatsService
	auditService       services.AuditService
}

// NewCompetitionHandler creates a new CompetitionHandler
func NewCompetitionHandler(
	competitionService services.CompetitionService,
	statsService services.StatsService,
	auditService services.AuditService,
) *CompetitionHandler {
	return &CompetitionHandler{
		competitionService: competitionService,
		statsService:       statsService,
		auditService:       auditService,
	}
}

// CreateCompetitionRequest is the payload for POST /competitions
type CreateCompetitionRequest struct {
	Title        string    `json:"title" binding:"required"`
	Capacity     int       `json:"capacity" binding:"required,gt=0"`
	PerUserCap   int       `json:"perUserCap"`
	SalesOpenAt  time.Time `json:"salesOpenAt" binding:"required"`
	SalesCloseAt time.Time `json:"salesCloseAt" binding:"required"`
}

// CreateCompetition handles POST /competitions
func (h *CompetitionHandler) CreateCompetition(c *gin.Context) {
	var request CreateCompetitionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	competition, err := h.competitionService.CreateCompetition(c.Request.Context(),
		request.Title, request.Capacity, request.PerUserCap, request.SalesOpenAt, request.SalesCloseAt)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, competition)
}

// GetCompetition handles GET /competitions/:id
func (h *CompetitionHandler) GetCompetition(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	competition, err := h.competitionService.GetCompetition(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, competition)
}

// ListCompetitions handles GET /competitions
func (h *CompetitionHandler) ListCompetitions(c *gin.Context) {
	competitions, err := h.competitionService.ListCompetitions(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, competitions)
}

// GeneratePoolRequest is the payload for POST /competitions/:id/pool
type GeneratePoolRequest struct {
	PrizeTiers []models.PrizeTierSpec `json:"prizeTiers"`
}

// GeneratePool handles POST /competitions/:id/pool
func (h *CompetitionHandler) GeneratePool(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	var request GeneratePoolRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.competitionService.GeneratePool(c.Request.Context(), id, request.PrizeTiers, actorFromContext(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ActivateCompetition handles POST /competitions/:id/activate
func (h *CompetitionHandler) ActivateCompetition(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	if err := h.competitionService.ActivateCompetition(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "active"})
}

// GetStats handles GET /competitions/:id/stats
func (h *CompetitionHandler) GetStats(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	stats, err := h.statsService.GetCompetitionStats(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetAudit handles GET /competitions/:id/audit
func (h *CompetitionHandler) GetAudit(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	page, limit := paginationParams(c)
	entries, err := h.auditService.GetCompetitionAudit(c.Request.Context(), id, page, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
