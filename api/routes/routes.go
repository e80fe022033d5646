package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/prizepool/draw-engine-backend/internal/config"
	"github.com/prizepool/draw-engine-backend/internal/handlers"
	"github.com/prizepool/draw-engine-backend/internal/middleware"
)

// Handlers bundles the HTTP handlers wired into the router.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Competition *handlers.CompetitionHandler
	Ticket      *handlers.TicketHandler
	Draw        *handlers.DrawHandler
	Wallet      *handlers.WalletHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, h *Handlers) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})

		auth := public.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
		}

		// Purchase and reveal are driven by the buyer-facing storefront
		tickets := public.Group("/tickets")
		{
			tickets.POST("/claim", h.Ticket.ClaimTickets)
			tickets.POST("/:id/reveal", h.Ticket.Reveal)
		}

		// Anyone holding a draw ID can replay the proof chain
		public.GET("/draws/:id/verify", h.Draw.VerifyDraw)
		public.GET("/competitions/:id/stats", h.Competition.GetStats)
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	{
		competitions := protected.Group("/competitions")
		{
			competitions.GET("", h.Competition.ListCompetitions)
			competitions.GET("/:id", h.Competition.GetCompetition)
			competitions.GET("/:id/audit", h.Competition.GetAudit)
			competitions.GET("/:id/snapshot", h.Draw.GetSnapshot)
			competitions.POST("", h.Competition.CreateCompetition)
			competitions.POST("/:id/pool", h.Competition.GeneratePool)
			competitions.POST("/:id/activate", h.Competition.ActivateCompetition)
			competitions.POST("/:id/snapshot", h.Draw.CreateSnapshot)
			competitions.POST("/:id/draw", h.Draw.ExecuteDraw)
		}

		draws := protected.Group("/draws")
		{
			draws.GET("/:id", h.Draw.GetDraw)
		}

		wallet := protected.Group("/wallet")
		{
			wallet.GET("/:userId/balance", h.Wallet.GetBalance)
			wallet.GET("/:userId/transactions", h.Wallet.GetTransactions)
			wallet.POST("/credit", h.Wallet.Credit)
			wallet.POST("/debit", h.Wallet.Debit)
		}
	}

	return router
}
