package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"

	"github.com/prizepool/draw-engine-backend/api/routes"
	"github.com/prizepool/draw-engine-backend/internal/config"
	"github.com/prizepool/draw-engine-backend/internal/handlers"
	"github.com/prizepool/draw-engine-backend/internal/models"
	mongorepo "github.com/prizepool/draw-engine-backend/internal/repositories/mongodb"
	"github.com/prizepool/draw-engine-backend/internal/scheduler"
	"github.com/prizepool/draw-engine-backend/internal/services"
	"github.com/prizepool/draw-engine-backend/pkg/mongodb"
	"github.com/prizepool/draw-engine-backend/pkg/seedsource"
)

func main() {
	// .env is optional, real deployments set environment variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	})))

	mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			slog.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelIndex()
	if err := mongorepo.EnsureIndexes(indexCtx, db); err != nil {
		slog.Error("Failed to ensure indexes", "error", err)
		os.Exit(1)
	}

	// Repositories
	txRunner := mongorepo.NewTxRunner(mongoClient.Raw())
	competitionRepo := mongorepo.NewCompetitionRepository(db)
	ticketRepo := mongorepo.NewTicketAllocationRepository(db)
	prizeRepo := mongorepo.NewInstantWinPrizeRepository(db)
	snapshotRepo := mongorepo.NewDrawSnapshotRepository(db)
	drawRepo := mongorepo.NewDrawRepository(db)
	auditRepo := mongorepo.NewDrawAuditLogRepository(db)
	walletRepo := mongorepo.NewWalletRepository(db)
	adminUserRepo := mongorepo.NewAdminUserRepository(db)

	// Seed source for draw execution
	var seedSrc seedsource.Source
	switch cfg.Draw.SeedSource {
	case "DRAND_BEACON":
		seedSrc = seedsource.NewDrandSource(cfg.Draw.DrandURL, 10*time.Second)
	default:
		seedSrc = seedsource.NewLocalSource()
	}
	slog.Info("Seed source configured", "source", seedSrc.Name())

	// Services
	competitionService := services.NewCompetitionService(txRunner, competitionRepo, ticketRepo, prizeRepo, auditRepo)
	allocationService := services.NewAllocationService(txRunner, competitionRepo, ticketRepo)
	revealService := services.NewRevealService(txRunner, ticketRepo, prizeRepo)
	drawService := services.NewDrawService(txRunner, competitionRepo, ticketRepo, snapshotRepo, drawRepo, auditRepo,
		seedSrc, models.EligibilityPolicy(cfg.Draw.EligibilityPolicy))
	walletService := services.NewWalletService(txRunner, walletRepo)
	statsService := services.NewStatsService(competitionRepo, ticketRepo, prizeRepo, snapshotRepo, drawRepo,
		time.Duration(cfg.Stats.CacheTTLSeconds)*time.Second)
	auditService := services.NewAuditService(auditRepo)
	authService := services.NewAuthService(adminUserRepo, cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second)

	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelBootstrap()
	if err := authService.EnsureBootstrapAdmin(bootstrapCtx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
		slog.Error("Failed to ensure bootstrap admin", "error", err)
		os.Exit(1)
	}

	// Handlers
	h := &routes.Handlers{
		Auth:        handlers.NewAuthHandler(authService),
		Competition: handlers.NewCompetitionHandler(competitionService, statsService, auditService),
		Ticket:      handlers.NewTicketHandler(allocationService, revealService),
		Draw:        handlers.NewDrawHandler(drawService),
		Wallet:      handlers.NewWalletHandler(walletService),
	}

	router := routes.SetupRouter(cfg, h)

	sched := scheduler.New(cfg, competitionService, drawService)
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exiting")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
