package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/prizepool/draw-engine-backend/internal/models"
	"github.com/prizepool/draw-engine-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compile-time check to ensure StatsServiceImpl implements StatsService
var _ StatsService = (*StatsServiceImpl)(nil)

// StatsServiceImpl serves the read-only pool/draw statistics for dashboards.
// Sold counts are always derived by query over ticket allocations; there is
// no separately maintained counter to drift. A short TTL cache keeps the
// dashboard from hammering the store during busy sales windows.
type StatsServiceImpl struct {
	competitionRepo repositories.CompetitionRepository
	ticketRepo      repositories.TicketAllocationRepository
	prizeRepo       repositories.InstantWinPrizeRepository
	snapshotRepo    repositories.DrawSnapshotRepository
	drawRepo        repositories.DrawRepository
	cache           *gocache.Cache
}

// NewStatsService creates a new StatsServiceImpl with the given cache TTL
func NewStatsService(
	competitionRepo repositories.CompetitionRepository,
	ticketRepo repositories.TicketAllocationRepository,
	prizeRepo repositories.InstantWinPrizeRepository,
	snapshotRepo repositories.DrawSnapshotRepository,
	drawRepo repositories.DrawRepository,
	ttl time.Duration,
) *StatsServiceImpl {
	return &StatsServiceImpl{
		competitionRepo: competitionRepo,
		ticketRepo:      ticketRepo,
		prizeRepo:       prizeRepo,
		snapshotRepo:    snapshotRepo,
		drawRepo:        drawRepo,
		cache:           gocache.New(ttl, 2*ttl),
	}
}

// GetCompetitionStats returns tickets sold, prize inventory and draw status
// for a competition
func (s *StatsServiceImpl) GetCompetitionStats(ctx context.Context, competitionID primitive.ObjectID) (*models.CompetitionStats, error) {
	key := competitionID.Hex()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*models.CompetitionStats), nil
	}

	competition, err := s.competitionRepo.FindByID(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	sold, err := s.ticketRepo.CountSold(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sold tickets: %w", err)
	}

	prizes, err := s.prizeRepo.FindByCompetitionID(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prize tiers: %w", err)
	}
	tierStats := make([]models.PrizeTierStats, 0, len(prizes))
	for _, prize := range prizes {
		tierStats = append(tierStats, models.PrizeTierStats{
			PrizeID:           prize.ID,
			Name:              prize.Name,
			TierRank:          prize.TierRank,
			TotalQuantity:     prize.TotalQuantity,
			RemainingQuantity: prize.RemainingQuantity,
		})
	}

	snapshotTaken := true
	if _, err := s.snapshotRepo.FindByCompetitionID(ctx, competitionID); err != nil {
		if !errors.Is(err, models.ErrSnapshotMissing) {
			return nil, err
		}
		snapshotTaken = false
	}

	drawExecuted := true
	if _, err := s.drawRepo.FindByCompetitionID(ctx, competitionID); err != nil {
		if !errors.Is(err, models.ErrDrawNotFound) {
			return nil, err
		}
		drawExecuted = false
	}

	stats := &models.CompetitionStats{
		CompetitionID: competitionID,
		Status:        competition.Status,
		Capacity:      competition.Capacity,
		TicketsSold:   int(sold),
		Prizes:        tierStats,
		SnapshotTaken: snapshotTaken,
		DrawExecuted:  drawExecuted,
	}
	s.cache.SetDefault(key, stats)
	return stats, nil
}
