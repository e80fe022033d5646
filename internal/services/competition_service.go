package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/prizepool/draw-engine-backend/internal/models"
	"github.com/prizepool/draw-engine-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure CompetitionServiceImpl implements CompetitionService
var _ CompetitionService = (*CompetitionServiceImpl)(nil)

// CompetitionServiceImpl handles competition lifecycle and pool generation
type CompetitionServiceImpl struct {
	txRunner        repositories.TxRunner
	competitionRepo repositories.CompetitionRepository
	ticketRepo      repositories.TicketAllocationRepository
	prizeRepo       repositories.InstantWinPrizeRepository
	auditRepo       repositories.DrawAuditLogRepository
}

// NewCompetitionService creates a new CompetitionServiceImpl
func NewCompetitionService(
	txRunner repositories.TxRunner,
	competitionRepo repositories.CompetitionRepository,
	ticketRepo repositories.TicketAllocationRepository,
	prizeRepo repositories.InstantWinPrizeRepository,
	auditRepo repositories.DrawAuditLogRepository,
) *CompetitionServiceImpl {
	return &CompetitionServiceImpl{
		txRunner:        txRunner,
		competitionRepo: competitionRepo,
		ticketRepo:      ticketRepo,
		prizeRepo:       prizeRepo,
		auditRepo:       auditRepo,
	}
}

// CreateCompetition creates a new competition in DRAFT with an unlocked pool
func (s *CompetitionServiceImpl) CreateCompetition(ctx context.Context, title string, capacity, perUserCap int, opensAt, closesAt time.Time) (*models.Competition, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive, got %d", capacity)
	}
	competition := &models.Competition{
		Title:        title,
		Capacity:     capacity,
		PerUserCap:   perUserCap,
		Status:       models.CompetitionStatusDraft,
		PoolStatus:   models.PoolStatusDraft,
		SalesOpenAt:  opensAt,
		SalesCloseAt: closesAt,
	}
	if err := s.competitionRepo.Create(ctx, competition); err != nil {
		slog.Error("Failed to create competition", "error", err, "title", title)
		return nil, fmt.Errorf("failed to create competition: %w", err)
	}
	slog.Info("Competition created", "competitionId", competition.ID, "capacity", capacity)
	return competition, nil
}

// GetCompetition retrieves a competition by ID
func (s *CompetitionServiceImpl) GetCompetition(ctx context.Context, id primitive.ObjectID) (*models.Competition, error) {
	return s.competitionRepo.FindByID(ctx, id)
}

// ListCompetitions retrieves all competitions
func (s *CompetitionServiceImpl) ListCompetitions(ctx context.Context) ([]*models.Competition, error) {
	return s.competitionRepo.FindAll(ctx)
}

// GeneratePool builds the competition's immutable ticket pool: capacity
// unique ticket numbers, each prize unit bound to a distinct randomly chosen
// ticket, all persisted in one transaction that also locks the pool. Failure
// to lock (already locked) is terminal and not retried.
func (s *CompetitionServiceImpl) GeneratePool(ctx context.Context, competitionID primitive.ObjectID, tiers []models.PrizeTierSpec, actor string) (*PoolResult, error) {
	competition, err := s.competitionRepo.FindByID(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if competition.PoolLocked() {
		slog.Warn("Pool generation rejected: already locked", "competitionId", competitionID)
		return nil, models.ErrPoolAlreadyLocked
	}

	totalPrizeUnits := 0
	for _, tier := range tiers {
		if tier.Quantity <= 0 {
			return nil, fmt.Errorf("prize tier %q has non-positive quantity %d", tier.Name, tier.Quantity)
		}
		totalPrizeUnits += tier.Quantity
	}
	if totalPrizeUnits > competition.Capacity {
		slog.Warn("Pool generation rejected: prize quantities exceed capacity",
			"competitionId", competitionID, "prizeUnits", totalPrizeUnits, "capacity", competition.Capacity)
		return nil, models.ErrCapacityExceeded
	}

	// Pick the tickets that carry a prize: a partial Fisher-Yates over the
	// full ticket range, driven by the OS CSPRNG, so every subset of
	// positions is equally likely and no tier clusters anywhere.
	prizePositions, err := samplePositions(competition.Capacity, totalPrizeUnits)
	if err != nil {
		return nil, fmt.Errorf("failed to sample prize positions: %w", err)
	}

	prizes := make([]*models.InstantWinPrize, 0, len(tiers))
	for _, tier := range tiers {
		prizes = append(prizes, &models.InstantWinPrize{
			CompetitionID:     competitionID,
			Name:              tier.Name,
			TierRank:          tier.TierRank,
			ValuePence:        tier.ValuePence,
			TotalQuantity:     tier.Quantity,
			RemainingQuantity: tier.Quantity,
		})
	}

	var lockedAt time.Time
	err = s.txRunner.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.prizeRepo.CreateMany(txCtx, prizes); err != nil {
			return fmt.Errorf("failed to create prize tiers: %w", err)
		}

		// Bind each sampled position to a prize unit, tier by tier.
		prizeByPosition := make(map[int]primitive.ObjectID, totalPrizeUnits)
		cursor := 0
		for _, prize := range prizes {
			for i := 0; i < prize.TotalQuantity; i++ {
				prizeByPosition[prizePositions[cursor]] = prize.ID
				cursor++
			}
		}

		tickets := make([]*models.TicketAllocation, 0, competition.Capacity)
		for number := 1; number <= competition.Capacity; number++ {
			ticket := &models.TicketAllocation{
				CompetitionID: competitionID,
				TicketNumber:  number,
				Sold:          false,
				EntrySource:   models.EntrySourcePaid,
				IsRevealed:    false,
			}
			if prizeID, ok := prizeByPosition[number]; ok {
				id := prizeID
				ticket.PrizeID = &id
			}
			tickets = append(tickets, ticket)
		}
		if err := s.ticketRepo.InsertPool(txCtx, tickets); err != nil {
			return fmt.Errorf("failed to insert ticket pool: %w", err)
		}

		lockedAt = time.Now()
		if err := s.competitionRepo.LockPool(txCtx, competitionID, actor, lockedAt); err != nil {
			return err
		}

		return s.auditRepo.Create(txCtx, &models.DrawAuditLog{
			CompetitionID: competitionID,
			Action:        models.AuditPoolGenerated,
			Actor:         actor,
			Detail: map[string]any{
				"capacity":   competition.Capacity,
				"prizeTiers": len(tiers),
				"prizeUnits": totalPrizeUnits,
			},
		})
	})
	if err != nil {
		slog.Error("Pool generation failed", "error", err, "competitionId", competitionID)
		return nil, err
	}

	slog.Info("Pool generated and locked", "competitionId", competitionID,
		"tickets", competition.Capacity, "prizeUnits", totalPrizeUnits, "actor", actor)
	return &PoolResult{
		CompetitionID: competitionID,
		TicketCount:   competition.Capacity,
		Prizes:        prizes,
		LockedAt:      lockedAt,
	}, nil
}

// ActivateCompetition opens sales. The pool must be locked first so no
// configuration can change while tickets are selling.
func (s *CompetitionServiceImpl) ActivateCompetition(ctx context.Context, competitionID primitive.ObjectID) error {
	competition, err := s.competitionRepo.FindByID(ctx, competitionID)
	if err != nil {
		return err
	}
	if !competition.PoolLocked() {
		return fmt.Errorf("cannot activate competition with unlocked pool: %w", models.ErrInvalidTransition)
	}

	// DRAFT competitions pass through SCHEDULED on their way to ACTIVE.
	if competition.Status == models.CompetitionStatusDraft {
		if err := s.competitionRepo.UpdateStatus(ctx, competitionID, models.CompetitionStatusDraft, models.CompetitionStatusScheduled); err != nil {
			return err
		}
		competition.Status = models.CompetitionStatusScheduled
	}
	if err := s.competitionRepo.UpdateStatus(ctx, competitionID, models.CompetitionStatusScheduled, models.CompetitionStatusActive); err != nil {
		return err
	}
	slog.Info("Competition activated", "competitionId", competitionID)
	return nil
}

// CloseExpired closes every ACTIVE competition whose sales window has passed
func (s *CompetitionServiceImpl) CloseExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.competitionRepo.FindByStatusPastClose(ctx, models.CompetitionStatusActive, now)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired competitions: %w", err)
	}

	closed := 0
	for _, competition := range expired {
		err := s.txRunner.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := s.competitionRepo.UpdateStatus(txCtx, competition.ID, models.CompetitionStatusActive, models.CompetitionStatusClosed); err != nil {
				return err
			}
			return s.auditRepo.Create(txCtx, &models.DrawAuditLog{
				CompetitionID: competition.ID,
				Action:        models.AuditCompetitionClosed,
				Actor:         models.SystemActor,
				Detail:        map[string]any{"salesCloseAt": competition.SalesCloseAt},
			})
		})
		if err != nil {
			slog.Error("Failed to close expired competition", "error", err, "competitionId", competition.ID)
			continue
		}
		closed++
		slog.Info("Competition closed by scheduler", "competitionId", competition.ID)
	}
	return closed, nil
}

// samplePositions selects k distinct values from [1, n] with uniform
// probability via a partial Fisher-Yates shuffle
func samplePositions(n, k int) ([]int, error) {
	positions := make([]int, n)
	for i := range positions {
		positions[i] = i + 1
	}
	for i := 0; i < k; i++ {
		j, err := randInt(n - i)
		if err != nil {
			return nil, err
		}
		positions[i], positions[i+j] = positions[i+j], positions[i]
	}
	return positions[:k], nil
}

// randInt returns a uniform random int in [0, n) from the OS CSPRNG
func randInt(n int) (int, error) {
	if n <= 1 {
		return 0, nil
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
