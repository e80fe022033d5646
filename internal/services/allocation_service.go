package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prizepool/draw-engine-backend/internal/models"
	"github.com/prizepool/draw-engine-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure AllocationServiceImpl implements AllocationService
var _ AllocationService = (*AllocationServiceImpl)(nil)

// AllocationServiceImpl atomically assigns unsold tickets to paying orders.
// This is the highest-contention path in the system: many buyers race for
// the same finite pool, so every claim is a conditional per-ticket update
// inside one all-or-nothing transaction.
type AllocationServiceImpl struct {
	txRunner        repositories.TxRunner
	competitionRepo repositories.CompetitionRepository
	ticketRepo      repositories.TicketAllocationRepository
}

// NewAllocationService creates a new AllocationServiceImpl
func NewAllocationService(
	txRunner repositories.TxRunner,
	competitionRepo repositories.CompetitionRepository,
	ticketRepo repositories.TicketAllocationRepository,
) *AllocationServiceImpl {
	return &AllocationServiceImpl{
		txRunner:        txRunner,
		competitionRepo: competitionRepo,
		ticketRepo:      ticketRepo,
	}
}

// ClaimTickets sells quantity tickets to an order, all-or-nothing. A retry
// with an orderID that already holds tickets returns those tickets unchanged
// rather than double-allocating.
func (s *AllocationServiceImpl) ClaimTickets(ctx context.Context, competitionID primitive.ObjectID, orderID, userID string, quantity int) (*ClaimResult, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	if orderID == "" || userID == "" {
		return nil, fmt.Errorf("orderID and userID are required")
	}

	competition, err := s.competitionRepo.FindByID(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if competition.Status != models.CompetitionStatusActive {
		return nil, fmt.Errorf("competition %s is not selling (status %s): %w",
			competitionID.Hex(), competition.Status, models.ErrInvalidTransition)
	}

	result := &ClaimResult{
		CompetitionID: competitionID,
		OrderID:       orderID,
	}

	err = s.txRunner.WithTransaction(ctx, func(txCtx context.Context) error {
		// Idempotency: a previous attempt for this order may have committed
		// before the caller saw the response.
		existing, err := s.ticketRepo.FindByOrderID(txCtx, competitionID, orderID)
		if err != nil {
			return fmt.Errorf("failed to check existing allocation: %w", err)
		}
		if len(existing) > 0 {
			result.Tickets = existing
			result.Receipt = existing[0].ClaimReceipt
			result.AlreadyHeld = true
			return nil
		}

		// Per-user cap. The reservation writes a per-user counter document
		// rather than counting tickets: counting reads would let two
		// concurrent orders from the same user both pass under snapshot
		// isolation, since their claims touch disjoint documents.
		if competition.PerUserCap > 0 {
			if err := s.ticketRepo.ReserveUserQuota(txCtx, competitionID, userID, quantity, competition.PerUserCap); err != nil {
				return err
			}
		}

		receipt := uuid.NewString()
		soldAt := time.Now()
		tickets := make([]*models.TicketAllocation, 0, quantity)
		for i := 0; i < quantity; i++ {
			ticket, err := s.ticketRepo.ClaimOne(txCtx, competitionID, orderID, userID, receipt, soldAt)
			if err != nil {
				// Shortfall aborts the transaction; the tickets claimed so
				// far roll back and the buyer gets nothing rather than a
				// partial order.
				return err
			}
			tickets = append(tickets, ticket)
		}
		result.Tickets = tickets
		result.Receipt = receipt
		return nil
	})
	if err != nil {
		slog.Warn("Ticket claim failed", "error", err, "competitionId", competitionID,
			"orderId", orderID, "quantity", quantity)
		return nil, err
	}

	slog.Info("Tickets claimed", "competitionId", competitionID, "orderId", orderID,
		"quantity", len(result.Tickets), "idempotentReplay", result.AlreadyHeld)
	return result, nil
}
