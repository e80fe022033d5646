package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prizepool/draw-engine-backend/internal/models"
	"github.com/prizepool/draw-engine-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure RevealServiceImpl implements RevealService
var _ RevealService = (*RevealServiceImpl)(nil)

// RevealServiceImpl surfaces instant-win outcomes. The prize-to-ticket
// binding was fixed at pool-generation time; this service only records the
// reveal and decrements inventory exactly once. It never re-rolls.
type RevealServiceImpl struct {
	txRunner   repositories.TxRunner
	ticketRepo repositories.TicketAllocationRepository
	prizeRepo  repositories.InstantWinPrizeRepository
}

// NewRevealService creates a new RevealServiceImpl
func NewRevealService(
	txRunner repositories.TxRunner,
	ticketRepo repositories.TicketAllocationRepository,
	prizeRepo repositories.InstantWinPrizeRepository,
) *RevealServiceImpl {
	return &RevealServiceImpl{
		txRunner:   txRunner,
		ticketRepo: ticketRepo,
		prizeRepo:  prizeRepo,
	}
}

// Reveal transitions a ticket's isRevealed flag false->true exactly once and
// returns its outcome. Subsequent calls return the previously recorded
// outcome without touching prize inventory.
func (s *RevealServiceImpl) Reveal(ctx context.Context, ticketID primitive.ObjectID, userID string) (*models.RevealOutcome, error) {
	var outcome *models.RevealOutcome

	err := s.txRunner.WithTransaction(ctx, func(txCtx context.Context) error {
		ticket, err := s.ticketRepo.FindByID(txCtx, ticketID)
		if err != nil {
			return err
		}
		if !ticket.Sold {
			return models.ErrTicketNotSold
		}
		if ticket.UserID != userID {
			return models.ErrNotTicketOwner
		}

		revealed, err := s.ticketRepo.MarkRevealed(txCtx, ticketID, time.Now())
		if err != nil {
			if errors.Is(err, models.ErrAlreadyRevealed) {
				// A previous call won the conditional update; report its
				// recorded outcome.
				outcome, err = s.buildOutcome(txCtx, ticket, true)
				return err
			}
			return err
		}

		if revealed.HasPrize() {
			if err := s.prizeRepo.DecrementRemaining(txCtx, *revealed.PrizeID); err != nil {
				if errors.Is(err, models.ErrPrizeExhausted) {
					// Structurally impossible when the pool generator bound
					// exactly totalQuantity tickets per tier. Abort so the
					// reveal flag rolls back, and escalate loudly.
					slog.Error("FATAL: prize inventory exhausted on bound ticket, pool generation is broken",
						"ticketId", ticketID, "prizeId", revealed.PrizeID.Hex())
				}
				return err
			}
		}

		outcome, err = s.buildOutcome(txCtx, revealed, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Ticket revealed", "ticketId", ticketID, "won", outcome.Won,
		"alreadyRevealed", outcome.AlreadyRevealed)
	return outcome, nil
}

// buildOutcome assembles the reveal response, resolving the prize name when
// the ticket carries a binding
func (s *RevealServiceImpl) buildOutcome(ctx context.Context, ticket *models.TicketAllocation, alreadyRevealed bool) (*models.RevealOutcome, error) {
	outcome := &models.RevealOutcome{
		TicketID:        ticket.ID,
		TicketNumber:    ticket.TicketNumber,
		Won:             ticket.HasPrize(),
		PrizeID:         ticket.PrizeID,
		AlreadyRevealed: alreadyRevealed,
		RevealedAt:      ticket.RevealedAt,
	}
	if ticket.HasPrize() {
		prize, err := s.prizeRepo.FindByID(ctx, *ticket.PrizeID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve prize for ticket %s: %w", ticket.ID.Hex(), err)
		}
		outcome.PrizeName = prize.Name
	}
	return outcome, nil
}
