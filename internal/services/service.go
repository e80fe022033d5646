package services

import (
	"context"
	"time"

	"github.com/prizepool/draw-engine-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompetitionService defines competition lifecycle and pool generation
// operations. Pool generation is the linchpin: after it succeeds, ticket and
// prize configuration is immutable and later reveals and draws can be trusted.
type CompetitionService interface {
	CreateCompetition(ctx context.Context, title string, capacity, perUserCap int, opensAt, closesAt time.Time) (*models.Competition, error)
	GetCompetition(ctx context.Context, id primitive.ObjectID) (*models.Competition, error)
	ListCompetitions(ctx context.Context) ([]*models.Competition, error)

	// GeneratePool builds the immutable ticket pool and distributes
	// instant-win prize units across it, then locks the pool.
	GeneratePool(ctx context.Context, competitionID primitive.ObjectID, tiers []models.PrizeTierSpec, actor string) (*PoolResult, error)

	// ActivateCompetition opens sales (SCHEDULED -> ACTIVE).
	ActivateCompetition(ctx context.Context, competitionID primitive.ObjectID) error

	// CloseExpired closes every ACTIVE competition whose sales window has
	// passed. Called by the scheduler; returns how many were closed.
	CloseExpired(ctx context.Context, now time.Time) (int, error)
}

// PoolResult reports what pool generation produced
type PoolResult struct {
	CompetitionID primitive.ObjectID        `json:"competitionId"`
	TicketCount   int                       `json:"ticketCount"`
	Prizes        []*models.InstantWinPrize `json:"prizes"`
	LockedAt      time.Time                 `json:"lockedAt"`
}

// AllocationService defines ticket claiming
type AllocationService interface {
	// ClaimTickets atomically sells quantity tickets to an order,
	// all-or-nothing. Retrying with the same orderID is safe: a previous
	// successful claim is returned unchanged.
	ClaimTickets(ctx context.Context, competitionID primitive.ObjectID, orderID, userID string, quantity int) (*ClaimResult, error)
}

// ClaimResult is the outcome of a ticket claim
type ClaimResult struct {
	CompetitionID primitive.ObjectID         `json:"competitionId"`
	OrderID       string                     `json:"orderId"`
	Receipt       string                     `json:"receipt"`
	Tickets       []*models.TicketAllocation `json:"tickets"`
	AlreadyHeld   bool                       `json:"alreadyHeld"`
}

// RevealService defines instant-win resolution
type RevealService interface {
	// Reveal surfaces the prize outcome fixed at pool-generation time.
	// Idempotent: repeated calls return the recorded outcome without a
	// second inventory decrement.
	Reveal(ctx context.Context, ticketID primitive.ObjectID, userID string) (*models.RevealOutcome, error)
}

// DrawService defines snapshot, draw execution and verification
type DrawService interface {
	// CreateSnapshot freezes the draw-eligible entry set of a closed
	// competition into an immutable, hashed record.
	CreateSnapshot(ctx context.Context, competitionID primitive.ObjectID, actor string) (*models.DrawSnapshot, error)

	// ExecuteDraw runs the end-of-competition draw over the snapshot.
	// Exactly-once per competition; never retried automatically.
	ExecuteDraw(ctx context.Context, competitionID primitive.ObjectID, actor string) (*models.Draw, error)

	// VerifyDraw recomputes the proof chain for a draw. Read-only and
	// callable by non-privileged actors.
	VerifyDraw(ctx context.Context, drawID primitive.ObjectID) (*models.VerificationReport, error)

	GetDraw(ctx context.Context, drawID primitive.ObjectID) (*models.Draw, error)
	GetSnapshot(ctx context.Context, competitionID primitive.ObjectID) (*models.DrawSnapshot, error)

	// SnapshotBacklog lists competitions that closed before the given time
	// and still have no snapshot. Called by the scheduler to flag stalled
	// draws to operators.
	SnapshotBacklog(ctx context.Context, closedBefore time.Time) ([]*models.Competition, error)
}

// WalletService defines the credit ledger used for prize cash alternatives
type WalletService interface {
	Credit(ctx context.Context, userID string, amountPence int64, expiry time.Time, description, source string) (*models.WalletTransaction, error)
	Debit(ctx context.Context, userID string, amountPence int64, description string) (*models.WalletTransaction, error)
	Balance(ctx context.Context, userID string) (int64, error)
	Transactions(ctx context.Context, userID string, page, limit int) ([]*models.WalletTransaction, error)
}

// StatsService defines the read-only dashboard queries
type StatsService interface {
	GetCompetitionStats(ctx context.Context, competitionID primitive.ObjectID) (*models.CompetitionStats, error)
}

// AuditService defines read access to the append-only audit trail
type AuditService interface {
	GetCompetitionAudit(ctx context.Context, competitionID primitive.ObjectID, page, limit int) ([]*models.DrawAuditLog, error)
}

// AuthService defines operator authentication
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	// EnsureBootstrapAdmin creates the initial operator account from
	// configuration when the collection is empty.
	EnsureBootstrapAdmin(ctx context.Context, email, password string) error
}
