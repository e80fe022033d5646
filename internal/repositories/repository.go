package repositories

import (
	"context"
	"time"

	"github.com/prizepool/draw-engine-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TxRunner runs a function inside one all-or-nothing transaction. Every
// repository call made with the context passed to fn participates in that
// transaction; if fn returns an error nothing is persisted. Services express
// each mutating operation as a single TxRunner unit; correctness comes from
// the store, never from read-then-write sequences in caller code.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CompetitionRepository defines competition data operations. Status and pool
// transitions are conditional updates: they only apply when the document is
// still in the expected prior state.
type CompetitionRepository interface {
	Create(ctx context.Context, competition *models.Competition) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Competition, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.CompetitionStatus) error
	LockPool(ctx context.Context, id primitive.ObjectID, actor string, at time.Time) error
	FindByStatusPastClose(ctx context.Context, status models.CompetitionStatus, before time.Time) ([]*models.Competition, error)
	FindAll(ctx context.Context) ([]*models.Competition, error)
}

// TicketAllocationRepository defines ticket-slot data operations. ClaimOne
// and MarkRevealed are the contention-bearing primitives: each is one
// conditional read-modify-write on a single row.
type TicketAllocationRepository interface {
	InsertPool(ctx context.Context, tickets []*models.TicketAllocation) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.TicketAllocation, error)
	FindByOrderID(ctx context.Context, competitionID primitive.ObjectID, orderID string) ([]*models.TicketAllocation, error)
	// ClaimOne atomically claims one currently-unsold ticket for the order.
	// Returns models.ErrInsufficientInventory when no unsold ticket remains.
	ClaimOne(ctx context.Context, competitionID primitive.ObjectID, orderID, userID, receipt string, at time.Time) (*models.TicketAllocation, error)
	// MarkRevealed flips isRevealed false->true exactly once and returns the
	// updated ticket. Returns models.ErrAlreadyRevealed if a previous call won.
	MarkRevealed(ctx context.Context, ticketID primitive.ObjectID, at time.Time) (*models.TicketAllocation, error)
	CountSold(ctx context.Context, competitionID primitive.ObjectID) (int64, error)
	// ReserveUserQuota atomically adds quantity to the user's per-competition
	// entry counter, conditional on the result staying within cap. The
	// counter document is the single point of contention for a user, so two
	// concurrent orders cannot both slip under the cap the way a
	// count-then-claim check would allow. Returns
	// models.ErrPerUserCapExceeded when the reservation does not fit.
	ReserveUserQuota(ctx context.Context, competitionID primitive.ObjectID, userID string, quantity, cap int) error
	FindEligible(ctx context.Context, competitionID primitive.ObjectID, policy models.EligibilityPolicy) ([]*models.TicketAllocation, error)
	FindByNumber(ctx context.Context, competitionID primitive.ObjectID, ticketNumber int) (*models.TicketAllocation, error)
}

// InstantWinPrizeRepository defines prize-tier data operations
type InstantWinPrizeRepository interface {
	CreateMany(ctx context.Context, prizes []*models.InstantWinPrize) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.InstantWinPrize, error)
	FindByCompetitionID(ctx context.Context, competitionID primitive.ObjectID) ([]*models.InstantWinPrize, error)
	// DecrementRemaining decrements remainingQuantity by one, guarded so it
	// can never go negative. A zero-match returns models.ErrPrizeExhausted.
	DecrementRemaining(ctx context.Context, prizeID primitive.ObjectID) error
}

// DrawSnapshotRepository defines snapshot data operations. The collection
// carries a unique index on competitionId: Create returns
// models.ErrSnapshotExists for a second snapshot.
type DrawSnapshotRepository interface {
	Create(ctx context.Context, snapshot *models.DrawSnapshot) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.DrawSnapshot, error)
	// FindByCompetitionID returns models.ErrSnapshotMissing when absent.
	FindByCompetitionID(ctx context.Context, competitionID primitive.ObjectID) (*models.DrawSnapshot, error)
}

// DrawRepository defines draw outcome data operations. The collection
// carries a unique index on competitionId, which is the exactly-once guard:
// Create returns models.ErrDrawAlreadyExecuted for a second draw.
type DrawRepository interface {
	Create(ctx context.Context, draw *models.Draw) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Draw, error)
	FindByCompetitionID(ctx context.Context, competitionID primitive.ObjectID) (*models.Draw, error)
}

// DrawAuditLogRepository defines append-only audit log operations. There is
// deliberately no update or delete.
type DrawAuditLogRepository interface {
	Create(ctx context.Context, entry *models.DrawAuditLog) error
	FindByCompetitionID(ctx context.Context, competitionID primitive.ObjectID, page, limit int) ([]*models.DrawAuditLog, error)
}

// WalletRepository defines wallet ledger operations
type WalletRepository interface {
	InsertCredit(ctx context.Context, credit *models.WalletCredit) error
	// FindActiveCredits returns non-expired credits with remaining balance,
	// oldest first (debits consume in that order).
	FindActiveCredits(ctx context.Context, userID string, at time.Time) ([]*models.WalletCredit, error)
	// ConsumeCredit decrements a credit's remainingPence, guarded so the
	// remainder can never go negative.
	ConsumeCredit(ctx context.Context, creditID primitive.ObjectID, amountPence int64) error
	InsertTransaction(ctx context.Context, tx *models.WalletTransaction) error
	FindTransactions(ctx context.Context, userID string, page, limit int) ([]*models.WalletTransaction, error)
	ActiveBalance(ctx context.Context, userID string, at time.Time) (int64, error)
}

// AdminUserRepository defines operator account data operations
type AdminUserRepository interface {
	Create(ctx context.Context, adminUser *models.AdminUser) error
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.AdminUser, error)
}
