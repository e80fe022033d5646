package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompetitionStatus represents the lifecycle state of a competition
type CompetitionStatus string

const (
	CompetitionStatusDraft     CompetitionStatus = "DRAFT"
	CompetitionStatusScheduled CompetitionStatus = "SCHEDULED"
	CompetitionStatusActive    CompetitionStatus = "ACTIVE"
	CompetitionStatusClosed    CompetitionStatus = "CLOSED"
	CompetitionStatusDrawing   CompetitionStatus = "DRAWING"
	CompetitionStatusDrawn     CompetitionStatus = "DRAWN"
	CompetitionStatusCompleted CompetitionStatus = "COMPLETED"
	CompetitionStatusCancelled CompetitionStatus = "CANCELLED"
)

// PoolStatus is a tagged state for the ticket pool. Locking is a one-way
// transition: once POOL_LOCKED, capacity and prize bindings are immutable.
type PoolStatus string

const (
	PoolStatusDraft  PoolStatus = "POOL_DRAFT"
	PoolStatusLocked PoolStatus = "POOL_LOCKED"
)

// Competition represents a prize campaign with a finite ticket pool
type Competition struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title         string             `bson:"title" json:"title"`
	Capacity      int                `bson:"capacity" json:"capacity"`
	PerUserCap    int                `bson:"perUserCap" json:"perUserCap"`
	Status        CompetitionStatus  `bson:"status" json:"status"`
	PoolStatus    PoolStatus         `bson:"poolStatus" json:"poolStatus"`
	SalesOpenAt   time.Time          `bson:"salesOpenAt" json:"salesOpenAt"`
	SalesCloseAt  time.Time          `bson:"salesCloseAt" json:"salesCloseAt"`
	PoolLockedAt  time.Time          `bson:"poolLockedAt,omitempty" json:"poolLockedAt,omitempty"`
	PoolLockedBy  string             `bson:"poolLockedBy,omitempty" json:"poolLockedBy,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PoolLocked reports whether the ticket pool has been generated and locked
func (c *Competition) PoolLocked() bool {
	return c.PoolStatus == PoolStatusLocked
}

// validCompetitionTransitions holds the one-directional status machine.
// Administrative cancellation is allowed from any non-terminal state.
var validCompetitionTransitions = map[CompetitionStatus][]CompetitionStatus{
	CompetitionStatusDraft:     {CompetitionStatusScheduled, CompetitionStatusCancelled},
	CompetitionStatusScheduled: {CompetitionStatusActive, CompetitionStatusCancelled},
	CompetitionStatusActive:    {CompetitionStatusClosed, CompetitionStatusCancelled},
	CompetitionStatusClosed:    {CompetitionStatusDrawing, CompetitionStatusCancelled},
	CompetitionStatusDrawing:   {CompetitionStatusDrawn, CompetitionStatusCancelled},
	CompetitionStatusDrawn:     {CompetitionStatusCompleted},
}

// CanTransitionTo reports whether moving to the target status is legal
func (c *Competition) CanTransitionTo(target CompetitionStatus) bool {
	for _, allowed := range validCompetitionTransitions[c.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}
