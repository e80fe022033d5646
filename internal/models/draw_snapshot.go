package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EligibilityPolicy selects which sold tickets count toward the end draw
type EligibilityPolicy string

const (
	// EligibilityAllSold counts every sold ticket.
	EligibilityAllSold EligibilityPolicy = "all_sold"
	// EligibilityExcludeInstantWinners drops tickets that revealed a prize.
	EligibilityExcludeInstantWinners EligibilityPolicy = "exclude_instant_winners"
	// EligibilityFlaggedOnly counts only tickets marked end-prize-eligible.
	EligibilityFlaggedOnly EligibilityPolicy = "flagged_only"
)

// SnapshotEntry is one draw-eligible ticket captured in a snapshot
type SnapshotEntry struct {
	TicketNumber int         `bson:"ticketNumber" json:"ticketNumber"`
	UserID       string      `bson:"userId" json:"userId"`
	EntrySource  EntrySource `bson:"entrySource" json:"entrySource"`
}

// DrawSnapshot is the immutable, content-addressed record of the eligible
// entry set at draw time. Entries are stored in ticket-number ascending
// order; EntryHash is a pure function of that ordered set (see pkg/drawhash
// for the canonical serialization). Once created it is never mutated.
type DrawSnapshot struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CompetitionID    primitive.ObjectID `bson:"competitionId" json:"competitionId"`
	Policy           EligibilityPolicy  `bson:"policy" json:"policy"`
	Entries          []SnapshotEntry    `bson:"entries" json:"entries"`
	TotalEntries     int                `bson:"totalEntries" json:"totalEntries"`
	CountsBySource   map[string]int     `bson:"countsBySource" json:"countsBySource"`
	EntryHash        string             `bson:"entryHash" json:"entryHash"`
	CreatedBy        string             `bson:"createdBy" json:"createdBy"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
}
