package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EntrySource identifies how a ticket entered the competition
type EntrySource string

const (
	EntrySourcePaid        EntrySource = "PAID"
	EntrySourcePostal      EntrySource = "POSTAL"
	EntrySourcePromotional EntrySource = "PROMOTIONAL"
)

// TicketAllocation is one ticket slot in a competition's pool. The row is
// created at pool-generation time; sale and reveal only flip its flags.
// PrizeID is set at generation and never reassigned.
type TicketAllocation struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	CompetitionID primitive.ObjectID  `bson:"competitionId" json:"competitionId"`
	TicketNumber  int                 `bson:"ticketNumber" json:"ticketNumber"`
	Sold          bool                `bson:"sold" json:"sold"`
	OrderID       string              `bson:"orderId,omitempty" json:"orderId,omitempty"`
	UserID        string              `bson:"userId,omitempty" json:"userId,omitempty"`
	EntrySource   EntrySource         `bson:"entrySource" json:"entrySource"`
	PrizeID       *primitive.ObjectID `bson:"prizeId,omitempty" json:"prizeId,omitempty"`
	IsRevealed    bool                `bson:"isRevealed" json:"isRevealed"`
	EndPrizeFlag  bool                `bson:"endPrizeFlag" json:"endPrizeFlag"`
	ClaimReceipt  string              `bson:"claimReceipt,omitempty" json:"claimReceipt,omitempty"`
	SoldAt        time.Time           `bson:"soldAt,omitempty" json:"soldAt,omitempty"`
	RevealedAt    time.Time           `bson:"revealedAt,omitempty" json:"revealedAt,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// HasPrize reports whether an instant-win prize was bound to this ticket
// at pool-generation time
func (t *TicketAllocation) HasPrize() bool {
	return t.PrizeID != nil
}

// RevealOutcome is the recorded result of revealing a ticket. Repeated
// reveals of the same ticket return the same outcome.
type RevealOutcome struct {
	TicketID        primitive.ObjectID  `json:"ticketId"`
	TicketNumber    int                 `json:"ticketNumber"`
	Won             bool                `json:"won"`
	PrizeID         *primitive.ObjectID `json:"prizeId,omitempty"`
	PrizeName       string              `json:"prizeName,omitempty"`
	AlreadyRevealed bool                `json:"alreadyRevealed"`
	RevealedAt      time.Time           `json:"revealedAt"`
}
