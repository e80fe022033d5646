package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SeedSourceName identifies the strategy that produced a draw's random seed
type SeedSourceName string

const (
	SeedSourceLocal SeedSourceName = "LOCAL_CSPRNG"
	SeedSourceDrand SeedSourceName = "DRAND_BEACON"
)

// Draw is the outcome record of a competition's end draw. At most one Draw
// exists per competition, enforced by a unique index on competitionId.
// VerificationHash binds {snapshot hash, seed, winner index} so any party
// holding the three inputs can reproduce it.
type Draw struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CompetitionID       primitive.ObjectID `bson:"competitionId" json:"competitionId"`
	SnapshotID          primitive.ObjectID `bson:"snapshotId" json:"snapshotId"`
	SnapshotHash        string             `bson:"snapshotHash" json:"snapshotHash"`
	SeedHex             string             `bson:"seedHex" json:"seedHex"`
	SeedSource          SeedSourceName     `bson:"seedSource" json:"seedSource"`
	BeaconRound         uint64             `bson:"beaconRound,omitempty" json:"beaconRound,omitempty"`
	TotalEntries        int                `bson:"totalEntries" json:"totalEntries"`
	WinnerIndex         int                `bson:"winnerIndex" json:"winnerIndex"`
	WinningTicketNumber int                `bson:"winningTicketNumber" json:"winningTicketNumber"`
	VerificationHash    string             `bson:"verificationHash" json:"verificationHash"`
	ExecutedBy          string             `bson:"executedBy" json:"executedBy"`
	ExecutedAt          time.Time          `bson:"executedAt" json:"executedAt"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
}

// VerificationCheck is one independently reported check from draw verification
type VerificationCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// VerificationReport is the structured result of verifying a draw. Each
// check is reported separately so a failure is diagnosable.
type VerificationReport struct {
	DrawID     primitive.ObjectID  `json:"drawId"`
	Passed     bool                `json:"passed"`
	Checks     []VerificationCheck `json:"checks"`
	VerifiedAt time.Time           `json:"verifiedAt"`
}

const (
	CheckEntrySetIntegrity = "entry_set_integrity"
	CheckWinnerIndexBounds = "winner_index_bounds"
	CheckSeedDerivation    = "seed_derivation"
	CheckWinningTicket     = "winning_ticket_consistency"
	CheckVerificationHash  = "verification_hash"
)
