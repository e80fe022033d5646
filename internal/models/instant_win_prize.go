package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InstantWinPrize is a prize tier available within a competition.
// Invariant: 0 <= RemainingQuantity <= TotalQuantity, and the number of
// tickets bound to this prize at generation equals TotalQuantity.
type InstantWinPrize struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CompetitionID     primitive.ObjectID `bson:"competitionId" json:"competitionId"`
	Name              string             `bson:"name" json:"name"`
	TierRank          int                `bson:"tierRank" json:"tierRank"`
	ValuePence        int64              `bson:"valuePence" json:"valuePence"`
	TotalQuantity     int                `bson:"totalQuantity" json:"totalQuantity"`
	RemainingQuantity int                `bson:"remainingQuantity" json:"remainingQuantity"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PrizeTierSpec is the operator-supplied definition of a prize tier used
// when generating a pool
type PrizeTierSpec struct {
	Name       string `json:"name" binding:"required"`
	TierRank   int    `json:"tierRank"`
	ValuePence int64  `json:"valuePence"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
}
