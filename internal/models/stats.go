package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// PrizeTierStats summarizes one instant-win tier for dashboard display
type PrizeTierStats struct {
	PrizeID           primitive.ObjectID `json:"prizeId"`
	Name              string             `json:"name"`
	TierRank          int                `json:"tierRank"`
	TotalQuantity     int                `json:"totalQuantity"`
	RemainingQuantity int                `json:"remainingQuantity"`
}

// CompetitionStats is the read-only pool/draw statistics payload. Sold
// counts are derived by query over ticket allocations, never from a
// separately maintained counter.
type CompetitionStats struct {
	CompetitionID primitive.ObjectID `json:"competitionId"`
	Status        CompetitionStatus  `json:"status"`
	Capacity      int                `json:"capacity"`
	TicketsSold   int                `json:"ticketsSold"`
	Prizes        []PrizeTierStats   `json:"prizes"`
	DrawExecuted  bool               `json:"drawExecuted"`
	SnapshotTaken bool               `json:"snapshotTaken"`
}
