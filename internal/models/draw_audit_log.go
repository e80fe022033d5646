package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditAction identifies a draw-affecting administrative action
type AuditAction string

const (
	AuditPoolGenerated        AuditAction = "POOL_GENERATED"
	AuditSnapshotCreated      AuditAction = "SNAPSHOT_CREATED"
	AuditDrawExecuted         AuditAction = "DRAW_EXECUTED"
	AuditDrawFailed           AuditAction = "DRAW_FAILED"
	AuditCompetitionClosed    AuditAction = "COMPETITION_CLOSED"
	AuditCompetitionCancelled AuditAction = "COMPETITION_CANCELLED"
	AuditVerificationMismatch AuditAction = "VERIFICATION_MISMATCH"
)

// SystemActor is recorded for actions taken by the scheduler rather than
// an operator
const SystemActor = "SYSTEM"

// DrawAuditLog is an append-only record of a draw-related administrative
// action. Entries are never updated or deleted.
type DrawAuditLog struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CompetitionID primitive.ObjectID `bson:"competitionId" json:"competitionId"`
	Action        AuditAction        `bson:"action" json:"action"`
	Actor         string             `bson:"actor" json:"actor"`
	Detail        map[string]any     `bson:"detail,omitempty" json:"detail,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
