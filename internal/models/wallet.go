package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WalletTransactionType classifies a ledger entry
type WalletTransactionType string

const (
	WalletTxCredit WalletTransactionType = "CREDIT"
	WalletTxDebit  WalletTransactionType = "DEBIT"
)

// WalletCredit is a grant of spendable balance, typically a prize converted
// to its cash alternative. RemainingPence only ever decreases and never
// exceeds AmountPence.
type WalletCredit struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID         string             `bson:"userId" json:"userId"`
	AmountPence    int64              `bson:"amountPence" json:"amountPence"`
	RemainingPence int64              `bson:"remainingPence" json:"remainingPence"`
	Source         string             `bson:"source" json:"source"`
	Description    string             `bson:"description" json:"description"`
	ExpiresAt      time.Time          `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Expired reports whether the credit can no longer be spent at the given time
func (c *WalletCredit) Expired(at time.Time) bool {
	return !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(at)
}

// WalletTransaction is one append-only ledger row. Every balance-affecting
// event writes exactly one of these, recording the post-operation balance so
// the trail is replayable independently of the mutable credit rows.
type WalletTransaction struct {
	ID           primitive.ObjectID    `bson:"_id,omitempty" json:"id,omitempty"`
	UserID       string                `bson:"userId" json:"userId"`
	Type         WalletTransactionType `bson:"type" json:"type"`
	AmountPence  int64                 `bson:"amountPence" json:"amountPence"`
	BalanceAfter int64                 `bson:"balanceAfter" json:"balanceAfter"`
	Reference    string                `bson:"reference" json:"reference"`
	Description  string                `bson:"description" json:"description"`
	CreatedAt    time.Time             `bson:"createdAt" json:"createdAt"`
}
