package mongodb

import (
	"context"
	"fmt"

	"github.com/prizepool/draw-engine-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
)

// TxRunner implements repositories.TxRunner on a MongoDB session. The
// session context it hands to fn carries the transaction, so every
// repository call made with it joins the same all-or-nothing unit.
type TxRunner struct {
	client *mongo.Client
}

// NewTxRunner creates a new TxRunner
func NewTxRunner(client *mongo.Client) repositories.TxRunner {
	return &TxRunner{client: client}
}

// WithTransaction runs fn inside a single MongoDB transaction
func (r *TxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
