package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the engine's guarantees depend on. The
// unique indexes are not an optimization: draws-per-competition and
// snapshots-per-competition are the exactly-once guards, and the compound
// ticket index is what makes duplicate ticket numbers impossible.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	specs := []struct {
		collection string
		models     []mongo.IndexModel
	}{
		{
			collection: "ticket_allocations",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "competitionId", Value: 1}, {Key: "ticketNumber", Value: 1}}, Options: unique},
				{Keys: bson.D{{Key: "competitionId", Value: 1}, {Key: "sold", Value: 1}}},
				{Keys: bson.D{{Key: "competitionId", Value: 1}, {Key: "orderId", Value: 1}}},
				{Keys: bson.D{{Key: "competitionId", Value: 1}, {Key: "userId", Value: 1}}},
			},
		},
		{
			// One counter document per user per competition; the per-user
			// cap guard relies on this uniqueness.
			collection: "user_entry_counts",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "competitionId", Value: 1}, {Key: "userId", Value: 1}}, Options: unique},
			},
		},
		{
			collection: "competitions",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "status", Value: 1}, {Key: "salesCloseAt", Value: 1}}},
			},
		},
		{
			collection: "draws",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "competitionId", Value: 1}}, Options: unique},
			},
		},
		{
			collection: "draw_snapshots",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "competitionId", Value: 1}}, Options: unique},
			},
		},
		{
			collection: "draw_audit_logs",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "competitionId", Value: 1}, {Key: "createdAt", Value: -1}}},
			},
		},
		{
			collection: "instant_win_prizes",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "competitionId", Value: 1}}},
			},
		},
		{
			collection: "wallet_credits",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}}},
			},
		},
		{
			collection: "wallet_transactions",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			},
		},
		{
			collection: "admin_users",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			},
		},
	}

	for _, spec := range specs {
		if _, err := db.Collection(spec.collection).Indexes().CreateMany(ctx, spec.models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", spec.collection, err)
		}
	}
	return nil
}
