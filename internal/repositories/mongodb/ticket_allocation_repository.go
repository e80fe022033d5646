package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/prizepool/draw-engine-backend/internal/models"
	"github.com/prizepool/draw-engine-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TicketAllocationRepository implements the repositories.TicketAllocationRepository interface
type TicketAllocationRepository struct {
	collection *mongo.Collection
	quotas     *mongo.Collection
}

// NewTicketAllocationRepository creates a new TicketAllocationRepository
func NewTicketAllocationRepository(db *mongo.Database) repositories.TicketAllocationRepository {
	return &TicketAllocationRepository{
		collection: db.Collection("ticket_allocations"),
		quotas:     db.Collection("user_entry_counts"),
	}
}

// InsertPool inserts the full generated pool for a competition
func (r *TicketAllocationRepository) InsertPool(ctx context.Context, tickets []*models.TicketAllocation) error {
	now := time.Now()
	docs := make([]interface{}, 0, len(tickets))
	for _, t := range tickets {
		t.CreatedAt = now
		t.UpdatedAt = now
		docs = append(docs, t)
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// FindByID finds a ticket by ID
func (r *TicketAllocationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.TicketAllocation, error) {
	var ticket models.TicketAllocation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ticket)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// FindByOrderID finds all tickets already held by an order in a competition.
// Allocation idempotency rests on this lookup.
func (r *TicketAllocationRepository) FindByOrderID(ctx context.Context, competitionID primitive.ObjectID, orderID string) ([]*models.TicketAllocation, error) {
	filter := bson.M{"competitionId": competitionID, "orderId": orderID}
	opts := options.Find().SetSort(bson.M{"ticketNumber": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tickets []*models.TicketAllocation
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []*models.TicketAllocation{}
	}
	return tickets, nil
}

// ClaimOne atomically claims one unsold ticket for an order. The claim is a
// single conditional read-modify-write on a {sold:false} row, so two orders
// can never both take the same ticket.
func (r *TicketAllocationRepository) ClaimOne(ctx context.Context, competitionID primitive.ObjectID, orderID, userID, receipt string, at time.Time) (*models.TicketAllocation, error) {
	filter := bson.M{"competitionId": competitionID, "sold": false}
	update := bson.M{"$set": bson.M{
		"sold":         true,
		"orderId":      orderID,
		"userId":       userID,
		"claimReceipt": receipt,
		"soldAt":       at,
		"updatedAt":    time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ticket models.TicketAllocation
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ticket)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrInsufficientInventory
		}
		return nil, err
	}
	return &ticket, nil
}

// MarkRevealed flips isRevealed false->true exactly once. A losing racer
// gets models.ErrAlreadyRevealed and can read back the recorded outcome.
func (r *TicketAllocationRepository) MarkRevealed(ctx context.Context, ticketID primitive.ObjectID, at time.Time) (*models.TicketAllocation, error) {
	filter := bson.M{"_id": ticketID, "isRevealed": false}
	update := bson.M{"$set": bson.M{
		"isRevealed": true,
		"revealedAt": at,
		"updatedAt":  time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ticket models.TicketAllocation
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ticket)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Either the ticket does not exist or it is already revealed.
			if _, findErr := r.FindByID(ctx, ticketID); findErr != nil {
				return nil, findErr
			}
			return nil, models.ErrAlreadyRevealed
		}
		return nil, err
	}
	return &ticket, nil
}

// CountSold counts sold tickets in a competition. Sold totals are always
// derived from the rows, never kept as a separate counter.
func (r *TicketAllocationRepository) CountSold(ctx context.Context, competitionID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"competitionId": competitionID, "sold": true})
}

// ReserveUserQuota adds quantity to the user's entry counter, conditional on
// staying within cap. Concurrent reservations for the same user contend on
// one counter document: an existing counter over the limit fails the filter
// and the resulting upsert insert hits the unique (competitionId, userId)
// index, which is reported as models.ErrPerUserCapExceeded.
func (r *TicketAllocationRepository) ReserveUserQuota(ctx context.Context, competitionID primitive.ObjectID, userID string, quantity, cap int) error {
	if quantity > cap {
		return models.ErrPerUserCapExceeded
	}
	now := time.Now()
	_, err := r.quotas.UpdateOne(ctx,
		bson.M{
			"competitionId": competitionID,
			"userId":        userID,
			"count":         bson.M{"$lte": cap - quantity},
		},
		bson.M{
			"$inc":         bson.M{"count": quantity},
			"$set":         bson.M{"updatedAt": now},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrPerUserCapExceeded
		}
		return err
	}
	return nil
}

// FindEligible returns the draw-eligible tickets for a competition under the
// given policy, ticket number ascending
func (r *TicketAllocationRepository) FindEligible(ctx context.Context, competitionID primitive.ObjectID, policy models.EligibilityPolicy) ([]*models.TicketAllocation, error) {
	filter := bson.M{"competitionId": competitionID, "sold": true}
	switch policy {
	case models.EligibilityExcludeInstantWinners:
		// Tickets that revealed a bound prize are out; unrevealed prize
		// tickets stay in, since their prize was never claimed.
		filter["$nor"] = []bson.M{{"isRevealed": true, "prizeId": bson.M{"$ne": nil}}}
	case models.EligibilityFlaggedOnly:
		filter["endPrizeFlag"] = true
	case models.EligibilityAllSold:
		// No extra constraint.
	}

	opts := options.Find().SetSort(bson.M{"ticketNumber": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tickets []*models.TicketAllocation
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []*models.TicketAllocation{}
	}
	return tickets, nil
}

// FindByNumber finds a ticket by its number within a competition
func (r *TicketAllocationRepository) FindByNumber(ctx context.Context, competitionID primitive.ObjectID, ticketNumber int) (*models.TicketAllocation, error) {
	var ticket models.TicketAllocation
	err := r.collection.FindOne(ctx, bson.M{"competitionId": competitionID, "ticketNumber": ticketNumber}).Decode(&ticket)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}
