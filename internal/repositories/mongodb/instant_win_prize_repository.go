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

// InstantWinPrizeRepository implements the repositories.InstantWinPrizeRepository interface
type InstantWinPrizeRepository struct {
	collection *mongo.Collection
}

// NewInstantWinPrizeRepository creates a new InstantWinPrizeRepository
func NewInstantWinPrizeRepository(db *mongo.Database) repositories.InstantWinPrizeRepository {
	return &InstantWinPrizeRepository{
		collection: db.Collection("instant_win_prizes"),
	}
}

// CreateMany inserts the prize tiers for a competition
func (r *InstantWinPrizeRepository) CreateMany(ctx context.Context, prizes []*models.InstantWinPrize) error {
	now := time.Now()
	docs := make([]interface{}, 0, len(prizes))
	for _, p := range prizes {
		p.CreatedAt = now
		p.UpdatedAt = now
		docs = append(docs, p)
	}
	res, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return err
	}
	for i, id := range res.InsertedIDs {
		prizes[i].ID = id.(primitive.ObjectID)
	}
	return nil
}

// FindByID finds a prize tier by ID
func (r *InstantWinPrizeRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.InstantWinPrize, error) {
	var prize models.InstantWinPrize
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&prize)
	if err != nil {
		return nil, err
	}
	return &prize, nil
}

// FindByCompetitionID finds all prize tiers for a competition, best tier first
func (r *InstantWinPrizeRepository) FindByCompetitionID(ctx context.Context, competitionID primitive.ObjectID) ([]*models.InstantWinPrize, error) {
	opts := options.Find().SetSort(bson.M{"tierRank": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"competitionId": competitionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var prizes []*models.InstantWinPrize
	if err := cursor.All(ctx, &prizes); err != nil {
		return nil, err
	}
	if prizes == nil {
		prizes = []*models.InstantWinPrize{}
	}
	return prizes, nil
}

// DecrementRemaining decrements remainingQuantity by one, guarded by
// {remainingQuantity > 0} so the count can never go negative. A zero-match
// means the fixed prize binding was violated upstream.
func (r *InstantWinPrizeRepository) DecrementRemaining(ctx context.Context, prizeID primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": prizeID, "remainingQuantity": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"remainingQuantity": -1}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		var exists models.InstantWinPrize
		if findErr := r.collection.FindOne(ctx, bson.M{"_id": prizeID}).Decode(&exists); findErr != nil {
			if errors.Is(findErr, mongo.ErrNoDocuments) {
				return mongo.ErrNoDocuments
			}
			return findErr
		}
		return models.ErrPrizeExhausted
	}
	return nil
}
