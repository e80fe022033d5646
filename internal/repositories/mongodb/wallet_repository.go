package mongodb

import (
	"context"
	"time"

	"github.com/prizepool/draw-engine-backend/internal/models"
	"github.com/prizepool/draw-engine-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WalletRepository implements the repositories.WalletRepository interface
type WalletRepository struct {
	credits      *mongo.Collection
	transactions *mongo.Collection
}

// NewWalletRepository creates a new WalletRepository
func NewWalletRepository(db *mongo.Database) repositories.WalletRepository {
	return &WalletRepository{
		credits:      db.Collection("wallet_credits"),
		transactions: db.Collection("wallet_transactions"),
	}
}

// InsertCredit inserts a new wallet credit
func (r *WalletRepository) InsertCredit(ctx context.Context, credit *models.WalletCredit) error {
	credit.CreatedAt = time.Now()
	credit.UpdatedAt = time.Now()
	res, err := r.credits.InsertOne(ctx, credit)
	if err != nil {
		return err
	}
	credit.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// activeCreditFilter matches credits that still have balance and have not
// expired at the given time
func activeCreditFilter(userID string, at time.Time) bson.M {
	return bson.M{
		"userId":         userID,
		"remainingPence": bson.M{"$gt": 0},
		"$or": []bson.M{
			{"expiresAt": bson.M{"$exists": false}},
			{"expiresAt": time.Time{}},
			{"expiresAt": bson.M{"$gte": at}},
		},
	}
}

// FindActiveCredits returns spendable credits oldest first
func (r *WalletRepository) FindActiveCredits(ctx context.Context, userID string, at time.Time) ([]*models.WalletCredit, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": 1})
	cursor, err := r.credits.Find(ctx, activeCreditFilter(userID, at), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var credits []*models.WalletCredit
	if err := cursor.All(ctx, &credits); err != nil {
		return nil, err
	}
	if credits == nil {
		credits = []*models.WalletCredit{}
	}
	return credits, nil
}

// ConsumeCredit decrements a credit's remaining balance, guarded so the
// remainder can never go negative
func (r *WalletRepository) ConsumeCredit(ctx context.Context, creditID primitive.ObjectID, amountPence int64) error {
	res, err := r.credits.UpdateOne(ctx,
		bson.M{"_id": creditID, "remainingPence": bson.M{"$gte": amountPence}},
		bson.M{"$inc": bson.M{"remainingPence": -amountPence}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrInsufficientBalance
	}
	return nil
}

// InsertTransaction appends a ledger row
func (r *WalletRepository) InsertTransaction(ctx context.Context, tx *models.WalletTransaction) error {
	tx.CreatedAt = time.Now()
	res, err := r.transactions.InsertOne(ctx, tx)
	if err != nil {
		return err
	}
	tx.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindTransactions returns a user's ledger rows, newest first
func (r *WalletRepository) FindTransactions(ctx context.Context, userID string, page, limit int) ([]*models.WalletTransaction, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.transactions.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var txs []*models.WalletTransaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []*models.WalletTransaction{}
	}
	return txs, nil
}

// ActiveBalance sums the remaining pence across active credits
func (r *WalletRepository) ActiveBalance(ctx context.Context, userID string, at time.Time) (int64, error) {
	pipeline := []bson.M{
		{"$match": activeCreditFilter(userID, at)},
		{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$remainingPence"}}},
	}
	cursor, err := r.credits.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}
