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
)

// DrawSnapshotRepository implements the repositories.DrawSnapshotRepository interface
type DrawSnapshotRepository struct {
	collection *mongo.Collection
}

// NewDrawSnapshotRepository creates a new DrawSnapshotRepository
func NewDrawSnapshotRepository(db *mongo.Database) repositories.DrawSnapshotRepository {
	return &DrawSnapshotRepository{
		collection: db.Collection("draw_snapshots"),
	}
}

// Create persists a snapshot. Snapshots are immutable: there is no update
// method, and the unique index on competitionId rejects a second one.
func (r *DrawSnapshotRepository) Create(ctx context.Context, snapshot *models.DrawSnapshot) error {
	snapshot.CreatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, snapshot)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrSnapshotExists
		}
		return err
	}
	snapshot.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a snapshot by ID
func (r *DrawSnapshotRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.DrawSnapshot, error) {
	var snapshot models.DrawSnapshot
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&snapshot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrSnapshotMissing
		}
		return nil, err
	}
	return &snapshot, nil
}

// FindByCompetitionID finds the (unique) snapshot for a competition
func (r *DrawSnapshotRepository) FindByCompetitionID(ctx context.Context, competitionID primitive.ObjectID) (*models.DrawSnapshot, error) {
	var snapshot models.DrawSnapshot
	err := r.collection.FindOne(ctx, bson.M{"competitionId": competitionID}).Decode(&snapshot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrSnapshotMissing
		}
		return nil, err
	}
	return &snapshot, nil
}
