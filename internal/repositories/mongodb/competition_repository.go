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

// CompetitionRepository implements the repositories.CompetitionRepository interface
type CompetitionRepository struct {
	collection *mongo.Collection
}

// NewCompetitionRepository creates a new CompetitionRepository
func NewCompetitionRepository(db *mongo.Database) repositories.CompetitionRepository {
	return &CompetitionRepository{
		collection: db.Collection("competitions"),
	}
}

// Create creates a new competition in POOL_DRAFT state
func (r *CompetitionRepository) Create(ctx context.Context, competition *models.Competition) error {
	competition.CreatedAt = time.Now()
	competition.UpdatedAt = time.Now()
	if competition.PoolStatus == "" {
		competition.PoolStatus = models.PoolStatusDraft
	}
	res, err := r.collection.InsertOne(ctx, competition)
	if err != nil {
		return err
	}
	competition.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a competition by ID
func (r *CompetitionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Competition, error) {
	var competition models.Competition
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&competition)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrCompetitionNotFound
		}
		return nil, err
	}
	return &competition, nil
}

// UpdateStatus moves a competition between statuses. The update is
// conditional on the current status so concurrent transitions cannot race.
func (r *CompetitionRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.CompetitionStatus) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrInvalidTransition
	}
	return nil
}

// LockPool flips the pool state POOL_DRAFT -> POOL_LOCKED. The one-way
// transition is enforced here: a second lock matches nothing.
func (r *CompetitionRepository) LockPool(ctx context.Context, id primitive.ObjectID, actor string, at time.Time) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "poolStatus": models.PoolStatusDraft},
		bson.M{"$set": bson.M{
			"poolStatus":   models.PoolStatusLocked,
			"poolLockedAt": at,
			"poolLockedBy": actor,
			"updatedAt":    time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrPoolAlreadyLocked
	}
	return nil
}

// FindByStatusPastClose finds competitions in the given status whose sales
// window closed before the given time. Used by the scheduler.
func (r *CompetitionRepository) FindByStatusPastClose(ctx context.Context, status models.CompetitionStatus, before time.Time) ([]*models.Competition, error) {
	filter := bson.M{
		"status":       status,
		"salesCloseAt": bson.M{"$lt": before},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var competitions []*models.Competition
	if err := cursor.All(ctx, &competitions); err != nil {
		return nil, err
	}
	if competitions == nil {
		competitions = []*models.Competition{}
	}
	return competitions, nil
}

// FindAll finds all competitions, newest first
func (r *CompetitionRepository) FindAll(ctx context.Context) ([]*models.Competition, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var competitions []*models.Competition
	if err := cursor.All(ctx, &competitions); err != nil {
		return nil, err
	}
	if competitions == nil {
		competitions = []*models.Competition{}
	}
	return competitions, nil
}
