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

// DrawAuditLogRepository implements the repositories.DrawAuditLogRepository
// interface. The collection is append-only: this type deliberately exposes
// no update or delete.
type DrawAuditLogRepository struct {
	collection *mongo.Collection
}

// NewDrawAuditLogRepository creates a new DrawAuditLogRepository
func NewDrawAuditLogRepository(db *mongo.Database) repositories.DrawAuditLogRepository {
	return &DrawAuditLogRepository{
		collection: db.Collection("draw_audit_logs"),
	}
}

// Create appends an audit entry
func (r *DrawAuditLogRepository) Create(ctx context.Context, entry *models.DrawAuditLog) error {
	entry.CreatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return err
	}
	entry.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByCompetitionID returns audit entries for a competition, newest first
func (r *DrawAuditLogRepository) FindByCompetitionID(ctx context.Context, competitionID primitive.ObjectID, page, limit int) ([]*models.DrawAuditLog, error) {
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

	cursor, err := r.collection.Find(ctx, bson.M{"competitionId": competitionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*models.DrawAuditLog
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*models.DrawAuditLog{}
	}
	return entries, nil
}
