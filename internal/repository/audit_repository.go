package repository

import (
	"context"
	"fmt"
	"time"

	"roadmap-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type AuditRepository struct {
	collection *mongo.Collection
}

// NewAuditRepository creates a new audit log repository instance
func NewAuditRepository(database *mongo.Database, collection string) *AuditRepository {
	return &AuditRepository{
		collection: database.Collection(collection),
	}
}

// InitializeIndexes creates MongoDB indexes for the audit log collection
func (r *AuditRepository) InitializeIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, models.GetAuditLogIndexes())
	if err != nil {
		return fmt.Errorf("failed to create audit log indexes: %w", err)
	}
	return nil
}

// Record appends one audit entry. Entries are never updated or deleted.
func (r *AuditRepository) Record(ctx context.Context, entry *models.AuditLogEntry) error {
	if entry.ID.IsZero() {
		entry.ID = bson.NewObjectID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// ListByEntity returns the most recent audit entries for one entity,
// newest first.
func (r *AuditRepository) ListByEntity(ctx context.Context, entityType models.EntityType, entityID string, limit int) ([]*models.AuditLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	filter := bson.M{"entity_type": entityType, "entity_id": entityID}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*models.AuditLogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode audit entries: %w", err)
	}
	return entries, nil
}
