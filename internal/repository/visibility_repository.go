package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roadmap-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type VisibilityRepository struct {
	collection *mongo.Collection
}

// NewVisibilityRepository creates a new visibility settings repository instance
func NewVisibilityRepository(database *mongo.Database, collection string) *VisibilityRepository {
	return &VisibilityRepository{
		collection: database.Collection(collection),
	}
}

// InitializeIndexes creates MongoDB indexes for the settings collection
func (r *VisibilityRepository) InitializeIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, models.GetVisibilityIndexes())
	if err != nil {
		return fmt.Errorf("failed to create visibility indexes: %w", err)
	}
	return nil
}

// Get returns the setting for (entityType, entityID), or nil if none is
// stored. Absence is not an error.
func (r *VisibilityRepository) Get(ctx context.Context, entityType models.EntityType, entityID string) (*models.VisibilitySetting, error) {
	filter := bson.M{"entity_type": entityType, "entity_id": entityID}

	var setting models.VisibilitySetting
	err := r.collection.FindOne(ctx, filter).Decode(&setting)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get visibility setting: %w", err)
	}
	return &setting, nil
}

// GetBatch returns settings for the given ids keyed by entity id. Ids with
// no stored setting are simply absent from the result.
func (r *VisibilityRepository) GetBatch(ctx context.Context, entityType models.EntityType, entityIDs []string) (map[string]*models.VisibilitySetting, error) {
	result := make(map[string]*models.VisibilitySetting, len(entityIDs))
	if len(entityIDs) == 0 {
		return result, nil
	}

	filter := bson.M{
		"entity_type": entityType,
		"entity_id":   bson.M{"$in": entityIDs},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get visibility settings: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var setting models.VisibilitySetting
		if err := cursor.Decode(&setting); err != nil {
			return nil, fmt.Errorf("failed to decode visibility setting: %w", err)
		}
		result[setting.EntityID] = &setting
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return result, nil
}

// GetByParent returns all settings of the given type whose direct parent
// matches parentID. The parent key is parent_roadmap_slug for milestones
// and parent_milestone_id for objectives.
func (r *VisibilityRepository) GetByParent(ctx context.Context, entityType models.EntityType, parentID string) ([]*models.VisibilitySetting, error) {
	parentField := "parent_roadmap_slug"
	if entityType == models.EntityTypeObjective {
		parentField = "parent_milestone_id"
	}

	filter := bson.M{"entity_type": entityType, parentField: parentID}
	return r.find(ctx, filter)
}

// GetByRoadmap returns all settings of the given type that belong to a
// roadmap. Objective settings carry parent_roadmap_slug too, so a whole
// roadmap's objective settings come back in one query instead of one
// query per milestone.
func (r *VisibilityRepository) GetByRoadmap(ctx context.Context, entityType models.EntityType, roadmapSlug string) ([]*models.VisibilitySetting, error) {
	filter := bson.M{"entity_type": entityType, "parent_roadmap_slug": roadmapSlug}
	return r.find(ctx, filter)
}

func (r *VisibilityRepository) find(ctx context.Context, filter bson.M) ([]*models.VisibilitySetting, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find visibility settings: %w", err)
	}
	defer cursor.Close(ctx)

	var settings []*models.VisibilitySetting
	if err := cursor.All(ctx, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode visibility settings: %w", err)
	}
	return settings, nil
}

// Set upserts the setting, replacing any existing record with the same
// (entity_type, entity_id) key. Last write wins.
func (r *VisibilityRepository) Set(ctx context.Context, setting *models.VisibilitySetting) (*models.VisibilitySetting, error) {
	setting.UpdatedAt = time.Now()

	filter := bson.M{"entity_type": setting.EntityType, "entity_id": setting.EntityID}
	opts := options.Replace().SetUpsert(true)

	stored := *setting
	stored.ID = bson.ObjectID{}

	result, err := r.collection.ReplaceOne(ctx, filter, &stored, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert visibility setting: %w", err)
	}
	if result.UpsertedID != nil {
		if id, ok := result.UpsertedID.(bson.ObjectID); ok {
			stored.ID = id
		}
	}
	return &stored, nil
}

// FindPublic returns the ids of all entities of the given type whose own
// flag is public. Hierarchical gating is the resolver's concern.
func (r *VisibilityRepository) FindPublic(ctx context.Context, entityType models.EntityType) ([]string, error) {
	filter := bson.M{"entity_type": entityType, "is_public": true}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find public entities: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var setting models.VisibilitySetting
		if err := cursor.Decode(&setting); err != nil {
			return nil, fmt.Errorf("failed to decode visibility setting: %w", err)
		}
		ids = append(ids, setting.EntityID)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return ids, nil
}

// Delete removes the setting for (entityType, entityID), reverting the
// entity to the default (private). Returns false if no record existed.
func (r *VisibilityRepository) Delete(ctx context.Context, entityType models.EntityType, entityID string) (bool, error) {
	filter := bson.M{"entity_type": entityType, "entity_id": entityID}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to delete visibility setting: %w", err)
	}
	return result.DeletedCount > 0, nil
}
