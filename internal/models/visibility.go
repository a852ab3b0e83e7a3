package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EntityType identifies which kind of roadmap entity a visibility
// setting applies to.
type EntityType string

const (
	EntityTypeRoadmap   EntityType = "roadmap"
	EntityTypeMilestone EntityType = "milestone"
	EntityTypeObjective EntityType = "objective"
)

// IsValid reports whether the entity type is one of the known kinds.
func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypeRoadmap, EntityTypeMilestone, EntityTypeObjective:
		return true
	}
	return false
}

// VisibilitySetting stores an entity's own public flag. One record per
// (entity_type, entity_id); an entity with no record is private.
type VisibilitySetting struct {
	ID                bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	EntityType        EntityType    `bson:"entity_type" json:"entity_type"`
	EntityID          string        `bson:"entity_id" json:"entity_id"`
	IsPublic          bool          `bson:"is_public" json:"is_public"`
	ParentRoadmapSlug string        `bson:"parent_roadmap_slug,omitempty" json:"parent_roadmap_slug,omitempty"`
	ParentMilestoneID string        `bson:"parent_milestone_id,omitempty" json:"parent_milestone_id,omitempty"`
	UpdatedBy         string        `bson:"updated_by" json:"updated_by"`
	UpdatedAt         time.Time     `bson:"updated_at" json:"updated_at"`
}

// Validate checks structural requirements before a setting is written.
// Milestones must reference their roadmap, objectives both their roadmap
// and milestone.
func (s *VisibilitySetting) Validate() error {
	if !s.EntityType.IsValid() {
		return fmt.Errorf("invalid entity type: %s", s.EntityType)
	}
	if s.EntityID == "" {
		return fmt.Errorf("entity id is required")
	}
	switch s.EntityType {
	case EntityTypeMilestone:
		if s.ParentRoadmapSlug == "" {
			return fmt.Errorf("milestone setting requires parent_roadmap_slug")
		}
	case EntityTypeObjective:
		if s.ParentRoadmapSlug == "" {
			return fmt.Errorf("objective setting requires parent_roadmap_slug")
		}
		if s.ParentMilestoneID == "" {
			return fmt.Errorf("objective setting requires parent_milestone_id")
		}
	}
	return nil
}

// AuditLogEntry is an append-only record of a single visibility change.
// OldValue is nil when no setting existed before the change; NewValue is
// nil when the change cleared the setting.
type AuditLogEntry struct {
	ID                bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ActorID           string        `bson:"actor_id" json:"actor_id"`
	EntityType        EntityType    `bson:"entity_type" json:"entity_type"`
	EntityID          string        `bson:"entity_id" json:"entity_id"`
	OldValue          *bool         `bson:"old_value" json:"old_value"`
	NewValue          *bool         `bson:"new_value" json:"new_value"`
	ParentRoadmapSlug string        `bson:"parent_roadmap_slug,omitempty" json:"parent_roadmap_slug,omitempty"`
	ParentMilestoneID string        `bson:"parent_milestone_id,omitempty" json:"parent_milestone_id,omitempty"`
	Timestamp         time.Time     `bson:"timestamp" json:"timestamp"`
}

// ObjectiveID builds the deterministic id for the objective at position
// index within a milestone's learning objective list. This contract must
// stay stable across reads and writes: re-indexing objectives changes
// which setting applies to them.
func ObjectiveID(milestoneID string, index int) string {
	return fmt.Sprintf("%s-objective-%d", milestoneID, index)
}

// GetVisibilityIndexes returns MongoDB indexes for the visibility
// settings collection.
func GetVisibilityIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "entity_type", Value: 1},
				{Key: "entity_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "entity_type", Value: 1},
				{Key: "parent_roadmap_slug", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "entity_type", Value: 1},
				{Key: "parent_milestone_id", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "entity_type", Value: 1},
				{Key: "is_public", Value: 1},
			},
		},
	}
}

// GetAuditLogIndexes returns MongoDB indexes for the audit log collection.
func GetAuditLogIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "entity_type", Value: 1},
				{Key: "entity_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "actor_id", Value: 1}},
		},
	}
}
