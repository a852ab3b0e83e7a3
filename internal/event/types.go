package event

import (
	"roadmap-service/internal/models"
)

const (
	// Visibility events
	EventTypeVisibilityUpdated = "visibility.updated"
	EventTypeVisibilityCleared = "visibility.cleared"

	// Roadmap lifecycle events derived from roadmap-level changes
	EventTypeRoadmapPublished   = "roadmap.published"
	EventTypeRoadmapUnpublished = "roadmap.unpublished"
)

// VisibilityEvent is emitted after a visibility setting is written or
// cleared. OldValue/NewValue mirror the audit entry: nil means no prior
// setting / setting removed.
type VisibilityEvent struct {
	EventType         string            `json:"eventType"`
	ActorID           string            `json:"actorId"`
	EntityType        models.EntityType `json:"entityType"`
	EntityID          string            `json:"entityId"`
	OldValue          *bool             `json:"oldValue"`
	NewValue          *bool             `json:"newValue"`
	ParentRoadmapSlug string            `json:"parentRoadmapSlug,omitempty"`
	ParentMilestoneID string            `json:"parentMilestoneId,omitempty"`
	Timestamp         int64             `json:"timestamp"`
}
