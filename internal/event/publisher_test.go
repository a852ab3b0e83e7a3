package event

import (
	"testing"
	"time"

	"roadmap-service/internal/models"
)

func TestDisabledPublisherIsNoOp(t *testing.T) {
	publisher, err := NewEventPublisher("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if publisher.enabled {
		t.Error("Publisher with empty URI must be disabled")
	}

	isPublic := true
	err = publisher.PublishVisibilityEvent(&VisibilityEvent{
		EventType:  EventTypeVisibilityUpdated,
		ActorID:    "admin-1",
		EntityType: models.EntityTypeRoadmap,
		EntityID:   "go-backend",
		NewValue:   &isPublic,
		Timestamp:  time.Now().Unix(),
	})
	if err != nil {
		t.Errorf("Disabled publisher must not fail: %v", err)
	}

	if err := publisher.Close(); err != nil {
		t.Errorf("Closing a disabled publisher must not fail: %v", err)
	}
}
