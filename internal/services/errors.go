package services

import (
	"fmt"

	"roadmap-service/internal/models"
)

// ParentNotFoundError is returned when an update references a roadmap or
// milestone that does not exist. Carries the missing entity for diagnostics.
type ParentNotFoundError struct {
	EntityType models.EntityType
	EntityID   string
}

func (e *ParentNotFoundError) Error() string {
	return fmt.Sprintf("parent %s not found: %s", e.EntityType, e.EntityID)
}

// ValidationError is returned when a visibility write is structurally
// invalid, e.g. a milestone setting without its roadmap reference.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid visibility request: %s", e.Reason)
}
