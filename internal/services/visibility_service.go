package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"roadmap-service/internal/event"
	"roadmap-service/internal/models"
)

// VisibilityStore is the durable settings storage contract. Reads return
// nil (or an empty result) for missing records, never an error.
type VisibilityStore interface {
	Get(ctx context.Context, entityType models.EntityType, entityID string) (*models.VisibilitySetting, error)
	GetBatch(ctx context.Context, entityType models.EntityType, entityIDs []string) (map[string]*models.VisibilitySetting, error)
	GetByParent(ctx context.Context, entityType models.EntityType, parentID string) ([]*models.VisibilitySetting, error)
	GetByRoadmap(ctx context.Context, entityType models.EntityType, roadmapSlug string) ([]*models.VisibilitySetting, error)
	Set(ctx context.Context, setting *models.VisibilitySetting) (*models.VisibilitySetting, error)
	FindPublic(ctx context.Context, entityType models.EntityType) ([]string, error)
	Delete(ctx context.Context, entityType models.EntityType, entityID string) (bool, error)
}

// AuditRecorder appends visibility-change audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry *models.AuditLogEntry) error
	ListByEntity(ctx context.Context, entityType models.EntityType, entityID string, limit int) ([]*models.AuditLogEntry, error)
}

// RoadmapFinder is the roadmap data layer as seen by the visibility
// engine. It is read-only here.
type RoadmapFinder interface {
	FindBySlug(ctx context.Context, slug string) (*models.Roadmap, error)
	FindActive(ctx context.Context) ([]*models.Roadmap, error)
}

// The parent chain is roadmap -> milestone -> objective, fixed depth.
// The guard only protects against malformed settings data.
const maxResolveDepth = 4

type VisibilityService struct {
	store     VisibilityStore
	audit     AuditRecorder
	roadmaps  RoadmapFinder
	publisher event.Publisher
	cache     ProjectionCache
}

// NewVisibilityService creates the visibility service. Publisher and cache
// may be nil; events and cache invalidation are then skipped.
func NewVisibilityService(store VisibilityStore, audit AuditRecorder, roadmaps RoadmapFinder, publisher event.Publisher, cache ProjectionCache) *VisibilityService {
	return &VisibilityService{
		store:     store,
		audit:     audit,
		roadmaps:  roadmaps,
		publisher: publisher,
		cache:     cache,
	}
}

// resolveCache memoizes effective-visibility results within a single
// resolution pass. It is created per request and never shared.
type resolveCache struct {
	results map[string]bool
}

func newResolveCache() *resolveCache {
	return &resolveCache{results: make(map[string]bool)}
}

func cacheKey(entityType models.EntityType, entityID string) string {
	return string(entityType) + ":" + entityID
}

// ResolveVisibility computes the effective (hierarchical) visibility of
// one entity: its own flag AND every ancestor's own flag. A missing
// setting resolves to false.
func (s *VisibilityService) ResolveVisibility(ctx context.Context, entityType models.EntityType, entityID string) (bool, error) {
	return s.resolve(ctx, newResolveCache(), entityType, entityID, 0)
}

func (s *VisibilityService) resolve(ctx context.Context, cache *resolveCache, entityType models.EntityType, entityID string, depth int) (bool, error) {
	if depth > maxResolveDepth {
		return false, fmt.Errorf("visibility resolution exceeded max depth for %s %s", entityType, entityID)
	}

	key := cacheKey(entityType, entityID)
	if result, ok := cache.results[key]; ok {
		return result, nil
	}

	setting, err := s.store.Get(ctx, entityType, entityID)
	if err != nil {
		return false, err
	}

	result := false
	switch {
	case setting == nil || !setting.IsPublic:
		// absence is private
	case entityType == models.EntityTypeRoadmap:
		result = true
	case entityType == models.EntityTypeMilestone:
		if setting.ParentRoadmapSlug != "" {
			result, err = s.resolve(ctx, cache, models.EntityTypeRoadmap, setting.ParentRoadmapSlug, depth+1)
			if err != nil {
				return false, err
			}
		}
	case entityType == models.EntityTypeObjective:
		if setting.ParentMilestoneID != "" {
			result, err = s.resolve(ctx, cache, models.EntityTypeMilestone, setting.ParentMilestoneID, depth+1)
			if err != nil {
				return false, err
			}
		}
	}

	cache.results[key] = result
	return result, nil
}

// UpdateVisibilityRequest carries one visibility change.
type UpdateVisibilityRequest struct {
	ActorID           string            `json:"actor_id"`
	EntityType        models.EntityType `json:"entity_type"`
	EntityID          string            `json:"entity_id"`
	IsPublic          bool              `json:"is_public"`
	ParentRoadmapSlug string            `json:"parent_roadmap_slug,omitempty"`
	ParentMilestoneID string            `json:"parent_milestone_id,omitempty"`
}

// UpdateVisibility applies one visibility change: validate parent
// references, append the audit entry, then upsert the setting. Validation
// happens strictly before any write, so a rejected update leaves no
// trace; the audit write must succeed before the setting is stored.
func (s *VisibilityService) UpdateVisibility(ctx context.Context, req *UpdateVisibilityRequest) (*models.VisibilitySetting, error) {
	setting := &models.VisibilitySetting{
		EntityType:        req.EntityType,
		EntityID:          req.EntityID,
		IsPublic:          req.IsPublic,
		ParentRoadmapSlug: req.ParentRoadmapSlug,
		ParentMilestoneID: req.ParentMilestoneID,
		UpdatedBy:         req.ActorID,
	}
	if err := setting.Validate(); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	if err := s.validateParents(ctx, req); err != nil {
		return nil, err
	}

	old, err := s.store.Get(ctx, req.EntityType, req.EntityID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current setting: %w", err)
	}

	var oldValue *bool
	if old != nil {
		oldValue = boolPtr(old.IsPublic)
	}
	newValue := boolPtr(req.IsPublic)

	entry := &models.AuditLogEntry{
		ActorID:           req.ActorID,
		EntityType:        req.EntityType,
		EntityID:          req.EntityID,
		OldValue:          oldValue,
		NewValue:          newValue,
		ParentRoadmapSlug: req.ParentRoadmapSlug,
		ParentMilestoneID: req.ParentMilestoneID,
		Timestamp:         time.Now(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record audit entry: %w", err)
	}

	stored, err := s.store.Set(ctx, setting)
	if err != nil {
		return nil, fmt.Errorf("failed to store visibility setting: %w", err)
	}

	s.afterWrite(ctx, &event.VisibilityEvent{
		EventType:         visibilityEventType(req.EntityType, oldValue, newValue),
		ActorID:           req.ActorID,
		EntityType:        req.EntityType,
		EntityID:          req.EntityID,
		OldValue:          oldValue,
		NewValue:          newValue,
		ParentRoadmapSlug: req.ParentRoadmapSlug,
		ParentMilestoneID: req.ParentMilestoneID,
		Timestamp:         time.Now().Unix(),
	})

	return stored, nil
}

// validateParents checks that referenced ancestors exist in the roadmap
// data layer before anything is written.
func (s *VisibilityService) validateParents(ctx context.Context, req *UpdateVisibilityRequest) error {
	if req.EntityType == models.EntityTypeRoadmap {
		return nil
	}

	roadmap, err := s.roadmaps.FindBySlug(ctx, req.ParentRoadmapSlug)
	if err != nil {
		return fmt.Errorf("failed to look up parent roadmap: %w", err)
	}
	if roadmap == nil {
		return &ParentNotFoundError{EntityType: models.EntityTypeRoadmap, EntityID: req.ParentRoadmapSlug}
	}

	if req.EntityType == models.EntityTypeObjective {
		if roadmap.FindNode(req.ParentMilestoneID) == nil {
			return &ParentNotFoundError{EntityType: models.EntityTypeMilestone, EntityID: req.ParentMilestoneID}
		}
	}
	return nil
}

// ClearVisibility removes a stored setting, reverting the entity to the
// default (private). Returns false when no setting existed; nothing is
// audited in that case. Distinct from setting is_public=false, which
// keeps a record.
func (s *VisibilityService) ClearVisibility(ctx context.Context, actorID string, entityType models.EntityType, entityID string) (bool, error) {
	if !entityType.IsValid() {
		return false, &ValidationError{Reason: fmt.Sprintf("invalid entity type: %s", entityType)}
	}

	old, err := s.store.Get(ctx, entityType, entityID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch current setting: %w", err)
	}
	if old == nil {
		return false, nil
	}

	entry := &models.AuditLogEntry{
		ActorID:           actorID,
		EntityType:        entityType,
		EntityID:          entityID,
		OldValue:          boolPtr(old.IsPublic),
		NewValue:          nil,
		ParentRoadmapSlug: old.ParentRoadmapSlug,
		ParentMilestoneID: old.ParentMilestoneID,
		Timestamp:         time.Now(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		return false, fmt.Errorf("failed to record audit entry: %w", err)
	}

	deleted, err := s.store.Delete(ctx, entityType, entityID)
	if err != nil {
		return false, fmt.Errorf("failed to delete visibility setting: %w", err)
	}

	s.afterWrite(ctx, &event.VisibilityEvent{
		EventType:         event.EventTypeVisibilityCleared,
		ActorID:           actorID,
		EntityType:        entityType,
		EntityID:          entityID,
		OldValue:          boolPtr(old.IsPublic),
		ParentRoadmapSlug: old.ParentRoadmapSlug,
		ParentMilestoneID: old.ParentMilestoneID,
		Timestamp:         time.Now().Unix(),
	})

	return deleted, nil
}

// afterWrite publishes the change event and drops the cached public
// projection of the affected roadmap. Both are best-effort.
func (s *VisibilityService) afterWrite(ctx context.Context, evt *event.VisibilityEvent) {
	if s.publisher != nil {
		if err := s.publisher.PublishVisibilityEvent(evt); err != nil {
			log.Printf("Failed to publish visibility event for %s %s: %v", evt.EntityType, evt.EntityID, err)
		}
	}

	if s.cache != nil {
		slug := evt.ParentRoadmapSlug
		if evt.EntityType == models.EntityTypeRoadmap {
			slug = evt.EntityID
		}
		if slug != "" {
			if err := s.cache.InvalidateRoadmap(ctx, slug); err != nil {
				log.Printf("Failed to invalidate cached projection for %s: %v", slug, err)
			}
		}
	}
}

// GetAuditHistory returns recent audit entries for one entity, newest first.
func (s *VisibilityService) GetAuditHistory(ctx context.Context, entityType models.EntityType, entityID string, limit int) ([]*models.AuditLogEntry, error) {
	if !entityType.IsValid() {
		return nil, &ValidationError{Reason: fmt.Sprintf("invalid entity type: %s", entityType)}
	}
	return s.audit.ListByEntity(ctx, entityType, entityID, limit)
}

// GetVisibilityOverview aggregates raw visibility flags across all active
// roadmaps. Counts use own flags, not effective visibility: this view is
// for admins editing settings, who need to see a milestone marked public
// under a private roadmap.
func (s *VisibilityService) GetVisibilityOverview(ctx context.Context) (*models.VisibilityOverview, error) {
	roadmaps, err := s.roadmaps.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roadmaps: %w", err)
	}

	overview := &models.VisibilityOverview{
		Roadmaps: make([]models.RoadmapVisibilitySummary, 0, len(roadmaps)),
	}

	for _, roadmap := range roadmaps {
		overview.TotalRoadmaps++

		roadmapSetting, err := s.store.Get(ctx, models.EntityTypeRoadmap, roadmap.Slug)
		if err != nil {
			return nil, err
		}
		roadmapPublic := roadmapSetting != nil && roadmapSetting.IsPublic
		if roadmapPublic {
			overview.PublicRoadmaps++
		}

		milestoneSettings, err := s.settingsByEntityID(ctx, models.EntityTypeMilestone, roadmap.Slug)
		if err != nil {
			return nil, err
		}
		objectiveSettings, err := s.settingsByEntityID(ctx, models.EntityTypeObjective, roadmap.Slug)
		if err != nil {
			return nil, err
		}

		summary := models.RoadmapVisibilitySummary{
			Slug:     roadmap.Slug,
			Title:    roadmap.Title,
			IsPublic: roadmapPublic,
		}

		for _, node := range roadmap.Nodes {
			if !node.Type.IsValid() {
				continue
			}
			summary.MilestoneCount++
			if setting := milestoneSettings[node.ID]; setting != nil && setting.IsPublic {
				summary.PublicMilestoneCount++
			}

			overview.TotalObjectives += len(node.LearningObjectives)
			for i := range node.LearningObjectives {
				objectiveID := models.ObjectiveID(node.ID, i)
				if setting := objectiveSettings[objectiveID]; setting != nil && setting.IsPublic {
					overview.PublicObjectives++
				}
			}
		}

		overview.TotalMilestones += summary.MilestoneCount
		overview.PublicMilestones += summary.PublicMilestoneCount
		overview.Roadmaps = append(overview.Roadmaps, summary)
	}

	return overview, nil
}

// GetRoadmapVisibilityDetails returns the per-node admin view of one
// roadmap: raw is_public flags alongside hierarchically effective ones.
// Returns nil when the roadmap does not exist.
func (s *VisibilityService) GetRoadmapVisibilityDetails(ctx context.Context, slug string) (*models.RoadmapVisibilityDetails, error) {
	roadmap, err := s.roadmaps.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to find roadmap: %w", err)
	}
	if roadmap == nil {
		return nil, nil
	}

	roadmapSetting, err := s.store.Get(ctx, models.EntityTypeRoadmap, slug)
	if err != nil {
		return nil, err
	}
	roadmapPublic := roadmapSetting != nil && roadmapSetting.IsPublic

	milestoneSettings, err := s.settingsByEntityID(ctx, models.EntityTypeMilestone, slug)
	if err != nil {
		return nil, err
	}
	objectiveSettings, err := s.settingsByEntityID(ctx, models.EntityTypeObjective, slug)
	if err != nil {
		return nil, err
	}

	details := &models.RoadmapVisibilityDetails{
		Slug:       roadmap.Slug,
		Title:      roadmap.Title,
		IsPublic:   roadmapPublic,
		Milestones: make([]models.MilestoneVisibilityDetail, 0, len(roadmap.Nodes)),
	}

	for _, node := range roadmap.Nodes {
		if !node.Type.IsValid() {
			continue
		}

		milestonePublic := false
		if setting := milestoneSettings[node.ID]; setting != nil {
			milestonePublic = setting.IsPublic
		}
		milestoneEffective := milestonePublic && roadmapPublic

		detail := models.MilestoneVisibilityDetail{
			NodeID:            node.ID,
			Title:             node.Title,
			Type:              node.Type,
			IsPublic:          milestonePublic,
			EffectivelyPublic: milestoneEffective,
			Objectives:        make([]models.ObjectiveVisibilityDetail, 0, len(node.LearningObjectives)),
		}

		for i, text := range node.LearningObjectives {
			objectiveID := models.ObjectiveID(node.ID, i)
			objectivePublic := false
			if setting := objectiveSettings[objectiveID]; setting != nil {
				objectivePublic = setting.IsPublic
			}
			detail.Objectives = append(detail.Objectives, models.ObjectiveVisibilityDetail{
				ObjectiveID:       objectiveID,
				Index:             i,
				Text:              text,
				IsPublic:          objectivePublic,
				EffectivelyPublic: objectivePublic && milestoneEffective,
			})
		}

		details.Milestones = append(details.Milestones, detail)
	}

	return details, nil
}

// settingsByEntityID loads all settings of one type for a roadmap in a
// single query, keyed by entity id.
func (s *VisibilityService) settingsByEntityID(ctx context.Context, entityType models.EntityType, slug string) (map[string]*models.VisibilitySetting, error) {
	settings, err := s.store.GetByRoadmap(ctx, entityType, slug)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.VisibilitySetting, len(settings))
	for _, setting := range settings {
		byID[setting.EntityID] = setting
	}
	return byID, nil
}

func visibilityEventType(entityType models.EntityType, oldValue, newValue *bool) string {
	if entityType == models.EntityTypeRoadmap && newValue != nil {
		wasPublic := oldValue != nil && *oldValue
		if *newValue && !wasPublic {
			return event.EventTypeRoadmapPublished
		}
		if !*newValue && wasPublic {
			return event.EventTypeRoadmapUnpublished
		}
	}
	return event.EventTypeVisibilityUpdated
}

func boolPtr(b bool) *bool { return &b }
