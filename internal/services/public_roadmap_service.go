package services

import (
	"context"
	"fmt"
	"log"

	"roadmap-service/internal/models"
)

// PublicRoadmapService serves the redacted roadmap views for anonymous
// callers. It never mutates anything.
type PublicRoadmapService struct {
	store    VisibilityStore
	roadmaps RoadmapFinder
	cache    ProjectionCache
}

// NewPublicRoadmapService creates the public roadmap service. Cache may
// be nil; every request is then resolved from the store.
func NewPublicRoadmapService(store VisibilityStore, roadmaps RoadmapFinder, cache ProjectionCache) *PublicRoadmapService {
	return &PublicRoadmapService{
		store:    store,
		roadmaps: roadmaps,
		cache:    cache,
	}
}

// GetPublicRoadmapBySlug returns the public projection of a roadmap, or
// nil when the roadmap is private or does not exist. A public roadmap
// with nothing public inside still returns a projection with empty nodes,
// not nil.
func (s *PublicRoadmapService) GetPublicRoadmapBySlug(ctx context.Context, slug string) (*models.PublicRoadmap, error) {
	// Roadmap-level gate first, so an unpublished roadmap never serves a
	// stale cached projection.
	roadmapSetting, err := s.store.Get(ctx, models.EntityTypeRoadmap, slug)
	if err != nil {
		return nil, err
	}
	if roadmapSetting == nil || !roadmapSetting.IsPublic {
		return nil, nil
	}

	if s.cache != nil {
		cached, err := s.cache.GetRoadmap(ctx, slug)
		if err != nil {
			log.Printf("Failed to read cached projection for %s: %v", slug, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	roadmap, err := s.roadmaps.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to find roadmap: %w", err)
	}
	if roadmap == nil {
		return nil, nil
	}

	projection, err := s.buildProjection(ctx, roadmap)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetRoadmap(ctx, slug, projection); err != nil {
			log.Printf("Failed to cache projection for %s: %v", slug, err)
		}
	}
	return projection, nil
}

// buildProjection filters a roadmap document down to its publicly
// visible subset. The roadmap-level gate has already been applied, so
// milestone and objective checks use own flags only.
func (s *PublicRoadmapService) buildProjection(ctx context.Context, roadmap *models.Roadmap) (*models.PublicRoadmap, error) {
	milestoneSettings, err := s.store.GetByParent(ctx, models.EntityTypeMilestone, roadmap.Slug)
	if err != nil {
		return nil, err
	}
	publicMilestones := make(map[string]bool, len(milestoneSettings))
	for _, setting := range milestoneSettings {
		if setting.IsPublic {
			publicMilestones[setting.EntityID] = true
		}
	}

	// One query for the whole roadmap's objective settings instead of one
	// per milestone.
	objectiveSettings, err := s.store.GetByRoadmap(ctx, models.EntityTypeObjective, roadmap.Slug)
	if err != nil {
		return nil, err
	}
	publicObjectives := make(map[string]bool, len(objectiveSettings))
	for _, setting := range objectiveSettings {
		if setting.IsPublic {
			publicObjectives[setting.EntityID] = true
		}
	}

	projection := &models.PublicRoadmap{
		Slug:           roadmap.Slug,
		Title:          roadmap.Title,
		Description:    roadmap.Description,
		Category:       roadmap.Category,
		Difficulty:     roadmap.Difficulty,
		EstimatedHours: roadmap.EstimatedHours,
		Nodes:          []models.PublicRoadmapNode{},
		Edges:          []models.RoadmapEdge{},
	}

	surviving := make(map[string]bool)
	for _, node := range roadmap.Nodes {
		if !node.Type.IsValid() || !publicMilestones[node.ID] {
			continue
		}

		objectives := []string{}
		for i, text := range node.LearningObjectives {
			if publicObjectives[models.ObjectiveID(node.ID, i)] {
				objectives = append(objectives, text)
			}
		}

		projection.Nodes = append(projection.Nodes, models.PublicRoadmapNode{
			ID:                 node.ID,
			Title:              node.Title,
			Description:        node.Description,
			Type:               node.Type,
			Position:           node.Position,
			LearningObjectives: objectives,
		})
		surviving[node.ID] = true
	}

	// Keep an edge only when both endpoints survived; never leave a
	// dangling reference to a filtered-out node.
	for _, edge := range roadmap.Edges {
		if surviving[edge.Source] && surviving[edge.Target] {
			projection.Edges = append(projection.Edges, edge)
		}
	}

	return projection, nil
}

// GetPublicRoadmaps lists all roadmaps whose own flag is public and that
// still exist as active documents.
func (s *PublicRoadmapService) GetPublicRoadmaps(ctx context.Context) ([]*models.PublicRoadmapSummary, error) {
	slugs, err := s.store.FindPublic(ctx, models.EntityTypeRoadmap)
	if err != nil {
		return nil, err
	}

	summaries := make([]*models.PublicRoadmapSummary, 0, len(slugs))
	for _, slug := range slugs {
		roadmap, err := s.roadmaps.FindBySlug(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("failed to find roadmap: %w", err)
		}
		if roadmap == nil || !roadmap.IsActive {
			// a setting can outlive its roadmap; skip it
			continue
		}
		summaries = append(summaries, &models.PublicRoadmapSummary{
			Slug:           roadmap.Slug,
			Title:          roadmap.Title,
			Description:    roadmap.Description,
			Category:       roadmap.Category,
			Difficulty:     roadmap.Difficulty,
			EstimatedHours: roadmap.EstimatedHours,
		})
	}
	return summaries, nil
}
