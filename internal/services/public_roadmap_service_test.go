package services

import (
	"context"
	"testing"

	"roadmap-service/internal/models"
)

func filterTestRoadmap() *models.Roadmap {
	return &models.Roadmap{
		Slug:           "system-design",
		Title:          "System Design",
		Description:    "Scalable systems from scratch",
		Category:       "architecture",
		Difficulty:     "advanced",
		EstimatedHours: 60,
		IsActive:       true,
		Nodes: []models.RoadmapNode{
			{
				ID:                 "B",
				Title:              "Databases",
				Type:               models.NodeTypeMilestone,
				LearningObjectives: []string{"Indexes"},
			},
			{
				ID:                 "A",
				Title:              "Networking",
				Type:               models.NodeTypeMilestone,
				LearningObjectives: []string{"TCP basics", "TLS handshakes"},
			},
			{
				ID:                 "C",
				Title:              "Caching",
				Type:               models.NodeTypeTopic,
				LearningObjectives: []string{"Cache invalidation"},
			},
		},
		Edges: []models.RoadmapEdge{
			{Source: "A", Target: "B"},
			{Source: "A", Target: "C"},
		},
	}
}

func TestPublicProjectionNeverLeaks(t *testing.T) {
	store := newFakeStore()
	seedSetting(store, models.EntityTypeRoadmap, "system-design", true, "", "")
	// A public with objectives [public, private]; B private; C public
	seedSetting(store, models.EntityTypeMilestone, "A", true, "system-design", "")
	seedSetting(store, models.EntityTypeMilestone, "B", false, "system-design", "")
	seedSetting(store, models.EntityTypeMilestone, "C", true, "system-design", "")
	seedSetting(store, models.EntityTypeObjective, models.ObjectiveID("A", 0), true, "system-design", "A")
	seedSetting(store, models.EntityTypeObjective, models.ObjectiveID("A", 1), false, "system-design", "A")

	service := NewPublicRoadmapService(store, newFakeRoadmaps(filterTestRoadmap()), nil)

	projection, err := service.GetPublicRoadmapBySlug(context.Background(), "system-design")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if projection == nil {
		t.Fatal("Expected a projection for a public roadmap")
	}

	if len(projection.Nodes) != 2 {
		t.Fatalf("Expected 2 surviving nodes, got %d", len(projection.Nodes))
	}
	for _, node := range projection.Nodes {
		if node.ID == "B" {
			t.Error("Private milestone B must not appear in the projection")
		}
		if node.ID == "A" {
			if len(node.LearningObjectives) != 1 || node.LearningObjectives[0] != "TCP basics" {
				t.Errorf("Expected only the public objective of A, got %v", node.LearningObjectives)
			}
		}
	}
}

func TestPublicProjectionPrunesDanglingEdges(t *testing.T) {
	store := newFakeStore()
	seedSetting(store, models.EntityTypeRoadmap, "system-design", true, "", "")
	// Only A and C survive; edge A->B must be dropped
	seedSetting(store, models.EntityTypeMilestone, "A", true, "system-design", "")
	seedSetting(store, models.EntityTypeMilestone, "C", true, "system-design", "")

	service := NewPublicRoadmapService(store, newFakeRoadmaps(filterTestRoadmap()), nil)

	projection, err := service.GetPublicRoadmapBySlug(context.Background(), "system-design")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(projection.Edges) != 1 {
		t.Fatalf("Expected 1 surviving edge, got %d", len(projection.Edges))
	}
	if projection.Edges[0].Source != "A" || projection.Edges[0].Target != "C" {
		t.Errorf("Expected edge A->C, got %s->%s", projection.Edges[0].Source, projection.Edges[0].Target)
	}
}

func TestPrivateRoadmapIsWithheldEntirely(t *testing.T) {
	store := newFakeStore()
	// Milestones marked public under a private roadmap leak nothing
	seedSetting(store, models.EntityTypeMilestone, "A", true, "system-design", "")

	service := NewPublicRoadmapService(store, newFakeRoadmaps(filterTestRoadmap()), nil)
	ctx := context.Background()

	projection, err := service.GetPublicRoadmapBySlug(ctx, "system-design")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if projection != nil {
		t.Error("Expected nil projection for a private roadmap")
	}

	// Same for a roadmap that does not exist at all
	projection, err = service.GetPublicRoadmapBySlug(ctx, "no-such-roadmap")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if projection != nil {
		t.Error("Expected nil projection for a missing roadmap")
	}
}

func TestPublicRoadmapWithNothingPublicInside(t *testing.T) {
	store := newFakeStore()
	seedSetting(store, models.EntityTypeRoadmap, "system-design", true, "", "")

	service := NewPublicRoadmapService(store, newFakeRoadmaps(filterTestRoadmap()), nil)

	projection, err := service.GetPublicRoadmapBySlug(context.Background(), "system-design")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if projection == nil {
		t.Fatal("A public roadmap with zero public milestones must still return a projection")
	}
	if projection.Nodes == nil || len(projection.Nodes) != 0 {
		t.Errorf("Expected empty nodes slice, got %v", projection.Nodes)
	}
	if projection.Edges == nil || len(projection.Edges) != 0 {
		t.Errorf("Expected empty edges slice, got %v", projection.Edges)
	}
	if projection.Slug != "system-design" || projection.Title != "System Design" {
		t.Errorf("Unexpected projection header: %+v", projection)
	}
}

func TestPublicProjectionExcludesUnknownNodeTypes(t *testing.T) {
	roadmap := filterTestRoadmap()
	roadmap.Nodes = append(roadmap.Nodes, models.RoadmapNode{
		ID:    "X",
		Title: "Internal Notes",
		Type:  "draft",
	})

	store := newFakeStore()
	seedSetting(store, models.EntityTypeRoadmap, "system-design", true, "", "")
	seedSetting(store, models.EntityTypeMilestone, "X", true, "system-design", "")

	service := NewPublicRoadmapService(store, newFakeRoadmaps(roadmap), nil)

	projection, err := service.GetPublicRoadmapBySlug(context.Background(), "system-design")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(projection.Nodes) != 0 {
		t.Errorf("Node with unrecognized type must be excluded, got %v", projection.Nodes)
	}
}

func TestGetPublicRoadmaps(t *testing.T) {
	active := filterTestRoadmap()
	inactive := &models.Roadmap{Slug: "retired", Title: "Retired", IsActive: false}

	store := newFakeStore()
	seedSetting(store, models.EntityTypeRoadmap, "system-design", true, "", "")
	seedSetting(store, models.EntityTypeRoadmap, "retired", true, "", "")
	// public setting for a roadmap document that no longer exists
	seedSetting(store, models.EntityTypeRoadmap, "deleted", true, "", "")

	service := NewPublicRoadmapService(store, newFakeRoadmaps(active, inactive), nil)

	summaries, err := service.GetPublicRoadmaps(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("Expected 1 public roadmap, got %d", len(summaries))
	}
	if summaries[0].Slug != "system-design" || summaries[0].EstimatedHours != 60 {
		t.Errorf("Unexpected summary: %+v", summaries[0])
	}
}

func TestProjectionCacheRoundTrip(t *testing.T) {
	store := newFakeStore()
	seedSetting(store, models.EntityTypeRoadmap, "system-design", true, "", "")
	seedSetting(store, models.EntityTypeMilestone, "A", true, "system-design", "")

	roadmaps := newFakeRoadmaps(filterTestRoadmap())
	cache := newFakeCache()
	service := NewPublicRoadmapService(store, roadmaps, cache)
	ctx := context.Background()

	first, err := service.GetPublicRoadmapBySlug(ctx, "system-design")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	callsAfterFirst := roadmaps.findCalls

	second, err := service.GetPublicRoadmapBySlug(ctx, "system-design")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if roadmaps.findCalls != callsAfterFirst {
		t.Error("Second read should be served from the cache without hitting the data layer")
	}
	if len(first.Nodes) != len(second.Nodes) {
		t.Error("Cached projection must match the freshly built one")
	}

	// Unpublishing bypasses the cache: the roadmap-level gate runs first
	seedSetting(store, models.EntityTypeRoadmap, "system-design", false, "", "")
	third, err := service.GetPublicRoadmapBySlug(ctx, "system-design")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if third != nil {
		t.Error("A cached projection must not be served for an unpublished roadmap")
	}
}
