package models

import (
	"testing"
)

func TestObjectiveID(t *testing.T) {
	testCases := []struct {
		milestoneID string
		index       int
		expected    string
	}{
		{"m1", 0, "m1-objective-0"},
		{"m1", 7, "m1-objective-7"},
		{"node_1712000000", 2, "node_1712000000-objective-2"},
	}

	for _, tc := range testCases {
		if got := ObjectiveID(tc.milestoneID, tc.index); got != tc.expected {
			t.Errorf("ObjectiveID(%q, %d) = %q, expected %q", tc.milestoneID, tc.index, got, tc.expected)
		}
	}
}

func TestVisibilitySettingValidate(t *testing.T) {
	testCases := []struct {
		name    string
		setting VisibilitySetting
		wantErr bool
	}{
		{"roadmap needs no parents", VisibilitySetting{
			EntityType: EntityTypeRoadmap, EntityID: "go-backend",
		}, false},
		{"milestone with roadmap slug", VisibilitySetting{
			EntityType: EntityTypeMilestone, EntityID: "m1", ParentRoadmapSlug: "go-backend",
		}, false},
		{"milestone missing roadmap slug", VisibilitySetting{
			EntityType: EntityTypeMilestone, EntityID: "m1",
		}, true},
		{"objective with both parents", VisibilitySetting{
			EntityType: EntityTypeObjective, EntityID: "m1-objective-0",
			ParentRoadmapSlug: "go-backend", ParentMilestoneID: "m1",
		}, false},
		{"objective missing milestone id", VisibilitySetting{
			EntityType: EntityTypeObjective, EntityID: "m1-objective-0",
			ParentRoadmapSlug: "go-backend",
		}, true},
		{"objective missing roadmap slug", VisibilitySetting{
			EntityType: EntityTypeObjective, EntityID: "m1-objective-0",
			ParentMilestoneID: "m1",
		}, true},
		{"unknown entity type", VisibilitySetting{
			EntityType: "lesson", EntityID: "x",
		}, true},
		{"missing entity id", VisibilitySetting{
			EntityType: EntityTypeRoadmap,
		}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.setting.Validate()
			if tc.wantErr && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

func TestEntityTypeIsValid(t *testing.T) {
	for _, valid := range []EntityType{EntityTypeRoadmap, EntityTypeMilestone, EntityTypeObjective} {
		if !valid.IsValid() {
			t.Errorf("Expected %s to be valid", valid)
		}
	}
	for _, invalid := range []EntityType{"", "lesson", "Roadmap"} {
		if invalid.IsValid() {
			t.Errorf("Expected %q to be invalid", invalid)
		}
	}
}

func TestRoadmapFindNode(t *testing.T) {
	roadmap := &Roadmap{
		Nodes: []RoadmapNode{
			{ID: "m1", Title: "Fundamentals"},
			{ID: "m2", Title: "Advanced"},
		},
	}

	if node := roadmap.FindNode("m2"); node == nil || node.Title != "Advanced" {
		t.Errorf("Expected to find m2, got %+v", node)
	}
	if node := roadmap.FindNode("m9"); node != nil {
		t.Errorf("Expected nil for unknown node, got %+v", node)
	}
}
