package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NodeType classifies roadmap nodes.
type NodeType string

const (
	NodeTypeMilestone NodeType = "milestone"
	NodeTypeTopic     NodeType = "topic"
	NodeTypeOptional  NodeType = "optional"
)

// IsValid reports whether the node type is one of the known kinds.
// Nodes with unrecognized types are excluded from public projections.
func (t NodeType) IsValid() bool {
	switch t {
	case NodeTypeMilestone, NodeTypeTopic, NodeTypeOptional:
		return true
	}
	return false
}

// Position is a node's placement on the roadmap canvas.
type Position struct {
	X float64 `bson:"x" json:"x"`
	Y float64 `bson:"y" json:"y"`
}

// RoadmapNode is a single milestone/topic within a roadmap.
type RoadmapNode struct {
	ID                 string         `bson:"id" json:"id"`
	Title              string         `bson:"title" json:"title"`
	Description        string         `bson:"description" json:"description"`
	Type               NodeType       `bson:"type" json:"type"`
	Position           Position       `bson:"position" json:"position"`
	LearningObjectives []string       `bson:"learning_objectives" json:"learning_objectives"`
	Metadata           map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// RoadmapEdge connects two nodes by id.
type RoadmapEdge struct {
	ID     string `bson:"id,omitempty" json:"id,omitempty"`
	Source string `bson:"source" json:"source"`
	Target string `bson:"target" json:"target"`
}

// Roadmap is the full roadmap document as stored. The visibility engine
// reads it but never mutates it.
type Roadmap struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Slug           string        `bson:"slug" json:"slug"`
	Title          string        `bson:"title" json:"title"`
	Description    string        `bson:"description" json:"description"`
	Category       string        `bson:"category" json:"category"`
	Difficulty     string        `bson:"difficulty" json:"difficulty"`
	EstimatedHours int           `bson:"estimated_hours" json:"estimated_hours"`
	Nodes          []RoadmapNode `bson:"nodes" json:"nodes"`
	Edges          []RoadmapEdge `bson:"edges" json:"edges"`
	IsActive       bool          `bson:"is_active" json:"is_active"`
	CreatedBy      string        `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt      time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `bson:"updated_at" json:"updated_at"`
}

// FindNode returns the node with the given id, or nil.
func (r *Roadmap) FindNode(nodeID string) *RoadmapNode {
	for i := range r.Nodes {
		if r.Nodes[i].ID == nodeID {
			return &r.Nodes[i]
		}
	}
	return nil
}

// PublicRoadmapNode is the redacted node served to anonymous callers.
type PublicRoadmapNode struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Type               NodeType `json:"type"`
	Position           Position `json:"position"`
	LearningObjectives []string `json:"learning_objectives"`
}

// PublicRoadmap is the public projection of a roadmap: only effectively
// visible nodes and objectives, only edges between surviving nodes, no
// admin-only fields.
type PublicRoadmap struct {
	Slug           string              `json:"slug"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Category       string              `json:"category"`
	Difficulty     string              `json:"difficulty"`
	EstimatedHours int                 `json:"estimated_hours"`
	Nodes          []PublicRoadmapNode `json:"nodes"`
	Edges          []RoadmapEdge       `json:"edges"`
}

// PublicRoadmapSummary is one entry in the public roadmap listing.
type PublicRoadmapSummary struct {
	Slug           string `json:"slug"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	Difficulty     string `json:"difficulty"`
	EstimatedHours int    `json:"estimated_hours"`
}

// RoadmapVisibilitySummary is one roadmap's row in the admin overview.
// PublicMilestoneCount counts milestones whose own flag is public,
// regardless of whether the roadmap itself is, so an admin can spot
// settings that are not actually in effect.
type RoadmapVisibilitySummary struct {
	Slug                 string `json:"slug"`
	Title                string `json:"title"`
	IsPublic             bool   `json:"is_public"`
	MilestoneCount       int    `json:"milestone_count"`
	PublicMilestoneCount int    `json:"public_milestone_count"`
}

// VisibilityOverview aggregates visibility stats across all active roadmaps.
type VisibilityOverview struct {
	TotalRoadmaps    int                        `json:"total_roadmaps"`
	PublicRoadmaps   int                        `json:"public_roadmaps"`
	TotalMilestones  int                        `json:"total_milestones"`
	PublicMilestones int                        `json:"public_milestones"`
	TotalObjectives  int                        `json:"total_objectives"`
	PublicObjectives int                        `json:"public_objectives"`
	Roadmaps         []RoadmapVisibilitySummary `json:"roadmaps"`
}

// ObjectiveVisibilityDetail pairs an objective's raw flag with its
// hierarchically resolved one.
type ObjectiveVisibilityDetail struct {
	ObjectiveID       string `json:"objective_id"`
	Index             int    `json:"index"`
	Text              string `json:"text"`
	IsPublic          bool   `json:"is_public"`
	EffectivelyPublic bool   `json:"effectively_public"`
}

// MilestoneVisibilityDetail is one node's row in the per-roadmap detail view.
type MilestoneVisibilityDetail struct {
	NodeID            string                      `json:"node_id"`
	Title             string                      `json:"title"`
	Type              NodeType                    `json:"type"`
	IsPublic          bool                        `json:"is_public"`
	EffectivelyPublic bool                        `json:"effectively_public"`
	Objectives        []ObjectiveVisibilityDetail `json:"objectives"`
}

// RoadmapVisibilityDetails is the admin view of a single roadmap's
// visibility, raw flags alongside effective ones.
type RoadmapVisibilityDetails struct {
	Slug       string                      `json:"slug"`
	Title      string                      `json:"title"`
	IsPublic   bool                        `json:"is_public"`
	Milestones []MilestoneVisibilityDetail `json:"milestones"`
}

// GetRoadmapIndexes returns MongoDB indexes for the roadmaps collection.
func GetRoadmapIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "is_active", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}},
		},
	}
}
