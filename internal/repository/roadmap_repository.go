package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"roadmap-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type RoadmapRepository struct {
	collection *mongo.Collection
}

// NewRoadmapRepository creates a new roadmap repository instance
func NewRoadmapRepository(database *mongo.Database, collection string) *RoadmapRepository {
	return &RoadmapRepository{
		collection: database.Collection(collection),
	}
}

// InitializeIndexes creates MongoDB indexes for the roadmaps collection
func (r *RoadmapRepository) InitializeIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, models.GetRoadmapIndexes())
	if err != nil {
		return fmt.Errorf("failed to create roadmap indexes: %w", err)
	}
	return nil
}

// InitializeData loads roadmap documents from {dataDir}/roadmaps/*.json.
// Existing slugs are skipped; a malformed file is logged and skipped so
// the rest of the directory still loads.
func (r *RoadmapRepository) InitializeData(ctx context.Context, dataDir string) error {
	roadmapsDir := filepath.Join(dataDir, "roadmaps")

	if _, err := os.Stat(roadmapsDir); os.IsNotExist(err) {
		log.Printf("Roadmaps directory not found, skipping seed: %s", roadmapsDir)
		return nil
	}

	var loaded int
	err := filepath.WalkDir(roadmapsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			return nil
		}

		roadmap, err := r.loadRoadmapFromFile(path)
		if err != nil {
			log.Printf("Warning: Failed to load roadmap from %s: %v", path, err)
			return nil
		}

		existing, err := r.FindBySlug(ctx, roadmap.Slug)
		if err != nil {
			return fmt.Errorf("failed to check roadmap existence: %w", err)
		}
		if existing != nil {
			return nil
		}

		if _, err := r.Create(ctx, roadmap); err != nil {
			log.Printf("Warning: Failed to insert roadmap '%s': %v", roadmap.Slug, err)
			return nil
		}

		loaded++
		log.Printf("Loaded roadmap: %s", roadmap.Slug)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk roadmaps directory: %w", err)
	}

	log.Printf("Successfully loaded %d roadmaps from %s", loaded, roadmapsDir)
	return nil
}

func (r *RoadmapRepository) loadRoadmapFromFile(filePath string) (*models.Roadmap, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var roadmap models.Roadmap
	if err := json.Unmarshal(data, &roadmap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if roadmap.Slug == "" {
		return nil, fmt.Errorf("roadmap is missing a slug")
	}
	return &roadmap, nil
}

// Create inserts a new roadmap document
func (r *RoadmapRepository) Create(ctx context.Context, roadmap *models.Roadmap) (*models.Roadmap, error) {
	if roadmap.ID.IsZero() {
		roadmap.ID = bson.NewObjectID()
	}

	now := time.Now()
	roadmap.CreatedAt = now
	roadmap.UpdatedAt = now
	roadmap.IsActive = true

	_, err := r.collection.InsertOne(ctx, roadmap)
	if err != nil {
		return nil, fmt.Errorf("failed to create roadmap: %w", err)
	}
	return roadmap, nil
}

// FindBySlug returns the roadmap with the given slug, or nil if none
// exists. Absence is not an error.
func (r *RoadmapRepository) FindBySlug(ctx context.Context, slug string) (*models.Roadmap, error) {
	var roadmap models.Roadmap
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&roadmap)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find roadmap: %w", err)
	}
	return &roadmap, nil
}

// FindActive returns all active roadmaps
func (r *RoadmapRepository) FindActive(ctx context.Context) ([]*models.Roadmap, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"is_active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to find active roadmaps: %w", err)
	}
	defer cursor.Close(ctx)

	var roadmaps []*models.Roadmap
	if err := cursor.All(ctx, &roadmaps); err != nil {
		return nil, fmt.Errorf("failed to decode roadmaps: %w", err)
	}
	return roadmaps, nil
}
