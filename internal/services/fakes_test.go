package services

import (
	"context"
	"roadmap-service/internal/event"
	"roadmap-service/internal/models"
)

// In-memory test doubles for the store, audit log, roadmap data layer,
// projection cache and event publisher.

type fakeStore struct {
	settings map[string]*models.VisibilitySetting
	setErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{settings: make(map[string]*models.VisibilitySetting)}
}

func storeKey(entityType models.EntityType, entityID string) string {
	return string(entityType) + ":" + entityID
}

func (f *fakeStore) put(setting *models.VisibilitySetting) {
	copied := *setting
	f.settings[storeKey(setting.EntityType, setting.EntityID)] = &copied
}

func (f *fakeStore) Get(ctx context.Context, entityType models.EntityType, entityID string) (*models.VisibilitySetting, error) {
	setting, ok := f.settings[storeKey(entityType, entityID)]
	if !ok {
		return nil, nil
	}
	copied := *setting
	return &copied, nil
}

func (f *fakeStore) GetBatch(ctx context.Context, entityType models.EntityType, entityIDs []string) (map[string]*models.VisibilitySetting, error) {
	result := make(map[string]*models.VisibilitySetting)
	for _, id := range entityIDs {
		if setting, ok := f.settings[storeKey(entityType, id)]; ok {
			copied := *setting
			result[id] = &copied
		}
	}
	return result, nil
}

func (f *fakeStore) GetByParent(ctx context.Context, entityType models.EntityType, parentID string) ([]*models.VisibilitySetting, error) {
	var result []*models.VisibilitySetting
	for _, setting := range f.settings {
		if setting.EntityType != entityType {
			continue
		}
		parent := setting.ParentRoadmapSlug
		if entityType == models.EntityTypeObjective {
			parent = setting.ParentMilestoneID
		}
		if parent == parentID {
			copied := *setting
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeStore) GetByRoadmap(ctx context.Context, entityType models.EntityType, roadmapSlug string) ([]*models.VisibilitySetting, error) {
	var result []*models.VisibilitySetting
	for _, setting := range f.settings {
		if setting.EntityType == entityType && setting.ParentRoadmapSlug == roadmapSlug {
			copied := *setting
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeStore) Set(ctx context.Context, setting *models.VisibilitySetting) (*models.VisibilitySetting, error) {
	if f.setErr != nil {
		return nil, f.setErr
	}
	f.put(setting)
	copied := *setting
	return &copied, nil
}

func (f *fakeStore) FindPublic(ctx context.Context, entityType models.EntityType) ([]string, error) {
	var ids []string
	for _, setting := range f.settings {
		if setting.EntityType == entityType && setting.IsPublic {
			ids = append(ids, setting.EntityID)
		}
	}
	return ids, nil
}

func (f *fakeStore) Delete(ctx context.Context, entityType models.EntityType, entityID string) (bool, error) {
	key := storeKey(entityType, entityID)
	if _, ok := f.settings[key]; !ok {
		return false, nil
	}
	delete(f.settings, key)
	return true, nil
}

type fakeAudit struct {
	entries   []*models.AuditLogEntry
	recordErr error
}

func (f *fakeAudit) Record(ctx context.Context, entry *models.AuditLogEntry) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	copied := *entry
	f.entries = append(f.entries, &copied)
	return nil
}

func (f *fakeAudit) ListByEntity(ctx context.Context, entityType models.EntityType, entityID string, limit int) ([]*models.AuditLogEntry, error) {
	var result []*models.AuditLogEntry
	for i := len(f.entries) - 1; i >= 0 && len(result) < limit; i-- {
		if f.entries[i].EntityType == entityType && f.entries[i].EntityID == entityID {
			result = append(result, f.entries[i])
		}
	}
	return result, nil
}

type fakeRoadmaps struct {
	roadmaps  map[string]*models.Roadmap
	findCalls int
}

func newFakeRoadmaps(roadmaps ...*models.Roadmap) *fakeRoadmaps {
	f := &fakeRoadmaps{roadmaps: make(map[string]*models.Roadmap)}
	for _, roadmap := range roadmaps {
		f.roadmaps[roadmap.Slug] = roadmap
	}
	return f
}

func (f *fakeRoadmaps) FindBySlug(ctx context.Context, slug string) (*models.Roadmap, error) {
	f.findCalls++
	return f.roadmaps[slug], nil
}

func (f *fakeRoadmaps) FindActive(ctx context.Context) ([]*models.Roadmap, error) {
	var result []*models.Roadmap
	for _, roadmap := range f.roadmaps {
		if roadmap.IsActive {
			result = append(result, roadmap)
		}
	}
	return result, nil
}

type fakeCache struct {
	projections map[string]*models.PublicRoadmap
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{projections: make(map[string]*models.PublicRoadmap)}
}

func (f *fakeCache) GetRoadmap(ctx context.Context, slug string) (*models.PublicRoadmap, error) {
	return f.projections[slug], nil
}

func (f *fakeCache) SetRoadmap(ctx context.Context, slug string, roadmap *models.PublicRoadmap) error {
	f.projections[slug] = roadmap
	return nil
}

func (f *fakeCache) InvalidateRoadmap(ctx context.Context, slug string) error {
	delete(f.projections, slug)
	f.invalidated = append(f.invalidated, slug)
	return nil
}

type fakePublisher struct {
	events []*event.VisibilityEvent
}

func (f *fakePublisher) PublishVisibilityEvent(evt *event.VisibilityEvent) error {
	f.events = append(f.events, evt)
	return nil
}

func (f *fakePublisher) Close() error { return nil }
