package service

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/monster-tracker/internal/config"
	apperrors "github.com/monster-tracker/internal/errors"
	"github.com/monster-tracker/internal/models"
)

var testPaths = config.FilesConfig{
	UsersFile:    "users.json",
	MonstersFile: "monsters.json",
	CompareFile:  "test.json",
}

// Mock collaborators for testing

type mockFiles struct {
	snapshots   map[string]*models.Snapshot
	directories map[string]*models.UserDirectory
	saveErr     error
}

func newMockFiles() *mockFiles {
	return &mockFiles{
		snapshots:   make(map[string]*models.Snapshot),
		directories: make(map[string]*models.UserDirectory),
	}
}

func (m *mockFiles) LoadSnapshot(path string) (*models.Snapshot, error) {
	if s, ok := m.snapshots[path]; ok {
		return s, nil
	}
	return nil, apperrors.NewMissingDataError(path, nil)
}

func (m *mockFiles) LoadUserDirectory(path string) (*models.UserDirectory, error) {
	if d, ok := m.directories[path]; ok {
		return d, nil
	}
	return nil, apperrors.NewMissingDataError(path, nil)
}

func (m *mockFiles) SaveSnapshot(path string, s *models.Snapshot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snapshots[path] = s
	return nil
}

func (m *mockFiles) SaveUserDirectory(path string, d *models.UserDirectory) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.directories[path] = d
	return nil
}

type mockProvider struct {
	monsters map[string][]models.ItemRecord
	profiles map[string]models.UserProfile
	calls    []string
}

func (m *mockProvider) FetchMonsters(ctx context.Context, username string, onlyArchi bool) ([]models.ItemRecord, error) {
	m.calls = append(m.calls, "monsters:"+username)
	records, ok := m.monsters[username]
	if !ok {
		return nil, apperrors.NewProviderError("monsters", http.StatusNotFound, nil)
	}
	if !onlyArchi {
		return records, nil
	}
	var kept []models.ItemRecord
	for _, r := range records {
		if r.IsArchimonstre() {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

func (m *mockProvider) FetchProfile(ctx context.Context, username string) (models.UserProfile, error) {
	m.calls = append(m.calls, "profile:"+username)
	if p, ok := m.profiles[username]; ok {
		return p, nil
	}
	return nil, apperrors.NewProviderError("profile", http.StatusBadGateway, nil)
}

type mockCache struct {
	mu       sync.Mutex
	monsters map[string][]models.ItemRecord
	profiles map[string]models.UserProfile
}

func newMockCache() *mockCache {
	return &mockCache{
		monsters: make(map[string][]models.ItemRecord),
		profiles: make(map[string]models.UserProfile),
	}
}

func (m *mockCache) GetMonsters(ctx context.Context, username string, onlyArchi bool) ([]models.ItemRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.monsters[username]
	return r, ok, nil
}

func (m *mockCache) SetMonsters(ctx context.Context, username string, onlyArchi bool, records []models.ItemRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.monsters[username] = records
	return nil
}

func (m *mockCache) GetProfile(ctx context.Context, username string) (models.UserProfile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[username]
	return p, ok, nil
}

func (m *mockCache) SetProfile(ctx context.Context, username string, profile models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[username] = profile
	return nil
}

type mockArchive struct {
	snapshots []*models.ArchivedSnapshot
	createErr error
}

func (m *mockArchive) Create(ctx context.Context, archived *models.ArchivedSnapshot) error {
	if m.createErr != nil {
		return m.createErr
	}
	if archived.ID == uuid.Nil {
		archived.ID = uuid.New()
	}
	archived.Players = archived.Snapshot.Len()
	m.snapshots = append(m.snapshots, archived)
	return nil
}

func (m *mockArchive) GetByID(ctx context.Context, id uuid.UUID) (*models.ArchivedSnapshot, error) {
	for _, s := range m.snapshots {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, apperrors.NewMissingDataError("snapshot "+id.String(), nil)
}

func (m *mockArchive) Latest(ctx context.Context) (*models.ArchivedSnapshot, error) {
	var latest *models.ArchivedSnapshot
	for _, s := range m.snapshots {
		if latest == nil || s.TakenAt.After(latest.TakenAt) {
			latest = s
		}
	}
	return latest, nil
}

func (m *mockArchive) List(ctx context.Context, limit int) ([]*models.ArchivedSnapshot, error) {
	out := append([]*models.ArchivedSnapshot{}, m.snapshots...)
	sort.Slice(out, func(i, j int) bool { return out[i].TakenAt.After(out[j].TakenAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockHistory struct {
	points []models.ItemCountPoint
}

func (m *mockHistory) InsertCounts(ctx context.Context, points []models.ItemCountPoint) error {
	m.points = append(m.points, points...)
	return nil
}

func (m *mockHistory) ItemHistory(ctx context.Context, query string, from, to *time.Time) ([]models.ItemCountPoint, error) {
	var out []models.ItemCountPoint
	for _, p := range m.points {
		if !strings.Contains(strings.ToLower(p.Item), strings.ToLower(query)) {
			continue
		}
		if from != nil && p.TakenAt.Before(*from) {
			continue
		}
		if to != nil && p.TakenAt.After(*to) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func archi(name string, qty interface{}, proposed string) models.ItemRecord {
	return models.ItemRecord{
		models.FieldName:     name,
		models.FieldKind:     models.KindArchimonstre,
		models.FieldQuantity: qty,
		models.FieldProposed: proposed,
		models.FieldWanted:   "0",
	}
}
