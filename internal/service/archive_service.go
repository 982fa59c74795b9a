package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/monster-tracker/internal/analysis"
	apperrors "github.com/monster-tracker/internal/errors"
	"github.com/monster-tracker/internal/logging"
	"github.com/monster-tracker/internal/models"
)

// SnapshotArchive stores whole snapshots
type SnapshotArchive interface {
	Create(ctx context.Context, archived *models.ArchivedSnapshot) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ArchivedSnapshot, error)
	Latest(ctx context.Context) (*models.ArchivedSnapshot, error)
	List(ctx context.Context, limit int) ([]*models.ArchivedSnapshot, error)
}

// CountHistory stores per-snapshot monster totals
type CountHistory interface {
	InsertCounts(ctx context.Context, points []models.ItemCountPoint) error
	ItemHistory(ctx context.Context, query string, from, to *time.Time) ([]models.ItemCountPoint, error)
}

// ArchiveService keeps a history of snapshots in Postgres and of their
// archimonstre totals in ClickHouse
type ArchiveService struct {
	archive SnapshotArchive
	history CountHistory
	reports *ReportService
}

// NewArchiveService creates a new archive service. history may be nil, in
// which case totals are not recorded.
func NewArchiveService(archive SnapshotArchive, history CountHistory, reports *ReportService) *ArchiveService {
	return &ArchiveService{
		archive: archive,
		history: history,
		reports: reports,
	}
}

// Archive stores a snapshot file and its totals. Totals are computed
// first so a malformed snapshot is rejected before anything is written.
func (s *ArchiveService) Archive(ctx context.Context, path, label string, takenAt time.Time) (*models.ArchivedSnapshot, error) {
	snapshot, err := s.reports.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}

	totals, err := analysis.Aggregate(snapshot, analysis.AggregateOptions{OnlyArchi: true})
	if err != nil {
		return nil, err
	}
	proposed, err := analysis.Aggregate(snapshot, analysis.AggregateOptions{OnlyArchi: true, OnlyProposed: true})
	if err != nil {
		return nil, err
	}

	if takenAt.IsZero() {
		takenAt = time.Now().UTC()
	}
	archived := &models.ArchivedSnapshot{
		Label:    label,
		TakenAt:  takenAt,
		Snapshot: snapshot,
	}
	if err := s.archive.Create(ctx, archived); err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"snapshot": archived.ID.String(),
		"players":  archived.Players,
	})

	if s.history != nil {
		points := CountPoints(archived.ID, takenAt, totals, proposed)
		if err := s.history.InsertCounts(ctx, points); err != nil {
			return archived, err
		}
		logger = logger.WithField("monsters", len(points))
	}

	logger.Info("Snapshot archived")
	return archived, nil
}

// CountPoints flattens the totals of one snapshot into history rows
func CountPoints(id uuid.UUID, takenAt time.Time, totals, proposed *analysis.AggregatedCount) []models.ItemCountPoint {
	points := make([]models.ItemCountPoint, 0, totals.Len())
	for _, t := range totals.Entries() {
		p := models.ItemCountPoint{
			SnapshotID: id,
			TakenAt:    takenAt,
			Item:       t.Name,
			Count:      int64(t.Count),
		}
		if offered, ok := proposed.Get(t.Name); ok {
			p.Proposed = int64(offered.Count)
		}
		points = append(points, p)
	}
	return points
}

// List returns the most recent archived snapshots without payloads
func (s *ArchiveService) List(ctx context.Context, limit int) ([]*models.ArchivedSnapshot, error) {
	return s.archive.List(ctx, limit)
}

// Get loads an archived snapshot by id. "latest" selects the newest one.
func (s *ArchiveService) Get(ctx context.Context, id string) (*models.ArchivedSnapshot, error) {
	if id == "latest" {
		archived, err := s.archive.Latest(ctx)
		if err != nil {
			return nil, err
		}
		if archived == nil {
			return nil, apperrors.NewMissingDataError("snapshot archive", nil)
		}
		return archived, nil
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.NewInvalidParameterError("id", "not a snapshot id")
	}
	return s.archive.GetByID(ctx, parsed)
}

// CompareArchived diffs an archived snapshot against a snapshot file
func (s *ArchiveService) CompareArchived(ctx context.Context, id, newPath string, mode analysis.DiffMode) (analysis.DiffResult, error) {
	archived, err := s.Get(ctx, id)
	if err != nil {
		return analysis.DiffResult{}, err
	}
	return s.reports.CompareWith(ctx, archived.Snapshot, newPath, mode)
}

// ItemHistory returns the archived totals of the monsters matching query
func (s *ArchiveService) ItemHistory(ctx context.Context, query string, from, to *time.Time) ([]models.ItemCountPoint, error) {
	if query == "" {
		return nil, apperrors.NewInvalidParameterError("monster", "must not be empty")
	}
	if s.history == nil {
		return nil, apperrors.NewMissingDataError("count history", nil)
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, apperrors.NewInvalidParameterError("to", "must not be before from")
	}
	return s.history.ItemHistory(ctx, query, from, to)
}
