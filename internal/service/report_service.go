// Package service wires the analysis engine to its collaborators: snapshot
// files, the Metamob API, the archive databases and the response cache.
package service

import (
	"context"
	"strings"

	"github.com/monster-tracker/internal/analysis"
	"github.com/monster-tracker/internal/config"
	apperrors "github.com/monster-tracker/internal/errors"
	"github.com/monster-tracker/internal/logging"
	"github.com/monster-tracker/internal/metrics"
	"github.com/monster-tracker/internal/models"
	"github.com/monster-tracker/internal/report"
)

// SnapshotFiles loads the local JSON stores
type SnapshotFiles interface {
	LoadSnapshot(path string) (*models.Snapshot, error)
	LoadUserDirectory(path string) (*models.UserDirectory, error)
}

// DefaultImbalanceFactor is the threshold multiplier used when none is given
const DefaultImbalanceFactor = 3.0

// DefaultTopN is the number of monsters listed by the stats report
const DefaultTopN = 10

// StatsQuery selects the snapshot and filters of an aggregation
type StatsQuery struct {
	Path         string   // snapshot file, defaults to the monsters file
	N            int      // entries per extremes list
	OnlyArchi    bool     // archimonstre records only
	OnlyProposed bool     // count offers instead of quantities
	Players      []string // restrict to these players
}

// SearchKind selects which flag a search matches
type SearchKind string

const (
	SearchProposing   SearchKind = "proposing"
	SearchResearching SearchKind = "researching"
)

// ReportService computes the reports over local snapshot files
type ReportService struct {
	files   SnapshotFiles
	paths   config.FilesConfig
	metrics *metrics.Registry
}

// NewReportService creates a new report service
func NewReportService(files SnapshotFiles, paths config.FilesConfig, m *metrics.Registry) *ReportService {
	return &ReportService{
		files:   files,
		paths:   paths,
		metrics: m,
	}
}

// LoadSnapshot loads a snapshot file, the monsters file when path is empty
func (s *ReportService) LoadSnapshot(path string) (*models.Snapshot, error) {
	if path == "" {
		path = s.paths.MonstersFile
	}
	return s.files.LoadSnapshot(path)
}

// Counts aggregates a snapshot file
func (s *ReportService) Counts(ctx context.Context, q StatsQuery) (*analysis.AggregatedCount, error) {
	snapshot, err := s.LoadSnapshot(q.Path)
	if err != nil {
		return nil, err
	}

	counts, err := analysis.Aggregate(snapshot, analysis.AggregateOptions{
		OnlyArchi:    q.OnlyArchi,
		OnlyProposed: q.OnlyProposed,
		Players:      q.Players,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SetSnapshotSize(snapshot.Len(), counts.Len())
	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"players":  snapshot.Len(),
		"monsters": counts.Len(),
	}).Debug("Aggregated snapshot")
	return counts, nil
}

// Stats returns the rarest and most common monsters
func (s *ReportService) Stats(ctx context.Context, q StatsQuery) (analysis.Extremes, error) {
	counts, err := s.Counts(ctx, q)
	s.metrics.ObserveReport("stats", err)
	if err != nil {
		return analysis.Extremes{}, err
	}
	return analysis.RankExtremes(counts, q.N), nil
}

// Histogram returns every monster total in ascending count order
func (s *ReportService) Histogram(ctx context.Context, q StatsQuery) ([]analysis.ItemTotal, error) {
	counts, err := s.Counts(ctx, q)
	s.metrics.ObserveReport("histogram", err)
	if err != nil {
		return nil, err
	}
	return analysis.SortedByCount(counts), nil
}

// Compare diffs two snapshot files. Empty paths default to the monsters
// file (old) and the compare file (new).
func (s *ReportService) Compare(ctx context.Context, oldPath, newPath string, mode analysis.DiffMode) (analysis.DiffResult, error) {
	if oldPath == "" {
		oldPath = s.paths.MonstersFile
	}
	if newPath == "" {
		newPath = s.paths.CompareFile
	}

	oldSnapshot, err := s.files.LoadSnapshot(oldPath)
	if err != nil {
		s.metrics.ObserveReport("compare", err)
		return analysis.DiffResult{}, err
	}
	return s.CompareWith(ctx, oldSnapshot, newPath, mode)
}

// CompareWith diffs an already loaded snapshot against a snapshot file
func (s *ReportService) CompareWith(ctx context.Context, oldSnapshot *models.Snapshot, newPath string, mode analysis.DiffMode) (analysis.DiffResult, error) {
	if newPath == "" {
		newPath = s.paths.CompareFile
	}
	newSnapshot, err := s.files.LoadSnapshot(newPath)
	s.metrics.ObserveReport("compare", err)
	if err != nil {
		return analysis.DiffResult{}, err
	}

	res := analysis.Diff(oldSnapshot, newSnapshot, mode)
	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"mode":        string(mode),
		"changed":     len(res.Players),
		"disappeared": len(res.Disappeared),
	}).Debug("Compared snapshots")
	return res, nil
}

// Imbalance flags players whose inventory is skewed. A zero factor uses
// DefaultImbalanceFactor.
func (s *ReportService) Imbalance(ctx context.Context, path string, factor float64) ([]analysis.ImbalanceReport, error) {
	if factor == 0 {
		factor = DefaultImbalanceFactor
	}
	snapshot, err := s.LoadSnapshot(path)
	if err != nil {
		s.metrics.ObserveReport("imbalance", err)
		return nil, err
	}

	reports, err := analysis.DetectImbalanced(snapshot, factor)
	s.metrics.ObserveReport("imbalance", err)
	return reports, err
}

// Search lists the players offering or looking for a monster, oldest
// login first
func (s *ReportService) Search(ctx context.Context, kind SearchKind, query string) ([]report.PlayerLine, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewInvalidParameterError("monster", "must not be empty")
	}

	snapshot, err := s.LoadSnapshot("")
	if err != nil {
		return nil, err
	}

	var hits []analysis.PlayerItem
	switch kind {
	case SearchProposing:
		hits = analysis.FindProposing(query, snapshot)
	case SearchResearching:
		hits = analysis.FindResearching(query, snapshot)
	default:
		return nil, apperrors.NewInvalidParameterError("kind", "must be proposing or researching")
	}

	directory, err := s.files.LoadUserDirectory(s.paths.UsersFile)
	if err != nil {
		// profiles are decoration; list the players without them
		logging.FromContext(ctx).WithError(err).Warn("User directory unavailable")
		directory = models.NewUserDirectory()
	}

	s.metrics.ObserveReport("search_"+string(kind), nil)
	return report.EnrichPlayers(hits, directory), nil
}
