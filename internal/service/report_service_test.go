package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monster-tracker/internal/analysis"
	apperrors "github.com/monster-tracker/internal/errors"
	"github.com/monster-tracker/internal/metrics"
	"github.com/monster-tracker/internal/models"
)

func reportFixture() (*ReportService, *mockFiles) {
	files := newMockFiles()

	current := models.NewSnapshot()
	current.Set("kerman", []models.ItemRecord{archi("A", "3", "1"), archi("B", "1", "0")})
	current.Set("lea", []models.ItemRecord{archi("A", "2", "0"), {models.FieldName: "Bouftou", models.FieldKind: "monstre", models.FieldQuantity: "50"}})
	current.Set("gone", []models.ItemRecord{{models.FieldName: "Tofu", models.FieldKind: "monstre", models.FieldQuantity: "1"}})
	files.snapshots["monsters.json"] = current

	newer := models.NewSnapshot()
	newer.Set("kerman", []models.ItemRecord{archi("A", "1", "1"), archi("B", "1", "0")})
	newer.Set("lea", []models.ItemRecord{archi("A", "2", "0"), {models.FieldName: "Bouftou", models.FieldKind: "monstre", models.FieldQuantity: "50"}})
	files.snapshots["test.json"] = newer

	return NewReportService(files, testPaths, metrics.NewRegistry()), files
}

func TestReportService_Stats(t *testing.T) {
	svc, _ := reportFixture()

	ex, err := svc.Stats(context.Background(), StatsQuery{N: 1, OnlyArchi: true})
	require.NoError(t, err)
	require.Len(t, ex.Rare, 1)
	assert.Equal(t, "B", ex.Rare[0].Name)
	assert.Equal(t, "A", ex.Common[0].Name)
	assert.Equal(t, 5, ex.Common[0].Count)

	all, err := svc.Stats(context.Background(), StatsQuery{N: 1})
	require.NoError(t, err)
	assert.Equal(t, "Bouftou", all.Common[0].Name)
}

func TestReportService_StatsFilters(t *testing.T) {
	svc, _ := reportFixture()

	ex, err := svc.Stats(context.Background(), StatsQuery{N: 5, OnlyArchi: true, OnlyProposed: true})
	require.NoError(t, err)
	assert.Equal(t, "A", ex.Common[0].Name)
	assert.Equal(t, 1, ex.Common[0].Count)

	ex, err = svc.Stats(context.Background(), StatsQuery{N: 5, OnlyArchi: true, Players: []string{"lea"}})
	require.NoError(t, err)
	require.Len(t, ex.Rare, 1)
	assert.Equal(t, 2, ex.Rare[0].Count)
}

func TestReportService_StatsMalformed(t *testing.T) {
	svc, files := reportFixture()
	bad := models.NewSnapshot()
	bad.Set("kerman", []models.ItemRecord{archi("A", "lots", "0")})
	files.snapshots["bad.json"] = bad

	_, err := svc.Stats(context.Background(), StatsQuery{Path: "bad.json", N: 3})
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryMalformedInput))
}

func TestReportService_MissingFile(t *testing.T) {
	svc, _ := reportFixture()

	_, err := svc.Histogram(context.Background(), StatsQuery{Path: "absent.json"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryMissingData))
}

func TestReportService_Histogram(t *testing.T) {
	svc, _ := reportFixture()

	entries, err := svc.Histogram(context.Background(), StatsQuery{OnlyArchi: true})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "B", entries[0].Name)
	assert.Equal(t, "A", entries[1].Name)
}

func TestReportService_CompareDefaults(t *testing.T) {
	svc, _ := reportFixture()

	res, err := svc.Compare(context.Background(), "", "", analysis.DiffQuantity)
	require.NoError(t, err)
	require.Len(t, res.Players, 1)
	assert.Equal(t, "kerman", res.Players[0].Player)
	assert.Equal(t, []string{"Removed 2 of monster 'A' (old: 3, new: 1)"}, res.Players[0].Messages())
	assert.Equal(t, []string{"gone"}, res.Disappeared)
}

func TestReportService_Imbalance(t *testing.T) {
	svc, files := reportFixture()
	skewed := models.NewSnapshot()
	skewed.Set("hoarder", []models.ItemRecord{
		archi("V", "1", "0"), archi("W", "1", "0"), archi("X", "100", "0"), archi("Y", "1", "0"), archi("Z", "0", "0"),
	})
	files.snapshots["skewed.json"] = skewed

	reports, err := svc.Imbalance(context.Background(), "skewed.json", 0)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, DefaultImbalanceFactor, reports[0].Factor)
	assert.Equal(t, []string{"Z"}, reports[0].MissingItems)
	assert.Equal(t, "X", reports[0].HighItems[0].Name)

	_, err = svc.Imbalance(context.Background(), "skewed.json", -1)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))
}

func TestReportService_Search(t *testing.T) {
	svc, files := reportFixture()
	dir := models.NewUserDirectory()
	dir.Set("kerman", models.UserProfile{models.FieldPseudo: "Kerman", models.FieldLastSeen: "2024-01-01 00:00:00"})
	files.directories["users.json"] = dir

	lines, err := svc.Search(context.Background(), SearchProposing, "a")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "kerman", lines[0].Player)
	assert.True(t, lines[0].Known)

	lines, err = svc.Search(context.Background(), SearchResearching, "a")
	require.NoError(t, err)
	assert.Empty(t, lines)

	_, err = svc.Search(context.Background(), SearchProposing, "  ")
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))
}

func TestReportService_SearchWithoutDirectory(t *testing.T) {
	svc, _ := reportFixture()

	lines, err := svc.Search(context.Background(), SearchProposing, "A")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.False(t, lines[0].Known)
}
