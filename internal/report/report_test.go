package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monster-tracker/internal/analysis"
	apperrors "github.com/monster-tracker/internal/errors"
	"github.com/monster-tracker/internal/models"
)

func sample(displayName, zone, subZone string, stage interface{}) models.ItemRecord {
	return models.ItemRecord{
		models.FieldDisplayName: displayName,
		models.FieldZone:        zone,
		models.FieldSubZone:     subZone,
		models.FieldStage:       stage,
	}
}

func TestRenderExtremes_Verbose(t *testing.T) {
	ex := analysis.Extremes{
		Rare: []analysis.ItemTotal{
			{Name: "Bouftonnerre", Count: 1, Sample: sample("Bouftou", "Amakna", "Champs", 3)},
		},
		Common: []analysis.ItemTotal{
			{Name: "Tofuzmo", Count: 12, Sample: sample("Tofu", "Astrub", "Prairie", "1")},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderExtremes(&buf, ex, true))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Top 1 Most Rare Monsters:", lines[0])
	assert.Equal(t, "#1  Bouftonnerre:   1 (sous-monstre: Bouftou) - Champs (Amakna)  - etape 3", lines[1])
	assert.Equal(t, "", lines[2])
	assert.Equal(t, "Top 1 Most Common Monsters:", lines[3])
	assert.Equal(t, "#1  Tofuzmo     :  12 (sous-monstre: Tofu)    - Prairie (Astrub) - etape 1", lines[4])
}

func TestRenderExtremes_Compact(t *testing.T) {
	ex := analysis.Extremes{
		Rare:   []analysis.ItemTotal{{Name: "Aé", Count: 1, Sample: sample("x", "Z", "S", 1)}},
		Common: []analysis.ItemTotal{{Name: "Bcd", Count: 2, Sample: sample("y", "Z", "T", 1)}},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderExtremes(&buf, ex, false))
	assert.Equal(t, "Top 1 Most Rare Monsters:\n#1  Aé  - S (Z)\n\nTop 1 Most Common Monsters:\n#1  Bcd - T (Z)\n", buf.String())
}

func TestRenderExtremes_MissingMetadata(t *testing.T) {
	ex := analysis.Extremes{
		Rare: []analysis.ItemTotal{
			{Name: "Ok", Count: 1, Sample: sample("a", "b", "c", 1)},
			{Name: "Bare", Count: 2, Sample: models.ItemRecord{models.FieldDisplayName: "x"}},
		},
	}

	var buf bytes.Buffer
	err := RenderExtremes(&buf, ex, true)
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryRenderingPrecondition))
	assert.Empty(t, buf.String(), "nothing is printed before the check fails")
}

func TestRenderExtremes_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderExtremes(&buf, analysis.Extremes{}, true))
	assert.Equal(t, "Top 0 Most Rare Monsters:\n\nTop 0 Most Common Monsters:\n", buf.String())
}

func TestRenderHistogram(t *testing.T) {
	entries := []analysis.ItemTotal{
		{Name: "Zero", Count: 0},
		{Name: "A", Count: 1},
		{Name: "Big", Count: 10},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderHistogram(&buf, entries, 10))
	assert.Equal(t, "Zero |  0\nA    | # 1\nBig  | ########## 10\n", buf.String())
}

func TestRenderDiff(t *testing.T) {
	res := analysis.DiffResult{
		Mode: analysis.DiffQuantity,
		Players: []analysis.PlayerChanges{
			{
				Player:    "Newbie",
				NewPlayer: true,
				Changes:   []analysis.Change{{Mode: analysis.DiffQuantity, Item: "A", Old: 0, New: 2}},
			},
			{
				Player:  "Kerman",
				Changes: []analysis.Change{{Mode: analysis.DiffQuantity, Item: "B", Old: 3, New: 1}},
			},
		},
		Disappeared: []string{"Gone"},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderDiff(&buf, res))

	want := "Player 'Newbie' [NEW PLAYER]:\n" +
		"  " + res.Players[0].Changes[0].Message() + "\n\n" +
		"Player 'Kerman':\n" +
		"  " + res.Players[1].Changes[0].Message() + "\n\n" +
		"Player 'Gone' is missing in the new data (possibly removed from the system).\n"
	assert.Equal(t, want, buf.String())
}

func TestRenderDiff_NoChanges(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderDiff(&buf, analysis.DiffResult{}))
	assert.Empty(t, buf.String())
}

func TestImbalanceMessage(t *testing.T) {
	r := analysis.ImbalanceReport{
		Player:    "Kerman",
		HighItems: []analysis.ItemCount{{Name: "X", Count: 9}, {Name: "Y", Count: 8}},
		Average:   2.5,
		Factor:    3,
	}
	assert.Equal(t,
		"Player 'Kerman' is unbalanced: high count for X (9), Y (8) (average over owned monsters: 2.50, threshold: 3×average).",
		ImbalanceMessage(r))

	r.Factor = 2.5
	assert.Contains(t, ImbalanceMessage(r), "threshold: 2.5×average")
}

func TestRenderImbalance(t *testing.T) {
	reports := []analysis.ImbalanceReport{
		{Player: "A", HighItems: []analysis.ItemCount{{Name: "X", Count: 4}}, Average: 1, Factor: 3},
		{Player: "B", MissingItems: []string{"Y"}, Average: 1, Factor: 3},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderImbalance(&buf, reports))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Player 'A' is unbalanced: high count for X (4)"))
	assert.True(t, strings.HasPrefix(lines[1], "Player 'B' is unbalanced: high count for  ("))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]interface{}{"name": "<Bouftou>"}))

	assert.Contains(t, buf.String(), "<Bouftou>")
	assert.Contains(t, buf.String(), "\n    \"name\"")

	var back map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "<Bouftou>", back["name"])
}
