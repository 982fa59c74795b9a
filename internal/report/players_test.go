package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monster-tracker/internal/analysis"
	"github.com/monster-tracker/internal/models"
)

func testDirectory() *models.UserDirectory {
	d := models.NewUserDirectory()
	d.Set("recent", models.UserProfile{
		models.FieldPseudo:   "Recent",
		models.FieldLink:     "https://metamob.fr/u/recent",
		models.FieldLastSeen: "2024-05-02 10:00:00",
	})
	d.Set("old", models.UserProfile{
		models.FieldPseudo:   "Oldie",
		models.FieldLink:     "https://metamob.fr/u/old",
		models.FieldLastSeen: "2023-01-01 08:30:00",
	})
	d.Set("twin", models.UserProfile{
		models.FieldPseudo:   "Twin",
		models.FieldLink:     "l",
		models.FieldLastSeen: "2023-01-01 08:30:00",
	})
	d.Add("fresh")
	return d
}

func TestEnrichPlayers_SortsByLastSeen(t *testing.T) {
	hits := []analysis.PlayerItem{
		{Player: "recent", Item: "A"},
		{Player: "old", Item: "B"},
		{Player: "fresh", Item: "C"},
		{Player: "twin", Item: "D"},
		{Player: "stranger", Item: "E"},
	}

	lines := EnrichPlayers(hits, testDirectory())
	require.Len(t, lines, 5)

	order := make([]string, len(lines))
	for i, l := range lines {
		order[i] = l.Player
	}
	// players sharing a timestamp keep their hit order
	assert.Equal(t, []string{"fresh", "stranger", "old", "twin", "recent"}, order)

	assert.False(t, lines[0].Known)
	assert.Equal(t, models.EarliestLastSeen, lines[0].LastSeen)
	assert.True(t, lines[2].Known)
	assert.Equal(t, "Oldie", lines[2].Pseudo)
}

func TestEnrichPlayers_NilDirectory(t *testing.T) {
	lines := EnrichPlayers([]analysis.PlayerItem{{Player: "a", Item: "X"}}, nil)
	require.Len(t, lines, 1)
	assert.False(t, lines[0].Known)
}

func TestRenderPlayers(t *testing.T) {
	hits := []analysis.PlayerItem{
		{Player: "recent", Item: "Abc"},
		{Player: "stranger", Item: "A"},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderPlayers(&buf, EnrichPlayers(hits, testDirectory())))
	assert.Equal(t,
		"A   - metamob: stranger - no data\n"+
			"Abc - Recent (metamob: recent) - https://metamob.fr/u/recent - Last login: 2024-05-02 10:00:00\n",
		buf.String())
}
