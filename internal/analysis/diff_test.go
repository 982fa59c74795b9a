package analysis

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monster-tracker/internal/models"
)

func TestDiff_WorkedExample(t *testing.T) {
	old := mustSnapshot(t, `{"A": [{"nom":"Foo","quantite":"2","propose":"0"}]}`)
	newer := mustSnapshot(t, `{"A": [{"nom":"Foo","quantite":"5","propose":"1"}]}`)

	q := Diff(old, newer, DiffQuantity)
	require.Len(t, q.Players, 1)
	assert.False(t, q.Players[0].NewPlayer)
	assert.Equal(t, []string{"Added 3 of monster 'Foo' (old: 2, new: 5)"}, q.Players[0].Messages())

	p := Diff(old, newer, DiffPresence)
	require.Len(t, p.Players, 1)
	assert.Equal(t, []string{"Added monster 'Foo' to the market"}, p.Players[0].Messages())
}

func TestDiff_Quantity(t *testing.T) {
	old := mustSnapshot(t, `{
		"A": [
			{"nom": "Foo", "quantite": "4"},
			{"nom": "Gone", "quantite": "1"},
			{"nom": "Same", "quantite": "1"}
		],
		"Leaver": [{"nom": "Foo", "quantite": "1"}],
		"Nulled": [{"nom": "Foo", "quantite": "1"}],
		"WasNull": null
	}`)
	newer := mustSnapshot(t, `{
		"A": [
			{"nom": "Foo", "quantite": "1"},
			{"nom": "Foo", "quantite": "bad"},
			{"nom": "Same", "quantite": 1},
			{"nom": "Fresh", "quantite": "2"},
			{"quantite": "7"}
		],
		"Nulled": null,
		"WasNull": [{"nom": "Bar", "quantite": "1"}],
		"Newcomer": [{"nom": "Baz", "quantite": "3"}]
	}`)

	res := Diff(old, newer, DiffQuantity)

	require.Len(t, res.Players, 3)
	assert.Equal(t, "A", res.Players[0].Player)
	assert.False(t, res.Players[0].NewPlayer)
	assert.Equal(t, []string{
		"Removed 3 of monster 'Foo' (old: 4, new: 1)",
		"Added 2 of monster 'Fresh' (old: 0, new: 2)",
		"Removed 1 of monster 'Gone' (old: 1, new: 0)",
	}, res.Players[0].Messages())

	assert.Equal(t, "WasNull", res.Players[1].Player)
	assert.True(t, res.Players[1].NewPlayer)
	assert.Equal(t, "Newcomer", res.Players[2].Player)
	assert.True(t, res.Players[2].NewPlayer)

	assert.Equal(t, []string{"Leaver", "Nulled"}, res.Disappeared)
}

func TestDiff_PresenceIsOrReduced(t *testing.T) {
	old := mustSnapshot(t, `{"A": [
		{"nom": "Foo", "propose": "1"},
		{"nom": "Bar", "propose": "1"},
		{"nom": "Bar", "propose": "0"}
	]}`)
	newer := mustSnapshot(t, `{"A": [
		{"nom": "Foo", "propose": "0"},
		{"nom": "Foo", "propose": "0"},
		{"nom": "Bar", "propose": "0"},
		{"nom": "Bar", "propose": "1"},
		{"nom": "Baz", "propose": "true"}
	]}`)

	res := Diff(old, newer, DiffPresence)
	require.Len(t, res.Players, 1)
	assert.Equal(t, []string{"Removed monster 'Foo' from the market"}, res.Players[0].Messages())
}

func TestDiff_EmptyNewDataIsSkipped(t *testing.T) {
	old := mustSnapshot(t, `{"A": null}`)
	newer := mustSnapshot(t, `{"A": [], "B": null}`)

	res := Diff(old, newer, DiffQuantity)
	assert.Empty(t, res.Players)
	assert.Empty(t, res.Disappeared)
}

func TestDiff_DisappearedRequiresOldData(t *testing.T) {
	old := mustSnapshot(t, `{"Idle": null, "Empty": [], "Had": [{"nom": "Foo", "quantite": "1"}]}`)
	newer := mustSnapshot(t, `{}`)

	res := Diff(old, newer, DiffQuantity)
	assert.Empty(t, res.Players)
	assert.Equal(t, []string{"Had"}, res.Disappeared)
}

func TestDiff_NilOldSnapshot(t *testing.T) {
	newer := mustSnapshot(t, `{"A": [{"nom": "Foo", "quantite": "1"}]}`)

	res := Diff(nil, newer, DiffQuantity)
	require.Len(t, res.Players, 1)
	assert.True(t, res.Players[0].NewPlayer)
}

func TestParseDiffMode(t *testing.T) {
	m, ok := ParseDiffMode("presence")
	assert.True(t, ok)
	assert.Equal(t, DiffPresence, m)

	_, ok = ParseDiffMode("volume")
	assert.False(t, ok)
}

func TestDiffProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	for _, mode := range []DiffMode{DiffPresence, DiffQuantity} {
		mode := mode
		properties.Property("diff of a snapshot with itself is empty ("+string(mode)+")", prop.ForAll(
			func(codes []int) bool {
				s := snapshotFromCodes(codes)
				res := Diff(s, s, mode)
				return len(res.Players) == 0 && len(res.Disappeared) == 0
			},
			gen.SliceOf(gen.IntRange(0, 999)),
		))
	}

	properties.Property("every player losing all data is reported once", prop.ForAll(
		func(codes []int) bool {
			old := snapshotFromCodes(codes)
			res := Diff(old, models.NewSnapshot(), DiffQuantity)

			withData := 0
			for _, p := range old.Players() {
				if old.HasData(p) {
					withData++
				}
			}
			return len(res.Players) == 0 && len(res.Disappeared) == withData
		},
		gen.SliceOf(gen.IntRange(0, 999)),
	))

	properties.TestingRun(t)
}
