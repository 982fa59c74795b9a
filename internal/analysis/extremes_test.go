package analysis

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(totals []ItemTotal) []string {
	out := make([]string, len(totals))
	for i, t := range totals {
		out[i] = t.Name
	}
	return out
}

func TestRankExtremes(t *testing.T) {
	s := mustSnapshot(t, `{
		"A": [
			{"nom": "Tie1", "quantite": "2"},
			{"nom": "Big", "quantite": "9"},
			{"nom": "Tie2", "quantite": "2"},
			{"nom": "Small", "quantite": "1"},
			{"nom": "Mid", "quantite": "5"}
		]
	}`)
	counts, err := Aggregate(s, AggregateOptions{})
	require.NoError(t, err)

	tests := []struct {
		name   string
		n      int
		rare   []string
		common []string
	}{
		{"zero", 0, []string{}, []string{}},
		{"negative", -3, []string{}, []string{}},
		{"two with stable ties", 3, []string{"Small", "Tie1", "Tie2"}, []string{"Big", "Mid", "Tie2"}},
		{"more than available overlaps", 10,
			[]string{"Small", "Tie1", "Tie2", "Mid", "Big"},
			[]string{"Big", "Mid", "Tie2", "Tie1", "Small"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := RankExtremes(counts, tt.n)
			assert.Equal(t, tt.rare, names(ex.Rare))
			assert.Equal(t, tt.common, names(ex.Common))
		})
	}
}

func TestRankExtremes_Empty(t *testing.T) {
	ex := RankExtremes(newAggregatedCount(), 5)
	assert.Empty(t, ex.Rare)
	assert.Empty(t, ex.Common)
}

func TestRankExtremesProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("rare ascends, common descends, both min(n, len) long", prop.ForAll(
		func(codes []int, n int) bool {
			counts, err := Aggregate(snapshotFromCodes(codes), AggregateOptions{})
			if err != nil {
				return false
			}
			ex := RankExtremes(counts, n)

			want := n
			if counts.Len() < want {
				want = counts.Len()
			}
			if len(ex.Rare) != want || len(ex.Common) != want {
				return false
			}
			for i := 1; i < len(ex.Rare); i++ {
				if ex.Rare[i-1].Count > ex.Rare[i].Count {
					return false
				}
				if ex.Common[i-1].Count < ex.Common[i].Count {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 999)),
		gen.IntRange(0, 8),
	))

	properties.TestingRun(t)
}
