package analysis

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/monster-tracker/internal/models"
)

func mustSnapshot(t *testing.T, raw string) *models.Snapshot {
	t.Helper()
	s := models.NewSnapshot()
	require.NoError(t, json.Unmarshal([]byte(raw), s))
	return s
}

// snapshotFromCodes builds a snapshot from small integers so that gopter
// can shrink failing cases: each code picks a player, a monster and a
// quantity.
func snapshotFromCodes(codes []int) *models.Snapshot {
	s := models.NewSnapshot()
	byPlayer := map[string][]models.ItemRecord{}
	var order []string
	for _, c := range codes {
		player := fmt.Sprintf("player-%d", c%4)
		item := fmt.Sprintf("Monster %d", (c/4)%5)
		qty := c / 20
		if _, ok := byPlayer[player]; !ok {
			order = append(order, player)
		}
		byPlayer[player] = append(byPlayer[player], models.ItemRecord{
			models.FieldName:     item,
			models.FieldKind:     models.KindArchimonstre,
			models.FieldQuantity: fmt.Sprint(qty),
			models.FieldProposed: fmt.Sprint(c % 2),
			models.FieldStage:    fmt.Sprint(c % 3),
		})
	}
	for _, p := range order {
		s.Set(p, byPlayer[p])
	}
	s.Set("player-empty", nil)
	return s
}
