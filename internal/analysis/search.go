package analysis

import (
	"strings"

	"github.com/monster-tracker/internal/models"
)

// PlayerItem pairs a player with the full name of a matching monster
type PlayerItem struct {
	Player string `json:"player"`
	Item   string `json:"item"`
}

// FindProposing returns every (player, monster) whose monster name contains
// query, case-insensitively, and which the player offers for trade
func FindProposing(query string, snapshot *models.Snapshot) []PlayerItem {
	return findFlagged(query, snapshot, models.ItemRecord.Proposed)
}

// FindResearching returns every (player, monster) whose monster name
// contains query, case-insensitively, and which the player is looking for
func FindResearching(query string, snapshot *models.Snapshot) []PlayerItem {
	return findFlagged(query, snapshot, models.ItemRecord.Wanted)
}

func findFlagged(query string, snapshot *models.Snapshot, flag func(models.ItemRecord) bool) []PlayerItem {
	needle := strings.ToLower(query)
	result := []PlayerItem{}
	for _, player := range snapshot.Players() {
		for _, r := range snapshot.Records(player) {
			name := r.Name()
			if strings.Contains(strings.ToLower(name), needle) && flag(r) {
				result = append(result, PlayerItem{Player: player, Item: name})
			}
		}
	}
	return result
}
