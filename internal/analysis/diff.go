package analysis

import (
	"fmt"
	"sort"

	"github.com/monster-tracker/internal/models"
)

// DiffMode selects what Diff compares per monster
type DiffMode string

const (
	// DiffPresence compares whether a monster is offered for trade
	DiffPresence DiffMode = "presence"
	// DiffQuantity compares summed owned quantities
	DiffQuantity DiffMode = "quantity"
)

// ParseDiffMode returns the mode named s, or false when unknown
func ParseDiffMode(s string) (DiffMode, bool) {
	switch DiffMode(s) {
	case DiffPresence, DiffQuantity:
		return DiffMode(s), true
	default:
		return "", false
	}
}

// Change is one monster whose grouped value differs between snapshots
type Change struct {
	Mode DiffMode `json:"mode"`
	Item string   `json:"item"`
	Old  int      `json:"old"`
	New  int      `json:"new"`
}

// Delta returns New - Old
func (c Change) Delta() int {
	return c.New - c.Old
}

// Message renders the change as a human readable line
func (c Change) Message() string {
	if c.Mode == DiffPresence {
		if c.New > c.Old {
			return fmt.Sprintf("Added monster '%s' to the market", c.Item)
		}
		return fmt.Sprintf("Removed monster '%s' from the market", c.Item)
	}

	d := c.Delta()
	if d > 0 {
		return fmt.Sprintf("Added %d of monster '%s' (old: %d, new: %d)", d, c.Item, c.Old, c.New)
	}
	return fmt.Sprintf("Removed %d of monster '%s' (old: %d, new: %d)", -d, c.Item, c.Old, c.New)
}

// PlayerChanges lists the changes of one player. NewPlayer is set when the
// player had no data in the old snapshot.
type PlayerChanges struct {
	Player    string   `json:"player"`
	NewPlayer bool     `json:"newPlayer"`
	Changes   []Change `json:"changes"`
}

// Messages returns the rendered change lines in item order
func (p PlayerChanges) Messages() []string {
	out := make([]string, len(p.Changes))
	for i, c := range p.Changes {
		out[i] = c.Message()
	}
	return out
}

// DiffResult is the outcome of comparing two snapshots
type DiffResult struct {
	Mode        DiffMode        `json:"mode"`
	Players     []PlayerChanges `json:"players"`
	Disappeared []string        `json:"disappeared"`
}

// Diff compares two snapshots player by player.
//
// Players without data in the new snapshot are skipped; those that had
// data in the old snapshot are listed in Disappeared instead. Players are
// visited in new-snapshot order and monsters in name order.
func Diff(old, newer *models.Snapshot, mode DiffMode) DiffResult {
	result := DiffResult{
		Mode:        mode,
		Players:     []PlayerChanges{},
		Disappeared: []string{},
	}

	for _, player := range newer.Players() {
		if !newer.HasData(player) {
			continue
		}

		newGroup := groupRecords(newer.Records(player), mode)
		oldGroup := groupRecords(old.Records(player), mode)

		changes := compareGroups(oldGroup, newGroup, mode)
		if len(changes) == 0 {
			continue
		}

		result.Players = append(result.Players, PlayerChanges{
			Player:    player,
			NewPlayer: !old.HasData(player),
			Changes:   changes,
		})
	}

	for _, player := range old.Players() {
		if old.HasData(player) && !newer.HasData(player) {
			result.Disappeared = append(result.Disappeared, player)
		}
	}

	return result
}

// groupRecords reduces a player's records to one value per monster name:
// 1 if any record is offered for trade (presence) or the summed quantity
// with unparseable values counted as 0 (quantity).
func groupRecords(records []models.ItemRecord, mode DiffMode) map[string]int {
	grouped := make(map[string]int)
	for _, r := range records {
		name := r.Name()
		if name == "" {
			continue
		}

		if mode == DiffPresence {
			if r.Proposed() {
				grouped[name] = 1
			} else if _, seen := grouped[name]; !seen {
				grouped[name] = 0
			}
			continue
		}

		grouped[name] += r.QuantityOrZero()
	}
	return grouped
}

func compareGroups(oldGroup, newGroup map[string]int, mode DiffMode) []Change {
	names := make([]string, 0, len(oldGroup)+len(newGroup))
	for name := range newGroup {
		names = append(names, name)
	}
	for name := range oldGroup {
		if _, ok := newGroup[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var changes []Change
	for _, name := range names {
		o, n := oldGroup[name], newGroup[name]
		if o == n {
			continue
		}
		changes = append(changes, Change{Mode: mode, Item: name, Old: o, New: n})
	}
	return changes
}
