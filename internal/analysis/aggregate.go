// Package analysis implements the inventory analysis engine: aggregation of
// per-monster totals, rarity extremes, snapshot diffs, imbalance detection
// and offer/wish searches. Every function is pure and leaves its inputs
// untouched, so one snapshot can feed several reports concurrently.
package analysis

import (
	"encoding/json"

	apperrors "github.com/monster-tracker/internal/errors"
	"github.com/monster-tracker/internal/models"
)

// ItemTotal is the aggregated count of one monster. Sample is the last
// record seen for that name and sources the display metadata.
type ItemTotal struct {
	Name   string            `json:"name"`
	Count  int               `json:"count"`
	Sample models.ItemRecord `json:"sample"`
}

// AggregatedCount holds per-monster totals in first-seen order
type AggregatedCount struct {
	order  []string
	totals map[string]*ItemTotal
}

func newAggregatedCount() *AggregatedCount {
	return &AggregatedCount{totals: make(map[string]*ItemTotal)}
}

func (a *AggregatedCount) add(name string, qty int, sample models.ItemRecord) {
	t, ok := a.totals[name]
	if !ok {
		t = &ItemTotal{Name: name}
		a.totals[name] = t
		a.order = append(a.order, name)
	}
	t.Count += qty
	t.Sample = sample
}

// Len returns the number of distinct monsters
func (a *AggregatedCount) Len() int {
	if a == nil {
		return 0
	}
	return len(a.order)
}

// Get returns the total for a monster
func (a *AggregatedCount) Get(name string) (ItemTotal, bool) {
	if a == nil {
		return ItemTotal{}, false
	}
	t, ok := a.totals[name]
	if !ok {
		return ItemTotal{}, false
	}
	return *t, true
}

// Entries returns a copy of the totals in first-seen order
func (a *AggregatedCount) Entries() []ItemTotal {
	if a == nil {
		return nil
	}
	out := make([]ItemTotal, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, *a.totals[name])
	}
	return out
}

// MarshalJSON encodes the totals as an ordered list
func (a *AggregatedCount) MarshalJSON() ([]byte, error) {
	entries := a.Entries()
	if entries == nil {
		entries = []ItemTotal{}
	}
	return json.Marshal(entries)
}

// AggregateOptions filters what Aggregate counts. The zero value counts
// every record of every player.
type AggregateOptions struct {
	// OnlyArchi keeps only records of kind "archimonstre"
	OnlyArchi bool
	// OnlyProposed counts 1 per record offered for trade instead of the quantity
	OnlyProposed bool
	// Players restricts the players considered; empty means all of them
	Players []string
}

// Aggregate sums monster quantities across the players of a snapshot.
// A quantity that is not an integer aborts the aggregation with a
// malformed_input error naming the player and monster.
func Aggregate(snapshot *models.Snapshot, opts AggregateOptions) (*AggregatedCount, error) {
	var allowed map[string]struct{}
	if len(opts.Players) > 0 {
		allowed = make(map[string]struct{}, len(opts.Players))
		for _, p := range opts.Players {
			allowed[p] = struct{}{}
		}
	}

	counts := newAggregatedCount()
	for _, player := range snapshot.Players() {
		if allowed != nil {
			if _, ok := allowed[player]; !ok {
				continue
			}
		}

		for _, record := range snapshot.Records(player) {
			if opts.OnlyArchi && !record.IsArchimonstre() {
				continue
			}

			qty, err := contribution(record, opts.OnlyProposed)
			if err != nil {
				return nil, apperrors.NewMalformedQuantityError(player, record.Name(), record.RawQuantity(), err)
			}

			if name := record.Name(); name != "" {
				counts.add(name, qty, record)
			}
		}
	}

	return counts, nil
}

func contribution(record models.ItemRecord, onlyProposed bool) (int, error) {
	if onlyProposed {
		if record.Proposed() {
			return 1, nil
		}
		return 0, nil
	}
	return record.Quantity()
}
