package analysis

import (
	"math"
	"sort"

	apperrors "github.com/monster-tracker/internal/errors"
	"github.com/monster-tracker/internal/models"
)

// ItemCount is a monster name with a player's count of it
type ItemCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ImbalanceReport describes a player whose holdings are lopsided
type ImbalanceReport struct {
	Player       string      `json:"player"`
	HighItems    []ItemCount `json:"highItems"`
	MissingItems []string    `json:"missingItems"`
	Average      float64     `json:"average"`
	Factor       float64     `json:"factor"`
}

// Threshold returns the count above which a monster is "high"
func (r ImbalanceReport) Threshold() float64 {
	return r.Factor * r.Average
}

// Catalog returns the names of every monster seen in the snapshot on a
// record that is not fully evolved, sorted by name. Stage is compared as
// field text, so a numeric etape 14 counts as fully evolved too.
func Catalog(snapshot *models.Snapshot) []string {
	seen := make(map[string]struct{})
	for _, player := range snapshot.Players() {
		for _, r := range snapshot.Records(player) {
			if r.Stage() == models.StageFullyEvolved {
				continue
			}
			if name := r.Name(); name != "" {
				seen[name] = struct{}{}
			}
		}
	}

	catalog := make([]string, 0, len(seen))
	for name := range seen {
		catalog = append(catalog, name)
	}
	sort.Strings(catalog)
	return catalog
}

// DetectImbalanced reports, in snapshot order, every player owning at
// least one monster above factor times their average owned count while
// missing at least one catalog monster entirely.
func DetectImbalanced(snapshot *models.Snapshot, factor float64) ([]ImbalanceReport, error) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil, apperrors.NewInvalidParameterError("factor", "must be a positive number")
	}

	catalog := Catalog(snapshot)
	reports := []ImbalanceReport{}

	for _, player := range snapshot.Players() {
		if !snapshot.HasData(player) {
			continue
		}

		counts := playerCounts(snapshot.Records(player), catalog)
		avg := positiveAverage(counts)
		threshold := factor * avg

		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)

		var high []ItemCount
		var missing []string
		for _, name := range names {
			c := counts[name]
			if float64(c) > threshold {
				high = append(high, ItemCount{Name: name, Count: c})
			}
			if c == 0 {
				missing = append(missing, name)
			}
		}

		if len(high) > 0 && len(missing) > 0 {
			reports = append(reports, ImbalanceReport{
				Player:       player,
				HighItems:    high,
				MissingItems: missing,
				Average:      avg,
				Factor:       factor,
			})
		}
	}

	return reports, nil
}

// playerCounts starts every catalog monster at 0 and adds the quantity of
// each record that is not excluded from counts. Monsters outside the
// catalog are counted too.
func playerCounts(records []models.ItemRecord, catalog []string) map[string]int {
	counts := make(map[string]int, len(catalog))
	for _, name := range catalog {
		counts[name] = 0
	}
	for _, r := range records {
		if r.Stage() == models.StageExcludedFromCounts {
			continue
		}
		name := r.Name()
		if name == "" {
			continue
		}
		counts[name] += r.QuantityOrZero()
	}
	return counts
}

func positiveAverage(counts map[string]int) float64 {
	sum, n := 0, 0
	for _, c := range counts {
		if c > 0 {
			sum += c
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}
