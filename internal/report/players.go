package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/monster-tracker/internal/analysis"
	"github.com/monster-tracker/internal/models"
)

// PlayerLine is a search hit enriched with the owner's profile
type PlayerLine struct {
	Player   string    `json:"player"`
	Item     string    `json:"item"`
	Pseudo   string    `json:"pseudo,omitempty"`
	Link     string    `json:"link,omitempty"`
	LastSeen time.Time `json:"lastSeen"`
	Known    bool      `json:"known"`
}

// EnrichPlayers joins search hits with the user directory and sorts them
// by last connection, oldest first. Unknown players sort first.
func EnrichPlayers(hits []analysis.PlayerItem, directory *models.UserDirectory) []PlayerLine {
	lines := make([]PlayerLine, 0, len(hits))
	for _, h := range hits {
		line := PlayerLine{Player: h.Player, Item: h.Item, LastSeen: models.EarliestLastSeen}
		if profile, ok := directory.Profile(h.Player); ok && profile.Known() {
			line.Known = true
			line.Pseudo = profile.Pseudo()
			line.Link = profile.Link()
			line.LastSeen = profile.LastSeen()
		}
		lines = append(lines, line)
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].LastSeen.Before(lines[j].LastSeen)
	})
	return lines
}

// RenderPlayers prints enriched search hits, one per line
func RenderPlayers(w io.Writer, lines []PlayerLine) error {
	itemWidth, playerWidth, pseudoWidth, linkWidth := 0, 0, 0, 0
	for _, l := range lines {
		itemWidth = max(itemWidth, runeLen(l.Item))
		if l.Known {
			playerWidth = max(playerWidth, runeLen(l.Player))
			pseudoWidth = max(pseudoWidth, runeLen(l.Pseudo))
			linkWidth = max(linkWidth, runeLen(l.Link))
		}
	}

	var b strings.Builder
	for _, l := range lines {
		if !l.Known {
			fmt.Fprintf(&b, "%s - metamob: %s - no data\n", pad(l.Item, itemWidth), l.Player)
			continue
		}
		fmt.Fprintf(&b, "%s - %s (metamob: %s) - %s - Last login: %s\n",
			pad(l.Item, itemWidth), pad(l.Pseudo, pseudoWidth), pad(l.Player, playerWidth),
			pad(l.Link, linkWidth), l.LastSeen.Format(models.LastSeenLayout))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
