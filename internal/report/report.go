// Package report renders analysis results for the console.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/monster-tracker/internal/analysis"
	apperrors "github.com/monster-tracker/internal/errors"
	"github.com/monster-tracker/internal/models"
)

// requiredMetadata lists the sample fields an extremes row displays
var requiredMetadata = []string{
	models.FieldDisplayName,
	models.FieldZone,
	models.FieldSubZone,
	models.FieldStage,
}

// WriteJSON writes v as indented JSON
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// CheckExtremes verifies every displayed sample carries the metadata the
// extremes layout prints
func CheckExtremes(ex analysis.Extremes) error {
	for _, list := range [][]analysis.ItemTotal{ex.Rare, ex.Common} {
		for _, t := range list {
			for _, field := range requiredMetadata {
				if !t.Sample.Has(field) {
					return apperrors.NewRenderingPreconditionError(t.Name, field)
				}
			}
		}
	}
	return nil
}

// RenderExtremes prints the rare and common rankings. Nothing is written
// when an entry lacks display metadata.
func RenderExtremes(w io.Writer, ex analysis.Extremes, verbose bool) error {
	if err := CheckExtremes(ex); err != nil {
		return err
	}

	all := append(append([]analysis.ItemTotal{}, ex.Rare...), ex.Common...)
	nameWidth, monsterWidth, zoneWidth := 0, 0, 0
	for _, t := range all {
		nameWidth = max(nameWidth, runeLen(t.Name))
		monsterWidth = max(monsterWidth, runeLen(t.Sample.DisplayName())+16)
		zoneWidth = max(zoneWidth, runeLen(t.Sample.Zone()+t.Sample.SubZone())+3)
	}

	var b strings.Builder
	section := func(title string, list []analysis.ItemTotal) {
		fmt.Fprintf(&b, "Top %d Most %s Monsters:\n", len(list), title)
		for i, t := range list {
			place := fmt.Sprintf("#%-2d", i+1)
			where := fmt.Sprintf("%s (%s)", t.Sample.SubZone(), t.Sample.Zone())
			if !verbose {
				fmt.Fprintf(&b, "%s %s - %s\n", place, pad(t.Name, nameWidth), where)
				continue
			}
			sub := fmt.Sprintf("(sous-monstre: %s)", t.Sample.DisplayName())
			fmt.Fprintf(&b, "%s %s: %3d %s - %s - etape %s\n",
				place, pad(t.Name, nameWidth), t.Count, pad(sub, monsterWidth), pad(where, zoneWidth), t.Sample.Stage())
		}
	}
	section("Rare", ex.Rare)
	b.WriteString("\n")
	section("Common", ex.Common)

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderHistogram prints one text bar per monster in ascending count order
func RenderHistogram(w io.Writer, entries []analysis.ItemTotal, barWidth int) error {
	if barWidth <= 0 {
		barWidth = 50
	}
	nameWidth, top := 0, 0
	for _, e := range entries {
		nameWidth = max(nameWidth, runeLen(e.Name))
		top = max(top, e.Count)
	}

	var b strings.Builder
	for _, e := range entries {
		bar := 0
		if top > 0 && e.Count > 0 {
			bar = max(1, e.Count*barWidth/top)
		}
		fmt.Fprintf(&b, "%s | %s %d\n", pad(e.Name, nameWidth), strings.Repeat("#", bar), e.Count)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderDiff prints one block per player with changes, then the players
// missing from the new snapshot
func RenderDiff(w io.Writer, res analysis.DiffResult) error {
	var b strings.Builder
	for _, p := range res.Players {
		if p.NewPlayer {
			fmt.Fprintf(&b, "Player '%s' [NEW PLAYER]:\n", p.Player)
		} else {
			fmt.Fprintf(&b, "Player '%s':\n", p.Player)
		}
		for _, msg := range p.Messages() {
			fmt.Fprintf(&b, "  %s\n", msg)
		}
		b.WriteString("\n")
	}
	for _, player := range res.Disappeared {
		fmt.Fprintf(&b, "Player '%s' is missing in the new data (possibly removed from the system).\n", player)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ImbalanceMessage renders one imbalance report as a sentence
func ImbalanceMessage(r analysis.ImbalanceReport) string {
	high := make([]string, len(r.HighItems))
	for i, item := range r.HighItems {
		high[i] = fmt.Sprintf("%s (%d)", item.Name, item.Count)
	}
	return fmt.Sprintf("Player '%s' is unbalanced: high count for %s (average over owned monsters: %.2f, threshold: %s×average).",
		r.Player, strings.Join(high, ", "), r.Average, strconv.FormatFloat(r.Factor, 'f', -1, 64))
}

// RenderImbalance prints one line per unbalanced player
func RenderImbalance(w io.Writer, reports []analysis.ImbalanceReport) error {
	var b strings.Builder
	for _, r := range reports {
		b.WriteString(ImbalanceMessage(r))
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// pad left-aligns s to width runes
func pad(s string, width int) string {
	if n := runeLen(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
