package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/monster-tracker/internal/models"
)

// RenderArchiveList prints one line per archived snapshot
func RenderArchiveList(w io.Writer, snapshots []*models.ArchivedSnapshot) error {
	var b strings.Builder
	for _, s := range snapshots {
		label := s.Label
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(&b, "%s  %s  %4d players  %s\n", s.ID, s.TakenAt.UTC().Format(time.RFC3339), s.Players, label)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderHistory prints the archived totals grouped by monster, oldest
// snapshot first
func RenderHistory(w io.Writer, points []models.ItemCountPoint) error {
	nameWidth := 0
	for _, p := range points {
		nameWidth = max(nameWidth, runeLen(p.Item))
	}

	var b strings.Builder
	for _, p := range points {
		fmt.Fprintf(&b, "%s  %s %5d (proposed: %d)\n", p.TakenAt.UTC().Format(time.RFC3339), pad(p.Item, nameWidth), p.Count, p.Proposed)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
