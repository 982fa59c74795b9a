package models

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot maps each player to the records of their inventory at one point
// in time. A player may be present with no data (null upstream); use
// HasData to tell "no data" apart from "has records". Iteration order is
// insertion order, which for decoded snapshots is the document order.
//
// Records returned by a Snapshot are shared; callers must not modify them.
type Snapshot struct {
	players keyedValues[[]ItemRecord]
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// Set stores the records of a player. A nil slice records "no data".
func (s *Snapshot) Set(player string, records []ItemRecord) {
	s.players.set(player, records)
}

// Players returns the players in iteration order
func (s *Snapshot) Players() []string {
	if s == nil {
		return nil
	}
	return s.players.orderedKeys()
}

// Len returns the number of players, with or without data
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.players.keys)
}

// Has reports whether the player appears in the snapshot at all
func (s *Snapshot) Has(player string) bool {
	if s == nil {
		return false
	}
	_, ok := s.players.get(player)
	return ok
}

// Records returns the player's records; nil when absent or null
func (s *Snapshot) Records(player string) []ItemRecord {
	if s == nil {
		return nil
	}
	records, _ := s.players.get(player)
	return records
}

// HasData reports whether the player has at least one record.
// Absent, null and empty lists all count as no data.
func (s *Snapshot) HasData(player string) bool {
	return len(s.Records(player)) > 0
}

// MarshalJSON encodes the snapshot as a name-keyed object in player order
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return s.players.encode()
}

// UnmarshalJSON decodes a name-keyed object, keeping its key order
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	s.players = keyedValues[[]ItemRecord]{}
	return s.players.decode(data)
}

// ArchivedSnapshot is a snapshot stored in the archive database
type ArchivedSnapshot struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Label     string    `json:"label" db:"label"`
	TakenAt   time.Time `json:"takenAt" db:"taken_at"`
	Players   int       `json:"players" db:"players"`
	Snapshot  *Snapshot `json:"snapshot,omitempty" db:"payload"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ItemCountPoint is one item's aggregated count in one archived snapshot
type ItemCountPoint struct {
	SnapshotID uuid.UUID `json:"snapshotId" ch:"snapshot_id"`
	TakenAt    time.Time `json:"takenAt" ch:"taken_at"`
	Item       string    `json:"item" ch:"item"`
	Count      int64     `json:"count" ch:"count"`
	Proposed   int64     `json:"proposed" ch:"proposed"`
}
