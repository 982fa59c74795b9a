package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Source field names of a Metamob monster record
const (
	FieldName        = "nom"
	FieldKind        = "type"
	FieldQuantity    = "quantite"
	FieldProposed    = "propose"
	FieldWanted      = "recherche"
	FieldStage       = "etape"
	FieldDisplayName = "nom_normal"
	FieldZone        = "zone"
	FieldSubZone     = "souszone"
)

const (
	// KindArchimonstre is the tracked tier of monsters
	KindArchimonstre = "archimonstre"
	// StageFullyEvolved marks records left out of the imbalance catalog
	StageFullyEvolved = "14"
	// StageExcludedFromCounts marks records left out of imbalance quantity sums
	StageExcludedFromCounts = "34"

	flagTrue = "1"
)

// ErrInvalidQuantity is returned when a quantity field is not an integer
var ErrInvalidQuantity = errors.New("invalid quantity")

// ItemRecord is one entry of a player's inventory, kept as the raw JSON
// object so that unknown fields survive a load/store round trip.
// Accessors never fail on a missing key.
type ItemRecord map[string]interface{}

// Name returns the canonical monster name, "" when absent
func (r ItemRecord) Name() string {
	return r.text(FieldName, "")
}

// Kind returns the category tag
func (r ItemRecord) Kind() string {
	return r.text(FieldKind, "")
}

// IsArchimonstre reports whether the record belongs to the tracked tier
func (r ItemRecord) IsArchimonstre() bool {
	return strings.EqualFold(r.Kind(), KindArchimonstre)
}

// Proposed reports whether the owner offers the monster for trade.
// Only the literal "1" counts; "true" or "yes" do not.
func (r ItemRecord) Proposed() bool {
	return r.text(FieldProposed, "0") == flagTrue
}

// Wanted reports whether the owner is looking for the monster
func (r ItemRecord) Wanted() bool {
	return r.text(FieldWanted, "0") == flagTrue
}

// Stage returns the lifecycle marker ("etape")
func (r ItemRecord) Stage() string {
	return r.text(FieldStage, "")
}

// DisplayName returns the plain monster name used in reports
func (r ItemRecord) DisplayName() string {
	return r.text(FieldDisplayName, "")
}

// Zone returns the zone the monster lives in
func (r ItemRecord) Zone() string {
	return r.text(FieldZone, "")
}

// SubZone returns the sub-zone the monster lives in
func (r ItemRecord) SubZone() string {
	return r.text(FieldSubZone, "")
}

// Has reports whether the field is present and not null
func (r ItemRecord) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// RawQuantity returns the quantity field as stored
func (r ItemRecord) RawQuantity() interface{} {
	return r[FieldQuantity]
}

// Quantity parses the owned count. Absent, null and non-integer values
// return an error wrapping ErrInvalidQuantity.
func (r ItemRecord) Quantity() (int, error) {
	return ParseQuantity(r[FieldQuantity])
}

// QuantityOrZero parses the owned count, substituting 0 on failure
func (r ItemRecord) QuantityOrZero() int {
	q, err := r.Quantity()
	if err != nil {
		return 0
	}
	return q
}

// ParseQuantity converts a decoded JSON value to an integer count.
// Strings must hold a base-10 integer (surrounding spaces allowed),
// numbers are truncated toward zero and booleans count as 1 or 0.
func ParseQuantity(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case nil:
		return 0, fmt.Errorf("%w: missing", ErrInvalidQuantity)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidQuantity, v)
		}
		return n, nil
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidQuantity, v.String())
		}
		return int(f), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidQuantity, raw)
	}
}

func (r ItemRecord) text(field, def string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return def
	}
	return fieldText(v)
}

// fieldText renders a decoded JSON scalar the way the upstream data is
// compared: numbers in shortest form, so numeric 1 reads as "1", and
// booleans as True/False so they never match a "1" flag.
func fieldText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(t)
	}
}
