package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecord(t *testing.T, raw string) ItemRecord {
	t.Helper()
	var r ItemRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	return r
}

func TestItemRecord_Defaults(t *testing.T) {
	r := ItemRecord{}

	assert.Equal(t, "", r.Name())
	assert.Equal(t, "", r.Kind())
	assert.Equal(t, "", r.Stage())
	assert.Equal(t, "", r.DisplayName())
	assert.Equal(t, "", r.Zone())
	assert.Equal(t, "", r.SubZone())
	assert.False(t, r.Proposed())
	assert.False(t, r.Wanted())
	assert.Equal(t, 0, r.QuantityOrZero())

	_, err := r.Quantity()
	assert.True(t, errors.Is(err, ErrInvalidQuantity))
}

func TestItemRecord_Flags(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		proposed bool
		wanted   bool
	}{
		{"string one", `{"propose":"1","recherche":"1"}`, true, true},
		{"string zero", `{"propose":"0","recherche":"0"}`, false, false},
		{"numeric one", `{"propose":1,"recherche":1}`, true, true},
		{"word true is not a flag", `{"propose":"true","recherche":"yes"}`, false, false},
		{"boolean true is not a flag", `{"propose":true}`, false, false},
		{"padded one is not a flag", `{"propose":" 1"}`, false, false},
		{"null", `{"propose":null}`, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := decodeRecord(t, tt.raw)
			assert.Equal(t, tt.proposed, r.Proposed())
			assert.Equal(t, tt.wanted, r.Wanted())
		})
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name    string
		raw     interface{}
		want    int
		wantErr bool
	}{
		{"string", "12", 12, false},
		{"string with spaces", " 3 ", 3, false},
		{"signed string", "-2", -2, false},
		{"float64", float64(4), 4, false},
		{"fractional float truncates", 2.9, 2, false},
		{"json number", json.Number("7"), 7, false},
		{"bool", true, 1, false},
		{"nil", nil, 0, true},
		{"word", "abc", 0, true},
		{"decimal string", "2.5", 0, true},
		{"empty string", "", 0, true},
		{"list", []interface{}{1}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuantity(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidQuantity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestItemRecord_Metadata(t *testing.T) {
	r := decodeRecord(t, `{
		"nom": "Tronquette la Réduite",
		"type": "ArchiMonstre",
		"quantite": "2",
		"etape": 14,
		"nom_normal": "Tronknyde",
		"zone": "Foret",
		"souszone": "Lisiere"
	}`)

	assert.Equal(t, "Tronquette la Réduite", r.Name())
	assert.True(t, r.IsArchimonstre())
	assert.Equal(t, "14", r.Stage())
	assert.Equal(t, "Tronknyde", r.DisplayName())
	assert.Equal(t, "Foret", r.Zone())
	assert.Equal(t, "Lisiere", r.SubZone())
	assert.Equal(t, 2, r.QuantityOrZero())
	assert.True(t, r.Has(FieldZone))
	assert.False(t, r.Has(FieldWanted))
}
