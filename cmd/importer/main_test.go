package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    []PlaceRecord
		expectError bool
	}{
		{
			name:  "valid rows",
			input: "city,state,latitude,longitude\nAustin, TX ,30.2672,-97.7431\n\"Washington, D.C.\",DC,38.9072,-77.0369\n",
			expected: []PlaceRecord{
				{City: "Austin", State: "TX", Lat: 30.2672, Lon: -97.7431},
				{City: "Washington, D.C.", State: "DC", Lat: 38.9072, Lon: -77.0369},
			},
		},
		{
			name:        "short row",
			input:       "city,state,latitude,longitude\nAustin,TX,30.2672\n",
			expectError: true,
		},
		{
			name:        "latitude out of range",
			input:       "city,state,latitude,longitude\nAustin,TX,130.2672,-97.7431\n",
			expectError: true,
		},
		{
			name:        "empty file",
			input:       "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := readCSV(strings.NewReader(tt.input))
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, records)
		})
	}
}

func TestParseCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "location_dump.json")
	content := `{"Boston, MA": {"lat": 42.36, "lng": -71.06}, "Austin, TX": {"lat": 30.27, "lng": -97.74}, "Nowhere": {"lat": 1, "lng": 1}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := parseCache(path)

	require.NoError(t, err)
	assert.Equal(t, []PlaceRecord{
		{City: "Austin", State: "TX", Lat: 30.27, Lon: -97.74},
		{City: "Boston", State: "MA", Lat: 42.36, Lon: -71.06},
	}, records)

	_, err = parseCache(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
