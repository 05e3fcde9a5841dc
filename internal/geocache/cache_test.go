package geocache

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"survey-analyzer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockGeocoder is a mock implementation of the Geocoder interface
type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, place string) (models.Coordinate, error) {
	args := m.Called(ctx, place)
	return args.Get(0).(models.Coordinate), args.Error(1)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		content     *string
		expected    map[string]models.Coordinate
		expectError bool
	}{
		{
			name:     "missing file",
			content:  nil,
			expected: map[string]models.Coordinate{},
		},
		{
			name:    "valid file",
			content: strPtr(`{"Austin, TX": {"lat": 30.27, "lng": -97.74}, "Boston, MA": {"lat": 42.36, "lng": -71.06}}`),
			expected: map[string]models.Coordinate{
				"Austin, TX": {Latitude: 30.27, Longitude: -97.74},
				"Boston, MA": {Latitude: 42.36, Longitude: -71.06},
			},
		},
		{
			name:     "empty object",
			content:  strPtr(`{}`),
			expected: map[string]models.Coordinate{},
		},
		{
			name:        "malformed json",
			content:     strPtr(`{"Austin, TX": {"lat": 30.27,`),
			expectError: true,
		},
		{
			name:        "entry missing longitude",
			content:     strPtr(`{"Austin, TX": {"lat": 30.27}}`),
			expectError: true,
		},
		{
			name:        "wrong value type",
			content:     strPtr(`{"Austin, TX": [30.27, -97.74]}`),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultPath)
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o644))
			}

			cache, err := Load(path, KeyExact)

			if tt.expectError {
				var loadErr *LoadError
				require.ErrorAs(t, err, &loadErr)
				assert.Equal(t, path, loadErr.Path)
				assert.Contains(t, err.Error(), path)
				assert.Nil(t, cache)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cache.Snapshot())
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)

	cache := New(KeyExact)
	cache.Put("Austin, TX", models.Coordinate{Latitude: 30.2672, Longitude: -97.7431})
	cache.Put("Portland, OR", models.Coordinate{Latitude: 45.5152, Longitude: -122.6784})
	cache.Put("Portland, ME", models.Coordinate{Latitude: 43.6591, Longitude: -70.2568})

	result := cache.Save(path)
	require.True(t, result.Saved())
	assert.Equal(t, SaveOK, result.Status)
	assert.Equal(t, 3, result.Entries)
	assert.Nil(t, result.Err)

	loaded, err := Load(path, KeyExact)
	require.NoError(t, err)
	assert.Equal(t, cache.Snapshot(), loaded.Snapshot())
}

func TestSave_WriteFailureIsIgnored(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	path := filepath.Join(blocker, DefaultPath)

	cache := New(KeyExact)
	cache.Put("Austin, TX", models.Coordinate{Latitude: 30.0, Longitude: -97.0})

	result := cache.Save(path)

	assert.False(t, result.Saved())
	assert.Equal(t, SaveIgnored, result.Status)
	require.NotNil(t, result.Err)
	assert.Equal(t, path, result.Err.Path)

	coord, ok := cache.Get("Austin, TX")
	assert.True(t, ok)
	assert.Equal(t, models.Coordinate{Latitude: 30.0, Longitude: -97.0}, coord)
}

func TestSave_ReadersNeverSeePartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)

	cache := New(KeyExact)
	for i := 0; i < 20000; i++ {
		cache.Put(fmt.Sprintf("City %d, ST", i), models.Coordinate{Latitude: float64(i%90), Longitude: float64(-(i % 180))})
	}
	require.True(t, cache.Save(path).Saved())

	done := make(chan struct{})
	var loadErrs []error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			loaded, err := Load(path, KeyExact)
			if err != nil {
				loadErrs = append(loadErrs, err)
				continue
			}
			if loaded.Len() != 20000 {
				loadErrs = append(loadErrs, fmt.Errorf("loaded %d entries", loaded.Len()))
			}
		}
	}()

	for i := 0; i < 50; i++ {
		require.True(t, cache.Save(path).Saved())
	}
	close(done)
	wg.Wait()

	assert.Empty(t, loadErrs)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestCache_ResolveMissThenHit(t *testing.T) {
	ctx := context.Background()
	geocoder := new(MockGeocoder)
	geocoder.On("Geocode", mock.Anything, "Austin, TX").Return(models.Coordinate{Latitude: 30.0, Longitude: -97.0}, nil).Once()

	cache := New(KeyExact)
	place := models.Place{City: "Austin", State: "TX"}

	first, err := cache.Resolve(ctx, place, geocoder)
	require.NoError(t, err)
	second, err := cache.Resolve(ctx, place, geocoder)
	require.NoError(t, err)

	assert.Equal(t, models.Coordinate{Latitude: 30.0, Longitude: -97.0}, first)
	assert.Equal(t, first, second)
	geocoder.AssertNumberOfCalls(t, "Geocode", 1)
	assert.Equal(t, Stats{Hits: 1, Misses: 1}, cache.Stats())
}

func TestCache_ResolveLookupFailure(t *testing.T) {
	tests := []struct {
		name       string
		coord      models.Coordinate
		geocodeErr error
	}{
		{
			name:       "geocoder error",
			geocodeErr: errors.New("quota exceeded"),
		},
		{
			name:  "latitude out of range",
			coord: models.Coordinate{Latitude: 120, Longitude: 10},
		},
		{
			name:  "non finite longitude",
			coord: models.Coordinate{Latitude: 10, Longitude: math.Inf(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geocoder := new(MockGeocoder)
			geocoder.On("Geocode", mock.Anything, "Nowhere, ZZ").Return(tt.coord, tt.geocodeErr)

			cache := New(KeyExact)
			coord, err := cache.Resolve(context.Background(), models.Place{City: "Nowhere", State: "ZZ"}, geocoder)

			var failure *LookupFailure
			require.ErrorAs(t, err, &failure)
			assert.Equal(t, "Nowhere, ZZ", failure.Key)
			assert.Contains(t, err.Error(), "Nowhere, ZZ")
			assert.Equal(t, models.Coordinate{}, coord)
			assert.Equal(t, 0, cache.Len())
			if tt.geocodeErr != nil {
				assert.ErrorIs(t, err, tt.geocodeErr)
			}
		})
	}
}

func TestCache_PutIsAppendOnly(t *testing.T) {
	cache := New(KeyExact)

	assert.True(t, cache.Put("Austin, TX", models.Coordinate{Latitude: 30.0, Longitude: -97.0}))
	assert.False(t, cache.Put("Austin, TX", models.Coordinate{Latitude: 1.0, Longitude: 1.0}))

	coord, ok := cache.Get("Austin, TX")
	require.True(t, ok)
	assert.Equal(t, models.Coordinate{Latitude: 30.0, Longitude: -97.0}, coord)
}

func TestKeyPolicy(t *testing.T) {
	lower := models.Place{City: "austin", State: "tx"}
	upper := models.Place{City: "Austin", State: "TX"}
	padded := models.Place{City: " Austin ", State: "TX"}

	t.Run("exact keeps case distinct", func(t *testing.T) {
		assert.Equal(t, "austin, tx", KeyExact.Key(lower))
		assert.Equal(t, "Austin, TX", KeyExact.Key(upper))
		assert.NotEqual(t, KeyExact.Key(lower), KeyExact.Key(upper))
	})

	t.Run("fold collides case variants", func(t *testing.T) {
		assert.Equal(t, KeyFoldCase.Key(lower), KeyFoldCase.Key(upper))
		assert.Equal(t, KeyFoldCase.Key(upper), KeyFoldCase.Key(padded))
	})

	t.Run("exact policy geocodes each variant", func(t *testing.T) {
		geocoder := new(MockGeocoder)
		geocoder.On("Geocode", mock.Anything, mock.Anything).Return(models.Coordinate{Latitude: 30.0, Longitude: -97.0}, nil)

		cache := New(KeyExact)
		_, err := cache.Resolve(context.Background(), lower, geocoder)
		require.NoError(t, err)
		_, err = cache.Resolve(context.Background(), upper, geocoder)
		require.NoError(t, err)

		geocoder.AssertNumberOfCalls(t, "Geocode", 2)
		assert.Equal(t, 2, cache.Len())
	})

	t.Run("fold policy geocodes once", func(t *testing.T) {
		geocoder := new(MockGeocoder)
		geocoder.On("Geocode", mock.Anything, "austin, tx").Return(models.Coordinate{Latitude: 30.0, Longitude: -97.0}, nil)

		cache := New(KeyFoldCase)
		_, err := cache.Resolve(context.Background(), lower, geocoder)
		require.NoError(t, err)
		_, err = cache.Resolve(context.Background(), upper, geocoder)
		require.NoError(t, err)

		geocoder.AssertNumberOfCalls(t, "Geocode", 1)
		assert.Equal(t, []string{"austin, tx"}, cache.Keys())
	})
}

func TestParseKeyPolicy(t *testing.T) {
	tests := []struct {
		in          string
		expected    KeyPolicy
		expectError bool
	}{
		{in: "", expected: KeyExact},
		{in: "exact", expected: KeyExact},
		{in: "FOLD", expected: KeyFoldCase},
		{in: "fold_case", expected: KeyFoldCase},
		{in: "soundex", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			policy, err := ParseKeyPolicy(tt.in)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, policy)
		})
	}
}

func TestCache_ConcurrentResolveDistinctKeys(t *testing.T) {
	geocoder := new(MockGeocoder)
	geocoder.On("Geocode", mock.Anything, mock.Anything).Return(models.Coordinate{Latitude: 40.0, Longitude: -100.0}, nil)

	cache := New(KeyExact)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			place := models.Place{City: fmt.Sprintf("Town%d", i%16), State: "KS"}
			_, err := cache.Resolve(context.Background(), place, geocoder)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 16, cache.Len())
	assert.Equal(t, int64(16), cache.Stats().Misses)
	geocoder.AssertNumberOfCalls(t, "Geocode", 16)
}

func strPtr(s string) *string {
	return &s
}
