package geocache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"survey-analyzer/internal/models"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
)

// DefaultPath is the cache file name used when none is configured.
const DefaultPath = "location_dump.json"

// Geocoder resolves a place query to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (models.Coordinate, error)
}

// KeyPolicy decides how a Place is turned into a cache key.
type KeyPolicy int

const (
	// KeyExact uses "City, State" as written, so keys differing only in case are distinct.
	KeyExact KeyPolicy = iota
	// KeyFoldCase trims and case-folds both parts before building the key.
	KeyFoldCase
)

// ParseKeyPolicy maps a config value to a KeyPolicy.
func ParseKeyPolicy(s string) (KeyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return KeyExact, nil
	case "fold", "foldcase", "fold_case":
		return KeyFoldCase, nil
	default:
		return KeyExact, fmt.Errorf("geocache: unknown key policy %q", s)
	}
}

// Key returns the cache key for the place under the policy.
func (p KeyPolicy) Key(place models.Place) string {
	if p == KeyFoldCase {
		fold := cases.Fold()
		place = models.Place{
			City:  fold.String(strings.TrimSpace(place.City)),
			State: fold.String(strings.TrimSpace(place.State)),
		}
	}
	return place.String()
}

// Stats counts cache lookups since the cache was created.
type Stats struct {
	Hits   int64
	Misses int64
}

// Cache maps place keys to coordinates. Entries are never overwritten once set.
type Cache struct {
	policy KeyPolicy

	mu      sync.RWMutex
	entries map[string]models.Coordinate

	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates an empty cache.
func New(policy KeyPolicy) *Cache {
	return &Cache{
		policy:  policy,
		entries: make(map[string]models.Coordinate),
	}
}

type persistedCoordinate struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Load reads a cache file. A missing file yields an empty cache.
func Load(path string, policy KeyPolicy) (*Cache, error) {
	c := New(policy)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, &LoadError{Path: path, Err: err}
	}

	var raw map[string]persistedCoordinate
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	for key, v := range raw {
		if v.Lat == nil || v.Lng == nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("entry %q is missing lat or lng", key)}
		}
		c.entries[key] = models.Coordinate{Latitude: *v.Lat, Longitude: *v.Lng}
	}

	return c, nil
}

// Policy returns the key policy of the cache.
func (c *Cache) Policy() KeyPolicy {
	return c.policy
}

// Key returns the cache key for place.
func (c *Cache) Key(place models.Place) string {
	return c.policy.Key(place)
}

// Get returns the coordinate stored under key.
func (c *Cache) Get(key string) (models.Coordinate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	coord, ok := c.entries[key]
	return coord, ok
}

// Put stores coord under key unless the key is already present. It reports whether it stored.
func (c *Cache) Put(key string, coord models.Coordinate) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return false
	}
	c.entries[key] = coord
	return true
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot returns a copy of all entries.
func (c *Cache) Snapshot() map[string]models.Coordinate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]models.Coordinate, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Keys returns the cached keys in sorted order.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Resolve returns the cached coordinate for place, asking geocoder on a miss.
// Concurrent misses on the same key share a single geocoder call.
func (c *Cache) Resolve(ctx context.Context, place models.Place, geocoder Geocoder) (models.Coordinate, error) {
	key := c.Key(place)
	if coord, ok := c.Get(key); ok {
		c.hits.Add(1)
		return coord, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if coord, ok := c.Get(key); ok {
			c.hits.Add(1)
			return coord, nil
		}
		c.misses.Add(1)

		coord, err := geocoder.Geocode(ctx, key)
		if err != nil {
			return nil, &LookupFailure{Key: key, Err: err}
		}
		if err := validate(coord); err != nil {
			return nil, &LookupFailure{Key: key, Err: err}
		}

		c.Put(key, coord)
		stored, _ := c.Get(key)
		return stored, nil
	})
	if err != nil {
		return models.Coordinate{}, err
	}
	return v.(models.Coordinate), nil
}

func validate(coord models.Coordinate) error {
	lat, lng := coord.Latitude, coord.Longitude
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return fmt.Errorf("invalid latitude: %f", lat)
	}
	if math.IsNaN(lng) || math.IsInf(lng, 0) || lng < -180 || lng > 180 {
		return fmt.Errorf("invalid longitude: %f", lng)
	}
	return nil
}
