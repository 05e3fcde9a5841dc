package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"survey-analyzer/internal/geocache"
	"survey-analyzer/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Mode selects how lookup failures are handled.
type Mode int

const (
	// ModeFailFast aborts the pass on the first place that cannot be resolved.
	ModeFailFast Mode = iota
	// ModeSkipUnresolved drops records whose place cannot be resolved and reports them.
	ModeSkipUnresolved
)

func (m Mode) String() string {
	if m == ModeSkipUnresolved {
		return "skip_unresolved"
	}
	return "fail_fast"
}

// Options configures an Aggregator.
type Options struct {
	Mode Mode
	// Workers bounds concurrent geocoder lookups. Values below 2 resolve sequentially.
	Workers int
}

// Result holds the aggregated map points and, in skip mode, the places left out.
type Result struct {
	Locations  []models.LocationAggregate
	Unresolved []models.UnresolvedPlace
	// Records is the number of distinct class records after deduplication.
	Records int
}

// Aggregator turns class records into per-coordinate class counts.
type Aggregator struct {
	cache    *geocache.Cache
	geocoder geocache.Geocoder
	opts     Options
}

// New creates an aggregator that resolves places through cache, falling back to geocoder.
func New(cache *geocache.Cache, geocoder geocache.Geocoder, opts Options) *Aggregator {
	return &Aggregator{cache: cache, geocoder: geocoder, opts: opts}
}

type placeGroup struct {
	key     string
	place   models.Place
	records int
	coord   models.Coordinate
	err     error
}

// Aggregate deduplicates records, resolves one coordinate per place and counts
// records per coordinate. Places resolving to the same coordinate share a point.
func (a *Aggregator) Aggregate(ctx context.Context, records []models.ClassLocation) (*Result, error) {
	unique := Dedupe(records)
	result := &Result{Records: len(unique)}
	if len(unique) == 0 {
		result.Locations = []models.LocationAggregate{}
		return result, nil
	}

	groups := a.group(unique)
	if err := a.resolve(ctx, groups); err != nil {
		return nil, err
	}

	index := make(map[models.Coordinate]int)
	locations := make([]models.LocationAggregate, 0, len(groups))
	for _, g := range groups {
		if g.err != nil {
			log.Warn().Err(g.err).Str("key", g.key).Int("records", g.records).Msg("skipping unresolved place")
			result.Unresolved = append(result.Unresolved, models.UnresolvedPlace{
				Place:   g.key,
				Records: g.records,
				Error:   g.err.Error(),
			})
			continue
		}

		i, ok := index[g.coord]
		if !ok {
			i = len(locations)
			index[g.coord] = i
			locations = append(locations, models.LocationAggregate{Coordinate: g.coord})
		}
		locations[i].Places = append(locations[i].Places, g.place.String())
		locations[i].Count += g.records
	}

	for i := range locations {
		locations[i].Name = strings.Join(locations[i].Places, "; ")
	}
	result.Locations = locations

	return result, nil
}

// Dedupe removes identical records, keeping the first occurrence of each.
func Dedupe(records []models.ClassLocation) []models.ClassLocation {
	seen := make(map[models.ClassLocation]struct{}, len(records))
	out := make([]models.ClassLocation, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

func (a *Aggregator) group(records []models.ClassLocation) []*placeGroup {
	byKey := make(map[string]*placeGroup)
	var groups []*placeGroup
	for _, r := range records {
		place := r.Place()
		key := a.cache.Key(place)
		g, ok := byKey[key]
		if !ok {
			g = &placeGroup{key: key, place: place}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.records++
	}
	return groups
}

func (a *Aggregator) resolve(ctx context.Context, groups []*placeGroup) error {
	if a.opts.Workers < 2 {
		for _, g := range groups {
			if err := a.resolveOne(ctx, g); err != nil {
				return err
			}
		}
		return nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.opts.Workers)
	for _, g := range groups {
		eg.Go(func() error {
			return a.resolveOne(egCtx, g)
		})
	}
	return eg.Wait()
}

// resolveOne records a lookup failure on the group in skip mode and returns it otherwise.
func (a *Aggregator) resolveOne(ctx context.Context, g *placeGroup) error {
	coord, err := a.cache.Resolve(ctx, g.place, a.geocoder)
	if err == nil {
		g.coord = coord
		return nil
	}

	var failure *geocache.LookupFailure
	if a.opts.Mode == ModeSkipUnresolved && errors.As(err, &failure) {
		g.err = err
		return nil
	}
	return fmt.Errorf("aggregate: %w", err)
}
