package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"survey-analyzer/internal/aggregate"
	"survey-analyzer/internal/geocache"
	"survey-analyzer/internal/insight"
	"survey-analyzer/internal/metrics"
	"survey-analyzer/internal/models"
	"survey-analyzer/internal/survey"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Options configures an analysis pass.
type Options struct {
	CachePath string
	KeyPolicy geocache.KeyPolicy
	Aggregate aggregate.Options

	TopWords    int
	StopWords   insight.WordSet
	Boilerplate insight.WordSet
	// WordColumns are ranked by word frequency; DisplayColumns are returned verbatim.
	WordColumns    []string
	DisplayColumns []string
}

// DefaultOptions returns the options used by the lifestyle survey dashboard.
func DefaultOptions() Options {
	return Options{
		CachePath:      geocache.DefaultPath,
		KeyPolicy:      geocache.KeyExact,
		TopWords:       20,
		StopWords:      insight.DefaultStopWords,
		Boilerplate:    insight.DefaultBoilerplate,
		WordColumns:    []string{survey.ColBiggestObstacle},
		DisplayColumns: []string{survey.ColFavoritePart, survey.ColSuggestions},
	}
}

// AnalysisService runs filter, location aggregation and text insight passes.
type AnalysisService struct {
	geocoder geocache.Geocoder
	opts     Options
	metrics  *metrics.Metrics

	// mu serializes passes; the cache file is shared between them.
	mu sync.Mutex
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(geocoder geocache.Geocoder, opts Options, m *metrics.Metrics) *AnalysisService {
	if m == nil {
		m = metrics.New(nil)
	}
	return &AnalysisService{geocoder: geocoder, opts: opts, metrics: m}
}

// Analyze runs one pass over table.
func (s *AnalysisService) Analyze(ctx context.Context, table *survey.Table, filter survey.Filter) (*models.Analysis, error) {
	if table == nil {
		return nil, fmt.Errorf("service: table cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	passID := uuid.NewString()
	logger := log.With().Str("pass_id", passID).Logger()

	analysis, err := s.analyze(ctx, passID, table, filter)
	if err != nil {
		s.metrics.Passes.WithLabelValues(metrics.OutcomeError).Inc()
		logger.Error().Err(err).Msg("analysis pass failed")
		return nil, err
	}

	s.metrics.Passes.WithLabelValues(metrics.OutcomeOK).Inc()
	logger.Info().
		Int("responses", analysis.Summary.Responses).
		Int("locations", len(analysis.Locations)).
		Int("unresolved", len(analysis.Unresolved)).
		Bool("cache_saved", analysis.CacheSave.Saved).
		Msg("analysis pass finished")
	return analysis, nil
}

// Rows applies filter to table and returns the remaining rows unchanged.
func (s *AnalysisService) Rows(table *survey.Table, filter survey.Filter) (*models.RawData, error) {
	if table == nil {
		return nil, fmt.Errorf("service: table cannot be nil")
	}

	filtered, err := filter.Apply(table)
	if err != nil {
		return nil, fmt.Errorf("service: failed to filter survey: %w", err)
	}

	return &models.RawData{Columns: filtered.Columns(), Rows: filtered.Rows()}, nil
}

func (s *AnalysisService) analyze(ctx context.Context, passID string, table *survey.Table, filter survey.Filter) (*models.Analysis, error) {
	filtered, err := filter.Apply(table)
	if err != nil {
		return nil, fmt.Errorf("service: failed to filter survey: %w", err)
	}

	records, err := survey.ClassLocations(filtered)
	if err != nil {
		return nil, fmt.Errorf("service: failed to read class locations: %w", err)
	}

	summary, err := s.summarize(filtered, records)
	if err != nil {
		return nil, err
	}

	analysis := &models.Analysis{
		PassID:    passID,
		Summary:   summary,
		Words:     make(map[string][]models.WordCount),
		Responses: make(map[string][]string),
	}

	if err := s.locate(ctx, passID, records, analysis); err != nil {
		return nil, err
	}

	s.textInsights(passID, filtered, analysis)

	return analysis, nil
}

// locate loads the cache, aggregates locations and flushes the cache.
func (s *AnalysisService) locate(ctx context.Context, passID string, records []models.ClassLocation, analysis *models.Analysis) error {
	cache, err := geocache.Load(s.opts.CachePath, s.opts.KeyPolicy)
	if err != nil {
		return fmt.Errorf("service: failed to load geocode cache: %w", err)
	}

	result, err := aggregate.New(cache, s.geocoder, s.opts.Aggregate).Aggregate(ctx, records)
	s.recordCacheStats(cache)
	if err != nil {
		var failure *geocache.LookupFailure
		if errors.As(err, &failure) {
			s.metrics.LookupFailures.Inc()
		}
		s.flush(passID, cache)
		return fmt.Errorf("service: failed to aggregate locations: %w", err)
	}
	s.metrics.LookupFailures.Add(float64(len(result.Unresolved)))

	analysis.Locations = result.Locations
	analysis.Unresolved = result.Unresolved
	analysis.CacheSave = s.flush(passID, cache)
	return nil
}

// flush saves the cache. Failures are logged and reported, never returned.
func (s *AnalysisService) flush(passID string, cache *geocache.Cache) models.CacheSave {
	res := cache.Save(s.opts.CachePath)
	s.metrics.CacheEntries.Set(float64(res.Entries))

	out := models.CacheSave{Saved: res.Saved(), Entries: res.Entries}
	if res.Err != nil {
		s.metrics.CacheSaveFails.Inc()
		out.Error = res.Err.Error()
		log.Warn().Err(res.Err).Str("pass_id", passID).Str("path", s.opts.CachePath).Msg("geocode cache not saved")
	}
	return out
}

func (s *AnalysisService) recordCacheStats(cache *geocache.Cache) {
	stats := cache.Stats()
	s.metrics.CacheHits.Add(float64(stats.Hits))
	s.metrics.CacheMisses.Add(float64(stats.Misses))
}

func (s *AnalysisService) textInsights(passID string, table *survey.Table, analysis *models.Analysis) {
	for _, col := range s.opts.WordColumns {
		responses, ok := s.responses(passID, table, col)
		if !ok {
			continue
		}
		kept := insight.DiscardLowSignal(responses, s.opts.Boilerplate)
		analysis.Words[col] = insight.Extract(kept, s.opts.StopWords, s.opts.TopWords)
	}

	for _, col := range s.opts.DisplayColumns {
		responses, ok := s.responses(passID, table, col)
		if !ok {
			continue
		}
		analysis.Responses[col] = insight.DiscardLowSignal(responses, s.opts.Boilerplate)
	}
}

// responses reads a free-text column. Free-text columns are optional; an absent
// one is logged and skipped.
func (s *AnalysisService) responses(passID string, table *survey.Table, col string) ([]string, bool) {
	responses, err := table.Responses(col)
	if err != nil {
		log.Warn().Err(err).Str("pass_id", passID).Str("column", col).Msg("free-text column skipped")
		return nil, false
	}
	return responses, true
}

func (s *AnalysisService) summarize(table *survey.Table, records []models.ClassLocation) (models.Summary, error) {
	summary := models.Summary{
		Responses: table.Len(),
		Classes:   len(aggregate.Dedupe(records)),
	}

	teachers, err := survey.Teachers(table)
	if err != nil {
		return summary, fmt.Errorf("service: failed to list teachers: %w", err)
	}
	summary.Teachers = len(teachers)

	minYear, maxYear, ok, err := survey.YearRange(table)
	if err != nil {
		return summary, fmt.Errorf("service: failed to read years: %w", err)
	}
	if ok {
		summary.MinYear, summary.MaxYear = minYear, maxYear
	}
	return summary, nil
}
