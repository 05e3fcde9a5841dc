package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"survey-analyzer/internal/config"
	"survey-analyzer/internal/geocache"
	"survey-analyzer/internal/geocoder"
	"survey-analyzer/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// PlaceRecord is one gazetteer row.
type PlaceRecord struct {
	City  string
	State string
	Lat   float64
	Lon   float64
}

func main() {
	file := flag.String("file", "", "Path to a city,state,latitude,longitude CSV file to import")
	cacheFile := flag.String("cache", "", "Path to a geocode cache file to import")
	flag.Parse()

	if (*file == "") == (*cacheFile == "") {
		fmt.Fprintln(os.Stderr, "Error: exactly one of --file or --cache is required")
		os.Exit(1)
	}

	var (
		records []PlaceRecord
		err     error
	)
	if *file != "" {
		log.Info().Str("file", *file).Msg("starting import")
		records, err = parseCSV(*file)
	} else {
		log.Info().Str("cache", *cacheFile).Msg("starting import")
		records, err = parseCache(*cacheFile)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("cannot parse input")
	}

	log.Info().Int("records", len(records)).Msg("parsed records")

	// Load config
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	if cfg.DBSource == "" {
		log.Fatal().Msg("DB_SOURCE is not configured")
	}

	ctx := context.Background()

	// Connect to DB
	pool, err := pgxpool.New(ctx, cfg.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer pool.Close()

	repo := repository.NewRepository(pool)

	// Ensure table exists
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("cannot create table")
	}

	before, err := repo.CountPlaces(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot count places")
	}

	// Insert records
	if err := insertRecords(ctx, pool, records); err != nil {
		log.Fatal().Err(err).Msg("cannot insert records")
	}

	// Verify data
	after, err := repo.CountPlaces(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot count places")
	}
	if after-before != len(records) {
		log.Fatal().Int("expected", len(records)).Int("inserted", after-before).Msg("record count mismatch")
	}

	log.Info().Int("records", len(records)).Int("total", after).Msg("import finished")
}

func parseCSV(filePath string) ([]PlaceRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return readCSV(file)
}

func readCSV(r io.Reader) ([]PlaceRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var records []PlaceRecord
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		if len(record) < 4 {
			return nil, fmt.Errorf("line %d: invalid record length %d, expected at least 4 columns", line, len(record))
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil || lat < -90 || lat > 90 {
			return nil, fmt.Errorf("line %d: invalid latitude: %s", line, record[2])
		}

		lon, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		if err != nil || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("line %d: invalid longitude: %s", line, record[3])
		}

		records = append(records, PlaceRecord{
			City:  strings.TrimSpace(record[0]),
			State: strings.TrimSpace(record[1]),
			Lat:   lat,
			Lon:   lon,
		})
	}

	return records, nil
}

// parseCache turns a geocode cache file into gazetteer rows.
func parseCache(path string) ([]PlaceRecord, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	cache, err := geocache.Load(path, geocache.KeyExact)
	if err != nil {
		return nil, err
	}

	entries := cache.Snapshot()
	records := make([]PlaceRecord, 0, len(entries))
	for _, key := range cache.Keys() {
		city, state, err := geocoder.SplitPlace(key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("skipping cache entry")
			continue
		}
		coord := entries[key]
		records = append(records, PlaceRecord{City: city, State: state, Lat: coord.Latitude, Lon: coord.Longitude})
	}
	return records, nil
}

func insertRecords(ctx context.Context, pool *pgxpool.Pool, records []PlaceRecord) error {
	// Use CopyFrom for bulk insert
	_, err := pool.CopyFrom(
		ctx,
		pgx.Identifier{"places"},
		[]string{"city", "state", "geom"},
		pgx.CopyFromSlice(len(records), func(i int) ([]interface{}, error) {
			r := records[i]
			geom := fmt.Sprintf("SRID=4326;POINT(%f %f)", r.Lon, r.Lat) // PostGIS format: lon lat
			return []interface{}{r.City, r.State, geom}, nil
		}),
	)
	return err
}
