package geocoder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"survey-analyzer/internal/models"
)

// PlaceRepository looks up known places.
type PlaceRepository interface {
	FindPlace(ctx context.Context, city, state string) (*models.Coordinate, error)
}

// Gazetteer geocodes against places imported into the database.
type Gazetteer struct {
	repo PlaceRepository
}

// NewGazetteer creates a gazetteer geocoder.
func NewGazetteer(repo PlaceRepository) *Gazetteer {
	return &Gazetteer{repo: repo}
}

// SplitPlace splits "City, State" on its last comma.
func SplitPlace(place string) (city, state string, err error) {
	i := strings.LastIndex(place, ",")
	if i < 0 {
		return "", "", fmt.Errorf("geocoder: %q is not in \"City, State\" form", place)
	}
	city = strings.TrimSpace(place[:i])
	state = strings.TrimSpace(place[i+1:])
	if city == "" || state == "" {
		return "", "", fmt.Errorf("geocoder: %q is not in \"City, State\" form", place)
	}
	return city, state, nil
}

// Geocode resolves place from the gazetteer table.
func (g *Gazetteer) Geocode(ctx context.Context, place string) (models.Coordinate, error) {
	city, state, err := SplitPlace(place)
	if err != nil {
		return models.Coordinate{}, err
	}

	coord, err := g.repo.FindPlace(ctx, city, state)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("geocoder: gazetteer lookup failed: %w", err)
	}
	if coord == nil {
		return models.Coordinate{}, ErrNoResult
	}
	return *coord, nil
}

// Geocoder resolves a "City, State" query to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (models.Coordinate, error)
}

// Chain tries each geocoder in order and returns the first success.
type Chain []Geocoder

// Geocode implements the geocoder contract over the chain.
func (c Chain) Geocode(ctx context.Context, place string) (models.Coordinate, error) {
	if len(c) == 0 {
		return models.Coordinate{}, errors.New("geocoder: no geocoders configured")
	}
	var errs []error
	for _, g := range c {
		coord, err := g.Geocode(ctx, place)
		if err == nil {
			return coord, nil
		}
		errs = append(errs, err)
	}
	return models.Coordinate{}, errors.Join(errs...)
}
