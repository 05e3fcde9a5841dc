package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"survey-analyzer/internal/models"
)

// ErrNoResult is returned when a provider has no match for the query.
var ErrNoResult = errors.New("geocoder: no result")

const defaultMapboxURL = "https://api.mapbox.com/geocoding/v5/mapbox.places/"

// Mapbox geocodes places with the Mapbox forward geocoding API.
type Mapbox struct {
	BaseURL string
	Token   string
	Country string
	Client  *http.Client
}

// NewMapbox creates a Mapbox geocoder restricted to US results.
func NewMapbox(baseURL, token string) *Mapbox {
	return &Mapbox{
		BaseURL: baseURL,
		Token:   token,
		Country: "US",
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *Mapbox) endpoint() string {
	base := strings.TrimSpace(m.BaseURL)
	if base == "" {
		return defaultMapboxURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

// Geocode returns the center of the best matching feature.
func (m *Mapbox) Geocode(ctx context.Context, place string) (models.Coordinate, error) {
	token := strings.TrimSpace(m.Token)
	if token == "" {
		return models.Coordinate{}, errors.New("geocoder: mapbox token missing")
	}
	query := strings.TrimSpace(place)
	if query == "" {
		return models.Coordinate{}, errors.New("geocoder: empty query")
	}

	params := url.Values{}
	params.Set("access_token", token)
	params.Set("limit", "1")
	params.Set("types", "place,locality,postcode,region")
	if m.Country != "" {
		params.Set("country", m.Country)
	}
	endpoint := m.endpoint() + url.PathEscape(query) + ".json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("geocoder: failed to build request: %w", err)
	}

	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("geocoder: mapbox request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return models.Coordinate{}, fmt.Errorf("geocoder: mapbox status %d", resp.StatusCode)
	}

	var data struct {
		Features []struct {
			Center []float64 `json:"center"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return models.Coordinate{}, fmt.Errorf("geocoder: failed to decode mapbox response: %w", err)
	}
	if len(data.Features) == 0 || len(data.Features[0].Center) < 2 {
		return models.Coordinate{}, ErrNoResult
	}

	center := data.Features[0].Center
	return models.Coordinate{Latitude: center[1], Longitude: center[0]}, nil
}
