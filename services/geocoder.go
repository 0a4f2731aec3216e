package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gaspartrip/devcamper-api/models"
)

// EarthRadiusMiles converts a distance in miles into the radians
// $centerSphere expects.
const EarthRadiusMiles = 3963.0

// Geocoder resolves a free-text address or zipcode to a GeoJSON location.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (*models.Location, error)
}

// MapQuestGeocoder talks to the MapQuest geocoding HTTP API.
type MapQuestGeocoder struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewMapQuestGeocoder() *MapQuestGeocoder {
	baseURL := os.Getenv("GEOCODER_URL")
	if baseURL == "" {
		baseURL = "https://www.mapquestapi.com/geocoding/v1/address"
	}
	return &MapQuestGeocoder{
		APIKey:     os.Getenv("GEOCODER_API_KEY"),
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *MapQuestGeocoder) Geocode(ctx context.Context, location string) (*models.Location, error) {
	endpoint := g.BaseURL + "?key=" + url.QueryEscape(g.APIKey) + "&location=" + url.QueryEscape(location)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	res, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", res.StatusCode)
	}

	var parsed struct {
		Results []struct {
			Locations []struct {
				Street     string `json:"street"`
				City       string `json:"adminArea5"`
				State      string `json:"adminArea3"`
				PostalCode string `json:"postalCode"`
				Country    string `json:"adminArea1"`
				LatLng     struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"latLng"`
			} `json:"locations"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Results) == 0 || len(parsed.Results[0].Locations) == 0 {
		return nil, fmt.Errorf("geocoder returned no results for %q", location)
	}

	loc := parsed.Results[0].Locations[0]
	return &models.Location{
		Type:             "Point",
		Coordinates:      []float64{loc.LatLng.Lng, loc.LatLng.Lat},
		FormattedAddress: location,
		Street:           loc.Street,
		City:             loc.City,
		State:            loc.State,
		Zipcode:          loc.PostalCode,
		Country:          loc.Country,
	}, nil
}
