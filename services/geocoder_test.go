package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mapquestFixture = `{
  "results": [
    {
      "locations": [
        {
          "street": "233 Bay State Rd",
          "adminArea5": "Boston",
          "adminArea3": "MA",
          "postalCode": "02215",
          "adminArea1": "US",
          "latLng": {"lat": 42.350498, "lng": -71.104028}
        }
      ]
    }
  ]
}`

func testGeocoder(server *httptest.Server) *MapQuestGeocoder {
	return &MapQuestGeocoder{
		APIKey:     "testkey",
		BaseURL:    server.URL,
		HTTPClient: &http.Client{Timeout: time.Second},
	}
}

func TestGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "testkey", r.URL.Query().Get("key"))
		assert.Equal(t, "233 Bay State Rd Boston MA 02215", r.URL.Query().Get("location"))
		w.Write([]byte(mapquestFixture))
	}))
	defer server.Close()

	loc, err := testGeocoder(server).Geocode(context.Background(), "233 Bay State Rd Boston MA 02215")
	require.NoError(t, err)

	assert.Equal(t, "Point", loc.Type)
	// GeoJSON stores longitude first
	assert.Equal(t, []float64{-71.104028, 42.350498}, loc.Coordinates)
	assert.Equal(t, "233 Bay State Rd", loc.Street)
	assert.Equal(t, "Boston", loc.City)
	assert.Equal(t, "MA", loc.State)
	assert.Equal(t, "02215", loc.Zipcode)
	assert.Equal(t, "US", loc.Country)
	assert.Equal(t, "233 Bay State Rd Boston MA 02215", loc.FormattedAddress)
}

func TestGeocodeNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	_, err := testGeocoder(server).Geocode(context.Background(), "nowhere")
	assert.Error(t, err)
}

func TestGeocodeUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := testGeocoder(server).Geocode(context.Background(), "anywhere")
	assert.Error(t, err)
}
