package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/m-mizutani/dashbot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// ErrQuotaExceeded indicates the places API daily quota was hit. Callers must
// distinguish it from zero results and from generic failures.
var ErrQuotaExceeded = goerr.New("places API quota exceeded")

const (
	geocodeURL      = "https://maps.googleapis.com/maps/api/geocode/json"
	nearbySearchURL = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"

	searchRadiusMeters = 5000
	maxSearchPages     = 3

	// nextPageDelay is the time Google requires before a next_page_token
	// becomes valid
	nextPageDelay = 2 * time.Second
)

// Place is one raw nearby-search result before catalog cleanup
type Place struct {
	Name     string
	Rating   *float64
	Types    []string
	Vicinity string
}

type Places interface {
	Geocode(ctx context.Context, zipCode string) (lat, lng float64, err error)
	NearbyRestaurants(ctx context.Context, lat, lng float64, keyword string) ([]*Place, error)
}

type PlacesClient struct {
	apiKey     string
	client     *http.Client
	geocodeURL string
	nearbyURL  string
	pageDelay  time.Duration
}

type PlacesOption func(*PlacesClient)

// WithPlacesHTTPClient replaces the default HTTP client
func WithPlacesHTTPClient(client *http.Client) PlacesOption {
	return func(p *PlacesClient) {
		p.client = client
	}
}

// WithPlacesBaseURL overrides both API endpoints, for tests
func WithPlacesBaseURL(baseURL string) PlacesOption {
	return func(p *PlacesClient) {
		p.geocodeURL = baseURL + "/maps/api/geocode/json"
		p.nearbyURL = baseURL + "/maps/api/place/nearbysearch/json"
		p.pageDelay = 0
	}
}

func NewPlaces(apiKey string, opts ...PlacesOption) *PlacesClient {
	p := &PlacesClient{
		apiKey:     apiKey,
		client:     &http.Client{Timeout: 10 * time.Second},
		geocodeURL: geocodeURL,
		nearbyURL:  nearbySearchURL,
		pageDelay:  nextPageDelay,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *PlacesClient) Geocode(ctx context.Context, zipCode string) (float64, float64, error) {
	query := url.Values{
		"address": {zipCode},
		"key":     {p.apiKey},
	}

	var resp struct {
		Status  string `json:"status"`
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}

	if err := p.getJSON(ctx, p.geocodeURL, query, &resp); err != nil {
		return 0, 0, err
	}
	if resp.Status == statusQuotaExceeded {
		return 0, 0, goerr.Wrap(ErrQuotaExceeded, "geocoding rejected", goerr.V("zip", zipCode))
	}
	if len(resp.Results) == 0 {
		return 0, 0, goerr.New("could not geocode ZIP code", goerr.V("zip", zipCode), goerr.V("status", resp.Status))
	}

	loc := resp.Results[0].Geometry.Location
	return loc.Lat, loc.Lng, nil
}

const (
	statusOK            = "OK"
	statusZeroResults   = "ZERO_RESULTS"
	statusQuotaExceeded = "OVER_QUERY_LIMIT"
)

// NearbyRestaurants pages through nearby-search results around a coordinate,
// up to 3 pages. A non-OK status after the first page returns what was
// collected so far; quota exhaustion always fails with ErrQuotaExceeded.
func (p *PlacesClient) NearbyRestaurants(ctx context.Context, lat, lng float64, keyword string) ([]*Place, error) {
	logger := logging.From(ctx)

	query := url.Values{
		"location": {strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)},
		"radius":   {strconv.Itoa(searchRadiusMeters)},
		"rankby":   {"prominence"},
		"type":     {"restaurant"},
		"keyword":  {keyword},
		"key":      {p.apiKey},
	}

	var places []*Place
	for page := 1; page <= maxSearchPages; page++ {
		var resp struct {
			Status        string `json:"status"`
			NextPageToken string `json:"next_page_token"`
			Results       []struct {
				Name     string   `json:"name"`
				Rating   *float64 `json:"rating"`
				Types    []string `json:"types"`
				Vicinity string   `json:"vicinity"`
			} `json:"results"`
		}

		if err := p.getJSON(ctx, p.nearbyURL, query, &resp); err != nil {
			return nil, err
		}

		switch resp.Status {
		case statusOK:
		case statusZeroResults:
			return places, nil
		case statusQuotaExceeded:
			return nil, goerr.Wrap(ErrQuotaExceeded, "nearby search rejected")
		default:
			logger.Warn("nearby search returned unexpected status",
				"status", resp.Status, "page", page)
			return places, nil
		}

		for _, r := range resp.Results {
			places = append(places, &Place{
				Name:     r.Name,
				Rating:   r.Rating,
				Types:    r.Types,
				Vicinity: r.Vicinity,
			})
		}
		logger.Debug("fetched nearby search page", "page", page, "results", len(resp.Results))

		if resp.NextPageToken == "" {
			break
		}
		query = url.Values{
			"pagetoken": {resp.NextPageToken},
			"key":       {p.apiKey},
		}

		// next_page_token is not valid immediately
		select {
		case <-time.After(p.pageDelay):
		case <-ctx.Done():
			return nil, goerr.Wrap(ctx.Err(), "nearby search canceled")
		}
	}

	return places, nil
}

func (p *PlacesClient) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return goerr.Wrap(err, "failed to create places request")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return goerr.Wrap(err, "places request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return goerr.New("places API returned error status", goerr.V("status", resp.Status))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(err, "failed to decode places response")
	}

	return nil
}

var _ Places = (*PlacesClient)(nil)
