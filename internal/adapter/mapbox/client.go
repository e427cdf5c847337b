package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/ev-adoption-etl/internal/domain"
	"github.com/couchcryptid/ev-adoption-etl/internal/observability"
)

const (
	defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

	// minRelevance rejects fuzzy matches. Mapbox returns some region for
	// almost any query, so a low score means the state name was not found.
	minRelevance = 0.7
)

// queryReplacer rewrites spellings common in state-level datasets into the
// form Mapbox indexes.
var queryReplacer = strings.NewReplacer("&", " and ", "_", " ")

// Client implements domain.Geocoder using the Mapbox Geocoding API,
// restricted to administrative regions of one country.
type Client struct {
	token      string
	country    string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client. country is an ISO 3166-1
// alpha-2 code; empty searches worldwide.
func NewClient(token, country string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token:      token,
		country:    country,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// ForwardGeocode resolves a state or territory name to its centroid. Matches
// below minRelevance are reported as empty.
func (c *Client) ForwardGeocode(ctx context.Context, name string) (domain.GeocodingResult, error) {
	start := time.Now()
	f, found, err := c.lookup(ctx, queryName(name))
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodingResult{}, err
	case !found:
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		c.logger.Debug("no geocoding match", "state", name)
		return domain.GeocodingResult{}, nil
	case f.Relevance < minRelevance:
		c.metrics.GeocodeRequests.WithLabelValues("low_relevance").Inc()
		c.logger.Warn("geocoding match rejected", "state", name, "match", f.PlaceName, "relevance", f.Relevance)
		return domain.GeocodingResult{}, nil
	}

	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return f.result(), nil
}

// queryName collapses whitespace after rewriting separators.
func queryName(name string) string {
	return strings.Join(strings.Fields(queryReplacer.Replace(name)), " ")
}

func (c *Client) requestURL(query string) string {
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"region"},
	}
	if c.country != "" {
		params.Set("country", c.country)
	}
	return fmt.Sprintf("%s/%s.json?%s", c.baseURL, url.PathEscape(query), params.Encode())
}

// lookup returns the top feature for query; found is false when Mapbox
// returned no features.
func (c *Client) lookup(ctx context.Context, query string) (f feature, found bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(query), nil)
	if err != nil {
		return feature{}, false, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return feature{}, false, fmt.Errorf("geocode %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return feature{}, false, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return feature{}, false, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Features) == 0 {
		return feature{}, false, nil
	}
	return out.Features[0], true, nil
}

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}

func (f feature) result() domain.GeocodingResult {
	r := domain.GeocodingResult{
		FormattedAddress: f.PlaceName,
		PlaceName:        f.Text,
		Confidence:       f.Relevance,
	}
	if len(f.Center) == 2 {
		r.Lon, r.Lat = f.Center[0], f.Center[1]
	}
	return r
}
