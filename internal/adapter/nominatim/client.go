package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cris-mate/guardian-optix-sub004/internal/domain"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Client implements domain.GeocodingProvider against a Nominatim-compatible
// API. The provider takes no API key; its usage policy requires an
// identifying User-Agent on every request and a strict request rate, which
// the resolver's shared limiter enforces.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Nominatim geocoding client.
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Reverse converts coordinates to a structured address.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (domain.GeocodeResult, error) {
	params := url.Values{
		"format":         {"jsonv2"},
		"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(lon, 'f', -1, 64)},
		"addressdetails": {"1"},
	}

	var p place
	if err := c.doRequest(ctx, c.baseURL+"/reverse?"+params.Encode(), &p); err != nil {
		return domain.GeocodeResult{}, err
	}
	// Nominatim reports unresolvable coordinates as an error payload with
	// HTTP 200.
	if p.Error != "" {
		return domain.GeocodeResult{}, fmt.Errorf("%w: upstream error: %s", domain.ErrUpstreamUnavailable, p.Error)
	}
	return mapPlace(p), nil
}

// Forward converts a free-form address to coordinates, limited to the best
// match. Zero results yield ErrNotFound.
func (c *Client) Forward(ctx context.Context, query string) (domain.GeocodeResult, error) {
	params := url.Values{
		"format":         {"jsonv2"},
		"q":              {query},
		"limit":          {"1"},
		"addressdetails": {"1"},
	}

	var places []place
	if err := c.doRequest(ctx, c.baseURL+"/search?"+params.Encode(), &places); err != nil {
		return domain.GeocodeResult{}, err
	}
	if len(places) == 0 {
		return domain.GeocodeResult{}, fmt.Errorf("%w: %q", domain.ErrNotFound, query)
	}
	return mapPlace(places[0]), nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}

// mapPlace converts a provider payload to a GeocodeResult. Every field is
// optional; missing fields stay zero rather than erroring.
func mapPlace(p place) domain.GeocodeResult {
	address := domain.Address{
		HouseNumber: p.Address.HouseNumber,
		Road:        p.Address.Road,
		Suburb:      p.Address.Suburb,
		City:        firstNonEmpty(p.Address.City, p.Address.Town, p.Address.Village),
		County:      p.Address.County,
		State:       p.Address.State,
		Postcode:    p.Address.Postcode,
		Country:     p.Address.Country,
		CountryCode: p.Address.CountryCode,
	}

	return domain.GeocodeResult{
		DisplayName:      p.DisplayName,
		FormattedAddress: p.DisplayName,
		ShortAddress:     shortAddress(address, p.DisplayName),
		Coordinate: domain.Coordinate{
			Lat: parseFloatOrZero(p.Lat),
			Lon: parseFloatOrZero(p.Lon),
		},
		Address: address,
		Source: domain.SourceIDs{
			PlaceID: p.PlaceID,
			OSMType: p.OSMType,
			OSMID:   p.OSMID,
		},
	}
}

// shortAddress builds a compact human-readable rendering, preferring
// structured road/city fields and falling back to the display name's
// leading segments.
func shortAddress(a domain.Address, displayName string) string {
	var parts []string
	switch {
	case a.Road != "" && a.HouseNumber != "":
		parts = append(parts, a.HouseNumber+" "+a.Road)
	case a.Road != "":
		parts = append(parts, a.Road)
	}
	if locality := firstNonEmpty(a.City, a.Suburb); locality != "" {
		parts = append(parts, locality)
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}

	if displayName == "" {
		return ""
	}
	segments := strings.SplitN(displayName, ",", 3)
	if len(segments) >= 2 {
		return strings.TrimSpace(segments[0]) + ", " + strings.TrimSpace(segments[1])
	}
	return strings.TrimSpace(segments[0])
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
// Nominatim serializes coordinates as strings.
func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Nominatim API response types.

type place struct {
	PlaceID     int64        `json:"place_id"`
	OSMType     string       `json:"osm_type"`
	OSMID       int64        `json:"osm_id"`
	Lat         string       `json:"lat"`
	Lon         string       `json:"lon"`
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name"`
	Address     placeAddress `json:"address"`
	Error       string       `json:"error"`
}

type placeAddress struct {
	HouseNumber string `json:"house_number"`
	Road        string `json:"road"`
	Suburb      string `json:"suburb"`
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	County      string `json:"county"`
	State       string `json:"state"`
	Postcode    string `json:"postcode"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
}
