package domain

import "context"

// Coordinate is an immutable WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Address holds the structured fields of a resolved location. Every field is
// optional; providers omit what they do not know.
type Address struct {
	HouseNumber string `json:"house_number,omitempty"`
	Road        string `json:"road,omitempty"`
	Suburb      string `json:"suburb,omitempty"`
	City        string `json:"city,omitempty"`
	County      string `json:"county,omitempty"`
	State       string `json:"state,omitempty"`
	Postcode    string `json:"postcode,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// SourceIDs are opaque provider identifiers for a resolved place.
type SourceIDs struct {
	PlaceID int64  `json:"place_id,omitempty"`
	OSMType string `json:"osm_type,omitempty"`
	OSMID   int64  `json:"osm_id,omitempty"`
}

// GeocodeResult is the outcome of a forward or reverse geocode lookup.
// A result with Err set is a degraded fallback carrying only an approximate
// rendering of the input coordinates.
type GeocodeResult struct {
	DisplayName      string     `json:"display_name,omitempty"`
	FormattedAddress string     `json:"formatted_address,omitempty"`
	ShortAddress     string     `json:"short_address"`
	Coordinate       Coordinate `json:"coordinate"`
	Address          Address    `json:"address,omitempty"`
	Source           SourceIDs  `json:"source,omitempty"`
	Err              string     `json:"error,omitempty"`
}

// Degraded reports whether the result is an upstream-failure fallback.
func (r GeocodeResult) Degraded() bool {
	return r.Err != ""
}

// BatchResult is the per-item outcome of a batch reverse geocode. Items are
// independent: one entry failing does not affect the others, and the output
// sequence preserves input order.
type BatchResult struct {
	Input   Coordinate    `json:"input"`
	Result  GeocodeResult `json:"result"`
	Error   string        `json:"error,omitempty"`
	Success bool          `json:"success"`
}

// GeocodingProvider is the upstream address-lookup service.
type GeocodingProvider interface {
	// Reverse converts coordinates to a structured address.
	Reverse(ctx context.Context, lat, lon float64) (GeocodeResult, error)

	// Forward converts a free-form address or postcode to coordinates,
	// limited to the best match. Zero results yield ErrNotFound.
	Forward(ctx context.Context, query string) (GeocodeResult, error)
}

// CandidateLocator resolves a candidate's postcode to coordinates for
// distance scoring.
type CandidateLocator interface {
	Locate(ctx context.Context, postCode string) (Coordinate, error)
}
