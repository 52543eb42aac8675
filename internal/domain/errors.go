package domain

import "errors"

// Geocoding error taxonomy. Callers classify failures with errors.Is; the
// concrete cause is carried by wrapping.
var (
	// ErrInvalidArgument marks malformed or out-of-range input, such as a
	// latitude outside [-90,90] or an empty forward-geocode address.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMissingArgument marks required input that is absent or zero-like.
	ErrMissingArgument = errors.New("missing required argument")

	// ErrUpstreamUnavailable covers network errors, timeouts, non-parseable
	// responses, and explicit error payloads from the geocoding provider.
	ErrUpstreamUnavailable = errors.New("geocoding upstream unavailable")

	// ErrNotFound indicates a forward geocode yielded zero results.
	ErrNotFound = errors.New("address not found")
)
