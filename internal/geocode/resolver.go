// Package geocode resolves addresses and coordinates through a cached,
// rate-limited upstream provider.
//
// Reverse geocoding never fails hard: geocoding is an enrichment, and an
// unreachable provider degrades to a fallback result rather than breaking
// the matching run. Forward geocoding surfaces its failures because an
// unresolvable address has no sensible coordinate fallback.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cris-mate/guardian-optix-sub004/internal/domain"
	"github.com/cris-mate/guardian-optix-sub004/internal/observability"
)

// DefaultTimeout bounds one upstream lookup.
const DefaultTimeout = 10 * time.Second

// unknownLocation is the short address of a degraded reverse-geocode result.
const unknownLocation = "Unknown Location"

// Resolver orchestrates cache lookup, rate-limited upstream calls, and
// fallback construction for forward and reverse geocoding. The cache and
// limiter are shared, process-wide collaborators injected at construction.
type Resolver struct {
	provider domain.GeocodingProvider
	cache    *Cache
	limiter  *Limiter
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewResolver creates a Resolver. A non-positive timeout falls back to the
// default.
func NewResolver(provider domain.GeocodingProvider, cache *Cache, limiter *Limiter, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{
		provider: provider,
		cache:    cache,
		limiter:  limiter,
		timeout:  timeout,
		logger:   logger,
		metrics:  metrics,
	}
}

// ReverseGeocode converts coordinates to an address. Argument errors
// (missing or out-of-range lat/lon) propagate; every upstream failure is
// absorbed into a degraded result with Err set, which is cached like a
// success so a flapping provider is not hammered.
func (r *Resolver) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodeResult, error) {
	result, err := r.reverseLookup(ctx, lat, lon)
	if err == nil {
		return result, nil
	}
	if errors.Is(err, domain.ErrMissingArgument) || errors.Is(err, domain.ErrInvalidArgument) {
		return domain.GeocodeResult{}, err
	}

	r.logger.Warn("reverse geocode failed, returning fallback", "lat", lat, "lon", lon, "error", err)
	r.metrics.GeocodeRequests.WithLabelValues("reverse", "fallback").Inc()

	fallback := fallbackResult(lat, lon, err)
	r.cache.Put(coordKey(lat, lon), fallback)
	return fallback, nil
}

// ForwardGeocode converts an address or postcode to coordinates. Unlike
// reverse geocoding, failures propagate: ErrNotFound for zero results,
// ErrUpstreamUnavailable otherwise.
func (r *Resolver) ForwardGeocode(ctx context.Context, address string) (domain.GeocodeResult, error) {
	key := addressKey(address)
	if key == addressKey("") {
		return domain.GeocodeResult{}, fmt.Errorf("%w: address must be a non-empty string", domain.ErrInvalidArgument)
	}

	if result, ok := r.cache.Get(key); ok {
		r.metrics.GeocodeCache.WithLabelValues("forward", "hit").Inc()
		return result, nil
	}
	r.metrics.GeocodeCache.WithLabelValues("forward", "miss").Inc()

	result, err := r.upstream(ctx, "forward", func(ctx context.Context) (domain.GeocodeResult, error) {
		return r.provider.Forward(ctx, address)
	})
	if err != nil {
		return domain.GeocodeResult{}, err
	}

	r.cache.Put(key, result)
	return result, nil
}

// BatchReverseGeocode resolves a sequence of coordinates strictly
// sequentially; every call shares the single global rate limiter, so
// concurrency would buy nothing. One entry's failure does not abort the
// others, and outcomes are collected in input order.
func (r *Resolver) BatchReverseGeocode(ctx context.Context, coords []domain.Coordinate) []domain.BatchResult {
	out := make([]domain.BatchResult, 0, len(coords))
	for _, c := range coords {
		item := domain.BatchResult{Input: c}
		result, err := r.reverseLookup(ctx, c.Lat, c.Lon)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Result = result
			item.Success = true
		}
		out = append(out, item)
	}
	return out
}

// Locate resolves a postcode to coordinates for distance scoring.
// Implements domain.CandidateLocator.
func (r *Resolver) Locate(ctx context.Context, postCode string) (domain.Coordinate, error) {
	result, err := r.ForwardGeocode(ctx, postCode)
	if err != nil {
		return domain.Coordinate{}, err
	}
	return result.Coordinate, nil
}

// ClearCache empties the shared cache. Exposed for operational resets and
// test isolation.
func (r *Resolver) ClearCache() {
	r.cache.Clear()
}

// CacheStats reports the shared cache's size and configured maximum.
func (r *Resolver) CacheStats() CacheStats {
	return r.cache.Stats()
}

// reverseLookup is the error-surfacing reverse path shared by
// ReverseGeocode (which absorbs failures) and BatchReverseGeocode (which
// reports them per item). Successes are cached here.
func (r *Resolver) reverseLookup(ctx context.Context, lat, lon float64) (domain.GeocodeResult, error) {
	if err := validateCoordinate(lat, lon); err != nil {
		return domain.GeocodeResult{}, err
	}

	key := coordKey(lat, lon)
	if result, ok := r.cache.Get(key); ok {
		r.metrics.GeocodeCache.WithLabelValues("reverse", "hit").Inc()
		return result, nil
	}
	r.metrics.GeocodeCache.WithLabelValues("reverse", "miss").Inc()

	result, err := r.upstream(ctx, "reverse", func(ctx context.Context) (domain.GeocodeResult, error) {
		return r.provider.Reverse(ctx, lat, lon)
	})
	if err != nil {
		return domain.GeocodeResult{}, err
	}

	r.cache.Put(key, result)
	return result, nil
}

// upstream acquires a rate-limiter turn, issues one provider call bounded
// by the resolver timeout, and classifies failures into the domain error
// taxonomy.
func (r *Resolver) upstream(ctx context.Context, method string, call func(context.Context) (domain.GeocodeResult, error)) (domain.GeocodeResult, error) {
	waitStart := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		r.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return domain.GeocodeResult{}, fmt.Errorf("%w: rate limiter: %v", domain.ErrUpstreamUnavailable, err)
	}
	r.metrics.GeocodeLimiterWait.Observe(time.Since(waitStart).Seconds())

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	result, err := call(callCtx)
	r.metrics.GeocodeAPIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	if err != nil {
		r.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUpstreamUnavailable) {
			return domain.GeocodeResult{}, err
		}
		return domain.GeocodeResult{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	r.metrics.GeocodeRequests.WithLabelValues(method, "success").Inc()
	return result, nil
}

// validateCoordinate distinguishes absent input (zero-like or NaN, a
// MissingArgument) from present-but-out-of-range input (InvalidArgument).
func validateCoordinate(lat, lon float64) error {
	if lat == 0 || lon == 0 || math.IsNaN(lat) || math.IsNaN(lon) {
		return fmt.Errorf("%w: latitude and longitude", domain.ErrMissingArgument)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v outside [-90,90]", domain.ErrInvalidArgument, lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v outside [-180,180]", domain.ErrInvalidArgument, lon)
	}
	return nil
}

// fallbackResult renders the input coordinates as a degraded result so the
// caller always has something human-readable.
func fallbackResult(lat, lon float64, cause error) domain.GeocodeResult {
	return domain.GeocodeResult{
		ShortAddress:     unknownLocation,
		FormattedAddress: fmt.Sprintf("%.6f, %.6f", lat, lon),
		Coordinate:       domain.Coordinate{Lat: lat, Lon: lon},
		Err:              cause.Error(),
	}
}
