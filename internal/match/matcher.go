// Package match ranks guard candidates for a site using the domain scorer,
// resolving site coordinates through the geocoding layer when a site only
// carries a street address.
package match

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/cris-mate/guardian-optix-sub004/internal/domain"
	"github.com/cris-mate/guardian-optix-sub004/internal/observability"
)

// SiteGeocoder resolves a free-form site address to coordinates.
type SiteGeocoder interface {
	ForwardGeocode(ctx context.Context, address string) (domain.GeocodeResult, error)
}

// Matcher produces a ranked list of candidates for a site.
type Matcher struct {
	scorer   *domain.Scorer
	geocoder SiteGeocoder
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewMatcher creates a Matcher. The geocoder may be nil, in which case sites
// without explicit coordinates score the distance factor neutrally.
func NewMatcher(scorer *domain.Scorer, geocoder SiteGeocoder, logger *slog.Logger, metrics *observability.Metrics) *Matcher {
	return &Matcher{
		scorer:   scorer,
		geocoder: geocoder,
		logger:   logger,
		metrics:  metrics,
	}
}

// Rank scores every candidate against the site and returns results ordered by
// descending score. Equal scores are broken by ascending candidate ID so that
// repeated runs over the same input produce identical rankings.
func (m *Matcher) Rank(ctx context.Context, site domain.Site, candidates []domain.Candidate) []domain.MatchResult {
	start := time.Now()
	defer func() {
		m.metrics.MatchRuns.Inc()
		m.metrics.MatchDuration.Observe(time.Since(start).Seconds())
	}()

	siteCoord := m.resolveSiteCoordinate(ctx, site)

	results := make([]domain.MatchResult, 0, len(candidates))
	for _, candidate := range candidates {
		results = append(results, m.scorer.Score(ctx, candidate, site, siteCoord))
	}
	m.metrics.CandidatesScored.Observe(float64(len(results)))

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CandidateID.String() < results[j].CandidateID.String()
	})

	return results
}

// resolveSiteCoordinate returns the site's coordinates, geocoding its address
// once per run when none are set. Resolution failure is not fatal: distance
// simply scores neutrally for every candidate.
func (m *Matcher) resolveSiteCoordinate(ctx context.Context, site domain.Site) *domain.Coordinate {
	if site.Coordinates != nil {
		return site.Coordinates
	}
	if m.geocoder == nil || site.Address == "" {
		return nil
	}

	result, err := m.geocoder.ForwardGeocode(ctx, site.Address)
	if err != nil {
		m.logger.Warn("site address could not be geocoded, distance scoring disabled for this run",
			"site_id", site.ID,
			"address", site.Address,
			"error", err,
		)
		return nil
	}
	return &result.Coordinate
}
