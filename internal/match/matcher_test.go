package match_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cris-mate/guardian-optix-sub004/internal/domain"
	"github.com/cris-mate/guardian-optix-sub004/internal/match"
	"github.com/cris-mate/guardian-optix-sub004/internal/observability"
)

type fakeGeocoder struct {
	coord domain.Coordinate
	err   error
	calls int
}

func (f *fakeGeocoder) ForwardGeocode(_ context.Context, _ string) (domain.GeocodeResult, error) {
	f.calls++
	if f.err != nil {
		return domain.GeocodeResult{}, f.err
	}
	return domain.GeocodeResult{Coordinate: f.coord}, nil
}

type fixedLocator struct {
	coords map[string]domain.Coordinate
}

func (l *fixedLocator) Locate(_ context.Context, postCode string) (domain.Coordinate, error) {
	coord, ok := l.coords[postCode]
	if !ok {
		return domain.Coordinate{}, domain.ErrNotFound
	}
	return coord, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMatcher(t *testing.T, geocoder match.SiteGeocoder, locator domain.CandidateLocator) *match.Matcher {
	t.Helper()
	scorer, err := domain.NewScorer(locator, domain.DefaultWeights(), discardLogger())
	require.NoError(t, err)
	return match.NewMatcher(scorer, geocoder, discardLogger(), observability.NewMetricsForTesting())
}

func staticGuard(id, postCode string) domain.Candidate {
	return domain.Candidate{
		ID:            uuid.MustParse(id),
		Name:          "Guard " + id[:4],
		PostCode:      postCode,
		GuardType:     domain.GuardStatic,
		LicenceStatus: domain.LicenceValid,
	}
}

func TestRank_OrdersByDescendingScore(t *testing.T) {
	site := domain.Site{
		ID:                uuid.New(),
		Name:              "Canary Wharf Plaza",
		RequiredGuardType: domain.GuardStatic,
		Coordinates:       &domain.Coordinate{Lat: 51.5054, Lon: -0.0235},
	}

	strong := staticGuard("11111111-1111-1111-1111-111111111111", "E14 5AB")
	weak := staticGuard("22222222-2222-2222-2222-222222222222", "E14 5AB")
	weak.GuardType = domain.GuardCCTV
	weak.LicenceStatus = domain.LicenceExpired

	locator := &fixedLocator{coords: map[string]domain.Coordinate{
		"E14 5AB": {Lat: 51.5054, Lon: -0.0235},
	}}
	m := newTestMatcher(t, nil, locator)

	results := m.Rank(context.Background(), site, []domain.Candidate{weak, strong})
	require.Len(t, results, 2)

	assert.Equal(t, strong.ID, results[0].CandidateID)
	assert.Equal(t, weak.ID, results[1].CandidateID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestRank_TiesBreakOnAscendingCandidateID(t *testing.T) {
	site := domain.Site{
		ID:                uuid.New(),
		RequiredGuardType: domain.GuardStatic,
	}

	// Identical profiles, so identical scores.
	a := staticGuard("aaaaaaaa-0000-0000-0000-000000000000", "")
	b := staticGuard("bbbbbbbb-0000-0000-0000-000000000000", "")
	c := staticGuard("cccccccc-0000-0000-0000-000000000000", "")

	m := newTestMatcher(t, nil, &fixedLocator{})

	first := m.Rank(context.Background(), site, []domain.Candidate{c, a, b})
	second := m.Rank(context.Background(), site, []domain.Candidate{b, c, a})

	require.Len(t, first, 3)
	assert.Equal(t, a.ID, first[0].CandidateID)
	assert.Equal(t, b.ID, first[1].CandidateID)
	assert.Equal(t, c.ID, first[2].CandidateID)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("ranking depends on input order (-first +second):\n%s", diff)
	}
}

func TestRank_GeocodesSiteAddressExactlyOnce(t *testing.T) {
	geocoder := &fakeGeocoder{coord: domain.Coordinate{Lat: 51.5054, Lon: -0.0235}}
	locator := &fixedLocator{coords: map[string]domain.Coordinate{
		"E14 5AB": {Lat: 51.5054, Lon: -0.0235},
	}}
	m := newTestMatcher(t, geocoder, locator)

	site := domain.Site{
		ID:                uuid.New(),
		Address:           "25 Canada Square, London",
		RequiredGuardType: domain.GuardStatic,
	}
	candidates := []domain.Candidate{
		staticGuard("11111111-1111-1111-1111-111111111111", "E14 5AB"),
		staticGuard("22222222-2222-2222-2222-222222222222", "E14 5AB"),
		staticGuard("33333333-3333-3333-3333-333333333333", "E14 5AB"),
	}

	results := m.Rank(context.Background(), site, candidates)
	require.Len(t, results, 3)

	assert.Equal(t, 1, geocoder.calls, "site address must be resolved once per run, not per candidate")
	for _, r := range results {
		require.NotNil(t, r.DistanceKm)
		assert.Zero(t, *r.DistanceKm)
		assert.Equal(t, 100.0, r.Breakdown[domain.FactorDistance])
	}
}

func TestRank_SiteCoordinatesSkipGeocoding(t *testing.T) {
	geocoder := &fakeGeocoder{}
	m := newTestMatcher(t, geocoder, &fixedLocator{})

	site := domain.Site{
		ID:          uuid.New(),
		Address:     "25 Canada Square, London",
		Coordinates: &domain.Coordinate{Lat: 51.5054, Lon: -0.0235},
	}

	m.Rank(context.Background(), site, []domain.Candidate{
		staticGuard("11111111-1111-1111-1111-111111111111", ""),
	})

	assert.Zero(t, geocoder.calls)
}

func TestRank_GeocodeFailureStillRanksEveryCandidate(t *testing.T) {
	geocoder := &fakeGeocoder{err: errors.New("upstream unavailable")}
	m := newTestMatcher(t, geocoder, &fixedLocator{})

	site := domain.Site{
		ID:                uuid.New(),
		Address:           "25 Canada Square, London",
		RequiredGuardType: domain.GuardStatic,
	}
	candidates := []domain.Candidate{
		staticGuard("11111111-1111-1111-1111-111111111111", "E14 5AB"),
		staticGuard("22222222-2222-2222-2222-222222222222", "SW1A 1AA"),
	}

	results := m.Rank(context.Background(), site, candidates)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.Nil(t, r.DistanceKm)
		assert.Equal(t, 50.0, r.Breakdown[domain.FactorDistance], "unresolvable distance must score neutrally")
	}
}

func TestRank_EmptyCandidateList(t *testing.T) {
	m := newTestMatcher(t, nil, &fixedLocator{})

	results := m.Rank(context.Background(), domain.Site{ID: uuid.New()}, nil)
	assert.Empty(t, results)
}
