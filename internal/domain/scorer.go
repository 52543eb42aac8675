package domain

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// Weights configures the contribution of each scoring factor. The fields
// must be non-negative and sum to 1.0; Validate enforces this when a Scorer
// is constructed so scoring itself never has to check.
type Weights struct {
	Distance       float64
	GuardType      float64
	Availability   float64
	Licence        float64
	Certifications float64
}

// DefaultWeights returns the production weighting.
func DefaultWeights() Weights {
	return Weights{
		Distance:       0.33,
		GuardType:      0.26,
		Availability:   0.21,
		Licence:        0.13,
		Certifications: 0.07,
	}
}

const weightSumTolerance = 1e-9

// Validate checks that every weight is non-negative and the sum is 1.0.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		FactorDistance:       w.Distance,
		FactorGuardType:      w.GuardType,
		FactorAvailability:   w.Availability,
		FactorLicence:        w.Licence,
		FactorCertifications: w.Certifications,
	} {
		if v < 0 {
			return fmt.Errorf("weight %q is negative: %v", name, v)
		}
	}
	sum := w.Distance + w.GuardType + w.Availability + w.Licence + w.Certifications
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("weights sum to %v, want 1.0", sum)
	}
	return nil
}

// licenceScores is the fixed licence-status table. Statuses not listed
// score 0.
var licenceScores = map[LicenceStatus]float64{
	LicenceValid:        100,
	LicenceExpiringSoon: 50,
	LicenceExpired:      0,
	LicencePending:      25,
}

const neutralScore = 50.0

// Scorer ranks a candidate guard against a site. The optional locator
// resolves candidate postcodes for the distance factor; when it is nil or
// fails, distance degrades to the neutral score instead of erroring.
type Scorer struct {
	locator CandidateLocator
	weights Weights
	logger  *slog.Logger
}

// NewScorer validates the weights and returns a Scorer.
func NewScorer(locator CandidateLocator, weights Weights, logger *slog.Logger) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("scorer weights: %w", err)
	}
	return &Scorer{locator: locator, weights: weights, logger: logger}, nil
}

// Score computes the weighted multi-factor score for one candidate. It has
// no side effects beyond the optional postcode lookup and never fails: any
// geocoding problem degrades the distance factor to neutral.
func (s *Scorer) Score(ctx context.Context, candidate Candidate, site Site, siteCoord *Coordinate) MatchResult {
	distScore, distKm := s.distanceFactor(ctx, candidate, siteCoord)

	breakdown := ScoreBreakdown{
		FactorDistance:       distScore,
		FactorGuardType:      guardTypeFactor(candidate.GuardType, site.RequiredGuardType),
		FactorLicence:        licenceScores[candidate.LicenceStatus],
		FactorAvailability:   availabilityFactor(candidate),
		FactorCertifications: certificationFactor(candidate.Certifications, site.RequiredCertifications),
	}

	total := s.weights.Distance*breakdown[FactorDistance] +
		s.weights.GuardType*breakdown[FactorGuardType] +
		s.weights.Licence*breakdown[FactorLicence] +
		s.weights.Availability*breakdown[FactorAvailability] +
		s.weights.Certifications*breakdown[FactorCertifications]

	return MatchResult{
		CandidateID: candidate.ID,
		Score:       int(math.Round(total)),
		Breakdown:   breakdown,
		DistanceKm:  distKm,
	}
}

// distanceFactor scores proximity: 100 at the site, 0 from 50 km out. When
// either side's coordinates are unavailable the factor is neutral.
func (s *Scorer) distanceFactor(ctx context.Context, candidate Candidate, siteCoord *Coordinate) (float64, *float64) {
	if siteCoord == nil || candidate.PostCode == "" || s.locator == nil {
		return neutralScore, nil
	}

	loc, err := s.locator.Locate(ctx, candidate.PostCode)
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("candidate postcode unresolvable, scoring distance as neutral",
				"candidate_id", candidate.ID,
				"post_code", candidate.PostCode,
				"error", err,
			)
		}
		return neutralScore, nil
	}

	km := Haversine(loc, *siteCoord)
	rounded := math.Round(km*10) / 10
	return math.Max(0, 100-2*km), &rounded
}

// guardTypeFactor: exact match 100, no requirement 50, mismatch 20.
func guardTypeFactor(have, want GuardType) float64 {
	switch {
	case want == "":
		return neutralScore
	case have == want:
		return 100
	default:
		return 20
	}
}

func availabilityFactor(candidate Candidate) float64 {
	if candidate.IsAvailable() {
		return 100
	}
	return 0
}

// certificationFactor is the linear coverage ratio of required
// certifications the candidate holds. A site with no requirements is
// vacuously satisfied.
func certificationFactor(held, required []string) float64 {
	if len(required) == 0 {
		return 100
	}

	holds := make(map[string]bool, len(held))
	for _, c := range held {
		holds[strings.ToLower(strings.TrimSpace(c))] = true
	}

	matched := 0
	for _, want := range required {
		if holds[strings.ToLower(strings.TrimSpace(want))] {
			matched++
		}
	}
	return 100 * float64(matched) / float64(len(required))
}
