// Package domain models guard-to-shift matching and geolocation resolution.
//
// # Scoring Model
//
// A candidate guard is scored against a site on five weighted factors, each
// producing a value in [0,100]:
//
//	distance       0.33  proximity of the guard's postcode to the site
//	guardType      0.26  specialization match against the site requirement
//	availability   0.21  the guard's availability flag
//	licence        0.13  SIA licence status
//	certifications 0.07  coverage of the site's required certifications
//
// Weights must sum to 1.0 and are validated when a Scorer is constructed,
// never at scoring time. The final score is the rounded weighted sum, so it
// also lies in [0,100].
//
// Factor conventions:
//
//	distance:       max(0, 100 - 2*km), reaching 0 at 50 km. When either
//	                coordinate cannot be resolved the factor is a neutral 50;
//	                unknown proximity is neither good nor bad.
//	guardType:      exact match 100, no site requirement 50, mismatch 20.
//	                A present-but-wrong specialization keeps residual value.
//	licence:        valid 100, expiring-soon 50, pending 25, expired 0.
//	                Unrecognized or absent statuses score 0 (fail-closed).
//	availability:   100 unless the flag is explicitly false. A missing flag
//	                counts as available; see [Candidate.IsAvailable].
//	certifications: linear coverage ratio of required certifications held,
//	                100 when the site requires none.
//
// # Geolocation Conventions
//
// Coordinates are WGS-84 decimal degrees. Reverse-geocode cache keys round
// to 5 decimal places (~1.1 m) so near-duplicate lookups collapse to one
// entry; forward keys are case-insensitive and whitespace-trimmed.
//
// Reverse geocoding is an enrichment, never a hard dependency: upstream
// failures degrade to a result whose ShortAddress is "Unknown Location"
// with the failure recorded in Err. Forward geocoding has no sensible
// coordinate fallback, so its failures surface to the caller.
package domain
