package domain

import "github.com/google/uuid"

// GuardType is a guard's specialization. Site requirements and candidate
// records use the same values.
type GuardType string

const (
	GuardStatic        GuardType = "Static"
	GuardDogHandler    GuardType = "Dog Handler"
	GuardCCTV          GuardType = "CCTV"
	GuardMobilePatrol  GuardType = "Mobile Patrol"
	GuardEventSecurity GuardType = "Event Security"
)

// LicenceStatus is the state of a candidate's SIA licence.
type LicenceStatus string

const (
	LicenceValid        LicenceStatus = "valid"
	LicenceExpiringSoon LicenceStatus = "expiring-soon"
	LicenceExpired      LicenceStatus = "expired"
	LicencePending      LicenceStatus = "pending"
)

// Candidate is a guard eligible for assignment to a shift.
type Candidate struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name,omitempty"`
	PostCode      string        `json:"post_code,omitempty"`
	GuardType     GuardType     `json:"guard_type,omitempty"`
	LicenceStatus LicenceStatus `json:"licence_status,omitempty"`

	// Available is a pointer so a record that never set the flag is
	// distinguishable from one that set it to false.
	Available *bool `json:"available,omitempty"`

	Certifications []string `json:"certifications,omitempty"`
}

// IsAvailable treats an unset availability flag as available. Observed
// upstream behavior, preserved rather than fixed.
func (c Candidate) IsAvailable() bool {
	return c.Available == nil || *c.Available
}

// Site describes the location a shift must cover.
type Site struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name,omitempty"`
	Address string    `json:"address,omitempty"`

	RequiredGuardType      GuardType `json:"required_guard_type,omitempty"`
	RequiredCertifications []string  `json:"required_certifications,omitempty"`

	// Coordinates are optional; when absent the site address is forward
	// geocoded before scoring.
	Coordinates *Coordinate `json:"coordinates,omitempty"`
}

// Factor names used as ScoreBreakdown keys.
const (
	FactorDistance       = "distance"
	FactorGuardType      = "guardType"
	FactorLicence        = "licence"
	FactorAvailability   = "availability"
	FactorCertifications = "certifications"
)

// ScoreBreakdown maps each factor name to its score in [0,100].
type ScoreBreakdown map[string]float64

// MatchResult is one candidate's ranking outcome for a matching run.
// Transient: recomputed on demand, never persisted.
type MatchResult struct {
	CandidateID uuid.UUID      `json:"candidate_id"`
	Score       int            `json:"score"`
	Breakdown   ScoreBreakdown `json:"breakdown"`

	// DistanceKm is the candidate-to-site distance rounded to one decimal
	// place, nil when either coordinate could not be resolved.
	DistanceKm *float64 `json:"distance_km,omitempty"`
}
