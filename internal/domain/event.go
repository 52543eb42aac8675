package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RawEvent represents an unprocessed message from the coverage-request topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the ranked-assignment topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// CoverageRequest asks for a ranked list of guards for one shift. The
// rostering service publishes these; candidate and site records arrive as
// plain data, already filtered to the eligible pool.
type CoverageRequest struct {
	ShiftID    uuid.UUID   `json:"shift_id"`
	Site       Site        `json:"site"`
	Candidates []Candidate `json:"candidates"`
}

// RankedAssignment is the matching run's output: every candidate scored and
// sorted, best first.
type RankedAssignment struct {
	ShiftID     uuid.UUID     `json:"shift_id"`
	SiteID      uuid.UUID     `json:"site_id"`
	Ranking     []MatchResult `json:"ranking"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// SerializeAssignment converts a RankedAssignment into an OutputEvent keyed
// by shift ID, so all rankings for one shift land on the same partition.
func SerializeAssignment(a RankedAssignment) (OutputEvent, error) {
	value, err := json.Marshal(a)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize assignment: %w", err)
	}
	return OutputEvent{
		Key:   []byte(a.ShiftID.String()),
		Value: value,
		Headers: map[string]string{
			"shift_id":     a.ShiftID.String(),
			"generated_at": a.GeneratedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}

// ParseCoverageRequest deserializes a RawEvent's value into a CoverageRequest.
func ParseCoverageRequest(raw RawEvent) (CoverageRequest, error) {
	var req CoverageRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return CoverageRequest{}, fmt.Errorf("parse coverage request: %w", err)
	}
	if req.ShiftID == uuid.Nil {
		return CoverageRequest{}, errors.New("coverage request missing shift_id")
	}
	if len(req.Candidates) == 0 {
		return CoverageRequest{}, errors.New("coverage request has no candidates")
	}
	return req, nil
}
