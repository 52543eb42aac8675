package pipeline

import (
	"context"
	"log/slog"

	"github.com/cris-mate/guardian-optix-sub004/internal/domain"
	"github.com/cris-mate/guardian-optix-sub004/internal/match"
)

// MatchTransformer implements Transformer by parsing a coverage request,
// ranking its candidates, and serializing the resulting assignment.
type MatchTransformer struct {
	matcher *match.Matcher
	logger  *slog.Logger
}

// NewTransformer creates a MatchTransformer.
func NewTransformer(matcher *match.Matcher, logger *slog.Logger) *MatchTransformer {
	return &MatchTransformer{
		matcher: matcher,
		logger:  logger,
	}
}

func (t *MatchTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	req, err := domain.ParseCoverageRequest(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	ranking := t.matcher.Rank(ctx, req.Site, req.Candidates)

	assignment := domain.RankedAssignment{
		ShiftID:     req.ShiftID,
		SiteID:      req.Site.ID,
		Ranking:     ranking,
		GeneratedAt: domain.Now(),
	}

	t.logger.Debug("coverage request ranked",
		"shift_id", req.ShiftID,
		"site_id", req.Site.ID,
		"candidates", len(ranking),
	)

	return domain.SerializeAssignment(assignment)
}
