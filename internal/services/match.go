package services

import (
	"context"
	"fmt"
	"time"

	"github.com/clinect/clinect-backend/internal/clients/ctgov"
	"github.com/clinect/clinect-backend/internal/data/graph"
	"github.com/clinect/clinect-backend/internal/domain"
	"github.com/clinect/clinect-backend/internal/platform/logger"
)

// GraphMatcher is the graph-side entry point of the match pipeline.
type GraphMatcher interface {
	Available() bool
	FindMatchingTrials(ctx context.Context, q graph.MatchQuery) ([]domain.TrialMatch, error)
}

// CacheWriter is the cache-side half of fallback repopulation.
type CacheWriter interface {
	Put(ctx context.Context, doc *domain.CacheDocument) error
}

type MatchRequest struct {
	Conditions    []string `json:"conditions"`
	LocationID    string   `json:"locationId,omitempty"`
	Status        string   `json:"status,omitempty"`
	MaxDistanceKM *float64 `json:"maxDistance,omitempty"`
	Limit         int      `json:"limit,omitempty"`
}

type MatchResponse struct {
	Results []domain.TrialMatch `json:"results"`
	Source  string              `json:"source"`
}

// MatchService matches patient criteria to trials: graph index first, live
// origin fetch when the graph has nothing, repopulating cache and graph
// from whatever the origin returns.
type MatchService interface {
	Match(ctx context.Context, req MatchRequest) (*MatchResponse, error)
}

type matchService struct {
	graph     GraphMatcher
	origin    ctgov.Client
	cache     CacheWriter
	projector TrialProjector
	log       *logger.Logger

	now func() time.Time
}

func NewMatchService(g GraphMatcher, origin ctgov.Client, cache CacheWriter, projector TrialProjector, baseLog *logger.Logger) MatchService {
	return &matchService{
		graph:     g,
		origin:    origin,
		cache:     cache,
		projector: projector,
		log:       baseLog.With("service", "MatchService"),
		now:       time.Now,
	}
}

const defaultMatchLimit = 20

// Match is a stateless pipeline: graph query, and only on an empty result
// an origin fetch with cache+projection of every returned record. Any
// non-empty graph answer wins outright, regardless of how it compares to
// the requested limit. Only an origin transport failure fails the call.
func (s *matchService) Match(ctx context.Context, req MatchRequest) (*MatchResponse, error) {
	if req.Status == "" {
		req.Status = domain.StatusRecruiting
	}
	if req.Limit <= 0 {
		req.Limit = defaultMatchLimit
	}

	if s.graph != nil && s.graph.Available() {
		matches, err := s.graph.FindMatchingTrials(ctx, graph.MatchQuery{
			Conditions:    req.Conditions,
			LocationID:    req.LocationID,
			Status:        req.Status,
			MaxDistanceKM: req.MaxDistanceKM,
			Limit:         req.Limit,
		})
		if err != nil {
			// The graph is a derived index; a failing index degrades to a
			// fallback fetch rather than failing the match.
			s.log.Warn("graph match query failed, falling back to origin", "error", err)
		} else if len(matches) > 0 {
			return &MatchResponse{Results: matches, Source: domain.SourceGraph}, nil
		}
	}

	result, err := s.origin.SearchStudies(ctx, ctgov.SearchQuery{
		Conditions: req.Conditions,
		Location:   req.LocationID,
		Status:     req.Status,
		PageSize:   req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("origin search: %w", err)
	}

	results := make([]domain.TrialMatch, 0, len(result.Studies))
	for _, study := range result.Studies {
		doc, err := domain.NewCacheDocument(study, s.now())
		if err != nil {
			s.log.Warn("skipping unidentifiable study", "error", err)
			continue
		}

		if s.cache != nil {
			if err := s.cache.Put(ctx, doc); err != nil {
				s.log.Warn("cache write failed for fallback record", "nct_id", doc.NCTID, "error", err)
			}
		}
		if s.projector != nil {
			s.projector.Project(ctx, doc)
		}

		// Fallback results are unscored: the graph never saw them.
		results = append(results, domain.TrialMatch{
			NCTID:  study.NCTID(),
			Title:  study.Title(),
			Status: study.Status(),
			Phase:  study.Phases(),
			Score:  0,
		})
	}

	return &MatchResponse{Results: results, Source: domain.SourceAPIFallback}, nil
}
