package services

import (
	"context"
	"fmt"
	"time"

	"github.com/clinect/clinect-backend/internal/clients/ctgov"
	"github.com/clinect/clinect-backend/internal/data/cache"
	"github.com/clinect/clinect-backend/internal/domain"
	"github.com/clinect/clinect-backend/internal/platform/logger"
)

// TrialCache is the full cache surface the trial service administers.
type TrialCache interface {
	Put(ctx context.Context, doc *domain.CacheDocument) error
	Get(ctx context.Context, nctID string) (*domain.CacheDocument, error)
	Search(ctx context.Context, q cache.SearchQuery) ([]*domain.CacheDocument, error)
	Stats(ctx context.Context) (domain.CacheStats, error)
	PurgeExpired(ctx context.Context) (int, error)
}

type TrialSearchRequest struct {
	Condition string
	Location  string
	Status    string
	PageSize  int
	PageToken string
}

type TrialSearchResponse struct {
	Studies       []*domain.Study `json:"studies"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
	Cached        int             `json:"cached"`
	Skipped       int             `json:"skipped"`
}

type TrialDetail struct {
	Document  *domain.CacheDocument `json:"trial"`
	FromCache bool                  `json:"fromCache"`
}

// TrialService fronts the origin registry for direct search and detail
// lookups, opportunistically feeding cache and graph with everything it
// sees.
type TrialService interface {
	Search(ctx context.Context, req TrialSearchRequest) (*TrialSearchResponse, error)
	GetTrial(ctx context.Context, nctID string) (*TrialDetail, error)
	SearchCache(ctx context.Context, q cache.SearchQuery) ([]*domain.CacheDocument, error)
	CacheStats(ctx context.Context) (domain.CacheStats, error)
	PurgeExpired(ctx context.Context) (int, error)
}

type trialService struct {
	origin    ctgov.Client
	cache     TrialCache
	projector TrialProjector
	log       *logger.Logger

	now func() time.Time
}

func NewTrialService(origin ctgov.Client, cache TrialCache, projector TrialProjector, baseLog *logger.Logger) TrialService {
	return &trialService{
		origin:    origin,
		cache:     cache,
		projector: projector,
		log:       baseLog.With("service", "TrialService"),
		now:       time.Now,
	}
}

// Search queries the origin registry and caches every usable record on the
// way out. Cache or projection trouble reduces coverage, never the search
// result.
func (s *trialService) Search(ctx context.Context, req TrialSearchRequest) (*TrialSearchResponse, error) {
	var conditions []string
	if req.Condition != "" {
		conditions = []string{req.Condition}
	}

	result, err := s.origin.SearchStudies(ctx, ctgov.SearchQuery{
		Conditions: conditions,
		Location:   req.Location,
		Status:     req.Status,
		PageSize:   req.PageSize,
		PageToken:  req.PageToken,
	})
	if err != nil {
		return nil, fmt.Errorf("origin search: %w", err)
	}

	resp := &TrialSearchResponse{
		Studies:       result.Studies,
		NextPageToken: result.NextPageToken,
		Skipped:       result.Skipped,
	}
	for _, study := range result.Studies {
		doc, err := domain.NewCacheDocument(study, s.now())
		if err != nil {
			resp.Skipped++
			continue
		}
		if err := s.cache.Put(ctx, doc); err != nil {
			s.log.Warn("cache write failed during search", "nct_id", doc.NCTID, "error", err)
			continue
		}
		resp.Cached++
		if s.projector != nil {
			s.projector.Project(ctx, doc)
		}
	}
	return resp, nil
}

// GetTrial is a read-through: fresh cache document if present, otherwise a
// live origin fetch that refreshes cache and graph.
func (s *trialService) GetTrial(ctx context.Context, nctID string) (*TrialDetail, error) {
	doc, err := s.cache.Get(ctx, nctID)
	if err != nil {
		s.log.Warn("cache read failed, falling through to origin", "nct_id", nctID, "error", err)
	}
	if doc != nil {
		return &TrialDetail{Document: doc, FromCache: true}, nil
	}

	study, err := s.origin.GetStudy(ctx, nctID)
	if err != nil {
		return nil, err
	}

	doc, err = domain.NewCacheDocument(study, s.now())
	if err != nil {
		return nil, fmt.Errorf("origin record for %s: %w", nctID, err)
	}
	if err := s.cache.Put(ctx, doc); err != nil {
		s.log.Warn("cache write failed for trial detail", "nct_id", nctID, "error", err)
	}
	if s.projector != nil {
		s.projector.Project(ctx, doc)
	}
	return &TrialDetail{Document: doc, FromCache: false}, nil
}

func (s *trialService) SearchCache(ctx context.Context, q cache.SearchQuery) ([]*domain.CacheDocument, error) {
	return s.cache.Search(ctx, q)
}

func (s *trialService) CacheStats(ctx context.Context) (domain.CacheStats, error) {
	return s.cache.Stats(ctx)
}

func (s *trialService) PurgeExpired(ctx context.Context) (int, error) {
	return s.cache.PurgeExpired(ctx)
}
