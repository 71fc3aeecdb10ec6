package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/clinect/clinect-backend/internal/domain"
	"github.com/clinect/clinect-backend/internal/platform/apierr"
	"github.com/clinect/clinect-backend/internal/platform/logger"
)

// GraphReader is the query surface the insight endpoints expose.
type GraphReader interface {
	Available() bool
	FindRelatedTrials(ctx context.Context, nctID string, limit int) ([]domain.RelatedTrial, error)
	PatientRecommendations(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Recommendation, error)
	ConditionHierarchy(ctx context.Context, name string) (domain.ConditionHierarchy, error)
	LinkConditionParent(ctx context.Context, childName, parentName string) error
	Stats(ctx context.Context) (domain.GraphStats, error)
}

// InsightsService exposes the relationship queries built on the trial
// graph: related trials, patient recommendations and the condition
// hierarchy.
type InsightsService interface {
	RelatedTrials(ctx context.Context, nctID string, limit int) ([]domain.RelatedTrial, error)
	Recommendations(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Recommendation, error)
	Hierarchy(ctx context.Context, name string) (domain.ConditionHierarchy, error)
	LinkHierarchy(ctx context.Context, childName, parentName string) error
	GraphStats(ctx context.Context) (domain.GraphStats, error)
}

type insightsService struct {
	graph GraphReader
	log   *logger.Logger
}

func NewInsightsService(graph GraphReader, baseLog *logger.Logger) InsightsService {
	return &insightsService{
		graph: graph,
		log:   baseLog.With("service", "InsightsService"),
	}
}

func (s *insightsService) available() error {
	if s.graph == nil || !s.graph.Available() {
		return apierr.New(http.StatusServiceUnavailable, "graph_unavailable", fmt.Errorf("graph store not configured"))
	}
	return nil
}

func (s *insightsService) RelatedTrials(ctx context.Context, nctID string, limit int) ([]domain.RelatedTrial, error) {
	if err := s.available(); err != nil {
		return nil, err
	}
	nctID = strings.TrimSpace(nctID)
	if nctID == "" {
		return nil, apierr.New(http.StatusBadRequest, "missing_nct_id", fmt.Errorf("nct id required"))
	}
	return s.graph.FindRelatedTrials(ctx, nctID, limit)
}

func (s *insightsService) Recommendations(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Recommendation, error) {
	if err := s.available(); err != nil {
		return nil, err
	}
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, "missing_user_id", fmt.Errorf("user id required"))
	}
	return s.graph.PatientRecommendations(ctx, userID, limit)
}

func (s *insightsService) Hierarchy(ctx context.Context, name string) (domain.ConditionHierarchy, error) {
	if err := s.available(); err != nil {
		return domain.ConditionHierarchy{}, err
	}
	if strings.TrimSpace(name) == "" {
		return domain.ConditionHierarchy{}, apierr.New(http.StatusBadRequest, "missing_condition", fmt.Errorf("condition name required"))
	}
	return s.graph.ConditionHierarchy(ctx, name)
}

func (s *insightsService) LinkHierarchy(ctx context.Context, childName, parentName string) error {
	if err := s.available(); err != nil {
		return err
	}
	if strings.TrimSpace(childName) == "" || strings.TrimSpace(parentName) == "" {
		return apierr.New(http.StatusBadRequest, "missing_condition", fmt.Errorf("child and parent names required"))
	}
	return s.graph.LinkConditionParent(ctx, childName, parentName)
}

func (s *insightsService) GraphStats(ctx context.Context) (domain.GraphStats, error) {
	if err := s.available(); err != nil {
		return domain.GraphStats{}, err
	}
	return s.graph.Stats(ctx)
}
