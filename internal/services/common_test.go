package services

import (
	"context"
	"testing"

	"github.com/clinect/clinect-backend/internal/clients/ctgov"
	"github.com/clinect/clinect-backend/internal/data/cache"
	"github.com/clinect/clinect-backend/internal/data/graph"
	"github.com/clinect/clinect-backend/internal/domain"
	"github.com/clinect/clinect-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func makeStudy(nctID, title, status string, conditions []string, locations []domain.StudyLocation) *domain.Study {
	return &domain.Study{
		ProtocolSection: domain.ProtocolSection{
			Identification:    domain.IdentificationModule{NCTID: nctID, BriefTitle: title},
			Status:            domain.StatusModule{OverallStatus: status},
			Conditions:        domain.ConditionsModule{Conditions: conditions},
			Design:            domain.DesignModule{Phases: []string{"PHASE2"}},
			ContactsLocations: domain.ContactsLocationsModule{Locations: locations},
		},
	}
}

// fakeMatcher is a scripted graph index.
type fakeMatcher struct {
	available bool
	matches   []domain.TrialMatch
	err       error

	calls   int
	lastQ   graph.MatchQuery
	queries []graph.MatchQuery
}

func (f *fakeMatcher) Available() bool { return f.available }

func (f *fakeMatcher) FindMatchingTrials(ctx context.Context, q graph.MatchQuery) ([]domain.TrialMatch, error) {
	f.calls++
	f.lastQ = q
	f.queries = append(f.queries, q)
	return f.matches, f.err
}

// fakeOrigin is a scripted registry client.
type fakeOrigin struct {
	searchResult *ctgov.SearchResult
	searchErr    error
	study        *domain.Study
	getErr       error

	searchCalls int
	lastSearch  ctgov.SearchQuery
	getCalls    int
	lastGet     string
}

func (f *fakeOrigin) SearchStudies(ctx context.Context, q ctgov.SearchQuery) (*ctgov.SearchResult, error) {
	f.searchCalls++
	f.lastSearch = q
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.searchResult != nil {
		return f.searchResult, nil
	}
	return &ctgov.SearchResult{}, nil
}

func (f *fakeOrigin) GetStudy(ctx context.Context, nctID string) (*domain.Study, error) {
	f.getCalls++
	f.lastGet = nctID
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.study, nil
}

// fakeCache records puts and serves scripted reads.
type fakeCache struct {
	putErr error
	puts   []*domain.CacheDocument

	getDoc *domain.CacheDocument
	getErr error

	docs    []*domain.CacheDocument
	docsErr error
}

func (f *fakeCache) Put(ctx context.Context, doc *domain.CacheDocument) error {
	f.puts = append(f.puts, doc)
	return f.putErr
}

func (f *fakeCache) Get(ctx context.Context, nctID string) (*domain.CacheDocument, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getDoc, nil
}

func (f *fakeCache) Search(ctx context.Context, q cache.SearchQuery) ([]*domain.CacheDocument, error) {
	return f.docs, f.docsErr
}

func (f *fakeCache) Stats(ctx context.Context) (domain.CacheStats, error) {
	return domain.CacheStats{Total: len(f.docs)}, nil
}

func (f *fakeCache) PurgeExpired(ctx context.Context) (int, error) { return 0, nil }

func (f *fakeCache) Documents(ctx context.Context) ([]*domain.CacheDocument, error) {
	return f.docs, f.docsErr
}

// fakeProjector records projected documents.
type fakeProjector struct {
	projected []*domain.CacheDocument
}

func (f *fakeProjector) Project(ctx context.Context, doc *domain.CacheDocument) {
	f.projected = append(f.projected, doc)
}

func (f *fakeProjector) SyncAll(ctx context.Context) (SyncStats, error) {
	return SyncStats{}, nil
}

// fakeGraphWriter records every mutation and fails where scripted.
type fakeGraphWriter struct {
	trialErr     error
	conditionErr error
	locationErr  error

	trials     []domain.TrialNode
	conditions []domain.ConditionNode
	locations  []domain.LocationNode
	treats     [][2]string
	locatedIn  [][2]string
}

func (f *fakeGraphWriter) UpsertTrial(ctx context.Context, t domain.TrialNode) error {
	if f.trialErr != nil {
		return f.trialErr
	}
	f.trials = append(f.trials, t)
	return nil
}

func (f *fakeGraphWriter) UpsertCondition(ctx context.Context, c domain.ConditionNode) error {
	if f.conditionErr != nil {
		return f.conditionErr
	}
	f.conditions = append(f.conditions, c)
	return nil
}

func (f *fakeGraphWriter) UpsertLocation(ctx context.Context, l domain.LocationNode) error {
	if f.locationErr != nil {
		return f.locationErr
	}
	f.locations = append(f.locations, l)
	return nil
}

func (f *fakeGraphWriter) LinkTrialCondition(ctx context.Context, nctID, conditionName string) error {
	f.treats = append(f.treats, [2]string{nctID, conditionName})
	return nil
}

func (f *fakeGraphWriter) LinkTrialLocation(ctx context.Context, nctID, locationID string) error {
	f.locatedIn = append(f.locatedIn, [2]string{nctID, locationID})
	return nil
}
