package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/clinect/clinect-backend/internal/clients/ctgov"
	"github.com/clinect/clinect-backend/internal/domain"
)

func TestMatch_GraphHitSkipsOrigin(t *testing.T) {
	matcher := &fakeMatcher{
		available: true,
		matches: []domain.TrialMatch{
			{NCTID: "NCT001", Title: "Metformin Study", Status: domain.StatusRecruiting, Score: 20},
		},
	}
	origin := &fakeOrigin{}
	svc := NewMatchService(matcher, origin, &fakeCache{}, &fakeProjector{}, testLogger(t))

	res, err := svc.Match(context.Background(), MatchRequest{Conditions: []string{"Type 2 Diabetes"}})
	if err != nil {
		t.Fatalf("match: %v", err)
	}

	if res.Source != domain.SourceGraph {
		t.Fatalf("expected source %q, got %q", domain.SourceGraph, res.Source)
	}
	if len(res.Results) != 1 || res.Results[0].NCTID != "NCT001" || res.Results[0].Score != 20 {
		t.Fatalf("unexpected results: %+v", res.Results)
	}
	if origin.searchCalls != 0 {
		t.Fatalf("origin must not be called on a graph hit, got %d calls", origin.searchCalls)
	}
	if matcher.calls != 1 {
		t.Fatalf("expected exactly one graph query, got %d", matcher.calls)
	}
}

func TestMatch_DefaultsStatusAndLimit(t *testing.T) {
	matcher := &fakeMatcher{available: true, matches: []domain.TrialMatch{{NCTID: "NCT001", Score: 10}}}
	svc := NewMatchService(matcher, &fakeOrigin{}, &fakeCache{}, &fakeProjector{}, testLogger(t))

	if _, err := svc.Match(context.Background(), MatchRequest{Conditions: []string{"Asthma"}}); err != nil {
		t.Fatalf("match: %v", err)
	}
	if matcher.lastQ.Status != domain.StatusRecruiting {
		t.Fatalf("expected default status RECRUITING, got %q", matcher.lastQ.Status)
	}
	if matcher.lastQ.Limit != defaultMatchLimit {
		t.Fatalf("expected default limit %d, got %d", defaultMatchLimit, matcher.lastQ.Limit)
	}
}

func TestMatch_EmptyGraphFallsBackToOrigin(t *testing.T) {
	matcher := &fakeMatcher{available: true}
	origin := &fakeOrigin{
		searchResult: &ctgov.SearchResult{
			Studies: []*domain.Study{
				makeStudy("NCT001", "Metformin Study", domain.StatusRecruiting, []string{"Type 2 Diabetes"}, nil),
				makeStudy("NCT002", "Insulin Study", domain.StatusRecruiting, []string{"Type 2 Diabetes"}, nil),
			},
		},
	}
	cacheW := &fakeCache{}
	projector := &fakeProjector{}
	svc := NewMatchService(matcher, origin, cacheW, projector, testLogger(t))

	res, err := svc.Match(context.Background(), MatchRequest{Conditions: []string{"diabetes"}})
	if err != nil {
		t.Fatalf("match: %v", err)
	}

	if res.Source != domain.SourceAPIFallback {
		t.Fatalf("expected source %q, got %q", domain.SourceAPIFallback, res.Source)
	}
	if len(res.Results) != 2 || res.Results[0].NCTID != "NCT001" || res.Results[1].NCTID != "NCT002" {
		t.Fatalf("unexpected results: %+v", res.Results)
	}
	for _, m := range res.Results {
		if m.Score != 0 {
			t.Fatalf("fallback results must be unscored, got %d for %s", m.Score, m.NCTID)
		}
	}
	if origin.searchCalls != 1 {
		t.Fatalf("expected exactly one origin call, got %d", origin.searchCalls)
	}
	// Every fallback record repopulates cache and graph.
	if len(cacheW.puts) != 2 {
		t.Fatalf("expected 2 cache writes, got %d", len(cacheW.puts))
	}
	if len(projector.projected) != 2 {
		t.Fatalf("expected 2 projections, got %d", len(projector.projected))
	}
}

func TestMatch_UnavailableGraphGoesStraightToOrigin(t *testing.T) {
	matcher := &fakeMatcher{available: false}
	origin := &fakeOrigin{}
	svc := NewMatchService(matcher, origin, &fakeCache{}, &fakeProjector{}, testLogger(t))

	res, err := svc.Match(context.Background(), MatchRequest{Conditions: []string{"Asthma"}})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if matcher.calls != 0 {
		t.Fatalf("unavailable graph must not be queried")
	}
	if origin.searchCalls != 1 {
		t.Fatalf("expected one origin call, got %d", origin.searchCalls)
	}
	if res.Source != domain.SourceAPIFallback {
		t.Fatalf("expected fallback source, got %q", res.Source)
	}
}

func TestMatch_GraphErrorDegradesToFallback(t *testing.T) {
	matcher := &fakeMatcher{available: true, err: errors.New("connection reset")}
	origin := &fakeOrigin{
		searchResult: &ctgov.SearchResult{
			Studies: []*domain.Study{makeStudy("NCT001", "T", domain.StatusRecruiting, nil, nil)},
		},
	}
	svc := NewMatchService(matcher, origin, &fakeCache{}, &fakeProjector{}, testLogger(t))

	res, err := svc.Match(context.Background(), MatchRequest{Conditions: []string{"Asthma"}})
	if err != nil {
		t.Fatalf("graph failure should not fail the match: %v", err)
	}
	if res.Source != domain.SourceAPIFallback || len(res.Results) != 1 {
		t.Fatalf("unexpected fallback response: %+v", res)
	}
}

func TestMatch_OriginTransportErrorIsFatal(t *testing.T) {
	matcher := &fakeMatcher{available: true}
	transportErr := &ctgov.TransportError{Op: "search", Status: 503, Err: errors.New("unavailable")}
	origin := &fakeOrigin{searchErr: transportErr}
	svc := NewMatchService(matcher, origin, &fakeCache{}, &fakeProjector{}, testLogger(t))

	_, err := svc.Match(context.Background(), MatchRequest{Conditions: []string{"Asthma"}})
	if err == nil {
		t.Fatalf("expected origin failure to fail the match")
	}
	var te *ctgov.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("transport error should be preserved in the chain, got %v", err)
	}
}

func TestMatch_FallbackSurvivesCacheFailures(t *testing.T) {
	matcher := &fakeMatcher{available: true}
	origin := &fakeOrigin{
		searchResult: &ctgov.SearchResult{
			Studies: []*domain.Study{makeStudy("NCT001", "T", domain.StatusRecruiting, nil, nil)},
		},
	}
	cacheW := &fakeCache{putErr: fmt.Errorf("redis down")}
	projector := &fakeProjector{}
	svc := NewMatchService(matcher, origin, cacheW, projector, testLogger(t))

	res, err := svc.Match(context.Background(), MatchRequest{Conditions: []string{"Asthma"}})
	if err != nil {
		t.Fatalf("cache failure should not fail the match: %v", err)
	}
	if len(res.Results) != 1 || res.Results[0].NCTID != "NCT001" {
		t.Fatalf("record must survive a failed cache write: %+v", res.Results)
	}
	// Projection still runs for the record whose cache write failed.
	if len(projector.projected) != 1 {
		t.Fatalf("expected projection despite cache failure, got %d", len(projector.projected))
	}
}

func TestMatch_FallbackSkipsUnidentifiableRecords(t *testing.T) {
	matcher := &fakeMatcher{available: true}
	origin := &fakeOrigin{
		searchResult: &ctgov.SearchResult{
			Studies: []*domain.Study{
				makeStudy("", "No ID", domain.StatusRecruiting, nil, nil),
				makeStudy("NCT002", "Two", domain.StatusRecruiting, nil, nil),
			},
		},
	}
	svc := NewMatchService(matcher, origin, &fakeCache{}, &fakeProjector{}, testLogger(t))

	res, err := svc.Match(context.Background(), MatchRequest{Conditions: []string{"Asthma"}})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(res.Results) != 1 || res.Results[0].NCTID != "NCT002" {
		t.Fatalf("unidentifiable record should be skipped, got %+v", res.Results)
	}
}

func TestMatch_ScenarioDiabetesFallback(t *testing.T) {
	// Empty graph, two recruiting diabetes trials at the origin: both come
	// back unscored with fallback provenance and land in cache and graph.
	matcher := &fakeMatcher{available: true}
	origin := &fakeOrigin{
		searchResult: &ctgov.SearchResult{
			Studies: []*domain.Study{
				makeStudy("NCT001", "Metformin in Early Type 2 Diabetes", domain.StatusRecruiting,
					[]string{"Type 2 Diabetes"},
					[]domain.StudyLocation{{City: "Boston", State: "MA"}}),
				makeStudy("NCT002", "GLP-1 Agonist Outcomes", domain.StatusRecruiting,
					[]string{"Type 2 Diabetes", "Obesity"},
					[]domain.StudyLocation{{City: "Chicago", State: "IL"}}),
			},
		},
	}
	cacheW := &fakeCache{}
	projector := &fakeProjector{}
	svc := NewMatchService(matcher, origin, cacheW, projector, testLogger(t))

	res, err := svc.Match(context.Background(), MatchRequest{Conditions: []string{"diabetes"}})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.Source != domain.SourceAPIFallback {
		t.Fatalf("expected api_fallback provenance, got %q", res.Source)
	}
	if len(res.Results) != 2 {
		t.Fatalf("expected both trials, got %+v", res.Results)
	}
	if res.Results[0].Score != 0 || res.Results[1].Score != 0 {
		t.Fatalf("fallback scores must be zero: %+v", res.Results)
	}
	if len(cacheW.puts) != 2 || len(projector.projected) != 2 {
		t.Fatalf("both trials must repopulate cache and graph")
	}
	if origin.lastSearch.Status != domain.StatusRecruiting {
		t.Fatalf("fallback search should carry the status filter, got %q", origin.lastSearch.Status)
	}
}

func TestMatch_ScenarioGraphScore(t *testing.T) {
	// A projected trial treating two of the requested conditions scores 20
	// and is served from the graph without touching the origin.
	matcher := &fakeMatcher{
		available: true,
		matches: []domain.TrialMatch{
			{NCTID: "NCT001", Title: "Metformin in Early Type 2 Diabetes", Status: domain.StatusRecruiting, Score: 20},
		},
	}
	origin := &fakeOrigin{}
	svc := NewMatchService(matcher, origin, &fakeCache{}, &fakeProjector{}, testLogger(t))

	res, err := svc.Match(context.Background(), MatchRequest{
		Conditions: []string{"Type 2 Diabetes", "Obesity"},
	})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.Source != domain.SourceGraph {
		t.Fatalf("expected graph provenance, got %q", res.Source)
	}
	if res.Results[0].Score != 20 {
		t.Fatalf("expected score 20, got %d", res.Results[0].Score)
	}
	if origin.searchCalls != 0 {
		t.Fatalf("origin must stay untouched on a graph hit")
	}
}
