package ctgov

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clinect/clinect-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("CTGOV_BASE_URL", srv.URL)
	t.Setenv("CTGOV_MAX_RETRIES", "0")

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	c, err := NewClient(log)
	if err != nil {
		t.Fatalf("init client: %v", err)
	}
	return c
}

func TestBuildQueryTerm(t *testing.T) {
	cases := []struct {
		name string
		q    SearchQuery
		want string
	}{
		{
			name: "single condition",
			q:    SearchQuery{Conditions: []string{"Asthma"}},
			want: "AREA[ConditionSearch]Asthma",
		},
		{
			name: "conditions are OR-combined",
			q:    SearchQuery{Conditions: []string{"Asthma", "COPD"}},
			want: "AREA[ConditionSearch](Asthma OR COPD)",
		},
		{
			name: "filters are AND-combined",
			q:    SearchQuery{Conditions: []string{"Asthma"}, Location: "Boston", Status: "RECRUITING"},
			want: "AREA[ConditionSearch]Asthma AND AREA[LocationSearch]Boston AND AREA[RecruitmentStatus]RECRUITING",
		},
		{
			name: "blank conditions are dropped",
			q:    SearchQuery{Conditions: []string{" ", "Asthma", ""}},
			want: "AREA[ConditionSearch]Asthma",
		},
		{
			name: "empty query",
			q:    SearchQuery{},
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := buildQueryTerm(tc.q); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestSearchStudies_ParsesPageAndSkipsMissingIDs(t *testing.T) {
	var gotTerm, gotPageSize string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/studies" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotTerm = r.URL.Query().Get("query.term")
		gotPageSize = r.URL.Query().Get("pageSize")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"studies": [
				{"protocolSection":{"identificationModule":{"nctId":"NCT001","briefTitle":"One"},"statusModule":{"overallStatus":"RECRUITING"}}},
				{"protocolSection":{"identificationModule":{"briefTitle":"No ID"}}},
				{"protocolSection":{"identificationModule":{"nctId":"NCT002","briefTitle":"Two"}}}
			],
			"nextPageToken": "tok123"
		}`))
	}))

	res, err := c.SearchStudies(context.Background(), SearchQuery{
		Conditions: []string{"Asthma"},
		Status:     "RECRUITING",
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if gotTerm != "AREA[ConditionSearch]Asthma AND AREA[RecruitmentStatus]RECRUITING" {
		t.Fatalf("unexpected query term %q", gotTerm)
	}
	if gotPageSize != "20" {
		t.Fatalf("expected default page size 20, got %q", gotPageSize)
	}
	if len(res.Studies) != 2 {
		t.Fatalf("expected 2 studies, got %d", len(res.Studies))
	}
	if res.Skipped != 1 {
		t.Fatalf("expected 1 skipped record, got %d", res.Skipped)
	}
	if res.NextPageToken != "tok123" {
		t.Fatalf("unexpected next page token %q", res.NextPageToken)
	}
	if res.Studies[0].NCTID() != "NCT001" || res.Studies[1].NCTID() != "NCT002" {
		t.Fatalf("unexpected study ids")
	}
	if len(res.Studies[0].Raw) == 0 {
		t.Fatalf("raw payload should be retained")
	}
}

func TestSearchStudies_PageTokenForwarded(t *testing.T) {
	var gotToken string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("pageToken")
		_, _ = w.Write([]byte(`{"studies":[]}`))
	}))

	if _, err := c.SearchStudies(context.Background(), SearchQuery{PageToken: "next"}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotToken != "next" {
		t.Fatalf("expected pageToken forwarded, got %q", gotToken)
	}
}

func TestSearchStudies_ServerErrorIsTransportError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := c.SearchStudies(context.Background(), SearchQuery{})
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.Status != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", te.Status)
	}
}

func TestGetStudy_FetchesSingleRecord(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/studies/NCT001" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"protocolSection":{"identificationModule":{"nctId":"NCT001","briefTitle":"One"}}}`))
	}))

	study, err := c.GetStudy(context.Background(), "NCT001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if study.NCTID() != "NCT001" || study.Title() != "One" {
		t.Fatalf("unexpected study %+v", study)
	}
}

func TestGetStudy_NotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := c.GetStudy(context.Background(), "NCT404")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetStudy_MissingIDIsTransportError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"protocolSection":{"identificationModule":{"briefTitle":"No ID"}}}`))
	}))

	_, err := c.GetStudy(context.Background(), "NCT001")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestSearchStudies_RetriesOnServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"studies":[]}`))
	}))
	t.Cleanup(srv.Close)

	t.Setenv("CTGOV_BASE_URL", srv.URL)
	t.Setenv("CTGOV_MAX_RETRIES", "1")

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	c, err := NewClient(log)
	if err != nil {
		t.Fatalf("init client: %v", err)
	}

	if _, err := c.SearchStudies(context.Background(), SearchQuery{}); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}
