package ctgov

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/clinect/clinect-backend/internal/domain"
	"github.com/clinect/clinect-backend/internal/pkg/httpx"
	"github.com/clinect/clinect-backend/internal/platform/logger"
)

// ErrNotFound is returned by GetStudy when the registry has no record for
// the requested NCT id.
var ErrNotFound = errors.New("ctgov: study not found")

// TransportError wraps any network/HTTP/parse failure talking to the
// registry. Callers treat it as fatal for the operation; no partial data is
// synthesized around it.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("ctgov %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("ctgov %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SearchQuery describes one registry search. Conditions are OR-combined
// into a single term; the filters are AND-combined.
type SearchQuery struct {
	Conditions []string
	Location   string
	Status     string
	PageSize   int
	PageToken  string
}

// SearchResult carries the parsed page. Records without an NCT id are a
// data-quality problem on the registry side: they are skipped and counted,
// never fatal to the batch.
type SearchResult struct {
	Studies       []*domain.Study
	NextPageToken string
	Skipped       int
}

// Client is the origin-registry collaborator: search plus single-record
// fetch, nothing more.
type Client interface {
	SearchStudies(ctx context.Context, q SearchQuery) (*SearchResult, error)
	GetStudy(ctx context.Context, nctID string) (*domain.Study, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

const (
	defaultBaseURL  = "https://clinicaltrials.gov/api/v2"
	defaultTimeout  = 10 * time.Second
	defaultPageSize = 20
)

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("ctgov: logger required")
	}

	baseURL := strings.TrimSpace(os.Getenv("CTGOV_BASE_URL"))
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := defaultTimeout
	if v := strings.TrimSpace(os.Getenv("CTGOV_TIMEOUT_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}

	maxRetries := 2
	if v := strings.TrimSpace(os.Getenv("CTGOV_MAX_RETRIES")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:        log.With("client", "CTGov"),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}, nil
}

func (c *client) SearchStudies(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("pageSize", strconv.Itoa(pageSize))
	if term := buildQueryTerm(q); term != "" {
		params.Set("query.term", term)
	}
	if q.PageToken != "" {
		params.Set("pageToken", q.PageToken)
	}

	body, err := c.doGET(ctx, "search", c.baseURL+"/studies?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var page struct {
		Studies       []json.RawMessage `json:"studies"`
		NextPageToken string            `json:"nextPageToken"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &TransportError{Op: "search", Err: fmt.Errorf("decode page: %w", err)}
	}

	result := &SearchResult{NextPageToken: page.NextPageToken}
	for _, raw := range page.Studies {
		study, err := parseStudy(raw)
		if err != nil {
			result.Skipped++
			c.log.Warn("skipping malformed study record", "error", err)
			continue
		}
		result.Studies = append(result.Studies, study)
	}
	return result, nil
}

func (c *client) GetStudy(ctx context.Context, nctID string) (*domain.Study, error) {
	nctID = strings.TrimSpace(nctID)
	if nctID == "" {
		return nil, &TransportError{Op: "get", Err: fmt.Errorf("empty nct id")}
	}

	body, err := c.doGET(ctx, "get", c.baseURL+"/studies/"+url.PathEscape(nctID)+"?format=json")
	if err != nil {
		return nil, err
	}

	study, err := parseStudy(body)
	if err != nil {
		return nil, &TransportError{Op: "get", Err: err}
	}
	return study, nil
}

func parseStudy(raw json.RawMessage) (*domain.Study, error) {
	var study domain.Study
	if err := json.Unmarshal(raw, &study); err != nil {
		return nil, fmt.Errorf("decode study: %w", err)
	}
	if strings.TrimSpace(study.NCTID()) == "" {
		return nil, domain.ErrMissingIdentifier
	}
	study.Raw = append(json.RawMessage(nil), raw...)
	return &study, nil
}

func buildQueryTerm(q SearchQuery) string {
	var parts []string

	conds := make([]string, 0, len(q.Conditions))
	for _, cond := range q.Conditions {
		if cond = strings.TrimSpace(cond); cond != "" {
			conds = append(conds, cond)
		}
	}
	switch len(conds) {
	case 0:
	case 1:
		parts = append(parts, "AREA[ConditionSearch]"+conds[0])
	default:
		parts = append(parts, "AREA[ConditionSearch]("+strings.Join(conds, " OR ")+")")
	}

	if loc := strings.TrimSpace(q.Location); loc != "" {
		parts = append(parts, "AREA[LocationSearch]"+loc)
	}
	if status := strings.TrimSpace(q.Status); status != "" {
		parts = append(parts, "AREA[RecruitmentStatus]"+status)
	}
	return strings.Join(parts, " AND ")
}

func (c *client) doGET(ctx context.Context, op, rawURL string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, &TransportError{Op: op, Err: err}
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt < c.maxRetries && httpx.IsRetryableError(err) && ctx.Err() == nil {
				time.Sleep(httpx.JitterSleep(500 * time.Millisecond))
				continue
			}
			return nil, &TransportError{Op: op, Err: err}
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			if attempt < c.maxRetries && httpx.IsRetryableHTTPStatus(resp.StatusCode) && ctx.Err() == nil {
				time.Sleep(httpx.RetryAfterDuration(resp, httpx.JitterSleep(500*time.Millisecond), 5*time.Second))
				continue
			}
			return nil, &TransportError{Op: op, Status: resp.StatusCode, Err: lastErr}
		}
		if readErr != nil {
			return nil, &TransportError{Op: op, Err: fmt.Errorf("read body: %w", readErr)}
		}
		return body, nil
	}
	return nil, &TransportError{Op: op, Err: lastErr}
}
