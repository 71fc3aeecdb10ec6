package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/clinect/clinect-backend/internal/domain"
	"github.com/clinect/clinect-backend/internal/platform/logger"
)

const (
	docKeyPrefix = "trials:cache:doc:"
	indexKey     = "trials:cache:ids"

	// DefaultExpiry is the cache window: a document older than this is
	// logically absent and removed on the next read.
	DefaultExpiry = 7 * 24 * time.Hour
)

// SearchQuery filters cached documents. Empty fields are wildcards.
// Condition and Location match case-insensitively as substrings; Status
// matches exactly.
type SearchQuery struct {
	Condition string
	Location  string
	Status    string
	Limit     int
}

// Store is the trial document cache keyed by NCT id. Expiry is lazy: stale
// entries are dropped when read, no background sweeper is required.
type Store struct {
	rdb    *goredis.Client
	log    *logger.Logger
	expiry time.Duration

	now func() time.Time
}

// NewStore connects to redis from env (REDIS_ADDR, optional REDIS_PASSWORD
// and REDIS_DB) and verifies the connection.
func NewStore(log *logger.Logger, expiry time.Duration) (*Store, error) {
	if log == nil {
		return nil, fmt.Errorf("trial cache: logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("trial cache: missing REDIS_ADDR")
	}

	db := 0
	if v := strings.TrimSpace(os.Getenv("REDIS_DB")); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &db); err != nil {
			return nil, fmt.Errorf("trial cache: bad REDIS_DB %q", v)
		}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("trial cache: redis ping: %w", err)
	}

	return NewStoreWithClient(rdb, log, expiry), nil
}

// NewStoreWithClient wraps an existing redis client; used by tests and by
// callers sharing one connection pool.
func NewStoreWithClient(rdb *goredis.Client, log *logger.Logger, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{
		rdb:    rdb,
		log:    log.With("store", "TrialCache"),
		expiry: expiry,
		now:    time.Now,
	}
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// Put upserts the document under its NCT id and stamps CachedAt. A document
// without an identifier is rejected with domain.ErrMissingIdentifier; it is
// the caller's decision whether that skips or aborts.
func (s *Store) Put(ctx context.Context, doc *domain.CacheDocument) error {
	if doc == nil || strings.TrimSpace(doc.NCTID) == "" {
		return domain.ErrMissingIdentifier
	}

	stamped := *doc
	stamped.CachedAt = s.now().UTC()

	raw, err := json.Marshal(&stamped)
	if err != nil {
		return fmt.Errorf("trial cache: marshal %s: %w", doc.NCTID, err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, docKeyPrefix+doc.NCTID, raw, 0)
	pipe.SAdd(ctx, indexKey, doc.NCTID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("trial cache: put %s: %w", doc.NCTID, err)
	}

	doc.CachedAt = stamped.CachedAt
	return nil
}

// Get returns the document if present and fresh. An expired document is
// deleted as a side effect and reported as a miss (nil, nil).
func (s *Store) Get(ctx context.Context, nctID string) (*domain.CacheDocument, error) {
	nctID = strings.TrimSpace(nctID)
	if nctID == "" {
		return nil, nil
	}

	raw, err := s.rdb.Get(ctx, docKeyPrefix+nctID).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("trial cache: get %s: %w", nctID, err)
	}

	var doc domain.CacheDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		// Unreadable entry: drop it rather than serve garbage forever.
		s.log.Warn("dropping corrupt cache document", "nct_id", nctID, "error", err)
		s.remove(ctx, nctID)
		return nil, nil
	}

	if doc.Expired(s.now(), s.expiry) {
		s.remove(ctx, nctID)
		return nil, nil
	}
	return &doc, nil
}

// Search scans non-expired documents and applies the query filters. Results
// follow storage order (sorted ids); no relevance ranking here, that is the
// graph's job.
func (s *Store) Search(ctx context.Context, q SearchQuery) ([]*domain.CacheDocument, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	docs, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	cond := strings.ToLower(strings.TrimSpace(q.Condition))
	loc := strings.ToLower(strings.TrimSpace(q.Location))
	status := strings.TrimSpace(q.Status)

	out := make([]*domain.CacheDocument, 0, limit)
	for _, doc := range docs {
		if doc.Expired(s.now(), s.expiry) {
			continue
		}
		if cond != "" && !containsFold(doc.Searchable.Conditions, cond) {
			continue
		}
		if loc != "" && !containsFold(doc.Searchable.Locations, loc) {
			continue
		}
		if status != "" && doc.Searchable.Status != status {
			continue
		}
		out = append(out, doc)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Stats counts total, fresh and stale documents without mutating the cache.
func (s *Store) Stats(ctx context.Context) (domain.CacheStats, error) {
	docs, err := s.loadAll(ctx)
	if err != nil {
		return domain.CacheStats{}, err
	}

	stats := domain.CacheStats{Total: len(docs)}
	now := s.now()
	for _, doc := range docs {
		if doc.Expired(now, s.expiry) {
			stats.Expired++
		} else {
			stats.Valid++
		}
	}
	return stats, nil
}

// PurgeExpired removes every stale document. Optional housekeeping; lazy
// expiry alone keeps reads correct.
func (s *Store) PurgeExpired(ctx context.Context) (int, error) {
	docs, err := s.loadAll(ctx)
	if err != nil {
		return 0, err
	}

	purged := 0
	now := s.now()
	for _, doc := range docs {
		if doc.Expired(now, s.expiry) {
			s.remove(ctx, doc.NCTID)
			purged++
		}
	}
	return purged, nil
}

// Clear drops every cached document.
func (s *Store) Clear(ctx context.Context) (int, error) {
	ids, err := s.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("trial cache: clear: %w", err)
	}
	for _, id := range ids {
		s.remove(ctx, id)
	}
	return len(ids), nil
}

// Documents iterates all parseable documents regardless of freshness; the
// bulk graph resync uses it.
func (s *Store) Documents(ctx context.Context) ([]*domain.CacheDocument, error) {
	return s.loadAll(ctx)
}

func (s *Store) loadAll(ctx context.Context) ([]*domain.CacheDocument, error) {
	ids, err := s.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("trial cache: list ids: %w", err)
	}
	sort.Strings(ids)

	docs := make([]*domain.CacheDocument, 0, len(ids))
	for _, id := range ids {
		raw, err := s.rdb.Get(ctx, docKeyPrefix+id).Bytes()
		if err == goredis.Nil {
			// Dangling index entry.
			s.rdb.SRem(ctx, indexKey, id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("trial cache: load %s: %w", id, err)
		}
		var doc domain.CacheDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			s.log.Warn("dropping corrupt cache document", "nct_id", id, "error", err)
			s.remove(ctx, id)
			continue
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}

func (s *Store) remove(ctx context.Context, nctID string) {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, docKeyPrefix+nctID)
	pipe.SRem(ctx, indexKey, nctID)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn("failed to remove cache document", "nct_id", nctID, "error", err)
	}
}

func containsFold(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}
