package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/clinect/clinect-backend/internal/domain"
	"github.com/clinect/clinect-backend/internal/platform/logger"
)

// GraphWriter is the slice of graph mutations projection needs.
type GraphWriter interface {
	UpsertTrial(ctx context.Context, t domain.TrialNode) error
	UpsertCondition(ctx context.Context, c domain.ConditionNode) error
	UpsertLocation(ctx context.Context, l domain.LocationNode) error
	LinkTrialCondition(ctx context.Context, nctID, conditionName string) error
	LinkTrialLocation(ctx context.Context, nctID, locationID string) error
}

// DocumentSource lists cached trial documents for bulk re-projection.
type DocumentSource interface {
	Documents(ctx context.Context) ([]*domain.CacheDocument, error)
}

type SyncStats struct {
	Trials        int `json:"trials"`
	Conditions    int `json:"conditions"`
	Locations     int `json:"locations"`
	Relationships int `json:"relationships"`
	Errors        int `json:"errors"`
}

// TrialProjector mirrors cache documents into the graph. The graph is a
// derived index: Project never returns an error and never blocks the
// caching path that triggered it. Its projections are idempotent, so
// re-running over the same document is always safe.
type TrialProjector interface {
	Project(ctx context.Context, doc *domain.CacheDocument)
	SyncAll(ctx context.Context) (SyncStats, error)
}

type trialProjector struct {
	graph GraphWriter
	cache DocumentSource
	log   *logger.Logger
}

func NewTrialProjector(graph GraphWriter, cache DocumentSource, baseLog *logger.Logger) TrialProjector {
	return &trialProjector{
		graph: graph,
		cache: cache,
		log:   baseLog.With("service", "TrialProjector"),
	}
}

// Project upserts the document's trial, conditions and locations plus their
// edges. Every failure is logged and swallowed here; the cache stays the
// source of truth for "have we seen this trial" even when the graph lags.
func (p *trialProjector) Project(ctx context.Context, doc *domain.CacheDocument) {
	if doc == nil || p.graph == nil {
		return
	}
	stats := SyncStats{}
	if err := p.project(ctx, doc, &stats); err != nil {
		p.log.Warn("graph projection failed", "nct_id", doc.NCTID, "error", err)
		return
	}
	if stats.Errors > 0 {
		p.log.Warn("graph projection partially failed",
			"nct_id", doc.NCTID, "errors", stats.Errors)
	}
}

// SyncAll re-projects every cached document; used by the resync CLI after
// graph loss or schema changes.
func (p *trialProjector) SyncAll(ctx context.Context) (SyncStats, error) {
	stats := SyncStats{}
	if p.graph == nil {
		return stats, fmt.Errorf("graph store not configured")
	}

	docs, err := p.cache.Documents(ctx)
	if err != nil {
		return stats, fmt.Errorf("list cache documents: %w", err)
	}

	for _, doc := range docs {
		if err := p.project(ctx, doc, &stats); err != nil {
			p.log.Warn("skipping document during resync", "nct_id", doc.NCTID, "error", err)
			stats.Errors++
		}
	}
	return stats, nil
}

func (p *trialProjector) project(ctx context.Context, doc *domain.CacheDocument, stats *SyncStats) error {
	if doc.NCTID == "" {
		return domain.ErrMissingIdentifier
	}

	// The searchable fields lack the title; recover it from the raw record.
	title := ""
	if len(doc.Record) > 0 {
		var study domain.Study
		if err := json.Unmarshal(doc.Record, &study); err == nil {
			title = study.Title()
		}
	}

	if err := p.graph.UpsertTrial(ctx, domain.TrialNode{
		NCTID:  doc.NCTID,
		Title:  title,
		Status: doc.Searchable.Status,
		Phase:  doc.Searchable.Phase,
	}); err != nil {
		return fmt.Errorf("upsert trial: %w", err)
	}
	stats.Trials++

	for _, name := range doc.Searchable.Conditions {
		if name == "" {
			continue
		}
		if err := p.graph.UpsertCondition(ctx, domain.ConditionNode{Name: name}); err != nil {
			p.log.Warn("condition upsert failed", "nct_id", doc.NCTID, "condition", name, "error", err)
			stats.Errors++
			continue
		}
		stats.Conditions++
		if err := p.graph.LinkTrialCondition(ctx, doc.NCTID, name); err != nil {
			p.log.Warn("treats edge failed", "nct_id", doc.NCTID, "condition", name, "error", err)
			stats.Errors++
			continue
		}
		stats.Relationships++
	}

	for _, locationID := range doc.Searchable.Locations {
		node, ok := domain.ParseLocationID(locationID)
		if !ok {
			continue
		}
		if err := p.graph.UpsertLocation(ctx, node); err != nil {
			p.log.Warn("location upsert failed", "nct_id", doc.NCTID, "location", locationID, "error", err)
			stats.Errors++
			continue
		}
		stats.Locations++
		if err := p.graph.LinkTrialLocation(ctx, doc.NCTID, locationID); err != nil {
			p.log.Warn("located_in edge failed", "nct_id", doc.NCTID, "location", locationID, "error", err)
			stats.Errors++
			continue
		}
		stats.Relationships++
	}

	return nil
}
