package app

import (
	"context"
	"fmt"
	"time"

	"github.com/clinect/clinect-backend/internal/clients/ctgov"
	"github.com/clinect/clinect-backend/internal/data/cache"
	"github.com/clinect/clinect-backend/internal/data/graph"
	"github.com/clinect/clinect-backend/internal/platform/logger"
	"github.com/clinect/clinect-backend/internal/platform/neo4jdb"
)

type Clients struct {
	Cache  *cache.Store
	Graph  *graph.Store
	Neo4j  *neo4jdb.Client
	Origin ctgov.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	cacheStore, err := cache.NewStore(log, cfg.CacheExpiry)
	if err != nil {
		return Clients{}, fmt.Errorf("init trial cache: %w", err)
	}

	// Neo4j is optional: without it the graph store reports unavailable
	// and every lookup falls through to the origin registry.
	neo, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		log.Warn("Neo4j init failed, graph queries disabled", "error", err)
		neo = nil
	}
	graphStore := graph.NewStore(neo, log)
	if graphStore.Available() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		graphStore.EnsureSchema(ctx)
		cancel()
	}

	origin, err := ctgov.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init origin client: %w", err)
	}

	return Clients{
		Cache:  cacheStore,
		Graph:  graphStore,
		Neo4j:  neo,
		Origin: origin,
	}, nil
}

func (c Clients) Close(ctx context.Context) {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.Neo4j != nil {
		c.Neo4j.Close(ctx)
	}
}
