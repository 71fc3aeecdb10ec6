package app

import (
	httpServer "github.com/clinect/clinect-backend/internal/http"
	httpH "github.com/clinect/clinect-backend/internal/http/handlers"
	"github.com/clinect/clinect-backend/internal/platform/logger"
)

type Handlers struct {
	Trial  *httpH.TrialHandler
	Match  *httpH.MatchHandler
	Graph  *httpH.GraphHandler
	Cache  *httpH.CacheHandler
	Health *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Trial:  httpH.NewTrialHandler(serviceset.Trials, serviceset.Insights),
		Match:  httpH.NewMatchHandler(serviceset.Match),
		Graph:  httpH.NewGraphHandler(serviceset.Insights, serviceset.PatientSync),
		Cache:  httpH.NewCacheHandler(serviceset.Trials),
		Health: httpH.NewHealthHandler(),
	}
}

func wireServer(log *logger.Logger, handlerset Handlers) *httpServer.Server {
	return httpServer.NewServer(httpServer.RouterConfig{
		Log:           log,
		TrialHandler:  handlerset.Trial,
		MatchHandler:  handlerset.Match,
		GraphHandler:  handlerset.Graph,
		CacheHandler:  handlerset.Cache,
		HealthHandler: handlerset.Health,
	})
}
