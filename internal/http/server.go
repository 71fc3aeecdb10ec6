package http

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Server wraps the gin engine in a net/http server so the app can stop
// accepting connections and drain in-flight requests on shutdown.
type Server struct {
	srv *http.Server
}

func NewServer(cfg RouterConfig) *Server {
	return &Server{
		srv: &http.Server{
			Handler:           NewRouter(cfg),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the underlying router, mainly for tests.
func (s *Server) Handler() http.Handler {
	if s == nil || s.srv == nil {
		return nil
	}
	return s.srv.Handler
}

func (s *Server) Run(address string) error {
	if s == nil || s.srv == nil {
		return errors.New("server not initialized")
	}
	s.srv.Addr = address
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
