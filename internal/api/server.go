package api

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Server is the HTTP API server with WebSocket support. It combines
// the router, the connection hub and the shared rate limiter.
type Server struct {
	router      *chi.Mux
	hub         *Hub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
}

// ServerConfig carries the wiring for NewServer
type ServerConfig struct {
	World       WorldInterface
	Hub         *Hub
	Sessions    *SessionManager
	CORSOrigins []string
}

// NewServer creates the API server.
//
// IMPORTANT: no listener is opened until Start() is called, so tests
// can construct the server and use Router() with httptest.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		hub:         cfg.Hub,
		rateLimiter: NewIPRateLimiter(DefaultRateLimitConfig),
	}

	s.router = NewRouter(RouterConfig{
		World:       cfg.World,
		Hub:         cfg.Hub,
		Sessions:    cfg.Sessions,
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.CORSOrigins,
	})

	return s
}

// Start opens the listener and serves until Shutdown or failure.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🌱 WebSocket endpoint: ws://localhost%s/ws", addr)

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Router returns the HTTP handler for use with httptest.
//
// Example:
//
//	server := api.NewServer(cfg)
//	ts := httptest.NewServer(server.Router())
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/state")
func (s *Server) Router() http.Handler {
	return s.router
}

// Shutdown drains in-flight requests and stops background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
