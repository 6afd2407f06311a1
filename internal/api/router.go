package api

import (
	"overgrown/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// WorldInterface defines the world methods used by the API layer.
// This interface enables mocking for tests without spinning up the full
// simulation loop. Keep this minimal - only include methods the API
// layer actually calls.
type WorldInterface interface {
	// Join registers a connection for a user; admission happens after
	// the join delay
	Join(connID, userID, name string)
	// Leave removes a connection (pending or admitted)
	Leave(connID string)
	// Move applies one movement intent for a connection
	Move(connID string, dx, dy float64)
	// SetColor changes the color of the user behind a connection
	SetColor(connID, color string)
	// GetStateJSON returns the current world snapshot as JSON (nil
	// once the world has stopped)
	GetStateJSON() []byte
	// GetStats returns simulation counters for the stats endpoint
	GetStats() game.Stats
}

// RouterConfig contains all dependencies needed to construct the HTTP
// router. This struct is designed for dependency injection and
// testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    World: mockWorld,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// World is the simulation the API reads from and feeds (required)
	World WorldInterface

	// Hub serves /ws. If nil the route is omitted, which keeps
	// NewRouter usable for pure HTTP handler tests.
	Hub *Hub

	// Sessions enables /api/login and /api/logout when set
	Sessions *SessionManager

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses
	// DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, uses the default development origins.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful
	// for benchmarks and quiet tests).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router
type routerHandlers struct {
	world       WorldInterface
	hub         *Hub
	rateLimiter *IPRateLimiter
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects beyond the
// rate limiter cleanup goroutine when one is created for you:
//   - No network listeners are opened
//   - No simulation state is touched
//
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	// CORS configuration
	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{
		world:       cfg.World,
		hub:         cfg.Hub,
		rateLimiter: rateLimiter,
	}

	r.Get("/healthz", h.handleHealthz)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)

		if cfg.Sessions != nil {
			r.Post("/login", cfg.Sessions.HandleLogin)
			r.Post("/logout", cfg.Sessions.HandleLogout)
		}
	})

	// WebSocket endpoint
	if cfg.Hub != nil {
		r.Get("/ws", cfg.Hub.HandleWebSocket)
	}

	return r
}
