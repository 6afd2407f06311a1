package api

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"overgrown/internal/game"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality (no per-player or per-user labels).
var (
	// Simulation metrics
	enemyTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "overgrown_enemy_tick_duration_seconds",
		Help:    "Time spent in one enemy tick pass",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
	})

	activePlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "overgrown_players",
		Help: "Players currently admitted to the field",
	})

	broadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "overgrown_broadcasts_total",
		Help: "World snapshots fanned out to clients",
	})

	grassCollectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "overgrown_grass_collected_total",
		Help: "Grass items collected by players",
	})

	enemyHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "overgrown_enemy_hits_total",
		Help: "Players caught by enemies",
	})

	// Connection metrics - reason label is bounded:
	// "ws_total_limit", "ws_ip_limit", "origin", "auth", "rate_limit"
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "overgrown_connection_rejected_total",
		Help: "Connections rejected before reaching the world",
	}, []string{"reason"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "overgrown_websocket_connections_active",
		Help: "Currently open WebSocket connections",
	})

	wsFramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "overgrown_websocket_frames_dropped_total",
		Help: "Outbound frames skipped because a client send buffer was full",
	})
)

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled    bool
	ListenAddr string // MUST stay on localhost in production
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060", // Localhost only - NEVER expose externally
	}
}

// StartDebugServer starts the internal observability server.
// CRITICAL: this must bind to localhost only; pprof on a public
// interface is a denial-of-service handle.
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Println("⚠️ Debug server forced to localhost for security")
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		log.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)

		if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return nil
}

// MetricsHooks returns world callbacks that feed the Prometheus
// collectors above. All callbacks run on the world goroutine, so they
// only touch lock-free prometheus primitives.
func MetricsHooks() game.Hooks {
	return game.Hooks{
		OnEnemyTick: func(d time.Duration) { enemyTickDuration.Observe(d.Seconds()) },
		OnBroadcast: func() { broadcastsTotal.Inc() },
		OnCollect:   func(items int) { grassCollectedTotal.Add(float64(items)) },
		OnHit:       func() { enemyHitsTotal.Inc() },
		OnPlayers:   func(n int) { activePlayers.Set(float64(n)) },
	}
}

// RecordConnectionRejected increments the rejection counter.
// reason must be one of the bounded values documented on the metric.
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// UpdateWSConnections updates the WebSocket connection gauge
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// RecordFrameDropped counts an outbound frame skipped for a slow client
func RecordFrameDropped() {
	wsFramesDropped.Inc()
}
