package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"overgrown/internal/api"
	"overgrown/internal/config"
	"overgrown/internal/game"
	"overgrown/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	} else {
		log.Println("✅ Loaded environment from .env")
	}

	log.Println("🌱 ================================")
	log.Println("🌱  OVERGROWN - WORLD SERVER")
	log.Println("🌱 ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	cfg := config.Load()

	// Optional tuning overlay for world constants
	if cfg.Server.TuningPath != "" {
		tuned, err := config.ApplyTuning(cfg.World, cfg.Server.TuningPath)
		if err != nil {
			log.Printf("⚠️ Tuning file ignored: %v", err)
		} else {
			cfg.World = tuned
			log.Printf("🔧 Applied tuning overrides from %s", cfg.Server.TuningPath)
		}
	}

	log.Printf("🗺️ World: %.0fx%.0f, %d grass, %d powerups, %d enemies",
		cfg.World.Width, cfg.World.Height,
		cfg.World.GrassCount, cfg.World.PowerupCount, cfg.World.EnemyCount)
	log.Printf("⏱️ Enemy tick: %dms, join delay: %dms",
		cfg.World.EnemyTickMs, cfg.World.JoinDelayMs)

	// Durable store and the async bridge in front of it
	st, err := store.OpenSQLite(cfg.Store.Path)
	if err != nil {
		log.Fatalf("❌ Failed to open store at %s: %v", cfg.Store.Path, err)
	}
	log.Printf("💾 Store: %s (queue %d)", cfg.Store.Path, cfg.Store.QueueSize)

	bridge := store.NewBridge(st, cfg.Store.QueueSize)

	// Sessions double as the default Authenticator
	sessions := api.NewSessionManager(
		cfg.Auth.SessionSecret,
		time.Duration(cfg.Auth.SessionTTLMin)*time.Minute,
	)

	if len(cfg.Server.AllowedOrigins) > 0 {
		api.AllowedOrigins = cfg.Server.AllowedOrigins
	}

	// Hub first, world second: the world broadcasts through the hub,
	// the hub feeds intents back into the world.
	hub := api.NewHub(
		sessions,
		time.Duration(cfg.Auth.TimeoutMs)*time.Millisecond,
		cfg.Server.MaxConnsPerIP,
	)
	world := game.NewWorld(cfg.World, hub, bridge, api.MetricsHooks())
	hub.BindWorld(world)

	// Start debug server (pprof + metrics, localhost only)
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	server := api.NewServer(api.ServerConfig{
		World:       world,
		Hub:         hub,
		Sessions:    sessions,
		CORSOrigins: cfg.Server.AllowedOrigins,
	})

	// Run the simulation loop
	worldCtx, stopWorld := context.WithCancel(context.Background())
	go world.Run(worldCtx)

	// Start API server in goroutine
	go func() {
		addr := ":" + strconv.Itoa(cfg.Server.Port)
		if err := server.Start(addr); err != nil {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")

	// Stop accepting traffic, then the simulation, then flush writes.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}
	stopWorld()
	bridge.Close()
	if err := st.Close(); err != nil {
		log.Printf("⚠️ Store close: %v", err)
	}

	log.Println("👋 Goodbye!")
}
