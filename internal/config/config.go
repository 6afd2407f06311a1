// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all world and server settings.
//
// IMPORTANT: When changing values, only modify this file (or override
// via environment / tuning.yaml). All other parts of the codebase
// should reference these values.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// WORLD CONFIGURATION
// =============================================================================

// WorldConfig holds the simulation constants: map bounds, layout grid,
// entity pools, movement and buff tuning. Values are in world units
// unless noted otherwise.
type WorldConfig struct {
	Width  float64 // Map width in world units
	Height float64 // Map height in world units

	// Layout grid: BlockRows x BlockCols city blocks separated by streets.
	BlockRows   int
	BlockCols   int
	StreetWidth float64 // Corridor width between blocks
	BlockMargin float64 // Street margin kept clear inside each block
	LayoutSeed  uint64  // Seed for the deterministic building generator

	// Entity radii.
	PlayerRadius  float64
	EnemyRadius   float64
	GrassRadius   float64
	PowerupRadius float64

	// Pool sizes, constant for process lifetime.
	GrassCount   int
	PowerupCount int
	EnemyCount   int

	// Movement.
	MoveSpeed  float64 // Units advanced per movement intent
	SpeedBoost float64 // Multiplier while the speed buff is active

	// Buffs and pickups.
	BuffDurationMs      int64   // Buff lifetime per pickup, milliseconds
	TouchRadius         float64 // Grass collection distance
	MagnetRadius        float64 // Grass attraction distance under magnet
	MagnetPull          float64 // Pull distance per intent under magnet
	OvergrowthThreshold int     // Items in one intent that trigger the bonus
	OvergrowthBonus     int     // Flat bonus points for an overgrowth

	// Enemy AI.
	EnemyTickMs int     // Fixed AI tick interval, milliseconds
	ChaseSpeed  float64 // Units per tick while pursuing a player
	ReturnSpeed float64 // Units per tick while returning home
	LeashFactor float64 // Territory radius multiplier before returning

	// Admission.
	JoinDelayMs int // Delay before a connection becomes an active player
}

// DefaultWorld returns the default world configuration.
func DefaultWorld() WorldConfig {
	return WorldConfig{
		Width:  10000,
		Height: 10000,

		BlockRows:   8,
		BlockCols:   8,
		StreetWidth: 160,
		BlockMargin: 60,
		LayoutSeed:  0x6f766572, // stable across restarts so clients can cache

		PlayerRadius:  25,
		EnemyRadius:   25,
		GrassRadius:   10,
		PowerupRadius: 18,

		GrassCount:   150,
		PowerupCount: 12,
		EnemyCount:   24,

		MoveSpeed:  16,
		SpeedBoost: 1.75,

		BuffDurationMs:      10_000,
		TouchRadius:         30,
		MagnetRadius:        150,
		MagnetPull:          12,
		OvergrowthThreshold: 4,
		OvergrowthBonus:     10,

		EnemyTickMs: 80,
		ChaseSpeed:  10,
		ReturnSpeed: 18,
		LeashFactor: 1.25,

		JoinDelayMs: 3000,
	}
}

// WorldFromEnv returns world configuration with environment variable overrides.
// Environment variables take precedence over defaults.
func WorldFromEnv() WorldConfig {
	cfg := DefaultWorld()

	if w := getEnvFloat("MAP_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvFloat("MAP_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}
	if n := getEnvInt("GRASS_COUNT", 0); n > 0 {
		cfg.GrassCount = n
	}
	if n := getEnvInt("POWERUP_COUNT", 0); n > 0 {
		cfg.PowerupCount = n
	}
	if n := getEnvInt("ENEMY_COUNT", 0); n > 0 {
		cfg.EnemyCount = n
	}
	if ms := getEnvInt("ENEMY_TICK_MS", 0); ms > 0 {
		cfg.EnemyTickMs = ms
	}
	if ms := getEnvInt("JOIN_DELAY_MS", -1); ms >= 0 {
		cfg.JoinDelayMs = ms
	}
	if s := getEnvInt("LAYOUT_SEED", 0); s > 0 {
		cfg.LayoutSeed = uint64(s)
	}

	return cfg
}

// =============================================================================
// WORLD TUNING OVERLAY (tuning.yaml)
// =============================================================================

// worldTuning mirrors the gameplay-feel knobs of WorldConfig. Pointer
// fields so an omitted key leaves the configured value untouched.
type worldTuning struct {
	MoveSpeed           *float64 `yaml:"move_speed"`
	SpeedBoost          *float64 `yaml:"speed_boost"`
	BuffDurationMs      *int64   `yaml:"buff_duration_ms"`
	TouchRadius         *float64 `yaml:"touch_radius"`
	MagnetRadius        *float64 `yaml:"magnet_radius"`
	MagnetPull          *float64 `yaml:"magnet_pull"`
	OvergrowthThreshold *int     `yaml:"overgrowth_threshold"`
	OvergrowthBonus     *int     `yaml:"overgrowth_bonus"`
	EnemyTickMs         *int     `yaml:"enemy_tick_ms"`
	ChaseSpeed          *float64 `yaml:"chase_speed"`
	ReturnSpeed         *float64 `yaml:"return_speed"`
	LeashFactor         *float64 `yaml:"leash_factor"`
	JoinDelayMs         *int     `yaml:"join_delay_ms"`
	GrassCount          *int     `yaml:"grass_count"`
	PowerupCount        *int     `yaml:"powerup_count"`
	EnemyCount          *int     `yaml:"enemy_count"`
}

// ApplyTuning overlays a tuning.yaml file onto a world configuration.
// Only keys present in the file are applied.
func ApplyTuning(cfg WorldConfig, path string) (WorldConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var t worldTuning
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return cfg, fmt.Errorf("tuning.yaml: %w", err)
	}

	if t.MoveSpeed != nil {
		cfg.MoveSpeed = *t.MoveSpeed
	}
	if t.SpeedBoost != nil {
		cfg.SpeedBoost = *t.SpeedBoost
	}
	if t.BuffDurationMs != nil {
		cfg.BuffDurationMs = *t.BuffDurationMs
	}
	if t.TouchRadius != nil {
		cfg.TouchRadius = *t.TouchRadius
	}
	if t.MagnetRadius != nil {
		cfg.MagnetRadius = *t.MagnetRadius
	}
	if t.MagnetPull != nil {
		cfg.MagnetPull = *t.MagnetPull
	}
	if t.OvergrowthThreshold != nil {
		cfg.OvergrowthThreshold = *t.OvergrowthThreshold
	}
	if t.OvergrowthBonus != nil {
		cfg.OvergrowthBonus = *t.OvergrowthBonus
	}
	if t.EnemyTickMs != nil {
		cfg.EnemyTickMs = *t.EnemyTickMs
	}
	if t.ChaseSpeed != nil {
		cfg.ChaseSpeed = *t.ChaseSpeed
	}
	if t.ReturnSpeed != nil {
		cfg.ReturnSpeed = *t.ReturnSpeed
	}
	if t.LeashFactor != nil {
		cfg.LeashFactor = *t.LeashFactor
	}
	if t.JoinDelayMs != nil {
		cfg.JoinDelayMs = *t.JoinDelayMs
	}
	if t.GrassCount != nil {
		cfg.GrassCount = *t.GrassCount
	}
	if t.PowerupCount != nil {
		cfg.PowerupCount = *t.PowerupCount
	}
	if t.EnemyCount != nil {
		cfg.EnemyCount = *t.EnemyCount
	}

	return cfg, nil
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	MaxConnsPerIP  int // Hard cap on simultaneous websockets per client IP
	TuningPath     string
	AllowedOrigins []string
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:          3000,
		MaxConnsPerIP: 8,
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
		},
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if n := getEnvInt("MAX_CONNS_PER_IP", 0); n > 0 {
		cfg.MaxConnsPerIP = n
	}
	if path := os.Getenv("WORLD_TUNING"); path != "" {
		cfg.TuningPath = path
	}
	if origin := os.Getenv("ALLOWED_ORIGIN"); origin != "" {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
	}

	return cfg
}

// =============================================================================
// STORE CONFIGURATION
// =============================================================================

// StoreConfig holds durable storage settings.
type StoreConfig struct {
	Path      string // SQLite database file
	QueueSize int    // Persistence bridge queue capacity
}

// DefaultStore returns the default store configuration.
func DefaultStore() StoreConfig {
	return StoreConfig{
		Path:      "overgrown.db",
		QueueSize: 1024,
	}
}

// StoreFromEnv returns store configuration with environment variable overrides.
func StoreFromEnv() StoreConfig {
	cfg := DefaultStore()

	if p := os.Getenv("STORE_PATH"); p != "" {
		cfg.Path = p
	}
	if n := getEnvInt("STORE_QUEUE_SIZE", 0); n > 0 {
		cfg.QueueSize = n
	}

	return cfg
}

// =============================================================================
// AUTH CONFIGURATION
// =============================================================================

// AuthConfig holds session and upgrade-time authentication settings.
type AuthConfig struct {
	SessionSecret string // HMAC key for session cookies; generated if empty
	SessionTTLMin int    // Session lifetime in minutes
	TimeoutMs     int    // Budget for resolving identity at upgrade time
}

// DefaultAuth returns the default auth configuration.
func DefaultAuth() AuthConfig {
	return AuthConfig{
		SessionTTLMin: 24 * 60,
		TimeoutMs:     1500,
	}
}

// AuthFromEnv returns auth configuration with environment variable overrides.
func AuthFromEnv() AuthConfig {
	cfg := DefaultAuth()

	if s := os.Getenv("SESSION_SECRET"); s != "" {
		cfg.SessionSecret = s
	}
	if m := getEnvInt("SESSION_TTL_MIN", 0); m > 0 {
		cfg.SessionTTLMin = m
	}
	if ms := getEnvInt("AUTH_TIMEOUT_MS", 0); ms > 0 {
		cfg.TimeoutMs = ms
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	World  WorldConfig
	Server ServerConfig
	Store  StoreConfig
	Auth   AuthConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		World:  WorldFromEnv(),
		Server: ServerFromEnv(),
		Store:  StoreFromEnv(),
		Auth:   AuthFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
