package game

import (
	"math"
	"math/rand"

	"overgrown/internal/config"
)

const (
	// placementRetryBudget bounds the primary and relaxed sampling passes.
	placementRetryBudget = 32

	grassSeparation   = 40  // min distance between grass items and to powerups
	powerupSeparation = 600 // spreads the small powerup pool across the map
	enemyClearance    = 400 // player spawns keep this distance from enemies

	homeJitter = 0.35 // fraction of a territory cell a home may drift
)

// avoidLayer is one set of already-placed entities a candidate position
// must keep a minimum center distance from.
type avoidLayer struct {
	points []Vec2
	minSep float64
}

// placeCircle finds a position for a circle of the given radius: up to
// placementRetryBudget uniform candidates that clear every avoid layer
// and all buildings, then a relaxed pass that only avoids buildings,
// then the map corner. It never fails to terminate.
func placeCircle(rng *rand.Rand, cfg config.WorldConfig, l *Layout, radius float64, avoid []avoidLayer) Vec2 {
	for attempt := 0; attempt < placementRetryBudget; attempt++ {
		p := randomPoint(rng, cfg, radius)
		if l.insideAnyBuilding(p, radius) {
			continue
		}
		if clearsLayers(p, avoid) {
			return p
		}
	}

	// Relaxed pass: crowding is tolerable, walls are not.
	for attempt := 0; attempt < placementRetryBudget; attempt++ {
		p := randomPoint(rng, cfg, radius)
		if !l.insideAnyBuilding(p, radius) {
			return p
		}
	}

	return Vec2{X: radius, Y: radius}
}

func randomPoint(rng *rand.Rand, cfg config.WorldConfig, radius float64) Vec2 {
	return Vec2{
		X: radius + rng.Float64()*(cfg.Width-2*radius),
		Y: radius + rng.Float64()*(cfg.Height-2*radius),
	}
}

func clearsLayers(p Vec2, avoid []avoidLayer) bool {
	for _, layer := range avoid {
		sepSq := layer.minSep * layer.minSep
		for _, q := range layer.points {
			if distSq(p, q) < sepSq {
				return false
			}
		}
	}
	return true
}

// enemyHomes partitions the enemy pool into a roughly square grid of
// territory cells and assigns each enemy a home at its cell center plus
// bounded jitter. Homes that land inside a building are snapped to the
// nearest point on any street. Returns the homes and the territory
// radius shared by all enemies, derived from the minimum cell dimension.
func enemyHomes(rng *rand.Rand, cfg config.WorldConfig, l *Layout) ([]Vec2, float64) {
	count := cfg.EnemyCount
	if count <= 0 {
		return nil, 0
	}

	cells := int(math.Ceil(math.Sqrt(float64(count))))
	cellW := cfg.Width / float64(cells)
	cellH := cfg.Height / float64(cells)
	territory := 0.45 * math.Min(cellW, cellH)

	r := cfg.EnemyRadius
	homes := make([]Vec2, 0, count)
	for i := 0; i < count; i++ {
		row := i / cells
		col := i % cells
		home := Vec2{
			X: (float64(col)+0.5)*cellW + (rng.Float64()-0.5)*homeJitter*cellW,
			Y: (float64(row)+0.5)*cellH + (rng.Float64()-0.5)*homeJitter*cellH,
		}
		home.X = clamp(home.X, r, cfg.Width-r)
		home.Y = clamp(home.Y, r, cfg.Height-r)
		if l.insideAnyBuilding(home, r) {
			home = l.nearestStreetPoint(home)
			home.X = clamp(home.X, r, cfg.Width-r)
			home.Y = clamp(home.Y, r, cfg.Height-r)
		}
		homes = append(homes, home)
	}
	return homes, territory
}
