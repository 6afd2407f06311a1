package game

import (
	"log"

	"github.com/google/uuid"
)

// Grass is a collectible item. Identity is the slot index in the pool,
// not a stable id: a collected slot is immediately refilled in place.
type Grass struct {
	Pos Vec2
}

// Powerup grants a timed buff on pickup. Collected slots are refilled
// in place with a regenerated id and a freshly rolled kind.
type Powerup struct {
	ID   string
	Kind string
	Pos  Vec2
}

// seedItems fills the grass and powerup pools. Initial powerup kinds
// cycle through all buff types so every kind is on the map from the
// start.
func (w *World) seedItems() {
	w.grass = make([]Grass, 0, w.cfg.GrassCount)
	for i := 0; i < w.cfg.GrassCount; i++ {
		w.grass = append(w.grass, Grass{Pos: w.placeGrass(-1)})
	}

	w.powerups = make([]Powerup, 0, w.cfg.PowerupCount)
	for i := 0; i < w.cfg.PowerupCount; i++ {
		w.powerups = append(w.powerups, Powerup{
			ID:   uuid.NewString(),
			Kind: buffKinds[i%len(buffKinds)],
			Pos:  w.placePowerup(-1),
		})
	}
}

// placeGrass finds a position for the grass slot at index exclude; pass
// -1 when placing a new slot. The replaced slot is excluded from its own
// comparison set so a freshly vacated position does not block itself.
func (w *World) placeGrass(exclude int) Vec2 {
	avoid := []avoidLayer{
		{points: w.grassPoints(exclude), minSep: grassSeparation},
		{points: w.powerupPoints(-1), minSep: grassSeparation},
	}
	return placeCircle(w.rng, w.cfg, w.layout, w.cfg.GrassRadius, avoid)
}

// placePowerup finds a position for the powerup slot at index exclude.
func (w *World) placePowerup(exclude int) Vec2 {
	avoid := []avoidLayer{
		{points: w.powerupPoints(exclude), minSep: powerupSeparation},
		{points: w.grassPoints(-1), minSep: grassSeparation},
	}
	return placeCircle(w.rng, w.cfg, w.layout, w.cfg.PowerupRadius, avoid)
}

func (w *World) respawnGrass(i int) {
	w.grass[i] = Grass{Pos: w.placeGrass(i)}
}

func (w *World) respawnPowerup(i int) {
	w.powerups[i] = Powerup{
		ID:   uuid.NewString(),
		Kind: buffKinds[w.rng.Intn(len(buffKinds))],
		Pos:  w.placePowerup(i),
	}
}

func (w *World) grassPoints(exclude int) []Vec2 {
	pts := make([]Vec2, 0, len(w.grass))
	for i, g := range w.grass {
		if i == exclude {
			continue
		}
		pts = append(pts, g.Pos)
	}
	return pts
}

func (w *World) powerupPoints(exclude int) []Vec2 {
	pts := make([]Vec2, 0, len(w.powerups))
	for i, pu := range w.powerups {
		if i == exclude {
			continue
		}
		pts = append(pts, pu.Pos)
	}
	return pts
}

func (w *World) enemyPoints() []Vec2 {
	pts := make([]Vec2, 0, len(w.enemies))
	for _, e := range w.enemies {
		pts = append(pts, e.Pos)
	}
	return pts
}

// resolvePickups applies powerup and grass pickups around a player after
// a movement step. Grass beyond touch range but inside the magnet radius
// is pulled a bounded step toward the player first, then rechecked.
// Points: one per item, doubled under the double buff, plus a flat bonus
// when a single intent collects an overgrowth. Returns whether anything
// visible changed.
func (w *World) resolvePickups(p *Player, nowMs int64) bool {
	changed := false

	for i := range w.powerups {
		pu := &w.powerups[i]
		if dist(p.Pos, pu.Pos) <= w.cfg.PlayerRadius+w.cfg.PowerupRadius {
			p.applyBuff(pu.Kind, nowMs, w.cfg.BuffDurationMs)
			log.Printf("⚡ %s picked up %s", p.Name, pu.Kind)
			w.respawnPowerup(i)
			changed = true
		}
	}

	magnet := p.buffActive(BuffMagnet, nowMs)
	collected := 0
	for i := range w.grass {
		g := &w.grass[i]
		d := dist(p.Pos, g.Pos)
		if d > w.cfg.TouchRadius && magnet && d <= w.cfg.MagnetRadius {
			if w.pullGrass(g, p.Pos, d) {
				changed = true
				d = dist(p.Pos, g.Pos)
			}
		}
		if d <= w.cfg.TouchRadius {
			collected++
			w.respawnGrass(i)
		}
	}

	if collected > 0 {
		points := collected
		if p.buffActive(BuffDouble, nowMs) {
			points *= 2
		}
		if collected >= w.cfg.OvergrowthThreshold {
			points += w.cfg.OvergrowthBonus
		}
		w.addScore(p.UserID, points)
		w.collected += uint64(collected)
		if w.hooks.OnCollect != nil {
			w.hooks.OnCollect(collected)
		}
		changed = true
	}

	return changed
}

// pullGrass moves an item toward a player by at most MagnetPull, never
// past the touch radius. The pull is skipped when the pulled position
// would intersect a building.
func (w *World) pullGrass(g *Grass, toward Vec2, d float64) bool {
	if d <= 0 {
		return false
	}
	nd := d - w.cfg.MagnetPull
	if nd < w.cfg.TouchRadius {
		nd = w.cfg.TouchRadius
	}
	t := nd / d
	cand := Vec2{
		X: toward.X + (g.Pos.X-toward.X)*t,
		Y: toward.Y + (g.Pos.Y-toward.Y)*t,
	}
	if w.layout.insideAnyBuilding(cand, w.cfg.GrassRadius) {
		return false
	}
	g.Pos = cand
	return true
}
