package game

import (
	"log"
	"time"

	"github.com/google/uuid"
)

// Enemy is a territorial agent. Home and territory are fixed at
// creation; only the position moves.
type Enemy struct {
	ID        string
	Pos       Vec2
	Home      Vec2
	Territory float64
}

// seedEnemies assigns homes from the territory-cell grid and spawns
// every enemy at its home.
func (w *World) seedEnemies() {
	homes, territory := enemyHomes(w.rng, w.cfg, w.layout)
	w.enemies = make([]Enemy, 0, len(homes))
	for _, home := range homes {
		w.enemies = append(w.enemies, Enemy{
			ID:        uuid.NewString(),
			Pos:       home,
			Home:      home,
			Territory: territory,
		})
	}
}

// stepEnemies runs one enemy AI tick: movement scaled by wall-clock
// time since the previous invocation (capped at one full tick), then
// the player collision pass. Scaling by elapsed time makes the tick
// safe to invoke back-to-back, so the timer and the post-intent
// re-check can both call it without enemies speeding up. Returns
// whether anything moved or hit; the caller decides on broadcasting.
func (w *World) stepEnemies(now time.Time) bool {
	if len(w.enemies) == 0 {
		return false
	}
	started := time.Now()

	interval := time.Duration(w.cfg.EnemyTickMs) * time.Millisecond
	frac := 1.0
	if !w.lastEnemyStep.IsZero() && interval > 0 {
		frac = clamp(float64(now.Sub(w.lastEnemyStep))/float64(interval), 0, 1)
	}
	w.lastEnemyStep = now

	moved := false
	if frac > 0 {
		for i := range w.enemies {
			e := &w.enemies[i]

			target := e.Home
			speed := w.cfg.ReturnSpeed * frac
			if nearest := w.nearestPlayer(e.Pos); nearest != nil &&
				dist(e.Pos, e.Home) <= e.Territory*w.cfg.LeashFactor {
				target = nearest.Pos
				speed = w.cfg.ChaseSpeed * frac
			}

			old := e.Pos
			e.Pos = stepToward(w.cfg, w.layout, e.Pos, target, speed, w.cfg.EnemyRadius)
			if e.Pos != old {
				moved = true
			}
		}
	}

	anyHit := w.resolveEnemyHits()

	if w.hooks.OnEnemyTick != nil {
		w.hooks.OnEnemyTick(time.Since(started))
	}
	return moved || anyHit
}

// resolveEnemyHits respawns every player an enemy touches and resets the
// owning user's score to zero. A user hit by several enemies, or through
// several connections, is reset only once per invocation.
func (w *World) resolveEnemyHits() bool {
	hitRadius := w.cfg.PlayerRadius + w.cfg.EnemyRadius
	var resetUsers map[string]bool
	anyHit := false

	for i := range w.enemies {
		e := &w.enemies[i]
		for _, p := range w.players {
			if dist(e.Pos, p.Pos) > hitRadius {
				continue
			}
			anyHit = true
			w.relocate(p)
			if resetUsers == nil {
				resetUsers = make(map[string]bool)
			}
			if !resetUsers[p.UserID] {
				resetUsers[p.UserID] = true
				w.resetScore(p.UserID)
			}
			w.hits++
			if w.hooks.OnHit != nil {
				w.hooks.OnHit()
			}
			log.Printf("💀 %s was caught, score reset", p.Name)
		}
	}
	return anyHit
}

// nearestPlayer returns the admitted player closest to pos, or nil.
func (w *World) nearestPlayer(pos Vec2) *Player {
	var nearest *Player
	best := -1.0
	for _, p := range w.players {
		d := distSq(pos, p.Pos)
		if best < 0 || d < best {
			best = d
			nearest = p
		}
	}
	return nearest
}

// relocate respawns a player to a fresh valid position away from enemies.
func (w *World) relocate(p *Player) {
	p.Pos = w.spawnPosition()
}
