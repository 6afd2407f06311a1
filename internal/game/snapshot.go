package game

// Snapshot is the full world view broadcast to every connection. It
// carries only what rendering needs; internal buff expiries surface as
// a derived list of active buff names.
type Snapshot struct {
	Width     float64       `json:"width"`
	Height    float64       `json:"height"`
	Streets   []Rect        `json:"streets"`
	Buildings []Rect        `json:"buildings"`
	Grass     []Vec2        `json:"grass"`
	Powerups  []PowerupView `json:"powerups"`
	Enemies   []EnemyView   `json:"enemies"`
	Players   []PlayerView  `json:"players"`
}

// PowerupView is a powerup as rendered by clients.
type PowerupView struct {
	ID   string  `json:"id"`
	Kind string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// EnemyView exposes id and position only; homes and territories are
// server-side state.
type EnemyView struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// PlayerView is a player as rendered by clients. Score and color are
// the owning user's shared values.
type PlayerView struct {
	ConnectionID string   `json:"connectionId"`
	UserID       string   `json:"userId"`
	Name         string   `json:"name"`
	Color        string   `json:"color"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	Score        int      `json:"score"`
	Buffs        []string `json:"buffs"`
}

// snapshot builds the current world view. nowMs fixes the instant used
// to derive active buffs.
func (w *World) snapshot(nowMs int64) Snapshot {
	snap := Snapshot{
		Width:     w.cfg.Width,
		Height:    w.cfg.Height,
		Streets:   w.layout.Streets,
		Buildings: w.layout.Buildings,
		Grass:     make([]Vec2, 0, len(w.grass)),
		Powerups:  make([]PowerupView, 0, len(w.powerups)),
		Enemies:   make([]EnemyView, 0, len(w.enemies)),
		Players:   make([]PlayerView, 0, len(w.players)),
	}

	for _, g := range w.grass {
		snap.Grass = append(snap.Grass, g.Pos)
	}
	for _, pu := range w.powerups {
		snap.Powerups = append(snap.Powerups, PowerupView{
			ID:   pu.ID,
			Kind: pu.Kind,
			X:    pu.Pos.X,
			Y:    pu.Pos.Y,
		})
	}
	for _, e := range w.enemies {
		snap.Enemies = append(snap.Enemies, EnemyView{ID: e.ID, X: e.Pos.X, Y: e.Pos.Y})
	}
	for _, p := range w.players {
		score := 0
		if us, ok := w.users[p.UserID]; ok {
			score = us.Score
		}
		buffs := p.activeBuffs(nowMs)
		if buffs == nil {
			// Keep the wire shape an array, never null.
			buffs = []string{}
		}
		snap.Players = append(snap.Players, PlayerView{
			ConnectionID: p.ConnID,
			UserID:       p.UserID,
			Name:         p.Name,
			Color:        w.effectiveColor(p.UserID),
			X:            p.Pos.X,
			Y:            p.Pos.Y,
			Score:        score,
			Buffs:        buffs,
		})
	}

	return snap
}

// Stats summarizes world counters for the read-only HTTP surface.
type Stats struct {
	Players      int    `json:"players"`
	PendingJoins int    `json:"pendingJoins"`
	Users        int    `json:"users"`
	Grass        int    `json:"grass"`
	Powerups     int    `json:"powerups"`
	Enemies      int    `json:"enemies"`
	Intents      uint64 `json:"intents"`
	Broadcasts   uint64 `json:"broadcasts"`
	Collected    uint64 `json:"collected"`
	Hits         uint64 `json:"hits"`
}

func (w *World) stats() Stats {
	return Stats{
		Players:      len(w.players),
		PendingJoins: len(w.pending),
		Users:        len(w.users),
		Grass:        len(w.grass),
		Powerups:     len(w.powerups),
		Enemies:      len(w.enemies),
		Intents:      w.intents,
		Broadcasts:   w.broadcasts,
		Collected:    w.collected,
		Hits:         w.hits,
	}
}
