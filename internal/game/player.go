package game

// Buff kinds. The same strings name powerup types and active-buff
// entries in snapshots.
const (
	BuffSpeed  = "speed"
	BuffMagnet = "magnet"
	BuffDouble = "double"
)

var buffKinds = []string{BuffSpeed, BuffMagnet, BuffDouble}

// Player is one admitted connection's presence in the world. Score and
// color live on the per-user state and are shared across all of a
// user's connections; buffs are per connection.
type Player struct {
	ConnID string
	UserID string
	Name   string
	Pos    Vec2

	// Buff expiries, epoch milliseconds. Zero means never held.
	speedUntil  int64
	magnetUntil int64
	doubleUntil int64
}

func (p *Player) buffExpiry(kind string) *int64 {
	switch kind {
	case BuffSpeed:
		return &p.speedUntil
	case BuffMagnet:
		return &p.magnetUntil
	case BuffDouble:
		return &p.doubleUntil
	default:
		return nil
	}
}

// applyBuff extends a buff window. The new expiry is based on the
// current expiry when the buff is still running, else on now, so
// repeated pickups always extend and never shorten.
func (p *Player) applyBuff(kind string, nowMs, durationMs int64) {
	until := p.buffExpiry(kind)
	if until == nil {
		return
	}
	base := *until
	if nowMs > base {
		base = nowMs
	}
	*until = base + durationMs
}

func (p *Player) buffActive(kind string, nowMs int64) bool {
	until := p.buffExpiry(kind)
	return until != nil && *until > nowMs
}

// activeBuffs derives the currently-active buff names. Snapshots carry
// this list instead of raw expiry timestamps.
func (p *Player) activeBuffs(nowMs int64) []string {
	var active []string
	for _, kind := range buffKinds {
		if p.buffActive(kind, nowMs) {
			active = append(active, kind)
		}
	}
	return active
}
