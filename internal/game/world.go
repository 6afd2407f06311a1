package game

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"time"

	"overgrown/internal/config"
	"overgrown/internal/protocol"
	"overgrown/internal/store"
)

// Sink delivers encoded messages to connections. The websocket hub
// implements it; tests use a recording fake.
type Sink interface {
	Broadcast(payload []byte)
	Send(connID string, payload []byte)
}

// Persister is the asynchronous bridge to durable storage. Queue
// methods must never block; Load is synchronous and is only called from
// hydration goroutines, never from the world loop.
type Persister interface {
	Load(ctx context.Context, userID string) (store.User, bool, error)
	QueueAddScore(userID string, delta int)
	QueueSetScore(userID string, score int)
	QueueSetColor(userID string, color string)
}

// Hooks are optional observability callbacks. They run on the world
// goroutine and must not block.
type Hooks struct {
	OnEnemyTick func(d time.Duration)
	OnBroadcast func()
	OnCollect   func(items int)
	OnHit       func()
	OnPlayers   func(n int)
}

// Commands processed by the world goroutine. Everything that mutates
// simulation state arrives through the inbox, so no two mutations ever
// interleave.
type (
	joinCmd struct {
		connID string
		userID string
		name   string
	}
	admitCmd struct {
		connID string
	}
	leaveCmd struct {
		connID string
	}
	moveCmd struct {
		connID string
		dx, dy float64
	}
	setColorCmd struct {
		connID string
		color  string
	}
	hydratedCmd struct {
		userID string
		user   store.User
		found  bool
	}
	snapshotCmd struct {
		reply chan []byte
	}
	statsCmd struct {
		reply chan Stats
	}
)

// pendingConn is a connection waiting out the join delay. The timer is
// owned by the world and stopped if the connection closes early.
type pendingConn struct {
	connID string
	userID string
	name   string
	timer  *time.Timer
}

// World owns all mutable simulation state: the layout, the item and
// enemy pools, admitted players, pending joins, and the per-user cache.
// A single goroutine (Run) consumes the inbox and the enemy ticker, so
// the state needs no locks.
type World struct {
	cfg     config.WorldConfig
	layout  *Layout
	sink    Sink
	persist Persister
	hooks   Hooks

	inbox chan any
	done  chan struct{}
	rng   *rand.Rand
	now   func() time.Time

	grass    []Grass
	powerups []Powerup
	enemies  []Enemy
	players  map[string]*Player
	pending  map[string]*pendingConn
	users    map[string]*userState

	lastEnemyStep time.Time

	intents    uint64
	broadcasts uint64
	collected  uint64
	hits       uint64
}

// NewWorld generates the layout, seeds the entity pools, and returns a
// world ready for Run.
func NewWorld(cfg config.WorldConfig, sink Sink, persist Persister, hooks Hooks) *World {
	w := &World{
		cfg:     cfg,
		layout:  GenerateLayout(cfg),
		sink:    sink,
		persist: persist,
		hooks:   hooks,
		inbox:   make(chan any, 256),
		done:    make(chan struct{}),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
		players: make(map[string]*Player),
		pending: make(map[string]*pendingConn),
		users:   make(map[string]*userState),
	}
	w.seedItems()
	w.seedEnemies()
	log.Printf("🌍 world ready: %d buildings, %d streets, %d grass, %d powerups, %d enemies",
		len(w.layout.Buildings), len(w.layout.Streets), len(w.grass), len(w.powerups), len(w.enemies))
	return w
}

// Run consumes commands and enemy ticks until ctx is cancelled. Each
// command runs to completion before the next; the tick never interleaves
// with a command.
func (w *World) Run(ctx context.Context) {
	defer close(w.done)

	// NewTicker panics on non-positive intervals, which a tuning file
	// can produce.
	interval := time.Duration(w.cfg.EnemyTickMs) * time.Millisecond
	if interval <= 0 {
		interval = 80 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("🌍 world loop running (enemy tick %dms, join delay %dms)",
		w.cfg.EnemyTickMs, w.cfg.JoinDelayMs)

	for {
		select {
		case <-ctx.Done():
			log.Println("🛑 world loop stopped")
			return
		case cmd := <-w.inbox:
			w.dispatch(cmd)
		case <-ticker.C:
			if w.stepEnemies(w.now()) {
				w.broadcastState()
			}
		}
	}
}

// dispatch routes one command. It is recover-wrapped so a bad message
// cannot take the shared world down for every other connection.
func (w *World) dispatch(cmd any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ recovered from panic handling %T: %v", cmd, r)
		}
	}()

	switch c := cmd.(type) {
	case joinCmd:
		w.handleJoin(c)
	case admitCmd:
		w.handleAdmit(c)
	case leaveCmd:
		w.handleLeave(c)
	case moveCmd:
		w.handleMove(c)
	case setColorCmd:
		w.handleSetColor(c)
	case hydratedCmd:
		w.handleHydrated(c)
	case snapshotCmd:
		b, err := json.Marshal(w.snapshot(w.now().UnixMilli()))
		if err != nil {
			b = nil
		}
		c.reply <- b
	case statsCmd:
		c.reply <- w.stats()
	default:
		log.Printf("⚠️ unknown world command %T", cmd)
	}
}

func (w *World) post(cmd any) {
	select {
	case w.inbox <- cmd:
	case <-w.done:
	}
}

// Join registers a connection for admission after the join delay.
func (w *World) Join(connID, userID, name string) {
	w.post(joinCmd{connID: connID, userID: userID, name: name})
}

// Leave removes a connection, pending or admitted.
func (w *World) Leave(connID string) {
	w.post(leaveCmd{connID: connID})
}

// Move submits a movement intent for an admitted connection.
func (w *World) Move(connID string, dx, dy float64) {
	w.post(moveCmd{connID: connID, dx: dx, dy: dy})
}

// SetColor submits a color-change intent for an admitted connection.
func (w *World) SetColor(connID, color string) {
	w.post(setColorCmd{connID: connID, color: color})
}

// GetStateJSON returns the current snapshot encoded as JSON, or nil if
// the world has stopped.
func (w *World) GetStateJSON() []byte {
	reply := make(chan []byte, 1)
	select {
	case w.inbox <- snapshotCmd{reply: reply}:
	case <-w.done:
		return nil
	}
	select {
	case b := <-reply:
		return b
	case <-w.done:
		return nil
	}
}

// GetStats returns world counters, or zero values if the world has
// stopped.
func (w *World) GetStats() Stats {
	reply := make(chan Stats, 1)
	select {
	case w.inbox <- statsCmd{reply: reply}:
	case <-w.done:
		return Stats{}
	}
	select {
	case s := <-reply:
		return s
	case <-w.done:
		return Stats{}
	}
}

func (w *World) handleJoin(c joinCmd) {
	if _, ok := w.players[c.connID]; ok {
		return
	}
	if _, ok := w.pending[c.connID]; ok {
		return
	}

	us := w.ensureUser(c.userID)
	us.conns++

	pc := &pendingConn{connID: c.connID, userID: c.userID, name: c.name}
	w.pending[c.connID] = pc

	delay := time.Duration(w.cfg.JoinDelayMs) * time.Millisecond
	log.Printf("👋 connection %s for user %s joins in %v", c.connID, c.userID, delay)

	// The waiting connection observes the world while its countdown runs.
	w.sendTo(c.connID, protocol.NewWorldState(w.snapshot(w.now().UnixMilli())))

	if delay <= 0 {
		w.handleAdmit(admitCmd{connID: c.connID})
		return
	}
	pc.timer = time.AfterFunc(delay, func() {
		w.post(admitCmd{connID: c.connID})
	})
}

func (w *World) handleAdmit(c admitCmd) {
	pc, ok := w.pending[c.connID]
	if !ok {
		// The connection closed before its delay elapsed.
		return
	}
	delete(w.pending, c.connID)

	p := &Player{
		ConnID: pc.connID,
		UserID: pc.userID,
		Name:   pc.name,
		Pos:    w.spawnPosition(),
	}
	w.players[pc.connID] = p
	if w.hooks.OnPlayers != nil {
		w.hooks.OnPlayers(len(w.players))
	}

	w.sendTo(pc.connID, protocol.NewConnected(pc.connID))
	log.Printf("🎮 %s entered the field (connection %s)", pc.name, pc.connID)
	w.broadcastState()
}

func (w *World) handleLeave(c leaveCmd) {
	if pc, ok := w.pending[c.connID]; ok {
		if pc.timer != nil {
			pc.timer.Stop()
		}
		delete(w.pending, c.connID)
		w.releaseUser(pc.userID)
		log.Printf("👋 connection %s left before joining", c.connID)
		return
	}

	p, ok := w.players[c.connID]
	if !ok {
		return
	}
	delete(w.players, c.connID)
	if w.hooks.OnPlayers != nil {
		w.hooks.OnPlayers(len(w.players))
	}
	w.releaseUser(p.UserID)
	log.Printf("👋 %s left (connection %s)", p.Name, c.connID)
	w.broadcastState()
}

func (w *World) handleMove(c moveCmd) {
	w.intents++

	p, ok := w.players[c.connID]
	if !ok {
		return
	}

	dx := clamp(c.dx, -1, 1)
	dy := clamp(c.dy, -1, 1)
	if dx == 0 && dy == 0 {
		return
	}

	now := w.now()
	nowMs := now.UnixMilli()

	speed := w.cfg.MoveSpeed
	if p.buffActive(BuffSpeed, nowMs) {
		speed *= w.cfg.SpeedBoost
	}
	sx, sy := scaleIntent(dx, dy, speed)

	old := p.Pos
	p.Pos = slideCircle(w.cfg, w.layout, p.Pos, sx, sy, w.cfg.PlayerRadius)
	changed := p.Pos != old

	if w.resolvePickups(p, nowMs) {
		changed = true
	}

	// Immediate re-check so walking into an enemy is caught without
	// waiting for the next timer tick.
	if w.stepEnemies(now) {
		changed = true
	}

	if changed {
		w.broadcastState()
	}
}

func (w *World) handleSetColor(c setColorCmd) {
	p, ok := w.players[c.connID]
	if !ok {
		return
	}

	norm, err := NormalizeHexColor(c.color)
	if err != nil {
		w.sendTo(c.connID, protocol.NewError(protocol.ErrBadColor, err.Error()))
		return
	}

	us, ok := w.users[p.UserID]
	if !ok || us.Color == norm {
		return
	}
	us.Color = norm
	if w.persist != nil {
		w.persist.QueueSetColor(p.UserID, norm)
	}
	log.Printf("🎨 %s set color %s", p.Name, norm)
	w.broadcastState()
}

// spawnPosition finds a building-free position away from enemies for a
// player spawn or respawn.
func (w *World) spawnPosition() Vec2 {
	avoid := []avoidLayer{{points: w.enemyPoints(), minSep: enemyClearance}}
	return placeCircle(w.rng, w.cfg, w.layout, w.cfg.PlayerRadius, avoid)
}

func (w *World) broadcastState() {
	if w.sink == nil {
		return
	}
	payload, err := json.Marshal(protocol.NewWorldState(w.snapshot(w.now().UnixMilli())))
	if err != nil {
		log.Printf("⚠️ snapshot encode failed: %v", err)
		return
	}
	w.sink.Broadcast(payload)
	w.broadcasts++
	if w.hooks.OnBroadcast != nil {
		w.hooks.OnBroadcast()
	}
}

func (w *World) sendTo(connID string, v any) {
	if w.sink == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("⚠️ message encode failed: %v", err)
		return
	}
	w.sink.Send(connID, payload)
}
