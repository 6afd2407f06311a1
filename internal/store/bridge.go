package store

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

var (
	bridgeQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "overgrown_store_queue_depth",
		Help: "Persistence operations waiting in the bridge queue.",
	})
	bridgeDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "overgrown_store_dropped_total",
		Help: "Persistence operations dropped because the queue was full.",
	})
	bridgeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "overgrown_store_failures_total",
		Help: "Persistence operations that failed at the storage layer.",
	})
)

// writeTimeout bounds a single storage write in the worker.
const writeTimeout = 5 * time.Second

type opKind int

const (
	opAddScore opKind = iota + 1
	opSetScore
	opSetColor
)

func (k opKind) String() string {
	switch k {
	case opAddScore:
		return "add-score"
	case opSetScore:
		return "set-score"
	case opSetColor:
		return "set-color"
	default:
		return "unknown"
	}
}

type op struct {
	kind   opKind
	userID string
	value  int
	color  string
}

// Bridge is the asynchronous boundary between the simulation and the
// Store. Writes are queued and drained by a single worker; enqueueing
// never blocks. When the queue is full the operation is dropped and
// logged, because in-memory state stays authoritative either way.
// Reads are synchronous but deduplicate concurrent loads per user id.
type Bridge struct {
	store Store

	ch     chan op
	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool

	group singleflight.Group
}

// NewBridge starts the worker over the given store.
func NewBridge(store Store, queueSize int) *Bridge {
	if queueSize <= 0 {
		queueSize = 1024
	}
	b := &Bridge{
		store: store,
		ch:    make(chan op, queueSize),
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.loop()
	}()
	return b
}

// Load reads a user record. Concurrent loads for the same user id await
// a single in-flight storage read instead of issuing duplicates.
func (b *Bridge) Load(ctx context.Context, userID string) (User, bool, error) {
	type loaded struct {
		user  User
		found bool
	}
	v, err, _ := b.group.Do(userID, func() (any, error) {
		u, found, err := b.store.GetUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		return loaded{user: u, found: found}, nil
	})
	if err != nil {
		return User{}, false, err
	}
	l := v.(loaded)
	return l.user, l.found, nil
}

// QueueAddScore queues an atomic score increment.
func (b *Bridge) QueueAddScore(userID string, delta int) {
	b.enqueue(op{kind: opAddScore, userID: userID, value: delta})
}

// QueueSetScore queues an absolute score overwrite.
func (b *Bridge) QueueSetScore(userID string, score int) {
	b.enqueue(op{kind: opSetScore, userID: userID, value: score})
}

// QueueSetColor queues an absolute color overwrite.
func (b *Bridge) QueueSetColor(userID string, color string) {
	b.enqueue(op{kind: opSetColor, userID: userID, color: color})
}

func (b *Bridge) enqueue(o op) {
	if b == nil || b.closed.Load() {
		return
	}
	select {
	case b.ch <- o:
		bridgeQueueDepth.Inc()
	default:
		bridgeDroppedTotal.Inc()
		log.Printf("💾 store queue full, dropped %s for user %s", o.kind, o.userID)
	}
}

func (b *Bridge) loop() {
	for o := range b.ch {
		bridgeQueueDepth.Dec()

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := b.apply(ctx, o)
		cancel()

		if err != nil {
			bridgeFailuresTotal.Inc()
			log.Printf("💾 store %s failed for user %s: %v", o.kind, o.userID, err)
		}
	}
}

func (b *Bridge) apply(ctx context.Context, o op) error {
	switch o.kind {
	case opAddScore:
		return b.store.AddScore(ctx, o.userID, o.value)
	case opSetScore:
		return b.store.SetScore(ctx, o.userID, o.value)
	case opSetColor:
		return b.store.SetColor(ctx, o.userID, o.color)
	default:
		return nil
	}
}

// Close drains the queue and stops the worker. The underlying store is
// not closed; the caller owns it.
func (b *Bridge) Close() error {
	b.once.Do(func() {
		b.closed.Store(true)
		close(b.ch)
		b.wg.Wait()
	})
	return nil
}
