// Package store persists per-user state (score and color) and bridges
// the simulation to durable storage without ever blocking it.
package store

import "context"

// User is the durable per-user record. A zero Score and empty Color are
// valid values; absence is reported separately.
type User struct {
	Score int
	Color string
}

// Store is the durable storage contract, keyed by user id. Score writes
// come in two flavors: AddScore is an atomic increment resolved at the
// storage layer, SetScore is an absolute overwrite.
type Store interface {
	GetUser(ctx context.Context, userID string) (User, bool, error)
	AddScore(ctx context.Context, userID string, delta int) error
	SetScore(ctx context.Context, userID string, score int) error
	SetColor(ctx context.Context, userID string, color string) error
	Close() error
}
