package game

import (
	"context"
	"log"
	"time"
)

// hydrateTimeout bounds the storage read behind a user hydration.
const hydrateTimeout = 5 * time.Second

// userState is the per-user score/color cache shared by every live
// connection of that user. Color stays empty until the user sets one or
// a stored color is hydrated; snapshots then fall back to a palette
// color derived from the user id.
type userState struct {
	Score int
	Color string

	// conns counts live connections, pending ones included. The entry
	// is evicted when it reaches zero, so the next connection
	// re-hydrates from storage.
	conns int
}

// ensureUser returns the cached state for a user, creating it and
// kicking off hydration on the user's first connection. Hydration runs
// off the world goroutine and merges back in as a command.
func (w *World) ensureUser(userID string) *userState {
	if us, ok := w.users[userID]; ok {
		return us
	}
	us := &userState{}
	w.users[userID] = us
	w.hydrate(userID)
	return us
}

func (w *World) hydrate(userID string) {
	if w.persist == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), hydrateTimeout)
		defer cancel()

		u, found, err := w.persist.Load(ctx, userID)
		if err != nil {
			log.Printf("💾 hydration failed for user %s: %v", userID, err)
			return
		}
		w.post(hydratedCmd{userID: userID, user: u, found: found})
	}()
}

// handleHydrated merges a completed storage load into the cache. Score
// takes the max of memory and storage, tolerating the race where
// another connection scored before the load returned; color keeps the
// resident value when one was already set this session.
func (w *World) handleHydrated(c hydratedCmd) {
	us, ok := w.users[c.userID]
	if !ok || !c.found {
		return
	}
	changed := false
	if c.user.Score > us.Score {
		us.Score = c.user.Score
		changed = true
	}
	if us.Color == "" && c.user.Color != "" {
		us.Color = c.user.Color
		changed = true
	}
	if changed && w.userVisible(c.userID) {
		w.broadcastState()
	}
}

// userVisible reports whether any admitted player belongs to the user.
func (w *World) userVisible(userID string) bool {
	for _, p := range w.players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// releaseUser drops one connection reference and evicts the cache entry
// when it was the last.
func (w *World) releaseUser(userID string) {
	us, ok := w.users[userID]
	if !ok {
		return
	}
	us.conns--
	if us.conns <= 0 {
		delete(w.users, userID)
		log.Printf("🧹 evicted cached state for user %s", userID)
	}
}

// addScore credits points to a user and queues the delta for
// persistence.
func (w *World) addScore(userID string, points int) {
	us, ok := w.users[userID]
	if !ok {
		return
	}
	us.Score += points
	if w.persist != nil {
		w.persist.QueueAddScore(userID, points)
	}
}

// resetScore zeroes a user's score and persists the absolute overwrite.
func (w *World) resetScore(userID string) {
	us, ok := w.users[userID]
	if !ok {
		return
	}
	us.Score = 0
	if w.persist != nil {
		w.persist.QueueSetScore(userID, 0)
	}
}

// effectiveColor resolves the color rendered for a user.
func (w *World) effectiveColor(userID string) string {
	if us, ok := w.users[userID]; ok && us.Color != "" {
		return us.Color
	}
	return defaultColorFor(userID)
}
