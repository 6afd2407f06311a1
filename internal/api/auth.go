package api

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	// Session cookie name
	SessionCookieName = "overgrown_session"

	// Cookie settings
	CookieSecure   = false // Set to true in production with HTTPS
	CookieHTTPOnly = true
	CookieSameSite = http.SameSiteLaxMode
)

// Identity is the resolved owner of a connection. UserID is the stable
// key for score and color; the connection id is never derived from it.
type Identity struct {
	UserID string
	Name   string
}

// Authenticator resolves the identity behind an upgrade request. It is
// consulted exactly once per connection, before the upgrade, and must
// honor ctx cancellation.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (Identity, error)
}

// authenticateWithTimeout bounds an Authenticate call. The deadline is
// enforced with a select so even an implementation that ignores ctx
// cannot stall the upgrade path.
func authenticateWithTimeout(auth Authenticator, r *http.Request, timeout time.Duration) (Identity, error) {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	type result struct {
		id  Identity
		err error
	}
	done := make(chan result, 1)

	go func() {
		id, err := auth.Authenticate(ctx, r)
		done <- result{id: id, err: err}
	}()

	select {
	case res := <-done:
		return res.id, res.err
	case <-ctx.Done():
		return Identity{}, fmt.Errorf("authentication timed out: %w", ctx.Err())
	}
}

// sessionClaims is the signed cookie payload.
type sessionClaims struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	ExpiresAt int64  `json:"expiresAt"`
}

// SessionManager issues and verifies stateless HMAC-signed session
// cookies. It is the default Authenticator: the cookie carries the
// claims, the signature makes them tamper-evident, and no server-side
// session table is needed.
type SessionManager struct {
	secretKey []byte
	ttl       time.Duration
}

// NewSessionManager creates a session manager. An empty secret gets a
// random per-process key, which invalidates sessions across restarts.
func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			log.Printf("⚠️ Failed to generate session key, using fallback")
			key = []byte("overgrown-default-secret-key-32b")
		}
		log.Printf("🔐 SESSION_SECRET not set, sessions reset on restart")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{secretKey: key, ttl: ttl}
}

// Authenticate implements Authenticator from the session cookie.
func (sm *SessionManager) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return Identity{}, fmt.Errorf("no session cookie")
	}

	claims, err := sm.decodeCookie(cookie.Value)
	if err != nil {
		return Identity{}, err
	}

	if time.Now().UnixMilli() > claims.ExpiresAt {
		return Identity{}, fmt.Errorf("session expired")
	}

	return Identity{UserID: claims.UserID, Name: claims.Name}, nil
}

// IssueCookie signs a fresh session for id and sets it on the response.
func (sm *SessionManager) IssueCookie(w http.ResponseWriter, id Identity) {
	claims := sessionClaims{
		UserID:    id.UserID,
		Name:      id.Name,
		ExpiresAt: time.Now().Add(sm.ttl).UnixMilli(),
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sm.encodeCookie(claims),
		Path:     "/",
		MaxAge:   int(sm.ttl.Seconds()),
		HttpOnly: CookieHTTPOnly,
		Secure:   CookieSecure,
		SameSite: CookieSameSite,
	})
}

// ClearSessionCookie removes the session cookie
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: CookieHTTPOnly,
		Secure:   CookieSecure,
		SameSite: CookieSameSite,
	})
}

// encodeCookie creates a signed cookie value: base64(claims.signature)
func (sm *SessionManager) encodeCookie(claims sessionClaims) string {
	payload, _ := json.Marshal(claims)

	mac := hmac.New(sha256.New, sm.secretKey)
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	return base64.URLEncoding.EncodeToString([]byte(string(payload) + "." + signature))
}

// decodeCookie verifies the signature and extracts the claims
func (sm *SessionManager) decodeCookie(cookieValue string) (sessionClaims, error) {
	decoded, err := base64.URLEncoding.DecodeString(cookieValue)
	if err != nil {
		return sessionClaims{}, fmt.Errorf("invalid cookie encoding")
	}

	// Claims are JSON so the signature separator is the last dot
	idx := strings.LastIndex(string(decoded), ".")
	if idx < 0 {
		return sessionClaims{}, fmt.Errorf("invalid cookie format")
	}

	payload := decoded[:idx]
	providedSig := string(decoded[idx+1:])

	mac := hmac.New(sha256.New, sm.secretKey)
	mac.Write(payload)
	expectedSig := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(providedSig), []byte(expectedSig)) {
		return sessionClaims{}, fmt.Errorf("invalid cookie signature")
	}

	var claims sessionClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return sessionClaims{}, fmt.Errorf("invalid cookie payload")
	}

	return claims, nil
}

// HandleLogin issues a session cookie for development and self-hosted
// setups. A production deployment would swap the Authenticator for one
// backed by its real login system.
func (sm *SessionManager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		Name   string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, "Name is required", http.StatusBadRequest)
		return
	}

	// Stable default: the same name maps to the same user across
	// reconnects, so scores survive without a real account system.
	if req.UserID == "" {
		req.UserID = "user-" + strings.ToLower(strings.ReplaceAll(req.Name, " ", "-"))
	}

	id := Identity{UserID: req.UserID, Name: req.Name}
	sm.IssueCookie(w, id)

	log.Printf("🔐 session issued for %s (user %s)", id.Name, id.UserID)

	writeJSON(w, map[string]string{
		"userId": id.UserID,
		"name":   id.Name,
	})
}

// HandleLogout clears the session cookie
func (sm *SessionManager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sm.ClearSessionCookie(w)
	writeJSON(w, map[string]bool{"success": true})
}
