// Package session carries the logged-in identity in a signed cookie value.
//
// The cookie holds an HS256 token with the username and an expiry. Nothing is
// kept server-side, so logging out means clearing the cookie and an expired
// token is treated exactly like a missing one.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// ErrInvalidSession is returned for tokens that are malformed, tampered with
// or expired.
var ErrInvalidSession = errors.New("invalid session")

// Session is the authenticated state attached to a request.
type Session struct {
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type claims struct {
	Username string `json:"username"`
	jwt.StandardClaims
}

// Manager signs and verifies session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates a Manager signing with secret. Tokens stay valid for ttl.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL returns how long issued sessions stay valid.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a session for username and returns it with its signed token.
func (m *Manager) Issue(username string) (*Session, string, error) {
	now := time.Now()
	sess := &Session{
		Username:  username,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: username,
		StandardClaims: jwt.StandardClaims{
			Subject:   username,
			IssuedAt:  sess.IssuedAt.Unix(),
			ExpiresAt: sess.ExpiresAt.Unix(),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign session: %w", err)
	}
	return sess, signed, nil
}

// Parse verifies a signed token and returns the session it carries.
func (m *Manager) Parse(tokenString string) (*Session, error) {
	if tokenString == "" {
		return nil, ErrInvalidSession
	}

	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !token.Valid || c.Username == "" || c.ExpiresAt == 0 {
		return nil, ErrInvalidSession
	}

	return &Session{
		Username:  c.Username,
		IssuedAt:  time.Unix(c.IssuedAt, 0),
		ExpiresAt: time.Unix(c.ExpiresAt, 0),
	}, nil
}
