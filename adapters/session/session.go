// Package session provides stateless signed-cookie sessions using JWT.
// No session state is stored server-side; rotating the secret invalidates
// every outstanding token.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/artpar/contentgate/ports"
)

// Defaults.
const (
	DefaultCookieName = "contentgate-session"
	DefaultMaxAge     = 7 * 24 * time.Hour
	MinSecretLength   = 32

	issuer = "contentgate"
)

// Errors returned by Decode. Callers treat all of them as "no session".
var (
	ErrExpired = errors.New("session expired")
	ErrInvalid = errors.New("session invalid")
)

// Data is the content of a session: the authenticated item and the fields
// copied from it at sign-in.
type Data struct {
	ListKey string         `json:"listKey"`
	ItemID  string         `json:"itemId"`
	Data    map[string]any `json:"data"`
}

// claims is the token payload.
type claims struct {
	ListKey string         `json:"lk"`
	Data    map[string]any `json:"data,omitempty"`
	jwt.RegisteredClaims
}

// Config configures a Stateless session strategy.
type Config struct {
	Secret     string
	MaxAge     time.Duration
	CookieName string

	// Secure forces the Secure cookie attribute.
	Secure bool
}

// Stateless encodes sessions as HS256-signed tokens.
// Safe for concurrent use.
type Stateless struct {
	secret     []byte
	maxAge     time.Duration
	cookieName string
	secure     bool
	clock      ports.Clock
}

// New creates a session strategy. The secret must be at least 32 bytes.
func New(cfg Config, clock ports.Clock) (*Stateless, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes, got %d", MinSecretLength, len(cfg.Secret))
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	return &Stateless{
		secret:     []byte(cfg.Secret),
		maxAge:     cfg.MaxAge,
		cookieName: cfg.CookieName,
		secure:     cfg.Secure,
		clock:      clock,
	}, nil
}

// MaxAge returns the session lifetime.
func (s *Stateless) MaxAge() time.Duration {
	return s.maxAge
}

// Encode signs session data into a token.
func (s *Stateless) Encode(d Data) (string, time.Time, error) {
	now := s.clock.Now().UTC().Truncate(time.Second)
	expiresAt := now.Add(s.maxAge)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		ListKey: d.ListKey,
		Data:    d.Data,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   d.ItemID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, expiresAt, nil
}

// Decode verifies a token and returns its session data.
func (s *Stateless) Decode(token string) (Data, error) {
	if token == "" {
		return Data{}, ErrInvalid
	}

	var c claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Data{}, ErrExpired
	case err != nil:
		return Data{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if c.Subject == "" || c.ListKey == "" {
		return Data{}, ErrInvalid
	}

	return Data{ListKey: c.ListKey, ItemID: c.Subject, Data: c.Data}, nil
}

// Reason classifies a Decode error for metrics.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrExpired):
		return "expired"
	case err != nil:
		return "invalid"
	}
	return ""
}

// SetCookie writes the session cookie.
func (s *Stateless) SetCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.maxAge.Seconds()),
		Expires:  s.clock.Now().Add(s.maxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.isSecure(r),
	})
}

// ClearCookie expires the session cookie.
func (s *Stateless) ClearCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.isSecure(r),
	})
}

// FromRequest returns the session token of a request, read from the cookie
// or an "Authorization: Bearer" header.
func (s *Stateless) FromRequest(r *http.Request) string {
	if c, err := r.Cookie(s.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// isSecure reports whether the request arrived over HTTPS, directly or
// through a proxy.
func (s *Stateless) isSecure(r *http.Request) bool {
	if s.secure {
		return true
	}
	if r == nil {
		return false
	}
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
