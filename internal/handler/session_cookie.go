package handler

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName carries the signed browser session id.
const SessionCookieName = "luct_session"

// CookieCodec signs and verifies the browser session cookie. The cookie
// holds only an opaque session id; the backend bearer token never leaves
// the server side.
type CookieCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewCookieCodec builds a codec with the shared HMAC secret.
func NewCookieCodec(secret string, ttl time.Duration) *CookieCodec {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CookieCodec{secret: []byte(secret), ttl: ttl}
}

// TTL exposes the cookie lifetime.
func (c *CookieCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for the given session id.
func (c *CookieCodec) Issue(sid string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Parse verifies the token and returns the embedded session id.
func (c *CookieCodec) Parse(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid session token")
	}
	return claims.Subject, nil
}
