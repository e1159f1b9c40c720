// Package session reads the signed-in user's session blob. The blob is a
// signed JWT carried by the browser in a cookie (named after the session
// subject, "user" by default) or in the Authorization header. The package only
// reads and issues blobs; it never authenticates anyone.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/patric-chuzhbe/linkfy/internal/logger"
)

// Session is the persisted session record.
type Session struct {
	Email      string `json:"email"`
	IsLoggedIn bool   `json:"isLoggedIn"`
}

// Active reports whether the session allows querying the user's links.
func (s Session) Active() bool {
	return s.IsLoggedIn && s.Email != ""
}

// Claims is the JWT payload of a session blob.
type Claims struct {
	jwt.RegisteredClaims
	Email      string `json:"email"`
	IsLoggedIn bool   `json:"isLoggedIn"`
}

// ErrNoSession is returned when the request carries no session blob.
var ErrNoSession = errors.New("no session blob")

// Codec signs and verifies session blobs with an HMAC key.
type Codec struct {
	signingSecretKey []byte
	ttl              time.Duration
}

// NewCodec returns a Codec. A zero ttl issues blobs without expiry.
func NewCodec(signingSecretKey []byte, ttl time.Duration) *Codec {
	return &Codec{
		signingSecretKey: signingSecretKey,
		ttl:              ttl,
	}
}

// Encode issues a signed blob for the session.
func (c *Codec) Encode(s Session) (string, error) {
	claims := Claims{
		Email:      s.Email,
		IsLoggedIn: s.IsLoggedIn,
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(c.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(c.signingSecretKey)
}

// Decode verifies a blob and returns the session it carries. On any failure
// the zero Session is returned together with the error.
func (c *Codec) Decode(blob string) (Session, error) {
	blob = strings.TrimSpace(strings.TrimPrefix(blob, "Bearer "))
	if blob == "" {
		return Session{}, ErrNoSession
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		blob,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return c.signingSecretKey, nil
		},
	)
	if err != nil {
		return Session{}, err
	}
	if !token.Valid {
		return Session{}, errors.New("invalid session token")
	}

	return Session{Email: claims.Email, IsLoggedIn: claims.IsLoggedIn}, nil
}

type contextKey string

const sessionKey contextKey = "session"

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext returns the session stored by Reader, or the zero (signed out) Session.
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(sessionKey).(Session)
	return s
}

// Reader decodes the session blob once per request and puts the result in the
// request context. Unreadable blobs are treated as signed out.
type Reader struct {
	codec      *Codec
	cookieName string
}

// NewReader returns a Reader looking for the blob in the named cookie.
func NewReader(codec *Codec, cookieName string) *Reader {
	return &Reader{
		codec:      codec,
		cookieName: cookieName,
	}
}

// Read extracts the session of the request.
func (r *Reader) Read(request *http.Request) Session {
	s, err := r.codec.Decode(r.blob(request))
	if err != nil && !errors.Is(err, ErrNoSession) {
		logger.Log.Debugw("session blob rejected", "error", err)
	}

	return s
}

// Middleware stores the session of every request in its context.
func (r *Reader) Middleware(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		ctx := NewContext(request.Context(), r.Read(request))
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

func (r *Reader) blob(request *http.Request) string {
	if header := request.Header.Get("Authorization"); header != "" {
		return header
	}
	cookie, err := request.Cookie(r.cookieName)
	if err != nil {
		return ""
	}

	return cookie.Value
}
