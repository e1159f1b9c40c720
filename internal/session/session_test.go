package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("test-signing-key")

func TestCodecRoundTrip(t *testing.T) {
	codec := NewCodec(testKey, time.Hour)

	blob, err := codec.Encode(Session{Email: "ann@example.com", IsLoggedIn: true})
	require.NoError(t, err)

	got, err := codec.Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, Session{Email: "ann@example.com", IsLoggedIn: true}, got)
	assert.True(t, got.Active())
}

func TestCodecDecodeFailures(t *testing.T) {
	codec := NewCodec(testKey, 0)

	foreign, err := NewCodec([]byte("another-key"), 0).Encode(Session{Email: "ann@example.com", IsLoggedIn: true})
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
		Email:            "ann@example.com",
		IsLoggedIn:       true,
	}).SignedString(testKey)
	require.NoError(t, err)

	tests := []struct {
		name string
		blob string
	}{
		{name: "absent", blob: ""},
		{name: "raw json", blob: `{"email":"ann@example.com","isLoggedIn":true}`},
		{name: "garbage", blob: "not.a.token"},
		{name: "wrong key", blob: foreign},
		{name: "expired", blob: expired},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := codec.Decode(test.blob)
			assert.Error(t, err)
			assert.Equal(t, Session{}, got)
			assert.False(t, got.Active())
		})
	}
}

func TestSessionActive(t *testing.T) {
	assert.False(t, Session{Email: "ann@example.com"}.Active())
	assert.False(t, Session{IsLoggedIn: true}.Active())
	assert.True(t, Session{Email: "ann@example.com", IsLoggedIn: true}.Active())
}

func TestReaderMiddleware(t *testing.T) {
	codec := NewCodec(testKey, 0)
	reader := NewReader(codec, "user")

	blob, err := codec.Encode(Session{Email: "ann@example.com", IsLoggedIn: true})
	require.NoError(t, err)

	var seen Session
	handler := reader.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		want    Session
	}{
		{
			name:    "cookie",
			prepare: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "user", Value: blob}) },
			want:    Session{Email: "ann@example.com", IsLoggedIn: true},
		},
		{
			name:    "authorization header",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+blob) },
			want:    Session{Email: "ann@example.com", IsLoggedIn: true},
		},
		{
			name:    "other cookie",
			prepare: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: blob}) },
			want:    Session{},
		},
		{
			name:    "broken cookie",
			prepare: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "user", Value: "broken"}) },
			want:    Session{},
		},
		{
			name:    "nothing",
			prepare: func(r *http.Request) {},
			want:    Session{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			seen = Session{Email: "stale"}
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			test.prepare(request)

			handler.ServeHTTP(httptest.NewRecorder(), request)

			assert.Equal(t, test.want, seen)
		})
	}
}

func TestFromContextWithoutSession(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, Session{}, FromContext(request.Context()))
}
