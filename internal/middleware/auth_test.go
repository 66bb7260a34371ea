package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yourkin666/community/internal/auth"
	"github.com/yourkin666/community/internal/response"
)

type brokenSessions struct{}

func (brokenSessions) Create(context.Context, int64, string) (*auth.Session, error) {
	return nil, errors.New("down")
}
func (brokenSessions) Get(context.Context, string) (*auth.Session, error) {
	return nil, errors.New("down")
}
func (brokenSessions) Delete(context.Context, string) error { return errors.New("down") }

func whoami(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Write([]byte(sess.Username))
}

func withCookie(r *http.Request, token string) *http.Request {
	r.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	return r
}

func TestLoadSession(t *testing.T) {
	sessions := auth.NewMemorySessionStore(10, time.Hour)
	sess, err := sessions.Create(context.Background(), 7, "alice")
	require.NoError(t, err)

	h := LoadSession(sessions)(http.HandlerFunc(whoami))

	tests := []struct {
		name   string
		req    *http.Request
		status int
		body   string
	}{
		{"no cookie", httptest.NewRequest(http.MethodGet, "/", nil), http.StatusNoContent, ""},
		{"unknown token", withCookie(httptest.NewRequest(http.MethodGet, "/", nil), "nope"), http.StatusNoContent, ""},
		{"valid token", withCookie(httptest.NewRequest(http.MethodGet, "/", nil), sess.Token), http.StatusOK, "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tt.req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestLoadSessionStoreFailureStaysAnonymous(t *testing.T) {
	h := LoadSession(brokenSessions{})(http.HandlerFunc(whoami))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withCookie(httptest.NewRequest(http.MethodGet, "/", nil), "tok"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	called := false
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, http.StatusUnauthorized, env.Code)
	assert.Equal(t, auth.MsgLoginRequired, env.Message)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithSession(req.Context(), &auth.Session{UserID: 1}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.True(t, called)
}

func TestLoggerLogsCompletedRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/health", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
}
