package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourkin666/community/internal/apperr"
	"github.com/yourkin666/community/internal/models"
	"github.com/yourkin666/community/internal/response"
)

type fakeAccounts struct {
	users map[string]*models.User
}

func (f *fakeAccounts) Register(_ context.Context, req models.RegisterRequest) (*models.User, error) {
	if _, ok := f.users[req.Username]; ok {
		return nil, apperr.Conflict("username already exists")
	}
	u := &models.User{ID: int64(len(f.users) + 1), Username: req.Username, Email: req.Email}
	f.users[req.Username] = u
	return u, nil
}

func (f *fakeAccounts) Login(_ context.Context, username, password string) (*models.User, error) {
	u, ok := f.users[username]
	if !ok || password != "secret" {
		return nil, apperr.Auth("invalid username or password")
	}
	return u, nil
}

func (f *fakeAccounts) FindByID(_ context.Context, id int64) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func newHandler() (*Handler, *MemorySessionStore) {
	accounts := &fakeAccounts{users: map[string]*models.User{
		"alice": {ID: 1, Username: "alice", Email: "a@x.com"},
	}}
	sessions := NewMemorySessionStore(10, time.Hour)
	return NewHandler(accounts, sessions, CookieConfig{Secure: true, TTL: time.Hour}), sessions
}

func jsonRequest(method, body string) *http.Request {
	r := httptest.NewRequest(method, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func readEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, rec.Code, env.Code)
	return env
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	return nil
}

func TestLoginIssuesSecureCookie(t *testing.T) {
	h, sessions := newHandler()

	rec := httptest.NewRecorder()
	h.Login(rec, jsonRequest(http.MethodPost, `{"username":"alice","password":"secret"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	env := readEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "login succeeded", env.Message)

	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)

	sess, err := sessions.Get(context.Background(), c.Value)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, int64(1), sess.UserID)
}

func TestLoginFailure(t *testing.T) {
	h, sessions := newHandler()

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"wrong password", `{"username":"alice","password":"nope"}`, "invalid username or password"},
		{"unknown user", `{"username":"ghost","password":"secret"}`, "invalid username or password"},
		{"missing fields", `{"username":"alice"}`, "username and password are required"},
		{"malformed body", `{"username":`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Login(rec, jsonRequest(http.MethodPost, tt.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.msg, readEnvelope(t, rec).Message)
			assert.Nil(t, sessionCookie(rec))
		})
	}
	assert.Zero(t, sessions.Len())
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	h, sessions := newHandler()
	sess, err := sessions.Create(context.Background(), 1, "alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sess.Token})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.Equal(t, -1, c.MaxAge)
	assert.Zero(t, sessions.Len())

	rec = httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCurrent(t *testing.T) {
	h, _ := newHandler()

	rec := httptest.NewRecorder()
	h.Current(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MsgLoginRequired, readEnvelope(t, rec).Message)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithSession(req.Context(), &Session{UserID: 1}))
	rec = httptest.NewRecorder()
	h.Current(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	env := readEnvelope(t, rec)
	assert.Equal(t, "alice", env.Data.(map[string]any)["username"])

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithSession(req.Context(), &Session{UserID: 99}))
	rec = httptest.NewRecorder()
	h.Current(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MsgUserGone, readEnvelope(t, rec).Message)
}

func TestRegister(t *testing.T) {
	h, sessions := newHandler()

	rec := httptest.NewRecorder()
	h.Register(rec, jsonRequest(http.MethodPost, `{"username":"bob","email":"b@x.com","password":"pw"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "registration succeeded", readEnvelope(t, rec).Message)
	assert.Zero(t, sessions.Len())

	rec = httptest.NewRecorder()
	h.Register(rec, jsonRequest(http.MethodPost, `{"username":"bob","email":"c@x.com","password":"pw"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username already exists", readEnvelope(t, rec).Message)
}
