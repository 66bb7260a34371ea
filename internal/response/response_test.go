package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourkin666/community/internal/apperr"
)

type payload struct {
	Name string `json:"name"`
}

func (p *payload) Bind(r *http.Request) error {
	if p.Name == "" {
		return apperr.Validation("name is required")
	}
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	OK(rec, req, "", map[string]int{"id": 7})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ok", body["message"])
	assert.Equal(t, float64(200), body["code"])
	assert.Equal(t, map[string]any{"id": float64(7)}, body["data"])
}

func TestErrorUsesPublicMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/", nil)

	Error(rec, req, apperr.Forbidden("no permission to delete this article"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "no permission to delete this article", body["message"])
	assert.Nil(t, body["data"])
	assert.Equal(t, float64(403), body["code"])
}

func TestErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	Error(rec, req, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Equal(t, "internal server error", decode(t, rec)["message"])
}

func TestBind(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")

		err := Bind(req, &payload{})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		assert.Equal(t, "invalid request body", apperr.PublicMessage(err))
	})

	t.Run("hook error kept", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":""}`))
		req.Header.Set("Content-Type", "application/json")

		err := Bind(req, &payload{})
		assert.Equal(t, "name is required", apperr.PublicMessage(err))
	})

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"alice"}`))
		req.Header.Set("Content-Type", "application/json")

		var p payload
		require.NoError(t, Bind(req, &p))
		assert.Equal(t, "alice", p.Name)
	})
}
