package auth

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/yourkin666/community/internal/apperr"
	"github.com/yourkin666/community/internal/logging"
	"github.com/yourkin666/community/internal/models"
	"github.com/yourkin666/community/internal/response"
)

// Accounts is the slice of the user service the auth endpoints need.
type Accounts interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// Handler holds the session lifecycle endpoints.
type Handler struct {
	accounts Accounts
	sessions SessionStore
	cookie   CookieConfig
}

func NewHandler(accounts Accounts, sessions SessionStore, cookie CookieConfig) *Handler {
	return &Handler{accounts: accounts, sessions: sessions, cookie: cookie}
}

// Register creates a new user. It does not log the user in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := response.Bind(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, "registration succeeded", user)
}

// Login verifies credentials and issues a fresh session. A session token
// already held by the client is revoked first.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := response.Bind(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}

	user, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	if old := TokenFromRequest(r); old != "" {
		if err := h.sessions.Delete(r.Context(), old); err != nil {
			logging.FromContext(r.Context()).Warn("revoke previous session", zap.Error(err))
		}
	}

	sess, err := h.sessions.Create(r.Context(), user.ID, user.Username)
	if err != nil {
		response.Error(w, r, apperr.Wrap(apperr.KindInternal, "session creation failed", err))
		return
	}

	h.cookie.SetCookie(w, sess)
	response.OK(w, r, "login succeeded", user)
}

// Logout destroys the current session, if any, and always succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := TokenFromRequest(r); token != "" {
		if err := h.sessions.Delete(r.Context(), token); err != nil {
			logging.FromContext(r.Context()).Warn("delete session", zap.Error(err))
		}
	}

	h.cookie.ClearCookie(w)
	response.OK(w, r, "logout succeeded", nil)
}

// Current returns the user behind the session. A session whose user no
// longer exists is treated as unauthenticated.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		response.Error(w, r, apperr.Unauthorized(MsgLoginRequired))
		return
	}

	user, err := h.accounts.FindByID(r.Context(), sess.UserID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if user == nil {
		response.Error(w, r, apperr.Unauthorized(MsgUserGone))
		return
	}
	response.OK(w, r, "", user)
}

// Client-facing messages shared with the middleware and other handlers.
const (
	MsgLoginRequired = "please log in first"
	MsgUserGone      = "user not found"
)
