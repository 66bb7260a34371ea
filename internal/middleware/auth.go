package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yourkin666/community/internal/apperr"
	"github.com/yourkin666/community/internal/auth"
	"github.com/yourkin666/community/internal/logging"
	"github.com/yourkin666/community/internal/response"
)

// LoadSession resolves the session cookie, when present, and puts the
// session into the request context. It never rejects a request: an
// unknown, expired or unreadable token leaves the request anonymous.
func LoadSession(sessions auth.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := sessions.Get(r.Context(), token)
			if err != nil {
				logging.FromContext(r.Context()).Warn("resolve session", zap.Error(err))
			}
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}

			log := logging.FromContext(r.Context()).With(zap.Int64("user_id", sess.UserID))
			ctx := logging.WithLogger(auth.WithSession(r.Context(), sess), log)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth answers 401 unless LoadSession found a session.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.SessionFromContext(r.Context()); !ok {
			response.Error(w, r, apperr.Unauthorized(auth.MsgLoginRequired))
			return
		}
		next.ServeHTTP(w, r)
	})
}
