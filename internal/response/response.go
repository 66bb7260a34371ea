// Package response renders the uniform {success, message, data, code}
// envelope returned by every API endpoint.
package response

import (
	"net/http"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/yourkin666/community/internal/apperr"
	"github.com/yourkin666/community/internal/logging"
)

const defaultMessage = "ok"

// Envelope wraps every API response. Code mirrors the HTTP status.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Code    int    `json:"code"`
}

func (e *Envelope) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.Code)
	return nil
}

// OK writes a 200 envelope. An empty message falls back to "ok".
func OK(w http.ResponseWriter, r *http.Request, message string, data any) {
	if message == "" {
		message = defaultMessage
	}
	write(w, r, &Envelope{Success: true, Message: message, Data: data, Code: http.StatusOK})
}

// Error maps err onto an error envelope. Server-side failures are logged
// with their cause; the client only sees the public message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.Status(err)
	if code >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed",
			zap.String("kind", apperr.KindOf(err).String()),
			zap.Error(err),
		)
	}
	write(w, r, &Envelope{Success: false, Message: apperr.PublicMessage(err), Code: code})
}

// Bind decodes the request body into v and runs its Bind hook. Decoding
// failures become validation errors.
func Bind(r *http.Request, v render.Binder) error {
	if err := render.Bind(r, v); err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return err
		}
		return apperr.Wrap(apperr.KindValidation, "invalid request body", err)
	}
	return nil
}

func write(w http.ResponseWriter, r *http.Request, env *Envelope) {
	if err := render.Render(w, r, env); err != nil {
		logging.FromContext(r.Context()).Error("render response", zap.Error(err))
	}
}
