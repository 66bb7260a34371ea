package user

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yourkin666/community/internal/activity"
	"github.com/yourkin666/community/internal/apperr"
	"github.com/yourkin666/community/internal/auth"
	"github.com/yourkin666/community/internal/logging"
	"github.com/yourkin666/community/internal/models"
	"github.com/yourkin666/community/internal/response"
)

const (
	maxAvatarBytes       = 2 << 20
	avatarFormField      = "file"
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

// ActivityReader lists a user's recorded events, newest first.
type ActivityReader interface {
	ListByUser(ctx context.Context, userID int64, limit int64) ([]activity.Event, error)
}

// Handler holds the profile endpoints.
type Handler struct {
	svc     *Service
	history ActivityReader
}

// NewHandler builds the profile endpoints. history may be nil when no
// activity log is configured.
func NewHandler(svc *Service, history ActivityReader) *Handler {
	return &Handler{svc: svc, history: history}
}

// UpdateProfile replaces the avatar and bio of the logged-in user.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		response.Error(w, r, apperr.Unauthorized(auth.MsgLoginRequired))
		return
	}

	var req models.ProfileRequest
	if err := response.Bind(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}

	existing, err := h.svc.FindByID(r.Context(), sess.UserID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if existing == nil {
		response.Error(w, r, apperr.Unauthorized(auth.MsgUserGone))
		return
	}

	updated, err := h.svc.UpdateProfile(r.Context(), sess.UserID, req.Avatar, req.Bio)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if !updated {
		response.Error(w, r, apperr.Persistence("update failed", nil))
		return
	}

	user, err := h.svc.FindByID(r.Context(), sess.UserID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, "update succeeded", user)
}

// UploadAvatar accepts a multipart image in the "file" field and makes it
// the logged-in user's avatar.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		response.Error(w, r, apperr.Unauthorized(auth.MsgLoginRequired))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+1<<10)
	file, _, err := r.FormFile(avatarFormField)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			response.Error(w, r, apperr.Validation("avatar is too large"))
			return
		}
		response.Error(w, r, apperr.Wrap(apperr.KindValidation, "multipart field \"file\" is required", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil {
		response.Error(w, r, apperr.Wrap(apperr.KindValidation, "unreadable upload", err))
		return
	}
	if len(data) > maxAvatarBytes {
		response.Error(w, r, apperr.Validation("avatar is too large"))
		return
	}

	user, err := h.svc.SetAvatar(r.Context(), sess.UserID, data, http.DetectContentType(data))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, "avatar updated", user)
}

// Avatar streams a stored avatar image.
func (h *Handler) Avatar(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" || strings.Contains(key, "..") {
		response.Error(w, r, apperr.NotFound("avatar not found"))
		return
	}

	data, contentType, err := h.svc.Avatar(r.Context(), key)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	if _, err := w.Write(data); err != nil {
		logging.FromContext(r.Context()).Warn("write avatar", zap.Error(err))
	}
}

// GetByUsername returns the public view of a user.
func (h *Handler) GetByUsername(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.FindByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if user == nil {
		response.Error(w, r, apperr.NotFound("user not found"))
		return
	}
	response.OK(w, r, "", user)
}

// Activity lists the logged-in user's recent events. The optional limit
// query parameter is capped.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		response.Error(w, r, apperr.Unauthorized(auth.MsgLoginRequired))
		return
	}
	if h.history == nil {
		response.OK(w, r, "", []activity.Event{})
		return
	}

	limit := int64(defaultActivityLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			response.Error(w, r, apperr.Validation("limit must be a positive integer"))
			return
		}
		limit = min(n, maxActivityLimit)
	}

	events, err := h.history.ListByUser(r.Context(), sess.UserID, limit)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if events == nil {
		events = []activity.Event{}
	}
	response.OK(w, r, "", events)
}
