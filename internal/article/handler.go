package article

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yourkin666/community/internal/apperr"
	"github.com/yourkin666/community/internal/auth"
	"github.com/yourkin666/community/internal/models"
	"github.com/yourkin666/community/internal/response"
)

// Handler holds the article endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Publish creates an article owned by the logged-in user.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		response.Error(w, r, apperr.Unauthorized(auth.MsgLoginRequired))
		return
	}

	var req models.ArticleRequest
	if err := response.Bind(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}

	a := req.Article()
	a.AuthorID = sess.UserID
	out, err := h.svc.Publish(r.Context(), a)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, "publish succeeded", out)
}

// Update edits an article owned by the logged-in user.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		response.Error(w, r, apperr.Unauthorized(auth.MsgLoginRequired))
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	var req models.ArticleRequest
	if err := response.Bind(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}

	out, err := h.svc.Edit(r.Context(), id, sess.UserID, req.Article())
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, "update succeeded", out)
}

// Delete removes an article owned by the logged-in user.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		response.Error(w, r, apperr.Unauthorized(auth.MsgLoginRequired))
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	deleted, err := h.svc.Delete(r.Context(), id, sess.UserID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if !deleted {
		response.Error(w, r, apperr.Persistence(MsgDeleteFailed, nil))
		return
	}
	response.OK(w, r, "delete succeeded", nil)
}

// Get returns an article and counts the view. The returned view count does
// not include this view.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	a, err := h.svc.View(r.Context(), id)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if a == nil {
		response.Error(w, r, apperr.NotFound(MsgNotFound))
		return
	}
	response.OK(w, r, "", a)
}

// ListPublished returns all published articles.
func (h *Handler) ListPublished(w http.ResponseWriter, r *http.Request) {
	articles, err := h.svc.FindPublished(r.Context())
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, "", nonNil(articles))
}

// ListMine returns every article of the logged-in user, drafts included.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		response.Error(w, r, apperr.Unauthorized(auth.MsgLoginRequired))
		return
	}

	articles, err := h.svc.FindByAuthor(r.Context(), sess.UserID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, "", nonNil(articles))
}

// ListByAuthor returns every article of the author in the path.
func (h *Handler) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID, err := idParam(r, "authorId")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	articles, err := h.svc.FindByAuthor(r.Context(), authorID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, "", nonNil(articles))
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid " + name)
	}
	return id, nil
}

// nonNil keeps empty lists serialized as [] instead of null.
func nonNil(articles []models.Article) []models.Article {
	if articles == nil {
		return []models.Article{}
	}
	return articles
}
