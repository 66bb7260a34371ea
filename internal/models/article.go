package models

import (
	"net/http"
	"strings"
	"time"

	"github.com/yourkin666/community/internal/apperr"
)

// ArticleStatus is the publication state of an article.
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "DRAFT"
	StatusPublished ArticleStatus = "PUBLISHED"
)

func (s ArticleStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Author is the read-only snapshot of an article's owner.
type Author struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Article represents a row in the articles table.
type Article struct {
	ID        int64         `json:"id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Summary   string        `json:"summary"`
	AuthorID  int64         `json:"authorId"`
	Status    ArticleStatus `json:"status"`
	ViewCount int64         `json:"viewCount"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Author    *Author       `json:"author,omitempty"`
}

// ArticleRequest is the JSON body for publishing and updating articles.
// Identity fields sent by the client (id, authorId, viewCount) are not
// part of it and are always decided by the server.
type ArticleRequest struct {
	Title   string        `json:"title"`
	Content string        `json:"content"`
	Summary string        `json:"summary"`
	Status  ArticleStatus `json:"status"`
}

func (req *ArticleRequest) Bind(r *http.Request) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Status = ArticleStatus(strings.ToUpper(strings.TrimSpace(string(req.Status))))
	if req.Status != "" && !req.Status.Valid() {
		return apperr.Validation("status must be DRAFT or PUBLISHED")
	}
	return nil
}

// Article converts the request into an unsaved article.
func (req *ArticleRequest) Article() *Article {
	return &Article{
		Title:   req.Title,
		Content: req.Content,
		Summary: req.Summary,
		Status:  req.Status,
	}
}
