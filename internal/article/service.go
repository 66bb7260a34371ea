package article

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yourkin666/community/internal/activity"
	"github.com/yourkin666/community/internal/apperr"
	"github.com/yourkin666/community/internal/metrics"
	"github.com/yourkin666/community/internal/models"
	"github.com/yourkin666/community/internal/store"
)

// Client-facing messages.
const (
	MsgNotFound        = "article not found"
	MsgForbiddenEdit   = "no permission to modify this article"
	MsgForbiddenDelete = "no permission to delete this article"
	MsgPublishFailed   = "publish article failed"
	MsgUpdateFailed    = "update article failed"
	MsgDeleteFailed    = "delete article failed"
)

// Store defines the article persistence the service needs. Mutations
// report the number of rows affected.
type Store interface {
	FindArticleByID(ctx context.Context, id int64) (*models.Article, error)
	FindPublishedArticles(ctx context.Context) ([]models.Article, error)
	FindArticlesByAuthor(ctx context.Context, authorID int64) ([]models.Article, error)
	InsertArticle(ctx context.Context, a *models.Article) (int64, error)
	UpdateArticle(ctx context.Context, a *models.Article) (int64, error)
	DeleteArticle(ctx context.Context, id int64) (int64, error)
	IncrementViewCount(ctx context.Context, id int64) (int64, error)
}

// Service implements publishing, editing, deletion and view counting.
type Service struct {
	store  Store
	events activity.Recorder
	log    *zap.Logger
}

func NewService(store Store, events activity.Recorder, log *zap.Logger) *Service {
	if events == nil {
		events = activity.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, events: events, log: log}
}

// Publish stores a new article for a.AuthorID. The status defaults to
// DRAFT and the view count always starts at zero.
func (s *Service) Publish(ctx context.Context, a *models.Article) (*models.Article, error) {
	row := *a
	row.ID = 0
	row.ViewCount = 0
	row.Author = nil
	if row.Status == "" {
		row.Status = models.StatusDraft
	}
	if err := validate(&row); err != nil {
		return nil, err
	}
	row.Summary = summaryFor(row.Summary, row.Content)

	id, err := s.store.InsertArticle(ctx, &row)
	if err != nil || id == 0 {
		return nil, apperr.Persistence(MsgPublishFailed, err)
	}

	out, err := s.reload(ctx, id, MsgPublishFailed)
	if err != nil {
		return nil, err
	}
	s.log.Info("article published", zap.Int64("article_id", id), zap.Int64("author_id", row.AuthorID))
	s.events.Record(ctx, activity.Event{Type: activity.ArticlePublished, UserID: row.AuthorID, ArticleID: id})
	return out, nil
}

// Update rewrites the title, content, summary and status of a.ID. The
// author and the view count are never changed.
func (s *Service) Update(ctx context.Context, a *models.Article) (*models.Article, error) {
	row := *a
	if row.Status == "" {
		row.Status = models.StatusDraft
	}
	if err := validate(&row); err != nil {
		return nil, err
	}
	row.Summary = summaryFor(row.Summary, row.Content)

	n, err := s.store.UpdateArticle(ctx, &row)
	if err != nil || n == 0 {
		return nil, apperr.Persistence(MsgUpdateFailed, err)
	}

	out, err := s.reload(ctx, row.ID, MsgUpdateFailed)
	if err != nil {
		return nil, err
	}
	s.events.Record(ctx, activity.Event{Type: activity.ArticleUpdated, UserID: row.AuthorID, ArticleID: row.ID})
	return out, nil
}

// Edit applies changes to article id on behalf of userID. Empty title,
// content and status keep their current values; the id and author are
// taken from the stored row, never from changes.
func (s *Service) Edit(ctx context.Context, id, userID int64, changes *models.Article) (*models.Article, error) {
	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.NotFound(MsgNotFound)
	}
	if existing.AuthorID != userID {
		return nil, apperr.Forbidden(MsgForbiddenEdit)
	}

	merged := *changes
	merged.ID = id
	merged.AuthorID = userID
	if strings.TrimSpace(merged.Title) == "" {
		merged.Title = existing.Title
	}
	if merged.Content == "" {
		merged.Content = existing.Content
	}
	if merged.Status == "" {
		merged.Status = existing.Status
	}
	return s.Update(ctx, &merged)
}

// Delete removes article id if userID owns it. It reports whether a row
// was removed.
func (s *Service) Delete(ctx context.Context, id, userID int64) (bool, error) {
	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, apperr.NotFound(MsgNotFound)
	}
	if existing.AuthorID != userID {
		return false, apperr.Forbidden(MsgForbiddenDelete)
	}

	n, err := s.store.DeleteArticle(ctx, id)
	if err != nil {
		return false, apperr.Persistence(MsgDeleteFailed, err)
	}
	if n == 0 {
		return false, nil
	}
	s.events.Record(ctx, activity.Event{Type: activity.ArticleDeleted, UserID: userID, ArticleID: id})
	return true, nil
}

// IncrementViewCount adds one view to article id. A missing article is
// not an error.
func (s *Service) IncrementViewCount(ctx context.Context, id int64) error {
	n, err := s.store.IncrementViewCount(ctx, id)
	if err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}
	if n > 0 {
		metrics.ArticleViewed()
	}
	return nil
}

// View returns article id as it was before this view and counts the view.
// A failed increment is logged and does not fail the read.
func (s *Service) View(ctx context.Context, id int64) (*models.Article, error) {
	a, err := s.FindByID(ctx, id)
	if err != nil || a == nil {
		return a, err
	}
	if err := s.IncrementViewCount(ctx, id); err != nil {
		s.log.Warn("count article view", zap.Int64("article_id", id), zap.Error(err))
	}
	return a, nil
}

// FindByID returns the article, or nil if there is none.
func (s *Service) FindByID(ctx context.Context, id int64) (*models.Article, error) {
	a, err := s.store.FindArticleByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find article: %w", err)
	}
	return a, nil
}

// FindPublished returns every published article, newest first.
func (s *Service) FindPublished(ctx context.Context) ([]models.Article, error) {
	articles, err := s.store.FindPublishedArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("find published articles: %w", err)
	}
	return articles, nil
}

// FindByAuthor returns every article of authorID, drafts included,
// newest first.
func (s *Service) FindByAuthor(ctx context.Context, authorID int64) ([]models.Article, error) {
	articles, err := s.store.FindArticlesByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("find articles by author: %w", err)
	}
	return articles, nil
}

func (s *Service) reload(ctx context.Context, id int64, failMsg string) (*models.Article, error) {
	a, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.Persistence(failMsg, store.ErrNotFound)
	}
	return a, nil
}

func validate(a *models.Article) error {
	switch {
	case strings.TrimSpace(a.Title) == "":
		return apperr.Validation("title is required")
	case strings.TrimSpace(a.Content) == "":
		return apperr.Validation("content is required")
	case !a.Status.Valid():
		return apperr.Validation("status must be DRAFT or PUBLISHED")
	}
	return nil
}
