package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourkin666/community/internal/models"
)

const articleSelect = `
	SELECT a.id, a.title, a.content, a.summary, a.author_id, a.status, a.view_count,
	       a.created_at, a.updated_at, u.id, u.username, u.avatar
	FROM articles a
	JOIN users u ON u.id = a.author_id`

func scanArticle(row scanner) (*models.Article, error) {
	var (
		a      models.Article
		author models.Author
	)
	err := row.Scan(
		&a.ID, &a.Title, &a.Content, &a.Summary, &a.AuthorID, &a.Status, &a.ViewCount,
		&a.CreatedAt, &a.UpdatedAt, &author.ID, &author.Username, &author.Avatar,
	)
	if err != nil {
		return nil, translate(err)
	}
	a.Author = &author
	return &a, nil
}

func (s *PostgresStore) FindArticleByID(ctx context.Context, id int64) (*models.Article, error) {
	return scanArticle(s.pool.QueryRow(ctx, articleSelect+` WHERE a.id = $1`, id))
}

// FindPublishedArticles returns every PUBLISHED article, newest first.
func (s *PostgresStore) FindPublishedArticles(ctx context.Context) ([]models.Article, error) {
	return s.listArticles(ctx,
		articleSelect+` WHERE a.status = $1 ORDER BY a.created_at DESC, a.id DESC`,
		models.StatusPublished)
}

// FindArticlesByAuthor returns every article of authorID, newest first.
func (s *PostgresStore) FindArticlesByAuthor(ctx context.Context, authorID int64) ([]models.Article, error) {
	return s.listArticles(ctx,
		articleSelect+` WHERE a.author_id = $1 ORDER BY a.created_at DESC, a.id DESC`,
		authorID)
}

func (s *PostgresStore) listArticles(ctx context.Context, query string, args ...any) ([]models.Article, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	articles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Article, error) {
		a, err := scanArticle(row)
		if err != nil {
			return models.Article{}, err
		}
		return *a, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

// InsertArticle stores a and returns the generated id.
func (s *PostgresStore) InsertArticle(ctx context.Context, a *models.Article) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO articles (title, content, summary, author_id, status, view_count)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		a.Title, a.Content, a.Summary, a.AuthorID, a.Status, a.ViewCount,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert article: %w", translate(err))
	}
	return id, nil
}

// UpdateArticle rewrites the editable fields of a. The author and the view
// count are never touched here.
func (s *PostgresStore) UpdateArticle(ctx context.Context, a *models.Article) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE articles
		 SET title = $2, content = $3, summary = $4, status = $5, updated_at = NOW()
		 WHERE id = $1`,
		a.ID, a.Title, a.Content, a.Summary, a.Status,
	)
	if err != nil {
		return 0, fmt.Errorf("update article: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) DeleteArticle(ctx context.Context, id int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete article: %w", err)
	}
	return tag.RowsAffected(), nil
}

// IncrementViewCount bumps the counter in a single statement so concurrent
// readers never lose an update.
func (s *PostgresStore) IncrementViewCount(ctx context.Context, id int64) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE articles SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("increment view count: %w", err)
	}
	return tag.RowsAffected(), nil
}
