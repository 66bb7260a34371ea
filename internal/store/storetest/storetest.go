// Package storetest provides in-memory stand-ins for the store package,
// for tests that exercise services and handlers without external services.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yourkin666/community/internal/activity"
	"github.com/yourkin666/community/internal/models"
	"github.com/yourkin666/community/internal/store"
)

// Store mirrors the method set of store.PostgresStore for users and
// articles. Uniqueness and missing-row behavior follow the SQL schema.
type Store struct {
	mu       sync.Mutex
	users    map[int64]models.User
	articles map[int64]models.Article
	nextUser int64
	nextArt  int64
	now      func() time.Time
}

func New() *Store {
	return &Store{
		users:    make(map[int64]models.User),
		articles: make(map[int64]models.Article),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Username == username })
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Email == email })
}

func (s *Store) findUser(match func(models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) InsertUser(_ context.Context, u *models.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return 0, store.ErrDuplicate
		}
	}
	s.nextUser++
	row := *u
	row.ID = s.nextUser
	row.CreatedAt = s.now()
	row.UpdatedAt = row.CreatedAt
	s.users[row.ID] = row
	return row.ID, nil
}

func (s *Store) UpdateUser(_ context.Context, u *models.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.users[u.ID]
	if !ok {
		return 0, nil
	}
	row.Avatar = u.Avatar
	row.Bio = u.Bio
	row.UpdatedAt = s.now()
	s.users[row.ID] = row
	return 1, nil
}

// DeleteUser removes a user row. The API never does this; tests use it to
// simulate an account disappearing under a live session.
func (s *Store) DeleteUser(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

func (s *Store) FindArticleByID(_ context.Context, id int64) (*models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.withAuthor(a), nil
}

func (s *Store) FindPublishedArticles(_ context.Context) ([]models.Article, error) {
	return s.listArticles(func(a models.Article) bool { return a.Status == models.StatusPublished }), nil
}

func (s *Store) FindArticlesByAuthor(_ context.Context, authorID int64) ([]models.Article, error) {
	return s.listArticles(func(a models.Article) bool { return a.AuthorID == authorID }), nil
}

func (s *Store) listArticles(match func(models.Article) bool) []models.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Article{}
	for _, a := range s.articles {
		if match(a) {
			out = append(out, *s.withAuthor(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) withAuthor(a models.Article) *models.Article {
	if u, ok := s.users[a.AuthorID]; ok {
		a.Author = &models.Author{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
	}
	return &a
}

func (s *Store) InsertArticle(_ context.Context, a *models.Article) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[a.AuthorID]; !ok {
		// foreign key violation
		return 0, store.ErrNotFound
	}
	s.nextArt++
	row := *a
	row.ID = s.nextArt
	row.Author = nil
	row.CreatedAt = s.now()
	row.UpdatedAt = row.CreatedAt
	s.articles[row.ID] = row
	return row.ID, nil
}

func (s *Store) UpdateArticle(_ context.Context, a *models.Article) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.articles[a.ID]
	if !ok {
		return 0, nil
	}
	row.Title = a.Title
	row.Content = a.Content
	row.Summary = a.Summary
	row.Status = a.Status
	row.UpdatedAt = s.now()
	s.articles[row.ID] = row
	return 1, nil
}

func (s *Store) DeleteArticle(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[id]; !ok {
		return 0, nil
	}
	delete(s.articles, id)
	return 1, nil
}

func (s *Store) IncrementViewCount(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.articles[id]
	if !ok {
		return 0, nil
	}
	row.ViewCount++
	s.articles[id] = row
	return 1, nil
}

// Files is an in-memory avatar object store.
type Files struct {
	mu      sync.Mutex
	objects map[string]object
}

type object struct {
	data        []byte
	contentType string
}

func NewFiles() *Files {
	return &Files{objects: make(map[string]object)}
}

func (f *Files) Upload(_ context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = object{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

func (f *Files) Download(_ context.Context, key string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[key]
	if !ok {
		return nil, "", store.ErrNotFound
	}
	return o.data, o.contentType, nil
}

// Keys returns the stored object keys in sorted order.
func (f *Files) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Recorder keeps every recorded activity event in memory and serves them
// back newest first.
type Recorder struct {
	mu     sync.Mutex
	events []activity.Event
}

func (r *Recorder) Record(_ context.Context, e activity.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	r.events = append(r.events, e)
}

func (r *Recorder) ListByUser(_ context.Context, userID int64, limit int64) ([]activity.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []activity.Event
	for i := len(r.events) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if r.events[i].UserID == userID {
			out = append(out, r.events[i])
		}
	}
	return out, nil
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

// HasType reports whether an event of the given type was recorded.
func (r *Recorder) HasType(t string) bool {
	for _, got := range r.Types() {
		if strings.EqualFold(got, t) {
			return true
		}
	}
	return false
}
