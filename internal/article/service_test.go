package article

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourkin666/community/internal/activity"
	"github.com/yourkin666/community/internal/apperr"
	"github.com/yourkin666/community/internal/models"
	"github.com/yourkin666/community/internal/store/storetest"
)

type fixture struct {
	svc    *Service
	store  *storetest.Store
	events *storetest.Recorder
	alice  int64
	bob    int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	st := storetest.New()
	alice, err := st.InsertUser(ctx, &models.User{Username: "alice", Email: "a@x.com", Password: "d"})
	require.NoError(t, err)
	bob, err := st.InsertUser(ctx, &models.User{Username: "bob", Email: "b@x.com", Password: "d"})
	require.NoError(t, err)

	events := &storetest.Recorder{}
	return fixture{svc: NewService(st, events, nil), store: st, events: events, alice: alice, bob: bob}
}

func (f fixture) publish(t *testing.T, author int64, title, content string, status models.ArticleStatus) *models.Article {
	t.Helper()
	a, err := f.svc.Publish(context.Background(), &models.Article{
		Title: title, Content: content, AuthorID: author, Status: status,
	})
	require.NoError(t, err)
	return a
}

func TestPublishDefaults(t *testing.T) {
	f := newFixture(t)

	a, err := f.svc.Publish(context.Background(), &models.Article{
		Title: "T", Content: "short", AuthorID: f.alice, ViewCount: 99,
	})
	require.NoError(t, err)

	assert.NotZero(t, a.ID)
	assert.Equal(t, "short", a.Summary)
	assert.Equal(t, models.StatusDraft, a.Status)
	assert.Zero(t, a.ViewCount)
	require.NotNil(t, a.Author)
	assert.Equal(t, "alice", a.Author.Username)
	assert.True(t, f.events.HasType(activity.ArticlePublished))
}

func TestPublishDerivesLongSummary(t *testing.T) {
	f := newFixture(t)
	content := strings.Repeat("é", 120)

	a := f.publish(t, f.alice, "T", content, models.StatusPublished)

	assert.Equal(t, strings.Repeat("é", 100)+"...", a.Summary)
	assert.Equal(t, content, a.Content)
}

func TestPublishValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		in   models.Article
	}{
		{"missing title", models.Article{Content: "c"}},
		{"blank title", models.Article{Title: "  ", Content: "c"}},
		{"missing content", models.Article{Title: "t"}},
		{"bad status", models.Article{Title: "t", Content: "c", Status: "ARCHIVED"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			in.AuthorID = f.alice
			_, err := f.svc.Publish(context.Background(), &in)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestPublishUnknownAuthorIsPersistenceError(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Publish(context.Background(), &models.Article{Title: "t", Content: "c", AuthorID: 999})
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
	assert.Equal(t, MsgPublishFailed, apperr.PublicMessage(err))
}

func TestEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.publish(t, f.alice, "T", "body", models.StatusDraft)
	require.NoError(t, f.svc.IncrementViewCount(ctx, a.ID))

	out, err := f.svc.Edit(ctx, a.ID, f.alice, &models.Article{Title: "T2", AuthorID: f.bob, ViewCount: 50})
	require.NoError(t, err)

	assert.Equal(t, "T2", out.Title)
	assert.Equal(t, "body", out.Content)
	assert.Equal(t, "body", out.Summary)
	assert.Equal(t, models.StatusDraft, out.Status)
	assert.Equal(t, f.alice, out.AuthorID)
	assert.EqualValues(t, 1, out.ViewCount)
}

func TestEditOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.publish(t, f.alice, "T", "body", models.StatusPublished)

	_, err := f.svc.Edit(ctx, a.ID, f.bob, &models.Article{Title: "hijack"})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Equal(t, MsgForbiddenEdit, apperr.PublicMessage(err))

	_, err = f.svc.Edit(ctx, 999, f.alice, &models.Article{Title: "x"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	got, err := f.svc.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)
}

func TestUpdateMissingRowIsPersistenceError(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Update(context.Background(), &models.Article{ID: 404, Title: "t", Content: "c", AuthorID: f.alice})
	assert.Equal(t, MsgUpdateFailed, apperr.PublicMessage(err))
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.publish(t, f.alice, "T", "body", models.StatusPublished)

	_, err := f.svc.Delete(ctx, a.ID, f.bob)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Equal(t, MsgForbiddenDelete, apperr.PublicMessage(err))
	still, err := f.svc.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.NotNil(t, still)

	ok, err := f.svc.Delete(ctx, a.ID, f.alice)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, f.events.HasType(activity.ArticleDeleted))

	_, err = f.svc.Delete(ctx, a.ID, f.alice)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, MsgNotFound, apperr.PublicMessage(err))
}

func TestViewReturnsPreIncrementCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.publish(t, f.alice, "T", "body", models.StatusPublished)

	for want := int64(0); want < 3; want++ {
		got, err := f.svc.View(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.ViewCount)
	}

	after, err := f.svc.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, after.ViewCount)
	assert.Equal(t, "body", after.Content)

	missing, err := f.svc.View(ctx, 999)
	assert.NoError(t, err)
	assert.Nil(t, missing)
	assert.NoError(t, f.svc.IncrementViewCount(ctx, 999))
}

func TestConcurrentViewsAreNotLost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.publish(t, f.alice, "T", "body", models.StatusPublished)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.View(ctx, a.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := f.svc.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, n, got.ViewCount)
}

func TestListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.publish(t, f.alice, "draft", "c", models.StatusDraft)
	p1 := f.publish(t, f.alice, "p1", "c", models.StatusPublished)
	p2 := f.publish(t, f.bob, "p2", "c", models.StatusPublished)

	published, err := f.svc.FindPublished(ctx)
	require.NoError(t, err)
	require.Len(t, published, 2)
	assert.Equal(t, p2.ID, published[0].ID)
	assert.Equal(t, p1.ID, published[1].ID)

	mine, err := f.svc.FindByAuthor(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, p1.ID, mine[0].ID)
	assert.Equal(t, d.ID, mine[1].ID)

	none, err := f.svc.FindByAuthor(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, none)
}
