// Package activity describes the audit events emitted by the domain services.
package activity

import (
	"context"
	"time"
)

// Event types.
const (
	UserRegistered   = "user.registered"
	UserLoggedIn     = "user.logged_in"
	ProfileUpdated   = "user.profile_updated"
	AvatarUploaded   = "user.avatar_uploaded"
	ArticlePublished = "article.published"
	ArticleUpdated   = "article.updated"
	ArticleDeleted   = "article.deleted"
)

// Event is a single audit record.
type Event struct {
	Type      string            `json:"type"       bson:"type"`
	UserID    int64             `json:"user_id"    bson:"user_id"`
	ArticleID int64             `json:"article_id" bson:"article_id,omitempty"`
	Meta      map[string]string `json:"meta"       bson:"meta,omitempty"`
	At        time.Time         `json:"at"         bson:"at"`
}

// Recorder persists events. Implementations must not fail the caller:
// recording is best effort.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}
