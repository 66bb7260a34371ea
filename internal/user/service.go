package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourkin666/community/internal/activity"
	"github.com/yourkin666/community/internal/apperr"
	"github.com/yourkin666/community/internal/metrics"
	"github.com/yourkin666/community/internal/models"
	"github.com/yourkin666/community/internal/store"
)

// MsgBadCredentials is returned for every failed login so callers cannot
// tell an unknown username from a wrong password.
const MsgBadCredentials = "invalid username or password"

// AvatarPath is the public URL prefix avatars are served under.
const AvatarPath = "/api/avatars/"

// Store defines the user persistence the service needs.
type Store interface {
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	InsertUser(ctx context.Context, u *models.User) (int64, error)
	UpdateUser(ctx context.Context, u *models.User) (int64, error)
}

// PasswordHasher turns raw passwords into digests and checks them.
type PasswordHasher interface {
	Hash(raw string) (string, error)
	Verify(raw, digest string) (bool, error)
}

// FileStore keeps uploaded avatar images.
type FileStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
}

// Service implements account registration, login and profile changes.
type Service struct {
	store  Store
	hasher PasswordHasher
	files  FileStore
	events activity.Recorder
	log    *zap.Logger
}

// NewService wires the user service. files may be nil, in which case
// avatar upload is unavailable; events may be nil to disable auditing.
func NewService(store Store, hasher PasswordHasher, files FileStore, events activity.Recorder, log *zap.Logger) *Service {
	if events == nil {
		events = activity.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, hasher: hasher, files: files, events: events, log: log}
}

// Register creates an account. Username and email must both be unused.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	existing, err := s.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("username already exists")
	}

	existing, err = orNil(s.store.FindUserByEmail(ctx, req.Email))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("email already registered")
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.store.InsertUser(ctx, &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: digest,
		Bio:      req.Bio,
	})
	if errors.Is(err, store.ErrDuplicate) {
		// lost a race with a concurrent registration
		return nil, apperr.Conflict("username or email already exists")
	}
	if err != nil {
		return nil, apperr.Persistence("registration failed", err)
	}

	user, err := s.reload(ctx, id, "registration failed")
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	s.events.Record(ctx, activity.Event{Type: activity.UserRegistered, UserID: user.ID})
	return user, nil
}

// Login checks the credentials and returns the account.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		metrics.LoginAttempt(false)
		return nil, apperr.Auth(MsgBadCredentials)
	}

	ok, err := s.hasher.Verify(password, user.Password)
	if err != nil {
		// unreadable digest: log it, but answer like any wrong password
		s.log.Warn("verify password", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	if !ok {
		metrics.LoginAttempt(false)
		return nil, apperr.Auth(MsgBadCredentials)
	}

	metrics.LoginAttempt(true)
	s.events.Record(ctx, activity.Event{Type: activity.UserLoggedIn, UserID: user.ID})
	return user, nil
}

// FindByID returns the user, or nil if there is none.
func (s *Service) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return orNil(s.store.FindUserByID(ctx, id))
}

// FindByUsername returns the user, or nil if there is none.
func (s *Service) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return orNil(s.store.FindUserByUsername(ctx, username))
}

// UpdateProfile replaces the avatar and bio of the user. It reports
// whether a row was changed.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, avatar, bio string) (bool, error) {
	n, err := s.store.UpdateUser(ctx, &models.User{ID: userID, Avatar: avatar, Bio: bio})
	if err != nil {
		return false, apperr.Persistence("update failed", err)
	}
	if n == 0 {
		return false, nil
	}
	s.events.Record(ctx, activity.Event{Type: activity.ProfileUpdated, UserID: userID})
	return true, nil
}

// SetAvatar stores an uploaded image and points the user's avatar at it.
// The bio is left as it is.
func (s *Service) SetAvatar(ctx context.Context, userID int64, data []byte, contentType string) (*models.User, error) {
	if s.files == nil {
		return nil, apperr.New(apperr.KindInternal, "avatar storage is not configured")
	}
	ext, ok := imageTypes[contentType]
	if !ok {
		return nil, apperr.Validation("avatar must be a png, jpeg, gif or webp image")
	}

	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Unauthorized("user not found")
	}

	key := strconv.FormatInt(userID, 10) + "/" + uuid.NewString() + ext
	if err := s.files.Upload(ctx, key, data, contentType); err != nil {
		return nil, apperr.Persistence("avatar upload failed", err)
	}

	ok, err = s.UpdateProfile(ctx, userID, AvatarPath+key, user.Bio)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Persistence("avatar upload failed", nil)
	}
	s.events.Record(ctx, activity.Event{
		Type:   activity.AvatarUploaded,
		UserID: userID,
		Meta:   map[string]string{"key": key},
	})
	return s.reload(ctx, userID, "avatar upload failed")
}

// Avatar returns a stored avatar image by key.
func (s *Service) Avatar(ctx context.Context, key string) ([]byte, string, error) {
	if s.files == nil {
		return nil, "", apperr.NotFound("avatar not found")
	}
	data, contentType, err := s.files.Download(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", apperr.NotFound("avatar not found")
	}
	if err != nil {
		return nil, "", fmt.Errorf("download avatar: %w", err)
	}
	return data, contentType, nil
}

// AvatarsEnabled reports whether an object store is configured.
func (s *Service) AvatarsEnabled() bool { return s.files != nil }

// orNil maps a missing row to a nil user.
func orNil(user *models.User, err error) (*models.User, error) {
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *Service) reload(ctx context.Context, id int64, failMsg string) (*models.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Persistence(failMsg, store.ErrNotFound)
	}
	return user, nil
}

var imageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}
