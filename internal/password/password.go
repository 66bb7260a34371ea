// Package password turns raw passwords into stored digests and checks them.
//
// New digests use a salted, slow KDF (argon2id or bcrypt). Unsalted MD5 hex
// digests, as written by older deployments of this service, are
// only accepted when legacy verification is switched on.
package password

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// Scheme names a digest algorithm for new passwords.
type Scheme string

const (
	Argon2id Scheme = "argon2id"
	Bcrypt   Scheme = "bcrypt"
)

var (
	ErrUnknownScheme = errors.New("password: unknown scheme")
	ErrUnknownDigest = errors.New("password: unrecognized digest format")
)

// Hasher hashes and verifies passwords.
type Hasher struct {
	scheme      Scheme
	argonParams *argon2id.Params
	bcryptCost  int
	allowLegacy bool
}

type Option func(*Hasher)

// WithArgon2Params overrides the argon2id cost parameters.
func WithArgon2Params(p *argon2id.Params) Option {
	return func(h *Hasher) { h.argonParams = p }
}

// WithBcryptCost overrides the bcrypt cost.
func WithBcryptCost(cost int) Option {
	return func(h *Hasher) { h.bcryptCost = cost }
}

// WithLegacyMD5 accepts unsalted MD5 hex digests on Verify.
func WithLegacyMD5() Option {
	return func(h *Hasher) { h.allowLegacy = true }
}

func New(scheme Scheme, opts ...Option) (*Hasher, error) {
	if scheme != Argon2id && scheme != Bcrypt {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
	h := &Hasher{
		scheme:      scheme,
		argonParams: argon2id.DefaultParams,
		bcryptCost:  bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Hash returns the digest to store for raw.
func (h *Hasher) Hash(raw string) (string, error) {
	switch h.scheme {
	case Bcrypt:
		b, err := bcrypt.GenerateFromPassword([]byte(raw), h.bcryptCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt hash: %w", err)
		}
		return string(b), nil
	default:
		digest, err := argon2id.CreateHash(raw, h.argonParams)
		if err != nil {
			return "", fmt.Errorf("argon2id hash: %w", err)
		}
		return digest, nil
	}
}

// Verify reports whether raw matches digest. The algorithm is picked from
// the digest itself, so rows written under another scheme keep working.
func (h *Hasher) Verify(raw, digest string) (bool, error) {
	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		match, _, err := argon2id.CheckHash(raw, digest)
		if err != nil {
			return false, fmt.Errorf("argon2id verify: %w", err)
		}
		return match, nil
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(raw))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("bcrypt verify: %w", err)
		}
		return true, nil
	case h.allowLegacy && isLegacyDigest(digest):
		want := legacyDigest(raw)
		return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(digest))) == 1, nil
	default:
		return false, ErrUnknownDigest
	}
}

func legacyDigest(raw string) string {
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func isLegacyDigest(s string) bool {
	if len(s) != md5.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
