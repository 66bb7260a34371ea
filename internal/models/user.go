package models

import (
	"net/http"
	"strings"
	"time"

	"github.com/yourkin666/community/internal/apperr"
)

// User represents a row in the users table.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // digest, never serialized
	Avatar    string    `json:"avatar"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RegisterRequest is the JSON body for POST /api/users/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
}

func (req *RegisterRequest) Bind(r *http.Request) error {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	switch {
	case req.Username == "":
		return apperr.Validation("username is required")
	case req.Email == "":
		return apperr.Validation("email is required")
	case !strings.Contains(req.Email, "@"):
		return apperr.Validation("email is invalid")
	case req.Password == "":
		return apperr.Validation("password is required")
	}
	return nil
}

// LoginRequest is the JSON body for POST /api/users/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (req *LoginRequest) Bind(r *http.Request) error {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return apperr.Validation("username and password are required")
	}
	return nil
}

// ProfileRequest is the JSON body for PUT /api/users/profile. Both fields
// replace the stored values verbatim.
type ProfileRequest struct {
	Avatar string `json:"avatar"`
	Bio    string `json:"bio"`
}

func (req *ProfileRequest) Bind(r *http.Request) error { return nil }
