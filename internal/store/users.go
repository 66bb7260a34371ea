package store

import (
	"context"
	"fmt"

	"github.com/yourkin666/community/internal/models"
)

const userColumns = `id, username, email, password, avatar, bio, created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Avatar, &u.Bio, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *PostgresStore) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *PostgresStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (s *PostgresStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// InsertUser stores u and returns the generated id.
func (s *PostgresStore) InsertUser(ctx context.Context, u *models.User) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password, avatar, bio)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		u.Username, u.Email, u.Password, u.Avatar, u.Bio,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", translate(err))
	}
	return id, nil
}

// UpdateUser rewrites the mutable profile fields of u and returns the
// number of rows affected.
func (s *PostgresStore) UpdateUser(ctx context.Context, u *models.User) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET avatar = $2, bio = $3, updated_at = NOW() WHERE id = $1`,
		u.ID, u.Avatar, u.Bio,
	)
	if err != nil {
		return 0, fmt.Errorf("update user: %w", err)
	}
	return tag.RowsAffected(), nil
}
