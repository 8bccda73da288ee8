package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"
	"todolist/internal/models/user"
	repo "todolist/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (s *Storage) CreateUser(ctx context.Context, userToCreate *user.User) error {
	start := time.Now()
	defer observe("create user", start)

	query := `INSERT INTO users (uuid, username, password_hash, created_at)
				VALUES ($1, $2, $3, $4)`

	_, err := s.q(ctx).Exec(ctx, query,
		userToCreate.UUID,
		userToCreate.Username,
		userToCreate.PasswordHash,
		userToCreate.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.getUser(ctx, `WHERE uuid = $1`, id)
}

func (s *Storage) GetUserByName(ctx context.Context, username string) (*user.User, error) {
	return s.getUser(ctx, `WHERE username = $1`, username)
}

func (s *Storage) getUser(ctx context.Context, where string, arg any) (*user.User, error) {
	start := time.Now()
	defer observe("get user", start)

	u := &user.User{}
	err := s.q(ctx).QueryRow(ctx, `SELECT uuid, username, password_hash, created_at FROM users `+where, arg).
		Scan(&u.UUID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
