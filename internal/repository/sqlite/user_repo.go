package sqlite

import (
	"context"
	"fmt"
	"todolist/internal/models/user"

	"github.com/google/uuid"
)

func (s *Storage) CreateUser(ctx context.Context, userToCreate *user.User) error {
	if err := s.conn(ctx).Create(toUserRecord(userToCreate)).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var rec userRecord
	if err := s.conn(ctx).First(&rec, "uuid = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("get user: %w", translate(err))
	}
	return rec.toModel()
}

func (s *Storage) GetUserByName(ctx context.Context, username string) (*user.User, error) {
	var rec userRecord
	if err := s.conn(ctx).First(&rec, "username = ?", username).Error; err != nil {
		return nil, fmt.Errorf("get user: %w", translate(err))
	}
	return rec.toModel()
}
