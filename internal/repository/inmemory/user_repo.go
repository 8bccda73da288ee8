package inmemory

import (
	"context"
	"todolist/internal/models/user"
	repo "todolist/internal/repository"

	"github.com/google/uuid"
)

func (s *Storage) CreateUser(ctx context.Context, userToCreate *user.User) error {
	defer s.beginWrite(ctx)()
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.usernames[userToCreate.Username]; ok {
		return repo.ErrAlreadyExists
	}
	if _, ok := s.users[userToCreate.UUID]; ok {
		return repo.ErrAlreadyExists
	}

	u := *userToCreate
	s.users[u.UUID] = &u
	s.usernames[u.Username] = u.UUID
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stored, ok := s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	u := *stored
	return &u, nil
}

func (s *Storage) GetUserByName(ctx context.Context, username string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return nil, repo.ErrNotFound
	}
	u := *s.users[id]
	return &u, nil
}
