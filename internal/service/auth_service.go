package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"todolist/internal/logger"
	"todolist/internal/models/user"
	rep "todolist/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const credentialsMismatch = "Username and/or password didn't match"

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type AuthService struct {
	users  UserRepository
	hasher PasswordHasher
	now    func() time.Time
}

func NewAuthService(users UserRepository, hasher PasswordHasher) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		now:    time.Now,
	}
}

func (s *AuthService) Signup(ctx context.Context, rawUsername, password, passwordConfirm string) (*user.User, error) {
	username, err := validateUsername(rawUsername)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, NewValidationError("password1", "Password is required")
	}
	if len(password) > user.MaxPasswordBytes {
		return nil, NewValidationError("password1", fmt.Sprintf("Password must be at most %d bytes", user.MaxPasswordBytes))
	}
	if password != passwordConfirm {
		return nil, NewValidationError("password2", "Passwords didn't match")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	newUser := &user.User{
		UUID:         uuid.New(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}

	if err := s.users.CreateUser(ctx, newUser); err != nil {
		if errors.Is(err, rep.ErrAlreadyExists) {
			return nil, NewConflict("This username is already taken. Please, choose another one.",
				ToDetail("field", "username"))
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Info("Service: user signed up", zap.String("user_id", newUser.UUID.String()))
	return newUser, nil
}

// Login checks credentials. Unknown users and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*user.User, error) {
	if username == "" || password == "" {
		return nil, NewBusinessError(CodeAuthentication, credentialsMismatch)
	}

	u, err := s.users.GetUserByName(ctx, username)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewBusinessError(CodeAuthentication, credentialsMismatch)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		logger.Info("Service: password mismatch", zap.String("user_id", u.UUID.String()))
		return nil, NewBusinessError(CodeAuthentication, credentialsMismatch)
	}

	return u, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("user", userID.String())
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
