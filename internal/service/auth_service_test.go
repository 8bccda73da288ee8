package service_test

import (
	"context"
	"strings"
	"testing"
	"todolist/internal/models/user"
	rep "todolist/internal/repository"
	"todolist/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		username    string
		password    string
		confirm     string
		setupMock   func(*MockUserRepository, *MockHasher)
		expectCode  string
		expectField string
	}{
		{
			name:     "success",
			username: "alice",
			password: "s3cret",
			confirm:  "s3cret",
			setupMock: func(ur *MockUserRepository, h *MockHasher) {
				h.On("Hash", "s3cret").Return("hashed", nil)
				ur.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *user.User) bool {
					return u.Username == "alice" && u.PasswordHash == "hashed"
				})).Return(nil)
			},
		},
		{
			name:        "error - passwords differ",
			username:    "alice",
			password:    "one",
			confirm:     "two",
			setupMock:   func(ur *MockUserRepository, h *MockHasher) {},
			expectCode:  service.CodeValidation,
			expectField: "password2",
		},
		{
			name:        "error - empty username",
			username:    " ",
			password:    "x",
			confirm:     "x",
			setupMock:   func(ur *MockUserRepository, h *MockHasher) {},
			expectCode:  service.CodeValidation,
			expectField: "username",
		},
		{
			name:        "error - password longer than 72 bytes",
			username:    "alice",
			password:    strings.Repeat("p", user.MaxPasswordBytes+1),
			confirm:     strings.Repeat("p", user.MaxPasswordBytes+1),
			setupMock:   func(ur *MockUserRepository, h *MockHasher) {},
			expectCode:  service.CodeValidation,
			expectField: "password1",
		},
		{
			name:     "error - username taken",
			username: "alice",
			password: "pw",
			confirm:  "pw",
			setupMock: func(ur *MockUserRepository, h *MockHasher) {
				h.On("Hash", "pw").Return("hashed", nil)
				ur.On("CreateUser", mock.Anything, mock.Anything).Return(rep.ErrAlreadyExists)
			},
			expectCode: service.CodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			hasher := new(MockHasher)
			tt.setupMock(users, hasher)

			created, err := service.NewAuthService(users, hasher).Signup(ctx, tt.username, tt.password, tt.confirm)
			if tt.expectCode != "" {
				assertCode(t, err, tt.expectCode)
				if tt.expectField != "" {
					busErr, _ := service.AsBusinessError(err)
					assert.Equal(t, tt.expectField, busErr.Details["field"])
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, "alice", created.Username)
			}
			users.AssertExpectations(t)
			hasher.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	alice := &user.User{UUID: uuid.New(), Username: "alice", PasswordHash: "hashed"}

	t.Run("success", func(t *testing.T) {
		users := new(MockUserRepository)
		hasher := new(MockHasher)
		users.On("GetUserByName", mock.Anything, "alice").Return(alice, nil)
		hasher.On("Verify", "right", "hashed").Return(true)

		got, err := service.NewAuthService(users, hasher).Login(ctx, "alice", "right")
		require.NoError(t, err)
		assert.Equal(t, alice.UUID, got.UUID)
	})

	t.Run("unknown user and wrong password look the same", func(t *testing.T) {
		users := new(MockUserRepository)
		hasher := new(MockHasher)
		users.On("GetUserByName", mock.Anything, "alice").Return(alice, nil)
		users.On("GetUserByName", mock.Anything, "nobody").Return(nil, rep.ErrNotFound)
		hasher.On("Verify", "wrong", "hashed").Return(false)

		svc := service.NewAuthService(users, hasher)
		_, wrongPassword := svc.Login(ctx, "alice", "wrong")
		_, unknownUser := svc.Login(ctx, "nobody", "wrong")

		assertCode(t, wrongPassword, service.CodeAuthentication)
		assertCode(t, unknownUser, service.CodeAuthentication)
		assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
	})
}
