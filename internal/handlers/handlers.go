package handlers

import (
	"context"
	"time"
	"todolist/internal/auth"
	"todolist/internal/models/group"
	"todolist/internal/models/task"
	"todolist/internal/models/user"
	"todolist/internal/service"

	"github.com/google/uuid"
)

type TaskService interface {
	ListCurrentTasks(ctx context.Context, userID uuid.UUID) ([]task.Bucket, error)
	ListCompletedTasks(ctx context.Context, userID uuid.UUID) ([]*task.Task, error)
	CreateTask(ctx context.Context, userID uuid.UUID, params service.CreateTaskParams) (*task.Task, error)
	ViewTask(ctx context.Context, userID, taskID uuid.UUID) (*service.TaskView, error)
	EditTask(ctx context.Context, userID, taskID uuid.UUID, params service.EditTaskParams) (*task.Task, error)
	CompleteTask(ctx context.Context, userID, taskID uuid.UUID) (*task.Task, error)
	DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error
}

type GroupService interface {
	CreateGroup(ctx context.Context, userID uuid.UUID, name string) (*group.Group, error)
	ListGroups(ctx context.Context, userID uuid.UUID) ([]*group.UserGroup, error)
	ListInvites(ctx context.Context, userID uuid.UUID) ([]*group.UserGroup, error)
	ViewGroup(ctx context.Context, userID, groupID uuid.UUID) (*service.GroupView, error)
	Invite(ctx context.Context, userID, groupID uuid.UUID, username string) error
	AcceptInvite(ctx context.Context, userID uuid.UUID, groupName string) (*group.Group, error)
	DeclineInvite(ctx context.Context, userID uuid.UUID, groupName string) error
	LeaveGroup(ctx context.Context, userID, groupID uuid.UUID) (bool, error)
	DeleteGroup(ctx context.Context, userID, groupID uuid.UUID) error
}

type AuthService interface {
	Signup(ctx context.Context, username, password, passwordConfirm string) (*user.User, error)
	Login(ctx context.Context, username, password string) (*user.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*user.User, error)
}

type SessionIssuer interface {
	Issue(ctx context.Context, userID uuid.UUID) (string, *auth.Session, error)
	Revoke(ctx context.Context, token string) error
	TTL() time.Duration
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type CookieConfig struct {
	Name   string
	Secure bool
}

type Handler struct {
	tasks    TaskService
	groups   GroupService
	auth     AuthService
	sessions SessionIssuer
	health   HealthChecker
	cookie   CookieConfig
}

func NewHandler(tasks TaskService, groups GroupService, authService AuthService, sessions SessionIssuer, health HealthChecker, cookie CookieConfig) *Handler {
	return &Handler{
		tasks:    tasks,
		groups:   groups,
		auth:     authService,
		sessions: sessions,
		health:   health,
		cookie:   cookie,
	}
}
