package service

import (
	"context"
	"todolist/internal/models/group"
	"todolist/internal/models/task"
	"todolist/internal/models/user"

	"github.com/google/uuid"
)

type UserRepository interface {
	CreateUser(context.Context, *user.User) error
	GetUserByID(context.Context, uuid.UUID) (*user.User, error)
	GetUserByName(context.Context, string) (*user.User, error)
}

type TaskRepository interface {
	CreateTask(context.Context, *task.Task) error
	GetTaskByID(context.Context, uuid.UUID) (*task.Task, error)
	UpdateTask(context.Context, *task.Task) error
	DeleteTask(context.Context, uuid.UUID) error
	// incomplete tasks of the owner that are not scoped to a group
	ListPersonalActive(context.Context, uuid.UUID) ([]*task.Task, error)
	// incomplete tasks of a group, from any owner
	ListGroupActive(context.Context, uuid.UUID) ([]*task.Task, error)
	ListCompleted(context.Context, uuid.UUID) ([]*task.Task, error)
}

type GroupRepository interface {
	CreateGroup(context.Context, *group.Group) error
	GetGroupByID(context.Context, uuid.UUID) (*group.Group, error)
	// LockGroup holds the group row until the surrounding transaction ends.
	LockGroup(context.Context, uuid.UUID) error
	// DeleteGroup removes the group with its memberships and group-scoped tasks.
	DeleteGroup(context.Context, uuid.UUID) error

	CreateMembership(context.Context, *group.Membership) error
	GetMembership(ctx context.Context, groupID, userID uuid.UUID) (*group.Membership, error)
	UpdateMembershipStatus(ctx context.Context, groupID, userID uuid.UUID, status group.Status) error
	DeleteMembership(ctx context.Context, groupID, userID uuid.UUID) error
	CountActiveMembers(ctx context.Context, groupID uuid.UUID) (int, error)
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]*group.Member, error)
	// ListUserGroups returns the user's groups whose membership status is one of statuses, ordered by name.
	ListUserGroups(ctx context.Context, userID uuid.UUID, statuses ...group.Status) ([]*group.UserGroup, error)
	// FindInvitation returns the oldest invited membership of the user in a group with that name.
	FindInvitation(ctx context.Context, userID uuid.UUID, groupName string) (*group.Membership, error)
}

// Transactor runs fn so that every repository call made with the ctx it receives
// belongs to one transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type HealthChecker interface {
	HealthCheck(context.Context) error
}

// Storage is everything a backend has to provide.
type Storage interface {
	UserRepository
	TaskRepository
	GroupRepository
	Transactor
	HealthChecker
	Close()
}
