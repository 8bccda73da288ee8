package dto

import (
	"time"
	"todolist/internal/models/group"
	"todolist/internal/models/task"
	"todolist/internal/models/user"
	"todolist/internal/service"

	"github.com/google/uuid"
)

type TaskResponse struct {
	UUID        uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Important   bool       `json:"important"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	Version     int        `json:"version"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	GroupID     *uuid.UUID `json:"group_id,omitempty"`
	GroupName   string     `json:"group_name,omitempty"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		UUID:        t.UUID,
		Title:       t.Title,
		Description: t.Description,
		Important:   t.Important,
		Completed:   t.IsCompleted(),
		CreatedAt:   t.CreatedAt,
		CompletedAt: t.CompletedAt,
		UpdatedAt:   t.UpdatedAt,
		Version:     t.Version,
		OwnerID:     t.OwnerID,
		GroupID:     t.GroupID,
	}
}

func FromTaskView(v *service.TaskView) TaskResponse {
	resp := FromTask(v.Task)
	resp.GroupName = v.GroupName
	return resp
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type BucketResponse struct {
	Kind      string         `json:"kind"`
	GroupID   *uuid.UUID     `json:"group_id,omitempty"`
	GroupName string         `json:"group_name,omitempty"`
	Tasks     []TaskResponse `json:"tasks"`
}

func FromBuckets(buckets []task.Bucket) []BucketResponse {
	result := make([]BucketResponse, len(buckets))
	for i, b := range buckets {
		resp := BucketResponse{
			Kind:  string(b.Kind),
			Tasks: FromTaskList(b.Tasks),
		}
		if !b.IsPersonal() {
			id := b.GroupID
			resp.GroupID = &id
			resp.GroupName = b.GroupName
		}
		result[i] = resp
	}
	return result
}

type GroupResponse struct {
	UUID      uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status,omitempty"`
}

func FromGroup(g *group.Group) GroupResponse {
	return GroupResponse{UUID: g.UUID, Name: g.Name, CreatedAt: g.CreatedAt}
}

func FromUserGroups(groups []*group.UserGroup) []GroupResponse {
	result := make([]GroupResponse, len(groups))
	for i, ug := range groups {
		resp := FromGroup(&ug.Group)
		resp.Status = string(ug.Status)
		result[i] = resp
	}
	return result
}

type MemberResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Status   string    `json:"status"`
}

type GroupDetailResponse struct {
	Group   GroupResponse    `json:"group"`
	Members []MemberResponse `json:"members"`
}

func FromGroupView(v *service.GroupView) GroupDetailResponse {
	g := FromGroup(v.Group)
	g.Status = string(v.Status)

	members := make([]MemberResponse, len(v.Members))
	for i, m := range v.Members {
		members[i] = MemberResponse{UserID: m.UserID, Username: m.Username, Status: string(m.Status)}
	}
	return GroupDetailResponse{Group: g, Members: members}
}

type UserResponse struct {
	UUID     uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

func FromUser(u *user.User) UserResponse {
	return UserResponse{UUID: u.UUID, Username: u.Username}
}
