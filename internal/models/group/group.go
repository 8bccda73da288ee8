package group

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Group struct {
	UUID      uuid.UUID `json:"uuid" db:"uuid"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Status string

const StatusCreator Status = "creator"
const StatusMember Status = "member"
const StatusInvited Status = "invited"

const MaxNameLength = 100

// names that collide with keys of the task-grouping view
var reservedNames = map[string]struct{}{
	"self":  {},
	"items": {},
}

func IsReservedName(name string) bool {
	_, ok := reservedNames[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

func (s Status) Valid() bool {
	switch s {
	case StatusCreator, StatusMember, StatusInvited:
		return true
	}
	return false
}

// Active reports whether the status grants access to the group and its tasks.
func (s Status) Active() bool {
	return s == StatusCreator || s == StatusMember
}

type Membership struct {
	GroupID   uuid.UUID `json:"group_id" db:"group_uuid"`
	UserID    uuid.UUID `json:"user_id" db:"user_uuid"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UserGroup is a group as seen by one of its users.
type UserGroup struct {
	Group  Group  `json:"group"`
	Status Status `json:"status"`
}

// Member is a membership row joined with the member's username.
type Member struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Status   Status    `json:"status"`
}
