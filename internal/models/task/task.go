package task

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	UUID        uuid.UUID  `json:"uuid" db:"uuid"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Important   bool       `json:"important" db:"important"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at"`
	Version     int        `json:"version" db:"version"`
	OwnerID     uuid.UUID  `json:"owner_id" db:"owner_uuid"`
	GroupID     *uuid.UUID `json:"group_id,omitempty" db:"group_uuid"`
}

const MaxTitleLength = 150

func (t *Task) IsCompleted() bool {
	return t.CompletedAt != nil
}

func (t *Task) IsPersonal() bool {
	return t.GroupID == nil
}

// InGroup reports whether the task is scoped to the given group.
func (t *Task) InGroup(groupID uuid.UUID) bool {
	return t.GroupID != nil && *t.GroupID == groupID
}
