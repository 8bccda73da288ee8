package task

import (
	"github.com/google/uuid"
)

type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(task *Task) {
		task.Description = description
	}
}

func WithImportance(important bool) TaskOption {
	return func(task *Task) {
		task.Important = important
	}
}

// WithGroup moves the task into a group, nil moves it back to the personal list.
func WithGroup(groupID *uuid.UUID) TaskOption {
	return func(task *Task) {
		if groupID == nil {
			task.GroupID = nil
			return
		}
		id := *groupID
		task.GroupID = &id
	}
}

func Apply(t *Task, options ...TaskOption) {
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(t)
	}
}
