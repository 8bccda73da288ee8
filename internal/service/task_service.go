package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"todolist/internal/logger"
	"todolist/internal/models/group"
	"todolist/internal/models/task"
	rep "todolist/internal/repository"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TaskService struct {
	tasks  TaskRepository
	groups GroupRepository
	now    func() time.Time
}

func NewTaskService(tasks TaskRepository, groups GroupRepository) *TaskService {
	return &TaskService{
		tasks:  tasks,
		groups: groups,
		now:    time.Now,
	}
}

// CreateTaskParams is the validated content of the task creation form.
type CreateTaskParams struct {
	Title       string
	Description string
	Important   bool
	GroupID     *uuid.UUID
}

// EditTaskParams replaces every editable field of a task.
type EditTaskParams struct {
	Title       string
	Description string
	Important   bool
	GroupID     *uuid.UUID
}

type TaskView struct {
	Task      *task.Task
	GroupName string
}

func (s *TaskService) ListCurrentTasks(ctx context.Context, userID uuid.UUID) ([]task.Bucket, error) {
	personal, err := s.tasks.ListPersonalActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("personal tasks: %w", err)
	}
	task.SortByCreatedDesc(personal)

	groups, err := s.groups.ListUserGroups(ctx, userID, group.StatusCreator, group.StatusMember)
	if err != nil {
		return nil, fmt.Errorf("user groups: %w", err)
	}

	buckets := make([]task.Bucket, 0, len(groups)+1)
	buckets = append(buckets, task.PersonalBucket(personal))

	for _, ug := range groups {
		groupTasks, err := s.tasks.ListGroupActive(ctx, ug.Group.UUID)
		if err != nil {
			return nil, fmt.Errorf("tasks of group %s: %w", ug.Group.UUID, err)
		}
		task.SortByCreatedDesc(groupTasks)
		buckets = append(buckets, task.GroupBucket(ug.Group.UUID, ug.Group.Name, groupTasks))
	}

	return buckets, nil
}

func (s *TaskService) ListCompletedTasks(ctx context.Context, userID uuid.UUID) ([]*task.Task, error) {
	tasks, err := s.tasks.ListCompleted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("completed tasks: %w", err)
	}
	task.SortByCompletedDesc(tasks)
	return tasks, nil
}

func (s *TaskService) CreateTask(ctx context.Context, userID uuid.UUID, params CreateTaskParams) (*task.Task, error) {
	title, err := validateTitle(params.Title)
	if err != nil {
		return nil, err
	}

	if params.GroupID != nil {
		if err := s.requireActiveMember(ctx, *params.GroupID, userID); err != nil {
			return nil, err
		}
	}

	newTask := &task.Task{
		UUID:        uuid.New(),
		Title:       title,
		Description: params.Description,
		Important:   params.Important,
		CreatedAt:   s.now(),
		OwnerID:     userID,
		Version:     1,
	}
	task.Apply(newTask, task.WithGroup(params.GroupID))

	if err := s.tasks.CreateTask(ctx, newTask); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	logger.Info("Service: task created",
		zap.String("task_id", newTask.UUID.String()),
		zap.String("owner_id", userID.String()),
		zap.Bool("grouped", newTask.GroupID != nil))

	return newTask, nil
}

func (s *TaskService) ViewTask(ctx context.Context, userID, taskID uuid.UUID) (*TaskView, error) {
	t, err := s.visibleTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	view := &TaskView{Task: t}
	if t.GroupID != nil {
		g, err := s.groups.GetGroupByID(ctx, *t.GroupID)
		if err != nil {
			return nil, fmt.Errorf("group of task %s: %w", taskID, err)
		}
		view.GroupName = g.Name
	}
	return view, nil
}

func (s *TaskService) EditTask(ctx context.Context, userID, taskID uuid.UUID, params EditTaskParams) (*task.Task, error) {
	t, err := s.visibleTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	title, err := validateTitle(params.Title)
	if err != nil {
		return nil, err
	}

	if params.GroupID != nil {
		// only the editor's own groups are valid choices
		if err := s.requireActiveMember(ctx, *params.GroupID, userID); err != nil {
			if IsCode(err, CodeAuthorization) {
				return nil, NewValidationError("group", "Select one of your groups")
			}
			return nil, err
		}
	}

	task.Apply(t,
		task.WithTitle(title),
		task.WithDescription(params.Description),
		task.WithImportance(params.Important),
		task.WithGroup(params.GroupID),
	)

	if err := s.tasks.UpdateTask(ctx, t); err != nil {
		if errors.Is(err, rep.ErrVersionConflict) {
			return nil, NewBusinessError(CodeVersionConflict, "The task was changed by someone else, reload and try again",
				ToDetail("id", taskID.String()))
		}
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("task", taskID.String())
		}
		return nil, fmt.Errorf("update task: %w", err)
	}

	return t, nil
}

func (s *TaskService) CompleteTask(ctx context.Context, userID, taskID uuid.UUID) (*task.Task, error) {
	t, err := s.ownedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if t.IsCompleted() {
		return nil, NewBusinessError(CodeAlreadyCompleted, "The task is already completed",
			ToDetail("id", taskID.String()),
			ToDetail("completed_at", t.CompletedAt))
	}

	now := s.now()
	t.CompletedAt = &now

	if err := s.tasks.UpdateTask(ctx, t); err != nil {
		if errors.Is(err, rep.ErrVersionConflict) {
			return nil, NewBusinessError(CodeVersionConflict, "The task was changed by someone else, reload and try again",
				ToDetail("id", taskID.String()))
		}
		return nil, fmt.Errorf("complete task: %w", err)
	}
	return t, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	if _, err := s.ownedTask(ctx, userID, taskID); err != nil {
		return err
	}

	if err := s.tasks.DeleteTask(ctx, taskID); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound("task", taskID.String())
		}
		return fmt.Errorf("delete task: %w", err)
	}

	logger.Info("Service: task deleted", zap.String("task_id", taskID.String()))
	return nil
}

func (s *TaskService) getTask(ctx context.Context, taskID uuid.UUID) (*task.Task, error) {
	t, err := s.tasks.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: task not found", zap.String("target_id", taskID.String()))
			return nil, NewNotFound("task", taskID.String())
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ownedTask hides tasks of other users behind NOT_FOUND.
func (s *TaskService) ownedTask(ctx context.Context, userID, taskID uuid.UUID) (*task.Task, error) {
	t, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != userID {
		return nil, NewNotFound("task", taskID.String())
	}
	return t, nil
}

// visibleTask returns the task if the user owns it or is an active member of its group.
func (s *TaskService) visibleTask(ctx context.Context, userID, taskID uuid.UUID) (*task.Task, error) {
	t, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.OwnerID == userID {
		return t, nil
	}
	if t.GroupID == nil {
		return nil, NewNotFound("task", taskID.String())
	}

	if err := s.requireActiveMember(ctx, *t.GroupID, userID); err != nil {
		if IsCode(err, CodeAuthorization) {
			return nil, NewNotFound("task", taskID.String())
		}
		return nil, err
	}
	return t, nil
}

func (s *TaskService) requireActiveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	m, err := s.groups.GetMembership(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewAuthorizationError("You are not a member of this group")
		}
		return fmt.Errorf("membership: %w", err)
	}
	if !m.Status.Active() {
		return NewAuthorizationError("You are not a member of this group")
	}
	return nil
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", NewValidationError("title", "Title is required")
	}
	if utf8.RuneCountInString(title) > task.MaxTitleLength {
		return "", NewValidationError("title", fmt.Sprintf("Title must be at most %d characters", task.MaxTitleLength))
	}
	return title, nil
}
