package inmemory

import (
	"context"
	"time"
	"todolist/internal/logger"
	"todolist/internal/models/task"
	repo "todolist/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Storage) CreateTask(ctx context.Context, taskToCreate *task.Task) error {
	defer s.beginWrite(ctx)()
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.tasks[taskToCreate.UUID]; ok {
		return repo.ErrAlreadyExists
	}
	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}
	if taskToCreate.Version == 0 {
		taskToCreate.Version = 1
	}

	s.tasks[taskToCreate.UUID] = cloneTask(taskToCreate)
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stored, ok := s.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return cloneTask(stored), nil
}

func (s *Storage) UpdateTask(ctx context.Context, taskToUpdate *task.Task) error {
	defer s.beginWrite(ctx)()
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.tasks[taskToUpdate.UUID]
	if !ok {
		return repo.ErrNotFound
	}
	if stored.Version != taskToUpdate.Version {
		logger.Warn("Repository: version conflict on task update",
			zap.String("task_id", taskToUpdate.UUID.String()),
			zap.Int("expected_version", taskToUpdate.Version))
		return repo.ErrVersionConflict
	}

	now := time.Now()
	taskToUpdate.UpdatedAt = &now
	taskToUpdate.Version++

	updated := cloneTask(taskToUpdate)
	updated.OwnerID = stored.OwnerID
	updated.CreatedAt = stored.CreatedAt
	s.tasks[taskToUpdate.UUID] = updated
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id uuid.UUID) error {
	defer s.beginWrite(ctx)()
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *Storage) ListPersonalActive(ctx context.Context, ownerID uuid.UUID) ([]*task.Task, error) {
	return s.filterTasks(func(t *task.Task) bool {
		return t.OwnerID == ownerID && t.IsPersonal() && !t.IsCompleted()
	}, task.SortByCreatedDesc), nil
}

func (s *Storage) ListGroupActive(ctx context.Context, groupID uuid.UUID) ([]*task.Task, error) {
	return s.filterTasks(func(t *task.Task) bool {
		return t.InGroup(groupID) && !t.IsCompleted()
	}, task.SortByCreatedDesc), nil
}

func (s *Storage) ListCompleted(ctx context.Context, ownerID uuid.UUID) ([]*task.Task, error) {
	return s.filterTasks(func(t *task.Task) bool {
		return t.OwnerID == ownerID && t.IsCompleted()
	}, task.SortByCompletedDesc), nil
}

func (s *Storage) filterTasks(keep func(*task.Task) bool, order func([]*task.Task)) []*task.Task {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, t := range s.tasks {
		if keep(t) {
			res = append(res, cloneTask(t))
		}
	}
	order(res)
	return res
}

func cloneTask(t *task.Task) *task.Task {
	c := *t
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		c.CompletedAt = &completed
	}
	if t.UpdatedAt != nil {
		updated := *t.UpdatedAt
		c.UpdatedAt = &updated
	}
	if t.GroupID != nil {
		groupID := *t.GroupID
		c.GroupID = &groupID
	}
	return &c
}
