package sqlite

import (
	"context"
	"fmt"
	"time"
	"todolist/internal/logger"
	"todolist/internal/models/task"
	repo "todolist/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (s *Storage) CreateTask(ctx context.Context, taskToCreate *task.Task) error {
	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}
	if taskToCreate.Version == 0 {
		taskToCreate.Version = 1
	}

	if err := s.conn(ctx).Create(toTaskRecord(taskToCreate)).Error; err != nil {
		return fmt.Errorf("create task: %w", translate(err))
	}
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	var rec taskRecord
	if err := s.conn(ctx).First(&rec, "uuid = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("get task: %w", translate(err))
	}
	return rec.toModel()
}

func (s *Storage) UpdateTask(ctx context.Context, taskToUpdate *task.Task) error {
	now := time.Now().UTC()

	result := s.conn(ctx).Model(&taskRecord{}).
		Where("uuid = ? AND version = ?", taskToUpdate.UUID.String(), taskToUpdate.Version).
		Updates(map[string]any{
			"title":        taskToUpdate.Title,
			"description":  taskToUpdate.Description,
			"important":    taskToUpdate.Important,
			"completed_at": utcPtr(taskToUpdate.CompletedAt),
			"group_uuid":   uuidPtrToString(taskToUpdate.GroupID),
			"updated_at":   now,
			"version":      taskToUpdate.Version + 1,
		})
	if err := result.Error; err != nil {
		return fmt.Errorf("update task: %w", translate(err))
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := s.conn(ctx).Model(&taskRecord{}).Where("uuid = ?", taskToUpdate.UUID.String()).Count(&count).Error; err != nil {
			return fmt.Errorf("check task: %w", err)
		}
		if count == 0 {
			return repo.ErrNotFound
		}
		logger.Warn("Repository: version conflict on task update",
			zap.String("task_id", taskToUpdate.UUID.String()),
			zap.Int("expected_version", taskToUpdate.Version))
		return repo.ErrVersionConflict
	}

	taskToUpdate.UpdatedAt = &now
	taskToUpdate.Version++
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id uuid.UUID) error {
	result := s.conn(ctx).Delete(&taskRecord{}, "uuid = ?", id.String())
	if err := result.Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) ListPersonalActive(ctx context.Context, ownerID uuid.UUID) ([]*task.Task, error) {
	return s.findTasks(s.conn(ctx).
		Where("owner_uuid = ? AND group_uuid IS NULL AND completed_at IS NULL", ownerID.String()).
		Order("created_at DESC, uuid"))
}

func (s *Storage) ListGroupActive(ctx context.Context, groupID uuid.UUID) ([]*task.Task, error) {
	return s.findTasks(s.conn(ctx).
		Where("group_uuid = ? AND completed_at IS NULL", groupID.String()).
		Order("created_at DESC, uuid"))
}

func (s *Storage) ListCompleted(ctx context.Context, ownerID uuid.UUID) ([]*task.Task, error) {
	return s.findTasks(s.conn(ctx).
		Where("owner_uuid = ? AND completed_at IS NOT NULL", ownerID.String()).
		Order("completed_at DESC, uuid"))
}

func (s *Storage) findTasks(query *gorm.DB) ([]*task.Task, error) {
	var records []taskRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := make([]*task.Task, 0, len(records))
	for i := range records {
		t, err := records[i].toModel()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
