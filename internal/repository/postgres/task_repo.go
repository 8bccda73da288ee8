package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"
	"todolist/internal/logger"
	"todolist/internal/models/task"
	repo "todolist/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const taskColumns = `uuid,
				title,
				description,
				important,
				created_at,
				completed_at,
				updated_at,
				version,
				owner_uuid,
				group_uuid`

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	err := row.Scan(
		&t.UUID,
		&t.Title,
		&t.Description,
		&t.Important,
		&t.CreatedAt,
		&t.CompletedAt,
		&t.UpdatedAt,
		&t.Version,
		&t.OwnerID,
		&t.GroupID,
	)
	return t, err
}

func (s *Storage) CreateTask(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()
	defer observe("create task", start)

	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}

	query := `INSERT INTO tasks
				(uuid, title, description, important, created_at, completed_at, owner_uuid, group_uuid)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING created_at, version`

	err := s.q(ctx).QueryRow(ctx, query,
		taskToCreate.UUID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Important,
		taskToCreate.CreatedAt,
		taskToCreate.CompletedAt,
		taskToCreate.OwnerID,
		taskToCreate.GroupID,
	).Scan(&taskToCreate.CreatedAt, &taskToCreate.Version)

	if err != nil {
		logger.Error("Repository: failed to insert task", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("insert task: %w", translate(err))
	}
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()
	defer observe("get task", start)

	query := `SELECT ` + taskColumns + `
				FROM tasks
				WHERE uuid = $1`

	t, err := scanTask(s.q(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: failed to get task", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *Storage) UpdateTask(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()
	defer observe("update task", start)

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				important = $3,
				completed_at = $4,
				group_uuid = $5,
				version = version + 1,
				updated_at = NOW()
			WHERE uuid = $6 AND version = $7
			RETURNING updated_at, version`

	err := s.q(ctx).QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Important,
		taskToUpdate.CompletedAt,
		taskToUpdate.GroupID,
		taskToUpdate.UUID,
		taskToUpdate.Version,
	).Scan(&taskToUpdate.UpdatedAt, &taskToUpdate.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.missingOrStale(ctx, taskToUpdate)
		}
		logger.Error("Repository: failed to update task", err)
		return fmt.Errorf("update task: %w", translate(err))
	}
	return nil
}

// missingOrStale explains why an optimistic update touched no rows.
func (s *Storage) missingOrStale(ctx context.Context, t *task.Task) error {
	var exists bool
	err := s.q(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE uuid = $1)`, t.UUID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check task: %w", err)
	}
	if !exists {
		return repo.ErrNotFound
	}

	logger.Warn("Repository: version conflict on task update",
		zap.String("task_id", t.UUID.String()),
		zap.Int("expected_version", t.Version))
	return repo.ErrVersionConflict
}

func (s *Storage) DeleteTask(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	defer observe("delete task", start)

	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM tasks WHERE uuid = $1`, id)
	if err != nil {
		logger.Error("Repository: failed to delete task", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) ListPersonalActive(ctx context.Context, ownerID uuid.UUID) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + `
				FROM tasks
				WHERE owner_uuid = $1 AND group_uuid IS NULL AND completed_at IS NULL
				ORDER BY created_at DESC, uuid`
	return s.listTasks(ctx, "list personal tasks", query, ownerID)
}

func (s *Storage) ListGroupActive(ctx context.Context, groupID uuid.UUID) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + `
				FROM tasks
				WHERE group_uuid = $1 AND completed_at IS NULL
				ORDER BY created_at DESC, uuid`
	return s.listTasks(ctx, "list group tasks", query, groupID)
}

func (s *Storage) ListCompleted(ctx context.Context, ownerID uuid.UUID) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + `
				FROM tasks
				WHERE owner_uuid = $1 AND completed_at IS NOT NULL
				ORDER BY completed_at DESC, uuid`
	return s.listTasks(ctx, "list completed tasks", query, ownerID)
}

func (s *Storage) listTasks(ctx context.Context, op, query string, args ...any) ([]*task.Task, error) {
	start := time.Now()
	defer observe(op, start)

	rows, err := s.q(ctx).Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: failed to query tasks", err, zap.String("op", op))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: row iteration failed", err, zap.String("op", op))
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return tasks, nil
}
