package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"
	"todolist/internal/logger"
	"todolist/internal/models/group"
	repo "todolist/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func (s *Storage) CreateGroup(ctx context.Context, groupToCreate *group.Group) error {
	start := time.Now()
	defer observe("create group", start)

	query := `INSERT INTO todo_groups (uuid, name, created_at)
				VALUES ($1, $2, $3)`

	if _, err := s.q(ctx).Exec(ctx, query, groupToCreate.UUID, groupToCreate.Name, groupToCreate.CreatedAt); err != nil {
		logger.Error("Repository: failed to insert group", err)
		return fmt.Errorf("insert group: %w", translate(err))
	}
	return nil
}

func (s *Storage) GetGroupByID(ctx context.Context, id uuid.UUID) (*group.Group, error) {
	start := time.Now()
	defer observe("get group", start)

	g := &group.Group{}
	err := s.q(ctx).QueryRow(ctx, `SELECT uuid, name, created_at FROM todo_groups WHERE uuid = $1`, id).
		Scan(&g.UUID, &g.Name, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

// LockGroup takes a row lock on the group for the rest of the surrounding transaction so that
// concurrent leaves and deletes of the same group run one after another.
func (s *Storage) LockGroup(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	defer observe("lock group", start)

	var locked uuid.UUID
	err := s.q(ctx).QueryRow(ctx, `SELECT uuid FROM todo_groups WHERE uuid = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		return fmt.Errorf("lock group: %w", err)
	}
	return nil
}

// DeleteGroup relies on ON DELETE CASCADE for memberships and group tasks.
func (s *Storage) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	defer observe("delete group", start)

	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM todo_groups WHERE uuid = $1`, id)
	if err != nil {
		logger.Error("Repository: failed to delete group", err)
		return fmt.Errorf("delete group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) CreateMembership(ctx context.Context, membership *group.Membership) error {
	start := time.Now()
	defer observe("create membership", start)

	query := `INSERT INTO memberships (group_uuid, user_uuid, status, created_at)
				VALUES ($1, $2, $3, $4)`

	_, err := s.q(ctx).Exec(ctx, query,
		membership.GroupID,
		membership.UserID,
		membership.Status,
		membership.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert membership: %w", translate(err))
	}
	return nil
}

func (s *Storage) GetMembership(ctx context.Context, groupID, userID uuid.UUID) (*group.Membership, error) {
	start := time.Now()
	defer observe("get membership", start)

	query := `SELECT group_uuid, user_uuid, status, created_at
				FROM memberships
				WHERE group_uuid = $1 AND user_uuid = $2`

	m := &group.Membership{}
	err := s.q(ctx).QueryRow(ctx, query, groupID, userID).Scan(&m.GroupID, &m.UserID, &m.Status, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}

func (s *Storage) UpdateMembershipStatus(ctx context.Context, groupID, userID uuid.UUID, status group.Status) error {
	start := time.Now()
	defer observe("update membership", start)

	tag, err := s.q(ctx).Exec(ctx,
		`UPDATE memberships SET status = $1 WHERE group_uuid = $2 AND user_uuid = $3`,
		status, groupID, userID)
	if err != nil {
		return fmt.Errorf("update membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) DeleteMembership(ctx context.Context, groupID, userID uuid.UUID) error {
	start := time.Now()
	defer observe("delete membership", start)

	tag, err := s.q(ctx).Exec(ctx,
		`DELETE FROM memberships WHERE group_uuid = $1 AND user_uuid = $2`,
		groupID, userID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) CountActiveMembers(ctx context.Context, groupID uuid.UUID) (int, error) {
	var count int
	err := s.q(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM memberships WHERE group_uuid = $1 AND status IN ($2, $3)`,
		groupID, group.StatusCreator, group.StatusMember).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return count, nil
}

func (s *Storage) ListMembers(ctx context.Context, groupID uuid.UUID) ([]*group.Member, error) {
	start := time.Now()
	defer observe("list members", start)

	query := `SELECT m.user_uuid, u.username, m.status
				FROM memberships m
				JOIN users u ON u.uuid = m.user_uuid
				WHERE m.group_uuid = $1
				ORDER BY u.username, m.user_uuid`

	rows, err := s.q(ctx).Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []*group.Member{}
	for rows.Next() {
		m := &group.Member{}
		if err := rows.Scan(&m.UserID, &m.Username, &m.Status); err != nil {
			return nil, fmt.Errorf("list members: scan: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members: rows: %w", err)
	}
	return members, nil
}

func (s *Storage) ListUserGroups(ctx context.Context, userID uuid.UUID, statuses ...group.Status) ([]*group.UserGroup, error) {
	start := time.Now()
	defer observe("list user groups", start)

	filter := make([]string, 0, len(statuses))
	for _, st := range statuses {
		filter = append(filter, string(st))
	}

	query := `SELECT g.uuid, g.name, g.created_at, m.status
				FROM memberships m
				JOIN todo_groups g ON g.uuid = m.group_uuid
				WHERE m.user_uuid = $1
					AND (cardinality($2::text[]) = 0 OR m.status = ANY($2::text[]))
				ORDER BY g.name, g.uuid`

	rows, err := s.q(ctx).Query(ctx, query, userID, filter)
	if err != nil {
		logger.Error("Repository: failed to list user groups", err, zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("list user groups: %w", err)
	}
	defer rows.Close()

	groups := []*group.UserGroup{}
	for rows.Next() {
		ug := &group.UserGroup{}
		if err := rows.Scan(&ug.Group.UUID, &ug.Group.Name, &ug.Group.CreatedAt, &ug.Status); err != nil {
			return nil, fmt.Errorf("list user groups: scan: %w", err)
		}
		groups = append(groups, ug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list user groups: rows: %w", err)
	}
	return groups, nil
}

func (s *Storage) FindInvitation(ctx context.Context, userID uuid.UUID, groupName string) (*group.Membership, error) {
	start := time.Now()
	defer observe("find invitation", start)

	query := `SELECT m.group_uuid, m.user_uuid, m.status, m.created_at
				FROM memberships m
				JOIN todo_groups g ON g.uuid = m.group_uuid
				WHERE m.user_uuid = $1 AND m.status = $2 AND g.name = $3
				ORDER BY m.created_at, m.group_uuid
				LIMIT 1`

	m := &group.Membership{}
	err := s.q(ctx).QueryRow(ctx, query, userID, group.StatusInvited, groupName).
		Scan(&m.GroupID, &m.UserID, &m.Status, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("find invitation: %w", err)
	}
	return m, nil
}
