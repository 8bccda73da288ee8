package sqlite

import (
	"context"
	"fmt"
	"time"
	"todolist/internal/models/group"
	repo "todolist/internal/repository"

	"github.com/google/uuid"
)

func (s *Storage) CreateGroup(ctx context.Context, groupToCreate *group.Group) error {
	if err := s.conn(ctx).Create(toGroupRecord(groupToCreate)).Error; err != nil {
		return fmt.Errorf("create group: %w", translate(err))
	}
	return nil
}

func (s *Storage) GetGroupByID(ctx context.Context, id uuid.UUID) (*group.Group, error) {
	var rec groupRecord
	if err := s.conn(ctx).First(&rec, "uuid = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("get group: %w", translate(err))
	}
	return rec.toModel()
}

// LockGroup only checks existence: the single connection already serialises transactions.
func (s *Storage) LockGroup(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := s.conn(ctx).Model(&groupRecord{}).Where("uuid = ?", id.String()).Count(&count).Error; err != nil {
		return fmt.Errorf("lock group: %w", err)
	}
	if count == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// DeleteGroup removes the group's tasks and memberships first; the schema has no cascading keys.
func (s *Storage) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	return s.InTx(ctx, func(ctx context.Context) error {
		db := s.conn(ctx)

		if err := db.Delete(&taskRecord{}, "group_uuid = ?", id.String()).Error; err != nil {
			return fmt.Errorf("delete group tasks: %w", err)
		}
		if err := db.Delete(&membershipRecord{}, "group_uuid = ?", id.String()).Error; err != nil {
			return fmt.Errorf("delete group memberships: %w", err)
		}

		result := db.Delete(&groupRecord{}, "uuid = ?", id.String())
		if err := result.Error; err != nil {
			return fmt.Errorf("delete group: %w", err)
		}
		if result.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

func (s *Storage) CreateMembership(ctx context.Context, membership *group.Membership) error {
	var count int64
	if err := s.conn(ctx).Model(&groupRecord{}).Where("uuid = ?", membership.GroupID.String()).Count(&count).Error; err != nil {
		return fmt.Errorf("check group: %w", err)
	}
	if count == 0 {
		return repo.ErrNotFound
	}

	if err := s.conn(ctx).Create(toMembershipRecord(membership)).Error; err != nil {
		return fmt.Errorf("create membership: %w", translate(err))
	}
	return nil
}

func (s *Storage) GetMembership(ctx context.Context, groupID, userID uuid.UUID) (*group.Membership, error) {
	var rec membershipRecord
	err := s.conn(ctx).
		Where("group_uuid = ? AND user_uuid = ?", groupID.String(), userID.String()).
		First(&rec).Error
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", translate(err))
	}
	return rec.toModel()
}

func (s *Storage) UpdateMembershipStatus(ctx context.Context, groupID, userID uuid.UUID, status group.Status) error {
	result := s.conn(ctx).Model(&membershipRecord{}).
		Where("group_uuid = ? AND user_uuid = ?", groupID.String(), userID.String()).
		Update("status", string(status))
	if err := result.Error; err != nil {
		return fmt.Errorf("update membership: %w", err)
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) DeleteMembership(ctx context.Context, groupID, userID uuid.UUID) error {
	result := s.conn(ctx).Delete(&membershipRecord{}, "group_uuid = ? AND user_uuid = ?", groupID.String(), userID.String())
	if err := result.Error; err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) CountActiveMembers(ctx context.Context, groupID uuid.UUID) (int, error) {
	var count int64
	err := s.conn(ctx).Model(&membershipRecord{}).
		Where("group_uuid = ? AND status IN ?", groupID.String(), []string{string(group.StatusCreator), string(group.StatusMember)}).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return int(count), nil
}

type memberRow struct {
	UserUUID string `gorm:"column:user_uuid"`
	Username string `gorm:"column:username"`
	Status   string `gorm:"column:status"`
}

func (s *Storage) ListMembers(ctx context.Context, groupID uuid.UUID) ([]*group.Member, error) {
	var rows []memberRow
	err := s.conn(ctx).Table("memberships AS m").
		Select("m.user_uuid AS user_uuid, u.username AS username, m.status AS status").
		Joins("JOIN users AS u ON u.uuid = m.user_uuid").
		Where("m.group_uuid = ?", groupID.String()).
		Order("u.username, m.user_uuid").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	members := make([]*group.Member, 0, len(rows))
	for _, row := range rows {
		userID, err := uuid.Parse(row.UserUUID)
		if err != nil {
			return nil, err
		}
		members = append(members, &group.Member{
			UserID:   userID,
			Username: row.Username,
			Status:   group.Status(row.Status),
		})
	}
	return members, nil
}

type userGroupRow struct {
	UUID         string    `gorm:"column:uuid"`
	Name         string    `gorm:"column:name"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	MemberStatus string    `gorm:"column:member_status"`
}

func (s *Storage) ListUserGroups(ctx context.Context, userID uuid.UUID, statuses ...group.Status) ([]*group.UserGroup, error) {
	query := s.conn(ctx).Table("memberships AS m").
		Select("g.uuid AS uuid, g.name AS name, g.created_at AS created_at, m.status AS member_status").
		Joins("JOIN todo_groups AS g ON g.uuid = m.group_uuid").
		Where("m.user_uuid = ?", userID.String())

	if len(statuses) > 0 {
		filter := make([]string, 0, len(statuses))
		for _, st := range statuses {
			filter = append(filter, string(st))
		}
		query = query.Where("m.status IN ?", filter)
	}

	var rows []userGroupRow
	if err := query.Order("g.name, g.uuid").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list user groups: %w", err)
	}

	res := make([]*group.UserGroup, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.UUID)
		if err != nil {
			return nil, fmt.Errorf("list user groups: %w", err)
		}
		res = append(res, &group.UserGroup{
			Group:  group.Group{UUID: id, Name: row.Name, CreatedAt: utc(row.CreatedAt)},
			Status: group.Status(row.MemberStatus),
		})
	}
	return res, nil
}

func (s *Storage) FindInvitation(ctx context.Context, userID uuid.UUID, groupName string) (*group.Membership, error) {
	var rec membershipRecord
	err := s.conn(ctx).Table("memberships AS m").
		Select("m.group_uuid, m.user_uuid, m.status, m.created_at").
		Joins("JOIN todo_groups AS g ON g.uuid = m.group_uuid").
		Where("m.user_uuid = ? AND m.status = ? AND g.name = ?", userID.String(), string(group.StatusInvited), groupName).
		Order("m.created_at, m.group_uuid").
		Limit(1).
		Scan(&rec).Error
	if err != nil {
		return nil, fmt.Errorf("find invitation: %w", err)
	}
	if rec.GroupUUID == "" {
		return nil, repo.ErrNotFound
	}
	return rec.toModel()
}
