package sqlite

import (
	"time"
	"todolist/internal/models/group"
	"todolist/internal/models/task"
	"todolist/internal/models/user"

	"github.com/google/uuid"
)

// Rows are kept apart from the domain models so GORM tags and string ids stay here.

type userRecord struct {
	UUID         string    `gorm:"column:uuid;primarykey;size:36"`
	Username     string    `gorm:"column:username;size:150;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (userRecord) TableName() string { return "users" }

type groupRecord struct {
	UUID      string    `gorm:"column:uuid;primarykey;size:36"`
	Name      string    `gorm:"column:name;size:100;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (groupRecord) TableName() string { return "todo_groups" }

type membershipRecord struct {
	GroupUUID string    `gorm:"column:group_uuid;primarykey;size:36"`
	UserUUID  string    `gorm:"column:user_uuid;primarykey;size:36;index"`
	Status    string    `gorm:"column:status;size:16;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (membershipRecord) TableName() string { return "memberships" }

type taskRecord struct {
	UUID        string     `gorm:"column:uuid;primarykey;size:36"`
	Title       string     `gorm:"column:title;size:150;not null"`
	Description string     `gorm:"column:description;not null;default:''"`
	Important   bool       `gorm:"column:important;not null;default:false"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	UpdatedAt   *time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
	Version     int        `gorm:"column:version;not null;default:1"`
	OwnerUUID   string     `gorm:"column:owner_uuid;size:36;not null;index"`
	GroupUUID   *string    `gorm:"column:group_uuid;size:36;index"`
}

func (taskRecord) TableName() string { return "tasks" }

func utc(t time.Time) time.Time { return t.UTC() }

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func uuidPtrToString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func toUserRecord(u *user.User) *userRecord {
	return &userRecord{
		UUID:         u.UUID.String(),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    utc(u.CreatedAt),
	}
}

func (r *userRecord) toModel() (*user.User, error) {
	id, err := uuid.Parse(r.UUID)
	if err != nil {
		return nil, err
	}
	return &user.User{
		UUID:         id,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}, nil
}

func toGroupRecord(g *group.Group) *groupRecord {
	return &groupRecord{
		UUID:      g.UUID.String(),
		Name:      g.Name,
		CreatedAt: utc(g.CreatedAt),
	}
}

func (r *groupRecord) toModel() (*group.Group, error) {
	id, err := uuid.Parse(r.UUID)
	if err != nil {
		return nil, err
	}
	return &group.Group{UUID: id, Name: r.Name, CreatedAt: r.CreatedAt}, nil
}

func toMembershipRecord(m *group.Membership) *membershipRecord {
	return &membershipRecord{
		GroupUUID: m.GroupID.String(),
		UserUUID:  m.UserID.String(),
		Status:    string(m.Status),
		CreatedAt: utc(m.CreatedAt),
	}
}

func (r *membershipRecord) toModel() (*group.Membership, error) {
	groupID, err := uuid.Parse(r.GroupUUID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(r.UserUUID)
	if err != nil {
		return nil, err
	}
	return &group.Membership{
		GroupID:   groupID,
		UserID:    userID,
		Status:    group.Status(r.Status),
		CreatedAt: r.CreatedAt,
	}, nil
}

func toTaskRecord(t *task.Task) *taskRecord {
	return &taskRecord{
		UUID:        t.UUID.String(),
		Title:       t.Title,
		Description: t.Description,
		Important:   t.Important,
		CreatedAt:   utc(t.CreatedAt),
		CompletedAt: utcPtr(t.CompletedAt),
		UpdatedAt:   utcPtr(t.UpdatedAt),
		Version:     t.Version,
		OwnerUUID:   t.OwnerID.String(),
		GroupUUID:   uuidPtrToString(t.GroupID),
	}
}

func (r *taskRecord) toModel() (*task.Task, error) {
	id, err := uuid.Parse(r.UUID)
	if err != nil {
		return nil, err
	}
	owner, err := uuid.Parse(r.OwnerUUID)
	if err != nil {
		return nil, err
	}

	t := &task.Task{
		UUID:        id,
		Title:       r.Title,
		Description: r.Description,
		Important:   r.Important,
		CreatedAt:   r.CreatedAt,
		CompletedAt: r.CompletedAt,
		UpdatedAt:   r.UpdatedAt,
		Version:     r.Version,
		OwnerID:     owner,
	}
	if r.GroupUUID != nil {
		groupID, err := uuid.Parse(*r.GroupUUID)
		if err != nil {
			return nil, err
		}
		t.GroupID = &groupID
	}
	return t, nil
}
