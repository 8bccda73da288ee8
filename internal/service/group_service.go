package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"todolist/internal/logger"
	"todolist/internal/models/group"
	"todolist/internal/models/user"
	rep "todolist/internal/repository"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GroupService struct {
	groups GroupRepository
	users  UserRepository
	tx     Transactor
	now    func() time.Time
}

func NewGroupService(groups GroupRepository, users UserRepository, tx Transactor) *GroupService {
	return &GroupService{
		groups: groups,
		users:  users,
		tx:     tx,
		now:    time.Now,
	}
}

// GroupView is a group page: the group, the caller's status in it and every membership row.
type GroupView struct {
	Group   *group.Group
	Status  group.Status
	Members []*group.Member
}

func (s *GroupService) CreateGroup(ctx context.Context, userID uuid.UUID, rawName string) (*group.Group, error) {
	name, err := validateGroupName(rawName)
	if err != nil {
		return nil, err
	}

	now := s.now()
	newGroup := &group.Group{
		UUID:      uuid.New(),
		Name:      name,
		CreatedAt: now,
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.groups.CreateGroup(ctx, newGroup); err != nil {
			return fmt.Errorf("create group: %w", err)
		}
		return s.groups.CreateMembership(ctx, &group.Membership{
			GroupID:   newGroup.UUID,
			UserID:    userID,
			Status:    group.StatusCreator,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create group %q: %w", name, err)
	}

	logger.Info("Service: group created",
		zap.String("group_id", newGroup.UUID.String()),
		zap.String("creator_id", userID.String()))

	return newGroup, nil
}

func (s *GroupService) ListGroups(ctx context.Context, userID uuid.UUID) ([]*group.UserGroup, error) {
	groups, err := s.groups.ListUserGroups(ctx, userID, group.StatusCreator, group.StatusMember)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (s *GroupService) ListInvites(ctx context.Context, userID uuid.UUID) ([]*group.UserGroup, error) {
	invites, err := s.groups.ListUserGroups(ctx, userID, group.StatusInvited)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	return invites, nil
}

func (s *GroupService) ViewGroup(ctx context.Context, userID, groupID uuid.UUID) (*GroupView, error) {
	membership, err := s.activeMembership(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	g, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("group", groupID.String())
		}
		return nil, fmt.Errorf("get group: %w", err)
	}

	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	return &GroupView{
		Group:   g,
		Status:  membership.Status,
		Members: members,
	}, nil
}

func (s *GroupService) Invite(ctx context.Context, userID, groupID uuid.UUID, username string) error {
	if _, err := s.activeMembership(ctx, groupID, userID); err != nil {
		return err
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return NewValidationError("username", "Username is required")
	}

	invitee, err := s.users.GetUserByName(ctx, username)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewValidationError("username", "User does not exist")
		}
		return fmt.Errorf("get invitee: %w", err)
	}

	err = s.groups.CreateMembership(ctx, &group.Membership{
		GroupID:   groupID,
		UserID:    invitee.UUID,
		Status:    group.StatusInvited,
		CreatedAt: s.now(),
	})
	if err != nil {
		if errors.Is(err, rep.ErrAlreadyExists) {
			return NewConflict("Invite already sent", ToDetail("username", invitee.Username))
		}
		return fmt.Errorf("create invitation: %w", err)
	}

	logger.Info("Service: invitation sent",
		zap.String("group_id", groupID.String()),
		zap.String("invitee_id", invitee.UUID.String()))

	return nil
}

// AcceptInvite turns the caller's pending invitation to the group with that name into a membership.
func (s *GroupService) AcceptInvite(ctx context.Context, userID uuid.UUID, groupName string) (*group.Group, error) {
	var accepted *group.Group

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		invitation, err := s.findInvitation(ctx, userID, groupName)
		if err != nil {
			return err
		}

		if err := s.groups.UpdateMembershipStatus(ctx, invitation.GroupID, userID, group.StatusMember); err != nil {
			return fmt.Errorf("accept invitation: %w", err)
		}

		accepted, err = s.groups.GetGroupByID(ctx, invitation.GroupID)
		if err != nil {
			return fmt.Errorf("get group: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Service: invitation accepted",
		zap.String("group_id", accepted.UUID.String()),
		zap.String("user_id", userID.String()))

	return accepted, nil
}

func (s *GroupService) DeclineInvite(ctx context.Context, userID uuid.UUID, groupName string) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		invitation, err := s.findInvitation(ctx, userID, groupName)
		if err != nil {
			return err
		}

		if err := s.groups.DeleteMembership(ctx, invitation.GroupID, userID); err != nil {
			return fmt.Errorf("decline invitation: %w", err)
		}
		return nil
	})
}

// LeaveGroup removes the caller from the group. The group itself is deleted once no creator or
// member is left; the returned flag reports that.
func (s *GroupService) LeaveGroup(ctx context.Context, userID, groupID uuid.UUID) (bool, error) {
	var groupDeleted bool

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.lockGroup(ctx, groupID); err != nil {
			return err
		}
		if _, err := s.activeMembership(ctx, groupID, userID); err != nil {
			return err
		}

		if err := s.groups.DeleteMembership(ctx, groupID, userID); err != nil {
			return fmt.Errorf("delete membership: %w", err)
		}

		remaining, err := s.groups.CountActiveMembers(ctx, groupID)
		if err != nil {
			return fmt.Errorf("count members: %w", err)
		}
		if remaining > 0 {
			return nil
		}

		if err := s.groups.DeleteGroup(ctx, groupID); err != nil {
			return fmt.Errorf("delete abandoned group: %w", err)
		}
		groupDeleted = true
		return nil
	})
	if err != nil {
		return false, err
	}

	logger.Info("Service: group left",
		zap.String("group_id", groupID.String()),
		zap.String("user_id", userID.String()),
		zap.Bool("group_deleted", groupDeleted))

	return groupDeleted, nil
}

func (s *GroupService) DeleteGroup(ctx context.Context, userID, groupID uuid.UUID) error {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.lockGroup(ctx, groupID); err != nil {
			return err
		}
		if _, err := s.activeMembership(ctx, groupID, userID); err != nil {
			return err
		}

		if err := s.groups.DeleteGroup(ctx, groupID); err != nil {
			if errors.Is(err, rep.ErrNotFound) {
				return NewNotFound("group", groupID.String())
			}
			return fmt.Errorf("delete group: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Service: group deleted",
		zap.String("group_id", groupID.String()),
		zap.String("deleted_by", userID.String()))

	return nil
}

// lockGroup serialises leave and delete on one group; the last two members leaving at once
// would otherwise both see a survivor and leave the group orphaned.
func (s *GroupService) lockGroup(ctx context.Context, groupID uuid.UUID) error {
	if err := s.groups.LockGroup(ctx, groupID); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound("group", groupID.String())
		}
		return fmt.Errorf("lock group: %w", err)
	}
	return nil
}

// activeMembership hides groups the user does not belong to behind NOT_FOUND.
func (s *GroupService) activeMembership(ctx context.Context, groupID, userID uuid.UUID) (*group.Membership, error) {
	m, err := s.groups.GetMembership(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("group", groupID.String())
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	if !m.Status.Active() {
		return nil, NewNotFound("group", groupID.String())
	}
	return m, nil
}

func (s *GroupService) findInvitation(ctx context.Context, userID uuid.UUID, groupName string) (*group.Membership, error) {
	invitation, err := s.groups.FindInvitation(ctx, userID, groupName)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewBusinessError(CodeNotFound, "No pending invitation",
				ToDetail("resource", "invitation"),
				ToDetail("group", groupName))
		}
		return nil, fmt.Errorf("find invitation: %w", err)
	}
	return invitation, nil
}

func validateGroupName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", NewValidationError("name", "Group name is required")
	}
	if utf8.RuneCountInString(name) > group.MaxNameLength {
		return "", NewValidationError("name", fmt.Sprintf("Group name must be at most %d characters", group.MaxNameLength))
	}
	if group.IsReservedName(name) {
		return "", NewValidationError("name", fmt.Sprintf("%q is a reserved name", name))
	}
	return name, nil
}

func validateUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	if username == "" {
		return "", NewValidationError("username", "Username is required")
	}
	if utf8.RuneCountInString(username) > user.MaxUsernameLength {
		return "", NewValidationError("username", fmt.Sprintf("Username must be at most %d characters", user.MaxUsernameLength))
	}
	return username, nil
}
