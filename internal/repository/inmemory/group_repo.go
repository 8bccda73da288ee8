package inmemory

import (
	"context"
	"sort"
	"todolist/internal/models/group"
	repo "todolist/internal/repository"

	"github.com/google/uuid"
)

func (s *Storage) CreateGroup(ctx context.Context, groupToCreate *group.Group) error {
	defer s.beginWrite(ctx)()
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.groups[groupToCreate.UUID]; ok {
		return repo.ErrAlreadyExists
	}
	g := *groupToCreate
	s.groups[g.UUID] = &g
	return nil
}

func (s *Storage) GetGroupByID(ctx context.Context, id uuid.UUID) (*group.Group, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stored, ok := s.groups[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	g := *stored
	return &g, nil
}

// LockGroup reports whether the group exists; InTx already runs transactions one at a time.
func (s *Storage) LockGroup(ctx context.Context, id uuid.UUID) error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if _, ok := s.groups[id]; !ok {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	defer s.beginWrite(ctx)()
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.groups[id]; !ok {
		return repo.ErrNotFound
	}

	delete(s.groups, id)
	for key := range s.memberships {
		if key.groupID == id {
			delete(s.memberships, key)
		}
	}
	for taskID, t := range s.tasks {
		if t.InGroup(id) {
			delete(s.tasks, taskID)
		}
	}
	return nil
}

func (s *Storage) CreateMembership(ctx context.Context, membership *group.Membership) error {
	defer s.beginWrite(ctx)()
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.groups[membership.GroupID]; !ok {
		return repo.ErrNotFound
	}
	key := membershipKey{groupID: membership.GroupID, userID: membership.UserID}
	if _, ok := s.memberships[key]; ok {
		return repo.ErrAlreadyExists
	}
	m := *membership
	s.memberships[key] = &m
	return nil
}

func (s *Storage) GetMembership(ctx context.Context, groupID, userID uuid.UUID) (*group.Membership, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stored, ok := s.memberships[membershipKey{groupID: groupID, userID: userID}]
	if !ok {
		return nil, repo.ErrNotFound
	}
	m := *stored
	return &m, nil
}

func (s *Storage) UpdateMembershipStatus(ctx context.Context, groupID, userID uuid.UUID, status group.Status) error {
	defer s.beginWrite(ctx)()
	s.mtx.Lock()
	defer s.mtx.Unlock()

	key := membershipKey{groupID: groupID, userID: userID}
	stored, ok := s.memberships[key]
	if !ok {
		return repo.ErrNotFound
	}
	m := *stored
	m.Status = status
	s.memberships[key] = &m
	return nil
}

func (s *Storage) DeleteMembership(ctx context.Context, groupID, userID uuid.UUID) error {
	defer s.beginWrite(ctx)()
	s.mtx.Lock()
	defer s.mtx.Unlock()

	key := membershipKey{groupID: groupID, userID: userID}
	if _, ok := s.memberships[key]; !ok {
		return repo.ErrNotFound
	}
	delete(s.memberships, key)
	return nil
}

func (s *Storage) CountActiveMembers(ctx context.Context, groupID uuid.UUID) (int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	count := 0
	for key, m := range s.memberships {
		if key.groupID == groupID && m.Status.Active() {
			count++
		}
	}
	return count, nil
}

func (s *Storage) ListMembers(ctx context.Context, groupID uuid.UUID) ([]*group.Member, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	members := []*group.Member{}
	for key, m := range s.memberships {
		if key.groupID != groupID {
			continue
		}
		var username string
		if u, ok := s.users[key.userID]; ok {
			username = u.Username
		}
		members = append(members, &group.Member{
			UserID:   key.userID,
			Username: username,
			Status:   m.Status,
		})
	}

	sort.Slice(members, func(i, j int) bool {
		if members[i].Username != members[j].Username {
			return members[i].Username < members[j].Username
		}
		return members[i].UserID.String() < members[j].UserID.String()
	})
	return members, nil
}

func (s *Storage) ListUserGroups(ctx context.Context, userID uuid.UUID, statuses ...group.Status) ([]*group.UserGroup, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*group.UserGroup{}
	for key, m := range s.memberships {
		if key.userID != userID || !statusIn(m.Status, statuses) {
			continue
		}
		g, ok := s.groups[key.groupID]
		if !ok {
			continue
		}
		res = append(res, &group.UserGroup{Group: *g, Status: m.Status})
	}

	sort.Slice(res, func(i, j int) bool {
		if res[i].Group.Name != res[j].Group.Name {
			return res[i].Group.Name < res[j].Group.Name
		}
		return res[i].Group.UUID.String() < res[j].Group.UUID.String()
	})
	return res, nil
}

func (s *Storage) FindInvitation(ctx context.Context, userID uuid.UUID, groupName string) (*group.Membership, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var found *group.Membership
	for key, m := range s.memberships {
		if key.userID != userID || m.Status != group.StatusInvited {
			continue
		}
		g, ok := s.groups[key.groupID]
		if !ok || g.Name != groupName {
			continue
		}
		if found == nil || olderInvitation(m, found) {
			found = m
		}
	}

	if found == nil {
		return nil, repo.ErrNotFound
	}
	m := *found
	return &m, nil
}

func olderInvitation(a, b *group.Membership) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.GroupID.String() < b.GroupID.String()
}

// no statuses means any status
func statusIn(status group.Status, statuses []group.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, st := range statuses {
		if st == status {
			return true
		}
	}
	return false
}
