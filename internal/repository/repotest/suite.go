// Package repotest holds the behaviour every storage backend must share.
// Backends run it from their own tests with a constructor for a fresh, empty storage.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"time"
	"todolist/internal/models/group"
	"todolist/internal/models/task"
	"todolist/internal/models/user"
	repo "todolist/internal/repository"
	"todolist/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	suite.Suite

	// NewStorage returns an empty storage for every test.
	NewStorage func() service.Storage

	ctx     context.Context
	storage service.Storage
	base    time.Time
}

func (s *StorageSuite) SetupTest() {
	s.ctx = context.Background()
	s.storage = s.NewStorage()
	s.base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) newUser(name string) *user.User {
	u := &user.User{
		UUID:         uuid.New(),
		Username:     name,
		PasswordHash: "hash-" + name,
		CreatedAt:    s.base,
	}
	s.Require().NoError(s.storage.CreateUser(s.ctx, u))
	return u
}

func (s *StorageSuite) newGroup(name string, members map[*user.User]group.Status) *group.Group {
	g := &group.Group{UUID: uuid.New(), Name: name, CreatedAt: s.base}
	s.Require().NoError(s.storage.CreateGroup(s.ctx, g))
	for u, status := range members {
		s.Require().NoError(s.storage.CreateMembership(s.ctx, &group.Membership{
			GroupID:   g.UUID,
			UserID:    u.UUID,
			Status:    status,
			CreatedAt: s.base,
		}))
	}
	return g
}

func (s *StorageSuite) newTask(owner *user.User, title string, created time.Time, groupID *uuid.UUID) *task.Task {
	t := &task.Task{
		UUID:      uuid.New(),
		Title:     title,
		CreatedAt: created,
		OwnerID:   owner.UUID,
		Version:   1,
		GroupID:   groupID,
	}
	s.Require().NoError(s.storage.CreateTask(s.ctx, t))
	return t
}

func (s *StorageSuite) complete(t *task.Task, at time.Time) {
	t.CompletedAt = &at
	s.Require().NoError(s.storage.UpdateTask(s.ctx, t))
}

func titles(tasks []*task.Task) []string {
	res := make([]string, 0, len(tasks))
	for _, t := range tasks {
		res = append(res, t.Title)
	}
	return res
}

func (s *StorageSuite) TestHealthCheck() {
	s.NoError(s.storage.HealthCheck(s.ctx))
}

func (s *StorageSuite) TestUsers() {
	alice := s.newUser("alice")

	byID, err := s.storage.GetUserByID(s.ctx, alice.UUID)
	s.Require().NoError(err)
	s.Equal("alice", byID.Username)
	s.Equal("hash-alice", byID.PasswordHash)

	byName, err := s.storage.GetUserByName(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(alice.UUID, byName.UUID)

	err = s.storage.CreateUser(s.ctx, &user.User{UUID: uuid.New(), Username: "alice", PasswordHash: "x", CreatedAt: s.base})
	s.ErrorIs(err, repo.ErrAlreadyExists)

	_, err = s.storage.GetUserByName(s.ctx, "bob")
	s.ErrorIs(err, repo.ErrNotFound)

	_, err = s.storage.GetUserByID(s.ctx, uuid.New())
	s.ErrorIs(err, repo.ErrNotFound)
}

func (s *StorageSuite) TestTaskCreateAndGet() {
	alice := s.newUser("alice")
	created := s.newTask(alice, "buy milk", s.base, nil)

	got, err := s.storage.GetTaskByID(s.ctx, created.UUID)
	s.Require().NoError(err)
	s.Equal("buy milk", got.Title)
	s.Equal(alice.UUID, got.OwnerID)
	s.Equal(1, got.Version)
	s.Nil(got.CompletedAt)
	s.Nil(got.GroupID)
	s.WithinDuration(s.base, got.CreatedAt, time.Second)

	_, err = s.storage.GetTaskByID(s.ctx, uuid.New())
	s.ErrorIs(err, repo.ErrNotFound)
}

func (s *StorageSuite) TestTaskUpdateBumpsVersion() {
	alice := s.newUser("alice")
	created := s.newTask(alice, "draft", s.base, nil)

	created.Title = "final"
	created.Important = true
	s.Require().NoError(s.storage.UpdateTask(s.ctx, created))
	s.Equal(2, created.Version)
	s.NotNil(created.UpdatedAt)

	got, err := s.storage.GetTaskByID(s.ctx, created.UUID)
	s.Require().NoError(err)
	s.Equal("final", got.Title)
	s.True(got.Important)
	s.Equal(2, got.Version)
}

func (s *StorageSuite) TestTaskUpdateStaleVersion() {
	alice := s.newUser("alice")
	created := s.newTask(alice, "shared", s.base, nil)

	first, err := s.storage.GetTaskByID(s.ctx, created.UUID)
	s.Require().NoError(err)
	second, err := s.storage.GetTaskByID(s.ctx, created.UUID)
	s.Require().NoError(err)

	first.Title = "first writer"
	s.Require().NoError(s.storage.UpdateTask(s.ctx, first))

	second.Title = "second writer"
	s.ErrorIs(s.storage.UpdateTask(s.ctx, second), repo.ErrVersionConflict)

	got, err := s.storage.GetTaskByID(s.ctx, created.UUID)
	s.Require().NoError(err)
	s.Equal("first writer", got.Title)
}

func (s *StorageSuite) TestTaskUpdateMissing() {
	alice := s.newUser("alice")
	ghost := &task.Task{UUID: uuid.New(), Title: "ghost", OwnerID: alice.UUID, Version: 1}
	s.ErrorIs(s.storage.UpdateTask(s.ctx, ghost), repo.ErrNotFound)
}

func (s *StorageSuite) TestTaskDelete() {
	alice := s.newUser("alice")
	created := s.newTask(alice, "temp", s.base, nil)

	s.Require().NoError(s.storage.DeleteTask(s.ctx, created.UUID))
	_, err := s.storage.GetTaskByID(s.ctx, created.UUID)
	s.ErrorIs(err, repo.ErrNotFound)

	s.ErrorIs(s.storage.DeleteTask(s.ctx, created.UUID), repo.ErrNotFound)
}

func (s *StorageSuite) TestTaskListings() {
	alice := s.newUser("alice")
	bob := s.newUser("bob")
	g := s.newGroup("home", map[*user.User]group.Status{alice: group.StatusCreator, bob: group.StatusMember})

	s.newTask(alice, "old personal", s.base, nil)
	s.newTask(alice, "new personal", s.base.Add(2*time.Minute), nil)
	done := s.newTask(alice, "done personal", s.base.Add(time.Minute), nil)
	s.newTask(bob, "bob personal", s.base, nil)
	s.newTask(alice, "alice in group", s.base.Add(time.Minute), &g.UUID)
	s.newTask(bob, "bob in group", s.base.Add(3*time.Minute), &g.UUID)
	doneInGroup := s.newTask(bob, "bob done in group", s.base, &g.UUID)

	s.complete(done, s.base.Add(time.Hour))
	s.complete(doneInGroup, s.base.Add(2*time.Hour))

	personal, err := s.storage.ListPersonalActive(s.ctx, alice.UUID)
	s.Require().NoError(err)
	s.Equal([]string{"new personal", "old personal"}, titles(personal))

	grouped, err := s.storage.ListGroupActive(s.ctx, g.UUID)
	s.Require().NoError(err)
	s.Equal([]string{"bob in group", "alice in group"}, titles(grouped))

	completed, err := s.storage.ListCompleted(s.ctx, bob.UUID)
	s.Require().NoError(err)
	s.Equal([]string{"bob done in group"}, titles(completed))

	aliceCompleted, err := s.storage.ListCompleted(s.ctx, alice.UUID)
	s.Require().NoError(err)
	s.Equal([]string{"done personal"}, titles(aliceCompleted))
}

func (s *StorageSuite) TestCompletedOrderedByCompletion() {
	alice := s.newUser("alice")
	first := s.newTask(alice, "first", s.base, nil)
	second := s.newTask(alice, "second", s.base.Add(time.Minute), nil)

	s.complete(second, s.base.Add(time.Hour))
	s.complete(first, s.base.Add(2*time.Hour))

	completed, err := s.storage.ListCompleted(s.ctx, alice.UUID)
	s.Require().NoError(err)
	s.Equal([]string{"first", "second"}, titles(completed))
}

func (s *StorageSuite) TestGroupCreateAndGet() {
	g := s.newGroup("book club", nil)

	got, err := s.storage.GetGroupByID(s.ctx, g.UUID)
	s.Require().NoError(err)
	s.Equal("book club", got.Name)

	_, err = s.storage.GetGroupByID(s.ctx, uuid.New())
	s.ErrorIs(err, repo.ErrNotFound)
}

func (s *StorageSuite) TestMembershipLifecycle() {
	alice := s.newUser("alice")
	bob := s.newUser("bob")
	g := s.newGroup("team", map[*user.User]group.Status{alice: group.StatusCreator})

	invite := &group.Membership{GroupID: g.UUID, UserID: bob.UUID, Status: group.StatusInvited, CreatedAt: s.base}
	s.Require().NoError(s.storage.CreateMembership(s.ctx, invite))
	s.ErrorIs(s.storage.CreateMembership(s.ctx, invite), repo.ErrAlreadyExists)

	m, err := s.storage.GetMembership(s.ctx, g.UUID, bob.UUID)
	s.Require().NoError(err)
	s.Equal(group.StatusInvited, m.Status)

	count, err := s.storage.CountActiveMembers(s.ctx, g.UUID)
	s.Require().NoError(err)
	s.Equal(1, count)

	s.Require().NoError(s.storage.UpdateMembershipStatus(s.ctx, g.UUID, bob.UUID, group.StatusMember))
	count, err = s.storage.CountActiveMembers(s.ctx, g.UUID)
	s.Require().NoError(err)
	s.Equal(2, count)

	members, err := s.storage.ListMembers(s.ctx, g.UUID)
	s.Require().NoError(err)
	s.Require().Len(members, 2)
	s.Equal("alice", members[0].Username)
	s.Equal(group.StatusCreator, members[0].Status)
	s.Equal("bob", members[1].Username)
	s.Equal(group.StatusMember, members[1].Status)

	s.Require().NoError(s.storage.DeleteMembership(s.ctx, g.UUID, bob.UUID))
	_, err = s.storage.GetMembership(s.ctx, g.UUID, bob.UUID)
	s.ErrorIs(err, repo.ErrNotFound)

	s.ErrorIs(s.storage.DeleteMembership(s.ctx, g.UUID, bob.UUID), repo.ErrNotFound)
	s.ErrorIs(s.storage.UpdateMembershipStatus(s.ctx, g.UUID, bob.UUID, group.StatusMember), repo.ErrNotFound)
}

func (s *StorageSuite) TestListUserGroups() {
	alice := s.newUser("alice")
	s.newGroup("zoo", map[*user.User]group.Status{alice: group.StatusMember})
	attic := s.newGroup("attic", map[*user.User]group.Status{alice: group.StatusCreator})
	s.newGroup("pending", map[*user.User]group.Status{alice: group.StatusInvited})
	s.newGroup("foreign", nil)

	active, err := s.storage.ListUserGroups(s.ctx, alice.UUID, group.StatusCreator, group.StatusMember)
	s.Require().NoError(err)
	s.Require().Len(active, 2)
	s.Equal(attic.UUID, active[0].Group.UUID)
	s.Equal("attic", active[0].Group.Name)
	s.True(attic.CreatedAt.Equal(active[0].Group.CreatedAt))
	s.Equal(group.StatusCreator, active[0].Status)
	s.Equal("zoo", active[1].Group.Name)

	invites, err := s.storage.ListUserGroups(s.ctx, alice.UUID, group.StatusInvited)
	s.Require().NoError(err)
	s.Require().Len(invites, 1)
	s.Equal("pending", invites[0].Group.Name)

	all, err := s.storage.ListUserGroups(s.ctx, alice.UUID)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *StorageSuite) TestFindInvitationPicksOldest() {
	alice := s.newUser("alice")
	bob := s.newUser("bob")

	older := s.newGroup("chores", map[*user.User]group.Status{alice: group.StatusCreator})
	newer := s.newGroup("chores", map[*user.User]group.Status{alice: group.StatusCreator})

	s.Require().NoError(s.storage.CreateMembership(s.ctx, &group.Membership{
		GroupID: newer.UUID, UserID: bob.UUID, Status: group.StatusInvited, CreatedAt: s.base.Add(time.Hour),
	}))
	s.Require().NoError(s.storage.CreateMembership(s.ctx, &group.Membership{
		GroupID: older.UUID, UserID: bob.UUID, Status: group.StatusInvited, CreatedAt: s.base,
	}))

	found, err := s.storage.FindInvitation(s.ctx, bob.UUID, "chores")
	s.Require().NoError(err)
	s.Equal(older.UUID, found.GroupID)

	_, err = s.storage.FindInvitation(s.ctx, alice.UUID, "chores")
	s.ErrorIs(err, repo.ErrNotFound, "active memberships are not invitations")

	_, err = s.storage.FindInvitation(s.ctx, bob.UUID, "Chores")
	s.ErrorIs(err, repo.ErrNotFound)
}

func (s *StorageSuite) TestLockGroup() {
	alice := s.newUser("alice")
	g := s.newGroup("locked", map[*user.User]group.Status{alice: group.StatusCreator})

	err := s.storage.InTx(s.ctx, func(ctx context.Context) error {
		if err := s.storage.LockGroup(ctx, g.UUID); err != nil {
			return err
		}
		return s.storage.DeleteMembership(ctx, g.UUID, alice.UUID)
	})
	s.Require().NoError(err)

	_, err = s.storage.GetMembership(s.ctx, g.UUID, alice.UUID)
	s.ErrorIs(err, repo.ErrNotFound)

	err = s.storage.InTx(s.ctx, func(ctx context.Context) error {
		return s.storage.LockGroup(ctx, uuid.New())
	})
	s.ErrorIs(err, repo.ErrNotFound)
}

func (s *StorageSuite) TestDeleteGroupCascades() {
	alice := s.newUser("alice")
	bob := s.newUser("bob")
	g := s.newGroup("doomed", map[*user.User]group.Status{alice: group.StatusCreator, bob: group.StatusInvited})
	other := s.newGroup("survivor", map[*user.User]group.Status{alice: group.StatusCreator})

	grouped := s.newTask(alice, "group task", s.base, &g.UUID)
	kept := s.newTask(alice, "other group task", s.base, &other.UUID)
	personal := s.newTask(alice, "personal", s.base, nil)

	s.Require().NoError(s.storage.DeleteGroup(s.ctx, g.UUID))

	_, err := s.storage.GetGroupByID(s.ctx, g.UUID)
	s.ErrorIs(err, repo.ErrNotFound)
	_, err = s.storage.GetMembership(s.ctx, g.UUID, alice.UUID)
	s.ErrorIs(err, repo.ErrNotFound)
	_, err = s.storage.GetMembership(s.ctx, g.UUID, bob.UUID)
	s.ErrorIs(err, repo.ErrNotFound)
	_, err = s.storage.GetTaskByID(s.ctx, grouped.UUID)
	s.ErrorIs(err, repo.ErrNotFound)

	_, err = s.storage.GetTaskByID(s.ctx, kept.UUID)
	s.NoError(err)
	_, err = s.storage.GetTaskByID(s.ctx, personal.UUID)
	s.NoError(err)

	s.ErrorIs(s.storage.DeleteGroup(s.ctx, g.UUID), repo.ErrNotFound)
}

func (s *StorageSuite) TestInTxCommits() {
	alice := s.newUser("alice")
	g := &group.Group{UUID: uuid.New(), Name: "committed", CreatedAt: s.base}

	err := s.storage.InTx(s.ctx, func(ctx context.Context) error {
		if err := s.storage.CreateGroup(ctx, g); err != nil {
			return err
		}
		return s.storage.CreateMembership(ctx, &group.Membership{
			GroupID: g.UUID, UserID: alice.UUID, Status: group.StatusCreator, CreatedAt: s.base,
		})
	})
	s.Require().NoError(err)

	_, err = s.storage.GetGroupByID(s.ctx, g.UUID)
	s.NoError(err)
	_, err = s.storage.GetMembership(s.ctx, g.UUID, alice.UUID)
	s.NoError(err)
}

func (s *StorageSuite) TestInTxRollsBack() {
	alice := s.newUser("alice")
	g := &group.Group{UUID: uuid.New(), Name: "rolled back", CreatedAt: s.base}
	boom := errors.New("boom")

	err := s.storage.InTx(s.ctx, func(ctx context.Context) error {
		if err := s.storage.CreateGroup(ctx, g); err != nil {
			return err
		}
		if err := s.storage.CreateMembership(ctx, &group.Membership{
			GroupID: g.UUID, UserID: alice.UUID, Status: group.StatusCreator, CreatedAt: s.base,
		}); err != nil {
			return err
		}
		return fmt.Errorf("after writes: %w", boom)
	})
	s.Require().ErrorIs(err, boom)

	_, err = s.storage.GetGroupByID(s.ctx, g.UUID)
	s.ErrorIs(err, repo.ErrNotFound)
	_, err = s.storage.GetMembership(s.ctx, g.UUID, alice.UUID)
	s.ErrorIs(err, repo.ErrNotFound)
}
