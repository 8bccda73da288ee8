package service_test

import (
	"context"
	"testing"
	"todolist/internal/auth"
	"todolist/internal/models/group"
	"todolist/internal/models/task"
	"todolist/internal/models/user"
	"todolist/internal/repository/inmemory"
	"todolist/internal/repository/sqlite"
	"todolist/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

// ScenarioSuite drives the three services together over a real storage backend.
type ScenarioSuite struct {
	suite.Suite

	// newStorage returns an empty storage for every test.
	newStorage func() service.Storage

	ctx     context.Context
	storage service.Storage
	auth    *service.AuthService
	tasks   *service.TaskService
	groups  *service.GroupService
}

func TestScenarioSuite(t *testing.T) {
	suite.Run(t, &ScenarioSuite{newStorage: func() service.Storage { return inmemory.New() }})
}

func TestScenarioSuiteSQLite(t *testing.T) {
	ss := &ScenarioSuite{}
	ss.newStorage = func() service.Storage {
		storage, err := sqlite.New(":memory:")
		require.NoError(ss.T(), err)
		ss.T().Cleanup(storage.Close)
		return storage
	}
	suite.Run(t, ss)
}

func (s *ScenarioSuite) SetupTest() {
	s.ctx = context.Background()
	s.storage = s.newStorage()
	s.auth = service.NewAuthService(s.storage, auth.NewPasswordHasherWithCost(bcrypt.MinCost))
	s.tasks = service.NewTaskService(s.storage, s.storage)
	s.groups = service.NewGroupService(s.storage, s.storage, s.storage)
}

func (s *ScenarioSuite) signup(name string) *user.User {
	u, err := s.auth.Signup(s.ctx, name, "password", "password")
	s.Require().NoError(err)
	return u
}

func (s *ScenarioSuite) createTask(owner *user.User, title string, groupID *uuid.UUID) *task.Task {
	t, err := s.tasks.CreateTask(s.ctx, owner.UUID, service.CreateTaskParams{Title: title, GroupID: groupID})
	s.Require().NoError(err)
	return t
}

// groupWith creates a group owned by creator and makes every other user an accepted member.
func (s *ScenarioSuite) groupWith(name string, creator *user.User, members ...*user.User) *group.Group {
	g, err := s.groups.CreateGroup(s.ctx, creator.UUID, name)
	s.Require().NoError(err)
	for _, m := range members {
		s.Require().NoError(s.groups.Invite(s.ctx, creator.UUID, g.UUID, m.Username))
		_, err := s.groups.AcceptInvite(s.ctx, m.UUID, name)
		s.Require().NoError(err)
	}
	return g
}

func (s *ScenarioSuite) visibleTitles(u *user.User) []string {
	buckets, err := s.tasks.ListCurrentTasks(s.ctx, u.UUID)
	s.Require().NoError(err)
	var res []string
	for _, b := range buckets {
		for _, t := range b.Tasks {
			res = append(res, t.Title)
		}
	}
	return res
}

func (s *ScenarioSuite) TestSignupLoginCreateCompleteDelete() {
	alice := s.signup("alice")

	loggedIn, err := s.auth.Login(s.ctx, "alice", "password")
	s.Require().NoError(err)
	s.Equal(alice.UUID, loggedIn.UUID)

	created := s.createTask(alice, "write report", nil)
	s.Equal([]string{"write report"}, s.visibleTitles(alice))

	_, err = s.tasks.CompleteTask(s.ctx, alice.UUID, created.UUID)
	s.Require().NoError(err)
	s.Empty(s.visibleTitles(alice))

	completed, err := s.tasks.ListCompletedTasks(s.ctx, alice.UUID)
	s.Require().NoError(err)
	s.Require().Len(completed, 1)
	s.Equal(created.UUID, completed[0].UUID)

	s.Require().NoError(s.tasks.DeleteTask(s.ctx, alice.UUID, created.UUID))
	completed, err = s.tasks.ListCompletedTasks(s.ctx, alice.UUID)
	s.Require().NoError(err)
	s.Empty(completed)
}

func (s *ScenarioSuite) TestSecondCompletionKeepsTimestamp() {
	alice := s.signup("alice")
	created := s.createTask(alice, "once", nil)

	first, err := s.tasks.CompleteTask(s.ctx, alice.UUID, created.UUID)
	s.Require().NoError(err)

	_, err = s.tasks.CompleteTask(s.ctx, alice.UUID, created.UUID)
	s.True(service.IsCode(err, service.CodeAlreadyCompleted))

	view, err := s.tasks.ViewTask(s.ctx, alice.UUID, created.UUID)
	s.Require().NoError(err)
	s.True(first.CompletedAt.Equal(*view.Task.CompletedAt))
}

func (s *ScenarioSuite) TestGroupTasksVisibleToMembersOnly() {
	alice := s.signup("alice")
	bob := s.signup("bob")
	carol := s.signup("carol")
	dave := s.signup("dave")

	g := s.groupWith("flat", alice, bob)
	s.Require().NoError(s.groups.Invite(s.ctx, alice.UUID, g.UUID, "carol"))

	shared := s.createTask(bob, "buy bread", &g.UUID)

	s.Contains(s.visibleTitles(alice), "buy bread")
	s.Contains(s.visibleTitles(bob), "buy bread")
	s.NotContains(s.visibleTitles(carol), "buy bread", "invited users see nothing yet")
	s.NotContains(s.visibleTitles(dave), "buy bread")

	_, err := s.tasks.ViewTask(s.ctx, carol.UUID, shared.UUID)
	s.True(service.IsCode(err, service.CodeNotFound))

	// members may edit, only the owner completes
	_, err = s.tasks.EditTask(s.ctx, alice.UUID, shared.UUID, service.EditTaskParams{Title: "buy rye bread", GroupID: &g.UUID})
	s.Require().NoError(err)
	_, err = s.tasks.CompleteTask(s.ctx, alice.UUID, shared.UUID)
	s.True(service.IsCode(err, service.CodeNotFound))

	view, err := s.tasks.ViewTask(s.ctx, bob.UUID, shared.UUID)
	s.Require().NoError(err)
	s.Equal("buy rye bread", view.Task.Title)
	s.Equal(bob.UUID, view.Task.OwnerID)
	s.Equal("flat", view.GroupName)
}

func (s *ScenarioSuite) TestInviteAcceptFlow() {
	alice := s.signup("alice")
	bob := s.signup("bob")

	g, err := s.groups.CreateGroup(s.ctx, alice.UUID, "trip")
	s.Require().NoError(err)

	s.Require().NoError(s.groups.Invite(s.ctx, alice.UUID, g.UUID, "bob"))

	err = s.groups.Invite(s.ctx, alice.UUID, g.UUID, "bob")
	s.True(service.IsCode(err, service.CodeConflict))

	err = s.groups.Invite(s.ctx, alice.UUID, g.UUID, "nobody")
	s.True(service.IsCode(err, service.CodeValidation))

	invites, err := s.groups.ListInvites(s.ctx, bob.UUID)
	s.Require().NoError(err)
	s.Require().Len(invites, 1)
	s.Equal("trip", invites[0].Group.Name)

	_, err = s.groups.ViewGroup(s.ctx, bob.UUID, g.UUID)
	s.True(service.IsCode(err, service.CodeNotFound), "invited users cannot open the group")

	accepted, err := s.groups.AcceptInvite(s.ctx, bob.UUID, "trip")
	s.Require().NoError(err)
	s.Equal(g.UUID, accepted.UUID)

	view, err := s.groups.ViewGroup(s.ctx, bob.UUID, g.UUID)
	s.Require().NoError(err)
	s.Equal(group.StatusMember, view.Status)
	s.Len(view.Members, 2)

	_, err = s.groups.AcceptInvite(s.ctx, bob.UUID, "trip")
	s.True(service.IsCode(err, service.CodeNotFound), "accepting twice fails without side effects")

	view, err = s.groups.ViewGroup(s.ctx, bob.UUID, g.UUID)
	s.Require().NoError(err)
	s.Equal(group.StatusMember, view.Status)
}

func (s *ScenarioSuite) TestDeclineInvite() {
	alice := s.signup("alice")
	bob := s.signup("bob")
	g, err := s.groups.CreateGroup(s.ctx, alice.UUID, "club")
	s.Require().NoError(err)
	s.Require().NoError(s.groups.Invite(s.ctx, alice.UUID, g.UUID, "bob"))

	s.Require().NoError(s.groups.DeclineInvite(s.ctx, bob.UUID, "club"))

	invites, err := s.groups.ListInvites(s.ctx, bob.UUID)
	s.Require().NoError(err)
	s.Empty(invites)

	// declining frees the slot for a new invitation
	s.Require().NoError(s.groups.Invite(s.ctx, alice.UUID, g.UUID, "bob"))
}

func (s *ScenarioSuite) TestDeleteGroupRemovesEverything() {
	alice := s.signup("alice")
	bob := s.signup("bob")
	carol := s.signup("carol")
	g := s.groupWith("office", alice, bob)
	s.Require().NoError(s.groups.Invite(s.ctx, alice.UUID, g.UUID, "carol"))

	groupTask := s.createTask(bob, "order chairs", &g.UUID)
	personal := s.createTask(bob, "call mum", nil)

	// any active member may delete
	s.Require().NoError(s.groups.DeleteGroup(s.ctx, bob.UUID, g.UUID))

	for _, u := range []*user.User{alice, bob, carol} {
		_, err := s.storage.GetMembership(s.ctx, g.UUID, u.UUID)
		s.Error(err)
	}
	_, err := s.storage.GetTaskByID(s.ctx, groupTask.UUID)
	s.Error(err)
	_, err = s.storage.GetTaskByID(s.ctx, personal.UUID)
	s.NoError(err)

	groups, err := s.groups.ListGroups(s.ctx, alice.UUID)
	s.Require().NoError(err)
	s.Empty(groups)
}

func (s *ScenarioSuite) TestLastMemberLeavingDeletesGroup() {
	alice := s.signup("alice")
	bob := s.signup("bob")
	carol := s.signup("carol")
	g := s.groupWith("band", alice, bob)
	s.Require().NoError(s.groups.Invite(s.ctx, alice.UUID, g.UUID, "carol"))

	deleted, err := s.groups.LeaveGroup(s.ctx, alice.UUID, g.UUID)
	s.Require().NoError(err)
	s.False(deleted, "bob is still a member")

	deleted, err = s.groups.LeaveGroup(s.ctx, bob.UUID, g.UUID)
	s.Require().NoError(err)
	s.True(deleted, "only an invitation was left")

	_, err = s.storage.GetGroupByID(s.ctx, g.UUID)
	s.Error(err)
	invites, err := s.groups.ListInvites(s.ctx, carol.UUID)
	s.Require().NoError(err)
	s.Empty(invites)
}

func (s *ScenarioSuite) TestReservedNamesAreNotPersisted() {
	alice := s.signup("alice")

	for _, name := range []string{"self", "items", "SELF", " items "} {
		_, err := s.groups.CreateGroup(s.ctx, alice.UUID, name)
		s.True(service.IsCode(err, service.CodeValidation), name)
	}

	groups, err := s.groups.ListGroups(s.ctx, alice.UUID)
	s.Require().NoError(err)
	s.Empty(groups)
}

func (s *ScenarioSuite) TestEditCannotMoveTaskIntoForeignGroup() {
	alice := s.signup("alice")
	bob := s.signup("bob")
	bobsGroup := s.groupWith("private", bob)
	created := s.createTask(alice, "mine", nil)

	_, err := s.tasks.EditTask(s.ctx, alice.UUID, created.UUID, service.EditTaskParams{Title: "mine", GroupID: &bobsGroup.UUID})
	s.True(service.IsCode(err, service.CodeValidation))

	s.NotContains(s.visibleTitles(bob), "mine")
}

func (s *ScenarioSuite) TestCurrentListNeverShowsCompleted() {
	alice := s.signup("alice")
	bob := s.signup("bob")
	g := s.groupWith("house", alice, bob)

	s.createTask(alice, "open personal", nil)
	done := s.createTask(alice, "done personal", nil)
	s.createTask(bob, "open shared", &g.UUID)
	doneShared := s.createTask(bob, "done shared", &g.UUID)

	_, err := s.tasks.CompleteTask(s.ctx, alice.UUID, done.UUID)
	s.Require().NoError(err)
	_, err = s.tasks.CompleteTask(s.ctx, bob.UUID, doneShared.UUID)
	s.Require().NoError(err)

	s.ElementsMatch([]string{"open personal", "open shared"}, s.visibleTitles(alice))
	s.ElementsMatch([]string{"open shared"}, s.visibleTitles(bob))
}
