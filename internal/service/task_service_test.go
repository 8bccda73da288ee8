package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"todolist/internal/models/group"
	"todolist/internal/models/task"
	rep "todolist/internal/repository"
	"todolist/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var activeStatuses = []group.Status{group.StatusCreator, group.StatusMember}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	busErr, ok := service.AsBusinessError(err)
	require.True(t, ok, "expected business error, got %v", err)
	assert.Equal(t, code, busErr.Code)
}

func TestTaskService_CreateTask(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	groupID := uuid.New()

	tests := []struct {
		name       string
		params     service.CreateTaskParams
		setupMock  func(*MockTaskRepository, *MockGroupRepository)
		expectCode string
		expectErr  bool
	}{
		{
			name:   "success - personal task, title trimmed",
			params: service.CreateTaskParams{Title: "  Buy milk  ", Description: "2 liters", Important: true},
			setupMock: func(tr *MockTaskRepository, gr *MockGroupRepository) {
				tr.On("CreateTask", mock.Anything, mock.MatchedBy(func(t *task.Task) bool {
					return t.Title == "Buy milk" &&
						t.OwnerID == userID &&
						t.Important &&
						t.GroupID == nil &&
						t.CompletedAt == nil &&
						t.Version == 1
				})).Return(nil)
			},
		},
		{
			name:   "success - group task for a member",
			params: service.CreateTaskParams{Title: "Clean kitchen", GroupID: &groupID},
			setupMock: func(tr *MockTaskRepository, gr *MockGroupRepository) {
				gr.On("GetMembership", mock.Anything, groupID, userID).
					Return(&group.Membership{GroupID: groupID, UserID: userID, Status: group.StatusMember}, nil)
				tr.On("CreateTask", mock.Anything, mock.MatchedBy(func(t *task.Task) bool {
					return t.GroupID != nil && *t.GroupID == groupID
				})).Return(nil)
			},
		},
		{
			name:       "error - empty title",
			params:     service.CreateTaskParams{Title: "   "},
			setupMock:  func(tr *MockTaskRepository, gr *MockGroupRepository) {},
			expectCode: service.CodeValidation,
		},
		{
			name:       "error - title too long",
			params:     service.CreateTaskParams{Title: strings.Repeat("a", task.MaxTitleLength+1)},
			setupMock:  func(tr *MockTaskRepository, gr *MockGroupRepository) {},
			expectCode: service.CodeValidation,
		},
		{
			name:   "error - not a member of the group",
			params: service.CreateTaskParams{Title: "Sneaky", GroupID: &groupID},
			setupMock: func(tr *MockTaskRepository, gr *MockGroupRepository) {
				gr.On("GetMembership", mock.Anything, groupID, userID).Return(nil, rep.ErrNotFound)
			},
			expectCode: service.CodeAuthorization,
		},
		{
			name:   "error - only invited to the group",
			params: service.CreateTaskParams{Title: "Too early", GroupID: &groupID},
			setupMock: func(tr *MockTaskRepository, gr *MockGroupRepository) {
				gr.On("GetMembership", mock.Anything, groupID, userID).
					Return(&group.Membership{GroupID: groupID, UserID: userID, Status: group.StatusInvited}, nil)
			},
			expectCode: service.CodeAuthorization,
		},
		{
			name:   "error - repository failure",
			params: service.CreateTaskParams{Title: "Whatever"},
			setupMock: func(tr *MockTaskRepository, gr *MockGroupRepository) {
				tr.On("CreateTask", mock.Anything, mock.Anything).Return(errors.New("db down"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := new(MockTaskRepository)
			groups := new(MockGroupRepository)
			tt.setupMock(tasks, groups)

			svc := service.NewTaskService(tasks, groups)
			created, err := svc.CreateTask(ctx, userID, tt.params)

			switch {
			case tt.expectCode != "":
				assertCode(t, err, tt.expectCode)
				assert.Nil(t, created)
				tasks.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything)
			case tt.expectErr:
				require.Error(t, err)
				_, isBusiness := service.AsBusinessError(err)
				assert.False(t, isBusiness)
			default:
				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, created.UUID)
				assert.Equal(t, userID, created.OwnerID)
				assert.False(t, created.CreatedAt.IsZero())
			}

			tasks.AssertExpectations(t)
			groups.AssertExpectations(t)
		})
	}
}

func TestTaskService_CompleteTask(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	taskID := uuid.New()
	earlier := time.Now().Add(-time.Hour)

	tests := []struct {
		name       string
		setupMock  func(*MockTaskRepository)
		expectCode string
	}{
		{
			name: "success",
			setupMock: func(m *MockTaskRepository) {
				m.On("GetTaskByID", mock.Anything, taskID).
					Return(&task.Task{UUID: taskID, Title: "t", OwnerID: userID, Version: 1}, nil)
				m.On("UpdateTask", mock.Anything, mock.MatchedBy(func(t *task.Task) bool {
					return t.CompletedAt != nil
				})).Return(nil)
			},
		},
		{
			name: "error - task does not exist",
			setupMock: func(m *MockTaskRepository) {
				m.On("GetTaskByID", mock.Anything, taskID).Return(nil, rep.ErrNotFound)
			},
			expectCode: service.CodeNotFound,
		},
		{
			name: "error - task of another user",
			setupMock: func(m *MockTaskRepository) {
				m.On("GetTaskByID", mock.Anything, taskID).
					Return(&task.Task{UUID: taskID, OwnerID: uuid.New(), Version: 1}, nil)
			},
			expectCode: service.CodeNotFound,
		},
		{
			name: "error - already completed keeps the first timestamp",
			setupMock: func(m *MockTaskRepository) {
				m.On("GetTaskByID", mock.Anything, taskID).
					Return(&task.Task{UUID: taskID, OwnerID: userID, CompletedAt: &earlier, Version: 2}, nil)
			},
			expectCode: service.CodeAlreadyCompleted,
		},
		{
			name: "error - concurrent modification",
			setupMock: func(m *MockTaskRepository) {
				m.On("GetTaskByID", mock.Anything, taskID).
					Return(&task.Task{UUID: taskID, OwnerID: userID, Version: 1}, nil)
				m.On("UpdateTask", mock.Anything, mock.Anything).Return(rep.ErrVersionConflict)
			},
			expectCode: service.CodeVersionConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := new(MockTaskRepository)
			tt.setupMock(tasks)

			svc := service.NewTaskService(tasks, new(MockGroupRepository))
			completed, err := svc.CompleteTask(ctx, userID, taskID)

			if tt.expectCode != "" {
				assertCode(t, err, tt.expectCode)
			} else {
				require.NoError(t, err)
				require.NotNil(t, completed.CompletedAt)
				assert.WithinDuration(t, time.Now(), *completed.CompletedAt, time.Second)
			}
			tasks.AssertExpectations(t)
		})
	}
}

func TestTaskService_DeleteTask(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	taskID := uuid.New()
	groupID := uuid.New()

	t.Run("success", func(t *testing.T) {
		tasks := new(MockTaskRepository)
		tasks.On("GetTaskByID", mock.Anything, taskID).Return(&task.Task{UUID: taskID, OwnerID: userID}, nil)
		tasks.On("DeleteTask", mock.Anything, taskID).Return(nil)

		svc := service.NewTaskService(tasks, new(MockGroupRepository))
		require.NoError(t, svc.DeleteTask(ctx, userID, taskID))
		tasks.AssertExpectations(t)
	})

	t.Run("group member cannot delete someone else's group task", func(t *testing.T) {
		tasks := new(MockTaskRepository)
		tasks.On("GetTaskByID", mock.Anything, taskID).
			Return(&task.Task{UUID: taskID, OwnerID: uuid.New(), GroupID: &groupID}, nil)

		svc := service.NewTaskService(tasks, new(MockGroupRepository))
		assertCode(t, svc.DeleteTask(ctx, userID, taskID), service.CodeNotFound)
		tasks.AssertNotCalled(t, "DeleteTask", mock.Anything, mock.Anything)
	})
}

func TestTaskService_ViewTask(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	taskID := uuid.New()
	groupID := uuid.New()
	groupTask := &task.Task{UUID: taskID, Title: "shared", OwnerID: uuid.New(), GroupID: &groupID}

	t.Run("group member sees the task with its group name", func(t *testing.T) {
		tasks := new(MockTaskRepository)
		groups := new(MockGroupRepository)
		tasks.On("GetTaskByID", mock.Anything, taskID).Return(groupTask, nil)
		groups.On("GetMembership", mock.Anything, groupID, userID).
			Return(&group.Membership{Status: group.StatusMember}, nil)
		groups.On("GetGroupByID", mock.Anything, groupID).Return(&group.Group{UUID: groupID, Name: "Home"}, nil)

		view, err := service.NewTaskService(tasks, groups).ViewTask(ctx, userID, taskID)
		require.NoError(t, err)
		assert.Equal(t, "shared", view.Task.Title)
		assert.Equal(t, "Home", view.GroupName)
	})

	t.Run("invited user does not see it", func(t *testing.T) {
		tasks := new(MockTaskRepository)
		groups := new(MockGroupRepository)
		tasks.On("GetTaskByID", mock.Anything, taskID).Return(groupTask, nil)
		groups.On("GetMembership", mock.Anything, groupID, userID).
			Return(&group.Membership{Status: group.StatusInvited}, nil)

		_, err := service.NewTaskService(tasks, groups).ViewTask(ctx, userID, taskID)
		assertCode(t, err, service.CodeNotFound)
	})

	t.Run("stranger does not see a personal task", func(t *testing.T) {
		tasks := new(MockTaskRepository)
		tasks.On("GetTaskByID", mock.Anything, taskID).
			Return(&task.Task{UUID: taskID, OwnerID: uuid.New()}, nil)

		_, err := service.NewTaskService(tasks, new(MockGroupRepository)).ViewTask(ctx, userID, taskID)
		assertCode(t, err, service.CodeNotFound)
	})
}

func TestTaskService_EditTask(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	taskID := uuid.New()
	foreignGroup := uuid.New()

	t.Run("moving into a group the editor is not in is a validation error", func(t *testing.T) {
		tasks := new(MockTaskRepository)
		groups := new(MockGroupRepository)
		tasks.On("GetTaskByID", mock.Anything, taskID).
			Return(&task.Task{UUID: taskID, Title: "mine", OwnerID: userID, Version: 1}, nil)
		groups.On("GetMembership", mock.Anything, foreignGroup, userID).Return(nil, rep.ErrNotFound)

		_, err := service.NewTaskService(tasks, groups).EditTask(ctx, userID, taskID, service.EditTaskParams{
			Title:   "mine",
			GroupID: &foreignGroup,
		})
		assertCode(t, err, service.CodeValidation)
		tasks.AssertNotCalled(t, "UpdateTask", mock.Anything, mock.Anything)
	})

	t.Run("owner never changes and fields are replaced", func(t *testing.T) {
		tasks := new(MockTaskRepository)
		tasks.On("GetTaskByID", mock.Anything, taskID).
			Return(&task.Task{UUID: taskID, Title: "old", Description: "old", Important: true, OwnerID: userID, Version: 3}, nil)
		tasks.On("UpdateTask", mock.Anything, mock.MatchedBy(func(t *task.Task) bool {
			return t.Title == "new" && t.Description == "" && !t.Important && t.OwnerID == userID && t.Version == 3
		})).Return(nil)

		edited, err := service.NewTaskService(tasks, new(MockGroupRepository)).EditTask(ctx, userID, taskID, service.EditTaskParams{
			Title: "new",
		})
		require.NoError(t, err)
		assert.Equal(t, "new", edited.Title)
		tasks.AssertExpectations(t)
	})
}

func TestTaskService_ListCurrentTasks(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	home := group.Group{UUID: uuid.New(), Name: "Home"}
	work := group.Group{UUID: uuid.New(), Name: "Work"}
	now := time.Now()

	tasks := new(MockTaskRepository)
	groups := new(MockGroupRepository)

	tasks.On("ListPersonalActive", mock.Anything, userID).Return([]*task.Task{
		{UUID: uuid.New(), Title: "older", CreatedAt: now.Add(-time.Hour)},
		{UUID: uuid.New(), Title: "newer", CreatedAt: now},
	}, nil)
	groups.On("ListUserGroups", mock.Anything, userID, activeStatuses).Return([]*group.UserGroup{
		{Group: home, Status: group.StatusCreator},
		{Group: work, Status: group.StatusMember},
	}, nil)
	tasks.On("ListGroupActive", mock.Anything, home.UUID).Return([]*task.Task{{UUID: uuid.New(), Title: "dishes"}}, nil)
	tasks.On("ListGroupActive", mock.Anything, work.UUID).Return([]*task.Task{}, nil)

	buckets, err := service.NewTaskService(tasks, groups).ListCurrentTasks(ctx, userID)
	require.NoError(t, err)
	require.Len(t, buckets, 3)

	assert.True(t, buckets[0].IsPersonal())
	assert.Equal(t, "newer", buckets[0].Tasks[0].Title)
	assert.Equal(t, "Home", buckets[1].GroupName)
	assert.Len(t, buckets[1].Tasks, 1)
	assert.Equal(t, "Work", buckets[2].GroupName)
	assert.NotNil(t, buckets[2].Tasks)
	assert.Empty(t, buckets[2].Tasks)
}
