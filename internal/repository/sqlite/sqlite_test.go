package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"
	"todolist/internal/models/task"
	"todolist/internal/models/user"
	"todolist/internal/repository/repotest"
	"todolist/internal/repository/sqlite"
	"todolist/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func newMemoryStorage(t *testing.T) *sqlite.Storage {
	t.Helper()

	storage, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(storage.Close)
	return storage
}

func TestStorageContract(t *testing.T) {
	ss := &repotest.StorageSuite{}
	ss.NewStorage = func() service.Storage { return newMemoryStorage(ss.T()) }
	suite.Run(t, ss)
}

func TestStorage_PersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "todolist.db")

	storage, err := sqlite.New(path)
	require.NoError(t, err)

	owner := &user.User{UUID: uuid.New(), Username: "alice", PasswordHash: "x", CreatedAt: time.Now()}
	require.NoError(t, storage.CreateUser(ctx, owner))

	created := &task.Task{UUID: uuid.New(), Title: "survives restart", OwnerID: owner.UUID, CreatedAt: time.Now()}
	require.NoError(t, storage.CreateTask(ctx, created))
	storage.Close()

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetTaskByID(ctx, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, "survives restart", got.Title)
	assert.Equal(t, 1, got.Version)
	assert.Nil(t, got.UpdatedAt)
}
