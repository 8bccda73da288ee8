package auth_test

import (
	"context"
	"fmt"
	"testing"
	"time"
	"todolist/internal/auth"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type RedisStoreSuite struct {
	suite.Suite
	container testcontainers.Container
	client    *redis.Client
	store     *auth.RedisStore
}

func (s *RedisStoreSuite) SetupSuite() {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(ctx)
	require.NoError(s.T(), err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(s.T(), err)

	s.client = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	s.store = auth.NewRedisStore(s.client, "test:session:")
	require.NoError(s.T(), s.store.Ping(ctx))
}

func (s *RedisStoreSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
	if s.container != nil {
		s.container.Terminate(context.Background())
	}
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.client.FlushDB(context.Background()).Err())
}

func (s *RedisStoreSuite) TestSaveGetDelete() {
	ctx := context.Background()

	s.Require().NoError(s.store.Save(ctx, "sid", "uid", time.Minute))

	userID, err := s.store.Get(ctx, "sid")
	s.Require().NoError(err)
	s.Equal("uid", userID)

	ttl, err := s.client.TTL(ctx, "test:session:sid").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))

	s.Require().NoError(s.store.Delete(ctx, "sid"))
	_, err = s.store.Get(ctx, "sid")
	s.ErrorIs(err, auth.ErrSessionNotFound)
}

func (s *RedisStoreSuite) TestKeyExpires() {
	ctx := context.Background()

	s.Require().NoError(s.store.Save(ctx, "short", "uid", time.Second))
	s.Eventually(func() bool {
		_, err := s.store.Get(ctx, "short")
		return err == auth.ErrSessionNotFound
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *RedisStoreSuite) TestBacksSessionManager() {
	ctx := context.Background()
	manager := auth.NewSessionManager(auth.SessionConfig{Secret: "secret", TTL: time.Minute}, s.store)
	userID := uuid.New()

	token, _, err := manager.Issue(ctx, userID)
	s.Require().NoError(err)

	session, err := manager.Resolve(ctx, token)
	s.Require().NoError(err)
	s.Equal(userID, session.UserID)

	s.Require().NoError(manager.Revoke(ctx, token))
	_, err = manager.Resolve(ctx, token)
	s.ErrorIs(err, auth.ErrSessionRevoked)
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis integration tests in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}
