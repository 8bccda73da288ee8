package inmemory

import (
	"context"
	"sync"
	"todolist/internal/logger"
	"todolist/internal/models/group"
	"todolist/internal/models/task"
	"todolist/internal/models/user"

	"github.com/google/uuid"
)

type membershipKey struct {
	groupID uuid.UUID
	userID  uuid.UUID
}

// Storage keeps everything in maps. Writes outside InTx are serialized with transactions,
// and a failed transaction restores the snapshot taken when it started.
type Storage struct {
	mtx  *sync.RWMutex
	txMu *sync.Mutex

	users       map[uuid.UUID]*user.User
	usernames   map[string]uuid.UUID
	tasks       map[uuid.UUID]*task.Task
	groups      map[uuid.UUID]*group.Group
	memberships map[membershipKey]*group.Membership
}

func New() *Storage {
	return &Storage{
		mtx:         &sync.RWMutex{},
		txMu:        &sync.Mutex{},
		users:       make(map[uuid.UUID]*user.User),
		usernames:   make(map[string]uuid.UUID),
		tasks:       make(map[uuid.UUID]*task.Task),
		groups:      make(map[uuid.UUID]*group.Group),
		memberships: make(map[membershipKey]*group.Membership),
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: in-memory storage is alive")
	return nil
}

func (s *Storage) Close() {
	logger.Info("Repository: in-memory storage closed")
}

type txKey struct{}

func (s *Storage) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// beginWrite serializes a standalone write with running transactions.
func (s *Storage) beginWrite(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

type snapshot struct {
	users       map[uuid.UUID]*user.User
	usernames   map[string]uuid.UUID
	tasks       map[uuid.UUID]*task.Task
	groups      map[uuid.UUID]*group.Group
	memberships map[membershipKey]*group.Membership
}

func (s *Storage) snapshot() snapshot {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	snap := snapshot{
		users:       make(map[uuid.UUID]*user.User, len(s.users)),
		usernames:   make(map[string]uuid.UUID, len(s.usernames)),
		tasks:       make(map[uuid.UUID]*task.Task, len(s.tasks)),
		groups:      make(map[uuid.UUID]*group.Group, len(s.groups)),
		memberships: make(map[membershipKey]*group.Membership, len(s.memberships)),
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.usernames {
		snap.usernames[k] = v
	}
	// stored values are replaced on write, never mutated, so copying pointers is enough
	for k, v := range s.tasks {
		snap.tasks[k] = v
	}
	for k, v := range s.groups {
		snap.groups[k] = v
	}
	for k, v := range s.memberships {
		snap.memberships[k] = v
	}
	return snap
}

func (s *Storage) restore(snap snapshot) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.users = snap.users
	s.usernames = snap.usernames
	s.tasks = snap.tasks
	s.groups = snap.groups
	s.memberships = snap.memberships
	logger.Debug("Repository: in-memory transaction rolled back")
}
