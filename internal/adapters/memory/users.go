package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/samirrijal/citydiscover/internal/core/domain"
	"github.com/samirrijal/citydiscover/internal/core/ports"
)

// UserStore implements ports.UserRepository in process memory.
// Accounts are lost on restart.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]ports.UserRecord
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]ports.UserRecord)}
}

func (s *UserStore) Create(_ context.Context, rec *ports.UserRecord) error {
	key := strings.ToLower(rec.User.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[key]; ok {
		return domain.ErrEmailTaken
	}
	s.users[key] = *rec
	return nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*ports.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &rec, nil
}
