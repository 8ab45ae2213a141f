package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/citydiscover/internal/core/domain"
	"github.com/samirrijal/citydiscover/internal/core/ports"
)

// UserStore implements ports.UserRepository on top of the cache connection.
// Accounts are stored as JSON under "user:<email>".
type UserStore struct {
	cache *Cache
	ttl   time.Duration
}

// NewUserStore creates a store sharing c's client. ttl <= 0 keeps accounts
// until they are evicted by the server.
func NewUserStore(c *Cache, ttl time.Duration) *UserStore {
	return &UserStore{cache: c, ttl: ttl}
}

func (s *UserStore) key(email string) string {
	return s.cache.prefix + "user:" + strings.ToLower(email)
}

// Create stores rec unless an account already uses its email.
func (s *UserStore) Create(ctx context.Context, rec *ports.UserRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	c := s.cache.client
	set := c.B().Set().Key(s.key(rec.User.Email)).Value(valkey.BinaryString(data)).Nx()

	// SET NX replies nil when the key already exists.
	var res valkey.ValkeyResult
	if s.ttl > 0 {
		res = c.Do(ctx, set.Ex(s.ttl).Build())
	} else {
		res = c.Do(ctx, set.Build())
	}
	if err := res.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}

// GetByEmail loads the account registered under email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*ports.UserRecord, error) {
	c := s.cache.client
	data, err := c.Do(ctx, c.B().Get().Key(s.key(email)).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	var rec ports.UserRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &rec, nil
}
