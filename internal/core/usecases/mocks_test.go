package usecases_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/samirrijal/citydiscover/internal/core/domain"
	"github.com/samirrijal/citydiscover/internal/core/ports"
	"github.com/samirrijal/citydiscover/internal/core/usecases"
)

// --- Mock PlaceSource ---

type mockPlaceSource struct {
	mu      sync.Mutex
	calls   []domain.BoundingBox
	fetchFn func(ctx context.Context, box domain.BoundingBox) ([]domain.Place, error)
}

func (m *mockPlaceSource) FetchPlacesInBounds(ctx context.Context, box domain.BoundingBox) ([]domain.Place, error) {
	m.mu.Lock()
	m.calls = append(m.calls, box)
	m.mu.Unlock()
	if m.fetchFn != nil {
		return m.fetchFn(ctx, box)
	}
	return nil, nil
}

func (m *mockPlaceSource) Calls() []domain.BoundingBox {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.BoundingBox(nil), m.calls...)
}

// --- Mock RouteSource ---

type mockRouteSource struct {
	mu      sync.Mutex
	calls   int
	fetchFn func(ctx context.Context, start, end domain.GeoPoint, mode domain.TransportMode) *domain.RouteDetails
}

func (m *mockRouteSource) FetchRoute(ctx context.Context, start, end domain.GeoPoint, mode domain.TransportMode) *domain.RouteDetails {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.fetchFn != nil {
		return m.fetchFn(ctx, start, end, mode)
	}
	return nil
}

func (m *mockRouteSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- Mock CacheService ---

var errCacheMiss = errors.New("cache miss")

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// --- Mock EventPublisher ---

type mockEvents struct {
	mu     sync.Mutex
	places []ports.PlacesFetchedEvent
	routes []ports.RouteComputedEvent
}

func (m *mockEvents) PublishPlacesFetched(ctx context.Context, e *ports.PlacesFetchedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.places = append(m.places, *e)
	return nil
}

func (m *mockEvents) PublishRouteComputed(ctx context.Context, e *ports.RouteComputedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, *e)
	return nil
}

// --- Mock UserRepository ---

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*ports.UserRecord
}

func newMockUserRepo() *mockUserRepo { return &mockUserRepo{users: map[string]*ports.UserRecord{}} }

func (m *mockUserRepo) Create(ctx context.Context, rec *ports.UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[rec.User.Email]; ok {
		return domain.ErrEmailTaken
	}
	m.users[rec.User.Email] = rec
	return nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*ports.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return rec, nil
}

// --- Manual scheduler ---

type fakeTimer struct {
	s       *fakeScheduler
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeScheduler records timers; tests fire them explicitly.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) usecases.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, f: f}
	s.timers = append(s.timers, t)
	return t
}

// FirePending runs every timer that has not been stopped or fired yet.
// It returns how many callbacks ran.
func (s *fakeScheduler) FirePending() int {
	s.mu.Lock()
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()
	for _, t := range due {
		t.f()
	}
	return len(due)
}

// FireAll runs every recorded timer, including stopped ones, as a timer
// that raced its Stop would.
func (s *fakeScheduler) FireAll() {
	s.mu.Lock()
	all := append([]*fakeTimer(nil), s.timers...)
	s.mu.Unlock()
	for _, t := range all {
		t.f()
	}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
