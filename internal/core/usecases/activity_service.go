package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/samirrijal/citydiscover/internal/core/domain"
	"github.com/samirrijal/citydiscover/internal/core/ports"
)

// ActivitySummary aggregates events seen since the last reset.
type ActivitySummary struct {
	Since          time.Time                    `json:"since"`
	PlaceQueries   int                          `json:"place_queries"`
	CachedQueries  int                          `json:"cached_queries"`
	PlacesReturned int                          `json:"places_returned"`
	RoutesFound    map[domain.TransportMode]int `json:"routes_found"`
	RoutesMissing  map[domain.TransportMode]int `json:"routes_missing"`
	AvgQueryTime   time.Duration                `json:"avg_query_time"`
	Busiest        *domain.BoundingBox          `json:"busiest,omitempty"`
}

// ActivityService consumes activity events from the broker and keeps
// running totals.
type ActivityService struct {
	mu        sync.Mutex
	summary   ActivitySummary
	queryTime time.Duration
	upstream  int
	busiest   int
	now       func() time.Time
}

func NewActivityService() *ActivityService {
	s := &ActivityService{now: time.Now}
	s.resetLocked()
	return s
}

// Run subscribes to both event streams. It returns once subscribed.
func (s *ActivityService) Run(ctx context.Context, sub ports.EventSubscriber) error {
	if err := sub.SubscribePlacesFetched(ctx, s.HandlePlacesFetched); err != nil {
		return err
	}
	return sub.SubscribeRouteComputed(ctx, s.HandleRouteComputed)
}

func (s *ActivityService) HandlePlacesFetched(_ context.Context, e *ports.PlacesFetchedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary.PlaceQueries++
	s.summary.PlacesReturned += e.Count
	if e.Cached {
		s.summary.CachedQueries++
		return nil
	}
	s.upstream++
	s.queryTime += e.Duration
	s.summary.AvgQueryTime = s.queryTime / time.Duration(s.upstream)
	if e.Count > s.busiest {
		s.busiest = e.Count
		b := e.Bounds
		s.summary.Busiest = &b
	}
	return nil
}

func (s *ActivityService) HandleRouteComputed(_ context.Context, e *ports.RouteComputedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Found {
		s.summary.RoutesFound[e.Mode]++
	} else {
		s.summary.RoutesMissing[e.Mode]++
	}
	return nil
}

// Snapshot returns the totals and, if reset is set, starts a new window.
func (s *ActivityService) Snapshot(reset bool) ActivitySummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.summary
	out.RoutesFound = copyCounts(s.summary.RoutesFound)
	out.RoutesMissing = copyCounts(s.summary.RoutesMissing)
	if reset {
		s.resetLocked()
	}
	return out
}

func (s *ActivityService) resetLocked() {
	s.summary = ActivitySummary{
		Since:         s.now().UTC(),
		RoutesFound:   map[domain.TransportMode]int{},
		RoutesMissing: map[domain.TransportMode]int{},
	}
	s.queryTime = 0
	s.upstream = 0
	s.busiest = 0
}

func copyCounts(m map[domain.TransportMode]int) map[domain.TransportMode]int {
	out := make(map[domain.TransportMode]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
