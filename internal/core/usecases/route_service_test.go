package usecases_test

import (
	"context"
	"testing"

	"github.com/samirrijal/citydiscover/internal/core/domain"
	"github.com/samirrijal/citydiscover/internal/core/usecases"
)

func TestRouteService_CachesRoutes(t *testing.T) {
	src := &mockRouteSource{
		fetchFn: func(ctx context.Context, start, end domain.GeoPoint, mode domain.TransportMode) *domain.RouteDetails {
			return shortHop
		},
	}
	events := &mockEvents{}
	svc := usecases.NewRouteService(src, newMockCache(), events)

	for i := 0; i < 2; i++ {
		route := svc.FetchRoute(context.Background(), origin, clock.Location, domain.ModeWalking)
		if route == nil {
			t.Fatal("expected route")
		}
		if route.Distance != 1500 || len(route.Coordinates) != 2 {
			t.Errorf("unexpected route %+v", route)
		}
	}

	if src.Calls() != 1 {
		t.Errorf("expected 1 source call, got %d", src.Calls())
	}
	if len(events.routes) != 1 || !events.routes[0].Found || events.routes[0].Mode != domain.ModeWalking {
		t.Errorf("unexpected events %+v", events.routes)
	}
}

func TestRouteService_NoRouteNotCached(t *testing.T) {
	src := &mockRouteSource{}
	cache := newMockCache()
	events := &mockEvents{}
	svc := usecases.NewRouteService(src, cache, events)

	if route := svc.FetchRoute(context.Background(), origin, clock.Location, domain.ModeDriving); route != nil {
		t.Fatalf("expected nil route, got %+v", route)
	}
	svc.FetchRoute(context.Background(), origin, clock.Location, domain.ModeDriving)

	if src.Calls() != 2 {
		t.Errorf("expected 2 source calls, got %d", src.Calls())
	}
	if cache.Len() != 0 {
		t.Error("missing routes should not be cached")
	}
	if len(events.routes) != 2 || events.routes[0].Found {
		t.Errorf("unexpected events %+v", events.routes)
	}
}
