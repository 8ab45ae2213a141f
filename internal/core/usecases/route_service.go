package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/citydiscover/internal/core/domain"
	"github.com/samirrijal/citydiscover/internal/core/ports"
	"github.com/samirrijal/citydiscover/internal/pkg/metrics"
)

const routeCacheTTL = 300 // seconds

// RouteService handles route lookups. It satisfies ports.RouteSource.
type RouteService struct {
	source ports.RouteSource
	cache  ports.CacheService
	events ports.EventPublisher
}

// NewRouteService creates a new RouteService. cache and events may be nil.
func NewRouteService(source ports.RouteSource, cache ports.CacheService, events ports.EventPublisher) *RouteService {
	return &RouteService{source: source, cache: cache, events: events}
}

// FetchRoute returns a route from start to end or nil when none is available.
func (s *RouteService) FetchRoute(ctx context.Context, start, end domain.GeoPoint, mode domain.TransportMode) *domain.RouteDetails {
	cacheKey := fmt.Sprintf("route:%s:%.5f:%.5f:%.5f:%.5f", mode, start.Lat, start.Lon, end.Lat, end.Lon)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var route domain.RouteDetails
			if err := json.Unmarshal(data, &route); err == nil {
				metrics.CacheHits.WithLabelValues("route").Inc()
				return &route
			}
		}
		metrics.CacheMisses.WithLabelValues("route").Inc()
	}

	route := s.source.FetchRoute(ctx, start, end, mode)

	// Only successful routes are cached
	if route != nil && s.cache != nil {
		if data, err := json.Marshal(route); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, routeCacheTTL)
		}
	}

	if s.events != nil {
		event := &ports.RouteComputedEvent{From: start, To: end, Mode: mode, Found: route != nil, At: time.Now().UTC()}
		if route != nil {
			event.Distance = route.Distance
		}
		if err := s.events.PublishRouteComputed(ctx, event); err != nil {
			slog.WarnContext(ctx, "publish route event", "error", err)
		}
	}

	return route
}
