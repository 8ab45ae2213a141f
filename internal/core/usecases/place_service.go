package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/samirrijal/citydiscover/internal/core/domain"
	"github.com/samirrijal/citydiscover/internal/core/ports"
	"github.com/samirrijal/citydiscover/internal/pkg/geospatial"
	"github.com/samirrijal/citydiscover/internal/pkg/metrics"
)

const (
	placesCacheTTL     = 120 // seconds
	sharedFetchTimeout = 45 * time.Second
)

// PlaceService fronts the geodata source with a short-lived cache and
// collapses identical concurrent queries. It satisfies ports.PlaceSource.
type PlaceService struct {
	source ports.PlaceSource
	cache  ports.CacheService
	events ports.EventPublisher
	group  singleflight.Group
}

// NewPlaceService creates a new PlaceService. cache and events may be nil.
func NewPlaceService(source ports.PlaceSource, cache ports.CacheService, events ports.EventPublisher) *PlaceService {
	return &PlaceService{source: source, cache: cache, events: events}
}

// FetchPlacesInBounds returns the places inside box.
func (s *PlaceService) FetchPlacesInBounds(ctx context.Context, box domain.BoundingBox) ([]domain.Place, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}

	// Try cache
	cacheKey := fmt.Sprintf("places:bbox:%.4f:%.4f:%.4f:%.4f", box.South, box.West, box.North, box.East)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var places []domain.Place
			if err := json.Unmarshal(data, &places); err == nil {
				metrics.CacheHits.WithLabelValues("places").Inc()
				s.publish(ctx, box, len(places), true, 0)
				return places, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("places").Inc()
	}

	// The shared fetch outlives any single caller so that one superseded
	// caller does not fail the others waiting on the same key.
	ch := s.group.DoChan(cacheKey, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()

		start := time.Now()
		places, err := s.source.FetchPlacesInBounds(fetchCtx, box)
		if err != nil {
			return nil, err
		}

		if s.cache != nil {
			if data, err := json.Marshal(places); err == nil {
				_ = s.cache.Set(fetchCtx, cacheKey, data, placesCacheTTL)
			}
		}
		s.publish(fetchCtx, box, len(places), false, time.Since(start))
		return places, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", domain.ErrQueryUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.Place), nil
	}
}

// Nearby returns the places inside box ordered by distance from `from`,
// each with Distance set. limit <= 0 means no limit.
func (s *PlaceService) Nearby(ctx context.Context, box domain.BoundingBox, from domain.GeoPoint, limit int) ([]domain.Place, error) {
	places, err := s.FetchPlacesInBounds(ctx, box)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Place, len(places))
	for i, p := range places {
		d := geospatial.Haversine(from.Lat, from.Lon, p.Location.Lat, p.Location.Lon)
		p.Distance = &d
		out[i] = p
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].Distance < *out[j].Distance })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *PlaceService) publish(ctx context.Context, box domain.BoundingBox, count int, cached bool, took time.Duration) {
	if s.events == nil {
		return
	}
	err := s.events.PublishPlacesFetched(ctx, &ports.PlacesFetchedEvent{
		Bounds:   box,
		Count:    count,
		Cached:   cached,
		Duration: took,
		At:       time.Now().UTC(),
	})
	if err != nil {
		slog.WarnContext(ctx, "publish places event", "error", err)
	}
}
