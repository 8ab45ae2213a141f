package ports

import (
	"context"
	"time"

	"github.com/samirrijal/citydiscover/internal/core/domain"
)

// PlacesFetchedEvent is emitted after a successful upstream place query.
type PlacesFetchedEvent struct {
	Bounds   domain.BoundingBox `json:"bounds"`
	Count    int                `json:"count"`
	Cached   bool               `json:"cached"`
	Duration time.Duration      `json:"duration"`
	At       time.Time          `json:"at"`
}

// RouteComputedEvent is emitted after each route request.
type RouteComputedEvent struct {
	From     domain.GeoPoint      `json:"from"`
	To       domain.GeoPoint      `json:"to"`
	Mode     domain.TransportMode `json:"mode"`
	Found    bool                 `json:"found"`
	Distance float64              `json:"distance,omitempty"`
	At       time.Time            `json:"at"`
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishPlacesFetched(ctx context.Context, event *PlacesFetchedEvent) error
	PublishRouteComputed(ctx context.Context, event *RouteComputedEvent) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribePlacesFetched(ctx context.Context, handler func(ctx context.Context, event *PlacesFetchedEvent) error) error
	SubscribeRouteComputed(ctx context.Context, handler func(ctx context.Context, event *RouteComputedEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
