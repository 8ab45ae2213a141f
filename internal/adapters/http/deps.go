package http

import (
	"context"

	"github.com/samirrijal/citydiscover/internal/core/domain"
	"github.com/samirrijal/citydiscover/internal/core/usecases"
)

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Places *usecases.PlaceService
	Routes *usecases.RouteService
	Auth   *usecases.AuthService

	// Per-session map behaviour.
	Viewport   usecases.ViewportConfig
	Visibility domain.VisibilityPolicy
	Origin     domain.GeoPoint

	// Readiness checks by name, e.g. "cache" or "nats". Nil entries are
	// reported as not configured.
	Checks map[string]Pinger
}
