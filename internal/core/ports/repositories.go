package ports

import (
	"context"

	"github.com/samirrijal/citydiscover/internal/core/domain"
)

// PlaceSource fetches points of interest inside a bounding box.
// Implementations return an error wrapping domain.ErrQueryUnavailable when
// the upstream cannot answer.
type PlaceSource interface {
	FetchPlacesInBounds(ctx context.Context, box domain.BoundingBox) ([]domain.Place, error)
}

// RouteSource computes a route between two points.
// A nil result means no route; implementations do not return errors.
type RouteSource interface {
	FetchRoute(ctx context.Context, start, end domain.GeoPoint, mode domain.TransportMode) *domain.RouteDetails
}

// UserRecord is a stored account including its credential hash.
type UserRecord struct {
	User         domain.User `json:"user"`
	PasswordHash []byte      `json:"password_hash"`
}

// UserRepository stores demo accounts keyed by lower-cased email.
type UserRepository interface {
	Create(ctx context.Context, rec *UserRecord) error
	GetByEmail(ctx context.Context, email string) (*UserRecord, error)
}
