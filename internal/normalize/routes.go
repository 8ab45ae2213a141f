package normalize

import "github.com/samirrijal/citydiscover/internal/core/domain"

// RouteGeometry is a GeoJSON LineString with (longitude, latitude) pairs.
type RouteGeometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

// Route converts a routed geometry into RouteDetails. Pairs that are exactly
// (0,0) or incomplete are dropped; fewer than two remaining points yields nil.
func Route(geom RouteGeometry, distance, duration float64) *domain.RouteDetails {
	coords := make([]domain.GeoPoint, 0, len(geom.Coordinates))
	for _, c := range geom.Coordinates {
		if len(c) < 2 {
			continue
		}
		lon, lat := c[0], c[1]
		if lon == 0 && lat == 0 {
			continue
		}
		coords = append(coords, domain.GeoPoint{Lat: lat, Lon: lon})
	}
	if len(coords) < 2 {
		return nil
	}

	return &domain.RouteDetails{
		Coordinates: coords,
		Distance:    distance,
		Duration:    duration,
	}
}
