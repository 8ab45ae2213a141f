package domain

import "fmt"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// BoundingBox represents the geographic area currently visible on a map.
type BoundingBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Validate checks ordering and coordinate ranges. Boxes crossing the
// antimeridian (west > east) are not supported.
func (b BoundingBox) Validate() error {
	switch {
	case b.South < -90 || b.North > 90:
		return fmt.Errorf("%w: latitude out of range", ErrInvalidBounds)
	case b.West < -180 || b.East > 180:
		return fmt.Errorf("%w: longitude out of range", ErrInvalidBounds)
	case b.South >= b.North:
		return fmt.Errorf("%w: south must be below north", ErrInvalidBounds)
	case b.West >= b.East:
		return fmt.Errorf("%w: west must be below east", ErrInvalidBounds)
	}
	return nil
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() GeoPoint {
	return GeoPoint{Lat: (b.South + b.North) / 2, Lon: (b.West + b.East) / 2}
}

// Contains reports whether p lies inside the box (edges included).
func (b BoundingBox) Contains(p GeoPoint) bool {
	return p.Lat >= b.South && p.Lat <= b.North && p.Lon >= b.West && p.Lon <= b.East
}
