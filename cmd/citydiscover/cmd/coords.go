package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samirrijal/citydiscover/internal/core/domain"
	"github.com/samirrijal/citydiscover/internal/pkg/geospatial"
)

// parseFloats splits "a,b,..." into exactly n numbers.
func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated numbers, got %q", n, s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		out[i] = v
	}
	return out, nil
}

// parsePoint reads "lat,lon".
func parsePoint(s string) (domain.GeoPoint, error) {
	v, err := parseFloats(s, 2)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	p := domain.GeoPoint{Lat: v[0], Lon: v[1]}
	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return domain.GeoPoint{}, fmt.Errorf("point %q is out of range", s)
	}
	return p, nil
}

// parseBBox reads "south,west,north,east".
func parseBBox(s string) (domain.BoundingBox, error) {
	v, err := parseFloats(s, 4)
	if err != nil {
		return domain.BoundingBox{}, err
	}
	box := domain.BoundingBox{South: v[0], West: v[1], North: v[2], East: v[3]}
	if err := box.Validate(); err != nil {
		return domain.BoundingBox{}, err
	}
	return box, nil
}

// boxAround is the square of radius meters centred on p.
func boxAround(p domain.GeoPoint, radius float64) domain.BoundingBox {
	s, w, n, e := geospatial.BoxAround(p.Lat, p.Lon, radius)
	return domain.BoundingBox{South: s, West: w, North: n, East: e}
}
