package geospatial

import "math"

const (
	earthRadiusM   = 6371000.0
	metersPerDeg   = 111320.0
	maxLatitudeDeg = 85.0511 // web mercator limit
)

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// BoxAround returns the south, west, north and east edges of a box
// extending radiusMeters from a point. Latitudes are clamped to the map's
// projection limit and longitudes to [-180, 180].
func BoxAround(lat, lon, radiusMeters float64) (south, west, north, east float64) {
	latDelta := radiusMeters / metersPerDeg
	lonDelta := radiusMeters / (metersPerDeg * math.Cos(toRad(lat)))

	south = math.Max(lat-latDelta, -maxLatitudeDeg)
	north = math.Min(lat+latDelta, maxLatitudeDeg)
	west = math.Max(lon-lonDelta, -180)
	east = math.Min(lon+lonDelta, 180)
	return south, west, north, east
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
