package telemetry

// Span and attribute names used for instrumentation.
const (
	SpanPlacesFetch  = "overpass.fetch_places"
	SpanPlaceAttempt = "overpass.attempt"
	SpanRouteFetch   = "osrm.fetch_route"

	AttrServer   = "upstream.server"
	AttrOutcome  = "upstream.outcome"
	AttrStatus   = "http.status_code"
	AttrMode     = "route.mode"
	AttrFallback = "route.fallback"
	AttrCount    = "places.count"
)
