package http

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/citydiscover/internal/core/domain"
	"github.com/samirrijal/citydiscover/internal/core/usecases"
)

type stubPlaces []domain.Place

func (s stubPlaces) FetchPlacesInBounds(context.Context, domain.BoundingBox) ([]domain.Place, error) {
	return s, nil
}

type stubRoutes struct{ route *domain.RouteDetails }

func (s stubRoutes) FetchRoute(context.Context, domain.GeoPoint, domain.GeoPoint, domain.TransportMode) *domain.RouteDetails {
	return s.route
}

func newTestSession(t *testing.T) *session {
	t.Helper()
	places := stubPlaces{
		{ID: "node_1", Name: "Saat Kulesi", Category: domain.CategoryHistorical, Location: domain.GeoPoint{Lat: 38.4189, Lon: 27.1287}},
		{ID: "node_2", Name: "Kızlarağası Hanı", Category: domain.CategoryShopping, Location: domain.GeoPoint{Lat: 38.4183, Lon: 27.1311}},
	}
	route := &domain.RouteDetails{
		Coordinates: []domain.GeoPoint{{Lat: 38.4237, Lon: 27.1428}, {Lat: 38.4189, Lon: 27.1287}},
		Distance:    1400,
		Duration:    1000,
	}

	cfg := usecases.DefaultViewportConfig()
	cfg.Debounce = time.Millisecond
	deps := &Dependencies{
		Places:     usecases.NewPlaceService(places, nil, nil),
		Routes:     usecases.NewRouteService(stubRoutes{route: route}, nil, nil),
		Viewport:   cfg,
		Visibility: domain.VisibilityPolicy{MinZoom: 15.5, DetailZoom: 17, TopN: 20},
		Origin:     domain.GeoPoint{Lat: 38.4237, Lon: 27.1428},
	}
	s := newSession(deps)
	t.Cleanup(s.close)
	return s
}

// await flushes until a message satisfying match arrives.
func await(t *testing.T, s *session, match func(serverMessage) bool) serverMessage {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-s.notify:
			var found *serverMessage
			require.NoError(t, s.flush(func(m serverMessage) error {
				if found == nil && match(m) {
					found = &m
				}
				return nil
			}))
			if found != nil {
				return *found
			}
		case <-deadline:
			t.Fatal("timed out waiting for message")
		}
	}
}

func loadedPlaces(m serverMessage) bool {
	p, ok := m.Data.(placesPayload)
	return m.Type == "places" && ok && !p.Loading
}

func TestSession_ViewportPushesPlaces(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.dispatch([]byte(`{"type":"viewport","bounds":{"south":38.41,"west":27.12,"north":38.43,"east":27.14},"zoom":16}`)))

	msg := await(t, s, loadedPlaces)
	payload := msg.Data.(placesPayload)
	assert.Len(t, payload.Places, 2)
	assert.Equal(t, 2, payload.Total)
	require.NotNil(t, payload.Bounds)
	assert.Equal(t, 38.41, payload.Bounds.South)
}

func TestSession_ZoomedOutClearsPlaces(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.dispatch([]byte(`{"type":"viewport","bounds":{"south":38.41,"west":27.12,"north":38.43,"east":27.14},"zoom":16}`)))
	await(t, s, loadedPlaces)

	require.NoError(t, s.dispatch([]byte(`{"type":"viewport","bounds":{"south":38.3,"west":27.0,"north":38.5,"east":27.3},"zoom":12}`)))
	msg := await(t, s, loadedPlaces)
	assert.Empty(t, msg.Data.(placesPayload).Places)
}

func TestSession_ZoomedOutSkipsBoundsCheck(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.dispatch([]byte(`{"type":"viewport","bounds":{"south":38.41,"west":27.12,"north":38.43,"east":27.14},"zoom":16}`)))
	await(t, s, loadedPlaces)

	// Crosses the antimeridian, which a fetch would reject.
	require.NoError(t, s.dispatch([]byte(`{"type":"viewport","bounds":{"south":-10,"west":170,"north":10,"east":-170},"zoom":3}`)))
	msg := await(t, s, loadedPlaces)
	assert.Empty(t, msg.Data.(placesPayload).Places)

	err := s.dispatch([]byte(`{"type":"viewport","bounds":{"south":-10,"west":170,"north":10,"east":-170},"zoom":16}`))
	require.Error(t, err)
}

func TestSession_SelectRoutes(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.dispatch([]byte(`{"type":"viewport","bounds":{"south":38.41,"west":27.12,"north":38.43,"east":27.14},"zoom":16}`)))
	await(t, s, loadedPlaces)

	require.NoError(t, s.dispatch([]byte(`{"type":"select","place_id":"node_1","mode":"walking"}`)))
	msg := await(t, s, func(m serverMessage) bool {
		st, ok := m.Data.(*usecases.RouteState)
		return m.Type == "route" && ok && st.Status == usecases.RouteReady
	})
	st := msg.Data.(*usecases.RouteState)
	assert.Equal(t, domain.ModeWalking, st.Mode)
	assert.Equal(t, "node_1", st.Place.ID)
	assert.Equal(t, 1400.0, st.Route.Distance)

	require.NoError(t, s.dispatch([]byte(`{"type":"clear"}`)))
	msg = await(t, s, func(m serverMessage) bool { return m.Type == "route" })
	assert.Equal(t, usecases.NoRoute, msg.Data.(*usecases.RouteState).Status)
}

func TestSession_DispatchErrors(t *testing.T) {
	s := newTestSession(t)

	tests := []struct {
		name, msg, want string
	}{
		{"invalid json", `{`, "invalid JSON"},
		{"unknown type", `{"type":"teleport"}`, "unknown message type"},
		{"viewport without bounds", `{"type":"viewport","zoom":16}`, "requires bounds"},
		{"inverted bounds", `{"type":"viewport","bounds":{"south":5,"west":0,"north":1,"east":1},"zoom":16}`, "invalid bounding box"},
		{"unknown place", `{"type":"select","place_id":"node_404"}`, "unknown place"},
		{"bad mode", `{"type":"select","place_id":"node_1","mode":"sailing"}`, "unknown transport mode"},
		{"origin without location", `{"type":"origin"}`, "requires location"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.dispatch([]byte(tt.msg))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
