package osrm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/citydiscover/internal/core/domain"
)

var (
	alsancak = domain.GeoPoint{Lat: 38.4385, Lon: 27.1415}
	konak    = domain.GeoPoint{Lat: 38.4189, Lon: 27.1287}
)

const routeBody = `{"code":"Ok","routes":[{"geometry":{"type":"LineString","coordinates":[[27.1415,38.4385],[0,0],[27.1287,38.4189]]},"distance":2500.5,"duration":420.0}]}`

// profileServer answers per profile; statuses maps profile -> HTTP status.
func profileServer(t *testing.T, statuses map[string]int, body string) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")[0]
		mu.Lock()
		calls = append(calls, profile)
		mu.Unlock()

		if status, ok := statuses[profile]; ok && status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), calls...)
	}
}

func TestFetchRoute_Success(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(routeBody))
	}))
	defer srv.Close()

	route := NewClient(srv.URL).FetchRoute(context.Background(), alsancak, konak, domain.ModeWalking)
	require.NotNil(t, route)

	assert.Equal(t, "/walking/27.141500,38.438500;27.128700,38.418900", gotPath)
	assert.Contains(t, gotQuery, "overview=full")
	assert.Contains(t, gotQuery, "geometries=geojson")

	require.Len(t, route.Coordinates, 2)
	assert.Equal(t, alsancak, route.Coordinates[0])
	assert.Equal(t, konak, route.Coordinates[1])
	assert.Equal(t, 2500.5, route.Distance)
	assert.Equal(t, 420.0, route.Duration)
}

func TestFetchRoute_CyclingFallsBackToDriving(t *testing.T) {
	srv, calls := profileServer(t, map[string]int{"cycling": http.StatusBadRequest}, routeBody)

	route := NewClient(srv.URL).FetchRoute(context.Background(), alsancak, konak, domain.ModeCycling)
	require.NotNil(t, route)
	assert.Equal(t, []string{"cycling", "driving"}, calls())
}

func TestFetchRoute_FallbackFailsReturnsNil(t *testing.T) {
	srv, calls := profileServer(t, map[string]int{
		"cycling": http.StatusInternalServerError,
		"driving": http.StatusInternalServerError,
	}, routeBody)

	route := NewClient(srv.URL).FetchRoute(context.Background(), alsancak, konak, domain.ModeCycling)
	assert.Nil(t, route)
	assert.Equal(t, []string{"cycling", "driving"}, calls(), "exactly one fallback")
}

func TestFetchRoute_DrivingFailureDoesNotRetry(t *testing.T) {
	srv, calls := profileServer(t, map[string]int{"driving": http.StatusServiceUnavailable}, routeBody)

	route := NewClient(srv.URL).FetchRoute(context.Background(), alsancak, konak, domain.ModeDriving)
	assert.Nil(t, route)
	assert.Equal(t, []string{"driving"}, calls())
}

func TestFetchRoute_NoRoutes(t *testing.T) {
	srv, calls := profileServer(t, nil, `{"code":"Ok","routes":[]}`)

	route := NewClient(srv.URL).FetchRoute(context.Background(), alsancak, konak, domain.ModeWalking)
	assert.Nil(t, route)
	assert.Equal(t, []string{"walking"}, calls(), "an empty answer is not a failure")
}

func TestFetchRoute_NetworkErrorFallsBack(t *testing.T) {
	srv, _ := profileServer(t, nil, routeBody)
	url := srv.URL
	srv.Close()

	route := NewClient(url).FetchRoute(context.Background(), alsancak, konak, domain.ModeWalking)
	assert.Nil(t, route)
}

func TestProfile(t *testing.T) {
	assert.Equal(t, "driving", Profile(domain.ModeDriving))
	assert.Equal(t, "walking", Profile(domain.ModeWalking))
	assert.Equal(t, "cycling", Profile(domain.ModeCycling))
	assert.Equal(t, "driving", Profile("hovercraft"))
}
