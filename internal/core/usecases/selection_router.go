package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/samirrijal/citydiscover/internal/core/domain"
	"github.com/samirrijal/citydiscover/internal/core/ports"
)

// RouteStatus is the detail panel's routing state.
type RouteStatus string

const (
	NoRoute    RouteStatus = "no_route"
	Routing    RouteStatus = "routing"
	RouteReady RouteStatus = "ready"
)

// RouteState is the published, read-only view of the router.
type RouteState struct {
	Status  RouteStatus          `json:"status"`
	Place   *domain.Place        `json:"place,omitempty"`
	Mode    domain.TransportMode `json:"mode"`
	Route   *domain.RouteDetails `json:"route,omitempty"`
	Version uint64               `json:"version"`
}

// routeKey identifies what the displayed route was computed for.
type routeKey struct {
	placeID string
	mode    domain.TransportMode
	origin  domain.GeoPoint
}

// SelectionRouter fetches and exposes the route to the selected place.
// A newer selection always wins the display; completions for anything other
// than the current selection are dropped.
type SelectionRouter struct {
	source  ports.RouteSource
	timeout time.Duration

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	mu           sync.Mutex
	origin       domain.GeoPoint
	place        *domain.Place
	mode         domain.TransportMode
	status       RouteStatus
	route        *domain.RouteDetails
	key          routeKey
	cancel       context.CancelFunc
	version      uint64
	listeners    map[int]func(RouteState)
	nextListener int
	closed       bool
}

// NewSelectionRouter creates a router that routes from origin.
func NewSelectionRouter(source ports.RouteSource, origin domain.GeoPoint, timeout time.Duration) *SelectionRouter {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SelectionRouter{
		source:     source,
		timeout:    timeout,
		baseCtx:    ctx,
		baseCancel: cancel,
		origin:     origin,
		mode:       domain.DefaultMode,
		status:     NoRoute,
		listeners:  make(map[int]func(RouteState)),
	}
}

// SetOrigin updates the user's location. The current route is kept on
// screen; the next SelectMode recomputes it from the new origin.
func (r *SelectionRouter) SetOrigin(p domain.GeoPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.origin = p
}

// Select opens place in the detail panel. A different place resets the panel
// and requests a default-mode route.
func (r *SelectionRouter) Select(place domain.Place) {
	r.SelectMode(place, domain.DefaultMode)
}

// SelectMode requests a route to place for mode. A place other than the
// selected one is first opened as Select does, with a default-mode request
// that a different mode then supersedes. Nothing is requested if the same
// place, mode and origin is already routing or routed.
func (r *SelectionRouter) SelectMode(place domain.Place, mode domain.TransportMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	if r.place == nil || r.place.ID != place.ID {
		p := place
		r.place = &p
		r.resetLocked()
		r.publishLocked()
		r.startLocked(place, domain.DefaultMode)
	}

	key := routeKey{placeID: place.ID, mode: mode, origin: r.origin}
	if key == r.key && (r.status == Routing || r.status == RouteReady) {
		return
	}
	r.startLocked(place, mode)
}

// startLocked cancels any in-flight request and fetches a route for mode.
func (r *SelectionRouter) startLocked(place domain.Place, mode domain.TransportMode) {
	if r.cancel != nil {
		r.cancel()
	}
	key := routeKey{placeID: place.ID, mode: mode, origin: r.origin}
	ctx, cancel := context.WithTimeout(r.baseCtx, r.timeout)
	r.cancel = cancel
	r.key = key
	r.mode = mode
	r.status = Routing
	r.route = nil
	r.publishLocked()

	origin, dest := r.origin, place.Location
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		route := r.source.FetchRoute(ctx, origin, dest, mode)
		r.complete(key, route)
	}()
}

func (r *SelectionRouter) complete(key routeKey, route *domain.RouteDetails) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || key != r.key || r.status != Routing {
		return
	}
	r.cancel = nil
	if route == nil {
		r.status = NoRoute
	} else {
		r.status = RouteReady
		r.route = route
	}
	r.publishLocked()
}

// Clear closes the detail panel and discards any route.
func (r *SelectionRouter) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.place = nil
	r.resetLocked()
	r.publishLocked()
}

// State returns the current published state.
func (r *SelectionRouter) State() RouteState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Subscribe registers fn to receive every published state, in order.
// fn runs with the router locked and must not call back into it.
func (r *SelectionRouter) Subscribe(fn func(RouteState)) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextListener
	r.nextListener++
	r.listeners[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners, id)
	}
}

// Close cancels in-flight requests and waits for them to return.
func (r *SelectionRouter) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.baseCancel()
	r.listeners = map[int]func(RouteState){}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *SelectionRouter) resetLocked() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.key = routeKey{}
	r.mode = domain.DefaultMode
	r.status = NoRoute
	r.route = nil
}

func (r *SelectionRouter) snapshotLocked() RouteState {
	return RouteState{
		Status:  r.status,
		Place:   r.place,
		Mode:    r.mode,
		Route:   r.route,
		Version: r.version,
	}
}

func (r *SelectionRouter) publishLocked() {
	r.version++
	state := r.snapshotLocked()
	for _, fn := range r.listeners {
		fn(state)
	}
}
