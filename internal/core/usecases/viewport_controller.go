package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samirrijal/citydiscover/internal/core/domain"
	"github.com/samirrijal/citydiscover/internal/core/ports"
	"github.com/samirrijal/citydiscover/internal/pkg/metrics"
)

// FailurePolicy decides what happens to the published places when a fetch fails.
type FailurePolicy string

const (
	// KeepStale leaves the previous result in place.
	KeepStale FailurePolicy = "keep-stale"
	// ClearOnFailure publishes an empty list.
	ClearOnFailure FailurePolicy = "clear"
)

// ParseFailurePolicy accepts "keep-stale" or "clear".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case KeepStale, "":
		return KeepStale, nil
	case ClearOnFailure:
		return ClearOnFailure, nil
	}
	return "", fmt.Errorf("unknown failure policy %q", s)
}

// ViewportConfig tunes the viewport controller.
type ViewportConfig struct {
	MinZoom        float64
	Debounce       time.Duration
	FetchTimeout   time.Duration
	OnFetchFailure FailurePolicy
}

// DefaultViewportConfig mirrors the map client's defaults.
func DefaultViewportConfig() ViewportConfig {
	return ViewportConfig{
		MinZoom:        15.5,
		Debounce:       600 * time.Millisecond,
		FetchTimeout:   30 * time.Second,
		OnFetchFailure: KeepStale,
	}
}

// ViewportState is the published, read-only view of the controller.
// Places must not be modified by observers.
type ViewportState struct {
	Places  []domain.Place      `json:"places"`
	Loading bool                `json:"loading"`
	Bounds  *domain.BoundingBox `json:"bounds,omitempty"`
	Zoom    float64             `json:"zoom"`
	Epoch   uint64              `json:"epoch"`
	Version uint64              `json:"version"`
}

// ViewportController refetches places when the map viewport settles.
//
// Every viewport change mints a new epoch. A fetch runs only if its epoch is
// still current when the debounce timer fires, and its result is applied only
// if the epoch is still current when the source returns.
type ViewportController struct {
	source ports.PlaceSource
	cfg    ViewportConfig
	sched  Scheduler

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu             sync.Mutex
	epoch          uint64
	timer          Timer
	cancelInFlight context.CancelFunc
	places         []domain.Place
	bounds         *domain.BoundingBox
	loading        bool
	zoom           float64
	version        uint64
	listeners      map[int]func(ViewportState)
	nextListener   int
	closed         bool
}

// ViewportOption configures a ViewportController.
type ViewportOption func(*ViewportController)

// WithScheduler replaces the debounce timer implementation.
func WithScheduler(s Scheduler) ViewportOption {
	return func(c *ViewportController) {
		c.sched = s
	}
}

// WithInitialPlaces seeds the published list before the first fetch.
func WithInitialPlaces(places []domain.Place) ViewportOption {
	return func(c *ViewportController) {
		c.places = places
	}
}

// NewViewportController creates a controller fetching from source.
func NewViewportController(source ports.PlaceSource, cfg ViewportConfig, opts ...ViewportOption) *ViewportController {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultViewportConfig().FetchTimeout
	}
	if cfg.OnFetchFailure == "" {
		cfg.OnFetchFailure = KeepStale
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &ViewportController{
		source:     source,
		cfg:        cfg,
		sched:      SystemScheduler,
		baseCtx:    ctx,
		baseCancel: cancel,
		places:     []domain.Place{},
		listeners:  make(map[int]func(ViewportState)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnViewportChanged records a settled viewport. Below MinZoom the place list
// is cleared immediately; otherwise a fetch is scheduled after the debounce
// delay, replacing any fetch scheduled earlier.
func (c *ViewportController) OnViewportChanged(box domain.BoundingBox, zoom float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.epoch++
	epoch := c.epoch
	c.zoom = zoom

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancelInFlight != nil {
		c.cancelInFlight()
		c.cancelInFlight = nil
	}

	if zoom < c.cfg.MinZoom {
		c.places = []domain.Place{}
		c.bounds = nil
		c.loading = false
		metrics.ViewportFetches.WithLabelValues("zoom_gated").Inc()
		c.publishLocked()
		return
	}

	c.timer = c.sched.AfterFunc(c.cfg.Debounce, func() {
		c.runFetch(epoch, box)
	})
}

// runFetch executes a debounced fetch for epoch.
func (c *ViewportController) runFetch(epoch uint64, box domain.BoundingBox) {
	c.mu.Lock()
	if c.closed || epoch != c.epoch {
		c.mu.Unlock()
		metrics.ViewportFetches.WithLabelValues("skipped").Inc()
		return
	}
	c.timer = nil
	ctx, cancel := context.WithTimeout(c.baseCtx, c.cfg.FetchTimeout)
	c.cancelInFlight = cancel
	c.loading = true
	c.publishLocked()
	c.mu.Unlock()

	start := time.Now()
	places, err := c.source.FetchPlacesInBounds(ctx, box)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		metrics.ViewportFetches.WithLabelValues("stale").Inc()
		slog.Debug("discarding stale viewport result", "epoch", epoch, "current", c.epoch)
		return
	}

	c.cancelInFlight = nil
	c.loading = false

	if err != nil {
		metrics.ViewportFetches.WithLabelValues("failed").Inc()
		level := slog.LevelWarn
		if errors.Is(err, context.Canceled) {
			level = slog.LevelDebug
		}
		slog.Log(ctx, level, "viewport fetch failed", "epoch", epoch, "policy", c.cfg.OnFetchFailure, "error", err)
		if c.cfg.OnFetchFailure == ClearOnFailure {
			c.places = []domain.Place{}
			c.bounds = nil
		}
		c.publishLocked()
		return
	}

	if places == nil {
		places = []domain.Place{}
	}
	c.places = places
	c.bounds = &box
	metrics.ViewportFetches.WithLabelValues("applied").Inc()
	slog.Debug("viewport places applied", "epoch", epoch, "count", len(places), "took", time.Since(start))
	c.publishLocked()
}

// State returns the current published state.
func (c *ViewportController) State() ViewportState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive every published state, in order.
// fn runs with the controller locked and must not call back into it.
func (c *ViewportController) Subscribe(fn func(ViewportState)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Close cancels pending and in-flight work. Further events are ignored.
func (c *ViewportController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.epoch++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancelInFlight != nil {
		c.cancelInFlight()
		c.cancelInFlight = nil
	}
	c.baseCancel()
	c.listeners = map[int]func(ViewportState){}
}

func (c *ViewportController) snapshotLocked() ViewportState {
	return ViewportState{
		Places:  c.places,
		Loading: c.loading,
		Bounds:  c.bounds,
		Zoom:    c.zoom,
		Epoch:   c.epoch,
		Version: c.version,
	}
}

func (c *ViewportController) publishLocked() {
	c.version++
	state := c.snapshotLocked()
	for _, fn := range c.listeners {
		fn(state)
	}
}
