// Package osrm requests routes from an OSRM-compatible routing service.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/citydiscover/internal/core/domain"
	"github.com/samirrijal/citydiscover/internal/normalize"
	"github.com/samirrijal/citydiscover/internal/pkg/metrics"
	"github.com/samirrijal/citydiscover/internal/pkg/telemetry"
)

const (
	// DefaultBaseURL is the public OSRM demo server.
	DefaultBaseURL = "https://router.project-osrm.org/route/v1"
	// DefaultTimeout for a single routing request.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 16 << 20
)

// profiles maps transport modes to OSRM profile path segments.
var profiles = map[domain.TransportMode]string{
	domain.ModeDriving: "driving",
	domain.ModeWalking: "walking",
	domain.ModeCycling: "cycling",
}

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry normalize.RouteGeometry `json:"geometry"`
		Distance float64                 `json:"distance"`
		Duration float64                 `json:"duration"`
	} `json:"routes"`
}

// Client implements ports.RouteSource.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a routing client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  "CityDiscover/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Profile returns the upstream profile for mode, defaulting to driving.
func Profile(mode domain.TransportMode) string {
	if p, ok := profiles[mode]; ok {
		return p
	}
	return profiles[domain.DefaultMode]
}

// FetchRoute returns the first candidate route or nil. A failing non-default
// mode is retried once with the default mode.
func (c *Client) FetchRoute(ctx context.Context, start, end domain.GeoPoint, mode domain.TransportMode) *domain.RouteDetails {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanRouteFetch)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrMode, string(mode)))

	route, err := c.fetch(ctx, start, end, mode)
	if err != nil && mode != domain.DefaultMode && ctx.Err() == nil {
		slog.WarnContext(ctx, "route profile failed, falling back", "mode", mode, "fallback", domain.DefaultMode, "error", err)
		metrics.RouteFallbacks.WithLabelValues(string(mode)).Inc()
		span.SetAttributes(attribute.Bool(telemetry.AttrFallback, true))
		route, err = c.fetch(ctx, start, end, domain.DefaultMode)
	}

	switch {
	case err != nil:
		slog.ErrorContext(ctx, "route service error", "mode", mode, "error", err)
		metrics.RouteRequests.WithLabelValues(string(mode), "error").Inc()
		return nil
	case route == nil:
		metrics.RouteRequests.WithLabelValues(string(mode), "no_route").Inc()
		return nil
	}
	metrics.RouteRequests.WithLabelValues(string(mode), "ok").Inc()
	return route
}

// fetch performs one request. It returns (nil, nil) when the service answered
// but produced no usable route.
func (c *Client) fetch(ctx context.Context, start, end domain.GeoPoint, mode domain.TransportMode) (*domain.RouteDetails, error) {
	reqURL := fmt.Sprintf("%s/%s/%s;%s?overview=full&geometries=geojson",
		c.baseURL, Profile(mode), coord(start), coord(end))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var payload routeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if len(payload.Routes) == 0 {
		return nil, nil
	}

	r := payload.Routes[0]
	return normalize.Route(r.Geometry, r.Distance, r.Duration), nil
}

// coord formats a point as "lon,lat".
func coord(p domain.GeoPoint) string {
	return strconv.FormatFloat(p.Lon, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lat, 'f', 6, 64)
}
