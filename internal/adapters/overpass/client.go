// Package overpass queries Overpass API interpreters for points of interest,
// failing over across equivalent servers.
package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/samirrijal/citydiscover/internal/core/domain"
	"github.com/samirrijal/citydiscover/internal/normalize"
	"github.com/samirrijal/citydiscover/internal/pkg/metrics"
	"github.com/samirrijal/citydiscover/internal/pkg/telemetry"
)

const (
	// DefaultAttemptTimeout bounds a single server attempt.
	DefaultAttemptTimeout = 8 * time.Second
	// DefaultRateLimit is the politeness limit shared by all servers.
	DefaultRateLimit = rate.Limit(2.0)
	// DefaultUserAgent identifies the client to public interpreters.
	DefaultUserAgent = "CityDiscover/1.0"

	maxResponseBytes = 32 << 20
)

// DefaultServers are public, equivalent Overpass interpreters in failover order.
var DefaultServers = []string{
	"https://overpass-api.de/api/interpreter",
	"https://overpass.kumi.systems/api/interpreter",
	"https://overpass.private.coffee/api/interpreter",
}

type outcome int

const (
	attemptSuccess outcome = iota
	attemptRetryable
	attemptTerminal
)

func (o outcome) String() string {
	switch o {
	case attemptSuccess:
		return "success"
	case attemptRetryable:
		return "retryable"
	default:
		return "terminal"
	}
}

type attemptResult struct {
	outcome  outcome
	status   int
	elements []normalize.Element
	err      error
}

type response struct {
	Elements []normalize.Element `json:"elements"`
	Remark   string              `json:"remark,omitempty"`
}

// Client implements ports.PlaceSource against Overpass interpreters.
type Client struct {
	httpClient *http.Client
	servers    []string
	timeout    time.Duration
	limiter    *rate.Limiter
	normalizer *normalize.Normalizer
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

// WithAttemptTimeout sets the per-server timeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRateLimit sets a custom rate limit (requests per second).
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithNormalizer replaces the default place normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(c *Client) {
		c.normalizer = n
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client trying servers strictly in the given order.
// An empty list selects DefaultServers.
func NewClient(servers []string, opts ...Option) *Client {
	if len(servers) == 0 {
		servers = DefaultServers
	}
	c := &Client{
		httpClient: &http.Client{},
		servers:    append([]string(nil), servers...),
		timeout:    DefaultAttemptTimeout,
		limiter:    rate.NewLimiter(DefaultRateLimit, 1),
		normalizer: normalize.New(nil),
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Servers returns the configured failover order.
func (c *Client) Servers() []string {
	return append([]string(nil), c.servers...)
}

// FetchPlacesInBounds queries servers one at a time until one answers with 2xx.
// Errors wrap domain.ErrQueryUnavailable.
func (c *Client) FetchPlacesInBounds(ctx context.Context, box domain.BoundingBox) ([]domain.Place, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanPlacesFetch)
	defer span.End()

	query := BuildQuery(box, int(c.timeout/time.Second)+1)

	var lastErr error
	for _, server := range c.servers {
		res := c.attempt(ctx, server, query)
		metrics.UpstreamAttempts.WithLabelValues(serverLabel(server), res.outcome.String()).Inc()

		switch res.outcome {
		case attemptSuccess:
			places := c.normalizer.Places(res.elements)
			span.SetAttributes(attribute.Int(telemetry.AttrCount, len(places)))
			return places, nil
		case attemptTerminal:
			span.SetStatus(codes.Error, res.err.Error())
			return nil, fmt.Errorf("%w: %w", domain.ErrQueryUnavailable, res.err)
		}

		lastErr = res.err
		slog.WarnContext(ctx, "overpass server failed, trying next",
			"server", server, "status", res.status, "error", res.err)
	}

	span.SetStatus(codes.Error, "all servers failed")
	return nil, fmt.Errorf("%w: all %d servers failed: %w", domain.ErrQueryUnavailable, len(c.servers), lastErr)
}

// attempt performs one request against server and classifies the result.
func (c *Client) attempt(ctx context.Context, server, query string) attemptResult {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanPlaceAttempt)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrServer, server))

	res := c.do(ctx, server, query)
	span.SetAttributes(
		attribute.String(telemetry.AttrOutcome, res.outcome.String()),
		attribute.Int(telemetry.AttrStatus, res.status),
	)
	return res
}

func (c *Client) do(parent context.Context, server, query string) attemptResult {
	if err := c.limiter.Wait(parent); err != nil {
		return attemptResult{outcome: attemptTerminal, err: fmt.Errorf("rate limiter: %w", err)}
	}

	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.UpstreamAttemptDuration.WithLabelValues(serverLabel(server)).Observe(time.Since(start).Seconds())
	}()

	body := url.Values{"data": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server, strings.NewReader(body))
	if err != nil {
		return attemptResult{outcome: attemptTerminal, err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportFailure(parent, err)
	}
	defer resp.Body.Close()

	if o := classifyStatus(resp.StatusCode); o != attemptSuccess {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return attemptResult{outcome: o, status: resp.StatusCode, err: fmt.Errorf("server %s returned %d", server, resp.StatusCode)}
	}

	var payload response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		if parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return attemptResult{outcome: attemptRetryable, status: resp.StatusCode, err: fmt.Errorf("read timeout: %w", err)}
		}
		return attemptResult{outcome: attemptTerminal, status: resp.StatusCode, err: fmt.Errorf("parse json: %w", err)}
	}
	if payload.Remark != "" {
		slog.DebugContext(parent, "overpass remark", "server", server, "remark", payload.Remark)
	}

	return attemptResult{outcome: attemptSuccess, status: resp.StatusCode, elements: payload.Elements}
}

// transportFailure distinguishes a cancelled caller (stop failing over) from
// a timed out or unreachable server (try the next one).
func transportFailure(parent context.Context, err error) attemptResult {
	if parent.Err() != nil {
		return attemptResult{outcome: attemptTerminal, err: fmt.Errorf("aborted: %w", parent.Err())}
	}
	return attemptResult{outcome: attemptRetryable, err: fmt.Errorf("http request: %w", err)}
}

// classifyStatus maps an HTTP status to an attempt outcome.
// 429 and 5xx fall through to the next server; other non-2xx fail fast.
func classifyStatus(status int) outcome {
	switch {
	case status >= 200 && status < 300:
		return attemptSuccess
	case status == http.StatusTooManyRequests, status >= 500:
		return attemptRetryable
	default:
		return attemptTerminal
	}
}

func serverLabel(server string) string {
	u, err := url.Parse(server)
	if err != nil || u.Host == "" {
		return server
	}
	return u.Host
}
