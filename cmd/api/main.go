package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"github.com/samirrijal/citydiscover/internal/adapters/http"
	"github.com/samirrijal/citydiscover/internal/adapters/memory"
	natsadapter "github.com/samirrijal/citydiscover/internal/adapters/nats"
	"github.com/samirrijal/citydiscover/internal/adapters/osrm"
	"github.com/samirrijal/citydiscover/internal/adapters/overpass"
	"github.com/samirrijal/citydiscover/internal/adapters/valkey"
	"github.com/samirrijal/citydiscover/internal/core/domain"
	"github.com/samirrijal/citydiscover/internal/core/ports"
	"github.com/samirrijal/citydiscover/internal/core/usecases"
	"github.com/samirrijal/citydiscover/internal/pkg/config"
	"github.com/samirrijal/citydiscover/internal/pkg/logging"
	"github.com/samirrijal/citydiscover/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("citydiscover-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	checks := map[string]http.Pinger{"cache": nil, "nats": nil}

	// Cache and accounts: Valkey when reachable, process memory otherwise.
	var (
		cache ports.CacheService
		users ports.UserRepository
	)
	userTTL := time.Duration(cfg.Auth.UserTTL) * time.Second
	vc, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, using in-memory cache", "error", err)
		mc := memory.NewCache()
		go sweep(ctx, mc)
		cache = mc
		users = memory.NewUserStore()
	} else {
		defer vc.Close()
		cache = vc
		users = valkey.NewUserStore(vc, userTTL)
		checks["cache"] = vc
	}

	// NATS
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		events = pub
		checks["nats"] = pub
	}

	// Upstreams
	places := overpass.NewClient(cfg.Overpass.Servers,
		overpass.WithAttemptTimeout(cfg.Overpass.AttemptTimeoutDuration()),
		overpass.WithRateLimit(cfg.Overpass.RateLimit),
		overpass.WithUserAgent(cfg.Overpass.UserAgent),
	)
	routes := osrm.NewClient(cfg.OSRM.BaseURL,
		osrm.WithHTTPClient(&nethttp.Client{Timeout: time.Duration(cfg.OSRM.Timeout) * time.Second}),
		osrm.WithUserAgent(cfg.Overpass.UserAgent),
	)

	policy, err := usecases.ParseFailurePolicy(cfg.Viewport.OnFetchFailure)
	if err != nil {
		log.Fatalf("viewport: %v", err)
	}
	viewport := usecases.DefaultViewportConfig()
	viewport.MinZoom = cfg.Viewport.MinZoom
	viewport.Debounce = cfg.Viewport.Debounce()
	viewport.OnFetchFailure = policy

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		slog.Warn("auth.jwt_secret not set, tokens will not survive a restart")
		secret = randomSecret()
	}

	deps := &http.Dependencies{
		Places:   usecases.NewPlaceService(places, cache, events),
		Routes:   usecases.NewRouteService(routes, cache, events),
		Auth:     usecases.NewAuthService(users, secret, time.Duration(cfg.Auth.TokenTTL)*time.Second),
		Viewport: viewport,
		Visibility: domain.VisibilityPolicy{
			MinZoom:    cfg.Viewport.MinZoom,
			DetailZoom: cfg.Viewport.DetailZoom,
			TopN:       cfg.Viewport.TopN,
		},
		Origin: domain.GeoPoint{Lat: cfg.Origin.Lat, Lon: cfg.Origin.Lon},
		Checks: checks,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "City Discover API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, http://localhost:8081",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "overpass_servers", len(cfg.Overpass.Servers))
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// randomSecret returns a per-process signing key.
func randomSecret() string {
	return uuid.NewString() + uuid.NewString()
}

// sweep evicts expired in-memory entries until ctx is done.
func sweep(ctx context.Context, c *memory.Cache) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				slog.Debug("cache sweep", "evicted", n)
			}
		}
	}
}
