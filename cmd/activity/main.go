package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/samirrijal/citydiscover/internal/adapters/nats"
	"github.com/samirrijal/citydiscover/internal/core/usecases"
	"github.com/samirrijal/citydiscover/internal/pkg/config"
	"github.com/samirrijal/citydiscover/internal/pkg/logging"
)

func main() {
	cfg, err := config.Load("citydiscover-activity")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	svc := usecases.NewActivityService()
	if err := svc.Run(ctx, sub); err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	interval := time.Duration(cfg.Activity.ReportInterval) * time.Second
	slog.Info("activity worker started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			report(svc.Snapshot(false))
			slog.Info("activity worker stopped")
			return
		case <-ticker.C:
			report(svc.Snapshot(true))
		}
	}
}

func report(s usecases.ActivitySummary) {
	attrs := []any{
		"since", s.Since,
		"place_queries", s.PlaceQueries,
		"cached_queries", s.CachedQueries,
		"places_returned", s.PlacesReturned,
		"avg_query_time", s.AvgQueryTime,
		"routes_found", s.RoutesFound,
		"routes_missing", s.RoutesMissing,
	}
	if s.Busiest != nil {
		attrs = append(attrs, "busiest", *s.Busiest)
	}
	slog.Info("activity summary", attrs...)
}
