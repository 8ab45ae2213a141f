package cmd

import (
	"net/http"
	"time"

	"github.com/samirrijal/citydiscover/internal/adapters/osrm"
	"github.com/samirrijal/citydiscover/internal/adapters/overpass"
	"github.com/samirrijal/citydiscover/internal/core/usecases"
)

func newPlaceService() *usecases.PlaceService {
	client := overpass.NewClient(cfg.Overpass.Servers,
		overpass.WithAttemptTimeout(cfg.Overpass.AttemptTimeoutDuration()),
		overpass.WithRateLimit(cfg.Overpass.RateLimit),
		overpass.WithUserAgent(cfg.Overpass.UserAgent),
	)
	return usecases.NewPlaceService(client, nil, nil)
}

func newRouteService() *usecases.RouteService {
	client := osrm.NewClient(cfg.OSRM.BaseURL,
		osrm.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.OSRM.Timeout) * time.Second}),
		osrm.WithUserAgent(cfg.Overpass.UserAgent),
	)
	return usecases.NewRouteService(client, nil, nil)
}
