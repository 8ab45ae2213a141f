package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/samirrijal/citydiscover/internal/core/domain"
)

var (
	routeCmd = &cobra.Command{
		Use:   "route",
		Short: "Compute a route between two points",
		Long: `Compute a route with OSRM and print its distance, duration and path.

--from defaults to the configured origin. A mode other than driving that the
router cannot serve falls back to driving. When no route exists the command
prints null and exits successfully.

Example:
  citydiscover route --to 38.4189,27.1287 --mode walking`,
		RunE: runRoute,
	}

	routeFrom    string
	routeTo      string
	routeMode    string
	routeTimeout time.Duration
)

type routeOutput struct {
	Mode  domain.TransportMode `json:"mode"`
	From  domain.GeoPoint      `json:"from"`
	To    domain.GeoPoint      `json:"to"`
	Route *domain.RouteDetails `json:"route"`
}

func init() {
	routeCmd.Flags().StringVar(&routeFrom, "from", "", "lat,lon of the start (default: configured origin)")
	routeCmd.Flags().StringVar(&routeTo, "to", "", "lat,lon of the destination")
	routeCmd.Flags().StringVar(&routeMode, "mode", string(domain.DefaultMode), "driving, walking or cycling")
	routeCmd.Flags().DurationVar(&routeTimeout, "timeout", 15*time.Second, "overall timeout")
	_ = routeCmd.MarkFlagRequired("to")
}

func runRoute(cmd *cobra.Command, args []string) error {
	mode, err := domain.ParseTransportMode(routeMode)
	if err != nil {
		return err
	}
	to, err := parsePoint(routeTo)
	if err != nil {
		return err
	}
	from := domain.GeoPoint{Lat: cfg.Origin.Lat, Lon: cfg.Origin.Lon}
	if routeFrom != "" {
		if from, err = parsePoint(routeFrom); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), routeTimeout)
	defer cancel()

	route := newRouteService().FetchRoute(ctx, from, to, mode)
	return writeJSON(cmd.OutOrStdout(), routeOutput{Mode: mode, From: from, To: to, Route: route})
}
