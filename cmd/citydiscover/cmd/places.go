package cmd

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/samirrijal/citydiscover/internal/core/domain"
)

var (
	placesCmd = &cobra.Command{
		Use:   "places",
		Short: "List places inside a bounding box or around a point",
		Long: `List points of interest from Overpass.

Either --bbox or --near is required. With --near the results are sorted by
distance and carry a "distance" field in meters. --zoom applies the same
decluttering the map does: nothing below the minimum zoom, the best rated
places up to the detail zoom, everything above it.

Examples:
  citydiscover places --bbox 38.41,27.12,38.43,27.15
  citydiscover places --near 38.4237,27.1428 --radius 800 --limit 10`,
		RunE: runPlaces,
	}

	placesBBox    string
	placesNear    string
	placesRadius  float64
	placesZoom    float64
	placesLimit   int
	placesTimeout time.Duration
)

func init() {
	placesCmd.Flags().StringVar(&placesBBox, "bbox", "", "south,west,north,east")
	placesCmd.Flags().StringVar(&placesNear, "near", "", "lat,lon to search around")
	placesCmd.Flags().Float64Var(&placesRadius, "radius", 500, "search radius in meters for --near")
	placesCmd.Flags().Float64Var(&placesZoom, "zoom", 0, "map zoom to declutter for (0 shows everything)")
	placesCmd.Flags().IntVar(&placesLimit, "limit", 0, "maximum number of places (0 for no limit)")
	placesCmd.Flags().DurationVar(&placesTimeout, "timeout", 45*time.Second, "overall timeout")
	placesCmd.MarkFlagsMutuallyExclusive("bbox", "near")
	placesCmd.MarkFlagsOneRequired("bbox", "near")
}

func runPlaces(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), placesTimeout)
	defer cancel()

	svc := newPlaceService()
	start := time.Now()

	var (
		places []domain.Place
		err    error
	)
	if placesNear != "" {
		var from domain.GeoPoint
		from, err = parsePoint(placesNear)
		if err != nil {
			return err
		}
		if placesRadius <= 0 {
			return errors.New("--radius must be positive")
		}
		places, err = svc.Nearby(ctx, boxAround(from, placesRadius), from, 0)
	} else {
		var box domain.BoundingBox
		box, err = parseBBox(placesBBox)
		if err != nil {
			return err
		}
		places, err = svc.FetchPlacesInBounds(ctx, box)
	}
	if err != nil {
		return err
	}

	if placesZoom > 0 {
		places = domain.VisiblePlaces(places, placesZoom, domain.VisibilityPolicy{
			MinZoom:    cfg.Viewport.MinZoom,
			DetailZoom: cfg.Viewport.DetailZoom,
			TopN:       cfg.Viewport.TopN,
		})
	}
	if placesLimit > 0 && len(places) > placesLimit {
		places = places[:placesLimit]
	}

	slog.Info("places fetched", "count", len(places), "duration", time.Since(start))
	return writeJSON(cmd.OutOrStdout(), places)
}
