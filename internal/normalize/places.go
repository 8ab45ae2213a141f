// Package normalize converts upstream geodata and routing payloads into
// domain records.
package normalize

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/samirrijal/citydiscover/internal/core/domain"
)

// LatLon is a coordinate pair as returned in an element's center.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Element is a single record from the geodata query service.
// Nodes carry Lat/Lon; ways and relations carry Center.
type Element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat,omitempty"`
	Lon    *float64          `json:"lon,omitempty"`
	Center *LatLon           `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// Normalizer holds the category table used for place conversion.
type Normalizer struct {
	rules []CategoryRule
}

// New creates a Normalizer. A nil rule set selects DefaultCategoryRules.
func New(rules []CategoryRule) *Normalizer {
	if rules == nil {
		rules = DefaultCategoryRules
	}
	return &Normalizer{rules: rules}
}

// Place converts one element or reports domain.ErrMalformedElement.
func (n *Normalizer) Place(el Element) (domain.Place, error) {
	name := strings.TrimSpace(el.Tags["name"])
	if name == "" {
		return domain.Place{}, fmt.Errorf("%w: %s/%d has no name", domain.ErrMalformedElement, el.Type, el.ID)
	}
	if el.ID == 0 {
		return domain.Place{}, fmt.Errorf("%w: %s %q has no id", domain.ErrMalformedElement, el.Type, name)
	}

	loc, ok := location(el)
	if !ok {
		return domain.Place{}, fmt.Errorf("%w: %s/%d has no coordinates", domain.ErrMalformedElement, el.Type, el.ID)
	}

	return domain.Place{
		ID:          fmt.Sprintf("%s_%d", el.Type, el.ID),
		Name:        name,
		Category:    Categorize(el.Tags, n.rules),
		Location:    loc,
		Description: el.Tags["description"],
		ImageURL:    el.Tags["image"],
		Rating:      rating(el.Tags),
		Subtitle:    subtitle(el.Tags),
	}, nil
}

// Places converts a batch, dropping malformed elements.
func (n *Normalizer) Places(elements []Element) []domain.Place {
	places := make([]domain.Place, 0, len(elements))
	dropped := 0
	for _, el := range elements {
		p, err := n.Place(el)
		if err != nil {
			dropped++
			continue
		}
		places = append(places, p)
	}
	if dropped > 0 {
		slog.Debug("dropped malformed elements", "dropped", dropped, "kept", len(places))
	}
	return places
}

func location(el Element) (domain.GeoPoint, bool) {
	switch el.Type {
	case "node":
		if el.Lat == nil || el.Lon == nil {
			return domain.GeoPoint{}, false
		}
		return domain.GeoPoint{Lat: *el.Lat, Lon: *el.Lon}, true
	case "way", "relation":
		if el.Center == nil {
			return domain.GeoPoint{}, false
		}
		return domain.GeoPoint{Lat: el.Center.Lat, Lon: el.Center.Lon}, true
	}
	return domain.GeoPoint{}, false
}

func subtitle(tags map[string]string) string {
	hours := ""
	if tags["opening_hours"] != "" {
		hours = "Check opening hours"
	}

	switch {
	case tags["cuisine"] != "":
		if hours == "" {
			return tags["cuisine"]
		}
		return tags["cuisine"] + " • " + hours
	case tags["shop"] != "":
		return capitalize(tags["shop"]) + " Store"
	case tags["amenity"] != "":
		return capitalize(strings.ReplaceAll(tags["amenity"], "_", " "))
	}
	return hours
}

func rating(tags map[string]string) *float64 {
	for _, key := range []string{"rating", "stars"} {
		raw := tags[key]
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 5 {
			continue
		}
		return &v
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
