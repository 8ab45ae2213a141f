package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// PlaceCategory is the display category assigned to a point of interest.
type PlaceCategory string

const (
	CategoryRestaurant PlaceCategory = "Restaurant"
	CategoryCafe       PlaceCategory = "Cafe"
	CategoryEvent      PlaceCategory = "Event"
	CategoryMuseum     PlaceCategory = "Museum"
	CategoryPark       PlaceCategory = "Park"
	CategoryHistorical PlaceCategory = "Historical"
	CategoryShopping   PlaceCategory = "Shopping"
	CategoryService    PlaceCategory = "Service"
	CategoryOther      PlaceCategory = "Other"
)

// Place represents a point of interest shown on the map and in the nearby list.
type Place struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Category    PlaceCategory `json:"category"`
	Location    GeoPoint      `json:"location"`
	Description string        `json:"description,omitempty"`
	ImageURL    string        `json:"image_url,omitempty"`
	Rating      *float64      `json:"rating,omitempty"`
	Subtitle    string        `json:"subtitle,omitempty"`
	Distance    *float64      `json:"distance,omitempty"` // computed field, meters
}

// RouteDetails is a routed polyline between two points.
type RouteDetails struct {
	Coordinates []GeoPoint `json:"coordinates"`
	Distance    float64    `json:"distance"` // meters
	Duration    float64    `json:"duration"` // seconds
}

// TransportMode selects the routing profile.
type TransportMode string

const (
	ModeDriving TransportMode = "driving"
	ModeWalking TransportMode = "walking"
	ModeCycling TransportMode = "cycling"

	DefaultMode = ModeDriving
)

// ParseTransportMode accepts driving, walking or cycling (case-insensitive).
// An empty string yields DefaultMode.
func ParseTransportMode(s string) (TransportMode, error) {
	switch TransportMode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultMode, nil
	case ModeDriving:
		return ModeDriving, nil
	case ModeWalking:
		return ModeWalking, nil
	case ModeCycling:
		return ModeCycling, nil
	}
	return "", fmt.Errorf("unknown transport mode %q", s)
}

// UserPreferences holds per-user display preferences.
type UserPreferences struct {
	ID                  string          `json:"pref_id"`
	PreferredCategories []PlaceCategory `json:"preferred_categories"`
	Language            string          `json:"language"`
}

// User is an application account. Credentials never leave the auth store.
type User struct {
	ID          string          `json:"user_id"`
	Username    string          `json:"username"`
	Email       string          `json:"email"`
	Preferences UserPreferences `json:"preferences"`
	CreatedAt   time.Time       `json:"created_at"`
	IsGuest     bool            `json:"is_guest"`
}

// VisibilityPolicy declutters the map by zoom level.
type VisibilityPolicy struct {
	MinZoom    float64 // below: nothing visible
	DetailZoom float64 // at or above: everything visible
	TopN       int     // visible in between, best rated first
}

// VisiblePlaces returns the subset of places worth drawing at zoom.
// The input slice is not modified.
func VisiblePlaces(places []Place, zoom float64, p VisibilityPolicy) []Place {
	if zoom < p.MinZoom {
		return []Place{}
	}
	if zoom >= p.DetailZoom || len(places) <= p.TopN {
		return places
	}
	if p.TopN <= 0 {
		return []Place{}
	}

	ranked := make([]Place, len(places))
	copy(ranked, places)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ratingOf(ranked[i]) > ratingOf(ranked[j])
	})
	return ranked[:p.TopN]
}

func ratingOf(p Place) float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}
