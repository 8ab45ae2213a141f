package domain_test

import (
	"errors"
	"testing"

	"github.com/samirrijal/citydiscover/internal/core/domain"
)

func TestBoundingBox_Validate(t *testing.T) {
	tests := []struct {
		name    string
		box     domain.BoundingBox
		wantErr bool
	}{
		{"valid", domain.BoundingBox{South: 38.42, West: 27.13, North: 38.43, East: 27.15}, false},
		{"south above north", domain.BoundingBox{South: 38.43, West: 27.13, North: 38.42, East: 27.15}, true},
		{"degenerate", domain.BoundingBox{South: 38.42, West: 27.13, North: 38.42, East: 27.15}, true},
		{"antimeridian", domain.BoundingBox{South: -10, West: 179, North: 10, East: -179}, true},
		{"latitude range", domain.BoundingBox{South: -91, West: 0, North: 10, East: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.box.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidBounds) {
				t.Errorf("expected ErrInvalidBounds, got %v", err)
			}
		})
	}
}

func TestBoundingBox_Center(t *testing.T) {
	c := domain.BoundingBox{South: 10, West: 20, North: 12, East: 24}.Center()
	if c.Lat != 11 || c.Lon != 22 {
		t.Errorf("unexpected center %+v", c)
	}
}

func TestParseTransportMode(t *testing.T) {
	if m, err := domain.ParseTransportMode(""); err != nil || m != domain.ModeDriving {
		t.Errorf("empty mode: got %q, %v", m, err)
	}
	if m, err := domain.ParseTransportMode("Cycling"); err != nil || m != domain.ModeCycling {
		t.Errorf("cycling: got %q, %v", m, err)
	}
	if _, err := domain.ParseTransportMode("flying"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestVisiblePlaces(t *testing.T) {
	policy := domain.VisibilityPolicy{MinZoom: 15.5, DetailZoom: 17, TopN: 2}
	r := func(v float64) *float64 { return &v }
	places := []domain.Place{
		{ID: "a", Rating: r(3.1)},
		{ID: "b", Rating: r(4.9)},
		{ID: "c"},
		{ID: "d", Rating: r(4.2)},
	}

	if got := domain.VisiblePlaces(places, 14, policy); len(got) != 0 {
		t.Errorf("expected nothing below min zoom, got %d", len(got))
	}
	if got := domain.VisiblePlaces(places, 18, policy); len(got) != 4 {
		t.Errorf("expected all places at detail zoom, got %d", len(got))
	}

	got := domain.VisiblePlaces(places, 16, policy)
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "d" {
		t.Errorf("expected top rated [b d], got %+v", got)
	}
	if places[0].ID != "a" {
		t.Error("input slice must not be reordered")
	}
}

func TestVisiblePlaces_NonPositiveTopN(t *testing.T) {
	places := []domain.Place{{ID: "a"}, {ID: "b"}}

	for _, n := range []int{0, -1} {
		policy := domain.VisibilityPolicy{MinZoom: 15.5, DetailZoom: 17, TopN: n}
		if got := domain.VisiblePlaces(places, 16, policy); len(got) != 0 {
			t.Errorf("TopN=%d: expected nothing between min and detail zoom, got %d", n, len(got))
		}
		if got := domain.VisiblePlaces(places, 17, policy); len(got) != 2 {
			t.Errorf("TopN=%d: expected all places at detail zoom, got %d", n, len(got))
		}
	}
}
