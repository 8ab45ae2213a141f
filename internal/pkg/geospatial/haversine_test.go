package geospatial

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	// Konak clock tower to Alsancak station, roughly 2.3 km.
	d := Haversine(38.4189, 27.1287, 38.4390, 27.1475)
	if d < 2500 || d > 2900 {
		t.Errorf("unexpected distance %.0f m", d)
	}
	if Haversine(10, 10, 10, 10) != 0 {
		t.Error("expected zero distance for identical points")
	}
}

func TestBoxAround(t *testing.T) {
	s, w, n, e := BoxAround(38.4237, 27.1428, 1000)
	if !(s < 38.4237 && n > 38.4237 && w < 27.1428 && e > 27.1428) {
		t.Fatalf("box does not contain center: %v %v %v %v", s, w, n, e)
	}
	if got := Haversine(38.4237, 27.1428, n, 27.1428); math.Abs(got-1000) > 10 {
		t.Errorf("north edge at %.0f m, want ~1000", got)
	}

	_, w, _, _ = BoxAround(0, -179.999, 5000)
	if w != -180 {
		t.Errorf("expected west clamped to -180, got %v", w)
	}
}
