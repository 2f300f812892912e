package geo

import (
	"math"
	"testing"
)

func TestHaversineKm_IdenticalPoints(t *testing.T) {
	if d := HaversineKm(48.8566, 2.3522, 48.8566, 2.3522); d != 0 {
		t.Errorf("expected 0 distance for identical points, got %f", d)
	}
}

func TestHaversineKm_Symmetric(t *testing.T) {
	d1 := HaversineKm(40.7128, -74.0060, 51.5074, -0.1278)
	d2 := HaversineKm(51.5074, -0.1278, 40.7128, -74.0060)
	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", d1, d2)
	}
}

func TestHaversineKm_KnownDistance(t *testing.T) {
	// New York -> London is roughly 5570 km.
	d := HaversineKm(40.7128, -74.0060, 51.5074, -0.1278)
	if d < 5500 || d > 5620 {
		t.Errorf("NY-London distance out of expected range: %f km", d)
	}
}

func TestHaversineKm_ShortDistance(t *testing.T) {
	// Two points ~1.11 km apart (0.01 degrees of latitude).
	d := HaversineKm(50.0, 10.0, 50.01, 10.0)
	if d < 1.0 || d > 1.2 {
		t.Errorf("expected ~1.11 km, got %f", d)
	}
}

func TestValidateCoordinates(t *testing.T) {
	cases := []struct {
		lat, lon float64
		want     bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{91, 0, false},
		{0, 181, false},
		{-90.5, 0, false},
	}
	for _, c := range cases {
		if got := ValidateCoordinates(c.lat, c.lon); got != c.want {
			t.Errorf("ValidateCoordinates(%f, %f) = %v, want %v", c.lat, c.lon, got, c.want)
		}
	}
}
