package domain

import (
	"math"
	"testing"
)

// TestDecomposeWind_CardinalVectors pins directions from the formula
// (270 - deg(atan2(v, u))) mod 360.
func TestDecomposeWind_CardinalVectors(t *testing.T) {
	tests := []struct {
		name      string
		u, v      float64
		speed     float64
		direction float64
	}{
		{"calm", 0, 0, 0, 270},
		{"eastward", 1, 0, 1, 270},
		{"northward", 0, 1, 1, 180},
		{"westward", -1, 0, 1, 90},
		{"southward", 0, -1, 1, 0},
		{"3-4-5", 3, 4, 5, 270 - Rad2Deg(math.Atan2(4, 3))},
		{"south-west quadrant", -2, -2, math.Sqrt(8), 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := DecomposeWind(tt.u, tt.v)
			if math.Abs(w.Speed-tt.speed) > 1e-9 {
				t.Errorf("speed: expected %.10f, got %.10f", tt.speed, w.Speed)
			}
			if math.Abs(w.Direction-tt.direction) > 1e-9 {
				t.Errorf("direction: expected %.10f, got %.10f", tt.direction, w.Direction)
			}
		})
	}
}

// TestDecomposeWind_DirectionRange checks the result always lies in [0, 360).
func TestDecomposeWind_DirectionRange(t *testing.T) {
	for u := -5.0; u <= 5.0; u += 0.5 {
		for v := -5.0; v <= 5.0; v += 0.5 {
			w := DecomposeWind(u, v)
			if w.Direction < 0 || w.Direction >= 360 {
				t.Fatalf("direction out of range for (%.1f, %.1f): %.10f", u, v, w.Direction)
			}
			if w.Speed < 0 {
				t.Fatalf("negative speed for (%.1f, %.1f): %.10f", u, v, w.Speed)
			}
		}
	}
}
