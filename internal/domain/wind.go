package domain

import "math"

// DecomposeWind converts eastward (u) and northward (v) wind components into speed and
// meteorological direction: the compass bearing the wind blows from, clockwise from north.
//
//	speed     = sqrt(u² + v²)
//	direction = (270 - deg(atan2(v, u))) mod 360
//
// atan2(0, 0) is 0, so calm wind reports a direction of 270.
func DecomposeWind(u, v float64) Wind {
	speed := math.Sqrt(u*u + v*v)
	return Wind{
		Speed:     speed,
		Direction: floorMod(270-Rad2Deg(math.Atan2(v, u)), 360),
	}
}

// floorMod returns x mod m with the sign of m, so the result lies in [0, m) for m > 0.
func floorMod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	// Guard against r == m after adding to a tiny negative remainder.
	if r >= m {
		r -= m
	}
	return r
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
