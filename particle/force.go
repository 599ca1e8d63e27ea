package particle

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// modd is the one-dimensional minimum-image distance from a to b on a
// periodic axis of length l: whichever of {b-l, b, b+l} lies closest to a.
func modd(a, b, l float64) float64 {
	opts := [3]float64{(b - l) - a, b - a, (b + l) - a}
	best := opts[0]
	for _, o := range opts[1:] {
		if math.Abs(o) < math.Abs(best) {
			best = o
		}
	}
	return best
}

// ModR is the three-dimensional minimum-image vector from reference to
// neighbor in a periodic box of side l.
func ModR(reference, neighbor Vec, l float64) Vec {
	return Vec{
		X: modd(reference.X, neighbor.X, l),
		Y: modd(reference.Y, neighbor.Y, l),
		Z: modd(reference.Z, neighbor.Z, l),
	}
}

// N3L reports whether neighbor should be evaluated with respect to
// reference under the half-shell convention: the first nonzero component
// of ModR(reference, neighbor) is strictly positive. Equal positions
// (self-interaction) return false.
func N3L(reference, neighbor Vec, l float64) bool {
	d := ModR(reference, neighbor, l)
	for _, v := range [3]float64{d.X, d.Y, d.Z} {
		if v < 0 {
			return false
		}
		if v > 0 {
			return true
		}
	}
	return false
}

// ljRaw is the uncapped Lennard-Jones pair force on reference from
// neighbor, directed along the minimum-image separation.
func ljRaw(reference, neighbor Vec, l, epsilon, sigma float64) Vec {
	d := ModR(reference, neighbor, l)
	r := r3.Norm(d)
	if r == 0 {
		return Vec{}
	}
	sigma6 := math.Pow(sigma, 6)
	sigma12 := sigma6 * sigma6
	coef := 4.0 * epsilon * (6.0*sigma6/math.Pow(r, 7) - 12.0*sigma12/math.Pow(r, 13)) / r
	return r3.Scale(coef, d)
}

// ljMax is the force-magnitude cap applied per axis: four times the
// x-component of the uncapped force evaluated at the separation where
// that force is steepest, (26/7)^(1/6)*sigma. One scalar is reused
// across all three axes rather than capping each axis independently.
func ljMax(epsilon, sigma float64) float64 {
	rm := math.Pow(26.0/7.0, 1.0/6.0) * sigma
	raw := ljRaw(Vec{}, Vec{X: rm}, 1e12, epsilon, sigma)
	return 4.0 * math.Abs(raw.X)
}

func capSigned(v, max float64) float64 {
	m := math.Abs(v)
	if m > max {
		m = max
	}
	switch {
	case v < 0:
		return -m
	case v > 0:
		return m
	default:
		return 0
	}
}

// LJForce is the capped Lennard-Jones pair force on reference from
// neighbor: the uncapped force, magnitude-limited per axis to ljMax so a
// near-zero separation (a modeling error, not a physical configuration)
// cannot blow up the velocity update.
func LJForce(reference, neighbor Vec, l, epsilon, sigma float64) Vec {
	f := ljRaw(reference, neighbor, l, epsilon, sigma)
	max := ljMax(epsilon, sigma)
	return Vec{
		X: capSigned(f.X, max),
		Y: capSigned(f.Y, max),
		Z: capSigned(f.Z, max),
	}
}
