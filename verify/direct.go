package verify

import (
	"fmt"
	"math"

	"github.com/sarchlab/mdfabric/particle"
)

// Particle is one particle's full state, as carried by the direct
// reference integrator.
type Particle struct {
	Origin particle.Origin
	Pos    particle.Vec
	Vel    particle.Vec
}

// DirectStep advances every particle in ps by one timestep using an
// O(n^2) evaluation of every distinct pair, each once in N3L order with
// no cutoff applied, using the fabric's own physics (particle.LJForce,
// direct-to-velocity integration, periodic wrap) without any of its
// pipelining or caching.
// It exists so a run's actual output can be checked against an
// independent recomputation rather than only against itself.
func DirectStep(geo particle.Geometry, epsilon, sigma, dt float64, ps []Particle) []Particle {
	l := geo.L()
	out := make([]Particle, len(ps))
	copy(out, ps)

	for i := range ps {
		for j := range ps {
			if i == j {
				continue
			}
			if !particle.N3L(ps[i].Pos, ps[j].Pos, l) {
				continue
			}
			f := particle.LJForce(ps[i].Pos, ps[j].Pos, l, epsilon, sigma)
			out[i].Vel = particle.Vec{X: out[i].Vel.X + dt*f.X, Y: out[i].Vel.Y + dt*f.Y, Z: out[i].Vel.Z + dt*f.Z}
			out[j].Vel = particle.Vec{X: out[j].Vel.X - dt*f.X, Y: out[j].Vel.Y - dt*f.Y, Z: out[j].Vel.Z - dt*f.Z}
		}
	}

	for i := range out {
		v := out[i].Vel
		p := out[i].Pos
		moved := particle.Vec{X: p.X + dt*v.X, Y: p.Y + dt*v.Y, Z: p.Z + dt*v.Z}
		out[i].Pos = geo.Wrap(moved)
	}

	return out
}

// MatchPositions asserts that every position in actual has a corresponding
// position in want within tol relative error under the minimum-image
// norm, and vice versa, without regard to ordering or to which cell/slot
// either side considers a position to live in — migration is free to
// relocate a particle to any slot, so only the position itself is
// checked.
func MatchPositions(geo particle.Geometry, want, actual []particle.Vec, tol float64) error {
	if len(want) != len(actual) {
		return fmt.Errorf("verify: position count mismatch: want %d, got %d", len(want), len(actual))
	}
	used := make([]bool, len(actual))
	for _, w := range want {
		found := false
		for i, a := range actual {
			if used[i] {
				continue
			}
			if closeEnough(geo, w, a, tol) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("verify: no actual position within tolerance of expected %v", w)
		}
	}
	return nil
}

func closeEnough(geo particle.Geometry, want, got particle.Vec, tol float64) bool {
	d := particle.ModR(want, got, geo.L())
	dist := math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
	scale := math.Sqrt(want.X*want.X + want.Y*want.Y + want.Z*want.Z)
	if scale < 1 {
		scale = 1
	}
	return dist/scale <= tol
}
