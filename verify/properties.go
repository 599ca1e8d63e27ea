package verify

import (
	"fmt"

	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/wire"
)

// CheckConservation asserts the fabric neither lost nor duplicated a
// particle: the occupied-slot count across a full BRAM half must equal
// the number the run started with, regardless of how migration
// redistributed them across cells.
func CheckConservation(want int, occupants []Occupant) error {
	if len(occupants) != want {
		return fmt.Errorf("verify: particle count changed: started with %d, now %d", want, len(occupants))
	}
	return nil
}

// CheckResidency asserts every occupied slot's position actually falls
// within the cell migration placed it in — the invariant phase 3's
// per-cell write queues exist to maintain.
func CheckResidency(geo particle.Geometry, occupants []Occupant) error {
	for _, o := range occupants {
		want := geo.CellFromPosition(o.Pos)
		if want != o.Origin.Cell {
			return fmt.Errorf("verify: particle at %s has position %v belonging to cell %d",
				o.Origin, o.Pos, want)
		}
	}
	return nil
}

// CheckHalfCleared asserts that every slot in [offset, offset+dbsize) of
// every given BRAM currently holds NULL. It is the structural counterpart
// of the double-buffer discipline's "the non-active half is pre-cleared
// before being written" invariant: called right after phase 3's clear
// sub-phase has run to completion and before its migrate sub-phase has
// written anything, it should always hold.
func CheckHalfCleared(brams []*wire.BRAM, offset, dbsize int) error {
	for i, b := range brams {
		for a := offset; a < offset+dbsize; a++ {
			if !wire.IsNull(b.Peek(a)) {
				return fmt.Errorf("verify: %s[%d]=%d not cleared: found non-NULL value", b.Name(), i, a)
			}
		}
	}
	return nil
}

// TotalMomentum sums mv across ps, for the momentum-conservation
// diagnostic a run can log each timestep (mass is implicitly 1
// throughout).
func TotalMomentum(ps []Particle) particle.Vec {
	var sum particle.Vec
	for _, p := range ps {
		sum.X += p.Vel.X
		sum.Y += p.Vel.Y
		sum.Z += p.Vel.Z
	}
	return sum
}

// TotalKineticEnergy sums (1/2)v^2 across ps, the companion diagnostic to
// TotalMomentum.
func TotalKineticEnergy(ps []Particle) float64 {
	var sum float64
	for _, p := range ps {
		v := p.Vel
		sum += 0.5 * (v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	}
	return sum
}
