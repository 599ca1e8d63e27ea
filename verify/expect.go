package verify

import (
	"math"

	"github.com/sarchlab/mdfabric/particle"
)

// ExpectSet is a set of pair identities (particle.Geometry.PairIdent), used
// to track which pair evaluations a timestep still owes. Filter and
// pipeline expectations are tracked separately since a single admitted
// pair discharges one filter-expect entry but two pipeline-expect entries
// (reference,neighbor) and (neighbor,reference), per Newton's third law.
type ExpectSet map[int]struct{}

// NewExpectSet builds an ExpectSet from the given pair identities.
func NewExpectSet(idents ...int) ExpectSet {
	s := make(ExpectSet, len(idents))
	for _, id := range idents {
		s[id] = struct{}{}
	}
	return s
}

// Drain removes ident from the set, reporting whether it was present. A
// caller draining an ident not in the set has found a spurious evaluation
// a correct fabric run would never produce.
func (s ExpectSet) Drain(ident int) bool {
	if _, ok := s[ident]; !ok {
		return false
	}
	delete(s, ident)
	return true
}

// BuildExpectSets recomputes, directly from a position snapshot, every
// (reference, neighbor) pair a correct timestep must evaluate: for each
// occupied particle, every occupied particle in its half-shell
// neighborhood, admitted under the same two-stage N3L test the filter bank
// itself applies (cell-level pre-filter, then the cutoff distance test,
// with the particle-level tie-break added for pairs within one cell). FilterExpect
// tracks the ordered (reference, neighbor) pair the filter bank emits;
// PipelineExpect additionally tracks the pair's reverse, since the force
// pipeline discharges both orderings from one admitted pair.
func BuildExpectSets(geo particle.Geometry, cutoff float64, occupants []Occupant) (filterExpect, pipelineExpect ExpectSet) {
	filterExpect = ExpectSet{}
	pipelineExpect = ExpectSet{}

	byCell := make(map[int][]Occupant)
	for _, o := range occupants {
		byCell[o.Origin.Cell] = append(byCell[o.Origin.Cell], o)
	}

	l := geo.L()
	for _, ref := range occupants {
		for _, cn := range geo.Neighborhood(ref.Origin.Cell) {
			if cn != ref.Origin.Cell && !geo.N3LCell(ref.Origin.Cell, cn) {
				continue
			}
			for _, nbr := range byCell[cn] {
				if ref.Origin == nbr.Origin {
					continue
				}
				if cn == ref.Origin.Cell && !particle.N3L(ref.Pos, nbr.Pos, l) {
					continue
				}
				d := particle.ModR(ref.Pos, nbr.Pos, l)
				dist := math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
				if dist >= cutoff {
					continue
				}
				id := geo.PairIdent(ref.Origin, nbr.Origin)
				revID := geo.PairIdent(nbr.Origin, ref.Origin)
				filterExpect[id] = struct{}{}
				pipelineExpect[id] = struct{}{}
				pipelineExpect[revID] = struct{}{}
			}
		}
	}
	return filterExpect, pipelineExpect
}
