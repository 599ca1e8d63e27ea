package particle

import "math"

// Geometry is the cubic-universe layout shared by every component that
// needs to turn a position into a cell, or a cell into its half-shell
// neighborhood: the universe side length in cells, the cell side length,
// and the per-cell BRAM slot count used to build globally unique particle
// identifiers.
type Geometry struct {
	UniverseSize int     // U: cells per axis
	Cutoff       float64 // cell side length
	BSize        int     // slots per cell BRAM
}

// L is the box side length, U*Cutoff.
func (g Geometry) L() float64 { return float64(g.UniverseSize) * g.Cutoff }

// NCell is the total number of cells in the universe, U^3.
func (g Geometry) NCell() int { return g.UniverseSize * g.UniverseSize * g.UniverseSize }

// NIdent is the maximum number of unique particle identities, NCell*BSize.
func (g Geometry) NIdent() int { return g.NCell() * g.BSize }

func mod(x, m int) int {
	r := x % m
	if r < 0 {
		r += m
	}
	return r
}

// LinearIdx folds a cubic cell index [i,j,k] (each taken modulo
// UniverseSize) into a single linear cell index.
func (g Geometry) LinearIdx(i, j, k int) int {
	u := g.UniverseSize
	return mod(i, u) + mod(j, u)*u + mod(k, u)*u*u
}

// CubicIdx is the inverse of LinearIdx.
func (g Geometry) CubicIdx(cell int) (i, j, k int) {
	u := g.UniverseSize
	return cell % u, (cell / u) % u, (cell / (u * u)) % u
}

// Wrap folds a position vector back into the periodic box [0, L)^3,
// component-wise. Used after integrating a position forward during
// migration, since every other geometry computation assumes positions
// already lie within the box.
func (g Geometry) Wrap(v Vec) Vec {
	l := g.L()
	return Vec{X: wrapf(v.X, l), Y: wrapf(v.Y, l), Z: wrapf(v.Z, l)}
}

func wrapf(x, l float64) float64 {
	r := math.Mod(x, l)
	if r < 0 {
		r += l
	}
	return r
}

// CellFromPosition returns the linear index of the cell a position vector
// falls in.
func (g Geometry) CellFromPosition(pos Vec) int {
	u := g.UniverseSize
	i := mod(int(math.Floor(pos.X/g.Cutoff)), u)
	j := mod(int(math.Floor(pos.Y/g.Cutoff)), u)
	k := mod(int(math.Floor(pos.Z/g.Cutoff)), u)
	return g.LinearIdx(i, j, k)
}

// wrapOffset gives the signed, shortest-path offset from a to b on a ring
// of size m: a value in (-m/2, m/2].
func wrapOffset(m, a, b int) int {
	d := mod(b-a, m)
	if d > m/2 {
		d -= m
	}
	return d
}

// firstNonzeroPositive reports whether the first nonzero value among vs is
// positive. All-zero returns false: this is the tie-break that admits
// exactly one ordering of every unordered pair (of cells, or of particles
// within a cell) under the half-shell convention.
func firstNonzeroPositive(vs ...int) bool {
	for _, v := range vs {
		if v < 0 {
			return false
		}
		if v > 0 {
			return true
		}
	}
	return false
}

// N3LCell reports whether cellN should be evaluated with respect to cellR
// under the half-shell convention: the cubic offset from cellR to cellN,
// wrapped to the shortest path on each periodic axis, has a positive first
// nonzero component.
func (g Geometry) N3LCell(cellR, cellN int) bool {
	ir, jr, kr := g.CubicIdx(cellR)
	in, jn, kn := g.CubicIdx(cellN)
	u := g.UniverseSize
	return firstNonzeroPositive(
		wrapOffset(u, ir, in),
		wrapOffset(u, jr, jn),
		wrapOffset(u, kr, kn),
	)
}

// Neighborhood returns the half-shell of cells evaluated with respect to
// cell: the cell itself, plus its cubic neighbors selected by N3LCell so
// that every unordered pair of adjacent cells is visited from exactly one
// side. For a universe of 3 or more cells per axis its length is always
// 14; a smaller universe wraps several cubic offsets onto the same cell,
// which appears once — visiting it once per aliased offset would present
// the same pair to more than one filter slot.
func (g Geometry) Neighborhood(cell int) []int {
	i, j, k := g.CubicIdx(cell)
	out := make([]int, 0, 14)
	out = append(out, cell)
	for di := -1; di <= 1; di++ {
		for dj := -1; dj <= 1; dj++ {
			for dk := -1; dk <= 1; dk++ {
				if di == 0 && dj == 0 && dk == 0 {
					continue
				}
				if !firstNonzeroPositive(di, dj, dk) {
					continue
				}
				nbr := g.LinearIdx(i+di, j+dj, k+dk)
				dup := false
				for _, seen := range out {
					if seen == nbr {
						dup = true
						break
					}
				}
				if !dup {
					out = append(out, nbr)
				}
			}
		}
	}
	return out
}

// Ident computes a globally unique integer identity for a particle at the
// given origin, used only by the verification harness to track expected
// computations across pipeline stages.
func (g Geometry) Ident(o Origin) int { return o.Cell*g.BSize + o.Addr }

// PairIdent computes a globally unique integer identity for an ordered
// pair of particles.
func (g Geometry) PairIdent(reference, neighbor Origin) int {
	return g.NIdent()*g.Ident(reference) + g.Ident(neighbor)
}
