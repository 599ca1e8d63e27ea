// Package verify is the verification harness: it recomputes,
// independently of the fabric, the set of pair interactions a timestep
// is expected to perform and the positions it is expected to reach, then
// checks the fabric's actual behavior against both. It is an internal
// debugging tool, not part of the synthesizable fabric itself — every
// check here is something a correct fabric run will always satisfy, and
// a violation always indicates a bug in the wiring or logic under test.
package verify

import (
	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/wire"
)

// Occupant is one particle as scanned directly out of a BRAM half,
// bypassing the clocked wire graph (via wire.BRAM.Peek), for use by the
// verifier and by tests that need to assert on cache contents between
// clock edges.
type Occupant struct {
	Origin particle.Origin
	Pos    particle.Vec
}

// ScanHalf reads every occupied position slot across pCaches[*] in the
// addr range [offset, offset+dbsize), in cell-linear order — the same
// order the record package writes its persisted snapshot in.
func ScanHalf(pCaches []*wire.BRAM, offset, dbsize int) []Occupant {
	var out []Occupant
	for cell, bram := range pCaches {
		for a := offset; a < offset+dbsize; a++ {
			v := bram.Peek(a)
			if wire.IsNull(v) {
				continue
			}
			out = append(out, Occupant{
				Origin: particle.Origin{Cell: cell, Addr: a},
				Pos:    wire.Payload[particle.Vec](v),
			})
		}
	}
	return out
}

// ScanActiveHalf scans the half currently being read for db (the active
// double-buffer bit, 0 or 1), i.e. offset = db*dbsize.
func ScanActiveHalf(pCaches []*wire.BRAM, db, dbsize int) []Occupant {
	offset := 0
	if db != 0 {
		offset = dbsize
	}
	return ScanHalf(pCaches, offset, dbsize)
}

// CellPositions groups a flat occupant list back into the
// cell-by-cell-linear-order shape the record package persists, one slice
// per cell index 0..nCell-1, sorted by address within a cell.
func CellPositions(nCell int, occupants []Occupant) [][]particle.Vec {
	byCell := make(map[int][]Occupant, nCell)
	for _, o := range occupants {
		byCell[o.Origin.Cell] = append(byCell[o.Origin.Cell], o)
	}
	out := make([][]particle.Vec, nCell)
	for cell := 0; cell < nCell; cell++ {
		list := byCell[cell]
		vecs := make([]particle.Vec, len(list))
		for i, o := range sortedByAddr(list) {
			vecs[i] = o.Pos
		}
		out[cell] = vecs
	}
	return out
}

func sortedByAddr(list []Occupant) []Occupant {
	out := append([]Occupant(nil), list...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Origin.Addr < out[j-1].Origin.Addr; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
