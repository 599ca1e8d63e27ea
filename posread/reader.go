package posread

import (
	"strconv"

	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/wire"
)

// Reader is the Position Reader: given the controller's (cell_r, addr,
// new_reference), it picks the relevant values off the per-cell cache
// inputs — addressed, this same cycle, by the paired Controller's oaddr
// bus — and produces either a fresh set of reference candidates
// (reference mode, one per cell lane) or a fresh set of half-shell
// neighbor candidates (neighbor mode, 14 per cell lane).
//
// The Reader holds one cache Input per cell in the universe, mirroring
// one cache apiece, but drives no address of its own: it only ever reads.
// That split is deliberate. The address a cell's cache is read at this
// cycle has to come from the Controller, which has no cache Inputs at
// all — if the Reader produced its own oaddr bus, that output would feed
// forward through the caches and back into the Reader's own cellIn
// Inputs inside the same Evaluate, which is exactly the self-referential
// combinational path the fabric's cycle guard exists to catch.
type Reader struct {
	logic *wire.Logic

	cellRIn        *wire.Input
	addrIn         *wire.Input
	newReferenceIn *wire.Input

	cellIn []*wire.Input // one per cell: that cell's read result

	references [][]*wire.Output // [lane][pipeline slot]
	neighbors  [][]*wire.Output // [lane][half-shell slot 0..13]

	StaleReference *wire.Output

	geo   particle.Geometry
	nCPar int
	nPPar int
}

// NewReader builds a Reader over a universe of geo.NCell() cells, reading
// nCPar cell lanes in parallel and holding nPPar reference pipeline slots
// per lane. cellRIn/addrIn/newReferenceIn should be connected to the
// paired Controller's matching outputs, and each CellInput(i) should be
// connected to cell i's cache output (through that cell's CacheMux).
func NewReader(f *wire.Fabric, name string, geo particle.Geometry, nCPar, nPPar int) *Reader {
	r := &Reader{geo: geo, nCPar: nCPar, nPPar: nPPar}

	r.logic = f.Add(wire.NewLogic(name)).(*wire.Logic)
	r.cellRIn = r.logic.AddInput("cell-r")
	r.addrIn = r.logic.AddInput("addr")
	r.newReferenceIn = r.logic.AddInput("new-reference")

	nCell := geo.NCell()
	r.cellIn = make([]*wire.Input, nCell)
	for i := 0; i < nCell; i++ {
		r.cellIn[i] = r.logic.AddInput("i#" + strconv.Itoa(i))
	}

	r.references = make([][]*wire.Output, nCPar)
	r.neighbors = make([][]*wire.Output, nCPar)
	for c := 0; c < nCPar; c++ {
		r.references[c] = make([]*wire.Output, nPPar)
		for p := 0; p < nPPar; p++ {
			r.references[c][p] = r.logic.AddOutput("reference#" + strconv.Itoa(c) + "-" + strconv.Itoa(p))
		}
		r.neighbors[c] = make([]*wire.Output, 14)
		for n := 0; n < 14; n++ {
			r.neighbors[c][n] = r.logic.AddOutput("neighbor#" + strconv.Itoa(c) + "-" + strconv.Itoa(n))
		}
	}

	r.StaleReference = r.logic.AddOutput("stale-reference")

	r.logic.SetCompute(r.compute)
	return r
}

// CellInput returns the Input that cell i's cache output should drive.
func (r *Reader) CellInput(i int) *wire.Input { return r.cellIn[i] }

// Reference returns the Output carrying reference pipeline slot p of cell
// lane c: a particle.Transit (kind Position), RESET, or NULL.
func (r *Reader) Reference(c, p int) *wire.Output { return r.references[c][p] }

// Neighbor returns the Output carrying half-shell neighbor slot n of cell
// lane c.
func (r *Reader) Neighbor(c, n int) *wire.Output { return r.neighbors[c][n] }

// CellRIn, AddrIn, and NewReferenceIn are the Inputs the owning
// Controller's matching outputs should drive.
func (r *Reader) CellRIn() *wire.Input        { return r.cellRIn }
func (r *Reader) AddrIn() *wire.Input         { return r.addrIn }
func (r *Reader) NewReferenceIn() *wire.Input { return r.newReferenceIn }

func (r *Reader) compute() []wire.Value {
	nCell := len(r.cellIn)

	refs := make([][]wire.Value, r.nCPar)
	nbrs := make([][]wire.Value, r.nCPar)
	for c := 0; c < r.nCPar; c++ {
		refs[c] = make([]wire.Value, r.nPPar)
		for p := range refs[c] {
			refs[c][p] = wire.Null()
		}
		nbrs[c] = make([]wire.Value, 14)
		for n := range nbrs[c] {
			nbrs[c][n] = wire.Null()
		}
	}

	emit := func() []wire.Value {
		out := make([]wire.Value, 0, r.nCPar*(r.nPPar+14)+1)
		for c := 0; c < r.nCPar; c++ {
			out = append(out, refs[c]...)
		}
		for c := 0; c < r.nCPar; c++ {
			out = append(out, nbrs[c]...)
		}
		return out
	}

	cellRVal := r.cellRIn.Get()
	if wire.IsNull(cellRVal) {
		return append(emit(), wire.Null())
	}

	cellR := wire.Payload[int](cellRVal)
	addr := wire.Payload[int](r.addrIn.Get())
	newReferenceVal := r.newReferenceIn.Get()

	overallStale := true

	if !wire.IsNull(newReferenceVal) {
		lane := wire.Payload[int](newReferenceVal)
		for c := 0; c < r.nCPar; c++ {
			cell := cellR + c
			if cell >= nCell {
				refs[c][lane] = wire.Reset()
				continue
			}
			raw := r.cellIn[cell].Get()
			if wire.IsNull(raw) {
				refs[c][lane] = wire.Reset()
			} else {
				overallStale = false
				refs[c][lane] = particle.NewPosition(wire.Payload[particle.Vec](raw), particle.Origin{Cell: cell, Addr: addr})
			}
		}
	} else {
		for c := 0; c < r.nCPar; c++ {
			cell := cellR + c
			if cell >= nCell {
				continue
			}
			for n, nbrCell := range r.geo.Neighborhood(cell) {
				raw := r.cellIn[nbrCell].Get()
				if wire.IsNull(raw) {
					continue
				}
				overallStale = false
				nbrs[c][n] = particle.NewPosition(wire.Payload[particle.Vec](raw), particle.Origin{Cell: nbrCell, Addr: addr})
			}
		}
	}

	return append(emit(), overallStale)
}
