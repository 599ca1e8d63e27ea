// Package posread implements the Position Read Controller and Position
// Reader: phase 1's front end, which streams (reference, neighbors…)
// tuples out of the per-cell position caches for the filter bank to
// consume. It generalizes a single-lane controller to a
// N_CPAR-wide bank of cell lanes, each running its own N_PPAR-deep
// reference pipeline and its own 14-cell half-shell neighbor sweep.
package posread

import (
	"strconv"

	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/wire"
)

const noReference = -1

// controllerState is the Position Read Controller's entire persisted
// state, carried in a single Register so every feedback path (stale ->
// controller, done -> control unit -> ready -> controller) passes through
// an edge-triggered element.
type controllerState struct {
	nextTimestep bool
	cellR        int
	addrR        int
	addrN        int
	newReference int // noReference, or the reference lane being loaded
	stale        bool
}

// Controller is the Position Read Controller. One instance drives every
// cell lane of the Reader it is paired with, and — since it alone holds
// the state this timestep's addressing depends on, with no cache reads
// feeding back into it — also drives the per-cell oaddr bus that the
// paired Reader's cache inputs are addressed by. Keeping oaddr generation
// out of the Reader avoids a self-referential combinational path: the
// Reader reads the cache values those addresses produce, so it must not
// also be the one producing them.
type Controller struct {
	stateReg *wire.Register
	next     *wire.Logic

	readyIn *wire.Input
	dbIn    *wire.Input
	staleIn *wire.Input

	CellR        *wire.Output
	Addr         *wire.Output
	NewReference *wire.Output
	Done         *wire.Output

	cellOAddr []*wire.Output

	geo    particle.Geometry
	nCPar  int
	nPPar  int
	dbsize int
}

// NewController builds the controller for geo's universe of cells,
// stepping nCPar cells at a time and loading nPPar reference lanes per
// cell block, with dbsize the double-buffer half size (addr offset added
// when the active half is 1).
func NewController(f *wire.Fabric, name string, geo particle.Geometry, nCPar, nPPar, dbsize int) *Controller {
	c := &Controller{geo: geo, nCPar: nCPar, nPPar: nPPar, dbsize: dbsize}
	nCell := geo.NCell()

	c.stateReg = f.Add(wire.NewRegister(name + ".state")).(*wire.Register)
	c.next = f.Add(wire.NewLogic(name + ".next")).(*wire.Logic)

	stateIn := c.next.AddInput("state")
	c.readyIn = c.next.AddInput("ready")
	c.dbIn = c.next.AddInput("db")
	c.staleIn = c.next.AddInput("stale-reference")

	stateOut := c.next.AddOutput("state")
	cellROut := c.next.AddOutput("cell-r")
	addrOut := c.next.AddOutput("addr")
	newReferenceOut := c.next.AddOutput("new-reference")
	doneOut := c.next.AddOutput("done")

	c.cellOAddr = make([]*wire.Output, nCell)
	for i := 0; i < nCell; i++ {
		c.cellOAddr[i] = c.next.AddOutput("oaddr#" + strconv.Itoa(i))
	}

	wire.Connect(c.stateReg.O, stateIn)
	wire.Connect(stateOut, c.stateReg.I)

	c.CellR = cellROut
	c.Addr = addrOut
	c.NewReference = newReferenceOut
	c.Done = doneOut

	c.next.SetCompute(func() []wire.Value {
		s := controllerState{nextTimestep: true, newReference: noReference}
		if v := stateIn.Get(); !wire.IsNull(v) {
			s = wire.Payload[controllerState](v)
		}

		ready, _ := c.readyIn.Get().(bool)
		if !ready {
			s.nextTimestep = true
			s.cellR = 0
			return c.halt(s)
		}
		if s.cellR >= nCell {
			return c.halt(s)
		}

		db, _ := c.dbIn.Get().(int)
		staleReference, _ := c.staleIn.Get().(bool)
		addrOffset := 0
		if db != 0 {
			addrOffset = c.dbsize
		}

		if s.nextTimestep {
			staleReference = true
			s.newReference = 0
			s.addrR = addrOffset
			s.addrN = addrOffset
			s.stale = true
		}

		var addr int
		if s.newReference != noReference {
			if s.nextTimestep {
				s.nextTimestep = false
			} else {
				if !staleReference {
					s.stale = false
				}
				s.newReference++
			}

			if s.newReference == c.nPPar {
				if s.stale {
					s.cellR += c.nCPar
					if s.cellR >= nCell {
						return c.halt(s)
					}
					s.newReference = 0
					s.addrR = addrOffset
					s.stale = true
					addr = s.addrR
				} else {
					s.newReference = noReference
					s.stale = false
					addr = s.addrN
				}
			} else {
				addr = s.addrR + s.newReference
			}
		} else if staleReference {
			s.newReference = 0
			s.addrN = addrOffset
			s.addrR += c.nPPar
			addr = s.addrR
			s.stale = true
		} else {
			s.addrN++
			addr = s.addrN
		}

		newRef := wire.Value(wire.Null())
		neighborMode := s.newReference == noReference
		if !neighborMode {
			newRef = s.newReference
		}

		out := []wire.Value{
			s,
			s.cellR,
			addr,
			newRef,
			false,
		}
		return append(out, c.driveOAddr(s.cellR, addr, neighborMode)...)
	})

	return c
}

func (c *Controller) halt(s controllerState) []wire.Value {
	s.nextTimestep = true
	out := []wire.Value{
		s,
		wire.Null(),
		wire.Null(),
		wire.Null(),
		true,
	}
	return append(out, c.blankOAddr()...)
}

// blankOAddr produces an all-NULL oaddr bus, used whenever the controller
// has nothing to drive this cycle.
func (c *Controller) blankOAddr() []wire.Value {
	out := make([]wire.Value, len(c.cellOAddr))
	for i := range out {
		out[i] = wire.Null()
	}
	return out
}

// driveOAddr produces this cycle's per-cell oaddr bus: NULL everywhere
// except the cells this cycle's reference-load or neighbor-sweep actually
// touches, which are driven to addr. A sweep that has run past the end of
// the BRAM (every slot of a completely full half was occupied, so no read
// ever came back NULL) drives nothing; the resulting all-NULL reads
// register as stale and advance the sweep the same way an empty slot
// would have.
func (c *Controller) driveOAddr(cellR, addr int, neighborMode bool) []wire.Value {
	if addr >= 2*c.dbsize {
		return c.blankOAddr()
	}
	nCell := len(c.cellOAddr)
	out := make([]wire.Value, nCell)
	for i := range out {
		out[i] = wire.Null()
	}
	for lane := 0; lane < c.nCPar; lane++ {
		cell := cellR + lane
		if cell >= nCell {
			continue
		}
		if neighborMode {
			for _, nbr := range c.geo.Neighborhood(cell) {
				out[nbr] = addr
			}
		} else {
			out[cell] = addr
		}
	}
	return out
}

// Ready is the Input the owning control unit's phase1-ready output should
// drive.
func (c *Controller) Ready() *wire.Input { return c.readyIn }

// DB is the Input the owning control unit's double-buffer output should
// drive.
func (c *Controller) DB() *wire.Input { return c.dbIn }

// StaleReference is the Input the paired Reader's aggregate stale-
// reference output should drive.
func (c *Controller) StaleReference() *wire.Input { return c.staleIn }

// CellOAddr returns the Output driving cell i's cache oaddr bus (via that
// cell's phase-1-side CacheMux input).
func (c *Controller) CellOAddr(i int) *wire.Output { return c.cellOAddr[i] }
