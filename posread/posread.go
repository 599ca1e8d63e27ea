package posread

import (
	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/wire"
)

// Unit pairs a Controller with its Reader and the Register that carries
// the reader's stale-reference verdict back to the controller. That
// feedback has to cross an edge-triggered element: the controller's next
// state depends on last cycle's stale-reference result, not on a verdict
// the reader is still computing this same cycle from addresses the
// controller is driving this same cycle.
type Unit struct {
	Controller *Controller
	Reader     *Reader

	staleReg *wire.Register
}

// NewUnit builds a fully cross-wired Controller+Reader pair. Callers still
// need to connect Ready()/DB() to the owning control unit and, for every
// cell, Controller.CellOAddr(i)/Reader.CellInput(i) to that cell's cache
// (mediated by a CacheMux for the two phase-1 oaddr consumers).
func NewUnit(f *wire.Fabric, name string, geo particle.Geometry, nCPar, nPPar, dbsize int) *Unit {
	u := &Unit{}
	u.Controller = NewController(f, name+".controller", geo, nCPar, nPPar, dbsize)
	u.Reader = NewReader(f, name+".reader", geo, nCPar, nPPar)
	u.staleReg = f.Add(wire.NewRegister(name + ".stale-reference")).(*wire.Register)

	wire.Connect(u.Controller.CellR, u.Reader.CellRIn())
	wire.Connect(u.Controller.Addr, u.Reader.AddrIn())
	wire.Connect(u.Controller.NewReference, u.Reader.NewReferenceIn())
	wire.Connect(u.Reader.StaleReference, u.staleReg.I)
	wire.Connect(u.staleReg.O, u.Controller.StaleReference())

	return u
}

// Ready is the Input the owning control unit's phase1-ready output should
// drive.
func (u *Unit) Ready() *wire.Input { return u.Controller.Ready() }

// DB is the Input the owning control unit's double-buffer output should
// drive.
func (u *Unit) DB() *wire.Input { return u.Controller.DB() }

// Done is the position read controller's own done signal. It is one term
// of the phase-1 done aggregate: the fabric ANDs it with the other phase-1
// units' done signals and the registered phase-1 ready before it reaches
// the control unit's phase1-done input.
func (u *Unit) Done() *wire.Output { return u.Controller.Done }

// CellOAddr returns the Output driving cell i's cache oaddr bus.
func (u *Unit) CellOAddr(i int) *wire.Output { return u.Controller.CellOAddr(i) }

// CellInput returns the Input that cell i's cache output should drive.
func (u *Unit) CellInput(i int) *wire.Input { return u.Reader.CellInput(i) }
