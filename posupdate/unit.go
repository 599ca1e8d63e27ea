package posupdate

import (
	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/wire"
)

// Unit pairs a Controller with its Updater and the Register that carries
// the updater's aggregate queue-empty verdict back to the controller:
// that feedback has to cross an edge-triggered element for the same
// reason posread's stale-reference does — the controller's halt decision
// depends on last cycle's drain result, not on a verdict the updater is
// still computing this same cycle from the sweep address the controller
// is driving this same cycle.
type Unit struct {
	Controller *Controller
	Updater    *Updater

	queuesEmptyReg *wire.Register
}

// NewUnit builds a fully cross-wired Controller+Updater pair over geo's
// universe of cells. Callers still need to connect Ready()/DB() to the
// owning control unit and, for every cell, PosIn/VelIn to that cell's
// read-half position/velocity cache outputs and WriteAddr/WritePos/
// WriteVel to that cell's write-half cache inputs.
func NewUnit(f *wire.Fabric, name string, geo particle.Geometry, dt float64, dbsize int) *Unit {
	u := &Unit{}
	u.Controller = NewController(f, name+".controller", dbsize)
	u.Updater = NewUpdater(f, name+".updater", geo, dt, dbsize)
	u.queuesEmptyReg = f.Add(wire.NewRegister(name + ".queues-empty")).(*wire.Register)

	wire.Connect(u.Controller.SweepAddr, u.Updater.SweepAddrIn())
	wire.Connect(u.Controller.Migrating, u.Updater.MigratingIn())
	wire.Connect(u.Updater.QEmpty, u.queuesEmptyReg.I)
	wire.Connect(u.queuesEmptyReg.O, u.Controller.QueuesEmpty())

	return u
}

// Ready is the Input the owning control unit's phase3-ready output should
// drive.
func (u *Unit) Ready() *wire.Input { return u.Controller.Ready() }

// ConnectDB fans the owning control unit's double-buffer output out to
// both the controller and the updater, which each need to know which
// half is active this timestep independently.
func (u *Unit) ConnectDB(o *wire.Output) {
	wire.Connect(o, u.Controller.DB())
	wire.Connect(o, u.Updater.DBIn())
}

// Done is the aggregate phase-3 done signal the owning control unit's
// phase3-done input should be connected to.
func (u *Unit) Done() *wire.Output { return u.Controller.Done }

// PosIn and VelIn return the Inputs cell's read-half position and
// velocity cache outputs should drive.
func (u *Unit) PosIn(cell int) *wire.Input { return u.Updater.PosIn(cell) }
func (u *Unit) VelIn(cell int) *wire.Input { return u.Updater.VelIn(cell) }

// WriteAddr, WritePos, and WriteVel return the Outputs that drive cell's
// write-half cache.
func (u *Unit) WriteAddr(cell int) *wire.Output { return u.Updater.WriteAddr(cell) }
func (u *Unit) WritePos(cell int) *wire.Output  { return u.Updater.WritePos(cell) }
func (u *Unit) WriteVel(cell int) *wire.Output  { return u.Updater.WriteVel(cell) }
