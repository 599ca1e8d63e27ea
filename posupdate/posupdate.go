// Package posupdate implements phase 3's Position Update Controller and
// Updater: the clear-then-migrate sweep that moves every particle's
// integrated position into its new cell's write-half buffer, wrapping
// across the periodic boundary.
//
// The controller and updater are split for the same reason posread's
// are: the controller alone owns the sweep counter and produces the
// shared read address every cell's cache is read at this cycle, so it
// must not also be the one consuming those reads — that would read back
// a value this same Logic is still in the middle of producing. The
// updater does the opposite: it has no address of its own to generate,
// only the controller's sweep address and phase and the resulting
// per-cell cache reads, from which it keeps its own per-cell write
// queues and an independent one-dequeue-per-cell-per-cycle write sweep.
package posupdate

import (
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/wire"
)

// ErrBufferOverflow is panicked when more than dbsize particles migrate
// into one cell in one timestep, counting those already written to its
// write half and those still queued: the cell's double buffer has no room
// for them.
type ErrBufferOverflow struct {
	Cell  int
	Limit int
}

func (e *ErrBufferOverflow) Error() string {
	return fmt.Sprintf("posupdate: cell %d received more than %d migrating particles this timestep", e.Cell, e.Limit)
}

type subphase int

const (
	subphaseClear subphase = iota
	subphaseMigrate
)

// writeItem is a pending migration: a position that has already wrapped
// into the box, paired with its carried-through velocity, waiting for a
// free write-half slot in its destination cell's queue.
type writeItem struct {
	Pos particle.Vec
	Vel particle.Vec
}

// Controller sequences phase 3: dbsize cycles clearing the write half of
// every cell, then up to dbsize cycles sweeping the read half, handing
// each cycle's shared read address to the paired Updater. It halts once
// the sweep completes and the updater's per-cell queues (fed back through
// a Register, like posread's stale-reference) are all empty.
type Controller struct {
	stateReg *wire.Register
	next     *wire.Logic

	readyIn       *wire.Input
	dbIn          *wire.Input
	queuesEmptyIn *wire.Input

	SweepAddr *wire.Output
	Migrating *wire.Output
	Done      *wire.Output

	dbsize int
}

type controllerState struct {
	phase subphase
	sweep int
}

// NewController builds a phase-3 controller over a double buffer with
// dbsize slots per cell half.
func NewController(f *wire.Fabric, name string, dbsize int) *Controller {
	c := &Controller{dbsize: dbsize}

	c.stateReg = f.Add(wire.NewRegister(name + ".state")).(*wire.Register)
	c.next = f.Add(wire.NewLogic(name + ".next")).(*wire.Logic)

	stateIn := c.next.AddInput("state")
	c.readyIn = c.next.AddInput("ready")
	c.dbIn = c.next.AddInput("db")
	c.queuesEmptyIn = c.next.AddInput("queues-empty")

	stateOut := c.next.AddOutput("state")
	c.SweepAddr = c.next.AddOutput("sweep-addr")
	c.Migrating = c.next.AddOutput("migrating")
	c.Done = c.next.AddOutput("done")

	wire.Connect(c.stateReg.O, stateIn)
	wire.Connect(stateOut, c.stateReg.I)

	c.next.SetCompute(func() []wire.Value {
		s := controllerState{phase: subphaseClear}
		if v := stateIn.Get(); !wire.IsNull(v) {
			s = wire.Payload[controllerState](v)
		}

		ready, _ := c.readyIn.Get().(bool)
		if !ready {
			s = controllerState{phase: subphaseClear}
			return []wire.Value{s, wire.Null(), false, false}
		}

		db, _ := c.dbIn.Get().(int)
		writeOffset := 0
		if db == 0 {
			writeOffset = c.dbsize
		}

		switch s.phase {
		case subphaseClear:
			addr := writeOffset + s.sweep
			s.sweep++
			if s.sweep == c.dbsize {
				s.phase = subphaseMigrate
				s.sweep = 0
			}
			return []wire.Value{s, addr, false, false}

		default: // subphaseMigrate
			var addr wire.Value = wire.Null()
			if s.sweep < c.dbsize {
				readOffset := 0
				if db != 0 {
					readOffset = c.dbsize
				}
				addr = readOffset + s.sweep
				s.sweep++
			}

			queuesEmpty, _ := c.queuesEmptyIn.Get().(bool)
			done := wire.IsNull(addr) && queuesEmpty
			if done {
				s = controllerState{phase: subphaseClear}
			}
			return []wire.Value{s, addr, true, done}
		}
	})

	return c
}

// Ready is the Input the owning control unit's phase3-ready output should
// drive.
func (c *Controller) Ready() *wire.Input { return c.readyIn }

// DB is the Input the owning control unit's double-buffer output should
// drive.
func (c *Controller) DB() *wire.Input { return c.dbIn }

// QueuesEmpty is the Input the paired Updater's aggregate queue-empty
// output should drive, through a Register.
func (c *Controller) QueuesEmpty() *wire.Input { return c.queuesEmptyIn }

// Updater performs the actual clear writes and migration enqueue/dequeue
// against every cell, addressed by the paired Controller's sweep address
// and phase.
type Updater struct {
	logic *wire.Logic

	sweepAddrIn *wire.Input
	migratingIn *wire.Input
	dbIn        *wire.Input

	posIn []*wire.Input
	velIn []*wire.Input

	writeAddr []*wire.Output
	writePos  []*wire.Output
	writeVel  []*wire.Output
	QEmpty    *wire.Output

	geo    particle.Geometry
	dt     float64
	dbsize int

	queues        [][]writeItem
	nextWriteAddr []int
}

// NewUpdater builds a phase-3 updater over geo's universe of cells,
// integrating positions forward by dt and wrapping them into geo's box.
func NewUpdater(f *wire.Fabric, name string, geo particle.Geometry, dt float64, dbsize int) *Updater {
	nCell := geo.NCell()
	u := &Updater{
		geo: geo, dt: dt, dbsize: dbsize,
		queues:        make([][]writeItem, nCell),
		nextWriteAddr: make([]int, nCell),
	}

	u.logic = f.Add(wire.NewLogic(name)).(*wire.Logic)
	u.sweepAddrIn = u.logic.AddInput("sweep-addr")
	u.migratingIn = u.logic.AddInput("migrating")
	u.dbIn = u.logic.AddInput("db")

	u.posIn = make([]*wire.Input, nCell)
	u.velIn = make([]*wire.Input, nCell)
	u.writeAddr = make([]*wire.Output, nCell)
	u.writePos = make([]*wire.Output, nCell)
	u.writeVel = make([]*wire.Output, nCell)
	for cell := 0; cell < nCell; cell++ {
		u.posIn[cell] = u.logic.AddInput("pos#" + strconv.Itoa(cell))
		u.velIn[cell] = u.logic.AddInput("vel#" + strconv.Itoa(cell))
		u.writeAddr[cell] = u.logic.AddOutput("waddr#" + strconv.Itoa(cell))
		u.writePos[cell] = u.logic.AddOutput("wpos#" + strconv.Itoa(cell))
		u.writeVel[cell] = u.logic.AddOutput("wvel#" + strconv.Itoa(cell))
	}
	u.QEmpty = u.logic.AddOutput("qempty")
	u.logic.SetCompute(u.compute)

	return u
}

// SweepAddrIn, MigratingIn, and DBIn are the Inputs the owning
// Controller's matching outputs should drive.
func (u *Updater) SweepAddrIn() *wire.Input { return u.sweepAddrIn }
func (u *Updater) MigratingIn() *wire.Input { return u.migratingIn }
func (u *Updater) DBIn() *wire.Input        { return u.dbIn }

// PosIn and VelIn return the Inputs cell's read-half position and
// velocity cache outputs should drive, addressed by the paired
// Controller's SweepAddr.
func (u *Updater) PosIn(cell int) *wire.Input { return u.posIn[cell] }
func (u *Updater) VelIn(cell int) *wire.Input { return u.velIn[cell] }

// WriteAddr, WritePos, and WriteVel return the Outputs that drive cell's
// write-half cache, addressed independently of the controller's sweep
// once migration enqueues begin landing in cell's queue.
func (u *Updater) WriteAddr(cell int) *wire.Output { return u.writeAddr[cell] }
func (u *Updater) WritePos(cell int) *wire.Output  { return u.writePos[cell] }
func (u *Updater) WriteVel(cell int) *wire.Output  { return u.writeVel[cell] }

func (u *Updater) compute() []wire.Value {
	nCell := len(u.queues)

	migrating, _ := u.migratingIn.Get().(bool)
	db, _ := u.dbIn.Get().(int)
	writeOffset := 0
	if db == 0 {
		writeOffset = u.dbsize
	}

	if !migrating {
		addrVal := u.sweepAddrIn.Get()
		if wire.IsNull(addrVal) {
			return u.blank(nCell, true)
		}
		addr := wire.Payload[int](addrVal)
		if addr == writeOffset {
			for cell := range u.queues {
				u.queues[cell] = u.queues[cell][:0]
				u.nextWriteAddr[cell] = 0
			}
		}
		out := make([]wire.Value, 0, nCell*3+1)
		for cell := 0; cell < nCell; cell++ {
			out = append(out, addr, wire.Reset(), wire.Reset())
		}
		out = append(out, true)
		return out
	}

	sweepAddrVal := u.sweepAddrIn.Get()
	if !wire.IsNull(sweepAddrVal) {
		for cell := 0; cell < nCell; cell++ {
			posVal := u.posIn[cell].Get()
			velVal := u.velIn[cell].Get()
			if wire.IsNull(posVal) || wire.IsNull(velVal) {
				continue
			}

			pos := wire.Payload[particle.Vec](posVal)
			vel := wire.Payload[particle.Vec](velVal)
			next := u.geo.Wrap(r3.Add(pos, r3.Scale(u.dt, vel)))
			target := u.geo.CellFromPosition(next)

			if u.nextWriteAddr[target]+len(u.queues[target]) >= u.dbsize {
				panic(&ErrBufferOverflow{Cell: target, Limit: u.dbsize})
			}
			u.queues[target] = append(u.queues[target], writeItem{Pos: next, Vel: vel})
		}
	}

	out := make([]wire.Value, 0, nCell*3+1)
	empty := true
	for cell := 0; cell < nCell; cell++ {
		q := u.queues[cell]
		if len(q) == 0 {
			out = append(out, wire.Null(), wire.Null(), wire.Null())
			continue
		}
		empty = false
		item := q[0]
		u.queues[cell] = q[1:]
		addr := writeOffset + u.nextWriteAddr[cell]
		u.nextWriteAddr[cell]++
		out = append(out, addr, item.Pos, item.Vel)
	}
	out = append(out, empty)
	return out
}

func (u *Updater) blank(nCell int, empty bool) []wire.Value {
	out := make([]wire.Value, 0, nCell*3+1)
	for cell := 0; cell < nCell; cell++ {
		out = append(out, wire.Null(), wire.Null(), wire.Null())
	}
	out = append(out, empty)
	return out
}
