// Package velocity implements the per-cell fragment scoreboard and
// read-add-writeback updater that phase 1 uses to fold force-pipeline
// output back into a cache: the default direct-to-velocity path adds
// straight into v_cache, and the alternate explicit acceleration-cache
// variant (accel.go) reuses the same Controller/Updater shape against
// a_cache, followed by a separate phase-2 integrator.
package velocity

import (
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/wire"
)

// Controller drains nPipeline upstream fragment streams into nCell
// per-cell FIFOs (keyed by each fragment's origin cell) and emits at
// most one fragment per cell per cycle, paired with the address it
// belongs at.
type Controller struct {
	logic *wire.Logic

	I      []*wire.Input
	oaddr  []*wire.Output
	o      []*wire.Output
	QEmpty *wire.Output

	nCell  int
	queues [][]particle.Transit
}

// NewController builds a controller draining nPipeline fragment streams
// across nCell cells.
func NewController(f *wire.Fabric, name string, nPipeline, nCell int) *Controller {
	c := &Controller{nCell: nCell, queues: make([][]particle.Transit, nCell)}

	c.logic = f.Add(wire.NewLogic(name)).(*wire.Logic)
	c.I = make([]*wire.Input, nPipeline)
	for i := range c.I {
		c.I[i] = c.logic.AddInput("i#" + strconv.Itoa(i))
	}
	c.oaddr = make([]*wire.Output, nCell)
	c.o = make([]*wire.Output, nCell)
	for cell := 0; cell < nCell; cell++ {
		c.oaddr[cell] = c.logic.AddOutput("oaddr#" + strconv.Itoa(cell))
		c.o[cell] = c.logic.AddOutput("o#" + strconv.Itoa(cell))
	}
	c.QEmpty = c.logic.AddOutput("qempty")
	c.logic.SetCompute(c.compute)

	return c
}

// Input returns the Input the i-th upstream pipeline reader's output
// should drive.
func (c *Controller) Input(i int) *wire.Input { return c.I[i] }

// OAddr returns the Output driving cell's cache read/write address this
// cycle, or NULL if no fragment is queued for that cell.
func (c *Controller) OAddr(cell int) *wire.Output { return c.oaddr[cell] }

// Fragment returns the Output carrying the fragment queued for cell this
// cycle, or NULL.
func (c *Controller) Fragment(cell int) *wire.Output { return c.o[cell] }

func (c *Controller) compute() []wire.Value {
	for _, in := range c.I {
		v := in.Get()
		if wire.IsNull(v) {
			continue
		}
		frag := wire.Payload[particle.Transit](v)
		c.queues[frag.Origin.Cell] = append(c.queues[frag.Origin.Cell], frag)
	}

	out := make([]wire.Value, 0, c.nCell*2+1)
	qempty := true
	for cell := 0; cell < c.nCell; cell++ {
		q := c.queues[cell]
		if len(q) == 0 {
			out = append(out, wire.Null(), wire.Null())
			continue
		}
		qempty = false
		frag := q[0]
		c.queues[cell] = q[1:]
		out = append(out, frag.Origin.Addr, wire.Value(frag))
	}
	out = append(out, qempty)

	return out
}

// Updater performs the read-add-writeback at each cell addressed by a
// paired Controller: NULL fragment writes back NULL (no change), a
// fragment against an empty cache slot writes back the fragment's raw
// vector, and a fragment against an occupied slot writes back their sum.
type Updater struct {
	logic *wire.Logic

	fragment []*wire.Input
	cacheIn  []*wire.Input
	o        []*wire.Output

	nCell int
}

// NewUpdater builds an updater over nCell cells. Fragment(cell) should be
// driven by the paired Controller.Fragment(cell); CacheIn(cell) should be
// driven by that cell's cache read output at Controller.OAddr(cell).
func NewUpdater(f *wire.Fabric, name string, nCell int) *Updater {
	u := &Updater{nCell: nCell}

	u.logic = f.Add(wire.NewLogic(name)).(*wire.Logic)
	u.fragment = make([]*wire.Input, nCell)
	u.cacheIn = make([]*wire.Input, nCell)
	u.o = make([]*wire.Output, nCell)
	for cell := 0; cell < nCell; cell++ {
		u.fragment[cell] = u.logic.AddInput("fragment#" + strconv.Itoa(cell))
		u.cacheIn[cell] = u.logic.AddInput("ai#" + strconv.Itoa(cell))
		u.o[cell] = u.logic.AddOutput("ao#" + strconv.Itoa(cell))
	}
	u.logic.SetCompute(u.compute)

	return u
}

// Fragment returns the Input the paired Controller.Fragment(cell) output
// should drive.
func (u *Updater) Fragment(cell int) *wire.Input { return u.fragment[cell] }

// CacheIn returns the Input that cell's cache read output should drive.
func (u *Updater) CacheIn(cell int) *wire.Input { return u.cacheIn[cell] }

// Out returns the Output carrying the value to write back to cell's cache
// at Controller.OAddr(cell), or NULL if nothing is being written this
// cycle.
func (u *Updater) Out(cell int) *wire.Output { return u.o[cell] }

func (u *Updater) compute() []wire.Value {
	out := make([]wire.Value, u.nCell)
	for cell := 0; cell < u.nCell; cell++ {
		fragVal := u.fragment[cell].Get()
		if wire.IsNull(fragVal) {
			out[cell] = wire.Null()
			continue
		}
		frag := wire.Payload[particle.Transit](fragVal)

		cur := u.cacheIn[cell].Get()
		if wire.IsNull(cur) {
			out[cell] = frag.Vec
		} else {
			out[cell] = r3.Add(wire.Payload[particle.Vec](cur), frag.Vec)
		}
	}
	return out
}

// Unit pairs a Controller with its Updater, wiring the controller's
// per-cell fragment directly into the updater so callers only need to
// connect the upstream pipeline readers and the per-cell cache.
type Unit struct {
	Controller *Controller
	Updater    *Updater
}

// NewUnit builds a fully cross-wired Controller+Updater pair over nCell
// cells, draining nPipeline upstream fragment streams.
func NewUnit(f *wire.Fabric, name string, nPipeline, nCell int) *Unit {
	u := &Unit{}
	u.Controller = NewController(f, name+".controller", nPipeline, nCell)
	u.Updater = NewUpdater(f, name+".updater", nCell)

	for cell := 0; cell < nCell; cell++ {
		wire.Connect(u.Controller.Fragment(cell), u.Updater.Fragment(cell))
	}

	return u
}

// Input returns the Input the i-th upstream pipeline reader's output
// should drive.
func (u *Unit) Input(i int) *wire.Input { return u.Controller.Input(i) }

// OAddr returns the Output that should drive cell's cache read/write
// address.
func (u *Unit) OAddr(cell int) *wire.Output { return u.Controller.OAddr(cell) }

// CacheIn returns the Input that cell's cache read output should drive.
func (u *Unit) CacheIn(cell int) *wire.Input { return u.Updater.CacheIn(cell) }

// WriteOut returns the Output carrying the value to write back to cell's
// cache.
func (u *Unit) WriteOut(cell int) *wire.Output { return u.Updater.Out(cell) }

// QEmpty is the aggregate "no fragment queued anywhere" status, one of
// the conjuncts of a compute pipeline's almost-done signal.
func (u *Unit) QEmpty() *wire.Output { return u.Controller.QEmpty }
