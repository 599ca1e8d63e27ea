package velocity

import (
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/wire"
)

// Phase2Controller sequences the acceleration-cache variant's second
// phase: a lock-step sweep of one address across every cell per cycle,
// from 0, terminating once the paired Phase2Updater reports every cell's
// acceleration slot at the current address was empty.
type Phase2Controller struct {
	logic *wire.Logic

	Ready       *wire.Input
	UpdaterDone *wire.Input
	OAddr       *wire.Output
	Done        *wire.Output

	addr int
}

// NewPhase2Controller builds a phase-2 controller.
func NewPhase2Controller(f *wire.Fabric, name string) *Phase2Controller {
	c := &Phase2Controller{}

	c.logic = f.Add(wire.NewLogic(name)).(*wire.Logic)
	c.Ready = c.logic.AddInput("ready")
	c.UpdaterDone = c.logic.AddInput("updater-done")
	c.OAddr = c.logic.AddOutput("oaddr")
	c.Done = c.logic.AddOutput("done")
	c.logic.SetCompute(c.compute)

	return c
}

func (c *Phase2Controller) compute() []wire.Value {
	ready, _ := c.Ready.Get().(bool)
	if !ready {
		return []wire.Value{wire.Null(), wire.Null()}
	}

	if done, _ := c.UpdaterDone.Get().(bool); done {
		c.addr = 0
		return []wire.Value{wire.Null(), true}
	}

	addr := c.addr
	c.addr++
	return []wire.Value{addr, false}
}

// Phase2Updater integrates v += a·DT in lock-step across every cell at
// the address the paired Phase2Controller is currently driving. A cell
// whose acceleration slot reads NULL at that address is left untouched,
// and the updater reports Done once every cell was NULL this cycle. A
// cell that did have an acceleration value emits RESET for that cell's
// acceleration slot, clearing it so the next timestep's phase 1 starts
// from an empty accumulator.
type Phase2Updater struct {
	logic *wire.Logic

	a      []*wire.Input
	vi     []*wire.Input
	vo     []*wire.Output
	aClear []*wire.Output
	Done   *wire.Output

	nCell int
	dt    float64
}

// NewPhase2Updater builds a phase-2 updater over nCell cells, integrating
// with step size dt.
func NewPhase2Updater(f *wire.Fabric, name string, nCell int, dt float64) *Phase2Updater {
	u := &Phase2Updater{nCell: nCell, dt: dt}

	u.logic = f.Add(wire.NewLogic(name)).(*wire.Logic)
	u.a = make([]*wire.Input, nCell)
	u.vi = make([]*wire.Input, nCell)
	u.vo = make([]*wire.Output, nCell)
	u.aClear = make([]*wire.Output, nCell)
	for cell := 0; cell < nCell; cell++ {
		u.a[cell] = u.logic.AddInput("a#" + strconv.Itoa(cell))
		u.vi[cell] = u.logic.AddInput("vi#" + strconv.Itoa(cell))
		u.vo[cell] = u.logic.AddOutput("vo#" + strconv.Itoa(cell))
		u.aClear[cell] = u.logic.AddOutput("aclear#" + strconv.Itoa(cell))
	}
	u.Done = u.logic.AddOutput("done")
	u.logic.SetCompute(u.compute)

	return u
}

// A returns the Input that cell's acceleration cache read output (at the
// paired Phase2Controller's address) should drive.
func (u *Phase2Updater) A(cell int) *wire.Input { return u.a[cell] }

// VIn returns the Input that cell's velocity cache read output should
// drive.
func (u *Phase2Updater) VIn(cell int) *wire.Input { return u.vi[cell] }

// VOut returns the Output carrying the integrated velocity to write back
// to cell's velocity cache, or NULL if that cell had no acceleration this
// cycle.
func (u *Phase2Updater) VOut(cell int) *wire.Output { return u.vo[cell] }

// AClear returns the Output that clears cell's acceleration cache slot
// (RESET) once consumed, or NULL if nothing was consumed this cycle.
func (u *Phase2Updater) AClear(cell int) *wire.Output { return u.aClear[cell] }

func (u *Phase2Updater) compute() []wire.Value {
	out := make([]wire.Value, 0, u.nCell*2+1)
	done := true

	for cell := 0; cell < u.nCell; cell++ {
		aVal := u.a[cell].Get()
		if wire.IsNull(aVal) {
			out = append(out, wire.Null(), wire.Null())
			continue
		}
		done = false

		acc := wire.Payload[particle.Vec](aVal)
		vi := particle.Vec{}
		if viVal := u.vi[cell].Get(); !wire.IsNull(viVal) {
			vi = wire.Payload[particle.Vec](viVal)
		}
		vo := r3.Add(vi, r3.Scale(u.dt, acc))
		out = append(out, vo, wire.Reset())
	}

	out = append(out, done)
	return out
}
