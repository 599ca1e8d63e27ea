// Package control implements the Control Unit that sequences one MD
// timestep through its phases, toggling the double-buffer bit and
// invoking verification handlers at each phase boundary.
package control

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/mdfabric/wire"
)

// Phase identifies one serialized stage of a timestep.
type Phase int

const (
	Phase1 Phase = iota // force evaluation
	Phase3              // position update / migration
)

func (p Phase) String() string {
	switch p {
	case Phase1:
		return "phase1"
	case Phase3:
		return "phase3"
	default:
		return fmt.Sprintf("control.Phase(%d)", int(p))
	}
}

// HookPosEnterPhase1 marks the cycle the unit transitions into phase 1.
var HookPosEnterPhase1 = &sim.HookPos{Name: "Control Enter Phase 1"}

// HookPosEnterPhase3 marks the cycle the unit transitions into phase 3.
var HookPosEnterPhase3 = &sim.HookPos{Name: "Control Enter Phase 3"}

// EnterPhaseEvent is the HookCtx.Item delivered when the control unit
// enters a phase: the new phase, the timestep it belongs to, and the
// double-buffer bit that will be active for reads during that phase.
type EnterPhaseEvent struct {
	Phase        Phase
	Timestep     int
	DoubleBuffer int
}

// Unit is the Control Unit: a small state machine over {Phase1, Phase3}
// driven entirely by the `done` wires of the phase it is currently in. Its
// `phaseN_ready` outputs are registered, so any feedback from a phase's
// `done` wire back to its own `ready` input passes through an
// edge-triggered element, as every cycle in the fabric must.
type Unit struct {
	sim.HookableBase

	next *wire.Logic

	phase1Done *wire.Input
	phase3Done *wire.Input

	stateReg       *wire.Register // holds the current Phase as a payload
	phase1ReadyReg *wire.Register
	phase3ReadyReg *wire.Register
	dbReg          *wire.Register // holds the active double-buffer bit (0 or 1)

	Phase1Ready *wire.Output
	Phase3Ready *wire.Output
	DB          *wire.Output

	timestep     int
	doubleBuffer int
	started      bool
}

// NewUnit builds the Control Unit and registers its internal units with f.
// Callers connect Phase1Done/Phase3Done to the relevant phase's aggregate
// "done" wire, and read Phase1Ready/Phase3Ready to gate every component
// belonging to that phase.
func NewUnit(f *wire.Fabric, name string) *Unit {
	u := &Unit{HookableBase: *sim.NewHookableBase()}

	u.stateReg = f.Add(wire.NewRegister(name + ".state")).(*wire.Register)
	u.phase1ReadyReg = f.Add(wire.NewRegister(name + ".phase1-ready")).(*wire.Register)
	u.phase3ReadyReg = f.Add(wire.NewRegister(name + ".phase3-ready")).(*wire.Register)
	u.dbReg = f.Add(wire.NewRegister(name + ".db")).(*wire.Register)
	u.Phase1Ready = u.phase1ReadyReg.O
	u.Phase3Ready = u.phase3ReadyReg.O
	u.DB = u.dbReg.O

	u.next = f.Add(wire.NewLogic(name + ".next")).(*wire.Logic)
	stateIn := u.next.AddInput("state")
	dbIn := u.next.AddInput("db")
	u.phase1Done = u.next.AddInput("phase1-done")
	u.phase3Done = u.next.AddInput("phase3-done")
	stateOut := u.next.AddOutput("state")
	p1ReadyOut := u.next.AddOutput("phase1-ready")
	p3ReadyOut := u.next.AddOutput("phase3-ready")
	dbOut := u.next.AddOutput("db")

	wire.Connect(u.stateReg.O, stateIn)
	wire.Connect(u.dbReg.O, dbIn)
	wire.Connect(stateOut, u.stateReg.I)
	wire.Connect(p1ReadyOut, u.phase1ReadyReg.I)
	wire.Connect(p3ReadyOut, u.phase3ReadyReg.I)
	wire.Connect(dbOut, u.dbReg.I)

	u.next.SetCompute(func() []wire.Value {
		state := Phase1
		if v := stateIn.Get(); !wire.IsNull(v) {
			state = wire.Payload[Phase](v)
		}
		db := 0
		if v := dbIn.Get(); !wire.IsNull(v) {
			db = wire.Payload[int](v)
		}
		if !u.started {
			u.started = true
			u.enterPhase(Phase1)
		}

		p1Done, _ := u.phase1Done.Get().(bool)
		p3Done, _ := u.phase3Done.Get().(bool)

		next := state
		switch state {
		case Phase1:
			if p1Done {
				next = Phase3
				u.enterPhase(Phase3)
			}
		case Phase3:
			if p3Done {
				db = 1 - db
				u.doubleBuffer = db
				u.timestep++
				next = Phase1
				u.enterPhase(Phase1)
			}
		}

		return []wire.Value{
			wire.Value(next),
			next == Phase1,
			next == Phase3,
			db,
		}
	})

	return u
}

// Phase1Done exposes the Input the force-evaluation phase's aggregate done
// signal should be connected to.
func (u *Unit) Phase1Done() *wire.Input { return u.phase1Done }

// Phase3Done exposes the Input the position-update phase's aggregate done
// signal should be connected to.
func (u *Unit) Phase3Done() *wire.Input { return u.phase3Done }

// Timestep returns the current timestep counter. It is only meaningful
// after the first clock: the initial state (timestep 0, phase 1) is
// established the moment the fabric starts clocking, not at construction.
func (u *Unit) Timestep() int { return u.timestep }

// DoubleBuffer returns the active double-buffer bit (0 or 1): which half
// of every BRAM is being read this timestep.
func (u *Unit) DoubleBuffer() int { return u.doubleBuffer }

func (u *Unit) enterPhase(p Phase) {
	pos := HookPosEnterPhase1
	if p == Phase3 {
		pos = HookPosEnterPhase3
	}
	u.InvokeHook(sim.HookCtx{
		Domain: u,
		Pos:    pos,
		Item: EnterPhaseEvent{
			Phase:        p,
			Timestep:     u.timestep,
			DoubleBuffer: u.doubleBuffer,
		},
	})
}
