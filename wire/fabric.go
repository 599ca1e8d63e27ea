package wire

import (
	"context"
	"fmt"
	"log/slog"
)

// Fabric owns every Unit in a synchronous dataflow graph and clocks them
// together. There is exactly one clock domain: Clock performs one rising
// edge. Units are evaluated on demand (reading an Input forces its
// producer to run), edge-triggered writes commit in registration order,
// and per-cycle evaluation state is cleared before the next Clock call.
type Fabric struct {
	units     []Unit
	validated bool
	cycle     int
}

// NewFabric creates an empty Fabric.
func NewFabric() *Fabric {
	return &Fabric{}
}

// Add registers a Unit with the fabric and returns it unchanged, so
// construction can be written as `x := f.Add(wire.NewRegister("x")).(*wire.Register)`
// or, more commonly, as a thin typed wrapper that calls Add internally.
func (f *Fabric) Add(u Unit) Unit {
	f.units = append(f.units, u)
	f.validated = false
	return u
}

// Cycle returns the number of completed Clock calls.
func (f *Fabric) Cycle() int { return f.cycle }

// Clock advances the fabric by exactly one cycle: clear the previous
// cycle's cached evaluation state, evaluate every unit, then commit
// edge-triggered writes in registration order. Clearing up front, rather
// than after committing writes, leaves every Output holding its just-
// computed value after Clock returns — callers can freely inspect any
// wire between clock edges without forcing a spurious re-evaluation of
// a stateful producer (a stimulus, a pipeline counter) that has already
// run its course for this cycle. Wiring errors (dangling inputs,
// double-set outputs, unresolved combinational cycles) are fatal and
// reported with a diagnostic identifying the offending unit.
func (f *Fabric) Clock() {
	if !f.validated {
		f.mustValidate()
	}

	for _, u := range f.units {
		u.ResetCycle()
	}
	for _, u := range f.units {
		u.Evaluate()
	}
	for _, u := range f.units {
		u.CommitWrite()
	}

	f.cycle++
	slog.Log(context.Background(), LevelTrace, "fabric clocked", "cycle", f.cycle)
}

// mustValidate checks that every Input registered with the fabric is
// connected. It is a static structural check only — combinational cycles
// and double-set outputs surface at the first Clock call that exercises
// them, since they depend on runtime evaluation order.
func (f *Fabric) mustValidate() {
	var dangling []string
	for _, u := range f.units {
		for _, i := range u.Inputs() {
			if !i.Connected() {
				dangling = append(dangling, i.Name())
			}
		}
	}
	if len(dangling) > 0 {
		panic(fmt.Sprintf("wire: dangling inputs at fabric validation: %v", dangling))
	}
	f.validated = true
}

// LevelTrace is a custom slog level above Info, used for per-cycle
// internals (each clock edge, filter admission). Because it sits above
// Info, a handler at the default Info level emits these records.
const LevelTrace = slog.LevelInfo + 1
