// Package filter implements the particle filter bank: the half-shell
// distance and identity tests that decide which (reference, neighbor)
// candidate pairs are worth handing to the force pipeline.
package filter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/wire"
)

// NFilter is the half-shell neighborhood size: the cell itself plus its
// 13 N3L-selected neighbors, the fixed width of one filter bank.
const NFilter = 14

// Pair is what an admitted filter hands downstream: a reference/neighbor
// particle pair within cutoff, ready for the force pipeline.
type Pair struct {
	Reference particle.Transit
	Neighbor  particle.Transit
}

// HookPosPairAdmitted marks the cycle a filter emits a non-NULL Pair.
var HookPosPairAdmitted = &sim.HookPos{Name: "Filter Pair Admitted"}

// PairAdmittedEvent is the HookCtx.Item delivered on admission.
type PairAdmittedEvent struct {
	Lane int // which pipeline column's bank this filter belongs to
	Slot int // which half-shell slot within the bank
	Pair Pair
}

// Filter is a single half-shell slot's test, pipelined FilterPipelineStages
// deep. Each cycle: NULL if either input is NULL, NULL if the two inputs
// share an origin (self-interaction), NULL if both lie in the same cell and
// the pair fails the N3L ordering, NULL if the minimum-image distance is at
// or beyond cutoff, else the admitted Pair. A distance of exactly zero
// between distinct particles is a modeling error, not a valid
// configuration, and is fatal.
type Filter struct {
	sim.HookableBase

	logic *wire.Logic

	Reference *wire.Input
	Neighbor  *wire.Input
	O         *wire.Output

	geo    particle.Geometry
	cutoff float64
	lane   int
	slot   int
}

// NewFilter builds one filter at half-shell slot `slot` of pipeline lane
// `lane`.
func NewFilter(f *wire.Fabric, name string, geo particle.Geometry, cutoff float64, lane, slot, stages int) *Filter {
	ft := &Filter{HookableBase: *sim.NewHookableBase(), geo: geo, cutoff: cutoff, lane: lane, slot: slot}

	ft.logic = f.Add(wire.NewLogic(name)).(*wire.Logic)
	ft.Reference = ft.logic.AddInput("reference")
	ft.Neighbor = ft.logic.AddInput("neighbor")
	ft.O = ft.logic.AddOutput("o")
	ft.logic.AddEmptyOutput()
	ft.logic.Pipeline(stages)
	ft.logic.SetCompute(ft.compute)

	return ft
}

// Empty reports whether this filter currently holds no in-flight admitted
// pair anywhere in its pipeline.
func (ft *Filter) Empty() *wire.Output { return ft.logic.Empty() }

func (ft *Filter) compute() []wire.Value {
	refVal := ft.Reference.Get()
	nbrVal := ft.Neighbor.Get()
	if wire.IsNull(refVal) || wire.IsNull(nbrVal) {
		return []wire.Value{wire.Null()}
	}

	reference := wire.Payload[particle.Transit](refVal)
	neighbor := wire.Payload[particle.Transit](nbrVal)
	if reference.Origin == neighbor.Origin {
		return []wire.Value{wire.Null()}
	}

	d := particle.ModR(reference.Vec, neighbor.Vec, ft.geo.L())
	dist := r3.Norm(d)
	if dist == 0 {
		panic(fmt.Sprintf("filter: %s: coincident distinct %s particles %s %s",
			ft.logic.Name(), reference.Kind.Title(), reference.Origin, neighbor.Origin))
	}
	if reference.Origin.Cell == neighbor.Origin.Cell &&
		!particle.N3L(reference.Vec, neighbor.Vec, ft.geo.L()) {
		return []wire.Value{wire.Null()}
	}
	if dist >= ft.cutoff {
		return []wire.Value{wire.Null()}
	}

	pair := Pair{Reference: reference, Neighbor: neighbor}
	ft.InvokeHook(sim.HookCtx{
		Domain: ft,
		Pos:    HookPosPairAdmitted,
		Item:   PairAdmittedEvent{Lane: ft.lane, Slot: ft.slot, Pair: pair},
	})
	slog.Log(context.Background(), wire.LevelTrace, "filter admitted pair",
		"filter", ft.logic.Name(), "reference", reference.Origin, "neighbor", neighbor.Origin)

	return []wire.Value{pair}
}
