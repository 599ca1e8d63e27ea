// Package force implements the force pipeline: the capped Lennard-Jones
// pairwise force evaluated on an admitted pair, turned into an
// antisymmetric pair of particle-update fragments, and the pipeline
// reader that coalesces those fragments back into one stream per
// reference particle.
package force

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/mdfabric/filter"
	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/wire"
)

// Fragments is what a Pipeline emits for one admitted pair: the force
// applied to the reference particle and its Newton's-third-law negation
// applied to the neighbor, each tagged with the originating particle's
// origin and the pipeline's configured Kind.
type Fragments struct {
	Reference particle.Transit
	Neighbor  particle.Transit
}

// HookPosPairConsumed marks the cycle a Pipeline turns an admitted pair
// into a Fragments pair. The verifier subscribes here to drain both
// orderings of the pair out of its pipeline expect set, since Newton's
// third law means a single admitted (reference, neighbor) pair discharges
// the obligation for both (reference, neighbor) and (neighbor, reference).
var HookPosPairConsumed = &sim.HookPos{Name: "Force Pipeline Pair Consumed"}

// PairConsumedEvent is the HookCtx.Item delivered when a Pipeline consumes
// an admitted pair.
type PairConsumedEvent struct {
	Pair      filter.Pair
	Fragments Fragments
}

// Pipeline is one pipeline column's force stage, pipelined stages deep.
// It is generic over Kind and scale so it serves both the default
// direct-to-velocity path (Kind=Velocity, scale=DT, folding the
// integration step directly into the emitted fragment) and the
// alternate acceleration-cache variant (Kind=Acceleration, scale=1,
// mass implicitly 1).
type Pipeline struct {
	sim.HookableBase

	logic *wire.Logic

	I *wire.Input
	O *wire.Output

	geo            particle.Geometry
	epsilon, sigma float64
	scale          float64
	kind           particle.Kind
}

// NewPipeline builds a force pipeline reading admitted filter.Pair values
// from a pair queue.
func NewPipeline(f *wire.Fabric, name string, geo particle.Geometry, epsilon, sigma, scale float64, kind particle.Kind, stages int) *Pipeline {
	p := &Pipeline{HookableBase: *sim.NewHookableBase(), geo: geo, epsilon: epsilon, sigma: sigma, scale: scale, kind: kind}

	p.logic = f.Add(wire.NewLogic(name)).(*wire.Logic)
	p.I = p.logic.AddInput("i")
	p.O = p.logic.AddOutput("o")
	p.logic.AddEmptyOutput()
	p.logic.Pipeline(stages)
	p.logic.SetCompute(p.compute)

	return p
}

// Empty reports whether this pipeline currently holds no in-flight
// fragment pair.
func (p *Pipeline) Empty() *wire.Output { return p.logic.Empty() }

func (p *Pipeline) compute() []wire.Value {
	v := p.I.Get()
	if wire.IsNull(v) {
		return []wire.Value{wire.Null()}
	}

	pair := wire.Payload[filter.Pair](v)
	f := particle.LJForce(pair.Reference.Vec, pair.Neighbor.Vec, p.geo.L(), p.epsilon, p.sigma)
	scaled := r3.Scale(p.scale, f)

	ref := particle.Transit{Origin: pair.Reference.Origin, Kind: p.kind, Vec: scaled}
	nbr := particle.Transit{Origin: pair.Neighbor.Origin, Kind: p.kind, Vec: r3.Scale(-1, scaled)}
	frags := Fragments{Reference: ref, Neighbor: nbr}

	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    HookPosPairConsumed,
		Item:   PairConsumedEvent{Pair: pair, Fragments: frags},
	})

	return []wire.Value{frags}
}
