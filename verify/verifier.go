package verify

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/mdfabric/control"
	"github.com/sarchlab/mdfabric/filter"
	"github.com/sarchlab/mdfabric/force"
	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/wire"
)

// Verifier subscribes to the hooks force.Pipeline, filter.Filter, and
// control.Unit already expose and cross-checks a live run against the
// pair evaluations and position updates an independent recomputation
// says it owes. It never drives the fabric; it only observes it. Violations
// are accumulated rather than raised immediately, since a hook callback
// has nowhere to return an error to — call Errors after a run (or after
// each timestep, from a control-unit hook on phase-1 entry) to inspect them.
type Verifier struct {
	geo          particle.Geometry
	cutoff       float64
	errTolerance float64

	nParticle int

	pCaches []*wire.BRAM
	dbsize  int

	filterExpect   ExpectSet
	pipelineExpect ExpectSet

	errs []error
}

// NewVerifier builds a Verifier over the given geometry and the position
// BRAMs it should scan at each phase boundary. nParticle is the count
// CheckConservation holds every snapshot to.
func NewVerifier(geo particle.Geometry, cutoff, errTolerance float64, nParticle int, pCaches []*wire.BRAM, dbsize int) *Verifier {
	return &Verifier{
		geo: geo, cutoff: cutoff, errTolerance: errTolerance,
		nParticle: nParticle, pCaches: pCaches, dbsize: dbsize,
	}
}

// Errors returns every violation accumulated so far. An empty result does
// not mean the run is correct beyond what was actually exercised — it
// means no subscribed hook observed a deviation.
func (v *Verifier) Errors() []error { return v.errs }

// CheckPositions matches a set of expected positions (typically computed
// by DirectStep against a parallel reference integration a caller keeps
// outside the Verifier, since the Verifier itself only has access to the
// position BRAMs, not velocity) against the positions actually found in
// the fabric, within this Verifier's configured error tolerance.
func (v *Verifier) CheckPositions(want, actual []particle.Vec) error {
	return MatchPositions(v.geo, want, actual, v.errTolerance)
}

func (v *Verifier) record(err error) { v.errs = append(v.errs, err) }

// AttachControl subscribes the verifier to a control.Unit's phase-boundary
// hooks.
func (v *Verifier) AttachControl(u *control.Unit) {
	u.AcceptHook(hookFunc(func(ctx sim.HookCtx) {
		ev, ok := ctx.Item.(control.EnterPhaseEvent)
		if !ok {
			return
		}
		switch ev.Phase {
		case control.Phase1:
			v.onEnterPhase1(ev)
		case control.Phase3:
			v.onEnterPhase3(ev)
		}
	}))
}

// AttachFilter subscribes the verifier to one filter.Filter's admission
// hook.
func (v *Verifier) AttachFilter(ft *filter.Filter) {
	ft.AcceptHook(hookFunc(func(ctx sim.HookCtx) {
		ev, ok := ctx.Item.(filter.PairAdmittedEvent)
		if !ok {
			return
		}
		v.onPairAdmitted(ev.Pair)
	}))
}

// AttachPipeline subscribes the verifier to one force.Pipeline's
// pair-consumed hook.
func (v *Verifier) AttachPipeline(p *force.Pipeline) {
	p.AcceptHook(hookFunc(func(ctx sim.HookCtx) {
		ev, ok := ctx.Item.(force.PairConsumedEvent)
		if !ok {
			return
		}
		v.onPairConsumed(ev.Pair)
	}))
}

func (v *Verifier) onEnterPhase1(ev control.EnterPhaseEvent) {
	occupants := ScanActiveHalf(v.pCaches, ev.DoubleBuffer, v.dbsize)
	if err := CheckConservation(v.nParticle, occupants); err != nil {
		v.record(fmt.Errorf("t=%d: %w", ev.Timestep, err))
	}
	if err := CheckResidency(v.geo, occupants); err != nil {
		v.record(fmt.Errorf("t=%d: %w", ev.Timestep, err))
	}
	v.filterExpect, v.pipelineExpect = BuildExpectSets(v.geo, v.cutoff, occupants)
}

func (v *Verifier) onEnterPhase3(ev control.EnterPhaseEvent) {
	if len(v.filterExpect) != 0 {
		v.record(fmt.Errorf("t=%d: %d pair(s) never reached a filter: %v",
			ev.Timestep, len(v.filterExpect), identSample(v.filterExpect)))
	}
	if len(v.pipelineExpect) != 0 {
		v.record(fmt.Errorf("t=%d: %d pair ordering(s) never consumed by the force pipeline: %v",
			ev.Timestep, len(v.pipelineExpect), identSample(v.pipelineExpect)))
	}
}

func (v *Verifier) onPairAdmitted(pair filter.Pair) {
	id := v.geo.PairIdent(pair.Reference.Origin, pair.Neighbor.Origin)
	if !v.filterExpect.Drain(id) {
		v.record(fmt.Errorf("verify: filter admitted unexpected pair %s -> %s",
			pair.Reference.Origin, pair.Neighbor.Origin))
	}
}

func (v *Verifier) onPairConsumed(pair filter.Pair) {
	id := v.geo.PairIdent(pair.Reference.Origin, pair.Neighbor.Origin)
	revID := v.geo.PairIdent(pair.Neighbor.Origin, pair.Reference.Origin)
	if !v.pipelineExpect.Drain(id) {
		v.record(fmt.Errorf("verify: force pipeline consumed unexpected pair %s -> %s",
			pair.Reference.Origin, pair.Neighbor.Origin))
	}
	if !v.pipelineExpect.Drain(revID) {
		v.record(fmt.Errorf("verify: force pipeline consumed pair %s -> %s without its reverse ordering pending",
			pair.Reference.Origin, pair.Neighbor.Origin))
	}
}

func identSample(s ExpectSet) []int {
	out := make([]int, 0, len(s))
	for id := range s {
		out = append(out, id)
		if len(out) == 5 {
			break
		}
	}
	return out
}

// hookFunc adapts a plain function to sim.Hook, the way the fabric's own
// packages would if they ever needed an anonymous hook rather than a named
// type; the verifier is the only caller that needs this since it is the
// one component that is purely an observer.
type hookFunc func(sim.HookCtx)

func (f hookFunc) Func(ctx sim.HookCtx) { f(ctx) }
