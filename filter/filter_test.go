package filter_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/mdfabric/filter"
	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/wire"
)

// valStim drives a fixed sequence of wire.Value onto its output, holding
// the last entry once exhausted.
type valStim struct {
	*wire.Logic
	O *wire.Output

	seq []wire.Value
	pos int
}

func newValStim(name string, seq ...wire.Value) *valStim {
	s := &valStim{Logic: wire.NewLogic(name), seq: seq}
	s.O = s.AddOutput("o")
	s.SetCompute(func() []wire.Value {
		v := s.seq[len(s.seq)-1]
		if s.pos < len(s.seq) {
			v = s.seq[s.pos]
			s.pos++
		}
		return []wire.Value{v}
	})
	return s
}

type hookFunc func(ctx sim.HookCtx)

func (h hookFunc) Func(ctx sim.HookCtx) { h(ctx) }

var _ = Describe("Filter", func() {
	geo := particle.Geometry{UniverseSize: 1, Cutoff: 10, BSize: 4}
	const cutoff = 2.5

	var (
		f   *wire.Fabric
		ft  *filter.Filter
		ref *valStim
		nbr *valStim
	)

	setup := func(refSeq, nbrSeq []wire.Value) {
		f = wire.NewFabric()
		ft = filter.NewFilter(f, "ft", geo, cutoff, 0, 0, 0)
		ref = newValStim("ref", refSeq...)
		nbr = newValStim("nbr", nbrSeq...)
		f.Add(ref)
		f.Add(nbr)
		wire.Connect(ref.O, ft.Reference)
		wire.Connect(nbr.O, ft.Neighbor)
	}

	It("emits NULL when either input is NULL", func() {
		setup(
			[]wire.Value{wire.Null()},
			[]wire.Value{particle.NewPosition(particle.Vec{X: 1}, particle.Origin{Cell: 0, Addr: 1})},
		)
		f.Clock()
		Expect(wire.IsNull(ft.O.Get())).To(BeTrue())
	})

	It("emits NULL for a self-pair sharing an origin", func() {
		p := particle.NewPosition(particle.Vec{X: 1}, particle.Origin{Cell: 0, Addr: 0})
		setup([]wire.Value{p}, []wire.Value{p})
		f.Clock()
		Expect(wire.IsNull(ft.O.Get())).To(BeTrue())
	})

	It("emits NULL for distinct particles at or beyond cutoff", func() {
		r := particle.NewPosition(particle.Vec{}, particle.Origin{Cell: 0, Addr: 0})
		n := particle.NewPosition(particle.Vec{X: cutoff}, particle.Origin{Cell: 0, Addr: 1})
		setup([]wire.Value{r}, []wire.Value{n})
		f.Clock()
		Expect(wire.IsNull(ft.O.Get())).To(BeTrue())
	})

	It("admits a distinct pair within cutoff and invokes the admission hook", func() {
		r := particle.NewPosition(particle.Vec{}, particle.Origin{Cell: 0, Addr: 0})
		n := particle.NewPosition(particle.Vec{X: 1}, particle.Origin{Cell: 0, Addr: 1})
		setup([]wire.Value{r}, []wire.Value{n})

		var seen filter.PairAdmittedEvent
		invoked := false
		ft.AcceptHook(hookFunc(func(ctx sim.HookCtx) {
			invoked = true
			seen = ctx.Item.(filter.PairAdmittedEvent)
		}))

		f.Clock()
		pair := wire.Payload[filter.Pair](ft.O.Get())
		Expect(pair.Reference).To(Equal(r))
		Expect(pair.Neighbor).To(Equal(n))
		Expect(invoked).To(BeTrue())
		Expect(seen.Pair).To(Equal(pair))
	})

	It("panics on coincident distinct particles", func() {
		r := particle.NewPosition(particle.Vec{X: 3}, particle.Origin{Cell: 0, Addr: 0})
		n := particle.NewPosition(particle.Vec{X: 3}, particle.Origin{Cell: 0, Addr: 1})
		setup([]wire.Value{r}, []wire.Value{n})
		Expect(func() { f.Clock() }).To(Panic())
	})

	It("delays admission by its pipeline depth", func() {
		f = wire.NewFabric()
		ft = filter.NewFilter(f, "ft", geo, cutoff, 0, 0, 2)
		r := particle.NewPosition(particle.Vec{}, particle.Origin{Cell: 0, Addr: 0})
		n := particle.NewPosition(particle.Vec{X: 1}, particle.Origin{Cell: 0, Addr: 1})
		ref = newValStim("ref", r)
		nbr = newValStim("nbr", n)
		f.Add(ref)
		f.Add(nbr)
		wire.Connect(ref.O, ft.Reference)
		wire.Connect(nbr.O, ft.Neighbor)

		f.Clock()
		Expect(wire.IsNull(ft.O.Get())).To(BeTrue())
		f.Clock()
		Expect(wire.IsNull(ft.O.Get())).To(BeTrue())
		f.Clock()
		Expect(wire.IsNull(ft.O.Get())).To(BeFalse())
	})
})
