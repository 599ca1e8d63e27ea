package force_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mdfabric/force"
	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/wire"
)

type seqStim struct {
	*wire.Logic
	O *wire.Output

	seq []wire.Value
	pos int
}

func newSeqStim(name string, seq ...wire.Value) *seqStim {
	s := &seqStim{Logic: wire.NewLogic(name), seq: seq}
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

var _ = Describe("Reader", func() {
	aOrigin := particle.Origin{Cell: 0, Addr: 0}
	bOrigin := particle.Origin{Cell: 0, Addr: 1}
	cOrigin := particle.Origin{Cell: 0, Addr: 2}

	frag := func(origin particle.Origin, x float64) particle.Transit {
		return particle.NewAcceleration(particle.Vec{X: x}, origin)
	}

	It("accumulates consecutive same-reference fragments and queues the rest", func() {
		f := wire.NewFabric()
		r := force.NewReader(f, "reader")

		iSeq := newSeqStim("i",
			force.Fragments{Reference: frag(aOrigin, 1.0), Neighbor: frag(bOrigin, -1.0)},
			force.Fragments{Reference: frag(aOrigin, 2.0), Neighbor: frag(cOrigin, -2.0)},
			wire.Null(),
			wire.Null(),
		)
		adSeq := newSeqStim("almost-done", false, false, true, true)
		f.Add(iSeq)
		f.Add(adSeq)
		wire.Connect(iSeq.O, r.I)
		wire.Connect(adSeq.O, r.AlmostDone)

		f.Clock() // reference A opens, neighbor B queued and drained this cycle
		Expect(wire.Payload[particle.Transit](r.O.Get())).To(Equal(frag(bOrigin, -1.0)))
		Expect(r.Done.Get()).To(Equal(wire.Value(false)))

		f.Clock() // second A fragment accumulates into the held reference; C drains
		Expect(wire.Payload[particle.Transit](r.O.Get())).To(Equal(frag(cOrigin, -2.0)))
		Expect(r.Done.Get()).To(Equal(wire.Value(false)))

		f.Clock() // almost-done flushes the accumulated A fragment into the queue and drains it
		got := wire.Payload[particle.Transit](r.O.Get())
		Expect(got.Origin).To(Equal(aOrigin))
		Expect(got.Vec.X).To(Equal(3.0))
		Expect(r.Done.Get()).To(Equal(wire.Value(false)))

		f.Clock() // queue empty and almost-done still asserted: done
		Expect(wire.IsNull(r.O.Get())).To(BeTrue())
		Expect(r.Done.Get()).To(Equal(wire.Value(true)))
	})
})
