package filter_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mdfabric/filter"
	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/wire"
)

var _ = Describe("Bank", func() {
	geo := particle.Geometry{UniverseSize: 1, Cutoff: 10, BSize: 4}
	const cutoff = 2.5

	It("reports filters-empty only once every filter's pipeline has drained", func() {
		f := wire.NewFabric()
		b := filter.NewBank(f, "bank", geo, cutoff, 0, 1)

		ref := newValStim("ref", particle.NewPosition(particle.Vec{}, particle.Origin{Cell: 0, Addr: 0}))
		f.Add(ref)
		for i := 0; i < filter.NFilter; i++ {
			wire.Connect(ref.O, b.ReferenceInput(i))
		}
		nbr0 := newValStim("nbr0",
			particle.NewPosition(particle.Vec{X: 1}, particle.Origin{Cell: 0, Addr: 1}),
			wire.Null(), wire.Null())
		f.Add(nbr0)
		wire.Connect(nbr0.O, b.NeighborInput(0))
		for i := 1; i < filter.NFilter; i++ {
			null := newValStim("nbrnull#"+string(rune('a'+i)), wire.Null())
			f.Add(null)
			wire.Connect(null.O, b.NeighborInput(i))
		}

		f.Clock() // slot 0 computes its admission, not yet visible (pipeline depth 1)
		Expect(b.Empty.Get()).To(Equal(wire.Value(false)))

		f.Clock() // admission now visible on slot 0's output; it has already left the pipeline
		Expect(wire.IsNull(b.Output(0).Get())).To(BeFalse())
		Expect(b.Empty.Get()).To(Equal(wire.Value(true)))
	})
})
