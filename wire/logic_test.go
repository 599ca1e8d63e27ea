package wire_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mdfabric/wire"
)

// doubler is a minimal unpipelined Logic block used to exercise the
// compute/SetCompute contract directly.
type doubler struct {
	*wire.Logic
	I *wire.Input
	O *wire.Output
}

func newDoubler(name string) *doubler {
	d := &doubler{Logic: wire.NewLogic(name)}
	d.I = d.AddInput("i")
	d.O = d.AddOutput("o")
	d.SetCompute(func() []wire.Value {
		v := d.I.Get()
		if wire.IsNull(v) {
			return []wire.Value{wire.Null()}
		}
		return []wire.Value{wire.Payload[int](v) * 2}
	})
	return d
}

var _ = Describe("Logic", func() {
	var f *wire.Fabric

	BeforeEach(func() {
		f = wire.NewFabric()
	})

	It("is transparent (zero-latency) by default", func() {
		d := f.Add(newDoubler("d")).(*doubler)
		s := newStim("s", []wire.Value{21})
		f.Add(s)
		wire.Connect(s.O, d.I)

		f.Clock()
		Expect(d.O.Get()).To(Equal(wire.Value(42)))
	})

	It("delays visibility by the declared pipeline depth", func() {
		d := newDoubler("d")
		d.Pipeline(2)
		f.Add(d)
		s := newStim("s", []wire.Value{1, 2, 3})
		f.Add(s)
		wire.Connect(s.O, d.I)

		f.Clock()
		Expect(wire.IsNull(d.O.Get())).To(BeTrue())
		f.Clock()
		Expect(wire.IsNull(d.O.Get())).To(BeTrue())
		f.Clock()
		Expect(d.O.Get()).To(Equal(wire.Value(2)))
	})

	It("reports empty only when nothing is in flight", func() {
		d := newDoubler("d")
		d.Pipeline(1)
		empty := d.AddEmptyOutput()
		f.Add(d)
		s := newStim("s", []wire.Value{7})
		f.Add(s)
		wire.Connect(s.O, d.I)

		f.Clock()
		Expect(empty.Get()).To(BeFalse())
		f.Clock()
		Expect(empty.Get()).To(BeTrue())
	})

	It("panics if compute returns the wrong number of outputs", func() {
		d := wire.NewLogic("bad")
		d.AddOutput("a")
		d.AddOutput("b")
		d.SetCompute(func() []wire.Value { return []wire.Value{1} })
		f.Add(d)

		Expect(func() { f.Clock() }).To(Panic())
	})

	It("panics if no compute function was installed", func() {
		d := wire.NewLogic("uncomputed")
		d.AddOutput("a")
		f.Add(d)

		Expect(func() { f.Clock() }).To(Panic())
	})
})
