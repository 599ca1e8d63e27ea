package force

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/wire"
)

// Reader is the Pipeline Reader: it receives one Fragments pair per cycle
// from a Pipeline and coalesces consecutive fragments destined for the
// same reference origin into a single accumulated fragment, since a
// reference particle stays resident at the head of the pipeline across
// several consecutive neighbor admissions. It emits at most one fragment
// per cycle from its internal queue, oldest first.
type Reader struct {
	logic *wire.Logic

	I          *wire.Input
	AlmostDone *wire.Input
	O          *wire.Output
	Done       *wire.Output

	reference *particle.Transit
	queue     []particle.Transit
}

// NewReader builds a pipeline reader. AlmostDone should be connected to
// the aggregate "every upstream stage has drained" signal: the reader's
// held reference fragment is flushed to its queue when a fragment for a
// different reference arrives or once that signal asserts, since until
// then a later cycle's admission for the same reference could still be in
// flight.
func NewReader(f *wire.Fabric, name string) *Reader {
	r := &Reader{}

	r.logic = f.Add(wire.NewLogic(name)).(*wire.Logic)
	r.I = r.logic.AddInput("i")
	r.AlmostDone = r.logic.AddInput("almost-done")
	r.O = r.logic.AddOutput("o")
	r.Done = r.logic.AddOutput("done")
	r.logic.SetCompute(r.compute)

	return r
}

func (r *Reader) compute() []wire.Value {
	v := r.I.Get()
	almostDone, _ := r.AlmostDone.Get().(bool)

	if r.reference != nil && almostDone {
		r.queue = append(r.queue, *r.reference)
		r.reference = nil
	}

	if !wire.IsNull(v) {
		frags := wire.Payload[Fragments](v)
		switch {
		case r.reference == nil:
			ref := frags.Reference
			r.reference = &ref
		case frags.Reference.Origin != r.reference.Origin:
			r.queue = append(r.queue, *r.reference)
			ref := frags.Reference
			r.reference = &ref
		default:
			r.reference.Vec = r3.Add(r.reference.Vec, frags.Reference.Vec)
		}
		r.queue = append(r.queue, frags.Neighbor)
	}

	done := len(r.queue) == 0 && almostDone

	var out wire.Value = wire.Null()
	if len(r.queue) != 0 {
		out = r.queue[0]
		r.queue = r.queue[1:]
	}

	return []wire.Value{out, done}
}
