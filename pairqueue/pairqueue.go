// Package pairqueue implements the Pair Queue: a FIFO that absorbs every
// pair a filter bank admits in a given cycle and drains at most one pair
// per cycle into the force pipeline, so a burst of several simultaneous
// admissions never stalls the filter bank itself.
package pairqueue

import (
	"strconv"

	"github.com/sarchlab/mdfabric/filter"
	"github.com/sarchlab/mdfabric/wire"
)

// Queue is one pipeline column's pair queue.
type Queue struct {
	logic *wire.Logic

	I      []*wire.Input
	O      *wire.Output
	QEmpty *wire.Output

	queue []filter.Pair
}

// NewQueue builds a queue with one Input per half-shell slot of the
// paired filter bank.
func NewQueue(f *wire.Fabric, name string) *Queue {
	q := &Queue{}

	q.logic = f.Add(wire.NewLogic(name)).(*wire.Logic)
	q.I = make([]*wire.Input, filter.NFilter)
	for i := range q.I {
		q.I[i] = q.logic.AddInput("i#" + strconv.Itoa(i))
	}
	q.O = q.logic.AddOutput("o")
	q.QEmpty = q.logic.AddOutput("qempty")
	q.logic.SetCompute(q.compute)

	return q
}

// Input returns the Input that half-shell slot i's filter output should
// drive.
func (q *Queue) Input(i int) *wire.Input { return q.I[i] }

func (q *Queue) compute() []wire.Value {
	for _, in := range q.I {
		v := in.Get()
		if !wire.IsNull(v) {
			q.queue = append(q.queue, wire.Payload[filter.Pair](v))
		}
	}

	empty := len(q.queue) == 0
	var out wire.Value = wire.Null()
	if !empty {
		out = q.queue[0]
		q.queue = q.queue[1:]
	}

	return []wire.Value{out, empty}
}
