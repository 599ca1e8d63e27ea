package wire_test

import "github.com/sarchlab/mdfabric/wire"

// stim is a test-only Logic block that replays a fixed sequence of values,
// one per Evaluate, holding NULL once the sequence is exhausted. It stands
// in for whatever upstream producer a real component would have.
type stim struct {
	*wire.Logic
	O *wire.Output

	seq []wire.Value
	pos int
}

func newStim(name string, seq []wire.Value) *stim {
	s := &stim{Logic: wire.NewLogic(name), seq: seq}
	s.O = s.AddOutput("o")
	s.SetCompute(func() []wire.Value {
		if s.pos >= len(s.seq) {
			return []wire.Value{wire.Null()}
		}
		v := s.seq[s.pos]
		s.pos++
		return []wire.Value{v}
	})
	return s
}
