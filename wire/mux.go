package wire

import "fmt"

// NullConst drives NULL on its output every cycle.
type NullConst struct {
	*Logic
	O *Output
}

// NewNullConst creates a NullConst logic block.
func NewNullConst(name string) *NullConst {
	c := &NullConst{Logic: NewLogic(name)}
	c.O = c.AddOutput("o")
	c.SetCompute(func() []Value { return []Value{Null()} })
	return c
}

// ResetConst drives RESET on its output every cycle.
type ResetConst struct {
	*Logic
	O *Output
}

// NewResetConst creates a ResetConst logic block.
func NewResetConst(name string) *ResetConst {
	c := &ResetConst{Logic: NewLogic(name)}
	c.O = c.AddOutput("o")
	c.SetCompute(func() []Value { return []Value{Reset()} })
	return c
}

// And computes the logical AND of n boolean inputs, treating NULL as
// false. It is used to build composite "done"/"empty" signals such as
// `filters_empty` or `almost_done` from several component status wires.
type And struct {
	*Logic
	I []*Input
	O *Output
}

// NewAnd creates an And gate over n inputs.
func NewAnd(name string, n int) *And {
	a := &And{Logic: NewLogic(name)}
	a.I = make([]*Input, n)
	for i := range a.I {
		a.I[i] = a.AddInput(fmt.Sprintf("i%d", i))
	}
	a.O = a.AddOutput("o")
	a.SetCompute(func() []Value {
		result := true
		for _, in := range a.I {
			v := in.Get()
			if IsNull(v) || v == false {
				result = false
			}
		}
		return []Value{result}
	})
	return a
}
