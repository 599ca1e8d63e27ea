package wire

import "fmt"

// BRAM is a block-RAM primitive: a single write port and a single read
// port over a fixed-size slot array. The read side is combinational with
// respect to OAddr; the write side is edge-triggered, matching a
// synthesizable single-port BRAM.
type BRAM struct {
	guard

	I     *Input
	IAddr *Input
	O     *Output
	OAddr *Input

	contents []Value
}

// NewBRAM creates a BRAM with size slots, all initially NULL.
func NewBRAM(name string, size int) *BRAM {
	b := &BRAM{guard: guard{name: name}, contents: make([]Value, size)}
	for i := range b.contents {
		b.contents[i] = Null()
	}
	b.I = newInput(name + ".i")
	b.IAddr = newInput(name + ".iaddr")
	b.OAddr = newInput(name + ".oaddr")
	b.O = newOutput(name+".o", b.Evaluate)
	return b
}

// Size returns the number of addressable slots.
func (b *BRAM) Size() int { return len(b.contents) }

// Name returns the BRAM's diagnostic name.
func (b *BRAM) Name() string { return b.guard.name }

// Evaluate drives O from contents[OAddr], or NULL if OAddr is NULL.
func (b *BRAM) Evaluate() {
	if !b.enter() {
		return
	}
	defer b.exit()

	oaddr := b.OAddr.Get()
	if IsNull(oaddr) {
		b.O.Set(Null())
		return
	}
	addr := oaddr.(int)
	b.mustBeInRange(addr)
	b.O.Set(b.contents[addr])
}

// CommitWrite performs the edge-triggered store: if IAddr and I are both
// non-NULL, the addressed slot is overwritten (RESET maps to NULL).
func (b *BRAM) CommitWrite() {
	i := b.I.Get()
	iaddr := b.IAddr.Get()
	if IsNull(i) || IsNull(iaddr) {
		return
	}
	addr := iaddr.(int)
	b.mustBeInRange(addr)
	if IsReset(i) {
		b.contents[addr] = Null()
		return
	}
	b.contents[addr] = i
}

func (b *BRAM) mustBeInRange(addr int) {
	if addr < 0 || addr >= len(b.contents) {
		panic(fmt.Sprintf("wire: %s addressed out of range: %d (size %d)", b.guard.name, addr, len(b.contents)))
	}
}

// ResetCycle clears the per-cycle evaluation cache.
func (b *BRAM) ResetCycle() {
	b.guard.resetCycle()
	b.O.resetCycle()
}

// Inputs returns the BRAM's input ports (i, iaddr, oaddr).
func (b *BRAM) Inputs() []*Input { return []*Input{b.I, b.IAddr, b.OAddr} }

// Outputs returns the BRAM's single output port.
func (b *BRAM) Outputs() []*Output { return []*Output{b.O} }

// Peek reads a slot directly without going through the wire graph. It is
// meant for the verification harness and tests, which need to inspect BRAM
// contents without perturbing the clocked simulation.
func (b *BRAM) Peek(addr int) Value {
	b.mustBeInRange(addr)
	return b.contents[addr]
}

// PokeForTest directly seeds a slot, bypassing the clocked write path. It
// exists solely so tests and the seed initializer can set up starting
// state before the first clock.
func (b *BRAM) PokeForTest(addr int, v Value) {
	b.mustBeInRange(addr)
	b.contents[addr] = v
}
