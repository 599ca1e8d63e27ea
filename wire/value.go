// Package wire implements the synchronous dataflow graph runtime the MD
// accelerator emulation is built on: wires carrying a sentinel or a
// payload, registers and block RAMs that break combinational cycles, and
// pipelined logic blocks, all clocked by a single Fabric.
//
// There is exactly one clock domain and no event queue: a Fabric advances by
// one cycle at a time, evaluating every unit on demand and deferring
// register/BRAM writes to an edge-triggered phase at the end of the cycle.
package wire

import "fmt"

// sentinel is the type of the two reserved wire values, NULL and RESET.
type sentinel int

const (
	sentinelNull sentinel = iota
	sentinelReset
)

func (s sentinel) String() string {
	if s == sentinelNull {
		return "NULL"
	}
	return "RESET"
}

// Value is whatever a single wire carries during one cycle: the NULL
// sentinel (no data), the RESET sentinel (clear the addressed storage), or
// a payload. A nil Value and NULL are the same thing; use Null() to produce
// it and IsNull to test for it so call sites never compare against a raw
// nil by accident.
type Value interface{}

// Null is the canonical "no data this cycle" wire value.
func Null() Value { return sentinelNull }

// Reset is the canonical "clear this slot" wire value.
func Reset() Value { return sentinelReset }

// IsNull reports whether v is the NULL sentinel (or unset/nil).
func IsNull(v Value) bool {
	return v == nil || v == Value(sentinelNull)
}

// IsReset reports whether v is the RESET sentinel.
func IsReset(v Value) bool {
	return v == Value(sentinelReset)
}

// Payload extracts a typed payload from a Value, panicking with a
// descriptive message if v is NULL, RESET, or the wrong type — these are
// all wiring bugs, not recoverable conditions, per the fabric's fatal
// error-handling design.
func Payload[T any](v Value) T {
	if IsNull(v) {
		panic("wire: expected payload, got NULL")
	}
	if IsReset(v) {
		panic("wire: expected payload, got RESET")
	}
	p, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("wire: expected payload of type %T, got %T", *new(T), v))
	}
	return p
}
