package wire

import "fmt"

// CacheMux multiplexes a set of ports (named by prefix, e.g. "i", "iaddr",
// "oaddr") across a fixed set of phase identifiers, keyed by a per-phase
// ready signal. Exactly one ready signal must be asserted at a time; if
// none is, every output is driven NULL. This is the static routing that
// replaces dynamic dispatch between the fixed three-phase schedule: there
// is no runtime plugin mechanism, just a tagged switch over a statically
// known set of phases.
type CacheMux struct {
	*Logic

	readys   map[string]*Input
	sources  map[string][]*Input // per-phase, one Input per prefix, in prefix order
	outputs  []*Output           // one per prefix, in prefix order
	phases   []string
	prefixes []string
}

// NewCacheMux creates a mux with one ready+port-bundle Input group per
// phase in phases, and one Output per prefix in prefixes.
func NewCacheMux(name string, phases []string, prefixes []string) *CacheMux {
	m := &CacheMux{
		Logic:    NewLogic(name),
		readys:   make(map[string]*Input, len(phases)),
		sources:  make(map[string][]*Input, len(phases)),
		phases:   append([]string(nil), phases...),
		prefixes: append([]string(nil), prefixes...),
	}

	for _, phase := range phases {
		m.readys[phase] = m.AddInput(phase + "-ready")
		ins := make([]*Input, len(prefixes))
		for i, prefix := range prefixes {
			ins[i] = m.AddInput(fmt.Sprintf("%s-%s", prefix, phase))
		}
		m.sources[phase] = ins
	}

	m.outputs = make([]*Output, len(prefixes))
	for i, prefix := range prefixes {
		m.outputs[i] = m.AddOutput(prefix)
	}

	m.SetCompute(m.compute)
	return m
}

// Ready returns the ready-signal Input for the given phase, to be driven
// by the control unit.
func (m *CacheMux) Ready(phase string) *Input { return m.readys[phase] }

// Source returns the Input for the given (phase, prefix) pair, to be
// connected to the phase-specific producer of that port.
func (m *CacheMux) Source(phase, prefix string) *Input {
	ins := m.sources[phase]
	for i, p := range m.prefixes {
		if p == prefix {
			return ins[i]
		}
	}
	panic(fmt.Sprintf("wire: CacheMux %s has no prefix %q", m.Name(), prefix))
}

// Output returns the muxed Output for the given prefix.
func (m *CacheMux) Output(prefix string) *Output {
	for i, p := range m.prefixes {
		if p == prefix {
			return m.outputs[i]
		}
	}
	panic(fmt.Sprintf("wire: CacheMux %s has no prefix %q", m.Name(), prefix))
}

func (m *CacheMux) compute() []Value {
	var active string
	readyCount := 0
	for _, phase := range m.phases {
		if v := m.readys[phase].Get(); v == true {
			active = phase
			readyCount++
		}
	}
	if readyCount > 1 {
		panic(fmt.Sprintf("wire: CacheMux %s has more than one phase ready in the same cycle", m.Name()))
	}

	out := make([]Value, len(m.prefixes))
	if readyCount == 0 {
		for i := range out {
			out[i] = Null()
		}
		return out
	}

	for i, in := range m.sources[active] {
		out[i] = in.Get()
	}
	return out
}
