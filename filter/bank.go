package filter

import (
	"strconv"

	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/wire"
)

// Bank is one pipeline column's full half-shell filter bank: NFilter
// filters, one per half-shell slot, sharing a single reference particle
// but each reading its own neighbor slot. The reference Input of every
// filter is exposed separately rather than merged into one shared port,
// since wiring a single upstream Output to all NFilter filters is just an
// ordinary fan-out Connect the caller performs once per filter.
type Bank struct {
	filters []*Filter
	Empty   *wire.Output
}

// NewBank builds a bank for pipeline lane `lane`, pipelined stages deep.
func NewBank(f *wire.Fabric, name string, geo particle.Geometry, cutoff float64, lane, stages int) *Bank {
	b := &Bank{filters: make([]*Filter, NFilter)}
	for i := range b.filters {
		b.filters[i] = NewFilter(f, name+".filter#"+strconv.Itoa(i), geo, cutoff, lane, i, stages)
	}

	and := f.Add(wire.NewAnd(name+".filters-empty", NFilter)).(*wire.And)
	for i, ft := range b.filters {
		wire.Connect(ft.Empty(), and.I[i])
	}
	b.Empty = and.O

	return b
}

// ReferenceInput returns the reference Input of half-shell slot i. The
// caller connects the same reference-producing Output to every slot.
func (b *Bank) ReferenceInput(i int) *wire.Input { return b.filters[i].Reference }

// NeighborInput returns the neighbor Input of half-shell slot i.
func (b *Bank) NeighborInput(i int) *wire.Input { return b.filters[i].Neighbor }

// Output returns the Output of half-shell slot i: NULL or an admitted
// Pair.
func (b *Bank) Output(i int) *wire.Output { return b.filters[i].O }

// Filter returns the underlying Filter for half-shell slot i, mainly so
// tests and the verifier can subscribe to its hooks directly.
func (b *Bank) Filter(i int) *Filter { return b.filters[i] }
