package verify_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/verify"
	"github.com/sarchlab/mdfabric/wire"
)

var _ = Describe("ScanHalf", func() {
	It("collects only occupied slots within the given address range", func() {
		b0 := wire.NewBRAM("c0", 8)
		b1 := wire.NewBRAM("c1", 8)
		b0.PokeForTest(1, particle.Vec{X: 1})
		b0.PokeForTest(5, particle.Vec{X: 5})
		b1.PokeForTest(1, particle.Vec{X: 11})

		occ := verify.ScanHalf([]*wire.BRAM{b0, b1}, 0, 4)
		Expect(occ).To(ConsistOf(
			verify.Occupant{Origin: particle.Origin{Cell: 0, Addr: 1}, Pos: particle.Vec{X: 1}},
			verify.Occupant{Origin: particle.Origin{Cell: 1, Addr: 1}, Pos: particle.Vec{X: 11}},
		))

		occHigh := verify.ScanHalf([]*wire.BRAM{b0, b1}, 4, 4)
		Expect(occHigh).To(ConsistOf(
			verify.Occupant{Origin: particle.Origin{Cell: 0, Addr: 5}, Pos: particle.Vec{X: 5}},
		))
	})

	It("selects the low or high half by the active double-buffer bit", func() {
		b0 := wire.NewBRAM("c0", 8)
		b0.PokeForTest(0, particle.Vec{X: 1})
		b0.PokeForTest(4, particle.Vec{X: 2})

		Expect(verify.ScanActiveHalf([]*wire.BRAM{b0}, 0, 4)).To(HaveLen(1))
		Expect(verify.ScanActiveHalf([]*wire.BRAM{b0}, 1, 4)).To(HaveLen(1))
	})
})

var _ = Describe("CellPositions", func() {
	It("groups occupants back into cell-linear order", func() {
		occ := []verify.Occupant{
			{Origin: particle.Origin{Cell: 1, Addr: 3}, Pos: particle.Vec{X: 3}},
			{Origin: particle.Origin{Cell: 1, Addr: 1}, Pos: particle.Vec{X: 1}},
			{Origin: particle.Origin{Cell: 0, Addr: 0}, Pos: particle.Vec{X: 0}},
		}
		out := verify.CellPositions(2, occ)
		Expect(out[0]).To(Equal([]particle.Vec{{X: 0}}))
		Expect(out[1]).To(Equal([]particle.Vec{{X: 1}, {X: 3}}))
	})
})
