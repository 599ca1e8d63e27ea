package verify_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/verify"
)

var _ = Describe("ExpectSet", func() {
	It("drains a present ident exactly once", func() {
		s := verify.NewExpectSet(1, 2, 3)
		Expect(s.Drain(2)).To(BeTrue())
		Expect(s.Drain(2)).To(BeFalse())
		Expect(s).To(HaveLen(2))
	})
})

var _ = Describe("BuildExpectSets", func() {
	geo := particle.Geometry{UniverseSize: 1, Cutoff: 10, BSize: 8}
	const cutoff = 2.5

	occupants := []verify.Occupant{
		{Origin: particle.Origin{Cell: 0, Addr: 0}, Pos: particle.Vec{X: 0}},
		{Origin: particle.Origin{Cell: 0, Addr: 1}, Pos: particle.Vec{X: 1}},
		{Origin: particle.Origin{Cell: 0, Addr: 2}, Pos: particle.Vec{X: 5}},
	}

	It("admits exactly the pairs within cutoff under the N3L tie-break, one direction per pair", func() {
		filterExpect, pipelineExpect := verify.BuildExpectSets(geo, cutoff, occupants)

		r0, n1 := occupants[0].Origin, occupants[1].Origin
		idFwd := geo.PairIdent(r0, n1)
		idRev := geo.PairIdent(n1, r0)

		_, fwdAdmitted := filterExpect[idFwd]
		_, revAdmitted := filterExpect[idRev]
		Expect(fwdAdmitted != revAdmitted).To(BeTrue(), "exactly one direction of the pair is admitted")

		Expect(len(pipelineExpect)).To(Equal(2 * len(filterExpect)))
		for id := range filterExpect {
			// every admitted ordering is present in pipelineExpect; the
			// length check above accounts for the reverse orderings.
			Expect(pipelineExpect).To(HaveKey(id))
		}
	})

	It("excludes the pair beyond cutoff", func() {
		filterExpect, _ := verify.BuildExpectSets(geo, cutoff, occupants)
		far := occupants[2].Origin
		near := occupants[0].Origin
		Expect(filterExpect).NotTo(HaveKey(geo.PairIdent(far, near)))
		Expect(filterExpect).NotTo(HaveKey(geo.PairIdent(near, far)))
	})
})
