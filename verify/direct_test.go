package verify_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/verify"
)

var _ = Describe("DirectStep", func() {
	geo := particle.Geometry{UniverseSize: 2, Cutoff: 10, BSize: 8}
	const epsilon, sigma, dt = 40.0, 1.0, 1e-7

	It("applies an antisymmetric impulse, conserving total momentum", func() {
		ps := []verify.Particle{
			{Origin: particle.Origin{Cell: 0, Addr: 0}, Pos: particle.Vec{X: 0}},
			{Origin: particle.Origin{Cell: 0, Addr: 1}, Pos: particle.Vec{X: 1.2}},
		}
		before := verify.TotalMomentum(ps)
		Expect(before).To(Equal(particle.Vec{}))

		after := verify.DirectStep(geo, epsilon, sigma, dt, ps)
		afterMomentum := verify.TotalMomentum(after)
		Expect(afterMomentum.X).To(BeNumerically("~", 0, 1e-9))
	})

	It("wraps a position that integrates past the box boundary", func() {
		ps := []verify.Particle{
			{Origin: particle.Origin{Cell: 0, Addr: 0}, Pos: particle.Vec{X: geo.L() - 0.0000001}, Vel: particle.Vec{X: 1e6}},
		}
		after := verify.DirectStep(geo, epsilon, sigma, dt, ps)
		Expect(after[0].Pos.X).To(BeNumerically(">=", 0))
		Expect(after[0].Pos.X).To(BeNumerically("<", geo.L()))
	})
})

var _ = Describe("MatchPositions", func() {
	geo := particle.Geometry{UniverseSize: 2, Cutoff: 10, BSize: 8}

	It("matches within tolerance regardless of ordering", func() {
		want := []particle.Vec{{X: 1}, {X: 2}}
		got := []particle.Vec{{X: 2.0000001}, {X: 1.0000001}}
		Expect(verify.MatchPositions(geo, want, got, 1e-3)).To(Succeed())
	})

	It("rejects a count mismatch", func() {
		Expect(verify.MatchPositions(geo, []particle.Vec{{X: 1}}, nil, 1e-3)).To(HaveOccurred())
	})

	It("rejects a position with no close match", func() {
		want := []particle.Vec{{X: 1}}
		got := []particle.Vec{{X: 5}}
		Expect(verify.MatchPositions(geo, want, got, 1e-3)).To(HaveOccurred())
	})
})
