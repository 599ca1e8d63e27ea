package fabric_test

import (
	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mdfabric/config"
	"github.com/sarchlab/mdfabric/fabric"
	"github.com/sarchlab/mdfabric/particle"
)

// smallConfig is a configuration small enough to clock to completion in a
// test: one cell, one pipeline column, and few enough pipeline stages that
// a timestep drains in a handful of cycles rather than Default()'s
// production-scale hundreds.
func smallConfig() config.Config {
	cfg := config.Default()
	cfg.T = 2
	cfg.UniverseSize = 1
	cfg.NParticle = 3
	cfg.NCPar = 1
	cfg.NPPar = 1
	cfg.BSize = 8
	cfg.DBSize = 4
	cfg.ForcePipelineStages = 2
	cfg.FilterPipelineStages = 1
	return cfg
}

var _ = Describe("Builder", func() {
	It("rejects a structurally invalid configuration without wiring anything", func() {
		cfg := smallConfig()
		cfg.BSize = cfg.DBSize // violates bsize == 2*dbsize

		m, err := fabric.NewBuilder().WithConfig(cfg).Build()
		Expect(err).To(HaveOccurred())
		Expect(m).To(BeNil())
	})

	It("builds one pcache/vcache pair per cell and one compute column per (lane, slot)", func() {
		cfg := smallConfig()
		m, err := fabric.NewBuilder().WithConfig(cfg).Build()
		Expect(err).NotTo(HaveOccurred())

		nCols := cfg.NCPar * cfg.NPPar
		Expect(m.PCaches).To(HaveLen(m.Geo.NCell()))
		Expect(m.VCaches).To(HaveLen(m.Geo.NCell()))
		Expect(m.Banks).To(HaveLen(nCols))
		Expect(m.Queues).To(HaveLen(nCols))
		Expect(m.Pipelines).To(HaveLen(nCols))
		Expect(m.Readers).To(HaveLen(nCols))
	})
})

var _ = Describe("MDFabric.Run", func() {
	var mockCtrl *gomock.Controller

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
	})

	It("clocks a seeded fabric to completion with no verifier errors", func() {
		cfg := smallConfig()
		m, err := fabric.NewBuilder().WithConfig(cfg).WithVerifier().Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(m.Run()).To(Succeed())
		Expect(m.Verifier().Errors()).To(BeEmpty())
		Expect(m.F.Cycle()).To(BeNumerically(">", 0))
	})

	It("writes one timestep snapshot per configured Sink call", func() {
		cfg := smallConfig()

		recorded := map[int]bool{}
		sink := NewMockSink(mockCtrl)
		sink.EXPECT().
			WriteTimestep(gomock.Any(), gomock.Any()).
			Do(func(t int, _ [][]particle.Vec) { recorded[t] = true }).
			Return(nil).
			Times(cfg.T)
		sink.EXPECT().AppendPerformance(gomock.Any()).Return(nil)
		sink.EXPECT().Close().Return(nil)

		m, err := fabric.NewBuilder().WithConfig(cfg).WithSink(sink).Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Run()).To(Succeed())

		Expect(recorded).To(HaveLen(cfg.T))
		for t := 0; t < cfg.T; t++ {
			Expect(recorded).To(HaveKey(t))
		}
	})
})
