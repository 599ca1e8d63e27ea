package posupdate_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/posupdate"
	"github.com/sarchlab/mdfabric/wire"
)

var _ = Describe("RingNode", func() {
	geo := particle.Geometry{UniverseSize: 2, Cutoff: 1, BSize: 2}

	It("forwards a packet addressed to another cell unchanged", func() {
		f := wire.NewFabric()
		n := posupdate.NewRingNode(f, "n", geo, 1.0, 1, 0)

		ready := newConstStim("ready", true)
		db := newConstStim("db", 0)
		pkt := posupdate.RingPacket{Target: 5, Pos: particle.Vec{X: 1}, Vel: particle.Vec{X: 2}}
		ringIn := newConstStim("ring-in", pkt)
		posIn := newConstStim("pos-in", wire.Null())
		velIn := newConstStim("vel-in", wire.Null())
		f.Add(ready)
		f.Add(db)
		f.Add(ringIn)
		f.Add(posIn)
		f.Add(velIn)
		wire.Connect(ready.O, n.ReadyIn())
		wire.Connect(db.O, n.DBIn())
		wire.Connect(ringIn.O, n.RingIn())
		wire.Connect(posIn.O, n.PosIn())
		wire.Connect(velIn.O, n.VelIn())

		f.Clock()
		Expect(n.RingOut.Get()).To(Equal(wire.Value(pkt)))
	})

	It("absorbs a packet addressed to itself and drains it through its own write queue", func() {
		f := wire.NewFabric()
		n := posupdate.NewRingNode(f, "n", geo, 1.0, 1, 0)

		ready := newConstStim("ready", true)
		db := newConstStim("db", 0)
		selfPkt := posupdate.RingPacket{Target: 0, Pos: particle.Vec{X: 3}, Vel: particle.Vec{X: 4}}
		ringIn := newSeqStim("ring-in", wire.Null(), selfPkt, wire.Null())
		posIn := newConstStim("pos-in", wire.Null())
		velIn := newConstStim("vel-in", wire.Null())
		f.Add(ready)
		f.Add(db)
		f.Add(ringIn)
		f.Add(posIn)
		f.Add(velIn)
		wire.Connect(ready.O, n.ReadyIn())
		wire.Connect(db.O, n.DBIn())
		wire.Connect(ringIn.O, n.RingIn())
		wire.Connect(posIn.O, n.PosIn())
		wire.Connect(velIn.O, n.VelIn())

		f.Clock() // clear sub-phase (dbsize=1): sweep 0 -> 1, transitions to migrate
		Expect(n.Done.Get()).To(Equal(wire.Value(false)))

		f.Clock() // migrate: absorbs selfPkt and drains it the same cycle
		Expect(wire.IsNull(n.RingOut.Get())).To(BeTrue())
		wv := wire.Payload[particle.Vec](n.WritePos.Get())
		Expect(wv.X).To(BeNumerically("~", 3.0, 1e-9))
		Expect(n.WriteVel.Get()).To(Equal(particle.Vec{X: 4}))
		Expect(n.Done.Get()).To(Equal(wire.Value(false)))

		f.Clock() // queue drained, sweep exhausted, nothing in flight -> done
		Expect(n.Done.Get()).To(Equal(wire.Value(true)))
	})

	It("injects a locally migrating particle onto a free ring slot", func() {
		f := wire.NewFabric()
		n := posupdate.NewRingNode(f, "n", geo, 1.0, 1, 0)

		ready := newConstStim("ready", true)
		db := newConstStim("db", 0)
		ringIn := newConstStim("ring-in", wire.Null())
		// A particle at x=0.9 moving +x by dt=1 lands at x=1.9, which under
		// Cutoff=1 falls in cell index 1 on the x axis: a different cell.
		posIn := newSeqStim("pos-in", wire.Null(), particle.Vec{X: 0.9})
		velIn := newSeqStim("vel-in", wire.Null(), particle.Vec{X: 1.0})
		f.Add(ready)
		f.Add(db)
		f.Add(ringIn)
		f.Add(posIn)
		f.Add(velIn)
		wire.Connect(ready.O, n.ReadyIn())
		wire.Connect(db.O, n.DBIn())
		wire.Connect(ringIn.O, n.RingIn())
		wire.Connect(posIn.O, n.PosIn())
		wire.Connect(velIn.O, n.VelIn())

		f.Clock() // clear sub-phase
		f.Clock() // migrate sweep 0: reads the particle, injects it since target != own cell

		pkt := wire.Payload[posupdate.RingPacket](n.RingOut.Get())
		Expect(pkt.Target).ToNot(Equal(0))
		Expect(pkt.Pos.X).To(BeNumerically("~", 1.9, 1e-9))
	})
})
