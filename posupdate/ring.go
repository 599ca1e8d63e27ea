package posupdate

import (
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/wire"
)

// RingPacket is one particle traveling the migration ring: the cell it is
// bound for, plus the position/velocity payload it carries. Unlike the
// pipeline-transit Transit struct, a ring packet needs no origin — it is
// consumed (absorbed into a write queue) rather than matched back to a
// reference.
type RingPacket struct {
	Target int
	Pos    particle.Vec
	Vel    particle.Vec
}

type ringSubphase int

const (
	ringClear ringSubphase = iota
	ringMigrate
)

// ringState is the per-node state carried in RingNode's state register: the
// clear/migrate subphase, the local sweep address, and at most one pending
// packet that lost arbitration for the ring slot and is waiting to inject.
type ringState struct {
	phase   ringSubphase
	sweep   int
	pending RingPacket
	hasPend bool
}

// RingNode is one cell's node in the alternative ring-based phase-3
// migration variant. Where the
// central Controller/Updater pair shares one sweep address and per-cell
// write queues fed from a single place, each RingNode owns its own local
// read sweep over its own cell and injects particles that leave the cell
// directly onto a ring of RingPackets threaded through every other node.
//
// Each cycle a node absorbs an incoming packet addressed to it into its own
// write queue or forwards an incoming packet not addressed to it; when no
// packet is forwarded, the ring output is free for a locally generated
// packet, so the ring output carries at most one packet per cycle. A packet that
// cannot be placed on the ring this cycle (the incoming slot was already
// occupied by a forward) is held in the one-deep pending register; while
// pending is occupied the node's local sweep is frozen ("blocked") rather
// than overwriting it or dropping the particle, since either would break
// conservation.
type RingNode struct {
	stateReg *wire.Register
	logic    *wire.Logic

	readyIn *wire.Input
	dbIn    *wire.Input
	ringIn  *wire.Input
	posIn   *wire.Input
	velIn   *wire.Input

	RingOut   *wire.Output
	ReadAddr  *wire.Output
	WriteAddr *wire.Output
	WritePos  *wire.Output
	WriteVel  *wire.Output
	Blocked   *wire.Output
	Done      *wire.Output

	cell   int
	geo    particle.Geometry
	dt     float64
	dbsize int

	queue         []writeItem
	nextWriteAddr int
}

// NewRingNode builds the ring node owning cell, over geo's universe,
// integrating with step size dt across a double buffer of dbsize slots per
// half.
func NewRingNode(f *wire.Fabric, name string, geo particle.Geometry, dt float64, dbsize, cell int) *RingNode {
	n := &RingNode{cell: cell, geo: geo, dt: dt, dbsize: dbsize}

	n.stateReg = f.Add(wire.NewRegister(name + ".state")).(*wire.Register)
	n.logic = f.Add(wire.NewLogic(name)).(*wire.Logic)

	stateIn := n.logic.AddInput("state")
	n.readyIn = n.logic.AddInput("ready")
	n.dbIn = n.logic.AddInput("db")
	n.ringIn = n.logic.AddInput("ring-in")
	n.posIn = n.logic.AddInput("pos-in")
	n.velIn = n.logic.AddInput("vel-in")

	stateOut := n.logic.AddOutput("state")
	n.RingOut = n.logic.AddOutput("ring-out")
	n.ReadAddr = n.logic.AddOutput("read-addr")
	n.WriteAddr = n.logic.AddOutput("write-addr")
	n.WritePos = n.logic.AddOutput("write-pos")
	n.WriteVel = n.logic.AddOutput("write-vel")
	n.Blocked = n.logic.AddOutput("blocked")
	n.Done = n.logic.AddOutput("done")

	wire.Connect(n.stateReg.O, stateIn)
	wire.Connect(stateOut, n.stateReg.I)

	n.logic.SetCompute(func() []wire.Value {
		s := ringState{phase: ringClear}
		if v := stateIn.Get(); !wire.IsNull(v) {
			s = wire.Payload[ringState](v)
		}

		ready, _ := n.readyIn.Get().(bool)
		if !ready {
			return n.idle()
		}

		db, _ := n.dbIn.Get().(int)
		writeOffset, readOffset := n.dbsize, 0
		if db != 0 {
			writeOffset, readOffset = 0, n.dbsize
		}

		ringOut, absorbed := n.arbitrate(&s)

		switch s.phase {
		case ringClear:
			return n.stepClear(&s, writeOffset, ringOut)
		default:
			return n.stepMigrate(&s, readOffset, ringOut, absorbed)
		}
	})

	return n
}

func (n *RingNode) idle() []wire.Value {
	return []wire.Value{
		ringState{phase: ringClear}, wire.Null(), wire.Null(),
		wire.Null(), wire.Null(), wire.Null(), false, false,
	}
}

// arbitrate decides this cycle's ring output: absorb an inbound packet
// addressed here, forward one addressed elsewhere, or free the slot for a
// pending local injection. It never touches s.phase/s.sweep.
func (n *RingNode) arbitrate(s *ringState) (ringOut wire.Value, absorbedHere bool) {
	inVal := n.ringIn.Get()
	if !wire.IsNull(inVal) {
		pkt := wire.Payload[RingPacket](inVal)
		if pkt.Target == n.cell {
			n.enqueue(pkt)
			return wire.Null(), true
		}
		return pkt, false
	}

	if s.hasPend {
		pkt := s.pending
		s.hasPend = false
		return pkt, false
	}
	return wire.Null(), false
}

func (n *RingNode) enqueue(pkt RingPacket) {
	if n.nextWriteAddr+len(n.queue) >= n.dbsize {
		panic(&ErrBufferOverflow{Cell: n.cell, Limit: n.dbsize})
	}
	n.queue = append(n.queue, writeItem{Pos: pkt.Pos, Vel: pkt.Vel})
}

func (n *RingNode) stepClear(s *ringState, writeOffset int, ringOut wire.Value) []wire.Value {
	addr := writeOffset + s.sweep
	s.sweep++
	if s.sweep == n.dbsize {
		s.phase = ringMigrate
		s.sweep = 0
		n.queue = n.queue[:0]
		n.nextWriteAddr = 0
	}
	return []wire.Value{*s, ringOut, wire.Null(), addr, wire.Reset(), wire.Reset(), false, false}
}

func (n *RingNode) stepMigrate(s *ringState, readOffset int, ringOut wire.Value, absorbedHere bool) []wire.Value {
	readAddr := wire.Value(wire.Null())
	blocked := s.hasPend

	if !blocked && s.sweep < n.dbsize {
		readAddr = readOffset + s.sweep

		posVal := n.posIn.Get()
		velVal := n.velIn.Get()
		if !wire.IsNull(posVal) && !wire.IsNull(velVal) {
			pos := wire.Payload[particle.Vec](posVal)
			vel := wire.Payload[particle.Vec](velVal)
			next := n.geo.Wrap(r3.Add(pos, r3.Scale(n.dt, vel)))
			target := n.geo.CellFromPosition(next)
			pkt := RingPacket{Target: target, Pos: next, Vel: vel}

			if target == n.cell {
				n.enqueue(pkt)
			} else if wire.IsNull(ringOut) {
				ringOut = pkt
			} else {
				s.pending = pkt
				s.hasPend = true
			}
		}
		s.sweep++
	}

	var waddr, wpos, wvel wire.Value = wire.Null(), wire.Null(), wire.Null()
	if len(n.queue) > 0 {
		item := n.queue[0]
		n.queue = n.queue[1:]
		waddr = writeOffsetOf(readOffset, n.dbsize) + n.nextWriteAddr
		wpos, wvel = item.Pos, item.Vel
		n.nextWriteAddr++
	}

	done := s.sweep >= n.dbsize && !s.hasPend && len(n.queue) == 0 && wire.IsNull(ringOut) && !absorbedHere
	if done {
		*s = ringState{phase: ringClear}
	}

	return []wire.Value{*s, ringOut, readAddr, waddr, wpos, wvel, blocked, done}
}

// writeOffsetOf returns the write-half base address, the complement of the
// read-half base readOffset within the node's double buffer.
func writeOffsetOf(readOffset, dbsize int) int {
	if readOffset == 0 {
		return dbsize
	}
	return 0
}

// Ready, DB are the Inputs the owning control unit's phase3-ready and
// double-buffer outputs should drive (fanned out to every node).
func (n *RingNode) ReadyIn() *wire.Input { return n.readyIn }
func (n *RingNode) DBIn() *wire.Input    { return n.dbIn }

// RingIn is the Input the ring's previous node's RingOut should drive
// (through a Register, to break the ring's combinational cycle).
func (n *RingNode) RingIn() *wire.Input { return n.ringIn }

// PosIn, VelIn are the Inputs this node's own cell's read-half position and
// velocity cache outputs should drive, addressed by ReadAddr.
func (n *RingNode) PosIn() *wire.Input { return n.posIn }
func (n *RingNode) VelIn() *wire.Input { return n.velIn }

// RingNetwork wires one RingNode per cell into a closed ring, each edge
// broken by a Register (the ring would otherwise close a combinational
// cycle with no edge-triggered element). It exposes the
// same aggregate Done every node must agree on and a per-node Blocked for
// diagnostics.
type RingNetwork struct {
	Nodes []*RingNode
	Done  *wire.Output
}

// NewRingNetwork builds a ring of geo.NCell() RingNodes in linear cell
// order (node i forwards to node i+1 mod NCell).
func NewRingNetwork(f *wire.Fabric, name string, geo particle.Geometry, dt float64, dbsize int) *RingNetwork {
	nCell := geo.NCell()
	net := &RingNetwork{Nodes: make([]*RingNode, nCell)}

	for cell := 0; cell < nCell; cell++ {
		net.Nodes[cell] = NewRingNode(f, name+".node#"+strconv.Itoa(cell), geo, dt, dbsize, cell)
	}

	for cell := 0; cell < nCell; cell++ {
		next := (cell + 1) % nCell
		reg := f.Add(wire.NewRegister(name + ".link#" + strconv.Itoa(cell))).(*wire.Register)
		wire.Connect(net.Nodes[cell].RingOut, reg.I)
		wire.Connect(reg.O, net.Nodes[next].RingIn())
	}

	and := f.Add(wire.NewAnd(name+".done", nCell)).(*wire.And)
	for cell := 0; cell < nCell; cell++ {
		wire.Connect(net.Nodes[cell].Done, and.I[cell])
	}
	net.Done = and.O

	return net
}

// ConnectControl fans the owning control unit's phase3-ready and
// double-buffer outputs out to every node in the network.
func (net *RingNetwork) ConnectControl(ready, db *wire.Output) {
	for _, n := range net.Nodes {
		wire.Connect(ready, n.ReadyIn())
		wire.Connect(db, n.DBIn())
	}
}
