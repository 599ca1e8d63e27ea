// Package fabric wires every other package into one runnable MD fabric:
// the per-cell position and velocity caches, the phase-1 force-evaluation
// columns, and the phase-3 position-update sweep, all sequenced by a
// single control.Unit. It is the composition root — only cmd/mdsim
// imports it.
package fabric

import (
	"strconv"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/mdfabric/config"
	"github.com/sarchlab/mdfabric/control"
	"github.com/sarchlab/mdfabric/filter"
	"github.com/sarchlab/mdfabric/force"
	"github.com/sarchlab/mdfabric/pairqueue"
	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/posread"
	"github.com/sarchlab/mdfabric/posupdate"
	"github.com/sarchlab/mdfabric/record"
	"github.com/sarchlab/mdfabric/seedinit"
	"github.com/sarchlab/mdfabric/velocity"
	"github.com/sarchlab/mdfabric/verify"
	"github.com/sarchlab/mdfabric/wire"
)

// MDFabric is one fully wired timestep pipeline. There is exactly one of
// each shared component (one control.Unit, one posread.Unit, one
// velocity.Unit, one posupdate controller/updater pair) and a grid of
// cfg.NCPar*cfg.NPPar filter-bank/pairqueue/force-pipeline columns
// feeding it, one column per (cell lane, reference slot) pair, indexed
// lane*NPPar+slot.
type MDFabric struct {
	F   *wire.Fabric
	Geo particle.Geometry
	Cfg config.Config

	Control   *control.Unit
	PosRead   *posread.Unit
	Banks     []*filter.Bank
	Queues    []*pairqueue.Queue
	Pipelines []*force.Pipeline
	Readers   []*force.Reader
	Velocity  *velocity.Unit

	PosUpdateController *posupdate.Controller
	PosUpdateUpdater    *posupdate.Updater

	PCaches []*wire.BRAM
	VCaches []*wire.BRAM

	sink     record.Sink
	verifier *verify.Verifier
}

// Verifier returns the verify.Verifier attached during Build, or nil if
// Builder.WithVerifier was never called.
func (m *MDFabric) Verifier() *verify.Verifier { return m.verifier }

// Builder assembles an MDFabric with a fluent With* surface.
// The zero value is not useful on its own; start from NewBuilder.
type Builder struct {
	cfg          config.Config
	sink         record.Sink
	attachVerify bool
}

// NewBuilder returns a Builder seeded with config.Default().
func NewBuilder() Builder {
	return Builder{cfg: config.Default()}
}

// WithConfig sets the configuration the fabric is built over.
func (b Builder) WithConfig(cfg config.Config) Builder {
	b.cfg = cfg
	return b
}

// WithSink sets the Sink that Run writes timestep snapshots and the
// performance trace through. Leaving it unset makes Run a pure in-memory
// simulation with no persisted output.
func (b Builder) WithSink(sink record.Sink) Builder {
	b.sink = sink
	return b
}

// WithVerifier attaches a verify.Verifier to every hookable component as
// the fabric is built, so the caller can inspect MDFabric.Verifier().Errors()
// after a run.
func (b Builder) WithVerifier() Builder {
	b.attachVerify = true
	return b
}

// Build wires a complete MDFabric over b's configuration and seeds its
// initial particle population. It returns an error only for a
// configuration Validate itself rejects; any wiring defect in this
// package's own construction is a panic, the same as every other unit in
// the fabric.
func (b Builder) Build() (*MDFabric, error) {
	cfg := b.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	geo := cfg.Geometry()
	nCell := geo.NCell()

	m := &MDFabric{Geo: geo, Cfg: cfg, sink: b.sink}
	f := wire.NewFabric()
	m.F = f

	m.Control = control.NewUnit(f, "control")

	m.PCaches = make([]*wire.BRAM, nCell)
	m.VCaches = make([]*wire.BRAM, nCell)
	for cell := 0; cell < nCell; cell++ {
		m.PCaches[cell] = wire.NewBRAM("pcache#"+strconv.Itoa(cell), cfg.BSize)
		m.VCaches[cell] = wire.NewBRAM("vcache#"+strconv.Itoa(cell), cfg.BSize)
	}

	m.wirePosRead(f, geo, cfg)
	m.wireForceColumns(f, geo, cfg)
	m.wireVelocity(f, nCell, cfg)
	m.wirePosUpdate(f, geo, cfg)
	m.wireCaches(f, nCell)
	m.wirePhase1Done(f)
	wire.Connect(m.PosUpdateController.Done, m.Control.Phase3Done())

	seedinit.Seed(geo, cfg, m.PCaches, m.VCaches)

	if b.attachVerify {
		m.attachVerifier(geo, cfg)
	}

	return m, nil
}

func (m *MDFabric) wirePosRead(f *wire.Fabric, geo particle.Geometry, cfg config.Config) {
	m.PosRead = posread.NewUnit(f, "posread", geo, cfg.NCPar, cfg.NPPar, cfg.DBSize)
	wire.Connect(m.Control.Phase1Ready, m.PosRead.Ready())
	wire.Connect(m.Control.DB, m.PosRead.DB())
}

// wireForceColumns builds one filter-bank/pairqueue/force-pipeline/
// pipeline-reader column per (cell lane, reference slot) pair. The
// reference a column filters against is held in a Register fed by
// posread's matching reference output: the reader only drives that output
// during a reference-load cycle — and drives RESET for an empty slot —
// so the register is what keeps the reference present, or cleared, across
// the neighbor sweep that follows. A column's almost-done signal (posread
// exhausted, its bank, queue, and pipeline all drained) tells its
// pipeline reader it is safe to flush the fragment it is accumulating.
func (m *MDFabric) wireForceColumns(f *wire.Fabric, geo particle.Geometry, cfg config.Config) {
	nCols := cfg.NCPar * cfg.NPPar
	m.Banks = make([]*filter.Bank, nCols)
	m.Queues = make([]*pairqueue.Queue, nCols)
	m.Pipelines = make([]*force.Pipeline, nCols)
	m.Readers = make([]*force.Reader, nCols)

	for lane := 0; lane < cfg.NCPar; lane++ {
		for p := 0; p < cfg.NPPar; p++ {
			col := lane*cfg.NPPar + p
			cstr := strconv.Itoa(lane) + "-" + strconv.Itoa(p)

			refReg := f.Add(wire.NewRegister("refreg#" + cstr)).(*wire.Register)
			wire.Connect(m.PosRead.Reader.Reference(lane, p), refReg.I)

			bank := filter.NewBank(f, "bank#"+cstr, geo, cfg.Cutoff(), col, cfg.FilterPipelineStages)
			for slot := 0; slot < filter.NFilter; slot++ {
				wire.Connect(refReg.O, bank.ReferenceInput(slot))
				wire.Connect(m.PosRead.Reader.Neighbor(lane, slot), bank.NeighborInput(slot))
			}
			m.Banks[col] = bank

			queue := pairqueue.NewQueue(f, "pairqueue#"+cstr)
			for slot := 0; slot < filter.NFilter; slot++ {
				wire.Connect(bank.Output(slot), queue.Input(slot))
			}
			m.Queues[col] = queue

			pipe := force.NewPipeline(f, "forcepipe#"+cstr, geo, cfg.Epsilon, cfg.Sigma, cfg.DT, particle.Velocity, cfg.ForcePipelineStages)
			wire.Connect(queue.O, pipe.I)
			m.Pipelines[col] = pipe

			almostDone := f.Add(wire.NewAnd("almost-done#"+cstr, 4)).(*wire.And)
			wire.Connect(m.PosRead.Done(), almostDone.I[0])
			wire.Connect(bank.Empty, almostDone.I[1])
			wire.Connect(queue.QEmpty, almostDone.I[2])
			wire.Connect(pipe.Empty(), almostDone.I[3])

			reader := force.NewReader(f, "pipereader#"+cstr)
			wire.Connect(pipe.O, reader.I)
			wire.Connect(almostDone.O, reader.AlmostDone)
			m.Readers[col] = reader
		}
	}
}

func (m *MDFabric) wireVelocity(f *wire.Fabric, nCell int, cfg config.Config) {
	nCols := cfg.NCPar * cfg.NPPar
	m.Velocity = velocity.NewUnit(f, "velocity", nCols, nCell)
	for col := 0; col < nCols; col++ {
		wire.Connect(m.Readers[col].O, m.Velocity.Input(col))
	}
}

func (m *MDFabric) wirePosUpdate(f *wire.Fabric, geo particle.Geometry, cfg config.Config) {
	m.PosUpdateController = posupdate.NewController(f, "posupdate.controller", cfg.DBSize)
	m.PosUpdateUpdater = posupdate.NewUpdater(f, "posupdate.updater", geo, cfg.DT, cfg.DBSize)

	wire.Connect(m.Control.Phase3Ready, m.PosUpdateController.Ready())
	wire.Connect(m.Control.DB, m.PosUpdateController.DB())
	wire.Connect(m.PosUpdateController.SweepAddr, m.PosUpdateUpdater.SweepAddrIn())
	wire.Connect(m.PosUpdateController.Migrating, m.PosUpdateUpdater.MigratingIn())
	wire.Connect(m.Control.DB, m.PosUpdateUpdater.DBIn())

	queuesEmptyReg := f.Add(wire.NewRegister("posupdate.queues-empty")).(*wire.Register)
	wire.Connect(m.PosUpdateUpdater.QEmpty, queuesEmptyReg.I)
	wire.Connect(queuesEmptyReg.O, m.PosUpdateController.QueuesEmpty())
}

// wireCaches arbitrates every cell's position and velocity BRAM between
// phase 1 and phase 3 with CacheMuxes. The position BRAM is never
// written during phase 1 (posread only reads it), so its write bus is
// wired straight from the posupdate updater: when phase 1 is active the
// updater is unready and drives NULL, which a BRAM's CommitWrite already
// ignores, so no mux is needed there. The velocity BRAM is written by
// both phases (phase 1's fragment accumulation, phase 3's clear/migrate),
// so all three of its ports are muxed — each through its own
// single-prefix mux rather than one three-prefix mux, because phase 1's
// written value is computed combinationally from the value read back at
// oaddr: a single mux evaluating both ports at once would close that
// read-modify-write path into a combinational cycle through itself.
func (m *MDFabric) wireCaches(f *wire.Fabric, nCell int) {
	for cell := 0; cell < nCell; cell++ {
		cstr := strconv.Itoa(cell)

		pmux := f.Add(wire.NewCacheMux("pcache-mux#"+cstr, []string{"phase1", "phase3"}, []string{"oaddr"})).(*wire.CacheMux)
		wire.Connect(m.Control.Phase1Ready, pmux.Ready("phase1"))
		wire.Connect(m.Control.Phase3Ready, pmux.Ready("phase3"))
		wire.Connect(m.PosRead.CellOAddr(cell), pmux.Source("phase1", "oaddr"))
		wire.Connect(m.PosUpdateController.SweepAddr, pmux.Source("phase3", "oaddr"))
		wire.Connect(pmux.Output("oaddr"), m.PCaches[cell].OAddr)

		wire.Connect(m.PosUpdateUpdater.WriteAddr(cell), m.PCaches[cell].IAddr)
		wire.Connect(m.PosUpdateUpdater.WritePos(cell), m.PCaches[cell].I)

		wire.Connect(m.PCaches[cell].O, m.PosRead.CellInput(cell))
		wire.Connect(m.PCaches[cell].O, m.PosUpdateUpdater.PosIn(cell))

		voaddr := f.Add(wire.NewCacheMux("vcache-oaddr-mux#"+cstr, []string{"phase1", "phase3"}, []string{"oaddr"})).(*wire.CacheMux)
		wire.Connect(m.Control.Phase1Ready, voaddr.Ready("phase1"))
		wire.Connect(m.Control.Phase3Ready, voaddr.Ready("phase3"))
		wire.Connect(m.Velocity.OAddr(cell), voaddr.Source("phase1", "oaddr"))
		wire.Connect(m.PosUpdateController.SweepAddr, voaddr.Source("phase3", "oaddr"))
		wire.Connect(voaddr.Output("oaddr"), m.VCaches[cell].OAddr)

		viaddr := f.Add(wire.NewCacheMux("vcache-iaddr-mux#"+cstr, []string{"phase1", "phase3"}, []string{"iaddr"})).(*wire.CacheMux)
		wire.Connect(m.Control.Phase1Ready, viaddr.Ready("phase1"))
		wire.Connect(m.Control.Phase3Ready, viaddr.Ready("phase3"))
		wire.Connect(m.Velocity.OAddr(cell), viaddr.Source("phase1", "iaddr"))
		wire.Connect(m.PosUpdateUpdater.WriteAddr(cell), viaddr.Source("phase3", "iaddr"))
		wire.Connect(viaddr.Output("iaddr"), m.VCaches[cell].IAddr)

		vi := f.Add(wire.NewCacheMux("vcache-i-mux#"+cstr, []string{"phase1", "phase3"}, []string{"i"})).(*wire.CacheMux)
		wire.Connect(m.Control.Phase1Ready, vi.Ready("phase1"))
		wire.Connect(m.Control.Phase3Ready, vi.Ready("phase3"))
		wire.Connect(m.Velocity.WriteOut(cell), vi.Source("phase1", "i"))
		wire.Connect(m.PosUpdateUpdater.WriteVel(cell), vi.Source("phase3", "i"))
		wire.Connect(vi.Output("i"), m.VCaches[cell].I)

		wire.Connect(m.VCaches[cell].O, m.Velocity.CacheIn(cell))
		wire.Connect(m.VCaches[cell].O, m.PosUpdateUpdater.VelIn(cell))
	}
}

// wirePhase1Done ANDs posread's front-end done signal together with every
// column's pipeline-reader done and the velocity unit's queue-empty
// status (each reader's done already folds in its own column's
// bank/queue/pipeline drain status via its almost-done input). The
// control unit's own phase1-ready output is the first conjunct: posread
// reports done whenever it is idle, including before the first cycle has
// even granted it ready, and without the gate the control unit would see
// a "finished" phase 1 it never started.
func (m *MDFabric) wirePhase1Done(f *wire.Fabric) {
	n := 3 + len(m.Readers)
	and := f.Add(wire.NewAnd("phase1-done", n)).(*wire.And)

	idx := 0
	wire.Connect(m.Control.Phase1Ready, and.I[idx])
	idx++
	wire.Connect(m.PosRead.Done(), and.I[idx])
	idx++
	for _, reader := range m.Readers {
		wire.Connect(reader.Done, and.I[idx])
		idx++
	}
	wire.Connect(m.Velocity.QEmpty(), and.I[idx])

	wire.Connect(and.O, m.Control.Phase1Done())
}

func (m *MDFabric) attachVerifier(geo particle.Geometry, cfg config.Config) {
	v := verify.NewVerifier(geo, cfg.Cutoff(), cfg.ErrTolerance, cfg.NParticle, m.PCaches, cfg.DBSize)
	v.AttachControl(m.Control)
	for _, bank := range m.Banks {
		for slot := 0; slot < filter.NFilter; slot++ {
			v.AttachFilter(bank.Filter(slot))
		}
	}
	for _, pipe := range m.Pipelines {
		v.AttachPipeline(pipe)
	}
	m.verifier = v
}

// Run clocks the fabric until cfg.T timesteps complete, writing one
// snapshot to the configured Sink as each timestep's position update
// finishes (detected off the control unit's phase-entry hook, the same
// mechanism the verifier uses). Any wiring or runtime invariant violation
// in the units it drives (a dangling input, a combinational cycle, a
// migration buffer overflow) panics exactly as a bare Clock call would;
// Run itself only ever returns an error from the Sink.
func (m *MDFabric) Run() error {
	sink := m.sink
	if sink == nil {
		sink = noopSink{}
	}

	var sinkErr error
	recorded := 0
	m.Control.AcceptHook(hookFunc(func(ctx sim.HookCtx) {
		ev, ok := ctx.Item.(control.EnterPhaseEvent)
		if !ok || ev.Phase != control.Phase1 || ev.Timestep == 0 {
			return
		}
		occupants := verify.ScanActiveHalf(m.PCaches, ev.DoubleBuffer, m.Cfg.DBSize)
		cellPositions := verify.CellPositions(m.Geo.NCell(), occupants)
		if err := sink.WriteTimestep(ev.Timestep-1, cellPositions); err != nil && sinkErr == nil {
			sinkErr = err
		}
		recorded++
	}))

	for recorded < m.Cfg.T {
		m.F.Clock()
		if sinkErr != nil {
			return sinkErr
		}
	}

	if err := sink.AppendPerformance(record.PerformanceRow{
		NParticle:   m.Cfg.NParticle,
		NCell:       m.Geo.NCell(),
		T:           m.Cfg.T,
		NCPar:       m.Cfg.NCPar,
		NPPar:       m.Cfg.NPPar,
		CyclesTotal: m.F.Cycle(),
	}); err != nil {
		return err
	}
	return sink.Close()
}

type noopSink struct{}

func (noopSink) WriteTimestep(int, [][]particle.Vec) error     { return nil }
func (noopSink) AppendPerformance(record.PerformanceRow) error { return nil }
func (noopSink) Close() error                                  { return nil }

// hookFunc adapts a plain function to sim.Hook, the same pattern the
// verifier and every package's own tests use for an anonymous subscriber.
type hookFunc func(sim.HookCtx)

func (h hookFunc) Func(ctx sim.HookCtx) { h(ctx) }
