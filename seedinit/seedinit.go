// Package seedinit places the initial particle population into a
// fabric's position and velocity caches before the first clock: a
// uniform random scatter across the box, sorted into whichever cell each
// draw lands in, with velocities drawn from the configured initial
// distribution. It never runs after the fabric starts clocking — this is
// setup, not a wire-graph component.
package seedinit

import (
	"fmt"
	"math/rand"

	"github.com/sarchlab/mdfabric/config"
	"github.com/sarchlab/mdfabric/particle"
	"github.com/sarchlab/mdfabric/wire"
)

// Seed draws cfg.NParticle uniformly-distributed positions across the
// box and writes each into its cell's position BRAM (pCaches[cell]) and
// velocity BRAM (vCaches[cell]) at that cell's next free low-half slot,
// using a generator seeded from cfg.Seed so a run is reproducible. It
// panics if a cell's draw exceeds cfg.DBSize occupied slots, since that
// is a configuration error (too many particles for too few cells), not a
// recoverable runtime condition.
//
// Seed always writes into the low half (addresses [0, DBSize)): the
// first timestep always begins reading db=0.
func Seed(geo particle.Geometry, cfg config.Config, pCaches, vCaches []*wire.BRAM) {
	if len(pCaches) != geo.NCell() || len(vCaches) != geo.NCell() {
		panic(fmt.Sprintf("seedinit: expected %d cell caches, got %d position and %d velocity",
			geo.NCell(), len(pCaches), len(vCaches)))
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	occupied := make([]int, geo.NCell())

	for n := 0; n < cfg.NParticle; n++ {
		pos := particle.Vec{
			X: rng.Float64() * geo.L(),
			Y: rng.Float64() * geo.L(),
			Z: rng.Float64() * geo.L(),
		}
		cell := geo.CellFromPosition(pos)
		addr := occupied[cell]
		if addr >= cfg.DBSize {
			panic(fmt.Sprintf("seedinit: cell %d exceeded %d slots placing particle %d of %d",
				cell, cfg.DBSize, n, cfg.NParticle))
		}

		pCaches[cell].PokeForTest(addr, pos)
		vCaches[cell].PokeForTest(addr, initVelocity(cfg, rng))
		occupied[cell]++
	}
}

func initVelocity(cfg config.Config, rng *rand.Rand) particle.Vec {
	switch cfg.InitVelocity {
	case config.InitVelocityUniform:
		return particle.Vec{
			X: cfg.Epsilon * (rng.Float64() - 0.5),
			Y: cfg.Epsilon * (rng.Float64() - 0.5),
			Z: cfg.Epsilon * (rng.Float64() - 0.5),
		}
	case config.InitVelocityZero, "":
		return particle.Vec{}
	default:
		panic(fmt.Sprintf("seedinit: unknown init velocity mode %q", cfg.InitVelocity))
	}
}
