// Command mdsim builds and clocks one MD fabric run to completion. The
// command-line argument surface itself is deliberately minimal: one flag
// for a YAML config path and one to toggle verification, rather than a
// full flag surface.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/mdfabric/config"
	"github.com/sarchlab/mdfabric/fabric"
	"github.com/sarchlab/mdfabric/record"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config document (defaults applied for any field left unset)")
	verify := flag.Bool("verify", false, "attach the verification harness and fail on any invariant violation")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("mdsim: loading config", "error", err)
			atexit.Exit(1)
			return
		}
		cfg = loaded
	}

	sink, err := record.NewFileSink(cfg.RecordsDir, cfg.PerformanceCSV)
	if err != nil {
		slog.Error("mdsim: creating sink", "error", err)
		atexit.Exit(1)
		return
	}
	atexit.Register(func() {
		if err := sink.Close(); err != nil {
			slog.Error("mdsim: closing sink", "error", err)
		}
	})

	builder := fabric.NewBuilder().WithConfig(cfg).WithSink(sink)
	if *verify {
		builder = builder.WithVerifier()
	}

	m, err := builder.Build()
	if err != nil {
		slog.Error("mdsim: building fabric", "error", err)
		atexit.Exit(1)
		return
	}

	slog.Info("mdsim: starting run",
		"t", cfg.T, "n_particle", cfg.NParticle, "universe_size", cfg.UniverseSize,
		"n_cpar", cfg.NCPar, "n_ppar", cfg.NPPar)

	if err := m.Run(); err != nil {
		slog.Error("mdsim: run failed", "error", err)
		atexit.Exit(1)
		return
	}

	if v := m.Verifier(); v != nil && len(v.Errors()) > 0 {
		for _, verr := range v.Errors() {
			fmt.Fprintln(os.Stderr, verr)
		}
		slog.Error("mdsim: verification failed", "violations", len(v.Errors()))
		atexit.Exit(1)
		return
	}

	slog.Info("mdsim: run complete", "cycles_total", m.F.Cycle())
	atexit.Exit(0)
}
