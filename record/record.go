// Package record implements the MD fabric's sole observable side effect:
// one binary position snapshot appended per completed timestep, plus an
// optional per-run performance trace row. Both are written through a
// Sink interface so the position updater and verifier can be exercised
// in tests without touching the filesystem.
package record

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/sarchlab/mdfabric/particle"
)

// Sink is the persisted-output boundary: a timestep snapshot writer and a
// performance-trace appender. FileSink is the production implementation;
// tests substitute an in-memory fake, or the mock the fabric package's
// test suite generates from this interface.
type Sink interface {
	// WriteTimestep appends one records/t{t} file: cellPositions[cell] is
	// the occupied positions in that cell, in BRAM-address order.
	WriteTimestep(t int, cellPositions [][]particle.Vec) error

	// AppendPerformance appends one row to the performance trace, or is a
	// no-op if the sink was not configured with a trace path.
	AppendPerformance(row PerformanceRow) error

	// Close flushes and releases any open handles.
	Close() error
}

// PerformanceRow is one row of the optional performance.csv trace: the
// run's scale parameters alongside the cycle count the fabric spent
// completing it.
type PerformanceRow struct {
	NParticle   int
	NCell       int
	T           int
	NCPar       int
	NPPar       int
	CyclesTotal int
}

// FileSink is the production Sink: records/t{t} files under RecordsDir,
// one 24-byte little-endian IEEE-754 [x,y,z] vector per occupied slot,
// cell by cell in linear order; and an appended performance.csv row if
// PerformanceCSV is set.
type FileSink struct {
	RecordsDir     string
	PerformanceCSV string

	perfFile *os.File
}

// NewFileSink creates the records directory (if recordsDir is non-empty)
// and returns a FileSink writing into it. perfCSV may be empty, in which
// case AppendPerformance is a no-op.
func NewFileSink(recordsDir, perfCSV string) (*FileSink, error) {
	if recordsDir != "" {
		if err := os.MkdirAll(recordsDir, 0o755); err != nil {
			return nil, fmt.Errorf("record: creating records dir %s: %w", recordsDir, err)
		}
	}
	return &FileSink{RecordsDir: recordsDir, PerformanceCSV: perfCSV}, nil
}

// WriteTimestep appends one records/t{t} file.
func (s *FileSink) WriteTimestep(t int, cellPositions [][]particle.Vec) error {
	if s.RecordsDir == "" {
		return nil
	}
	path := filepath.Join(s.RecordsDir, fmt.Sprintf("t%d", t))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("record: creating %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, 24)
	for _, cell := range cellPositions {
		for _, v := range cell {
			binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(v.X))
			binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(v.Y))
			binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(v.Z))
			if _, err := f.Write(buf); err != nil {
				return fmt.Errorf("record: writing %s: %w", path, err)
			}
		}
	}
	return nil
}

// AppendPerformance appends one row to PerformanceCSV, writing a header
// first if the file does not already exist. It is a no-op if
// PerformanceCSV is empty.
func (s *FileSink) AppendPerformance(row PerformanceRow) error {
	if s.PerformanceCSV == "" {
		return nil
	}
	if s.perfFile == nil {
		_, statErr := os.Stat(s.PerformanceCSV)
		needsHeader := os.IsNotExist(statErr)

		f, err := os.OpenFile(s.PerformanceCSV, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("record: opening %s: %w", s.PerformanceCSV, err)
		}
		s.perfFile = f
		if needsHeader {
			if _, err := fmt.Fprintln(f, "N_PARTICLE,N_CELL,T,N_CPAR,N_PPAR,cycles_total"); err != nil {
				return fmt.Errorf("record: writing header to %s: %w", s.PerformanceCSV, err)
			}
		}
	}

	_, err := fmt.Fprintf(s.perfFile, "%d,%d,%d,%d,%d,%d\n",
		row.NParticle, row.NCell, row.T, row.NCPar, row.NPPar, row.CyclesTotal)
	if err != nil {
		return fmt.Errorf("record: writing row to %s: %w", s.PerformanceCSV, err)
	}
	return nil
}

// Close flushes and closes the performance-trace file, if one was opened.
func (s *FileSink) Close() error {
	if s.perfFile == nil {
		return nil
	}
	err := s.perfFile.Close()
	s.perfFile = nil
	return err
}

// DecodeTimestep reads back a records/t{t} file (or any reader over the
// same format) into a flat slice of vectors, in the order they were
// written. It exists alongside the writer so golden-file tests can
// assert on decoded content rather than raw bytes.
func DecodeTimestep(data []byte) ([]particle.Vec, error) {
	if len(data)%24 != 0 {
		return nil, fmt.Errorf("record: malformed timestep data: length %d is not a multiple of 24", len(data))
	}
	out := make([]particle.Vec, 0, len(data)/24)
	for i := 0; i < len(data); i += 24 {
		x := math.Float64frombits(binary.LittleEndian.Uint64(data[i : i+8]))
		y := math.Float64frombits(binary.LittleEndian.Uint64(data[i+8 : i+16]))
		z := math.Float64frombits(binary.LittleEndian.Uint64(data[i+16 : i+24]))
		out = append(out, particle.Vec{X: x, Y: y, Z: z})
	}
	return out, nil
}
