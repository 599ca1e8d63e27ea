// Package particle implements the per-cell geometry and per-pair physics
// that the MD dataflow fabric streams through its pipelines: the cubic
// universe's cell indexing, the minimum-image convention, Newton's-third-
// law half-shell pairing, and the capped Lennard-Jones pair force.
package particle

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/gonum/spatial/r3"
)

// titleCaser renders a Kind's lowercase name in Title case for diagnostics
// that embed it mid-sentence (e.g. "coincident distinct Position
// particles").
var titleCaser = cases.Title(language.English)

// Vec is a 3-vector: a position, velocity, acceleration, or force
// increment. It is a plain alias of r3.Vec so every component can use
// gonum's vector arithmetic directly.
type Vec = r3.Vec

// Kind distinguishes what a Transit is carrying.
type Kind int

const (
	Position Kind = iota
	Velocity
	Acceleration
)

// Title renders the kind's name in Title case, for diagnostics that embed
// it mid-sentence rather than at the start of one.
func (k Kind) Title() string { return titleCaser.String(k.String()) }

func (k Kind) String() string {
	switch k {
	case Position:
		return "position"
	case Velocity:
		return "velocity"
	case Acceleration:
		return "acceleration"
	default:
		return fmt.Sprintf("particle.Kind(%d)", int(k))
	}
}

// Origin identifies the cell and in-cell slot a Transit was read from. It
// travels with the value through every pipeline stage so the value can be
// written back to the right place, and so it can be identified for
// verification, but it is never itself written into a cache slot.
type Origin struct {
	Cell int
	Addr int
}

func (o Origin) String() string { return fmt.Sprintf("(cell=%d, addr=%d)", o.Cell, o.Addr) }

// Transit packages a vector value with the origin it was read from and
// the kind of value it is, so a single channel can carry position,
// velocity, or acceleration fragments without losing track of where they
// came from.
type Transit struct {
	Origin Origin
	Kind   Kind
	Vec    Vec
}

// NewPosition wraps a position vector read from origin.
func NewPosition(v Vec, origin Origin) Transit { return Transit{Origin: origin, Kind: Position, Vec: v} }

// NewVelocity wraps a velocity vector read from origin.
func NewVelocity(v Vec, origin Origin) Transit { return Transit{Origin: origin, Kind: Velocity, Vec: v} }

// NewAcceleration wraps an acceleration vector read from origin.
func NewAcceleration(v Vec, origin Origin) Transit {
	return Transit{Origin: origin, Kind: Acceleration, Vec: v}
}
