package pcb

import (
	"math"

	"github.com/ceoloide/kicad-kbplacer/pkg/kicad/sexp"
)

// Position is a point on the board in millimeters. KiCad's Y axis points
// down: positive Y is toward the bottom of the board.
type Position struct {
	X float64
	Y float64
}

// PositionAngle combines a position with a rotation in degrees.
type PositionAngle struct {
	Position
	Angle float64
}

// Size is a width/height pair in millimeters.
type Size struct {
	Width  float64
	Height float64
}

// Side identifies which face of the board a footprint sits on.
type Side int

const (
	SideFront Side = iota
	SideBack
)

func (s Side) String() string {
	if s == SideBack {
		return "BACK"
	}
	return "FRONT"
}

// Opposite returns the other board face.
func (s Side) Opposite() Side {
	if s == SideBack {
		return SideFront
	}
	return SideBack
}

// Pad represents a footprint pad. Offset is the pad's position in the
// footprint's local (unrotated) frame; the file stores pad angles as
// absolute, so LocalAngle is derived at parse time.
type Pad struct {
	Number     string
	Type       string // thru_hole, smd, connect, np_thru_hole
	Shape      string
	Offset     Position
	LocalAngle float64
	Size       Size
	Drill      float64
	Layers     []string
	Net        *Net

	node *sexp.List
}

// Radius returns the clearance radius used for collision testing: half the
// larger of pad size and drill diameter.
func (p *Pad) Radius() float64 {
	r := math.Max(p.Size.Width, p.Size.Height)
	if p.Drill > r {
		r = p.Drill
	}
	return r / 2
}

// Net represents an electrical net.
type Net struct {
	Number int
	Name   string
}

// Footprint represents a component instance on the board.
type Footprint struct {
	Library   string
	Name      string
	Layer     string
	Position  PositionAngle
	Reference string
	Value     string
	Pads      []*Pad

	node *sexp.List
}

// Track represents one straight copper segment.
type Track struct {
	Start Position
	End   Position
	Width float64
	Layer string
	Net   *Net
	UUID  string

	node *sexp.List
}

// Board is a parsed KiCad PCB. The original s-expression document is kept
// alongside the model; mutations patch both, so Save preserves everything
// the model does not represent.
type Board struct {
	Version    int
	Generator  string
	Nets       []*Net
	Footprints []*Footprint
	Tracks     []*Track

	root      *sexp.List
	netByNum  map[int]*Net
	netByName map[string]*Net
}

// Net returns the net with the given name, or nil.
func (b *Board) Net(name string) *Net {
	return b.netByName[name]
}

// NetByNumber returns the net with the given ordinal, or nil.
func (b *Board) NetByNumber(num int) *Net {
	return b.netByNum[num]
}

// FootprintsByReference returns every footprint whose reference designator
// equals ref, in file order. KiCad permits duplicate references, so more
// than one result is possible.
func (b *Board) FootprintsByReference(ref string) []*Footprint {
	var result []*Footprint
	for _, fp := range b.Footprints {
		if fp.Reference == ref {
			result = append(result, fp)
		}
	}
	return result
}
