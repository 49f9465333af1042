package placer

import (
	"fmt"
	"strings"

	"github.com/ceoloide/kicad-kbplacer/pkg/kicad/pcb"
)

// PositionOption selects how a secondary element's position derives from
// its paired switch.
type PositionOption int

const (
	// PositionDefault places the element at a built-in offset from the switch.
	PositionDefault PositionOption = iota
	// PositionCurrentRelative reproduces the offset the first switch/element
	// pair already has on the board across all pairs.
	PositionCurrentRelative
	// PositionCustom places the element at a caller-supplied offset.
	PositionCustom
	// PositionUnchanged leaves the element exactly where it is.
	PositionUnchanged
)

func (o PositionOption) String() string {
	switch o {
	case PositionDefault:
		return "DEFAULT"
	case PositionCurrentRelative:
		return "CURRENT_RELATIVE"
	case PositionCustom:
		return "CUSTOM"
	case PositionUnchanged:
		return "UNCHANGED"
	}
	return fmt.Sprintf("PositionOption(%d)", int(o))
}

// ParsePositionOption converts the textual option name used in element
// definitions and configuration files.
func ParsePositionOption(s string) (PositionOption, error) {
	switch s {
	case "DEFAULT":
		return PositionDefault, nil
	case "CURRENT_RELATIVE":
		return PositionCurrentRelative, nil
	case "CUSTOM":
		return PositionCustom, nil
	case "UNCHANGED":
		return PositionUnchanged, nil
	}
	return 0, fmt.Errorf("unknown position option %q", s)
}

// ElementPosition describes a placement relative to the paired switch: the
// offset is expressed in the switch's local frame, the rotation is added to
// the switch's rotation, and SideBack flips the element to the opposite
// board face.
type ElementPosition struct {
	Offset        pcb.Position
	RotationDelta float64
	Side          pcb.Side
}

// DefaultDiodePosition is the built-in diode placement: just right of and
// below the switch center, rotated 90 degrees, on the back of the board.
var DefaultDiodePosition = ElementPosition{
	Offset:        pcb.Position{X: 5.08, Y: 3.03},
	RotationDelta: 90,
	Side:          pcb.SideBack,
}

// ZeroPosition places an element directly on its switch's origin.
var ZeroPosition = ElementPosition{Side: pcb.SideFront}

// ElementInfo describes one class of elements: the annotation format that
// names its footprints (one "{}" placeholder for the switch index) and the
// placement policy applied to each.
type ElementInfo struct {
	Annotation string
	Option     PositionOption
	Position   *ElementPosition
}

// Validate rejects annotation formats without exactly one placeholder and
// option/position combinations that cannot be honored. Position must be set
// for CUSTOM and must be absent for every other option.
func (e ElementInfo) Validate() error {
	if strings.Count(e.Annotation, "{}") != 1 {
		return &ConfigError{Reason: fmt.Sprintf("annotation format %q must contain exactly one '{}' placeholder", e.Annotation)}
	}
	if e.Option == PositionCustom && e.Position == nil {
		return &ConfigError{Reason: fmt.Sprintf("option CUSTOM for %q requires a position", e.Annotation)}
	}
	if e.Option != PositionCustom && e.Position != nil {
		return &ConfigError{Reason: fmt.Sprintf("option %s for %q does not accept a position", e.Option, e.Annotation)}
	}
	return nil
}
