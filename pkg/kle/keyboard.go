// Package kle provides the normalized keyboard layout model consumed by the
// placer, together with parsers for the common interchange formats:
// keyboard-layout-editor internal JSON, VIA definition JSON and ergogen
// points YAML.
package kle

import "fmt"

// Key is one key of a logical layout. Positions and sizes are in key units
// (1u = one key pitch); rotation is in degrees, clockwise, around the pivot
// (RotationX, RotationY), also in key units.
type Key struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	RotationX     float64 `json:"rotation_x"`
	RotationY     float64 `json:"rotation_y"`
	RotationAngle float64 `json:"rotation_angle"`

	// Decal keys are annotations drawn on the layout with no physical
	// switch behind them.
	Decal bool `json:"decal"`
	Ghost bool `json:"ghost"`

	Labels []string `json:"labels"`

	// ExplicitSwitchIndex overrides positional switch numbering for this
	// key. Populated from the dedicated label slot during parsing.
	ExplicitSwitchIndex *int `json:"-"`

	// Matrix coordinates, when the source format carries them (VIA).
	// Unused by placement but preserved for round-tripping.
	MatrixRow *int `json:"-"`
	MatrixCol *int `json:"-"`
}

// Keyboard is an ordered list of keys plus source metadata.
type Keyboard struct {
	Meta Metadata `json:"meta"`
	Keys []Key    `json:"keys"`
}

// Metadata carries layout-level information.
type Metadata struct {
	Name   string `json:"name"`
	Author string `json:"author"`
	Notes  string `json:"notes"`
}

// InvalidLayoutError reports a layout that failed schema validation before
// any placement was attempted.
type InvalidLayoutError struct {
	Reason string
}

func (e *InvalidLayoutError) Error() string {
	return fmt.Sprintf("invalid layout: %s", e.Reason)
}

// explicitAnnotationLabel is the label slot reserved for explicit switch
// numbering (bottom-right in keyboard-layout-editor's 12-slot scheme).
const explicitAnnotationLabel = 11

// matrixLabel is the label slot VIA uses for "row,col" matrix coordinates.
const matrixLabel = 0
