package placer

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/ceoloide/kicad-kbplacer/pkg/kicad/pcb"
	"github.com/ceoloide/kicad-kbplacer/pkg/kle"
)

const (
	// DefaultKeyDistance is the standard keyboard unit pitch in millimeters.
	DefaultKeyDistance = 19.05
	// DefaultTrackWidth is the width of routed traces in millimeters.
	DefaultTrackWidth = 0.25
)

// KeyPlacer positions switch and companion footprints on one board
// according to a logical keyboard layout, and optionally routes each switch
// to its diode.
type KeyPlacer struct {
	board       *pcb.Board
	registry    *FootprintRegistry
	router      *Router
	keyDistance pcb.Size
	trackWidth  float64
	logger      *log.Logger
}

type Option func(*KeyPlacer)

// WithKeyDistance overrides the key unit pitch, per axis, in millimeters.
func WithKeyDistance(width, height float64) Option {
	return func(p *KeyPlacer) {
		p.keyDistance = pcb.Size{Width: width, Height: height}
	}
}

// WithTrackWidth overrides the routed trace width in millimeters.
func WithTrackWidth(width float64) Option {
	return func(p *KeyPlacer) {
		p.trackWidth = width
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(p *KeyPlacer) {
		p.logger = logger
	}
}

func New(board *pcb.Board, opts ...Option) *KeyPlacer {
	p := &KeyPlacer{
		board:       board,
		registry:    NewFootprintRegistry(board),
		keyDistance: pcb.Size{Width: DefaultKeyDistance, Height: DefaultKeyDistance},
		trackWidth:  DefaultTrackWidth,
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.router = NewRouter(board, p.trackWidth, p.logger)
	return p
}

// RunReport summarizes one placement run.
type RunReport struct {
	PlacedSwitches int
	PlacedElements int
	RoutedPairs    int
	Unroutable     []*UnroutableError
	RemovedTracks  int
}

// stagedClass is one element class with every footprint lookup resolved
// before any mutation, plus the placement the policy resolved to.
type stagedClass struct {
	info     ElementInfo
	elements map[int][]*pcb.Footprint
	position *ElementPosition
}

// Run places every switch the layout describes, applies the diode and
// additional element policies relative to each switch, and when route is
// set connects switches with their diodes and sweeps dangling tracks. All
// footprint lookups happen before the first mutation, so a layout mismatch
// never leaves a half-placed board. An empty layout is a no-op.
func (p *KeyPlacer) Run(keyboard *kle.Keyboard, switchInfo, diodeInfo ElementInfo, route bool, additional []ElementInfo) (*RunReport, error) {
	if err := switchInfo.Validate(); err != nil {
		return nil, err
	}
	if err := diodeInfo.Validate(); err != nil {
		return nil, err
	}
	for _, info := range additional {
		if err := info.Validate(); err != nil {
			return nil, err
		}
		// only diodes carry a built-in default placement
		if info.Option == PositionDefault {
			return nil, &ConfigError{Reason: fmt.Sprintf("option DEFAULT is not valid for %q", info.Annotation)}
		}
	}

	report := &RunReport{}
	assignments := SwitchAssignments(keyboard)
	if len(assignments) == 0 {
		return report, nil
	}

	switches, err := p.stageSwitches(switchInfo, assignments)
	if err != nil {
		return nil, err
	}

	diodeClass, err := p.stageClass(diodeInfo, assignments, switches, DefaultDiodePosition)
	if err != nil {
		return nil, err
	}
	var additionalClasses []*stagedClass
	for _, info := range additional {
		class, err := p.stageClass(info, assignments, switches, ZeroPosition)
		if err != nil {
			return nil, err
		}
		if class != nil {
			additionalClasses = append(additionalClasses, class)
		}
	}

	for _, assignment := range assignments {
		sw := switches[assignment.Index]
		pos := p.keyCenter(assignment.Key)
		sw.SetPosition(pos)
		sw.SetRotation(-assignment.Key.RotationAngle)
		p.logger.Debug("placed switch", "ref", sw.Reference, "x", pos.X, "y", pos.Y)
		report.PlacedSwitches++
	}

	classes := additionalClasses
	if diodeClass != nil {
		classes = append([]*stagedClass{diodeClass}, classes...)
	}
	for _, class := range classes {
		for _, assignment := range assignments {
			sw := switches[assignment.Index]
			for _, fp := range class.elements[assignment.Index] {
				p.applyPosition(sw, fp, class)
				report.PlacedElements++
			}
		}
	}

	if route {
		if diodeClass != nil {
			for _, assignment := range assignments {
				sw := switches[assignment.Index]
				diodes := diodeClass.elements[assignment.Index]
				if len(diodes) == 0 {
					continue
				}
				routed, failures := p.router.RouteSwitchWithDiode(sw, diodes)
				report.RoutedPairs += routed
				report.Unroutable = append(report.Unroutable, failures...)
			}
		}
		report.RemovedTracks = RemoveDanglingTracks(p.board)
	}

	return report, nil
}

// stageSwitches resolves every switch footprint up front. No match at all
// for the annotation format means the board and layout disagree on naming,
// which aborts the run before any mutation.
func (p *KeyPlacer) stageSwitches(info ElementInfo, assignments []SwitchAssignment) (map[int]*pcb.Footprint, error) {
	switches := make(map[int]*pcb.Footprint, len(assignments))
	for _, assignment := range assignments {
		fp, err := p.registry.Switch(info.Annotation, assignment.Index)
		if err != nil {
			if !p.registry.AnyMatch(info.Annotation) {
				return nil, &LayoutMismatchError{Annotation: info.Annotation}
			}
			return nil, fmt.Errorf("cannot resolve switch: %w", err)
		}
		switches[assignment.Index] = fp
	}
	return switches, nil
}

// stageClass resolves an element class. A class with no matching footprint
// anywhere on the board is skipped with a warning; indices without a match
// are fine, since not every key carries every element. UNCHANGED classes
// resolve no position but their footprints stay available for routing.
func (p *KeyPlacer) stageClass(info ElementInfo, assignments []SwitchAssignment, switches map[int]*pcb.Footprint, fallback ElementPosition) (*stagedClass, error) {
	if !p.registry.AnyMatch(info.Annotation) {
		p.logger.Warn("no footprints match annotation format, skipping", "annotation", info.Annotation)
		return nil, nil
	}

	class := &stagedClass{info: info, elements: make(map[int][]*pcb.Footprint)}
	for _, assignment := range assignments {
		matches := p.registry.All(info.Annotation, assignment.Index)
		if len(matches) == 0 {
			// not every switch carries one of these; stabilizers and
			// per-key extras legitimately exist for a subset of keys
			p.logger.Debug("no footprint for index", "annotation", info.Annotation, "index", assignment.Index)
			continue
		}
		class.elements[assignment.Index] = matches
	}

	switch info.Option {
	case PositionCustom:
		class.position = info.Position
	case PositionDefault:
		position := fallback
		class.position = &position
	case PositionCurrentRelative:
		position, err := currentRelative(assignments, switches, class.elements)
		if err != nil {
			return nil, err
		}
		class.position = position
	case PositionUnchanged:
		// elements stay put; diodes are still routing candidates
	}
	return class, nil
}

// currentRelative derives the shared element position from the first
// switch/element pair's pre-run placement, expressed in the switch's local
// frame so it transfers to switches at any rotation.
func currentRelative(assignments []SwitchAssignment, switches map[int]*pcb.Footprint, elements map[int][]*pcb.Footprint) (*ElementPosition, error) {
	for _, assignment := range assignments {
		matches := elements[assignment.Index]
		if len(matches) == 0 {
			continue
		}
		sw := switches[assignment.Index]
		elem := matches[0]

		offset := elem.Position.Position.Sub(sw.Position.Position).Rotate(-sw.Position.Angle)
		side := pcb.SideFront
		if elem.Side() != sw.Side() {
			side = pcb.SideBack
		}
		return &ElementPosition{
			Offset:        offset,
			RotationDelta: elem.Position.Angle - sw.Position.Angle,
			Side:          side,
		}, nil
	}
	return nil, &ConfigError{Reason: "CURRENT_RELATIVE requires at least one placed element pair"}
}

// applyPosition moves one element footprint relative to its placed switch.
func (p *KeyPlacer) applyPosition(sw *pcb.Footprint, fp *pcb.Footprint, class *stagedClass) {
	if class.info.Option == PositionUnchanged || class.position == nil {
		return
	}
	position := class.position

	fp.SetPosition(sw.Position.Position.Add(position.Offset.Rotate(sw.Position.Angle)))
	fp.SetRotation(sw.Position.Angle + position.RotationDelta)

	side := sw.Side()
	if position.Side == pcb.SideBack {
		side = side.Opposite()
	}
	if fp.Side() != side {
		fp.SetSide(side)
	}
}

// keyCenter maps a key's logical position to the board location of its
// switch center. KLE rotations are clockwise while board angles are
// counterclockwise, hence the sign flip.
func (p *KeyPlacer) keyCenter(key kle.Key) pcb.Position {
	pos := pcb.Position{
		X: (key.X + key.Width/2) * p.keyDistance.Width,
		Y: (key.Y + key.Height/2) * p.keyDistance.Height,
	}
	if key.RotationAngle != 0 {
		pivot := pcb.Position{
			X: key.RotationX * p.keyDistance.Width,
			Y: key.RotationY * p.keyDistance.Height,
		}
		pos = pos.RotateAround(pivot, -key.RotationAngle)
	}
	return pos.Snap()
}

// RouteSwitchWithDiode exposes the router for direct use with already
// placed footprints.
func (p *KeyPlacer) RouteSwitchWithDiode(sw *pcb.Footprint, diodes []*pcb.Footprint) (int, []*UnroutableError) {
	return p.router.RouteSwitchWithDiode(sw, diodes)
}

// RemoveDanglingTracks sweeps tracks left unconnected by earlier runs.
func (p *KeyPlacer) RemoveDanglingTracks() int {
	return RemoveDanglingTracks(p.board)
}
