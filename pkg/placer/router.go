package placer

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/ceoloide/kicad-kbplacer/pkg/kicad/pcb"
)

// Router draws switch-to-diode traces on a board. Traces are at most two
// segments: an optional 45 degree diagonal plus an axis-aligned run.
type Router struct {
	board      *pcb.Board
	trackWidth float64
	logger     *log.Logger
}

func NewRouter(board *pcb.Board, trackWidth float64, logger *log.Logger) *Router {
	if trackWidth <= 0 {
		trackWidth = DefaultTrackWidth
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Router{board: board, trackWidth: trackWidth, logger: logger}
}

// obstacle is a pad the route must keep clear of, reduced to a keep-out
// circle around its center.
type obstacle struct {
	center pcb.Position
	radius float64
}

// RouteSwitchWithDiode connects the switch to every diode pad sharing a net
// with one of the switch's pads. Diodes whose connecting pad sits at a
// position already routed are duplicates of an alternate footprint slot and
// are skipped. Returns the number of pairs routed and the pairs for which
// no collision-free path exists.
func (r *Router) RouteSwitchWithDiode(sw *pcb.Footprint, diodes []*pcb.Footprint) (int, []*UnroutableError) {
	routed := 0
	var failures []*UnroutableError
	seen := make(map[pcb.Position]bool)

	for _, diode := range diodes {
		swPad, diodePad := connectedPads(sw, diode)
		if swPad == nil {
			r.logger.Debug("no shared net between switch and diode",
				"switch", sw.Reference, "diode", diode.Reference)
			continue
		}

		start := sw.PadPosition(swPad)
		end := diode.PadPosition(diodePad)
		if seen[end] {
			continue
		}
		seen[end] = true
		if start == end {
			continue
		}

		if r.route(sw, diode, start, end, swPad.Net) {
			routed++
		} else {
			r.logger.Warn("could not find collision free path",
				"switch", sw.Reference, "diode", diode.Reference)
			failures = append(failures, &UnroutableError{Switch: sw.Reference, Diode: diode.Reference})
		}
	}
	return routed, failures
}

// connectedPads finds the first diode pad whose net is also present on one
// of the switch's pads. Pads without a net never connect.
func connectedPads(sw, diode *pcb.Footprint) (switchPad, diodePad *pcb.Pad) {
	for _, dp := range diode.Pads {
		if dp.Net == nil {
			continue
		}
		for _, sp := range sw.Pads {
			if sp.Net != nil && sp.Net.Number == dp.Net.Number {
				return sp, dp
			}
		}
	}
	return nil, nil
}

// route emits a trace from the switch pad at start to the diode pad at end.
// Aligned pads take a direct segment. Otherwise two bend postures are tried
// in order: diagonal leaving the diode pad first, then diagonal arriving at
// the switch pad. A posture is only committed when every segment clears the
// pads of both footprints.
func (r *Router) route(sw, diode *pcb.Footprint, start, end pcb.Position, net *pcb.Net) bool {
	layer := sw.CopperLayer()
	if start.X == end.X || start.Y == end.Y {
		r.addSegment(end, start, layer, net)
		return true
	}

	dx := start.X - end.X
	dy := start.Y - end.Y
	run := math.Min(math.Abs(dx), math.Abs(dy))
	step := pcb.Position{
		X: math.Copysign(run, dx),
		Y: math.Copysign(run, dy),
	}
	corners := []pcb.Position{
		end.Add(step).Snap(),
		start.Sub(step).Snap(),
	}

	obstacles := r.collectObstacles(net, sw, diode)
	for _, corner := range corners {
		if r.pathClear(obstacles, end, corner, start) {
			r.addSegment(end, corner, layer, net)
			r.addSegment(corner, start, layer, net)
			return true
		}
	}
	return false
}

// collectObstacles gathers keep-out circles for every pad of the given
// footprints that is not on the routed net. Net-less pads (mount holes,
// switch stems) always count.
func (r *Router) collectObstacles(net *pcb.Net, footprints ...*pcb.Footprint) []obstacle {
	var obstacles []obstacle
	for _, fp := range footprints {
		for _, pad := range fp.Pads {
			if pad.Net != nil && net != nil && pad.Net.Number == net.Number {
				continue
			}
			obstacles = append(obstacles, obstacle{
				center: fp.PadPosition(pad),
				radius: pad.Radius(),
			})
		}
	}
	return obstacles
}

func (r *Router) pathClear(obstacles []obstacle, points ...pcb.Position) bool {
	clearance := r.trackWidth / 2
	for i := 0; i+1 < len(points); i++ {
		a, b := points[i], points[i+1]
		if a == b {
			continue
		}
		for _, o := range obstacles {
			if pcb.SegmentDistance(a, b, o.center) < o.radius+clearance {
				return false
			}
		}
	}
	return true
}

// addSegment appends a track unless an identical one already exists, so
// re-running on an already routed board does not stack coincident copper.
func (r *Router) addSegment(a, b pcb.Position, layer string, net *pcb.Net) {
	if a == b {
		return
	}
	if r.hasSegment(a, b, layer, net) {
		return
	}
	r.board.AddTrack(a, b, r.trackWidth, layer, net)
}

func (r *Router) hasSegment(a, b pcb.Position, layer string, net *pcb.Net) bool {
	a, b = a.Snap(), b.Snap()
	for _, track := range r.board.Tracks {
		if track.Layer != layer {
			continue
		}
		if (track.Net == nil) != (net == nil) {
			continue
		}
		if net != nil && track.Net.Number != net.Number {
			continue
		}
		ts, te := track.Start.Snap(), track.End.Snap()
		if (ts == a && te == b) || (ts == b && te == a) {
			return true
		}
	}
	return false
}
