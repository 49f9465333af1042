package placer

import "github.com/ceoloide/kicad-kbplacer/pkg/kicad/pcb"

// positionTolerance is the slack allowed when matching trace endpoints,
// slightly under the nanometer grid all coordinates are snapped to.
const positionTolerance = 1e-7

// RemoveDanglingTracks deletes every track with an unconnected endpoint: one
// that neither lands on a pad of its net nor meets an endpoint of another
// surviving track. Removal cascades until the track set is stable, so a
// stale two-segment route disappears entirely once either end comes loose.
func RemoveDanglingTracks(board *pcb.Board) int {
	removed := 0
	for {
		track := findDangling(board)
		if track == nil {
			return removed
		}
		board.RemoveTrack(track)
		removed++
	}
}

func findDangling(board *pcb.Board) *pcb.Track {
	for _, track := range board.Tracks {
		if !endpointConnected(board, track, track.Start) || !endpointConnected(board, track, track.End) {
			return track
		}
	}
	return nil
}

func endpointConnected(board *pcb.Board, track *pcb.Track, point pcb.Position) bool {
	for _, fp := range board.Footprints {
		for _, pad := range fp.Pads {
			if pad.Net == nil {
				continue
			}
			if track.Net != nil && pad.Net.Number != track.Net.Number {
				continue
			}
			if fp.PadPosition(pad).DistanceTo(point) <= pad.Radius()+positionTolerance {
				return true
			}
		}
	}
	for _, other := range board.Tracks {
		if other == track {
			continue
		}
		if other.Start.DistanceTo(point) <= positionTolerance || other.End.DistanceTo(point) <= positionTolerance {
			return true
		}
	}
	return false
}
