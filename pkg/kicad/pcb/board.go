package pcb

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/ceoloide/kicad-kbplacer/pkg/kicad/sexp"
)

const defaultTrackWidth = 0.25

// Save writes the board back as KiCad s-expression text. Mutations made
// through the board API have already been patched into the underlying
// document, so unrepresented content (silkscreen, zones, setup) survives.
func (b *Board) Save(w io.Writer) error {
	return sexp.Write(w, b.root)
}

// SaveFile writes the board to a file.
func (b *Board) SaveFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return b.Save(file)
}

// Side returns which face of the board the footprint sits on.
func (fp *Footprint) Side() Side {
	if strings.HasPrefix(fp.Layer, "B.") {
		return SideBack
	}
	return SideFront
}

// SetPosition moves the footprint, keeping its rotation.
func (fp *Footprint) SetPosition(pos Position) {
	pos = pos.Snap()
	fp.Position.Position = pos
	if atNode, found := fp.node.Find("at"); found {
		atNode.SetFloat(1, pos.X)
		atNode.SetFloat(2, pos.Y)
	}
}

// SetRotation sets the footprint's absolute rotation in degrees. Pad nodes
// carry absolute angles in the file, so they are re-patched as well.
func (fp *Footprint) SetRotation(angle float64) {
	fp.Position.Angle = angle
	if atNode, found := fp.node.Find("at"); found {
		atNode.SetFloat(1, fp.Position.X)
		atNode.SetFloat(2, fp.Position.Y)
		atNode.SetFloat(3, angle)
	}
	for _, pad := range fp.Pads {
		if atNode, found := pad.node.Find("at"); found {
			atNode.SetFloat(3, pad.LocalAngle+angle)
		}
	}
}

// SetSide moves the footprint to the given board face. Only layer
// assignments change; pad offsets and orientation are untouched, so routing
// geometry is identical on both faces.
func (fp *Footprint) SetSide(side Side) {
	if fp.Side() == side {
		return
	}
	fp.Layer = flipLayerName(fp.Layer)
	if layerNode, found := fp.node.Find("layer"); found {
		layerNode.SetStr(1, fp.Layer)
	}
	for _, pad := range fp.Pads {
		for i, layer := range pad.Layers {
			pad.Layers[i] = flipLayerName(layer)
		}
		if layersNode, found := pad.node.Find("layers"); found {
			for i := 1; i < len(layersNode.Items); i++ {
				if name, err := layersNode.Str(i); err == nil {
					layersNode.SetStr(i, flipLayerName(name))
				}
			}
		}
	}
	for _, kind := range []string{"fp_line", "fp_circle", "fp_arc", "fp_rect", "fp_poly", "fp_text"} {
		for _, g := range fp.node.FindAll(kind) {
			if layerNode, found := g.Find("layer"); found {
				if name, err := layerNode.Str(1); err == nil {
					layerNode.SetStr(1, flipLayerName(name))
				}
			}
		}
	}
}

// flipLayerName mirrors a layer name to the opposite board face. Wildcard
// layers like "*.Cu" stay as they are.
func flipLayerName(name string) string {
	switch {
	case strings.HasPrefix(name, "F."):
		return "B." + name[2:]
	case strings.HasPrefix(name, "B."):
		return "F." + name[2:]
	default:
		return name
	}
}

// Pad returns the footprint's pad with the given number, or nil.
func (fp *Footprint) Pad(number string) *Pad {
	for _, pad := range fp.Pads {
		if pad.Number == number {
			return pad
		}
	}
	return nil
}

// PadPosition returns the pad's absolute board position: the footprint
// position plus the pad offset rotated by the footprint orientation.
func (fp *Footprint) PadPosition(pad *Pad) Position {
	return fp.Position.Position.Add(pad.Offset.Rotate(fp.Position.Angle)).Snap()
}

// CopperLayer returns the copper layer for traces connecting to this
// footprint: F.Cu for front footprints, B.Cu for back ones.
func (fp *Footprint) CopperLayer() string {
	if fp.Side() == SideBack {
		return "B.Cu"
	}
	return "F.Cu"
}

// AddTrack creates a straight copper segment and appends it to the board
// document. Coordinates are snapped to the nanometer grid.
func (b *Board) AddTrack(start, end Position, width float64, layer string, net *Net) *Track {
	if width <= 0 {
		width = defaultTrackWidth
	}
	start = start.Snap()
	end = end.Snap()

	track := &Track{
		Start: start,
		End:   end,
		Width: width,
		Layer: layer,
		Net:   net,
		UUID:  uuid.NewString(),
	}

	node := sexp.NewList(
		sexp.Symbol("segment"),
		sexp.NewList(sexp.Symbol("start"), sexp.Float(start.X), sexp.Float(start.Y)),
		sexp.NewList(sexp.Symbol("end"), sexp.Float(end.X), sexp.Float(end.Y)),
		sexp.NewList(sexp.Symbol("width"), sexp.Float(width)),
		sexp.NewList(sexp.Symbol("layer"), sexp.String(layer)),
	)
	if net != nil {
		node.Append(sexp.NewList(sexp.Symbol("net"), sexp.Int(net.Number)))
	}
	node.Append(sexp.NewList(sexp.Symbol("uuid"), sexp.String(track.UUID)))

	track.node = node
	b.root.Append(node)
	b.Tracks = append(b.Tracks, track)
	return track
}

// RemoveTrack deletes a track from the board and its document.
func (b *Board) RemoveTrack(track *Track) {
	b.root.Remove(track.node)
	for i, t := range b.Tracks {
		if t == track {
			b.Tracks = append(b.Tracks[:i], b.Tracks[i+1:]...)
			return
		}
	}
}
