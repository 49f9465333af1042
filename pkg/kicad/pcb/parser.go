package pcb

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ceoloide/kicad-kbplacer/pkg/kicad/sexp"
)

// Minimum supported KiCad version (6.0 = 20211014).
const MinSupportedVersion = 20211014

// ParseFile reads and parses a KiCad board file.
func ParseFile(filename string) (*Board, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// ParseString parses a KiCad board from a string. Used mostly by tests.
func ParseString(input string) (*Board, error) {
	return Parse(strings.NewReader(input))
}

// Parse reads and parses a KiCad board from an io.Reader.
func Parse(r io.Reader) (*Board, error) {
	root, err := sexp.ParseOne(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s-expression: %w", err)
	}

	if root.Name() != "kicad_pcb" {
		return nil, fmt.Errorf("not a KiCad PCB file: expected 'kicad_pcb', got '%s'", root.Name())
	}

	board := &Board{
		root:      root,
		netByNum:  make(map[int]*Net),
		netByName: make(map[string]*Net),
	}

	if err := parseHeader(root, board); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	if err := parseNets(root, board); err != nil {
		return nil, fmt.Errorf("failed to parse nets: %w", err)
	}

	for _, node := range root.FindAll("footprint") {
		fp, err := parseFootprint(node, board)
		if err != nil {
			return nil, fmt.Errorf("failed to parse footprint: %w", err)
		}
		board.Footprints = append(board.Footprints, fp)
	}
	// KiCad 5 used (module ...) for footprints
	for _, node := range root.FindAll("module") {
		fp, err := parseFootprint(node, board)
		if err != nil {
			return nil, fmt.Errorf("failed to parse module: %w", err)
		}
		board.Footprints = append(board.Footprints, fp)
	}

	for _, node := range root.FindAll("segment") {
		track, err := parseTrack(node, board)
		if err != nil {
			return nil, fmt.Errorf("failed to parse segment: %w", err)
		}
		board.Tracks = append(board.Tracks, track)
	}

	return board, nil
}

func parseHeader(root *sexp.List, board *Board) error {
	versionNode, found := root.Find("version")
	if !found {
		return fmt.Errorf("missing required 'version' field")
	}
	ver, err := versionNode.Int(1)
	if err != nil {
		return fmt.Errorf("failed to parse version: %w", err)
	}
	if ver < MinSupportedVersion {
		return fmt.Errorf("unsupported KiCad version: %d (minimum required: %d / KiCad 6.0)", ver, MinSupportedVersion)
	}
	board.Version = ver

	board.Generator = "unknown"
	if genNode, found := root.Find("generator"); found {
		if gen, err := genNode.Str(1); err == nil {
			board.Generator = gen
		}
	} else if hostNode, found := root.Find("host"); found {
		if gen, err := hostNode.Str(1); err == nil {
			board.Generator = gen
		}
	}
	return nil
}

func parseNets(root *sexp.List, board *Board) error {
	for _, netNode := range root.FindAll("net") {
		number, err := netNode.Int(1)
		if err != nil {
			return fmt.Errorf("failed to parse net number: %w", err)
		}
		name := ""
		if n, err := netNode.Str(2); err == nil {
			name = n
		}
		net := &Net{Number: number, Name: name}
		board.Nets = append(board.Nets, net)
		board.netByNum[number] = net
		if name != "" {
			board.netByName[name] = net
		}
	}
	return nil
}

// parsePosition extracts (at X Y [angle]) into a PositionAngle.
func parsePosition(node *sexp.List) (PositionAngle, error) {
	x, err := node.Float(1)
	if err != nil {
		return PositionAngle{}, fmt.Errorf("failed to parse X position: %w", err)
	}
	y, err := node.Float(2)
	if err != nil {
		return PositionAngle{}, fmt.Errorf("failed to parse Y position: %w", err)
	}
	result := PositionAngle{Position: Position{X: x, Y: y}}
	if angle, err := node.Float(3); err == nil {
		result.Angle = angle
	}
	return result, nil
}

func parseFootprint(node *sexp.List, board *Board) (*Footprint, error) {
	fp := &Footprint{node: node}

	fpName, err := node.Str(1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse footprint name: %w", err)
	}
	if lib, name, found := strings.Cut(fpName, ":"); found {
		fp.Library = lib
		fp.Name = name
	} else {
		fp.Name = fpName
	}

	layerNode, found := node.Find("layer")
	if !found {
		return nil, fmt.Errorf("missing required 'layer' field")
	}
	if fp.Layer, err = layerNode.Str(1); err != nil {
		return nil, fmt.Errorf("failed to parse layer: %w", err)
	}

	atNode, found := node.Find("at")
	if !found {
		return nil, fmt.Errorf("missing required 'at' position")
	}
	if fp.Position, err = parsePosition(atNode); err != nil {
		return nil, err
	}

	// KiCad 7+ stores reference and value as properties, KiCad 6 as fp_text
	for _, propNode := range node.FindAll("property") {
		propName, err := propNode.Str(1)
		if err != nil {
			continue
		}
		propValue, err := propNode.Str(2)
		if err != nil {
			continue
		}
		switch propName {
		case "Reference":
			fp.Reference = propValue
		case "Value":
			fp.Value = propValue
		}
	}
	for _, textNode := range node.FindAll("fp_text") {
		kind, err := textNode.Str(1)
		if err != nil {
			continue
		}
		value, err := textNode.Str(2)
		if err != nil {
			continue
		}
		switch kind {
		case "reference":
			if fp.Reference == "" {
				fp.Reference = value
			}
		case "value":
			if fp.Value == "" {
				fp.Value = value
			}
		}
	}

	for _, padNode := range node.FindAll("pad") {
		pad, err := parsePad(padNode, fp, board)
		if err != nil {
			return nil, fmt.Errorf("pad of %s: %w", fp.Reference, err)
		}
		fp.Pads = append(fp.Pads, pad)
	}

	return fp, nil
}

func parsePad(node *sexp.List, fp *Footprint, board *Board) (*Pad, error) {
	pad := &Pad{node: node}

	number, err := node.Str(1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pad number: %w", err)
	}
	pad.Number = number

	if pad.Type, err = node.Str(2); err != nil {
		return nil, fmt.Errorf("failed to parse pad type: %w", err)
	}
	if pad.Shape, err = node.Str(3); err != nil {
		return nil, fmt.Errorf("failed to parse pad shape: %w", err)
	}

	atNode, found := node.Find("at")
	if !found {
		return nil, fmt.Errorf("missing required 'at' position")
	}
	at, err := parsePosition(atNode)
	if err != nil {
		return nil, err
	}
	pad.Offset = at.Position
	// pad angles are stored absolute in the file
	pad.LocalAngle = at.Angle - fp.Position.Angle

	sizeNode, found := node.Find("size")
	if !found {
		return nil, fmt.Errorf("missing required 'size' field")
	}
	w, err := sizeNode.Float(1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pad width: %w", err)
	}
	h, err := sizeNode.Float(2)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pad height: %w", err)
	}
	pad.Size = Size{Width: w, Height: h}

	if drillNode, found := node.Find("drill"); found {
		if drill, err := drillNode.Float(1); err == nil {
			pad.Drill = drill
		}
	}

	layersNode, found := node.Find("layers")
	if !found {
		return nil, fmt.Errorf("missing required 'layers' field")
	}
	for i := 1; i < len(layersNode.Items); i++ {
		if layer, err := layersNode.Str(i); err == nil {
			pad.Layers = append(pad.Layers, layer)
		}
	}

	if netNode, found := node.Find("net"); found {
		if netNum, err := netNode.Int(1); err == nil {
			pad.Net = board.netByNum[netNum]
		}
	}

	return pad, nil
}

func parseTrack(node *sexp.List, board *Board) (*Track, error) {
	track := &Track{node: node, Width: defaultTrackWidth, Layer: "F.Cu"}

	startNode, found := node.Find("start")
	if !found {
		return nil, fmt.Errorf("missing required 'start' field")
	}
	x, err := startNode.Float(1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start X: %w", err)
	}
	y, err := startNode.Float(2)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start Y: %w", err)
	}
	track.Start = Position{X: x, Y: y}

	endNode, found := node.Find("end")
	if !found {
		return nil, fmt.Errorf("missing required 'end' field")
	}
	if x, err = endNode.Float(1); err != nil {
		return nil, fmt.Errorf("failed to parse end X: %w", err)
	}
	if y, err = endNode.Float(2); err != nil {
		return nil, fmt.Errorf("failed to parse end Y: %w", err)
	}
	track.End = Position{X: x, Y: y}

	if widthNode, found := node.Find("width"); found {
		if w, err := widthNode.Float(1); err == nil {
			track.Width = w
		}
	}
	if layerNode, found := node.Find("layer"); found {
		if l, err := layerNode.Str(1); err == nil {
			track.Layer = l
		}
	}
	if netNode, found := node.Find("net"); found {
		if n, err := netNode.Int(1); err == nil {
			track.Net = board.netByNum[n]
		}
	}
	if uuidNode, found := node.Find("uuid"); found {
		if u, err := uuidNode.Str(1); err == nil {
			track.UUID = u
		}
	} else if tstampNode, found := node.Find("tstamp"); found {
		if u, err := tstampNode.Str(1); err == nil {
			track.UUID = u
		}
	}

	return track, nil
}
