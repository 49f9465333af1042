package placer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceoloide/kicad-kbplacer/pkg/kicad/pcb"
	"github.com/ceoloide/kicad-kbplacer/pkg/kle"
)

// fpSpec describes one fixture footprint: a Cherry MX style switch or a
// SOD-323 diode, with the net numbers wired to its numbered pads.
type fpSpec struct {
	ref   string
	x, y  float64
	angle float64
	net1  int
	net2  int
}

func switchSexpr(fp fpSpec) string {
	at := fmt.Sprintf("(at %g %g)", fp.x, fp.y)
	if fp.angle != 0 {
		at = fmt.Sprintf("(at %g %g %g)", fp.x, fp.y, fp.angle)
	}
	return fmt.Sprintf(`(footprint "Switch_Keyboard:SW_Cherry_MX_PCB_1.00u" (layer "F.Cu")
		%s
		(property "Reference" %q (at 0 -8))
		(property "Value" "SW_Cherry_MX" (at 0 8))
		(pad "" np_thru_hole circle (at 0 0) (size 4 4) (drill 4) (layers "*.Cu" "*.Mask"))
		(pad "" np_thru_hole circle (at -5.08 0) (size 1.7 1.7) (drill 1.7) (layers "*.Cu" "*.Mask"))
		(pad "" np_thru_hole circle (at 5.08 0) (size 1.7 1.7) (drill 1.7) (layers "*.Cu" "*.Mask"))
		(pad "1" thru_hole circle (at -3.81 -2.54) (size 2.2 2.2) (drill 1.5) (layers "*.Cu" "*.Mask") (net %d))
		(pad "2" thru_hole circle (at 2.54 -5.08) (size 2.2 2.2) (drill 1.5) (layers "*.Cu" "*.Mask") (net %d))
	)
`, at, fp.ref, fp.net1, fp.net2)
}

func diodeSexpr(fp fpSpec) string {
	at := fmt.Sprintf("(at %g %g)", fp.x, fp.y)
	padAngle := ""
	if fp.angle != 0 {
		at = fmt.Sprintf("(at %g %g %g)", fp.x, fp.y, fp.angle)
		padAngle = fmt.Sprintf(" %g", fp.angle)
	}
	return fmt.Sprintf(`(footprint "Diode_SMD:D_SOD-323" (layer "F.Cu")
		%s
		(property "Reference" %q (at 0 -2))
		(property "Value" "1N4148W" (at 0 2))
		(pad "1" smd rect (at -1.05 0%s) (size 0.9 1.2) (layers "F.Cu" "F.Paste" "F.Mask") (net %d))
		(pad "2" smd rect (at 1.05 0%s) (size 0.9 1.2) (layers "F.Cu" "F.Paste" "F.Mask") (net %d))
	)
`, at, fp.ref, padAngle, fp.net1, padAngle, fp.net2)
}

// buildBoard assembles a parseable board from net names (numbered from 1),
// footprints and optional extra s-expressions such as segments.
func buildBoard(t *testing.T, nets []string, switches, diodes []fpSpec, extra string) *pcb.Board {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("(kicad_pcb (version 20221018) (generator \"pcbnew\")\n")
	sb.WriteString("\t(net 0 \"\")\n")
	for i, name := range nets {
		fmt.Fprintf(&sb, "\t(net %d %q)\n", i+1, name)
	}
	for _, fp := range switches {
		sb.WriteString(switchSexpr(fp))
	}
	for _, fp := range diodes {
		sb.WriteString(diodeSexpr(fp))
	}
	sb.WriteString(extra)
	sb.WriteString(")")

	board, err := pcb.ParseString(sb.String())
	require.NoError(t, err)
	return board
}

// matrixBoard builds rows*cols switch/diode pairs named SW1../D1.. with one
// column net per column and one diode net per pair, parked in a row well
// away from the placement area.
func matrixBoard(t *testing.T, rows, cols int) *pcb.Board {
	t.Helper()

	count := rows * cols
	var nets []string
	for c := 1; c <= cols; c++ {
		nets = append(nets, fmt.Sprintf("COL%d", c))
	}
	for n := 1; n <= count; n++ {
		nets = append(nets, fmt.Sprintf("Net-(D%d-Pad2)", n))
	}

	var switches, diodes []fpSpec
	for n := 1; n <= count; n++ {
		col := (n-1)%cols + 1
		pairNet := cols + n
		switches = append(switches, fpSpec{
			ref: fmt.Sprintf("SW%d", n), x: float64(200 + 20*n), y: 200,
			net1: col, net2: pairNet,
		})
		diodes = append(diodes, fpSpec{
			ref: fmt.Sprintf("D%d", n), x: float64(200 + 20*n), y: 230,
			net1: 0, net2: pairNet,
		})
	}
	return buildBoard(t, nets, switches, diodes, "")
}

func assertPos(t *testing.T, want, got pcb.Position) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.Y, got.Y, 1e-9)
}

func mustLayout(t *testing.T, data string) *kle.Keyboard {
	t.Helper()
	keyboard, err := kle.GetKeyboard([]byte(data))
	require.NoError(t, err)
	return keyboard
}

func grid2x2(t *testing.T) *kle.Keyboard {
	return mustLayout(t, `[["0,0", "0,1"], ["1,0", "1,1"]]`)
}

func fpByRef(t *testing.T, board *pcb.Board, ref string) *pcb.Footprint {
	t.Helper()
	matches := board.FootprintsByReference(ref)
	require.Len(t, matches, 1)
	return matches[0]
}

func TestRunPlacesGrid(t *testing.T) {
	board := matrixBoard(t, 2, 2)
	placer := New(board)

	report, err := placer.Run(grid2x2(t), ElementInfo{Annotation: "SW{}"}, ElementInfo{Annotation: "D{}"}, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, report.PlacedSwitches)
	assert.Equal(t, 4, report.PlacedElements)

	assertPos(t, pcb.Position{X: 9.525, Y: 9.525}, fpByRef(t, board, "SW1").Position.Position)
	assertPos(t, pcb.Position{X: 28.575, Y: 9.525}, fpByRef(t, board, "SW2").Position.Position)
	assertPos(t, pcb.Position{X: 9.525, Y: 28.575}, fpByRef(t, board, "SW3").Position.Position)
	assertPos(t, pcb.Position{X: 28.575, Y: 28.575}, fpByRef(t, board, "SW4").Position.Position)
}

func TestRunScalesWithKeyDistance(t *testing.T) {
	board := matrixBoard(t, 2, 2)
	placer := New(board, WithKeyDistance(18, 17))

	_, err := placer.Run(grid2x2(t), ElementInfo{Annotation: "SW{}"}, ElementInfo{Annotation: "D{}"}, false, nil)
	require.NoError(t, err)

	assertPos(t, pcb.Position{X: 9, Y: 8.5}, fpByRef(t, board, "SW1").Position.Position)
	assertPos(t, pcb.Position{X: 27, Y: 8.5}, fpByRef(t, board, "SW2").Position.Position)
	assertPos(t, pcb.Position{X: 9, Y: 25.5}, fpByRef(t, board, "SW3").Position.Position)
	assertPos(t, pcb.Position{X: 27, Y: 25.5}, fpByRef(t, board, "SW4").Position.Position)
}

func TestRunDefaultDiodePosition(t *testing.T) {
	board := matrixBoard(t, 1, 1)
	placer := New(board)

	_, err := placer.Run(mustLayout(t, `[["0,0"]]`), ElementInfo{Annotation: "SW{}"}, ElementInfo{Annotation: "D{}"}, false, nil)
	require.NoError(t, err)

	diode := fpByRef(t, board, "D1")
	assertPos(t, pcb.Position{X: 9.525 + 5.08, Y: 9.525 + 3.03}, diode.Position.Position)
	assert.Equal(t, 90.0, diode.Position.Angle)
	assert.Equal(t, pcb.SideBack, diode.Side())
}

func TestRunCustomDiodePosition(t *testing.T) {
	board := matrixBoard(t, 1, 1)
	placer := New(board)

	diodeInfo := ElementInfo{
		Annotation: "D{}",
		Option:     PositionCustom,
		Position:   &ElementPosition{Offset: pcb.Position{X: 0, Y: 8}, Side: pcb.SideFront},
	}
	_, err := placer.Run(mustLayout(t, `[["0,0"]]`), ElementInfo{Annotation: "SW{}"}, diodeInfo, false, nil)
	require.NoError(t, err)

	diode := fpByRef(t, board, "D1")
	assertPos(t, pcb.Position{X: 9.525, Y: 17.525}, diode.Position.Position)
	assert.Equal(t, 0.0, diode.Position.Angle)
	assert.Equal(t, pcb.SideFront, diode.Side())
}

func TestRunCustomFollowsSwitchRotation(t *testing.T) {
	board := matrixBoard(t, 1, 1)
	placer := New(board)

	layout := mustLayout(t, `[[{"r": 90, "rx": 0.5, "ry": 0.5}, "0,0"]]`)
	diodeInfo := ElementInfo{
		Annotation: "D{}",
		Option:     PositionCustom,
		Position:   &ElementPosition{Offset: pcb.Position{X: 0, Y: 8}, Side: pcb.SideFront},
	}
	_, err := placer.Run(layout, ElementInfo{Annotation: "SW{}"}, diodeInfo, false, nil)
	require.NoError(t, err)

	sw := fpByRef(t, board, "SW1")
	assert.Equal(t, -90.0, sw.Position.Angle)

	// offset (0, 8) in the switch frame at -90 degrees lands at (-8, 0)
	diode := fpByRef(t, board, "D1")
	assertPos(t, sw.Position.Position.Add(pcb.Position{X: -8, Y: 0}), diode.Position.Position)
	assert.Equal(t, -90.0, diode.Position.Angle)
}

func TestRunCurrentRelative(t *testing.T) {
	board := matrixBoard(t, 1, 2)

	// arrange the first pair by hand: diode 8 mm below its switch, same side
	fpByRef(t, board, "D1").SetPosition(fpByRef(t, board, "SW1").Position.Position.Add(pcb.Position{X: 0, Y: 8}))
	fpByRef(t, board, "D1").SetRotation(0)
	fpByRef(t, board, "D2").SetPosition(pcb.Position{X: 300, Y: 300})

	placer := New(board)
	diodeInfo := ElementInfo{Annotation: "D{}", Option: PositionCurrentRelative}
	_, err := placer.Run(mustLayout(t, `[["0,0", "0,1"]]`), ElementInfo{Annotation: "SW{}"}, diodeInfo, false, nil)
	require.NoError(t, err)

	for _, ref := range []string{"1", "2"} {
		sw := fpByRef(t, board, "SW"+ref)
		diode := fpByRef(t, board, "D"+ref)
		assertPos(t, sw.Position.Position.Add(pcb.Position{X: 0, Y: 8}), diode.Position.Position)
		assert.Equal(t, sw.Side(), diode.Side())
	}
}

func TestRunUnchangedIsNoOp(t *testing.T) {
	board := matrixBoard(t, 1, 1)
	diode := fpByRef(t, board, "D1")
	before := diode.Position

	placer := New(board)
	diodeInfo := ElementInfo{Annotation: "D{}", Option: PositionUnchanged}
	_, err := placer.Run(mustLayout(t, `[["0,0"]]`), ElementInfo{Annotation: "SW{}"}, diodeInfo, false, nil)
	require.NoError(t, err)

	assert.Equal(t, before, diode.Position)
	assert.Equal(t, pcb.SideFront, diode.Side())
}

func TestRunUnchangedRoutesNothingWithoutSharedNet(t *testing.T) {
	// diode wired to an unrelated net: placement runs, routing finds no pair
	board := buildBoard(t,
		[]string{"COL1", "Net-(D1-Pad2)", "ROW_OTHER"},
		[]fpSpec{{ref: "SW1", x: 220, y: 200, net1: 1, net2: 2}},
		[]fpSpec{{ref: "D1", x: 220, y: 230, net2: 3}},
		"")

	placer := New(board)
	diodeInfo := ElementInfo{Annotation: "D{}", Option: PositionUnchanged}
	report, err := placer.Run(mustLayout(t, `[["0,0"]]`), ElementInfo{Annotation: "SW{}"}, diodeInfo, true, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, report.RoutedPairs)
	assert.Empty(t, report.Unroutable)
	assert.Empty(t, board.Tracks)
}

func TestRunRoutesGrid(t *testing.T) {
	board := matrixBoard(t, 2, 2)
	placer := New(board)

	report, err := placer.Run(grid2x2(t), ElementInfo{Annotation: "SW{}"}, ElementInfo{Annotation: "D{}"}, true, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, report.RoutedPairs)
	assert.Empty(t, report.Unroutable)
	assert.Len(t, board.Tracks, 8)
	assert.Equal(t, 0, report.RemovedTracks)
}

func TestRunLayoutMismatch(t *testing.T) {
	board := matrixBoard(t, 2, 2)
	sw1Before := fpByRef(t, board, "SW1").Position

	placer := New(board)
	_, err := placer.Run(grid2x2(t), ElementInfo{Annotation: "MX{}"}, ElementInfo{Annotation: "D{}"}, false, nil)

	var mismatch *LayoutMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "MX{}", mismatch.Annotation)
	assert.Contains(t, err.Error(), "MX{}")
	// nothing moved
	assert.Equal(t, sw1Before, fpByRef(t, board, "SW1").Position)
}

func TestRunSkipsMissingElementClass(t *testing.T) {
	board := matrixBoard(t, 1, 1)
	placer := New(board)

	additional := []ElementInfo{{Annotation: "ST{}", Option: PositionCustom, Position: &ZeroPosition}}
	report, err := placer.Run(mustLayout(t, `[["0,0"]]`), ElementInfo{Annotation: "SW{}"}, ElementInfo{Annotation: "D{}"}, false, additional)
	require.NoError(t, err)
	assert.Equal(t, 1, report.PlacedSwitches)
}

func TestRunCleansTracksWithoutDiodes(t *testing.T) {
	stray := `(segment (start 150 150) (end 160 150) (width 0.25) (layer "F.Cu") (net 1) (uuid "1c63e9f0-26dd-4766-a14c-3623e3529dd7"))
`
	board := buildBoard(t, []string{"COL1"},
		[]fpSpec{{ref: "SW1", x: 220, y: 200, net1: 1, net2: 0}},
		nil, stray)
	placer := New(board)

	report, err := placer.Run(mustLayout(t, `[["0,0"]]`), ElementInfo{Annotation: "SW{}"}, ElementInfo{Annotation: "D{}"}, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.PlacedSwitches)
	assert.Equal(t, 0, report.RoutedPairs)
	assert.Equal(t, 1, report.RemovedTracks)
	assert.Empty(t, board.Tracks)
}

func TestRunEmptyLayout(t *testing.T) {
	board := matrixBoard(t, 1, 1)
	placer := New(board)

	report, err := placer.Run(&kle.Keyboard{}, ElementInfo{Annotation: "SW{}"}, ElementInfo{Annotation: "D{}"}, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.PlacedSwitches)
	assert.Empty(t, board.Tracks)
}

func TestRunRejectsInvalidElementInfo(t *testing.T) {
	board := matrixBoard(t, 1, 1)
	placer := New(board)

	var cfg *ConfigError
	_, err := placer.Run(mustLayout(t, `[["0,0"]]`), ElementInfo{Annotation: "SW{}"},
		ElementInfo{Annotation: "D{}", Option: PositionCustom}, false, nil)
	assert.ErrorAs(t, err, &cfg)

	_, err = placer.Run(mustLayout(t, `[["0,0"]]`), ElementInfo{Annotation: "SW"},
		ElementInfo{Annotation: "D{}"}, false, nil)
	assert.ErrorAs(t, err, &cfg)

	// DEFAULT placement only exists for diodes
	_, err = placer.Run(mustLayout(t, `[["0,0"]]`), ElementInfo{Annotation: "SW{}"},
		ElementInfo{Annotation: "D{}"}, false, []ElementInfo{{Annotation: "ST{}"}})
	assert.ErrorAs(t, err, &cfg)
}

func TestRunSkipsDecals(t *testing.T) {
	board := matrixBoard(t, 1, 2)
	placer := New(board)

	layout := mustLayout(t, `[[{"d": true}, "logo", "0,0", "0,1"]]`)
	report, err := placer.Run(layout, ElementInfo{Annotation: "SW{}"}, ElementInfo{Annotation: "D{}"}, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.PlacedSwitches)

	// the decal occupies the first key unit; SW1 lands on the second
	assertPos(t, pcb.Position{X: 28.575, Y: 9.525}, fpByRef(t, board, "SW1").Position.Position)
}

func TestSwitchAssignments(t *testing.T) {
	layout := mustLayout(t, `{"keys": [
		{"x": 0, "y": 0, "labels": ["", "", "", "", "", "", "", "", "", "", "", "3"]},
		{"x": 1, "y": 0, "labels": ["", "", "", "", "", "", "", "", "", "", "", "1"]},
		{"x": 2, "y": 0},
		{"x": 3, "y": 0}
	]}`)

	assignments := SwitchAssignments(layout)
	require.Len(t, assignments, 4)
	indices := []int{assignments[0].Index, assignments[1].Index, assignments[2].Index, assignments[3].Index}
	assert.Equal(t, []int{3, 1, 2, 4}, indices)
}

func TestRunExplicitOrderOverride(t *testing.T) {
	board := matrixBoard(t, 1, 4)
	placer := New(board)

	layout := mustLayout(t, `{"keys": [
		{"x": 0, "y": 0, "labels": ["", "", "", "", "", "", "", "", "", "", "", "3"]},
		{"x": 1, "y": 0, "labels": ["", "", "", "", "", "", "", "", "", "", "", "1"]},
		{"x": 2, "y": 0},
		{"x": 3, "y": 0}
	]}`)
	_, err := placer.Run(layout, ElementInfo{Annotation: "SW{}"}, ElementInfo{Annotation: "D{}"}, false, nil)
	require.NoError(t, err)

	// SW3 takes the first key position, SW1 the second
	assertPos(t, pcb.Position{X: 9.525, Y: 9.525}, fpByRef(t, board, "SW3").Position.Position)
	assertPos(t, pcb.Position{X: 28.575, Y: 9.525}, fpByRef(t, board, "SW1").Position.Position)
	assertPos(t, pcb.Position{X: 47.625, Y: 9.525}, fpByRef(t, board, "SW2").Position.Position)
	assertPos(t, pcb.Position{X: 66.675, Y: 9.525}, fpByRef(t, board, "SW4").Position.Position)
}

func TestRegistry(t *testing.T) {
	board := matrixBoard(t, 1, 2)
	registry := NewFootprintRegistry(board)

	assert.Equal(t, "SW12", Format("SW{}", 12))
	assert.Equal(t, "S12W", Format("S{}W", 12))

	fp, err := registry.Switch("SW{}", 2)
	require.NoError(t, err)
	assert.Equal(t, "SW2", fp.Reference)

	_, err = registry.Switch("SW{}", 9)
	assert.Error(t, err)

	assert.True(t, registry.AnyMatch("SW{}"))
	assert.True(t, registry.AnyMatch("D{}"))
	assert.False(t, registry.AnyMatch("MX{}"))
	assert.False(t, registry.AnyMatch("SW{}A"))
}
