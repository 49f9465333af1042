package sexp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleList(t *testing.T) {
	nodes, err := ParseString(`(version 20221018)`)
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	list, ok := nodes[0].(*List)
	require.True(t, ok)
	assert.Equal(t, "version", list.Name())

	v, err := list.Int(1)
	require.NoError(t, err)
	assert.Equal(t, 20221018, v)
}

func TestParseNestedAndQuoted(t *testing.T) {
	input := `(footprint "Diode_SMD:D_SOD-323" (layer "F.Cu") (at 12.7 -5.08 90))`
	root, err := ParseOne(strings.NewReader(input))
	require.NoError(t, err)

	name, err := root.Str(1)
	require.NoError(t, err)
	assert.Equal(t, "Diode_SMD:D_SOD-323", name)

	at, found := root.Find("at")
	require.True(t, found)
	x, err := at.Float(1)
	require.NoError(t, err)
	y, err := at.Float(2)
	require.NoError(t, err)
	angle, err := at.Float(3)
	require.NoError(t, err)
	assert.Equal(t, 12.7, x)
	assert.Equal(t, -5.08, y)
	assert.Equal(t, 90.0, angle)
}

func TestParseStringEscapes(t *testing.T) {
	root, err := ParseOne(strings.NewReader(`(property "Value" "1N4148 \"fast\"")`))
	require.NoError(t, err)

	v, err := root.Str(2)
	require.NoError(t, err)
	assert.Equal(t, `1N4148 "fast"`, v)
}

func TestParseSkipsComments(t *testing.T) {
	nodes, err := ParseString("# leading comment\n(net 1 \"GND\") # trailing\n")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
}

func TestParseErrors(t *testing.T) {
	_, err := ParseString(`(unterminated`)
	assert.Error(t, err)

	_, err = ParseString(`)`)
	assert.Error(t, err)

	_, err = ParseOne(strings.NewReader(""))
	assert.Error(t, err)
}

func TestFindAll(t *testing.T) {
	root, err := ParseOne(strings.NewReader(`(kicad_pcb (net 0 "") (net 1 "GND") (setup))`))
	require.NoError(t, err)

	nets := root.FindAll("net")
	assert.Len(t, nets, 2)
}

func TestMutation(t *testing.T) {
	root, err := ParseOne(strings.NewReader(`(segment (start 1 2) (end 3 4))`))
	require.NoError(t, err)

	start, _ := root.Find("start")
	require.NoError(t, start.SetFloat(1, 5.5))

	x, err := start.Float(1)
	require.NoError(t, err)
	assert.Equal(t, 5.5, x)

	end, _ := root.Find("end")
	require.True(t, root.Remove(end))
	_, found := root.Find("end")
	assert.False(t, found)
}

func TestRoundTrip(t *testing.T) {
	input := `(kicad_pcb (version 20221018) (net 1 "Net-(D1-Pad2)") (segment (start 1.05 5) (end 2.54 -5.08) (width 0.25) (layer "F.Cu") (net 1)))`
	root, err := ParseOne(strings.NewReader(input))
	require.NoError(t, err)

	text := Format(root)
	reparsed, err := ParseOne(strings.NewReader(text))
	require.NoError(t, err)

	assert.Equal(t, Format(root), Format(reparsed))

	seg, found := reparsed.Find("segment")
	require.True(t, found)
	start, found := seg.Find("start")
	require.True(t, found)
	x, err := start.Float(1)
	require.NoError(t, err)
	assert.Equal(t, 1.05, x)
}

func TestFloatFormatting(t *testing.T) {
	assert.Equal(t, "2.54", Float(2.54).Value)
	assert.Equal(t, "19.05", Float(19.05).Value)
	assert.Equal(t, "0", Float(0).Value)
	assert.Equal(t, "-5.08", Float(-5.08).Value)
}
