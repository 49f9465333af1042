package kle

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// maxLabels is the number of label slots keyboard-layout-editor supports.
const maxLabels = 12

// defaultLabelAlignment is the alignment flag KLE assumes until a row item
// sets "a" explicitly.
const defaultLabelAlignment = 4

// labelAlignmentMap translates newline-separated label parts into slot
// positions, one row per KLE alignment flag. A -1 entry drops the part.
var labelAlignmentMap = [8][maxLabels]int{
	{0, 6, 2, 8, 9, 11, 3, 5, 1, 4, 7, 10},
	{1, 7, -1, -1, 9, 11, 4, -1, -1, -1, -1, 10},
	{3, -1, 5, -1, 9, 11, -1, -1, 4, -1, -1, 10},
	{4, -1, -1, -1, 9, 11, -1, -1, -1, -1, -1, 10},
	{0, 6, 2, 8, 10, -1, 3, 5, 1, 4, 7, -1},
	{1, 7, -1, -1, 10, -1, 4, -1, -1, -1, -1, -1},
	{3, -1, 5, -1, 10, -1, -1, -1, 4, -1, -1, -1},
	{4, -1, -1, -1, 10, -1, -1, -1, -1, -1, -1, -1},
}

// GetKeyboard decodes a layout from raw JSON, accepting the KLE internal
// format ({"meta": ..., "keys": [...]}), the VIA definition format
// ({"layouts": {"keymap": [...]}}) or raw KLE rows ([[...], ...]).
func GetKeyboard(data []byte) (*Keyboard, error) {
	trimmed := strings.TrimLeftFunc(string(data), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if strings.HasPrefix(trimmed, "[") {
		var rows []json.RawMessage
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, &InvalidLayoutError{Reason: err.Error()}
		}
		return parseRawRows(rows)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &InvalidLayoutError{Reason: err.Error()}
	}
	if _, ok := probe["keys"]; ok {
		return parseInternal(data)
	}
	if _, ok := probe["layouts"]; ok {
		return parseVIA(data)
	}
	return nil, &InvalidLayoutError{Reason: "unrecognized layout format"}
}

// GetKeyboardFromFile loads a layout file, dispatching on content.
func GetKeyboardFromFile(path string) (*Keyboard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout: %w", err)
	}
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return ParseErgogenPoints(data)
	}
	return GetKeyboard(data)
}

// parseInternal decodes the KLE internal format, the lossless representation
// keyboard-layout-editor uses for import/export.
func parseInternal(data []byte) (*Keyboard, error) {
	type internalKey struct {
		X             float64   `json:"x"`
		Y             float64   `json:"y"`
		Width         *float64  `json:"width"`
		Height        *float64  `json:"height"`
		RotationX     float64   `json:"rotation_x"`
		RotationY     float64   `json:"rotation_y"`
		RotationAngle float64   `json:"rotation_angle"`
		Decal         bool      `json:"decal"`
		Ghost         bool      `json:"ghost"`
		Labels        []*string `json:"labels"`
	}
	var raw struct {
		Meta Metadata      `json:"meta"`
		Keys []internalKey `json:"keys"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &InvalidLayoutError{Reason: err.Error()}
	}

	keyboard := &Keyboard{Meta: raw.Meta}
	for _, rk := range raw.Keys {
		key := Key{
			X:             rk.X,
			Y:             rk.Y,
			Width:         1,
			Height:        1,
			RotationX:     rk.RotationX,
			RotationY:     rk.RotationY,
			RotationAngle: rk.RotationAngle,
			Decal:         rk.Decal,
			Ghost:         rk.Ghost,
		}
		if rk.Width != nil {
			key.Width = *rk.Width
		}
		if rk.Height != nil {
			key.Height = *rk.Height
		}
		for _, label := range rk.Labels {
			if label == nil {
				key.Labels = append(key.Labels, "")
			} else {
				key.Labels = append(key.Labels, *label)
			}
		}
		annotateFromLabels(&key)
		keyboard.Keys = append(keyboard.Keys, key)
	}
	return keyboard, nil
}

// annotateFromLabels lifts the magic label slots into first-class fields.
func annotateFromLabels(key *Key) {
	if v, ok := label(key, explicitAnnotationLabel); ok {
		if idx, err := strconv.Atoi(v); err == nil && idx > 0 {
			key.ExplicitSwitchIndex = &idx
		}
	}
	if v, ok := label(key, matrixLabel); ok {
		row, col, found := strings.Cut(v, ",")
		if found {
			r, errR := strconv.Atoi(strings.TrimSpace(row))
			c, errC := strconv.Atoi(strings.TrimSpace(col))
			if errR == nil && errC == nil {
				key.MatrixRow = &r
				key.MatrixCol = &c
			}
		}
	}
}

func label(key *Key, slot int) (string, bool) {
	if slot >= len(key.Labels) || key.Labels[slot] == "" {
		return "", false
	}
	return key.Labels[slot], true
}

// SetLabel assigns a label slot, growing the slice as needed, and refreshes
// the derived annotation fields.
func (k *Key) SetLabel(slot int, value string) {
	if slot < 0 || slot >= maxLabels {
		return
	}
	for len(k.Labels) <= slot {
		k.Labels = append(k.Labels, "")
	}
	k.Labels[slot] = value
	annotateFromLabels(k)
}

// parseRawRows decodes the raw KLE array-of-rows format. Property objects
// mutate a running cursor; strings emit keys.
func parseRawRows(rows []json.RawMessage) (*Keyboard, error) {
	keyboard := &Keyboard{}

	cursor := Key{Width: 1, Height: 1}
	clusterX, clusterY := 0.0, 0.0
	align := defaultLabelAlignment

	for rowIdx, rawRow := range rows {
		var row []json.RawMessage
		if err := json.Unmarshal(rawRow, &row); err != nil {
			// first element may be a metadata object
			if rowIdx == 0 {
				var meta Metadata
				if err := json.Unmarshal(rawRow, &meta); err == nil {
					keyboard.Meta = meta
					continue
				}
			}
			return nil, &InvalidLayoutError{Reason: fmt.Sprintf("row %d is not an array", rowIdx)}
		}

		for _, item := range row {
			var labels string
			if err := json.Unmarshal(item, &labels); err == nil {
				key := cursor
				key.Labels = splitLabels(labels, align)
				annotateFromLabels(&key)
				keyboard.Keys = append(keyboard.Keys, key)

				cursor.X += cursor.Width
				cursor.Width = 1
				cursor.Height = 1
				cursor.Decal = false
				continue
			}

			var props map[string]json.RawMessage
			if err := json.Unmarshal(item, &props); err != nil {
				return nil, &InvalidLayoutError{Reason: "unexpected entry in layout row"}
			}
			if err := applyProps(&cursor, &clusterX, &clusterY, &align, props); err != nil {
				return nil, err
			}
		}

		cursor.Y++
		cursor.X = cursor.RotationX
	}

	return keyboard, nil
}

func applyProps(cursor *Key, clusterX, clusterY *float64, align *int, props map[string]json.RawMessage) error {
	num := func(key string) (float64, bool) {
		raw, ok := props[key]
		if !ok {
			return 0, false
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return 0, false
		}
		return v, true
	}

	if a, ok := num("a"); ok {
		if v := int(a); v >= 0 && v < len(labelAlignmentMap) {
			*align = v
		}
	}
	if r, ok := num("r"); ok {
		cursor.RotationAngle = r
	}
	if rx, ok := num("rx"); ok {
		cursor.RotationX = rx
		*clusterX = rx
		cursor.X = *clusterX
		cursor.Y = *clusterY
	}
	if ry, ok := num("ry"); ok {
		cursor.RotationY = ry
		*clusterY = ry
		cursor.X = *clusterX
		cursor.Y = *clusterY
	}
	if dx, ok := num("x"); ok {
		cursor.X += dx
	}
	if dy, ok := num("y"); ok {
		cursor.Y += dy
	}
	if w, ok := num("w"); ok {
		cursor.Width = w
	}
	if h, ok := num("h"); ok {
		cursor.Height = h
	}
	if raw, ok := props["d"]; ok {
		var d bool
		if err := json.Unmarshal(raw, &d); err == nil {
			cursor.Decal = d
		}
	}
	if raw, ok := props["g"]; ok {
		var g bool
		if err := json.Unmarshal(raw, &g); err == nil {
			cursor.Ghost = g
		}
	}
	return nil
}

// splitLabels breaks a KLE label string into parts and routes each part to
// its slot through the alignment map, dropping parts beyond the last
// supported slot. Trailing empty slots are trimmed.
func splitLabels(s string, align int) []string {
	parts := strings.Split(s, "\n")
	if len(parts) > maxLabels {
		parts = parts[:maxLabels]
	}
	labels := make([]string, maxLabels)
	for i, part := range parts {
		if part == "" {
			continue
		}
		slot := labelAlignmentMap[align][i]
		if slot < 0 {
			continue
		}
		labels[slot] = part
	}
	for len(labels) > 0 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}
	return labels
}
