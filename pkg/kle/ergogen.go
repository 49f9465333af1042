package kle

import (
	"sort"

	"gopkg.in/yaml.v3"
)

// ergogen expresses positions in millimeters with the Y axis pointing up;
// one key unit is assumed to be the standard 19.05 mm pitch.
const ergogenKeyPitch = 19.05

type ergogenPoint struct {
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	R    float64 `yaml:"r"`
	Meta struct {
		Skip bool `yaml:"skip"`
	} `yaml:"meta"`
}

// ParseErgogenPoints converts an ergogen points file (the canonical
// points.yaml debug output) into a keyboard. Points are emitted in a stable
// name order since YAML mappings carry no reliable ordering guarantee
// across tools.
func ParseErgogenPoints(data []byte) (*Keyboard, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &InvalidLayoutError{Reason: err.Error()}
	}
	if len(doc) == 0 {
		return nil, &InvalidLayoutError{Reason: "empty ergogen points file"}
	}

	// some exports nest everything under a top-level "points" mapping
	points := doc
	if inner, ok := doc["points"]; ok && inner.Kind == yaml.MappingNode {
		points = map[string]yaml.Node{}
		for i := 0; i+1 < len(inner.Content); i += 2 {
			points[inner.Content[i].Value] = *inner.Content[i+1]
		}
	}

	names := make([]string, 0, len(points))
	parsed := make(map[string]ergogenPoint, len(points))
	for name, node := range points {
		var p ergogenPoint
		if err := node.Decode(&p); err != nil {
			return nil, &InvalidLayoutError{Reason: err.Error()}
		}
		if p.Meta.Skip {
			continue
		}
		names = append(names, name)
		parsed[name] = p
	}
	sort.Strings(names)

	keyboard := &Keyboard{}
	for _, name := range names {
		p := parsed[name]
		key := Key{
			// positions name the key center: shift by half a key so the
			// board transform's center correction cancels out
			X:             p.X/ergogenKeyPitch - 0.5,
			Y:             -p.Y/ergogenKeyPitch - 0.5,
			Width:         1,
			Height:        1,
			RotationAngle: -p.R,
			Labels:        []string{name},
		}
		if p.R != 0 {
			key.RotationX = p.X / ergogenKeyPitch
			key.RotationY = -p.Y / ergogenKeyPitch
		}
		keyboard.Keys = append(keyboard.Keys, key)
	}
	return keyboard, nil
}
