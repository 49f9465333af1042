package placer

import "github.com/ceoloide/kicad-kbplacer/pkg/kle"

// SwitchAssignment binds one layout key to the switch index whose footprints
// it controls.
type SwitchAssignment struct {
	Key   kle.Key
	Index int
}

// SwitchAssignments walks the layout's keys in file order, skipping decals,
// and assigns each a 1-based switch index. A key carrying an explicit switch
// index claims that index; the remaining keys take the lowest indices not
// claimed by any explicit key, preserving file order.
func SwitchAssignments(keyboard *kle.Keyboard) []SwitchAssignment {
	claimed := make(map[int]bool)
	for _, key := range keyboard.Keys {
		if key.Decal {
			continue
		}
		if key.ExplicitSwitchIndex != nil {
			claimed[*key.ExplicitSwitchIndex] = true
		}
	}

	var assignments []SwitchAssignment
	next := 1
	for _, key := range keyboard.Keys {
		if key.Decal {
			continue
		}
		var index int
		if key.ExplicitSwitchIndex != nil {
			index = *key.ExplicitSwitchIndex
		} else {
			for claimed[next] {
				next++
			}
			index = next
			claimed[next] = true
		}
		assignments = append(assignments, SwitchAssignment{Key: key, Index: index})
	}
	return assignments
}
