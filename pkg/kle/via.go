package kle

import "encoding/json"

// parseVIA decodes a VIA keyboard definition. The keymap inside is raw KLE
// rows with "row,col" matrix coordinates in the top-left label slot.
func parseVIA(data []byte) (*Keyboard, error) {
	var raw struct {
		Name    string `json:"name"`
		Layouts struct {
			Keymap []json.RawMessage `json:"keymap"`
		} `json:"layouts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &InvalidLayoutError{Reason: err.Error()}
	}
	if len(raw.Layouts.Keymap) == 0 {
		return nil, &InvalidLayoutError{Reason: "VIA definition has no keymap"}
	}

	keyboard, err := parseRawRows(raw.Layouts.Keymap)
	if err != nil {
		return nil, err
	}
	keyboard.Meta.Name = raw.Name
	return keyboard, nil
}
