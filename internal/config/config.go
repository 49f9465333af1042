// Package config loads kbplacer settings from a TOML file. Every field has
// a default, so a missing file or empty section is valid.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Placement Placement `toml:"placement"`
	Route     Route     `toml:"route"`
}

type Placement struct {
	// KeyDistance is the key unit pitch in millimeters, x then y.
	KeyDistance [2]float64 `toml:"key_distance"`
	// Switch is the switch annotation format, e.g. "SW{}".
	Switch string `toml:"switch"`
	// Diode is the diode element definition, e.g. "D{} CUSTOM 5 -4.5 90 BACK".
	Diode string `toml:"diode"`
	// Additional lists element definitions placed alongside each switch.
	Additional []string `toml:"additional"`
}

type Route struct {
	Enabled    bool    `toml:"enabled"`
	TrackWidth float64 `toml:"track_width"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Placement: Placement{
			KeyDistance: [2]float64{19.05, 19.05},
			Switch:      "SW{}",
			Diode:       "D{} DEFAULT",
		},
		Route: Route{
			TrackWidth: 0.25,
		},
	}
}

// Load reads a TOML file over the defaults. Unknown keys are rejected so a
// typo does not silently fall back to a default.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	if cfg.Placement.KeyDistance[0] <= 0 || cfg.Placement.KeyDistance[1] <= 0 {
		return nil, fmt.Errorf("key_distance must be positive")
	}
	if cfg.Route.TrackWidth <= 0 {
		return nil, fmt.Errorf("track_width must be positive")
	}
	return cfg, nil
}
