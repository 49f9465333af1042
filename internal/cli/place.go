package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ceoloide/kicad-kbplacer/internal/config"
	"github.com/ceoloide/kicad-kbplacer/pkg/kicad/pcb"
	"github.com/ceoloide/kicad-kbplacer/pkg/kle"
	"github.com/ceoloide/kicad-kbplacer/pkg/placer"
)

var (
	placeBoard      string
	placeLayout     string
	placeOut        string
	placeRoute      bool
	placeSwitch     string
	placeDiode      string
	placeAdditional string
	placeDistance   string
	placeTrackWidth float64
	placeConfig     string
)

var placeCmd = &cobra.Command{
	Use:   "place",
	Short: "Place switches and diodes on a board",
	Long: `Reads a keyboard layout (KLE raw/internal JSON, VIA definition or ergogen
points YAML) and a KiCad PCB, places every switch and companion element,
and optionally routes switches to their diodes.`,
	RunE: runPlace,
}

func init() {
	rootCmd.AddCommand(placeCmd)

	placeCmd.Flags().StringVarP(&placeBoard, "board", "b", "", "KiCad PCB file (required)")
	placeCmd.Flags().StringVarP(&placeLayout, "layout", "l", "", "keyboard layout file (required)")
	placeCmd.Flags().StringVarP(&placeOut, "out", "o", "", "output file (default: overwrite the board)")
	placeCmd.Flags().BoolVarP(&placeRoute, "route", "r", false, "route switches with diodes")
	placeCmd.Flags().StringVar(&placeSwitch, "switch", "", `switch annotation format (default "SW{}")`)
	placeCmd.Flags().StringVar(&placeDiode, "diode", "", `diode element definition (default "D{} DEFAULT")`)
	placeCmd.Flags().StringVar(&placeAdditional, "additional-elements", "", `extra element definitions, semicolon separated, e.g. "ST{} CUSTOM 0 0 0 FRONT;LED{} CURRENT_RELATIVE"`)
	placeCmd.Flags().StringVar(&placeDistance, "key-distance", "", `key unit pitch in mm, "19.05" or "18x17"`)
	placeCmd.Flags().Float64Var(&placeTrackWidth, "track-width", 0, "routed track width in mm")
	placeCmd.Flags().StringVarP(&placeConfig, "config", "c", "", "TOML config file")

	placeCmd.MarkFlagRequired("board")
	placeCmd.MarkFlagRequired("layout")
}

// parseKeyDistance accepts a single pitch applied to both axes, or an x/y
// pair separated by "x" or a space.
func parseKeyDistance(s string) ([2]float64, error) {
	var distance [2]float64
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == 'x' || r == ' '
	})
	if len(parts) == 0 || len(parts) > 2 {
		return distance, fmt.Errorf("invalid key distance %q", s)
	}
	x, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return distance, fmt.Errorf("invalid key distance %q", s)
	}
	y := x
	if len(parts) == 2 {
		y, err = strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return distance, fmt.Errorf("invalid key distance %q", s)
		}
	}
	if x <= 0 || y <= 0 {
		return distance, fmt.Errorf("key distance must be positive")
	}
	return [2]float64{x, y}, nil
}

// placeSettings folds the config file and command line flags together;
// flags win.
func placeSettings(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if placeConfig != "" {
		loaded, err := config.Load(placeConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if placeSwitch != "" {
		cfg.Placement.Switch = placeSwitch
	}
	if placeDiode != "" {
		cfg.Placement.Diode = placeDiode
	}
	if cmd.Flags().Changed("additional-elements") {
		cfg.Placement.Additional = strings.Split(placeAdditional, ";")
	}
	if placeDistance != "" {
		distance, err := parseKeyDistance(placeDistance)
		if err != nil {
			return nil, err
		}
		cfg.Placement.KeyDistance = distance
	}
	if placeRoute {
		cfg.Route.Enabled = true
	}
	if cmd.Flags().Changed("track-width") {
		cfg.Route.TrackWidth = placeTrackWidth
	}
	return cfg, nil
}

func runPlace(cmd *cobra.Command, args []string) error {
	cfg, err := placeSettings(cmd)
	if err != nil {
		return err
	}

	// the switch takes a bare annotation format, not a full definition
	switchInfo := placer.ElementInfo{Annotation: cfg.Placement.Switch}
	if err := switchInfo.Validate(); err != nil {
		return err
	}
	diodeInfo, err := placer.ParseElementInfo(cfg.Placement.Diode)
	if err != nil {
		return err
	}
	var additional []placer.ElementInfo
	for _, definition := range cfg.Placement.Additional {
		definition = strings.TrimSpace(definition)
		if definition == "" {
			continue
		}
		infos, err := placer.ParseElementInfoList(definition)
		if err != nil {
			return err
		}
		additional = append(additional, infos...)
	}

	keyboard, err := kle.GetKeyboardFromFile(placeLayout)
	if err != nil {
		return err
	}
	logger.Info("loaded layout", "file", placeLayout, "keys", len(keyboard.Keys))

	board, err := pcb.ParseFile(placeBoard)
	if err != nil {
		return err
	}
	logger.Info("loaded board", "file", placeBoard,
		"footprints", len(board.Footprints), "nets", len(board.Nets))

	engine := placer.New(board,
		placer.WithKeyDistance(cfg.Placement.KeyDistance[0], cfg.Placement.KeyDistance[1]),
		placer.WithTrackWidth(cfg.Route.TrackWidth),
		placer.WithLogger(logger),
	)
	report, err := engine.Run(keyboard, switchInfo, diodeInfo, cfg.Route.Enabled, additional)
	if err != nil {
		return err
	}

	logger.Info("placement done",
		"switches", report.PlacedSwitches,
		"elements", report.PlacedElements,
		"routed", report.RoutedPairs,
		"removed_tracks", report.RemovedTracks)
	for _, failure := range report.Unroutable {
		logger.Warn(failure.Error())
	}

	out := placeOut
	if out == "" {
		out = placeBoard
	}
	if err := board.SaveFile(out); err != nil {
		return err
	}
	logger.Info("saved board", "file", out)
	return nil
}
