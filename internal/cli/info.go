package cli

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ceoloide/kicad-kbplacer/pkg/kicad/pcb"
)

var infoCmd = &cobra.Command{
	Use:   "info <board_file>",
	Short: "Show board summary",
	Long: `Display a summary of a KiCad PCB file: counts, nets and the reference
designator groups relevant to keyboard placement.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

var referenceGroup = regexp.MustCompile(`^([A-Za-z_]+)\d+$`)

func runInfo(cmd *cobra.Command, args []string) error {
	board, err := pcb.ParseFile(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Board: %s\n", args[0])
	fmt.Printf("  Version: %d\n", board.Version)
	fmt.Printf("  Generator: %s\n", board.Generator)
	fmt.Printf("  Nets: %d\n", len(board.Nets))
	fmt.Printf("  Footprints: %d\n", len(board.Footprints))
	fmt.Printf("  Tracks: %d\n", len(board.Tracks))

	groups := make(map[string]int)
	for _, fp := range board.Footprints {
		if m := referenceGroup.FindStringSubmatch(fp.Reference); m != nil {
			groups[m[1]]++
		}
	}
	if len(groups) > 0 {
		names := make([]string, 0, len(groups))
		for name := range groups {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Println("\nReference groups:")
		for _, name := range names {
			fmt.Printf("  %s{}: %d footprints\n", name, groups[name])
		}
	}
	return nil
}
