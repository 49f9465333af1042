package cli

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool

	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           log.InfoLevel,
	})
)

var rootCmd = &cobra.Command{
	Use:   "kbplacer",
	Short: "Keyboard PCB placement and routing tool",
	Long: `kbplacer places switch and diode footprints on a KiCad PCB according
to a keyboard layout description and routes each switch to its diode.

Examples:
  kbplacer place -b keyboard.kicad_pcb -l layout.json -r   # Place and route
  kbplacer place -b keyboard.kicad_pcb -l points.yaml      # Ergogen points input
  kbplacer info keyboard.kicad_pcb                         # Show board summary`,
	Version:      "1.0.0",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
