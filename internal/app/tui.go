package app

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"killport/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Pick and kill processes interactively",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Engine log lines would fight the full-screen UI for the terminal;
	// the UI renders kill outcomes itself.
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, cfg, err := buildEngine(cmd, log)
	if err != nil {
		return err
	}
	return tui.Run(eng, cfg.AnyState)
}
