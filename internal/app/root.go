// Package app wires the CLI: flag handling, configuration layering,
// logger setup, and the command tree.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"killport/internal/config"
	"killport/internal/kill"
	"killport/internal/output"
	"killport/internal/proc"
)

// The platform layer satisfies the engine contracts.
var (
	_ kill.Resolver = proc.Resolver{}
	_ kill.Signaler = (*proc.Signaler)(nil)
)

var (
	flagDryRun   bool
	flagSignal   string
	flagGrace    time.Duration
	flagAnyState bool
	flagVerbose  int
	flagQuiet    bool
)

var rootCmd = &cobra.Command{
	Use:   "killport [flags] ports...",
	Short: "Kill the processes bound to the given ports",
	Long: `killport finds the processes bound to the given ports and terminates
them: first with a graceful signal, then, after a grace period, with a
forceful kill for whatever survived.

By default only listening sockets count (TCP LISTEN, bound UDP); pass
--any-state to target connections in any state.`,
	Example: `  killport 8080
  killport -s sigkill 8080 3000
  killport --dry-run 8080`,
	Args:         cobra.MinimumNArgs(1),
	RunE:         runRoot,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().BoolVarP(&flagDryRun, "dry-run", "d", false, "report matching processes without killing them")
	rootCmd.PersistentFlags().StringVarP(&flagSignal, "signal", "s", "sigterm", "graceful signal to send first")
	rootCmd.PersistentFlags().DurationVar(&flagGrace, "grace-period", 500*time.Millisecond, "wait between the graceful signal and the forceful kill")
	rootCmd.PersistentFlags().BoolVar(&flagAnyState, "any-state", false, "target sockets in any state, not just listeners")
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "only log errors")
}

// SetVersionBuildCommitString composes the version shown by --version
// from the ldflags-injected build info.
func SetVersionBuildCommitString(version, commit, buildDate string) {
	if version == "" {
		version = "dev"
	}
	v := version
	if commit != "" {
		v += " (" + commit
		if buildDate != "" {
			v += ", " + buildDate
		}
		v += ")"
	}
	rootCmd.Version = v
}

// Execute runs the command tree. Errors have already been printed by
// cobra; the exit code is all that is left to do.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	ports, err := parsePorts(args)
	if err != nil {
		return err
	}

	log := newLogger(flagVerbose, flagQuiet, flagDryRun)
	eng, _, err := buildEngine(cmd, log)
	if err != nil {
		return err
	}

	for _, port := range ports {
		res, err := eng.ResolveAndKill(port, flagDryRun)
		if err != nil {
			return err
		}
		fmt.Println(output.KillLine(port, res))
	}
	return nil
}

// resolveConfig layers the configuration sources; flags that were
// explicitly set win over file and environment.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("signal") {
		cfg.Signal = flagSignal
	}
	if cmd.Flags().Changed("grace-period") {
		cfg.Grace = flagGrace
	}
	if cmd.Flags().Changed("any-state") {
		cfg.AnyState = flagAnyState
	}
	return cfg, nil
}

func buildEngine(cmd *cobra.Command, log *slog.Logger) (*kill.Engine, config.Config, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, config.Config{}, err
	}

	sig, err := proc.NewSignaler(cfg.Signal)
	if err != nil {
		return nil, config.Config{}, err
	}

	eng := &kill.Engine{
		Resolver: proc.Resolver{AnyState: cfg.AnyState},
		Signaler: sig,
		Grace:    cfg.Grace,
		SelfPID:  os.Getpid(),
		Log:      log,
	}
	return eng, cfg, nil
}

// newLogger builds the stderr logger. Verbosity maps to warn, info,
// debug; quiet drops to errors only. A dry run floors the level at info
// so the would-kill lines are visible, unless quiet asked otherwise.
func newLogger(verbosity int, quiet, dryRun bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbosity == 1:
		level = slog.LevelInfo
	case verbosity >= 2:
		level = slog.LevelDebug
	}
	if dryRun && !quiet && level > slog.LevelInfo {
		level = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func parsePorts(args []string) ([]uint16, error) {
	ports := make([]uint16, 0, len(args))
	for _, arg := range args {
		port, err := parsePort(arg)
		if err != nil {
			return nil, err
		}
		ports = append(ports, port)
	}
	return ports, nil
}

func parsePort(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid port %q: must be 1-65535", s)
	}
	return uint16(v), nil
}
