package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"relay/internal/config"
	"relay/internal/debug"
	"relay/internal/prof"
	"relay/internal/sink"
	"relay/internal/version"
)

// current holds the configuration loaded by the root command before any
// subcommand runs.
var current = config.Default()

// profiling is the profiler session started by setup.
var profiling *prof.Session

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "relay",
		Short: "Diagnostic message bus tools",
		Long: `relay transmits, records and replays diagnostic messages.

Environment:
  ` + debug.EnvVar + `   debug patterns, e.g. "*,not Folder" or "extends Region"
  ` + sink.EnvVar + `     log destination: console|stdout|stderr|log|ring|off|<file>
  ` + config.EnvStrict + `  panic on unterminated broadcast chains`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return profiling.Stop()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner(cmd.ErrOrStderr())
			return cmd.Help()
		},
	}
	root.Version = version.Version

	root.AddCommand(newEmitCmd())
	root.AddCommand(newRecordCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newDebugCmd())
	root.AddCommand(newKindsCmd())
	root.AddCommand(newVersionCmd())

	// Глобальные флаги
	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	root.PersistentFlags().String("log-level", "warn", "level of the process log (debug|info|warn|error)")
	root.PersistentFlags().String("config", "", "path to relay.toml (default: search upwards from the working directory)")
	root.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	root.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	root.PersistentFlags().String("runtime-trace", "", "write a runtime trace to this file")
	return root
}

// main builds the command tree and executes it. If command execution returns
// an error, the process exits with status code 1.
func main() {
	err := newRootCmd().Execute()
	if stopErr := profiling.Stop(); stopErr != nil {
		fmt.Fprintln(os.Stderr, stopErr)
	}
	if err != nil {
		os.Exit(1)
	}
}

// setup installs the process logger, loads the configuration and applies it.
func setup(cmd *cobra.Command, _ []string) error {
	levelName, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", levelName, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}

	if f := cmd.Flags().Lookup("color"); f != nil && f.Changed {
		cfg.Log.Color = f.Value.String()
	}
	mode, err := sink.ParseColorMode(cfg.Log.Color)
	if err != nil {
		return err
	}
	switch mode {
	case sink.ColorOn:
		color.NoColor = false
	case sink.ColorOff:
		color.NoColor = true
	}

	if err := cfg.Apply(); err != nil {
		return err
	}
	if profiling, err = startProfiling(cmd); err != nil {
		return err
	}
	slog.Debug("configuration loaded", "path", cfg.Path, "strict", cfg.Strict, "debug", cfg.Debug.Patterns)
	current = cfg
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Discover(".")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printBanner(w io.Writer) {
	dest := strings.TrimSpace(os.Getenv(sink.EnvVar))
	if dest == "" {
		dest = current.Log.Destination + " (" + sink.EnvVar + " unset)"
	}
	fmt.Fprintf(w, "%s\nlog: %s\n\n", version.String(), dest)
}

// startProfiling reads the persistent profiling flags and starts the
// requested profilers.
func startProfiling(cmd *cobra.Command) (*prof.Session, error) {
	var opts prof.Options
	for flag, dst := range map[string]*string{
		"cpu-profile":   &opts.CPU,
		"mem-profile":   &opts.Mem,
		"runtime-trace": &opts.Trace,
	} {
		v, err := cmd.Flags().GetString(flag)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", flag, err)
		}
		*dst = v
	}
	return prof.Start(opts)
}
