package cli

import (
	"log/slog"
	"os"

	"github.com/fecgen/fecgen/config"
)

// Globals defines global flags available to all commands.
type Globals struct {
	Env     string `help:"Path to a .env file." type:"existingfile" optional:""`
	Plan    string `help:"Path to an accounting plan YAML file." type:"existingfile" optional:""`
	Verbose bool   `help:"Enable debug logging."`
}

type Commands struct {
	Globals

	Generate GenerateCmd `cmd:"" help:"Fetch the fiscal period from Qonto and write the FEC export."`
	Check    CheckCmd    `cmd:"" help:"Validate an existing FEC export."`
	Balances BalancesCmd `cmd:"" help:"Show account and class balances of a FEC export."`
}

// setupLogging installs the process-wide slog handler from the
// environment, with --verbose forcing the debug level.
func setupLogging(env *config.Env, verbose bool) {
	level := slog.LevelInfo
	switch env.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if env.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
