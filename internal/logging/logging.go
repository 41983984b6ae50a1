// Package logging wires the process-wide structured logger. It is the
// only package in this module that the core (internal/ocp, internal/kkt,
// internal/gmres, internal/continuation, internal/initializer,
// internal/solver) never imports — those stay silent libraries and report
// their findings as return values, not log lines. Above the core, only
// cmd/cgmres logs through here; internal/simrun, internal/store,
// internal/storage and internal/livetui do not log.
package logging

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"

	"github.com/san-kum/cgmres-mpc/internal/solver"
)

// Options configures New.
type Options struct {
	Level      slog.Level
	TimeFormat string
	NoColor    bool
}

// DefaultOptions mirrors what cmd/cgmres wires up when no flags override it.
func DefaultOptions() Options {
	return Options{
		Level:      slog.LevelInfo,
		TimeFormat: "15:04:05",
	}
}

// New builds a tint-colored slog.Logger writing to stderr.
func New(opts Options) *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      opts.Level,
		TimeFormat: opts.TimeFormat,
		NoColor:    opts.NoColor,
	}))
}

// SetDefault installs a New(opts) logger as slog's package-level default.
// cmd/cgmres does not call it; it builds its logger with New.
func SetDefault(opts Options) {
	slog.SetDefault(New(opts))
}

// LogEvent renders one solver.Event at the level verboseLevel allows,
// mirroring the reference implementation's own settings.verbose_level: 0
// stays silent, 1 logs a per-sample summary line at Info, 2 logs that same
// line at Debug instead of Info.
// Events with a non-empty Message (a stability warning, a GMRES breakdown
// notice, a numerical failure) always log at Warn, regardless of tier,
// once verboseLevel is at least 1. Kept here rather than in internal/solver
// so the core package never touches log/slog.
func LogEvent(logger *slog.Logger, e solver.Event, verboseLevel int) {
	if verboseLevel <= 0 {
		return
	}
	if e.Message != "" {
		logger.Warn(e.Message, "t", e.Time, "residual_norm", e.ResidualNorm)
		return
	}
	if verboseLevel >= 2 {
		logger.Debug("continuation step", "t", e.Time, "residual_norm", e.ResidualNorm)
		return
	}
	logger.Info("continuation step", "t", e.Time, "residual_norm", e.ResidualNorm)
}
