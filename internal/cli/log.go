package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// effectiveLevel picks the log level for a run: --verbose wins, otherwise
// the configured level.
func effectiveLevel(verbose bool, configured log.Level) log.Level {
	if verbose {
		return log.DebugLevel
	}
	return configured
}

// progress logs completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Rendered home (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// ApplyLogLevel sets the logger level from --verbose and the configured
// [log] level. A config that fails to load leaves the level unchanged; the
// commands that need the config report the error.
func (c *CLI) ApplyLogLevel(verbose bool) {
	level := c.Logger.GetLevel()
	if cfg, err := c.config(); err == nil {
		level = cfg.LogLevel()
	}
	c.SetLogLevel(effectiveLevel(verbose, level))
}
