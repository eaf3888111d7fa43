// Package cli implements the vesselflow command-line interface.
//
// The CLI is built with cobra and logs through charmbracelet/log. Every
// command reads vesselflow.toml (or --config) before it runs.
//
// # Commands
//
//   - import: validate the tables, build, lay out and render a graph
//   - layout: lay out a saved graph again
//   - render: render a laid-out graph to svg, png, dot or json
//   - export: write the vessel table of a graph as CSV
//   - explore: edit a graph in the terminal with undo and redo
//   - workspace: list, show and delete saved workspaces
//   - serve: run the HTTP API
//   - cache: clear or locate the layout cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps that writes to w
// and filters at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs stage completions with the time since the last stage.
// It is meant for one goroutine.
type progress struct {
	logger *log.Logger
	start  time.Time
	last   time.Time
}

func newProgress(l *log.Logger) *progress {
	now := time.Now()
	return &progress{logger: l, start: now, last: now}
}

// step logs msg with the time spent since the previous step.
func (p *progress) step(msg string, keyvals ...any) {
	now := time.Now()
	p.logger.Debug(msg, append(keyvals, "took", now.Sub(p.last).Round(time.Millisecond))...)
	p.last = now
}

// done logs msg with the total elapsed time, e.g. "Imported 42 vessels (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
