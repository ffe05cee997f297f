// Package cli implements the typegraph command-line interface.
//
// The commands load parser output (a Model JSON file, an array of models or
// a directory of model files) into a store, then check, edit, lay out,
// render, persist or serve it. The CLI is built using cobra and logs through
// charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - validate: Report diagnostics for a model
//   - tree: Print the namespace tree
//   - export / edit: Write the model back as parser output, optionally after
//     applying a JSON command script
//   - layout / render: Compute positions, or render DOT and SVG
//   - explore: Browse the namespace tree interactively
//   - serve: Expose the store over HTTP, reloading when inputs change
//   - save / open / docs: Persist documents in SQLite or MongoDB
//   - cache: Manage the layout cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Status lines
// go to stdout; logs go to stderr.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Imported 42 types from 3 models (12ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
