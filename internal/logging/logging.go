// Package logging owns the process-wide charmbracelet logger. Components
// derive their own with WithPrefix.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

var root = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      time.DateTime,
})

// Setup sets the root level and installs it as the package default.
// Unknown levels fall back to info.
func Setup(level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	root.SetLevel(lvl)
	log.SetDefault(root)
	return root
}

// Discard returns a logger that writes nowhere. Used by tests and optional
// collaborators that were not given a logger.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
