// Package monitoring holds the process-wide diagnostic logger and frame
// throughput accounting.
package monitoring

import (
	"io"
	"log"
)

// Logf is the package-level diagnostic logger used by every component.
// It defaults to log.Printf; SetLogger or SetOutput redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetOutput routes Logf through a fresh *log.Logger writing to w with the
// standard date/time flags. Passing nil mutes logging.
func SetOutput(w io.Writer) {
	if w == nil {
		SetLogger(nil)
		return
	}
	l := log.New(w, "", log.LstdFlags)
	Logf = l.Printf
}
