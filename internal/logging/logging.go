// Package logging builds the application's loggers. With a log file
// configured the output rotates; otherwise everything goes to stderr.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the shared log destination.
type Options struct {
	// File is the rotating log path. Empty means stderr.
	File string

	// MaxSizeMB caps a single log file before rotation (default: 10).
	MaxSizeMB int

	// MaxBackups is how many rotated files to keep (default: 3).
	MaxBackups int
}

// Writer returns the configured log destination. The caller owns the
// returned closer; closing a stderr writer is a no-op.
func Writer(opts Options) io.WriteCloser {
	if opts.File == "" {
		return nopCloser{os.Stderr}
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 10
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 3
	}
	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   true,
	}
}

// New returns a logger with the given bracketed prefix writing to w.
func New(w io.Writer, prefix string) *log.Logger {
	return log.New(w, "["+prefix+"] ", log.LstdFlags)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
