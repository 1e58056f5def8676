package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSizeMB  = 5
	maxBackups = 5
)

type Options struct {
	Level string
	// File, when set, receives a copy of every entry and is rotated by size.
	File string
	// Timestamps prefixes terminal entries with the time. It is forced on
	// when File is set.
	Timestamps bool
}

// Setup configures the default logger and returns a closer for the log
// file, if any.
func Setup(opts Options) (io.Closer, error) {
	level, err := log.ParseLevel(opts.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetReportTimestamp(opts.Timestamps)

	if opts.File == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}, err
	}

	if mkErr := os.MkdirAll(filepath.Dir(opts.File), 0o755); mkErr != nil {
		return nopCloser{}, mkErr
	}
	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, file))
	log.SetReportTimestamp(true)
	return file, err
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
