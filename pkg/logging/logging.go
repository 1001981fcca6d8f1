// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package logging builds the zerolog.Logger each node's main uses, reading
// the same LOG_LEVEL/LOG_FORMAT/LOG_PATH/LOG_FILENAME settings both nodes
// carry in configuration.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Options mirrors the logging fields common to config.FPConfig and
// config.RPConfig.
type Options struct {
	Level    string
	Format   string
	Path     string
	Filename string
}

// New builds a zerolog.Logger writing json (the default) or a
// human-readable console format to either stdout or a file under Path.
func New(opts Options) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("logging: invalid log level %q: %w", opts.Level, err)
	}

	var writer io.Writer = os.Stdout
	if opts.Path != "" && opts.Path != "console" {
		if err := os.MkdirAll(opts.Path, 0o755); err != nil {
			return zerolog.Logger{}, fmt.Errorf("logging: create log directory: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(opts.Path, opts.Filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("logging: open log file: %w", err)
		}
		writer = f
	}

	if opts.Format == "plain" {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(writer).Level(level).With().Timestamp().Logger(), nil
}
