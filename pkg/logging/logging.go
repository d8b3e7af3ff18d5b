// Package logging builds the process logger from the log-level, log-format
// and log-output settings.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

type Options struct {
	Level  string
	Format string
	Output string
}

// ParseLevel accepts debug, info, warn and error. An empty level means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.Newf("unknown log level %q", level)
	}
}

func openOutput(output string) (io.Writer, func() error, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return os.Stdout, func() error { return nil }, nil
	case "stderr":
		return os.Stderr, func() error { return nil }, nil
	default:
		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "opening log output %s", output)
		}
		return file, file.Close, nil
	}
}

// NewHandler returns a json (default) or text handler writing to w.
func NewHandler(w io.Writer, format string, level slog.Level) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", "json":
		return slog.NewJSONHandler(w, opts), nil
	case "text":
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, errors.Newf("unknown log format %q", format)
	}
}

// Setup creates the logger, installs it as the slog default and returns a
// function closing the output file, if any.
func Setup(opts Options) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	output, closeFn, err := openOutput(opts.Output)
	if err != nil {
		return nil, nil, err
	}
	handler, err := NewHandler(output, opts.Format, level)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	logger.Info("logging initialized", "level", level.String(), "format", opts.Format, "output", opts.Output)
	return logger, closeFn, nil
}
