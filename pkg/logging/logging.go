// Package logging builds the structured loggers used across the emulator.
package logging

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Manu343726/atomicemu/pkg/utils"
	slogmulti "github.com/samber/slog-multi"
)

var (
	ErrUnknownLevel  = errors.New("unknown log level")
	ErrUnknownFormat = errors.New("unknown log format")
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type Options struct {
	// debug, info, warn or error
	Level string
	// Format of the console output, text or json
	Format string
	// Console output. Defaults to stderr.
	Console io.Writer
	// Optional file receiving a JSON copy of every record
	File string
}

// Parses a log level name (case insensitive). An empty name means info.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level

	if strings.TrimSpace(name) == "" {
		return slog.LevelInfo, nil
	}

	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, utils.MakeError(ErrUnknownLevel, "'%v'", name)
	}

	return level, nil
}

func consoleHandler(w io.Writer, format string, opts *slog.HandlerOptions) (slog.Handler, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return slog.NewTextHandler(w, opts), nil
	case FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, utils.MakeError(ErrUnknownFormat, "'%v' (expected %v or %v)", format, FormatText, FormatJSON)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error {
	return nil
}

// Creates a logger writing to the console and, if a file is given, to that file too.
// The returned closer releases the log file and must be called once logging is done.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	handler, err := consoleHandler(console, opts.Format, handlerOpts)
	if err != nil {
		return nil, nil, err
	}

	if opts.File == "" {
		return slog.New(handler), nopCloser{}, nil
	}

	file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	return slog.New(slogmulti.Fanout(handler, slog.NewJSONHandler(file, handlerOpts))), file, nil
}

// Logger dropping every record
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
