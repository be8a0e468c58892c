// Package logging initializes structured logging for one invocation of
// the tool. Unlike a long-running daemon, this binary runs once per
// game launch, so its log file is truncated at the start of every
// invocation rather than rotated.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// LogFileName is the per-invocation log file's fixed name.
const LogFileName = "cinc.log"

// Init truncates logDir/cinc.log and attaches it, plus any extra
// writers (typically a console writer), as the global logger's output.
func Init(logDir string, debug bool, extra ...io.Writer) (func() error, error) {
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(filepath.Join(logDir, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640) //nolint:gosec // path is caller-controlled
	if err != nil {
		return nil, err
	}

	writers := append([]io.Writer{f}, extra...)

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	log.Logger = log.Output(io.MultiWriter(writers...)).
		Level(level).
		With().Timestamp().Caller().Logger()

	return f.Close, nil
}

// ConsoleWriter returns a human-readable writer suitable for attaching
// to an interactive terminal, mirroring the split between a machine
// log file and a friendlier console stream.
func ConsoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
}
