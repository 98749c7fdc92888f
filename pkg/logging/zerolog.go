package logging

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Format represents the log output format
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// zlogger adapts a zerolog.Logger to the Logger interface
type zlogger struct {
	zl     zerolog.Logger
	closer io.Closer
}

func newZlogger(w io.Writer, format Format, level Level, closer io.Closer) *zlogger {
	if format != FormatJSON {
		w = textWriter(w)
	}
	zl := zerolog.New(w).Level(level.zerolog()).With().Timestamp().Logger()
	return &zlogger{zl: zl, closer: closer}
}

// textWriter renders events as "timestamp [LEVEL] message key=value"
func textWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		FormatLevel: func(i interface{}) string {
			return "[" + strings.ToUpper(fmt.Sprint(i)) + "]"
		},
	}
}

// NewConsoleLogger logs human-readable lines to w (typically stderr)
func NewConsoleLogger(w io.Writer, level Level) Logger {
	return newZlogger(w, FormatText, level, nil)
}

// NewWriterLogger logs to w in the given format; w is not closed
func NewWriterLogger(w io.Writer, format Format, level Level) Logger {
	return newZlogger(w, format, level, nil)
}

func (l *zlogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.zl.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l *zlogger) Info(ctx context.Context, msg string, fields Fields) {
	l.zl.Info().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l *zlogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.zl.Warn().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l *zlogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	ev := l.zl.Error().Fields(map[string]interface{}(fields))
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg(msg)
}

// WithFields returns a child logger sharing the same output.
// Closing the child is a no-op.
func (l *zlogger) WithFields(fields Fields) Logger {
	return &zlogger{zl: l.zl.With().Fields(map[string]interface{}(fields)).Logger()}
}

func (l *zlogger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func init() {
	zerolog.TimestampFieldName = "timestamp"
	zerolog.TimeFieldFormat = time.RFC3339
}
