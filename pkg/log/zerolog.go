package log

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZerologAdapter implements Logger using zerolog.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates an adapter writing human-readable lines to stderr.
func NewZerologAdapter() *ZerologAdapter {
	return newConsole(os.Stderr)
}

func newConsole(w io.Writer) *ZerologAdapter {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	return &ZerologAdapter{logger: zerolog.New(output).With().Timestamp().Logger()}
}

// NewConsoleAdapter creates a console adapter filtering below level.
// An unknown level name falls back to info.
func NewConsoleAdapter(level string) *ZerologAdapter {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	a := NewZerologAdapter()
	a.logger = a.logger.Level(lvl)
	return a
}

// NewZerologAdapterWithLogger creates an adapter wrapping an existing zerolog.Logger.
func NewZerologAdapterWithLogger(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

func (z *ZerologAdapter) Debug(msg string, fields ...Field) { write(z.logger.Debug(), msg, fields) }
func (z *ZerologAdapter) Info(msg string, fields ...Field)  { write(z.logger.Info(), msg, fields) }
func (z *ZerologAdapter) Warn(msg string, fields ...Field)  { write(z.logger.Warn(), msg, fields) }
func (z *ZerologAdapter) Error(msg string, fields ...Field) { write(z.logger.Error(), msg, fields) }

// write is a no-op for events disabled by the level filter.
func write(event *zerolog.Event, msg string, fields []Field) {
	if event == nil {
		return
	}
	for _, f := range fields {
		event = addField(event, f)
	}
	event.Msg(msg)
}

func addField(event *zerolog.Event, f Field) *zerolog.Event {
	switch v := f.Value.(type) {
	case string:
		return event.Str(f.Key, v)
	case int:
		return event.Int(f.Key, v)
	case int64:
		return event.Int64(f.Key, v)
	case uint64:
		return event.Uint64(f.Key, v)
	case uint32:
		return event.Uint32(f.Key, v)
	case float64:
		return event.Float64(f.Key, v)
	case bool:
		return event.Bool(f.Key, v)
	case time.Duration:
		return event.Dur(f.Key, v)
	case []byte:
		return event.Hex(f.Key, v)
	case error:
		return event.Err(v)
	case fmt.Stringer:
		return event.Stringer(f.Key, v)
	default:
		return event.Interface(f.Key, v)
	}
}

// Logger returns the underlying zerolog.Logger.
func (z *ZerologAdapter) Logger() zerolog.Logger {
	return z.logger
}
