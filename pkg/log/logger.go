package log

import "time"

// Logger provides structured logging capabilities.
// Implementations can wrap zerolog, zap, logrus, or any other logging library.
type Logger interface {
	// Debug logs a debug-level message with fields.
	Debug(msg string, fields ...Field)

	// Info logs an info-level message with fields.
	Info(msg string, fields ...Field)

	// Warn logs a warning-level message with fields.
	Warn(msg string, fields ...Field)

	// Error logs an error-level message with fields.
	Error(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Uint64 creates a uint64 field.
func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

// Float64 creates a float64 field.
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Hex creates a field rendered as a hex string.
func Hex(key string, value []byte) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field with key "error".
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// Any creates a field with any value.
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Uint32 creates a uint32 field.
func Uint32(key string, value uint32) Field {
	return Field{Key: key, Value: value}
}

// With returns a Logger that adds fields to every entry written through it.
func With(l Logger, fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	if fl, ok := l.(*fieldLogger); ok {
		merged := make([]Field, 0, len(fl.fields)+len(fields))
		merged = append(merged, fl.fields...)
		return &fieldLogger{next: fl.next, fields: append(merged, fields...)}
	}
	return &fieldLogger{next: l, fields: fields}
}

type fieldLogger struct {
	next   Logger
	fields []Field
}

func (l *fieldLogger) merge(fields []Field) []Field {
	out := make([]Field, 0, len(l.fields)+len(fields))
	out = append(out, l.fields...)
	return append(out, fields...)
}

func (l *fieldLogger) Debug(msg string, fields ...Field) { l.next.Debug(msg, l.merge(fields)...) }
func (l *fieldLogger) Info(msg string, fields ...Field)  { l.next.Info(msg, l.merge(fields)...) }
func (l *fieldLogger) Warn(msg string, fields ...Field)  { l.next.Warn(msg, l.merge(fields)...) }
func (l *fieldLogger) Error(msg string, fields ...Field) { l.next.Error(msg, l.merge(fields)...) }
