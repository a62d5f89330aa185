package log

// NoopLogger discards everything. It is the default when no logger is
// configured.
type NoopLogger struct{}

// NewNoopLogger creates a new no-op logger.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

func (NoopLogger) Debug(string, ...Field) {}
func (NoopLogger) Info(string, ...Field)  {}
func (NoopLogger) Warn(string, ...Field)  {}
func (NoopLogger) Error(string, ...Field) {}
