// Package log is the structured logging interface used across bleproxy.
//
// Components accept a [Logger] and never a concrete library. [ZerologAdapter]
// backs it with zerolog, [NoopLogger] discards everything, and [With] binds
// fields such as a session identifier to every entry:
//
//	logger := log.NewConsoleAdapter("debug")
//	sessionLog := log.With(logger, log.String("session", id), log.Int("slot", 0))
//	sessionLog.Warn("decode failed", log.Hex("payload", body), log.Err(err))
//
// Any other library can be plugged in by implementing the four level methods.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package log
