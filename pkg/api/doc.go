// Package api defines the native API messages served by the proxy.
//
// Every record implements [Message]: it knows its [MessageType] and encodes
// and decodes its own fields with the [wire] codec. Field numbers and wire
// types match the ESPHome native API so that standard clients interoperate.
//
// Decoding is best-effort. Absent fields keep their zero value, unknown
// field numbers are skipped, and a malformed or truncated field fails the
// whole message.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package api
