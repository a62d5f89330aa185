// Package frame delimits native API messages on a byte stream.
//
// A frame on the wire is:
//
//	[0x00 preamble][varint: len(type varint)+len(body)][varint: type][body]
//
// [DecodeHeader] parses the header of an accumulated buffer without consuming
// anything, [Encode] writes a complete frame into a caller-provided buffer and
// [Reader] reassembles frames from a connection regardless of how the stream
// is segmented.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package frame
