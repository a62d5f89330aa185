// Package wire implements the subset of the protobuf binary encoding used by
// the ESPHome native API.
//
// The package exposes two cursors:
//
//   - [Encoder] writes fields into a fixed-capacity buffer. A write that does
//     not fit leaves the buffer untouched and latches [ErrBufferOverflow];
//     every later write is a no-op, so callers check [Encoder.Err] once at the
//     end of a message.
//   - [Decoder] walks a field stream with [Decoder.Next] and the typed
//     readers. Underflow and malformed input surface as [ErrTruncated],
//     [ErrOverflow] or [ErrMalformed]; decoding never reads past the input.
//
// Supported wire types are varint (0), 64-bit (1), length-delimited (2) and
// 32-bit (5). Groups are rejected.
//
// # Usage
//
//	enc := wire.NewEncoderSize(64)
//	enc.Uint32(1, 1)
//	enc.String(3, "proxy")
//	if err := enc.Err(); err != nil {
//	    return err
//	}
//
//	dec := wire.NewDecoder(enc.Bytes())
//	for {
//	    num, typ, err := dec.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package wire
