package domain

import "time"

// Direction tells whether a captured frame was received or sent.
type Direction uint8

const (
	Inbound Direction = iota
	Outbound
)

// String returns "in" or "out".
func (d Direction) String() string {
	if d == Outbound {
		return "out"
	}
	return "in"
}

// CapturedFrame is one frame observed on a session.
type CapturedFrame struct {
	// Time is when the frame was read or written
	Time time.Time

	// Session is the connection identifier
	Session string

	// Remote is the peer address
	Remote string

	// Direction tells whether the frame was received or sent
	Direction Direction

	// Type is the message type identifier
	Type uint16

	// Payload is the message body
	Payload []byte
}

// CaptureRecord is the serialized form of a CapturedFrame.
type CaptureRecord struct {
	TimeNS    int64  `cbor:"1,keyasint"`
	Session   string `cbor:"2,keyasint"`
	Remote    string `cbor:"3,keyasint,omitempty"`
	Direction uint8  `cbor:"4,keyasint"`
	Type      uint16 `cbor:"5,keyasint"`
	Payload   []byte `cbor:"6,keyasint"`
}

// ToRecord converts a CapturedFrame for serialization.
func (f CapturedFrame) ToRecord() CaptureRecord {
	return CaptureRecord{
		TimeNS:    f.Time.UnixNano(),
		Session:   f.Session,
		Remote:    f.Remote,
		Direction: uint8(f.Direction),
		Type:      f.Type,
		Payload:   f.Payload,
	}
}

// ToFrame converts a CaptureRecord back to a CapturedFrame.
func (r CaptureRecord) ToFrame() CapturedFrame {
	return CapturedFrame{
		Time:      time.Unix(0, r.TimeNS),
		Session:   r.Session,
		Remote:    r.Remote,
		Direction: Direction(r.Direction),
		Type:      r.Type,
		Payload:   r.Payload,
	}
}
