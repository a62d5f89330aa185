package ports

import "github.com/bft-labs/bleproxy/pkg/api"

// FrameSender writes framed messages to one client connection.
// Implementations serialize concurrent callers so frames never interleave.
type FrameSender interface {
	// SendFrame writes one frame carrying an already encoded body.
	SendFrame(typ api.MessageType, payload []byte) error

	// SendMessage encodes m and writes it as one frame.
	SendMessage(m api.Message) error
}
