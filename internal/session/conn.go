package session

import "github.com/wonmnms/Wagle/internal/protocol"

// Conn abstracts one duplex client connection regardless of transport (raw
// TCP or the WebSocket gateway). A session owns its Conn exclusively for the
// connection's lifetime.
type Conn interface {
	// ReadMessage blocks for the next decoded wire message. Undecodable
	// lines surface as *protocol.ProtocolError; transport failures surface
	// as ordinary I/O errors.
	ReadMessage() (protocol.Message, error)

	// WriteMessage encodes and sends one message. Implementations must
	// serialize concurrent writes.
	WriteMessage(msg protocol.Message) error

	Close() error
	RemoteAddr() string
}
