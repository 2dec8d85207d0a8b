// Package chat implements the room membership and broadcast engine: rooms
// with bounded history, the registry that owns them, and the process-wide
// display-name set.
package chat

import "github.com/wonmnms/Wagle/internal/protocol"

// Member is the handle a room holds for each occupant: a display name plus a
// writable sink. The session owning the underlying connection implements it;
// rooms never own or close the connection.
type Member interface {
	Name() string
	Deliver(msg protocol.Message) error
}

// Relay receives a copy of every room broadcast for external consumers. It
// is not a delivery path to members.
type Relay interface {
	Publish(msg protocol.Message)
}
