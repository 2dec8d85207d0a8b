// Package relay mirrors room broadcasts onto NATS subjects so external
// consumers (moderation, archiving, dashboards) can tap the message stream.
// It is outbound only: member delivery always happens in-process.
package relay

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/wonmnms/Wagle/internal/protocol"
	"github.com/wonmnms/Wagle/pkg/logger"
)

// NATSRelay publishes each broadcast as JSON on chat.room.<id>, or
// chat.events for messages without a room.
type NATSRelay struct {
	conn *nats.Conn
	log  logger.Logger
}

func NewNATSRelay(url string, log logger.Logger) (*NATSRelay, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSRelay{
		conn: nc,
		log:  log.WithModule("relay"),
	}, nil
}

// Publish implements chat.Relay. Relay failures are logged and swallowed;
// the tap must never affect in-room delivery.
func (r *NATSRelay) Publish(msg protocol.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.log.Errorf("failed to serialize message: %v", err)
		return
	}

	subject := "chat.events"
	if msg.RoomID != "" {
		subject = fmt.Sprintf("chat.room.%s", msg.RoomID)
	}
	if err := r.conn.Publish(subject, data); err != nil {
		r.log.Errorf("publish to %s failed: %v", subject, err)
	}
}

func (r *NATSRelay) Close() {
	r.conn.Close()
}
