package ws

import (
	"strings"
	"sync"

	gws "github.com/gorilla/websocket"

	"github.com/wonmnms/Wagle/internal/protocol"
)

// wsConn adapts a WebSocket connection to the session transport: one text
// frame carries exactly one wire line, so WebSocket clients speak the same
// protocol as raw TCP ones.
type wsConn struct {
	ws  *gws.Conn
	wmu sync.Mutex
}

func (c *wsConn) ReadMessage() (protocol.Message, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return protocol.Message{}, err
	}
	return protocol.Decode(strings.TrimRight(string(data), "\r\n"))
}

func (c *wsConn) WriteMessage(msg protocol.Message) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.ws.WriteMessage(gws.TextMessage, protocol.Encode(msg))
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}

func (c *wsConn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}
