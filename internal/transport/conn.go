package transport

import (
	"bufio"
	"net"
	"strings"
	"sync"

	"github.com/wonmnms/Wagle/internal/protocol"
)

// LineConn frames the wire protocol over a raw stream connection: one
// newline-terminated line per message. Writes are serialized so concurrent
// broadcasts never interleave on the socket.
type LineConn struct {
	conn net.Conn
	r    *bufio.Reader

	wmu sync.Mutex
}

func NewLineConn(conn net.Conn) *LineConn {
	return &LineConn{
		conn: conn,
		r:    bufio.NewReader(conn),
	}
}

func (c *LineConn) ReadMessage() (protocol.Message, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		return protocol.Message{}, err
	}
	return protocol.Decode(strings.TrimRight(line, "\r\n"))
}

func (c *LineConn) WriteMessage(msg protocol.Message) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := c.conn.Write(protocol.Encode(msg))
	return err
}

func (c *LineConn) Close() error {
	return c.conn.Close()
}

func (c *LineConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
