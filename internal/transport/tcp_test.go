package transport

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonmnms/Wagle/internal/chat"
	"github.com/wonmnms/Wagle/internal/protocol"
	"github.com/wonmnms/Wagle/pkg/logger"
	"github.com/wonmnms/Wagle/service"
)

func startTestServer(t *testing.T) (*Server, service.ChatService) {
	t.Helper()
	log := logger.NewLogger("error", "")
	registry := chat.NewRegistry(nil, log)
	registry.EnsureDefaultRoom("General")
	svc := service.NewChatService(registry, chat.NewNameSet(), log)

	srv := NewServer("127.0.0.1:0", svc, log)
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})
	return srv, svc
}

func dialTestServer(t *testing.T, srv *Server) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	return conn, bufio.NewReader(conn)
}

func readWire(t *testing.T, r *bufio.Reader) protocol.Message {
	t.Helper()
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	msg, err := protocol.Decode(strings.TrimRight(line, "\r\n"))
	require.NoError(t, err)
	return msg
}

func TestConnectOverWire(t *testing.T) {
	srv, _ := startTestServer(t)
	conn, r := dialTestServer(t, srv)

	_, err := conn.Write([]byte("0:alice::\n"))
	require.NoError(t, err)

	reply := readWire(t, r)
	assert.Equal(t, protocol.TypeConnect, reply.Type)
	assert.Equal(t, protocol.SenderServer, reply.Sender)
	assert.Equal(t, "Connection successful", reply.Content)

	count := readWire(t, r)
	assert.Equal(t, protocol.TypeUserCount, count.Type)
	assert.Equal(t, "1", count.Content)
}

func TestMalformedLineIsSkipped(t *testing.T) {
	srv, _ := startTestServer(t)
	conn, r := dialTestServer(t, srv)

	_, err := conn.Write([]byte("this is not a frame\n99:x:y:z\n0:alice::\n"))
	require.NoError(t, err)

	reply := readWire(t, r)
	assert.Equal(t, protocol.TypeConnect, reply.Type, "bad lines must not kill the session")
}

func TestTwoClientsExchangeChat(t *testing.T) {
	srv, _ := startTestServer(t)

	aliceConn, aliceR := dialTestServer(t, srv)
	_, err := aliceConn.Write(protocol.Encode(protocol.Message{Type: protocol.TypeConnect, Sender: "alice"}))
	require.NoError(t, err)
	readWire(t, aliceR) // CONNECT ok
	readWire(t, aliceR) // USER_COUNT 1

	bobConn, bobR := dialTestServer(t, srv)
	_, err = bobConn.Write(protocol.Encode(protocol.Message{Type: protocol.TypeConnect, Sender: "bob"}))
	require.NoError(t, err)
	readWire(t, bobR) // CONNECT ok

	// Alice sees bob's arrival before any chat.
	join := readWire(t, aliceR)
	assert.Equal(t, protocol.TypeConnect, join.Type)
	assert.Equal(t, "bob has joined the chat.", join.Content)

	_, err = aliceConn.Write(protocol.Encode(protocol.Message{
		Type: protocol.TypeChatMsg, Content: "hi: all 🎉",
	}))
	require.NoError(t, err)

	var got protocol.Message
	for {
		got = readWire(t, bobR)
		if got.Type == protocol.TypeRoomMessage {
			break
		}
	}
	assert.Equal(t, "alice", got.Sender)
	assert.Equal(t, "hi: all 🎉", got.Content, "separators and emoji survive the wire")
}

func TestDisconnectFreesName(t *testing.T) {
	srv, svc := startTestServer(t)
	conn, r := dialTestServer(t, srv)

	_, err := conn.Write([]byte("0:alice::\n"))
	require.NoError(t, err)
	readWire(t, r)
	readWire(t, r)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return svc.RegisterName("alice") == nil
	}, 2*time.Second, 10*time.Millisecond, "name not released after socket close")
}
