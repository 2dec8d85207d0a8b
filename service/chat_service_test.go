package service

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonmnms/Wagle/internal/chat"
	"github.com/wonmnms/Wagle/internal/protocol"
	"github.com/wonmnms/Wagle/pkg/logger"
)

type sinkMember struct {
	name string

	mu    sync.Mutex
	inbox []protocol.Message
}

func (m *sinkMember) Name() string { return m.name }

func (m *sinkMember) Deliver(msg protocol.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbox = append(m.inbox, msg)
	return nil
}

func (m *sinkMember) received() []protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]protocol.Message, len(m.inbox))
	copy(out, m.inbox)
	return out
}

func setupChatService(t *testing.T) (ChatService, *chat.Registry) {
	t.Helper()
	log := logger.NewLogger("error", "")
	registry := chat.NewRegistry(nil, log)
	registry.EnsureDefaultRoom("General")
	return NewChatService(registry, chat.NewNameSet(), log), registry
}

func TestNameUniqueness(t *testing.T) {
	svc, _ := setupChatService(t)

	require.NoError(t, svc.RegisterName("alice"))
	assert.ErrorIs(t, svc.RegisterName("alice"), chat.ErrNameTaken)

	svc.ReleaseName("alice")
	require.NoError(t, svc.RegisterName("alice"), "name reusable after release")
	assert.Equal(t, []string{"alice"}, svc.ActiveUsers())
}

func TestSwitchRoomMovesMember(t *testing.T) {
	svc, _ := setupChatService(t)
	alice := &sinkMember{name: "alice"}

	old := svc.DefaultRoom()
	require.NoError(t, svc.JoinRoom(old.ID(), alice))

	next := svc.CreateRoom("Sports", false)
	require.NoError(t, svc.SwitchRoom(old.ID(), next.ID(), alice))

	assert.Equal(t, 0, old.UserCount())
	assert.Equal(t, 1, next.UserCount())
}

func TestSwitchRoomRollsBackOnRejection(t *testing.T) {
	svc, _ := setupChatService(t)
	alice := &sinkMember{name: "alice"}

	old := svc.DefaultRoom()
	require.NoError(t, svc.JoinRoom(old.ID(), alice))

	full := svc.CreateRoom("Tiny", false)
	full.SetMaxUsers(1)
	require.NoError(t, svc.JoinRoom(full.ID(), &sinkMember{name: "squatter"}))

	err := svc.SwitchRoom(old.ID(), full.ID(), alice)
	require.Error(t, err)
	assert.True(t, errors.Is(err, chat.ErrRoomFull))
	assert.Equal(t, 1, old.UserCount(), "member rejoins the old room on failure")
}

func TestPublishBroadcastsToRoom(t *testing.T) {
	svc, _ := setupChatService(t)
	alice := &sinkMember{name: "alice"}
	bob := &sinkMember{name: "bob"}

	room := svc.DefaultRoom()
	require.NoError(t, svc.JoinRoom(room.ID(), alice))
	require.NoError(t, svc.JoinRoom(room.ID(), bob))

	require.NoError(t, svc.Publish(protocol.Message{
		Type: protocol.TypeRoomMessage, Sender: "alice", Content: "hi", RoomID: room.ID(),
	}))

	for _, m := range []*sinkMember{alice, bob} {
		var chats []protocol.Message
		for _, msg := range m.received() {
			if msg.Type == protocol.TypeRoomMessage {
				chats = append(chats, msg)
			}
		}
		require.Len(t, chats, 1, "%s receives exactly one copy", m.name)
		assert.Equal(t, "hi", chats[0].Content)
		assert.Equal(t, "alice", chats[0].Sender)
	}
}

func TestPublishToUnknownRoom(t *testing.T) {
	svc, _ := setupChatService(t)
	err := svc.Publish(protocol.Message{Type: protocol.TypeRoomMessage, RoomID: "missing1"})
	assert.ErrorIs(t, err, chat.ErrRoomNotFound)
}

func TestRoomSummaries(t *testing.T) {
	svc, reg := setupChatService(t)
	def := svc.DefaultRoom()
	sports := svc.CreateRoom("Sports", false)
	require.NoError(t, svc.JoinRoom(sports.ID(), &sinkMember{name: "alice"}))
	svc.CreateRoom("Secret", true)

	entries := strings.Split(svc.RoomSummaries(), ";")
	require.Len(t, entries, 2, "private rooms are not listed")
	assert.Contains(t, entries, def.ID()+":General:0:*")
	assert.Contains(t, entries, sports.ID()+":Sports:1:")
	assert.True(t, reg.IsDefault(def.ID()))
}

func TestRoomMembers(t *testing.T) {
	svc, _ := setupChatService(t)
	room := svc.CreateRoom("Sports", false)
	require.NoError(t, svc.JoinRoom(room.ID(), &sinkMember{name: "bob"}))
	require.NoError(t, svc.JoinRoom(room.ID(), &sinkMember{name: "alice"}))

	members, err := svc.RoomMembers(room.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, members)

	_, err = svc.RoomMembers("missing1")
	assert.ErrorIs(t, err, chat.ErrRoomNotFound)
}
