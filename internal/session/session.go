// Package session implements the per-connection protocol state machine:
// name registration, then dispatch of chat and room-management messages to
// the chat service.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wonmnms/Wagle/internal/chat"
	"github.com/wonmnms/Wagle/internal/protocol"
	"github.com/wonmnms/Wagle/pkg/logger"
	"github.com/wonmnms/Wagle/service"
)

// State tracks where a session is in its lifecycle.
type State int

const (
	StateAwaitingName State = iota
	StateActive
	StateClosed
)

// Session bridges one connection to the chat service. It implements
// chat.Member so rooms can write back through it; the connection itself
// never leaves the session.
type Session struct {
	conn Conn
	svc  service.ChatService
	log  logger.Logger

	state         State
	username      string
	currentRoomID string
}

func New(conn Conn, svc service.ChatService, log logger.Logger) *Session {
	return &Session{
		conn: conn,
		svc:  svc,
		log:  log.WithModule("session").WithFields(map[string]interface{}{"addr": conn.RemoteAddr()}),
	}
}

// Name implements chat.Member.
func (s *Session) Name() string { return s.username }

// Deliver implements chat.Member.
func (s *Session) Deliver(msg protocol.Message) error {
	return s.conn.WriteMessage(msg)
}

// State reports the current lifecycle state.
func (s *Session) State() State { return s.state }

// CurrentRoomID reports the room the session occupies, or "".
func (s *Session) CurrentRoomID() string { return s.currentRoomID }

// Run drives the session until the connection drops or the client quits.
// It always cleans up the registered name and room membership on exit.
func (s *Session) Run() {
	defer s.teardown()

	if err := s.awaitName(); err != nil {
		s.log.Infof("connection closed during registration: %v", err)
		return
	}
	s.readLoop()
}

// awaitName runs the registration handshake. Non-CONNECT messages are
// ignored while waiting; rejected names answer USERNAME_ERROR and leave the
// connection open so the client can retry.
func (s *Session) awaitName() error {
	for {
		msg, err := s.conn.ReadMessage()
		if err != nil {
			var perr *protocol.ProtocolError
			if errors.As(err, &perr) {
				s.log.Warnf("skipping malformed line: %v", perr)
				continue
			}
			return err
		}
		if msg.Type != protocol.TypeConnect {
			continue
		}

		name := strings.TrimSpace(msg.Sender)
		if err := s.svc.RegisterName(name); err != nil {
			s.reply(protocol.Message{
				Type:    protocol.TypeUsernameError,
				Sender:  protocol.SenderServer,
				Content: err.Error(),
			})
			continue
		}

		s.username = name
		s.log = s.log.WithFields(map[string]interface{}{"user": name})
		s.log.Infof("user connected")

		s.reply(protocol.Message{
			Type:    protocol.TypeConnect,
			Sender:  protocol.SenderServer,
			Content: "Connection successful",
		})

		room := s.svc.DefaultRoom()
		if err := s.svc.JoinRoom(room.ID(), s); err != nil {
			s.reply(s.roomError(fmt.Sprintf("failed to join default room: %v", err)))
		} else {
			s.currentRoomID = room.ID()
		}
		s.state = StateActive
		return nil
	}
}

func (s *Session) readLoop() {
	for {
		msg, err := s.conn.ReadMessage()
		if err != nil {
			var perr *protocol.ProtocolError
			if errors.As(err, &perr) {
				s.log.Warnf("skipping malformed line: %v", perr)
				continue
			}
			s.log.Infof("user disconnected: %v", err)
			return
		}
		if quit := s.dispatch(msg); quit {
			return
		}
	}
}

// dispatch handles one decoded message, returning true when the session
// should end. Every message kind is matched; kinds that only flow server to
// client are forward-compatible no-ops here.
func (s *Session) dispatch(msg protocol.Message) bool {
	switch msg.Type {
	case protocol.TypeChatMsg:
		s.handleChat(msg)
	case protocol.TypeRoomCreate:
		s.handleRoomCreate(msg)
	case protocol.TypeRoomJoin:
		s.handleRoomJoin(msg)
	case protocol.TypeRoomLeave:
		s.handleRoomLeave()
	case protocol.TypeRoomList:
		s.reply(protocol.Message{
			Type:    protocol.TypeRoomList,
			Sender:  protocol.SenderServer,
			Content: s.svc.RoomSummaries(),
		})
	case protocol.TypeUserList:
		s.handleUserList()
	case protocol.TypeRoomInfo:
		s.handleRoomInfo()
	case protocol.TypeRoomDelete:
		s.handleRoomDelete(msg)
	case protocol.TypeDisconnect:
		// Explicit client quit.
		return true
	case protocol.TypeConnect, protocol.TypeUserCount, protocol.TypeUsernameError,
		protocol.TypeRoomMessage, protocol.TypeRoomError:
		// Server-to-client kinds; ignore when sent by a client.
	}
	return false
}

func (s *Session) handleChat(msg protocol.Message) {
	if s.currentRoomID == "" {
		s.log.Debugf("chat message while not in a room, dropped")
		return
	}
	err := s.svc.Publish(protocol.Message{
		Type:    protocol.TypeRoomMessage,
		Sender:  s.username,
		Content: msg.Content,
		RoomID:  s.currentRoomID,
	})
	if err != nil {
		s.reply(s.roomError(fmt.Sprintf("failed to send message: %v", err)))
	}
}

func (s *Session) handleRoomCreate(msg protocol.Message) {
	name := strings.TrimSpace(msg.Content)
	if name == "" {
		s.reply(s.roomError("room name cannot be empty"))
		return
	}

	room := s.svc.CreateRoom(name, false)
	if err := s.svc.SwitchRoom(s.currentRoomID, room.ID(), s); err != nil {
		s.reply(s.roomError(err.Error()))
		return
	}
	s.currentRoomID = room.ID()

	s.reply(protocol.Message{
		Type:    protocol.TypeRoomCreate,
		Sender:  protocol.SenderServer,
		Content: "Room created: " + room.Name(),
		RoomID:  room.ID(),
	})
	s.reply(protocol.Message{
		Type:    protocol.TypeRoomJoin,
		Sender:  protocol.SenderServer,
		Content: "Joined room: " + room.Name(),
		RoomID:  room.ID(),
	})
	s.reply(protocol.Message{
		Type:    protocol.TypeRoomList,
		Sender:  protocol.SenderServer,
		Content: s.svc.RoomSummaries(),
	})
}

func (s *Session) handleRoomJoin(msg protocol.Message) {
	target := strings.TrimSpace(msg.Content)
	room, ok := s.svc.GetRoom(target)
	if !ok {
		s.reply(s.roomError("failed to join room: " + chat.ErrRoomNotFound.Error()))
		return
	}
	if target == s.currentRoomID {
		s.reply(s.roomError("already in room: " + room.Name()))
		return
	}

	if err := s.svc.SwitchRoom(s.currentRoomID, target, s); err != nil {
		s.reply(s.roomError(err.Error()))
		return
	}
	s.currentRoomID = target
	s.reply(protocol.Message{
		Type:    protocol.TypeRoomJoin,
		Sender:  protocol.SenderServer,
		Content: "Joined room: " + room.Name(),
		RoomID:  target,
	})
}

func (s *Session) handleRoomLeave() {
	if s.currentRoomID == "" {
		return
	}
	roomID := s.currentRoomID
	roomName := roomID
	if room, ok := s.svc.GetRoom(roomID); ok {
		roomName = room.Name()
	}
	s.svc.LeaveRoom(roomID, s)
	s.currentRoomID = ""
	s.reply(protocol.Message{
		Type:    protocol.TypeRoomLeave,
		Sender:  protocol.SenderServer,
		Content: "Left room: " + roomName,
		RoomID:  roomID,
	})
}

func (s *Session) handleUserList() {
	if s.currentRoomID == "" {
		s.reply(s.roomError("not in a room"))
		return
	}
	members, err := s.svc.RoomMembers(s.currentRoomID)
	if err != nil {
		s.reply(s.roomError(err.Error()))
		return
	}
	s.reply(protocol.Message{
		Type:    protocol.TypeUserList,
		Sender:  protocol.SenderServer,
		Content: strings.Join(members, ", "),
		RoomID:  s.currentRoomID,
	})
}

func (s *Session) handleRoomInfo() {
	if s.currentRoomID == "" {
		s.reply(s.roomError("not in a room"))
		return
	}
	room, ok := s.svc.GetRoom(s.currentRoomID)
	if !ok {
		s.reply(s.roomError(chat.ErrRoomNotFound.Error()))
		return
	}
	info := fmt.Sprintf("%s (%d users, created %s)",
		room.Name(), room.UserCount(), room.CreatedAt().Format("2006-01-02 15:04:05"))
	if room.IsPrivate() {
		info += " [private]"
	}
	s.reply(protocol.Message{
		Type:    protocol.TypeRoomInfo,
		Sender:  protocol.SenderServer,
		Content: info,
		RoomID:  room.ID(),
	})
}

func (s *Session) handleRoomDelete(msg protocol.Message) {
	target := strings.TrimSpace(msg.Content)
	if err := s.svc.DeleteRoom(target); err != nil {
		s.reply(s.roomError("failed to delete room: " + err.Error()))
		return
	}
	s.reply(protocol.Message{
		Type:    protocol.TypeRoomDelete,
		Sender:  protocol.SenderServer,
		Content: "Room deleted",
		RoomID:  target,
	})
}

func (s *Session) roomError(reason string) protocol.Message {
	return protocol.Message{
		Type:    protocol.TypeRoomError,
		Sender:  protocol.SenderServer,
		Content: reason,
	}
}

func (s *Session) reply(msg protocol.Message) {
	if err := s.conn.WriteMessage(msg); err != nil {
		s.log.Errorf("write failed: %v", err)
	}
}

func (s *Session) teardown() {
	if s.state == StateClosed {
		return
	}
	if s.username != "" {
		if s.currentRoomID != "" {
			s.svc.LeaveRoom(s.currentRoomID, s)
			s.currentRoomID = ""
		}
		s.svc.ReleaseName(s.username)
	}
	_ = s.conn.Close()
	s.state = StateClosed
}
