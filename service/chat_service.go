package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/wonmnms/Wagle/internal/chat"
	"github.com/wonmnms/Wagle/internal/protocol"
	"github.com/wonmnms/Wagle/pkg/logger"
)

// ChatService is the surface sessions talk to. It bundles the room registry,
// the process-wide name set, and the optional broadcast relay.
type ChatService interface {
	RegisterName(name string) error
	ReleaseName(name string)
	ActiveUsers() []string

	DefaultRoom() *chat.Room
	CreateRoom(name string, isPrivate bool) *chat.Room
	DeleteRoom(roomID string) error
	GetRoom(roomID string) (*chat.Room, bool)
	JoinRoom(roomID string, m chat.Member) error
	LeaveRoom(roomID string, m chat.Member) bool
	SwitchRoom(oldRoomID, newRoomID string, m chat.Member) error

	Publish(msg protocol.Message) error
	ListPublicRooms() []*chat.Room
	RoomSummaries() string
	RoomMembers(roomID string) ([]string, error)
}

type chatService struct {
	registry *chat.Registry
	names    *chat.NameSet
	log      logger.Logger
}

func NewChatService(registry *chat.Registry, names *chat.NameSet, log logger.Logger) ChatService {
	return &chatService{
		registry: registry,
		names:    names,
		log:      log.WithModule("service"),
	}
}

func (c *chatService) RegisterName(name string) error {
	return c.names.Claim(name)
}

func (c *chatService) ReleaseName(name string) {
	c.names.Release(name)
}

func (c *chatService) ActiveUsers() []string {
	return c.names.Active()
}

func (c *chatService) DefaultRoom() *chat.Room {
	return c.registry.DefaultRoom()
}

func (c *chatService) CreateRoom(name string, isPrivate bool) *chat.Room {
	return c.registry.CreateRoom(name, isPrivate)
}

func (c *chatService) DeleteRoom(roomID string) error {
	return c.registry.DeleteRoom(roomID)
}

func (c *chatService) GetRoom(roomID string) (*chat.Room, bool) {
	return c.registry.GetRoom(roomID)
}

func (c *chatService) JoinRoom(roomID string, m chat.Member) error {
	return c.registry.AddUserToRoom(roomID, m)
}

func (c *chatService) LeaveRoom(roomID string, m chat.Member) bool {
	return c.registry.RemoveUserFromRoom(roomID, m)
}

// SwitchRoom moves a member between rooms, rejoining the old room when the
// new one rejects the join.
func (c *chatService) SwitchRoom(oldRoomID, newRoomID string, m chat.Member) error {
	if oldRoomID != "" {
		c.registry.RemoveUserFromRoom(oldRoomID, m)
	}
	if err := c.registry.AddUserToRoom(newRoomID, m); err != nil {
		if oldRoomID != "" {
			if rejoinErr := c.registry.AddUserToRoom(oldRoomID, m); rejoinErr != nil {
				c.log.Errorf("rejoin of %s to %s failed: %v", m.Name(), oldRoomID, rejoinErr)
			}
		}
		return fmt.Errorf("failed to join room %s: %w", newRoomID, err)
	}
	return nil
}

// Publish broadcasts a message into the room it names.
func (c *chatService) Publish(msg protocol.Message) error {
	room, ok := c.registry.GetRoom(msg.RoomID)
	if !ok {
		return chat.ErrRoomNotFound
	}
	room.Broadcast(msg)
	return nil
}

func (c *chatService) ListPublicRooms() []*chat.Room {
	return c.registry.ListPublicRooms()
}

// RoomSummaries serializes the public room listing into ROOM_LIST content:
// entries of the form id:name:count:flag joined by ";". Colons are safe here
// because the codec escapes field content after assembly; the flag is "*"
// for the default room.
func (c *chatService) RoomSummaries() string {
	entries := lo.Map(c.registry.ListPublicRooms(), func(room *chat.Room, _ int) string {
		flag := ""
		if c.registry.IsDefault(room.ID()) {
			flag = "*"
		}
		return strings.Join([]string{
			room.ID(), room.Name(), strconv.Itoa(room.UserCount()), flag,
		}, ":")
	})
	return strings.Join(entries, ";")
}

func (c *chatService) RoomMembers(roomID string) ([]string, error) {
	room, ok := c.registry.GetRoom(roomID)
	if !ok {
		return nil, chat.ErrRoomNotFound
	}
	return room.MemberNames(), nil
}
