package chat

import (
	"encoding/hex"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/wonmnms/Wagle/pkg/logger"
)

// Registry owns every room and the user→rooms membership index. The room map
// and the index are independent critical sections; neither lock is ever held
// across a call into a Room, so the registry and room locks cannot deadlock.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	umu       sync.Mutex
	userRooms map[string]map[string]struct{}

	defaultID string
	relay     Relay
	log       logger.Logger
}

func NewRegistry(relay Relay, log logger.Logger) *Registry {
	return &Registry{
		rooms:     make(map[string]*Room),
		userRooms: make(map[string]map[string]struct{}),
		relay:     relay,
		log:       log.WithModule("registry"),
	}
}

// newRoomID returns 8 random lowercase-hex characters. Collisions are
// vanishingly unlikely but cheap to rule out against the live map.
func (reg *Registry) newRoomID() string {
	for {
		id := uuid.New()
		candidate := hex.EncodeToString(id[:4])
		if _, exists := reg.rooms[candidate]; !exists {
			return candidate
		}
	}
}

// CreateRoom builds and registers a room under a fresh id. Room names are
// labels and may repeat; the id is the identity.
func (reg *Registry) CreateRoom(name string, isPrivate bool) *Room {
	reg.mu.Lock()
	id := reg.newRoomID()
	room := NewRoom(id, name, isPrivate, reg.relay, reg.log)
	reg.rooms[id] = room
	reg.mu.Unlock()

	reg.log.Infof("room created: %s (%s)", name, id)
	return room
}

// EnsureDefaultRoom creates the delete-protected default room once and
// returns it on every later call.
func (reg *Registry) EnsureDefaultRoom(name string) *Room {
	reg.mu.Lock()
	if reg.defaultID != "" {
		room := reg.rooms[reg.defaultID]
		reg.mu.Unlock()
		return room
	}
	id := reg.newRoomID()
	room := NewRoom(id, name, false, reg.relay, reg.log)
	reg.rooms[id] = room
	reg.defaultID = id
	reg.mu.Unlock()

	reg.log.Infof("default room created: %s (%s)", name, id)
	return room
}

// DefaultRoom returns the default room, or nil before EnsureDefaultRoom.
func (reg *Registry) DefaultRoom() *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.rooms[reg.defaultID]
}

// IsDefault reports whether id names the default room.
func (reg *Registry) IsDefault(id string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return id != "" && id == reg.defaultID
}

func (reg *Registry) GetRoom(id string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[id]
	return room, ok
}

// DeleteRoom removes an empty, non-default room.
func (reg *Registry) DeleteRoom(id string) error {
	reg.mu.Lock()
	room, ok := reg.rooms[id]
	if !ok {
		reg.mu.Unlock()
		return ErrRoomNotFound
	}
	if id == reg.defaultID {
		reg.mu.Unlock()
		return ErrDefaultRoom
	}
	reg.mu.Unlock()

	// Occupancy check happens outside the registry lock; a join racing with
	// the delete keeps the room alive.
	if room.UserCount() > 0 {
		return ErrRoomNotEmpty
	}

	reg.mu.Lock()
	delete(reg.rooms, id)
	reg.mu.Unlock()

	reg.log.Infof("room deleted: %s (%s)", room.Name(), id)
	return nil
}

// ListPublicRooms returns every room not flagged private.
func (reg *Registry) ListPublicRooms() []*Room {
	reg.mu.Lock()
	all := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		all = append(all, room)
	}
	reg.mu.Unlock()

	return lo.Filter(all, func(room *Room, _ int) bool {
		return !room.IsPrivate()
	})
}

// ListRoomsOf returns the rooms the user currently occupies, pruning index
// entries whose room no longer exists.
func (reg *Registry) ListRoomsOf(username string) []*Room {
	reg.umu.Lock()
	ids := lo.Keys(reg.userRooms[username])
	reg.umu.Unlock()

	rooms := make([]*Room, 0, len(ids))
	var stale []string
	for _, id := range ids {
		if room, ok := reg.GetRoom(id); ok {
			rooms = append(rooms, room)
		} else {
			stale = append(stale, id)
		}
	}

	if len(stale) > 0 {
		reg.umu.Lock()
		for _, id := range stale {
			delete(reg.userRooms[username], id)
		}
		if len(reg.userRooms[username]) == 0 {
			delete(reg.userRooms, username)
		}
		reg.umu.Unlock()
	}
	return rooms
}

// AddUserToRoom records the membership edge and delegates to Room.Join.
func (reg *Registry) AddUserToRoom(roomID string, m Member) error {
	room, ok := reg.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	reg.umu.Lock()
	if reg.userRooms[m.Name()] == nil {
		reg.userRooms[m.Name()] = make(map[string]struct{})
	}
	reg.userRooms[m.Name()][roomID] = struct{}{}
	reg.umu.Unlock()

	if err := room.Join(m); err != nil {
		reg.removeEdge(m.Name(), roomID)
		return err
	}
	return nil
}

// RemoveUserFromRoom drops the membership edge and, when the room still
// exists, delegates to Room.Leave. The edge is removed even if the room is
// already gone.
func (reg *Registry) RemoveUserFromRoom(roomID string, m Member) bool {
	reg.removeEdge(m.Name(), roomID)

	room, ok := reg.GetRoom(roomID)
	if !ok {
		return false
	}
	room.Leave(m)
	return true
}

func (reg *Registry) removeEdge(username, roomID string) {
	reg.umu.Lock()
	defer reg.umu.Unlock()
	if ids, ok := reg.userRooms[username]; ok {
		delete(ids, roomID)
		if len(ids) == 0 {
			delete(reg.userRooms, username)
		}
	}
}
