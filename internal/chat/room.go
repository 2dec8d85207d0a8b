package chat

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/wonmnms/Wagle/internal/protocol"
	"github.com/wonmnms/Wagle/pkg/logger"
)

// maxRecentMessages bounds the per-room history ring.
const maxRecentMessages = 100

// Room is a broadcast group with a bounded message history. All mutation of
// the member set and history happens under the room's own mutex; delivery
// failures are logged and never remove a member (removal only happens via
// Leave).
type Room struct {
	id        string
	name      string
	isPrivate bool
	createdAt time.Time

	mu       sync.Mutex
	maxUsers int
	members  map[Member]struct{}
	history  []protocol.Message

	relay Relay
	log   logger.Logger
}

func NewRoom(id, name string, isPrivate bool, relay Relay, log logger.Logger) *Room {
	return &Room{
		id:        id,
		name:      name,
		isPrivate: isPrivate,
		createdAt: time.Now(),
		members:   make(map[Member]struct{}),
		relay:     relay,
		log:       log.WithModule("room").WithFields(map[string]interface{}{"room": id}),
	}
}

func (r *Room) ID() string           { return r.id }
func (r *Room) Name() string         { return r.name }
func (r *Room) IsPrivate() bool      { return r.isPrivate }
func (r *Room) CreatedAt() time.Time { return r.createdAt }

func (r *Room) MaxUsers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxUsers
}

// SetMaxUsers caps occupancy; zero means unlimited. Existing members are
// never evicted by lowering the cap.
func (r *Room) SetMaxUsers(max int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maxUsers = max
}

func (r *Room) UserCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

func (r *Room) MemberNames() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.members))
	for m := range r.members {
		names = append(names, m.Name())
	}
	r.mu.Unlock()
	sort.Strings(names)
	return names
}

// RecentMessages returns a copy of the history, oldest first.
func (r *Room) RecentMessages() []protocol.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]protocol.Message, len(r.history))
	copy(out, r.history)
	return out
}

// Join adds a member. The join announcement goes to the other members and
// into history; the joiner instead receives the prior history (minus their
// own announcement) in original order, then everyone gets the new user
// count.
func (r *Room) Join(m Member) error {
	r.mu.Lock()
	if r.maxUsers > 0 && len(r.members) >= r.maxUsers {
		r.mu.Unlock()
		return ErrRoomFull
	}
	r.members[m] = struct{}{}

	ann := protocol.Message{
		Type:    protocol.TypeConnect,
		Sender:  protocol.SenderServer,
		Content: fmt.Sprintf("%s has joined the chat.", m.Name()),
		RoomID:  r.id,
	}
	r.appendLocked(ann)
	for other := range r.members {
		if other == m {
			continue
		}
		r.deliverLocked(other, ann)
	}

	replay := make([]protocol.Message, 0, len(r.history))
	for _, h := range r.history {
		if h.Type == protocol.TypeConnect && h.Content == ann.Content {
			continue
		}
		replay = append(replay, h)
	}
	r.mu.Unlock()

	for _, h := range replay {
		if err := m.Deliver(h); err != nil {
			r.log.Errorf("history replay to %s failed: %v", m.Name(), err)
		}
	}
	r.publish(ann)
	r.BroadcastUserCount()
	return nil
}

// Leave removes a member. It is a no-op for non-members.
func (r *Room) Leave(m Member) {
	r.mu.Lock()
	if _, ok := r.members[m]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.members, m)
	r.mu.Unlock()

	r.Broadcast(protocol.Message{
		Type:    protocol.TypeDisconnect,
		Sender:  protocol.SenderServer,
		Content: fmt.Sprintf("%s has left the chat.", m.Name()),
		RoomID:  r.id,
	})
	r.BroadcastUserCount()
}

// Broadcast appends the message to history and attempts best-effort
// delivery to every current member.
func (r *Room) Broadcast(msg protocol.Message) {
	r.mu.Lock()
	r.appendLocked(msg)
	for m := range r.members {
		r.deliverLocked(m, msg)
	}
	r.mu.Unlock()
	r.publish(msg)
}

// BroadcastUserCount sends the current member count to every member. Count
// updates are transient and are not recorded in history.
func (r *Room) BroadcastUserCount() {
	r.mu.Lock()
	msg := protocol.Message{
		Type:    protocol.TypeUserCount,
		Sender:  protocol.SenderServer,
		Content: strconv.Itoa(len(r.members)),
		RoomID:  r.id,
	}
	for m := range r.members {
		r.deliverLocked(m, msg)
	}
	r.mu.Unlock()
}

func (r *Room) appendLocked(msg protocol.Message) {
	r.history = append(r.history, msg)
	if len(r.history) > maxRecentMessages {
		r.history = r.history[len(r.history)-maxRecentMessages:]
	}
}

func (r *Room) deliverLocked(m Member, msg protocol.Message) {
	if err := m.Deliver(msg); err != nil {
		r.log.Errorf("delivery to %s failed: %v", m.Name(), err)
	}
}

func (r *Room) publish(msg protocol.Message) {
	if r.relay != nil {
		r.relay.Publish(msg)
	}
}
