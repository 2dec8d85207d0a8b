package chat

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(nil, testLogger())
}

func TestCreateRoomGeneratesHexIDs(t *testing.T) {
	reg := testRegistry(t)
	idPattern := regexp.MustCompile(`^[0-9a-f]{8}$`)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		room := reg.CreateRoom("room", false)
		assert.Regexp(t, idPattern, room.ID())
		assert.False(t, seen[room.ID()], "ids must be unique")
		seen[room.ID()] = true
	}
}

func TestGetRoom(t *testing.T) {
	reg := testRegistry(t)
	room := reg.CreateRoom("Sports", false)

	got, ok := reg.GetRoom(room.ID())
	require.True(t, ok)
	assert.Same(t, room, got)

	_, ok = reg.GetRoom("missing1")
	assert.False(t, ok)
}

func TestListPublicRoomsExcludesPrivate(t *testing.T) {
	reg := testRegistry(t)
	pub := reg.CreateRoom("Lobby", false)
	reg.CreateRoom("Hidden", true)

	rooms := reg.ListPublicRooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, pub.ID(), rooms[0].ID())
}

func TestDefaultRoomIsDeleteProtected(t *testing.T) {
	reg := testRegistry(t)
	def := reg.EnsureDefaultRoom("General")

	assert.Same(t, def, reg.EnsureDefaultRoom("General"), "ensure is idempotent")
	assert.Same(t, def, reg.DefaultRoom())
	assert.True(t, reg.IsDefault(def.ID()))
	assert.ErrorIs(t, reg.DeleteRoom(def.ID()), ErrDefaultRoom)
}

func TestDeleteRoomPolicy(t *testing.T) {
	reg := testRegistry(t)

	assert.ErrorIs(t, reg.DeleteRoom("missing1"), ErrRoomNotFound)

	occupied := reg.CreateRoom("Busy", false)
	require.NoError(t, reg.AddUserToRoom(occupied.ID(), newFakeMember("alice")))
	assert.ErrorIs(t, reg.DeleteRoom(occupied.ID()), ErrRoomNotEmpty)

	empty := reg.CreateRoom("Ghost", false)
	require.NoError(t, reg.DeleteRoom(empty.ID()))
	_, ok := reg.GetRoom(empty.ID())
	assert.False(t, ok)
}

func TestMembershipConsistency(t *testing.T) {
	reg := testRegistry(t)
	room := reg.CreateRoom("Sports", false)
	alice := newFakeMember("alice")

	assert.ErrorIs(t, reg.AddUserToRoom("missing1", alice), ErrRoomNotFound)

	require.NoError(t, reg.AddUserToRoom(room.ID(), alice))
	rooms := reg.ListRoomsOf("alice")
	require.Len(t, rooms, 1)
	assert.Equal(t, room.ID(), rooms[0].ID())
	assert.Equal(t, []string{"alice"}, room.MemberNames())

	assert.True(t, reg.RemoveUserFromRoom(room.ID(), alice))
	assert.Empty(t, reg.ListRoomsOf("alice"))
	assert.Equal(t, 0, room.UserCount())
}

func TestRejectedJoinRollsBackMembershipEdge(t *testing.T) {
	reg := testRegistry(t)
	room := reg.CreateRoom("Tiny", false)
	room.SetMaxUsers(1)

	require.NoError(t, reg.AddUserToRoom(room.ID(), newFakeMember("alice")))
	err := reg.AddUserToRoom(room.ID(), newFakeMember("bob"))
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Empty(t, reg.ListRoomsOf("bob"))
}

func TestRemoveUserFromVanishedRoomStillDropsEdge(t *testing.T) {
	reg := testRegistry(t)
	room := reg.CreateRoom("Doomed", false)
	alice := newFakeMember("alice")
	require.NoError(t, reg.AddUserToRoom(room.ID(), alice))

	// Empty the room behind the registry's back, then delete it: the
	// membership edge is now stale.
	room.Leave(alice)
	require.NoError(t, reg.DeleteRoom(room.ID()))

	assert.False(t, reg.RemoveUserFromRoom(room.ID(), alice))
	assert.Empty(t, reg.ListRoomsOf("alice"))
}

func TestListRoomsOfPrunesStaleEntries(t *testing.T) {
	reg := testRegistry(t)
	keep := reg.CreateRoom("Keep", false)
	doomed := reg.CreateRoom("Doomed", false)
	alice := newFakeMember("alice")
	require.NoError(t, reg.AddUserToRoom(keep.ID(), alice))
	require.NoError(t, reg.AddUserToRoom(doomed.ID(), alice))

	doomed.Leave(alice)
	require.NoError(t, reg.DeleteRoom(doomed.ID()))

	rooms := reg.ListRoomsOf("alice")
	require.Len(t, rooms, 1)
	assert.Equal(t, keep.ID(), rooms[0].ID())
	// The stale id was pruned, not just filtered.
	rooms = reg.ListRoomsOf("alice")
	require.Len(t, rooms, 1)
}
