package protocol

// MessageType identifies what a wire message means. The numeric values are
// part of the wire protocol and must not be reordered.
type MessageType int

const (
	TypeConnect MessageType = iota
	TypeDisconnect
	TypeChatMsg
	TypeUserList
	TypeUserCount
	TypeUsernameError
	TypeRoomCreate
	TypeRoomDelete
	TypeRoomJoin
	TypeRoomLeave
	TypeRoomList
	TypeRoomInfo
	TypeRoomMessage
	TypeRoomError
)

// SenderServer is the reserved sender name for server-generated messages.
const SenderServer = "SERVER"

// Message is the wire-level unit exchanged between client and server.
type Message struct {
	Type    MessageType `json:"type"`
	Sender  string      `json:"sender,omitempty"`
	Content string      `json:"content,omitempty"`
	RoomID  string      `json:"room,omitempty"`
}

func (t MessageType) valid() bool {
	return t >= TypeConnect && t <= TypeRoomError
}

func (t MessageType) String() string {
	switch t {
	case TypeConnect:
		return "CONNECT"
	case TypeDisconnect:
		return "DISCONNECT"
	case TypeChatMsg:
		return "CHAT_MSG"
	case TypeUserList:
		return "USER_LIST"
	case TypeUserCount:
		return "USER_COUNT"
	case TypeUsernameError:
		return "USERNAME_ERROR"
	case TypeRoomCreate:
		return "ROOM_CREATE"
	case TypeRoomDelete:
		return "ROOM_DELETE"
	case TypeRoomJoin:
		return "ROOM_JOIN"
	case TypeRoomLeave:
		return "ROOM_LEAVE"
	case TypeRoomList:
		return "ROOM_LIST"
	case TypeRoomInfo:
		return "ROOM_INFO"
	case TypeRoomMessage:
		return "ROOM_MESSAGE"
	case TypeRoomError:
		return "ROOM_ERROR"
	default:
		return "UNKNOWN"
	}
}
