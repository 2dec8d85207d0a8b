package protocol

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Wire format: <type>:<sender>:<content>:<room_id>\n
//
// Fields are delimited by a colon. Literal colons inside a field are replaced
// with the placeholder rune before the line is assembled, and restored on
// decode, so any field content round-trips. Trailing fields may be omitted.
const (
	separator = ":"
	// placeholder is U+02F8 (modifier letter raised colon), two bytes in
	// UTF-8. It never occurs in client input because escaping is applied to
	// every outbound field, so its presence on the wire always marks an
	// escaped colon.
	placeholder = "˸"
)

// ProtocolError reports a wire line that could not be decoded.
type ProtocolError struct {
	Line   string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s: %q", e.Reason, e.Line)
}

// Encode serializes a message into one newline-terminated wire line.
func Encode(msg Message) []byte {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(int(msg.Type)))
	sb.WriteString(separator)
	sb.WriteString(escape(msg.Sender))
	sb.WriteString(separator)
	sb.WriteString(escape(msg.Content))
	sb.WriteString(separator)
	sb.WriteString(escape(msg.RoomID))
	sb.WriteString("\n")
	return []byte(sb.String())
}

// Decode parses one wire line (without the trailing newline) back into a
// message. Missing trailing fields decode as empty strings; a line without
// the first separator or with an unknown type ordinal is a ProtocolError.
func Decode(line string) (Message, error) {
	parts := strings.Split(line, separator)
	if len(parts) < 2 {
		return Message{}, &ProtocolError{Line: line, Reason: "missing field separator"}
	}
	if len(parts) > 4 {
		return Message{}, &ProtocolError{Line: line, Reason: "too many fields"}
	}

	ordinal, err := strconv.Atoi(parts[0])
	if err != nil {
		return Message{}, &ProtocolError{Line: line, Reason: "malformed type ordinal"}
	}
	msg := Message{Type: MessageType(ordinal)}
	if !msg.Type.valid() {
		return Message{}, &ProtocolError{Line: line, Reason: "type ordinal out of range"}
	}

	msg.Sender = unescape(parts[1])
	if len(parts) > 2 {
		msg.Content = unescape(parts[2])
	}
	if len(parts) > 3 {
		msg.RoomID = unescape(parts[3])
	}
	return msg, nil
}

func escape(field string) string {
	return strings.ReplaceAll(field, separator, placeholder)
}

func unescape(field string) string {
	return strings.ReplaceAll(field, placeholder, separator)
}

// RuneLength returns the number of Unicode codepoints in s. It is used for
// display-width purposes only, never for protocol framing.
func RuneLength(s string) int {
	return utf8.RuneCountInString(s)
}
