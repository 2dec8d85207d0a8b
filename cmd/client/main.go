package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"github.com/wonmnms/Wagle/internal/protocol"
)

var addr = flag.String("addr", "localhost:8080", "chat server address")

func main() {
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)
	stdin := bufio.NewScanner(os.Stdin)

	username, err := register(conn, reader, stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Registration failed: %v\n", err)
		os.Exit(1)
	}
	color.Green.Printf("Connected as %s. Type /help for commands.\n", username)

	done := make(chan struct{})
	go readMessages(reader, username, done)
	writeMessages(conn, stdin, done)
}

// register runs the name handshake, re-prompting while the server rejects
// the candidate name.
func register(conn net.Conn, reader *bufio.Reader, stdin *bufio.Scanner) (string, error) {
	for {
		fmt.Print("Enter your username: ")
		if !stdin.Scan() {
			return "", fmt.Errorf("stdin closed")
		}
		name := strings.TrimSpace(stdin.Text())

		_, err := conn.Write(protocol.Encode(protocol.Message{
			Type:   protocol.TypeConnect,
			Sender: name,
		}))
		if err != nil {
			return "", err
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		msg, err := protocol.Decode(strings.TrimRight(line, "\r\n"))
		if err != nil {
			return "", err
		}

		switch msg.Type {
		case protocol.TypeConnect:
			return name, nil
		case protocol.TypeUsernameError:
			color.Red.Printf("Rejected: %s\n", msg.Content)
		default:
			color.Red.Printf("Unexpected reply: %s\n", msg.Content)
		}
	}
}

func readMessages(reader *bufio.Reader, username string, done chan struct{}) {
	defer close(done)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			color.Red.Println("Disconnected from server.")
			return
		}
		msg, err := protocol.Decode(strings.TrimRight(line, "\r\n"))
		if err != nil {
			continue
		}
		render(msg, username)
	}
}

func render(msg protocol.Message, username string) {
	switch msg.Type {
	case protocol.TypeConnect, protocol.TypeDisconnect:
		color.Blue.Printf("-- %s\n", msg.Content)
	case protocol.TypeChatMsg, protocol.TypeRoomMessage:
		if msg.Sender == username {
			color.Yellow.Printf("%s: %s\n", msg.Sender, msg.Content)
		} else {
			fmt.Printf("%s: %s\n", msg.Sender, msg.Content)
		}
	case protocol.TypeUserCount:
		color.Gray.Printf("-- %s user(s) online\n", msg.Content)
	case protocol.TypeUserList:
		color.Cyan.Printf("-- in this room: %s\n", msg.Content)
	case protocol.TypeRoomList:
		renderRoomList(msg.Content)
	case protocol.TypeRoomCreate, protocol.TypeRoomJoin, protocol.TypeRoomLeave,
		protocol.TypeRoomDelete, protocol.TypeRoomInfo:
		color.Green.Printf("-- %s\n", msg.Content)
	case protocol.TypeUsernameError, protocol.TypeRoomError:
		color.Red.Printf("!! %s\n", msg.Content)
	}
}

// renderRoomList prints the serialized listing (entries "id:name:count:flag"
// joined by ";") as a table. The name is rejoined from the middle fields so
// names containing colons render intact.
func renderRoomList(listing string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Users", "Default"})

	for _, entry := range strings.Split(listing, ";") {
		fields := strings.Split(entry, ":")
		if len(fields) < 4 {
			continue
		}
		id := fields[0]
		flag := fields[len(fields)-1]
		count := fields[len(fields)-2]
		name := strings.Join(fields[1:len(fields)-2], ":")
		table.Append([]string{id, name, count, flag})
	}
	table.Render()
}

func writeMessages(conn net.Conn, stdin *bufio.Scanner, done chan struct{}) {
	send := func(msg protocol.Message) bool {
		if _, err := conn.Write(protocol.Encode(msg)); err != nil {
			color.Red.Printf("Send failed: %v\n", err)
			return false
		}
		return true
	}

	input := make(chan string)
	go func() {
		defer close(input)
		for stdin.Scan() {
			input <- stdin.Text()
		}
	}()

	for {
		select {
		case <-done:
			return
		case text, ok := <-input:
			if !ok {
				return
			}
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}

			cmd, arg := text, ""
			if i := strings.IndexByte(text, ' '); i > 0 {
				cmd, arg = text[:i], strings.TrimSpace(text[i+1:])
			}

			switch cmd {
			case "/quit":
				send(protocol.Message{Type: protocol.TypeDisconnect})
				return
			case "/rooms":
				send(protocol.Message{Type: protocol.TypeRoomList})
			case "/create":
				send(protocol.Message{Type: protocol.TypeRoomCreate, Content: arg})
			case "/join":
				send(protocol.Message{Type: protocol.TypeRoomJoin, Content: arg})
			case "/leave":
				send(protocol.Message{Type: protocol.TypeRoomLeave})
			case "/who":
				send(protocol.Message{Type: protocol.TypeUserList})
			case "/info":
				send(protocol.Message{Type: protocol.TypeRoomInfo})
			case "/delete":
				send(protocol.Message{Type: protocol.TypeRoomDelete, Content: arg})
			case "/help":
				printHelp()
			default:
				if strings.HasPrefix(cmd, "/") {
					color.Red.Printf("Unknown command: %s\n", cmd)
					continue
				}
				if !send(protocol.Message{Type: protocol.TypeChatMsg, Content: text}) {
					return
				}
			}
		}
	}
}

func printHelp() {
	fmt.Println(`Commands:
  /rooms          list public rooms
  /create <name>  create a room and join it
  /join <id>      join a room by id
  /leave          leave the current room
  /who            list users in the current room
  /info           show current room info
  /delete <id>    delete an empty room
  /quit           exit`)
}
