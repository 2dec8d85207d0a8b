package ws

import (
	"net/http"

	gws "github.com/gorilla/websocket"

	"github.com/wonmnms/Wagle/internal/session"
	"github.com/wonmnms/Wagle/pkg/logger"
	"github.com/wonmnms/Wagle/service"
)

var upgrader = gws.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for testing; restrict in production.
	},
}

// HandleWebSocket upgrades the request and runs a full protocol session
// over it. Name registration happens in-protocol with the first CONNECT
// frame, exactly as on the TCP listener.
func HandleWebSocket(chatService service.ChatService, logg logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logg.Errorf("upgrade error: %v", err)
			return
		}
		logg.Infof("new websocket connection from %s", conn.RemoteAddr())

		go session.New(&wsConn{ws: conn}, chatService, logg).Run()
	}
}
