package ws

import (
	"context"
	"net/http"

	"github.com/wonmnms/Wagle/pkg/logger"
	"github.com/wonmnms/Wagle/service"
)

type WSConfig struct {
	ChatService service.ChatService
	RootCtx     context.Context
}

func SetupWebSocketRoutes(cfg WSConfig) http.Handler {
	mux := http.NewServeMux()
	log := logger.FromContext(cfg.RootCtx).WithModule("websocket")
	mux.HandleFunc("/ws", HandleWebSocket(cfg.ChatService, log))
	return mux
}
