package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonmnms/Wagle/api/ws"
	"github.com/wonmnms/Wagle/config"
	"github.com/wonmnms/Wagle/internal/chat"
	"github.com/wonmnms/Wagle/internal/relay"
	"github.com/wonmnms/Wagle/internal/transport"
	"github.com/wonmnms/Wagle/pkg/logger"
	"github.com/wonmnms/Wagle/service"
)

// App represents the main application structure holding all dependencies
type App struct {
	cfg         config.Config
	logger      logger.Logger
	natsRelay   *relay.NATSRelay
	chatService service.ChatService
	tcpServer   *transport.Server
	httpServer  *http.Server
	rootCtx     context.Context
	cancel      context.CancelFunc
}

// NewApp initializes and connects all application dependencies
func NewApp(cfg config.Config) (*App, error) {
	baseLogger := logger.NewLogger(cfg.LogLevel, cfg.LogFile)
	rootCtx := logger.NewContext(context.Background(), baseLogger)
	rootCtx, rootCancel := context.WithCancel(rootCtx)

	log := logger.FromContext(rootCtx).WithModule("app")
	log.Infof("Initializing application components...")

	// The relay is optional; without a NATS URL broadcasts stay in-process.
	var natsRelay *relay.NATSRelay
	var roomRelay chat.Relay
	if cfg.NATSURL != "" {
		r, err := relay.NewNATSRelay(cfg.NATSURL, baseLogger)
		if err != nil {
			rootCancel()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		natsRelay = r
		roomRelay = r
	}

	registry := chat.NewRegistry(roomRelay, baseLogger)
	registry.EnsureDefaultRoom(cfg.DefaultRoom)
	names := chat.NewNameSet()
	chatService := service.NewChatService(registry, names, baseLogger)

	tcpServer := transport.NewServer(fmt.Sprintf("0.0.0.0:%d", cfg.Port), chatService, baseLogger)

	var httpServer *http.Server
	if cfg.WSPort > 0 {
		httpServer = &http.Server{
			Addr: fmt.Sprintf(":%d", cfg.WSPort),
			Handler: ws.SetupWebSocketRoutes(ws.WSConfig{
				ChatService: chatService,
				RootCtx:     rootCtx,
			}),
		}
	}

	app := &App{
		cfg:         cfg,
		logger:      log,
		natsRelay:   natsRelay,
		chatService: chatService,
		tcpServer:   tcpServer,
		httpServer:  httpServer,
		rootCtx:     rootCtx,
		cancel:      rootCancel,
	}

	log.Infof("Application initialized successfully")
	return app, nil
}

// Start runs the application and handles graceful shutdown on signal
func (a *App) Start() error {
	log := a.logger.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
	})
	log.Infof("Starting application server")

	if err := a.tcpServer.Start(); err != nil {
		return fmt.Errorf("failed to start TCP listener: %w", err)
	}

	g, _ := errgroup.WithContext(a.rootCtx)
	if a.httpServer != nil {
		g.Go(func() error {
			if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server failed: %w", err)
			}
			return nil
		})
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.WithFields(map[string]interface{}{
		"signal": sig.String(),
	}).Warnf("Received shutdown signal")

	stopErr := a.Stop()
	if err := g.Wait(); err != nil {
		return err
	}
	return stopErr
}

// Stop gracefully shuts down the listeners and closes all connections
func (a *App) Stop() error {
	log := a.logger.WithFields(map[string]interface{}{
		"shutdown_timeout": "5s",
	})
	log.Infof("Initiating graceful shutdown")

	a.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.tcpServer.Stop(ctx); err != nil {
		log.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Errorf("TCP server shutdown error")
	}

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			log.WithFields(map[string]interface{}{
				"error": err.Error(),
			}).Errorf("HTTP server shutdown error")
		}
	}

	if a.natsRelay != nil {
		log.Infof("Closing NATS connection")
		a.natsRelay.Close()
	}

	log.Infof("Shutdown completed successfully")
	return nil
}
