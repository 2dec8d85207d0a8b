// Package transport accepts raw TCP chat connections and hands each one to
// a session.
package transport

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/wonmnms/Wagle/internal/session"
	"github.com/wonmnms/Wagle/pkg/logger"
	"github.com/wonmnms/Wagle/service"
)

// Server owns the TCP listener. Each accepted connection runs its own
// session goroutine; sessions only meet through the shared chat service.
type Server struct {
	addr string
	svc  service.ChatService
	log  logger.Logger

	ln net.Listener
	wg sync.WaitGroup
}

func NewServer(addr string, svc service.ChatService, log logger.Logger) *Server {
	return &Server{
		addr: addr,
		svc:  svc,
		log:  log.WithModule("tcp"),
	}
}

// Start binds the listener and begins accepting in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.log.Infof("listening on %s", ln.Addr())

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the bound listener address, useful when addr was ":0".
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Errorf("accept failed: %v", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			session.New(NewLineConn(conn), s.svc, s.log).Run()
		}()
	}
}

// Stop closes the listener and waits for in-flight sessions to drain, up to
// the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	if s.ln != nil {
		_ = s.ln.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
